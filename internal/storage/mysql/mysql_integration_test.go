//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"sweepstakes/internal/domain"
	mysqlrepo "sweepstakes/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string { return &s }

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=sweepstakes",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/sweepstakes?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// ---------- the test ----------
func TestRepo_MySQL_UpsertAndQuery(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	seed := []domain.Listing{
		{ID: "1", Name: "$10,000 Cash Giveaway", Reward: "$10,000 Cash", Category: "Cash", AffLink: "https://example.com/1", EndDate: pstr("Dec 31, 2025"), CreatedAt: base.Add(-72 * time.Hour)},
		{ID: "2", Name: "iPhone 15 Pro Max", Reward: "Latest iPhone", Category: "Tech & Gadgets", AffLink: "https://example.com/2", EligibleCountries: []string{"US", "CA"}, CreatedAt: base.Add(-48 * time.Hour)},
		{ID: "7", Name: "$25,000 Grand Prize", Reward: "$25,000 Cash", Category: "Cash", AffLink: "https://example.com/7", CustomInstructions: pstr("Daily entry"), CreatedAt: base.Add(-time.Hour)},
	}
	for _, l := range seed {
		if err := repo.UpsertListing(ctx, l); err != nil {
			t.Fatalf("UpsertListing %s: %v", l.ID, err)
		}
	}

	all, err := repo.ListListings(ctx, domain.ListingsQuery{})
	if err != nil {
		t.Fatalf("ListListings: %v", err)
	}
	if len(all) != 3 || all[0].ID != "7" || all[2].ID != "1" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	cash := "Cash"
	onlyCash, err := repo.ListListings(ctx, domain.ListingsQuery{Category: &cash})
	if err != nil || len(onlyCash) != 2 {
		t.Fatalf("category query: %v %+v", err, onlyCash)
	}

	got, err := repo.GetListing(ctx, "2")
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if len(got.EligibleCountries) != 2 || got.EligibleCountries[0] != "US" || got.EndDate != nil {
		t.Fatalf("unexpected listing: %+v", got)
	}
	if _, err := repo.GetListing(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	// re-import keeps the original created_at
	upd := seed[0]
	upd.Reward = "$12,000 Cash"
	upd.CreatedAt = base
	if err := repo.UpsertListing(ctx, upd); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	got, _ = repo.GetListing(ctx, "1")
	if got.Reward != "$12,000 Cash" || !got.CreatedAt.Equal(seed[0].CreatedAt) {
		t.Fatalf("unexpected after re-upsert: %+v", got)
	}

	total, recent, err := repo.CountSince(ctx, base.Add(-24*time.Hour))
	if err != nil || total != 3 || recent != 1 {
		t.Fatalf("CountSince: total=%d recent=%d err=%v", total, recent, err)
	}
}
