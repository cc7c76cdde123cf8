//go:build integration || !unit

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"

	server "sweepstakes/internal/adapters/http_server"
	redisad "sweepstakes/internal/adapters/redis"
	"sweepstakes/internal/app"
	"sweepstakes/internal/domain"
	mysqlrepo "sweepstakes/internal/storage/mysql"
)

// ---------- helpers ----------
func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir()

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

func openMySQL(t *testing.T) *sql.DB {
	t.Helper()
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

type listResp struct {
	Items []struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		EndDate string `json:"end_date"`
	} `json:"items"`
	Count int `json:"count"`
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusOK && out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return res.StatusCode
}

func names(r listResp) string {
	var s []string
	for _, it := range r.Items {
		s = append(s, it.Name)
	}
	return strings.Join(s, ",")
}

// ---------- the test ----------
func TestHTTP_EndToEnd_ImportThenBrowse(t *testing.T) {
	db := openMySQL(t)
	mr := miniredis.RunT(t)
	cache := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	clock := domain.ClockFunc(func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) })
	imp := app.NewImportService(repo, cache, clock)
	records := []map[string]any{
		{"id": float64(101), "name": "Cash Drop", "reward": "$2,500", "category": "Cash", "end_date": "2025-06-03", "eligible_countries": []any{"us"}, "created_at": "2025-05-01T00:00:00Z"},
		{"id": float64(102), "name": "Console Bundle", "reward": "$700", "category": "Gaming", "end_date": "2025-07-01", "created_at": "2025-05-02T00:00:00Z"},
		{"id": float64(103), "name": "Island Escape", "prize": "$12,000", "category": "Travel", "endDate": "2025-06-20T12:00:00Z", "created_at": "2025-05-03T00:00:00Z"},
	}
	for _, rec := range records {
		if _, err := imp.ImportRecord(ctx, rec); err != nil {
			t.Fatalf("import %v: %v", rec["id"], err)
		}
	}

	srv := server.New()
	srv.MountHandlers(&server.Handlers{
		Q:     app.NewQueryService(repo, cache, time.Minute, clock),
		Clock: clock,
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var newest listResp
	if code := getJSON(t, ts.URL+"/v1/listings?country=all", &newest); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if got := names(newest); got != "Island Escape,Console Bundle,Cash Drop" {
		t.Fatalf("newest order: %s", got)
	}

	var ending listResp
	getJSON(t, ts.URL+"/v1/listings?country=all&sort=ending", &ending)
	if got := names(ending); got != "Cash Drop,Island Escape,Console Bundle" {
		t.Fatalf("ending order: %s", got)
	}

	var gb listResp
	getJSON(t, ts.URL+"/v1/listings?country=GB", &gb)
	if gb.Count != 2 {
		t.Fatalf("GB visitor should not see the US-only listing: %s", names(gb))
	}

	// a new import must evict the cached snapshot
	if _, err := imp.ImportRecord(ctx, map[string]any{"id": float64(104), "name": "Road Trip Car", "reward": "$30,000", "category": "Automotive", "created_at": "2025-05-04T00:00:00Z"}); err != nil {
		t.Fatalf("import 104: %v", err)
	}
	var after listResp
	getJSON(t, ts.URL+"/v1/listings?country=all", &after)
	if after.Count != 4 || after.Items[0].ID != "104" {
		t.Fatalf("snapshot not refreshed after import: %s", names(after))
	}

	var page struct {
		Title string `json:"title"`
		Count int    `json:"count"`
	}
	if code := getJSON(t, ts.URL+"/v1/categories/automotive-sweepstakes?country=all", &page); code != http.StatusOK || page.Count != 1 {
		t.Fatalf("automotive page: code=%d %+v", code, page)
	}

	if code := getJSON(t, ts.URL+"/v1/listings/999", nil); code != http.StatusNotFound {
		t.Fatalf("unknown listing: want 404, got %d", code)
	}
}
