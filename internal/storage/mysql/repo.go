package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sweepstakes/internal/domain"
)

const defaultLimit = 500

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valCountries(cs []string) any {
	if len(cs) == 0 {
		return nil
	}
	b, _ := json.Marshal(cs)
	return string(b)
}

type scanner interface {
	Scan(dest ...any) error
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertListing(ctx context.Context, l domain.Listing) error {
	created := l.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, upsertListingSQL,
		l.ID,
		l.Name,
		l.Logo,
		l.Reward,
		l.Category,
		l.AffLink,
		valStr(l.EndDate),
		valStr(l.CustomInstructions),
		valCountries(l.EligibleCountries),
		created.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert listing: %w", err)
	}
	return nil
}

func (r *Repo) ListListings(ctx context.Context, q domain.ListingsQuery) ([]domain.Listing, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if q.Category != nil {
		rows, err = r.db.QueryContext(ctx, listListingsByCategorySQL, *q.Category, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, listListingsSQL, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	out := []domain.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return out, nil
}

func (r *Repo) GetListing(ctx context.Context, id string) (domain.Listing, error) {
	l, err := scanListing(r.db.QueryRowContext(ctx, getListingSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, err
}

func (r *Repo) CountSince(ctx context.Context, since time.Time) (total, recent int, err error) {
	if err := r.db.QueryRowContext(ctx, countSinceSQL, since.UTC()).Scan(&total, &recent); err != nil {
		return 0, 0, fmt.Errorf("count listings: %w", err)
	}
	return total, recent, nil
}

func scanListing(s scanner) (domain.Listing, error) {
	var (
		l            domain.Listing
		endDate      sql.NullString
		instructions sql.NullString
		countries    []byte
	)
	if err := s.Scan(
		&l.ID,
		&l.Name,
		&l.Logo,
		&l.Reward,
		&l.Category,
		&l.AffLink,
		&endDate,
		&instructions,
		&countries,
		&l.CreatedAt,
	); err != nil {
		return domain.Listing{}, err
	}

	if endDate.Valid && endDate.String != "" {
		s := endDate.String
		l.EndDate = &s
	}
	if instructions.Valid && instructions.String != "" {
		s := instructions.String
		l.CustomInstructions = &s
	}
	l.EligibleCountries = decodeCountries(countries)
	l.CreatedAt = l.CreatedAt.UTC()
	return l, nil
}

// decodeCountries reads the eligibility column. Anything other than a JSON
// array of strings reads as "eligible everywhere".
func decodeCountries(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var cs []string
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil
	}
	return cs
}
