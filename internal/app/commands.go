package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"sweepstakes/internal/adapters/observability"
	"sweepstakes/internal/domain"
)

type ImportService struct {
	repo  domain.ListingRepository
	cache domain.Cache
	clock domain.Clock
}

func NewImportService(r domain.ListingRepository, cache domain.Cache, clock domain.Clock) *ImportService {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &ImportService{repo: r, cache: cache, clock: clock}
}

// ImportRecord maps one raw record, upserts it and evicts the listing
// snapshots. It returns the stored listing's id.
func (s *ImportService) ImportRecord(ctx context.Context, rec map[string]any) (string, error) {
	l, err := mapListing(rec, s.clock.Now().UTC())
	if err != nil {
		return "", err
	}
	if err := s.repo.UpsertListing(ctx, l); err != nil {
		return "", fmt.Errorf("upsert listing %s: %w", l.ID, err)
	}
	if s.cache != nil {
		// a re-import may move a listing between categories, so every
		// snapshot is suspect, not just the new category's
		if err := s.cache.DelPrefix(ctx, snapshotPrefix); err != nil {
			log.Warn().Err(err).Str("id", l.ID).Msg("listing snapshot eviction failed")
		}
	}
	return l.ID, nil
}

type ImportSummary struct {
	Imported int
	Failed   int
}

// ImportBatch imports records with at most workers in flight. A failing
// record is logged and counted; it never aborts the batch.
func (s *ImportService) ImportBatch(ctx context.Context, records []map[string]any, workers int) ImportSummary {
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var ok, failed int64

	for i, rec := range records {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			atomic.AddInt64(&failed, int64(len(records)-i))
			log.Warn().Err(err).Int("skipped", len(records)-i).Msg("import interrupted")
			break
		}

		wg.Add(1)
		go func(idx int, rec map[string]any) {
			defer wg.Done()
			defer sem.Release(1)

			id, err := s.ImportRecord(ctx, rec)
			observability.ObserveImport(err == nil)
			if err != nil {
				atomic.AddInt64(&failed, 1)
				log.Warn().Int("index", idx).Err(err).Msg("import failed")
				return
			}
			atomic.AddInt64(&ok, 1)
			log.Debug().Int("index", idx).Str("id", id).Msg("import ok")
		}(i, rec)
	}

	wg.Wait()
	return ImportSummary{Imported: int(ok), Failed: int(failed)}
}

// ImportFile loads a JSON array of listing records from path.
func (s *ImportService) ImportFile(ctx context.Context, path string, workers int) (ImportSummary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("read %s: %w", path, err)
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return ImportSummary{}, fmt.Errorf("decode %s: %v: %w", path, err, domain.ErrMalformed)
	}
	return s.ImportBatch(ctx, records, workers), nil
}
