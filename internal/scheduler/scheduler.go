// Package scheduler re-runs the listing import on a cron schedule so the
// store follows the feed file without a restart.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"sweepstakes/internal/app"
)

// Importer is the part of app.ImportService the scheduler drives.
type Importer interface {
	ImportFile(ctx context.Context, path string, workers int) (app.ImportSummary, error)
}

type Scheduler struct {
	cron    *cron.Cron
	imp     Importer
	spec    string // cron spec, e.g. "@every 1h"
	path    string
	workers int

	mu      sync.Mutex // one import cycle at a time
	cycles  int
	lastSum app.ImportSummary
}

func New(imp Importer, spec, path string, workers int) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		imp:     imp,
		spec:    spec,
		path:    path,
		workers: workers,
	}
}

// Start registers the job, starts the cron loop and runs one import right
// away so the store is populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc %q: %w", s.spec, err)
	}
	s.cron.Start()
	log.Info().Str("spec", s.spec).Str("file", s.path).Msg("import scheduler started")

	go s.RunOnce(ctx)
	return nil
}

// Stop waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Info().Int("cycles", s.cycles).Msg("import scheduler stopped")
}

// RunOnce performs one import cycle. Overlapping ticks wait their turn.
func (s *Scheduler) RunOnce(ctx context.Context) app.ImportSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return s.lastSum
	}

	sum, err := s.imp.ImportFile(ctx, s.path, s.workers)
	s.cycles++
	if err != nil {
		log.Error().Err(err).Str("file", s.path).Msg("scheduled import failed")
		return sum
	}
	s.lastSum = sum
	log.Info().Int("imported", sum.Imported).Int("failed", sum.Failed).Msg("scheduled import complete")
	return sum
}

// Cycles reports how many import cycles have run.
func (s *Scheduler) Cycles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles
}
