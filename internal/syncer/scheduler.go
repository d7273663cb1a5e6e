package syncer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/raido/internal/apperr"
)

// Scheduler triggers periodic sync runs. A frequency of zero means
// manual-only: Run then just waits for cancellation so it can still sit
// in the serve-mode process group.
type Scheduler struct {
	syncer *Syncer
	every  time.Duration
	log    *slog.Logger
}

// NewScheduler builds a scheduler firing every frequencyMinutes.
func NewScheduler(s *Syncer, frequencyMinutes int, log *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer: s,
		every:  time.Duration(frequencyMinutes) * time.Minute,
		log:    log,
	}
}

// Run blocks until ctx is canceled, firing a sync run on every tick.
// An overlapping trigger is dropped; any other failure is logged and
// the schedule keeps going.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.every <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := s.syncer.Sync(ctx)
			switch {
			case err == nil:
			case errors.Is(err, apperr.ErrSyncBusy):
				s.log.Debug("scheduled sync skipped, previous run still in flight")
			default:
				s.log.Error("scheduled sync failed", slog.Any("error", err))
			}
		}
	}
}
