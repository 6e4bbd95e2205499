// Package jobs runs periodic maintenance tasks.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/iliyamo/campus-facility-reservation/internal/model"
	"github.com/iliyamo/campus-facility-reservation/internal/queue"
)

// CompleteSpec is the schedule of the completion sweep.
const CompleteSpec = "@every 10m"

// Completer closes reservations whose slot has ended.
type Completer interface {
	CompleteFinished(ctx context.Context, now time.Time) ([]model.Reservation, error)
}

// Notifier receives an event for every reservation the sweep completes.
type Notifier interface {
	Notify(ctx context.Context, ev queue.ReservationEvent)
}

// Scheduler wraps a cron runner.
type Scheduler struct {
	cron      *cron.Cron
	completer Completer
	notifier  Notifier
	loc       *time.Location
	log       zerolog.Logger
	now       func() time.Time
}

func NewScheduler(c Completer, n Notifier, loc *time.Location, log zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		completer: c,
		notifier:  n,
		loc:       loc,
		log:       log.With().Str("component", "scheduler").Logger(),
		now:       time.Now,
	}
}

// Start registers the jobs and starts the runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(CompleteSpec, func() { s.CompleteFinished(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("complete_spec", CompleteSpec).Msg("scheduler started")
	return nil
}

// Stop waits for running jobs up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// CompleteFinished marks finished reservations COMPLETED and notifies
// their requesters. It returns how many were closed.
func (s *Scheduler) CompleteFinished(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	now := s.now()
	done, err := s.completer.CompleteFinished(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("complete finished reservations")
		return 0
	}
	for _, r := range done {
		d := model.ReservationDetail{Reservation: r}
		d.Localize(s.loc)
		if s.notifier != nil {
			s.notifier.Notify(ctx, queue.NewReservationEvent(queue.EventReservationStatusChanged, d, "", now.UTC().Format(time.RFC3339)))
		}
	}
	if len(done) > 0 {
		s.log.Info().Int("count", len(done)).Msg("reservations completed")
	}
	return len(done)
}
