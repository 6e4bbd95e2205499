package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/campus-facility-reservation/internal/model"
	"github.com/iliyamo/campus-facility-reservation/internal/queue"
)

type stubCompleter struct {
	at  time.Time
	out []model.Reservation
	err error
}

func (s *stubCompleter) CompleteFinished(_ context.Context, now time.Time) ([]model.Reservation, error) {
	s.at = now
	return s.out, s.err
}

type recordingNotifier struct{ events []queue.ReservationEvent }

func (r *recordingNotifier) Notify(_ context.Context, ev queue.ReservationEvent) {
	r.events = append(r.events, ev)
}

func TestCompleteFinishedNotifiesRequesters(t *testing.T) {
	now := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(-2 * time.Hour)
	c := &stubCompleter{out: []model.Reservation{
		{ID: 1, RequesterID: 10, FacilityID: 3, Status: model.StatusCompleted, StartAt: start, EndAt: start.Add(time.Hour)},
		{ID: 2, RequesterID: 11, FacilityID: 3, Status: model.StatusCompleted, StartAt: start, EndAt: start.Add(90 * time.Minute)},
	}}
	n := &recordingNotifier{}
	s := NewScheduler(c, n, time.FixedZone("WIB", 7*3600), zerolog.Nop())
	s.now = func() time.Time { return now }

	assert.Equal(t, 2, s.CompleteFinished(context.Background()))
	assert.Equal(t, now, c.at)
	if assert.Len(t, n.events, 2) {
		assert.Equal(t, int64(10), n.events[0].UserID)
		assert.Equal(t, model.StatusCompleted, n.events[0].Status)
		assert.Equal(t, "17:00", n.events[0].StartTime)
		assert.Equal(t, "18:30", n.events[1].EndTime)
	}
}

func TestCompleteFinishedError(t *testing.T) {
	n := &recordingNotifier{}
	s := NewScheduler(&stubCompleter{err: errors.New("db down")}, n, nil, zerolog.Nop())
	assert.Zero(t, s.CompleteFinished(context.Background()))
	assert.Empty(t, n.events)
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(&stubCompleter{}, nil, nil, zerolog.Nop())
	assert.NoError(t, s.Start())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
