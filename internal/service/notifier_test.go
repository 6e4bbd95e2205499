package service

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-facility-reservation/internal/model"
	"github.com/iliyamo/campus-facility-reservation/internal/queue"
)

type fakePublisher struct {
	err  error
	sent []queue.ReservationEvent
}

func (f *fakePublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, ev)
	return nil
}

type countingWriter struct{ n int }

func (w *countingWriter) CreateNotification(context.Context, int64, *int64, string, string) (model.Notification, error) {
	w.n++
	return model.Notification{}, nil
}

func TestNotifier(t *testing.T) {
	ev := queue.ReservationEvent{Type: queue.EventReservationCreated, ReservationID: 1, UserID: 2}

	t.Run("publishes through the broker", func(t *testing.T) {
		pub, w := &fakePublisher{}, &countingWriter{}
		NewNotifier(pub, w, zerolog.Nop()).Notify(context.Background(), ev)
		assert.Len(t, pub.sent, 1)
		assert.Zero(t, w.n)
	})
	t.Run("falls back to a direct write", func(t *testing.T) {
		pub, w := &fakePublisher{err: errors.New("broker down")}, &countingWriter{}
		NewNotifier(pub, w, zerolog.Nop()).Notify(context.Background(), ev)
		assert.Equal(t, 1, w.n)
	})
	t.Run("writes directly without a broker", func(t *testing.T) {
		w := &countingWriter{}
		NewNotifier(nil, w, zerolog.Nop()).Notify(context.Background(), ev)
		assert.Equal(t, 1, w.n)
	})
	t.Run("nil notifier is a no-op", func(t *testing.T) {
		var n *Notifier
		assert.NotPanics(t, func() { n.Notify(context.Background(), ev) })
	})
}

// silentBroker accepts TCP connections and never answers the AMQP
// handshake.
func silentBroker(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	var conns []net.Conn
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			conns = append(conns, c)
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		<-done
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return ln.Addr().String()
}

func TestPublisher_BoundedDial(t *testing.T) {
	addr := silentBroker(t)
	ev := queue.ReservationEvent{Type: queue.EventReservationCreated, ReservationID: 1, UserID: 2}

	t.Run("dial timeout", func(t *testing.T) {
		p := &Publisher{URL: "amqp://guest:guest@" + addr + "/", DialTimeout: 150 * time.Millisecond}
		began := time.Now()
		err := p.Publish(context.Background(), ev)
		assert.Error(t, err)
		assert.Less(t, time.Since(began), 2*time.Second)
	})
	t.Run("context deadline", func(t *testing.T) {
		p := &Publisher{URL: "amqp://guest:guest@" + addr + "/"}
		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		defer cancel()
		began := time.Now()
		err := p.Publish(ctx, ev)
		assert.Error(t, err)
		assert.Less(t, time.Since(began), defaultDialTimeout)
	})
	t.Run("expired context", func(t *testing.T) {
		p := &Publisher{URL: "amqp://guest:guest@" + addr + "/"}
		ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
		defer cancel()
		assert.ErrorIs(t, p.Publish(ctx, ev), context.DeadlineExceeded)
	})
}
