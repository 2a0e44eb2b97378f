package main

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-marketplace/internal/audit"
)

type orderLog struct {
	mu    sync.Mutex
	steps []string
}

func (o *orderLog) add(step string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = append(o.steps, step)
}

// slowSink makes the drain outlast a naive close of the pool.
type slowSink struct{ log *orderLog }

func (s slowSink) Log(_ context.Context, ev audit.Event) error {
	time.Sleep(10 * time.Millisecond)
	s.log.add("audit:" + ev.Action)
	return nil
}

type poolCloser struct{ log *orderLog }

func (p poolCloser) Close() error {
	p.log.add("pool")
	return nil
}

func TestShutdown_DrainsAuditBeforeClosingPool(t *testing.T) {
	order := &orderLog{}
	dispatcher := audit.NewDispatcher(slowSink{log: order}, zap.NewNop())
	dispatcher.Dispatch(audit.Event{Action: "booking_cancelled"})
	dispatcher.Dispatch(audit.Event{Action: "payment_confirmed"})

	shutdown(context.Background(), zap.NewNop(), &http.Server{}, dispatcher, poolCloser{log: order})

	assert.Equal(t, []string{
		"audit:booking_cancelled",
		"audit:payment_confirmed",
		"pool",
	}, order.steps)
}
