// Package dispatch implements the Dispatch Core (spec.md §4.F): it takes a
// normalized SemanticEvent and an addressed deviceId and delivers it to the
// host environment's sink, fire-and-forget, without blocking the caller.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"echo-hue-bridge/internal/domain/model"
	"echo-hue-bridge/internal/ports"
)

// ErrDeviceNotFound is returned when the host environment has no sink for
// the addressed deviceId.
var ErrDeviceNotFound = errors.New("dispatch: device not found")

const (
	queueSize      = 32
	deliverTimeout = 5 * time.Second
)

type queuedEvent struct {
	event model.SemanticEvent
}

// Dispatcher keeps one ordered delivery queue per sink so that events from
// a single connection are delivered to the same sink in request order,
// while the HTTP handler that called Dispatch never waits on delivery.
type Dispatcher struct {
	host   ports.HostEnvironment
	logger zerolog.Logger

	mu     sync.Mutex
	queues map[string]chan queuedEvent
	wg     sync.WaitGroup
	closed bool
}

func New(host ports.HostEnvironment, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		host:   host,
		logger: logger,
		queues: make(map[string]chan queuedEvent),
	}
}

// Dispatch resolves deviceId's sink and enqueues event for delivery. It
// returns ErrDeviceNotFound synchronously (the HTTP layer maps that to the
// appropriate 404); delivery itself always happens off the calling
// goroutine.
func (d *Dispatcher) Dispatch(ctx context.Context, deviceID string, event model.SemanticEvent) error {
	sink, ok := d.host.GetNode(ctx, deviceID)
	if !ok {
		return ErrDeviceNotFound
	}

	q := d.queueFor(deviceID, sink)
	select {
	case q <- queuedEvent{event: event}:
	default:
		d.logger.Warn().Str("device_id", deviceID).Msg("dispatch queue full, dropping event")
	}
	return nil
}

func (d *Dispatcher) queueFor(id string, sink ports.Sink) chan queuedEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	q, ok := d.queues[id]
	if !ok {
		q = make(chan queuedEvent, queueSize)
		d.queues[id] = q
		d.wg.Add(1)
		go d.worker(id, sink, q)
	}
	return q
}

func (d *Dispatcher) worker(id string, sink ports.Sink, q chan queuedEvent) {
	defer d.wg.Done()
	for qe := range q {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		topic, payload := string(qe.event.Topic), qe.event.Payload
		if err := sink.Receive(ctx, topic, payload); err != nil {
			d.logger.Warn().Err(err).Str("device_id", id).Msg("sink rejected event")
		}
		cancel()
	}
}

// Close closes every per-sink queue so its worker goroutine drains
// remaining events and exits, then waits for all workers to finish or ctx
// to expire, whichever comes first.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
