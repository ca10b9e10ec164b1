package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/leave-approval/internal/domain/event"
)

// ErrClosed is returned when dispatching on a closed dispatcher
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher routes events to registered handlers.
// Events are only published after the state they describe is committed.
type Dispatcher interface {
	// Subscribe registers a named handler for one or more event types
	Subscribe(name string, handler Handler, types ...event.Type)

	// Dispatch runs every handler for each event in order and joins their errors
	Dispatch(ctx context.Context, events ...*event.Event) error

	// DispatchAsync delivers events in order on a background goroutine.
	// Cancellation of ctx does not stop delivery.
	DispatchAsync(ctx context.Context, events ...*event.Event)

	// ListHandlers returns registered handlers for an event type
	ListHandlers(eventType event.Type) []HandlerInfo

	// Close stops accepting events and waits for pending deliveries
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	logger   Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]HandlerInfo),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *eventDispatcher) Subscribe(name string, handler Handler, types ...event.Type) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, t := range types {
		d.handlers[t] = append(d.handlers[t], HandlerInfo{Name: name, EventType: t, Handler: handler})
		if d.logger != nil {
			d.logger.Info("Handler registered", "event_type", t, "handler_name", name)
		}
	}
}

func (d *eventDispatcher) Dispatch(ctx context.Context, events ...*event.Event) error {
	if d.closed.Load() {
		return ErrClosed
	}
	return d.deliver(ctx, events)
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, events ...*event.Event) {
	if len(events) == 0 {
		return
	}
	if d.closed.Load() {
		if d.logger != nil {
			d.logger.Error("Cannot dispatch async events, dispatcher is closed", "event_count", len(events))
		}
		return
	}

	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.deliver(detached, events)
	}()
}

func (d *eventDispatcher) deliver(ctx context.Context, events []*event.Event) error {
	var errs []error
	for _, evt := range events {
		d.mu.RLock()
		handlers := d.handlers[evt.Type]
		d.mu.RUnlock()

		for _, info := range handlers {
			if err := d.safeExecute(ctx, evt, info); err != nil {
				if d.logger != nil {
					d.logger.Error("Handler error",
						"event_type", evt.Type,
						"event_id", evt.ID,
						"request_id", evt.RequestID,
						"handler_name", info.Name,
						"error", err,
					)
				}
				errs = append(errs, fmt.Errorf("handler %s: %w", info.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (d *eventDispatcher) ListHandlers(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	handlers := d.handlers[eventType]
	result := make([]HandlerInfo, len(handlers))
	for i, h := range handlers {
		result[i] = HandlerInfo{Name: h.Name, EventType: h.EventType}
	}
	return result
}

func (d *eventDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("dispatcher already closed")
	}
	d.wg.Wait()
	if d.logger != nil {
		d.logger.Info("Dispatcher closed")
	}
	return nil
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return info.Handler(ctx, evt)
}
