package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEventEmitter stores registered handlers in memory and dispatches
// events to them.
//
// Without a Dispatcher every handler runs synchronously inside EmitEvent.
// With one, EmitEvent only hands each (handler, event) pair over and
// returns; handler failures are then reported by the dispatcher.
type InMemoryEventEmitter struct {
	handlers   []EventHandler
	mu         sync.RWMutex
	logger     *slog.Logger
	dispatcher Dispatcher
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
// dispatcher may be nil.
func NewInMemoryEventEmitter(logger *slog.Logger, dispatcher Dispatcher) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		handlers:   make([]EventHandler, 0),
		logger:     logger.With("component", "in_memory_event_emitter"),
		dispatcher: dispatcher,
	}
}

// RegisterHandler adds a new event handler to receive events.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered new event handler", "handler_count", len(e.handlers))
}

// EmitEvent publishes the given event to all registered handlers.
// If any handler (or dispatch) fails, the event is still offered to all
// other handlers, and the first error encountered is returned.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	e.mu.RLock()
	handlers := make([]EventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	e.logger.Debug("emitting event",
		"event_id", event.ID,
		"event_type", event.Type,
		"handler_count", len(handlers))

	if len(handlers) == 0 {
		e.logger.Warn("no handlers registered for event",
			"event_id", event.ID,
			"event_type", event.Type)
		return nil
	}

	var firstErr error
	for i, handler := range handlers {
		var err error
		if e.dispatcher != nil {
			err = e.dispatcher.Dispatch(ctx, handler, event)
		} else {
			err = handler.HandleEvent(ctx, event)
		}
		if err != nil {
			e.logger.Error("handler failed to process event",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"event_type", event.Type)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

var _ EventEmitter = (*InMemoryEventEmitter)(nil)
