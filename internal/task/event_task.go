package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/studybuddy/studybuddy-api/internal/events"
	"github.com/studybuddy/studybuddy-api/internal/platform/logger"
)

// EventTask runs one events.EventHandler for one event.
type EventTask struct {
	id      uuid.UUID
	handler events.EventHandler
	event   *events.Event
	logger  *slog.Logger

	mu     sync.Mutex
	status TaskStatus
}

// NewEventTask creates a pending EventTask. logger is attached to the
// context the handler runs with; it may be nil.
func NewEventTask(handler events.EventHandler, event *events.Event, logger *slog.Logger) *EventTask {
	return &EventTask{
		id:      uuid.New(),
		handler: handler,
		event:   event,
		logger:  logger,
		status:  TaskStatusPending,
	}
}

// ID implements Task.
func (t *EventTask) ID() uuid.UUID { return t.id }

// Type implements Task.
func (t *EventTask) Type() string { return TaskTypeEventHandler }

// Event returns the event being handled.
func (t *EventTask) Event() *events.Event { return t.event }

// Status implements Task.
func (t *EventTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *EventTask) setStatus(s TaskStatus) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Execute implements Task.
func (t *EventTask) Execute(ctx context.Context) error {
	t.setStatus(TaskStatusProcessing)
	if t.logger != nil {
		ctx = logger.WithLogger(ctx, t.logger)
	}

	if err := t.handler.HandleEvent(ctx, t.event); err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("event %s (%s): %w", t.event.ID, t.event.Type, err)
	}
	t.setStatus(TaskStatusCompleted)
	return nil
}

// QueueDispatcher implements events.Dispatcher by wrapping each handler
// call in an EventTask and enqueueing it.
type QueueDispatcher struct {
	queue TaskQueueWriter
}

// NewQueueDispatcher creates a dispatcher that feeds queue.
func NewQueueDispatcher(queue TaskQueueWriter) *QueueDispatcher {
	return &QueueDispatcher{queue: queue}
}

// Dispatch implements events.Dispatcher. The request's logger travels with
// the task; its cancellation does not.
func (d *QueueDispatcher) Dispatch(ctx context.Context, handler events.EventHandler, event *events.Event) error {
	t := NewEventTask(handler, event, logger.FromContext(ctx))
	if err := d.queue.Enqueue(t); err != nil {
		return fmt.Errorf("failed to enqueue event %s: %w", event.ID, err)
	}
	return nil
}

var _ Task = (*EventTask)(nil)

var _ events.Dispatcher = (*QueueDispatcher)(nil)
