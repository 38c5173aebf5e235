// Package fanout turns committed addendums into personalized feed
// entries, one per assignee with an authenticated identity. Delivery is
// asynchronous and decoupled from the mutation that wrote the addendum;
// callers must not assume feed entries exist right after commit.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/officetrack/backend/internal/config"
	"github.com/officetrack/backend/internal/domain"
)

type assigneeReader interface {
	ListAssignees(ctx context.Context, activityID uuid.UUID) ([]domain.Assignee, error)
}

type profileReader interface {
	GetByPhones(ctx context.Context, phoneNumbers []string) (map[string]*domain.Profile, error)
}

type feedWriter interface {
	Insert(ctx context.Context, entry *domain.FeedEntry) (bool, error)
}

// Event is one committed addendum awaiting fan-out. ActorPhone carries the
// acting user's phone number for the per-viewer actor check, since the
// addendum itself stores the display identifier.
type Event struct {
	Addendum   *domain.Addendum
	ActorPhone string
}

// Dispatcher runs the fan-out worker over an in-process queue.
type Dispatcher struct {
	assignees assigneeReader
	profiles  profileReader
	feed      feedWriter
	log       *slog.Logger

	queue chan Event
	drain time.Duration
	wg    sync.WaitGroup
}

// NewDispatcher creates a fan-out dispatcher. Call Start to begin
// consuming and Stop to drain on shutdown.
func NewDispatcher(
	log *slog.Logger,
	assignees assigneeReader,
	profiles profileReader,
	feed feedWriter,
	cfg config.FanoutConfig,
) *Dispatcher {
	return &Dispatcher{
		assignees: assignees,
		profiles:  profiles,
		feed:      feed,
		log:       log.With("service", "fanout"),
		queue:     make(chan Event, cfg.QueueSize),
		drain:     cfg.DrainTimeout,
	}
}

// Start launches the worker goroutine. The worker runs until Stop closes
// the queue; delivery failures are logged, never propagated, because the
// triggering mutation has already committed.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for event := range d.queue {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := d.Deliver(ctx, event); err != nil {
				d.log.Error("fan-out delivery failed",
					slog.String("addendum_id", event.Addendum.ID.String()),
					slog.String("error", err.Error()),
				)
			}
			cancel()
		}
	}()
}

// Enqueue hands one committed addendum to the worker. Blocks when the
// queue is full rather than dropping the event.
func (d *Dispatcher) Enqueue(ctx context.Context, event Event) error {
	select {
	case d.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueDepth reports how many events are waiting for delivery.
func (d *Dispatcher) QueueDepth() int {
	return len(d.queue)
}

// Stop closes the queue and waits up to the drain timeout for in-flight
// deliveries to finish.
func (d *Dispatcher) Stop() {
	close(d.queue)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(d.drain):
		d.log.Warn("fan-out drain timed out, abandoning queued events")
	}
}

// Deliver fans one addendum out to every assignee with an authenticated
// identity. Assignees whose profile has no uid yet are skipped silently;
// they inherit the activity index on sign-up, not old feed entries.
// Redelivery is safe: the feed insert is idempotent per
// (addendum, viewer) and reports duplicates as no-ops.
func (d *Dispatcher) Deliver(ctx context.Context, event Event) error {
	add := event.Addendum

	assignees, err := d.assignees.ListAssignees(ctx, add.ActivityID)
	if err != nil {
		return fmt.Errorf("list assignees: %w", err)
	}
	if len(assignees) == 0 {
		return nil
	}

	phones := make([]string, len(assignees))
	for i, a := range assignees {
		phones[i] = a.PhoneNumber
	}

	profiles, err := d.profiles.GetByPhones(ctx, phones)
	if err != nil {
		return fmt.Errorf("resolve profiles: %w", err)
	}

	var errs []error
	delivered := 0
	for _, assignee := range assignees {
		profile, ok := profiles[assignee.PhoneNumber]
		if !ok || profile.UID == nil {
			continue
		}

		entry := &domain.FeedEntry{
			ID:                  uuid.New(),
			UserUID:             *profile.UID,
			AddendumID:          add.ID,
			ActivityID:          add.ActivityID,
			Comment:             RenderComment(add, assignee.PhoneNumber == event.ActorPhone),
			User:                add.User,
			Location:            add.Location,
			Timestamp:           add.Timestamp,
			UserDeviceTimestamp: add.UserDeviceTimestamp,
		}

		inserted, err := d.feed.Insert(ctx, entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("feed entry for %s: %w", assignee.PhoneNumber, err))
			continue
		}
		if inserted {
			delivered++
		}
	}

	d.log.InfoContext(ctx, "addendum fanned out",
		slog.String("addendum_id", add.ID.String()),
		slog.String("action", add.Action.String()),
		slog.Int("assignees", len(assignees)),
		slog.Int("delivered", delivered),
	)

	return errors.Join(errs...)
}
