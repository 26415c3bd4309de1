// Package reaper evicts participants that stopped signaling liveness.
package reaper

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"

	"presence-chat/internal/events"
	"presence-chat/internal/models"
	"presence-chat/internal/observability"
	"presence-chat/internal/repositories"
)

// Reaper periodically removes participants whose last-seen timestamp is
// older than the TTL and appends one departure status event per eviction.
type Reaper struct {
	participants repositories.ParticipantRepository
	emitter      *events.Emitter
	ttl          time.Duration
	interval     time.Duration
	clock        func() time.Time
}

// New builds a Reaper. It does nothing until Run is called.
func New(participants repositories.ParticipantRepository, emitter *events.Emitter, ttl, interval time.Duration) *Reaper {
	return &Reaper{
		participants: participants,
		emitter:      emitter,
		ttl:          ttl,
		interval:     interval,
		clock:        time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (r *Reaper) SetClock(clock func() time.Time) {
	r.clock = clock
}

// Run sweeps on a fixed schedule until ctx is cancelled. A failed sweep is
// logged and the schedule continues on the next tick.
func (r *Reaper) Run(ctx context.Context) {
	log.Printf("presence reaper started ttl=%s interval=%s", r.ttl, r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("presence reaper stopped")
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				observability.IncSweep("error")
				log.Printf("presence sweep failed: %v", err)
				continue
			}
			observability.IncSweep("ok")
		}
	}
}

// Sweep removes every stale participant in one batch and appends their
// departure events. If emission fails after the delete has committed, the
// evictions stand; the missing departure events are a logged degradation.
func (r *Reaper) Sweep(ctx context.Context) error {
	ctx, span := otel.Tracer("presence-chat/reaper").Start(ctx, "reaper.sweep")
	defer span.End()

	cutoff := r.clock().Add(-r.ttl).UnixMilli()
	names, err := r.participants.RemoveStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("remove stale participants: %w", err)
	}
	if len(names) == 0 {
		return nil
	}
	observability.AddEvictions(len(names))

	records := make([]events.Record, 0, len(names))
	for _, name := range names {
		records = append(records, events.Record{
			From: name,
			To:   models.BroadcastTarget,
			Text: events.LeaveText,
			Kind: models.KindStatus,
		})
	}
	if err := r.emitter.AppendBatch(ctx, records); err != nil {
		return fmt.Errorf("append departure events for %d evicted participant(s): %w", len(names), err)
	}

	log.Printf("presence sweep evicted %d participant(s)", len(names))
	return nil
}
