// Package worker turns queued sync requests into snapshot refreshes.
package worker

import (
	"context"
	"errors"
	"fmt"

	"financy/internal/core"
	"financy/internal/events"
	"financy/internal/log"
	"financy/internal/services"
)

// SyncWorker handles messages consumed from the sync queue.
type SyncWorker struct {
	syncer services.Syncer
	logger *log.Logger
}

func NewSyncWorker(syncer services.Syncer, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{syncer: syncer, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleMessage processes a single message from AMQP. Returning an error requeues it.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg events.Message) error {
	w.logger.InfoContext(ctx, "Processing message",
		log.FieldEventID, msg.ID,
		log.FieldEventType, msg.Type)

	switch msg.Type {
	case events.SyncRequested:
		var p events.SyncRequestedPayload
		if err := msg.Decode(&p); err != nil {
			// A malformed payload will never succeed; drop it.
			w.logger.ErrorContext(ctx, "Dropping malformed sync request",
				log.FieldEventID, msg.ID,
				log.FieldError, err)
			return nil
		}
		return w.sync(ctx, p.Since, p.Reason)
	case events.BudgetSaved:
		// Budgets are small; a refresh from today picks the new version up.
		return w.sync(ctx, core.DateOf(msg.OccurredAt), "budget saved")
	default:
		w.logger.DebugContext(ctx, "Ignoring message", log.FieldEventType, msg.Type)
		return nil
	}
}

func (w *SyncWorker) sync(ctx context.Context, since core.Date, reason string) error {
	rep, err := w.syncer.Sync(ctx, since)
	if errors.Is(err, services.ErrSyncInProgress) {
		// The running sync covers this request.
		w.logger.InfoContext(ctx, "Sync already running, request coalesced", "reason", reason)
		return nil
	}
	if err != nil {
		return fmt.Errorf("sync snapshot: %w", err)
	}
	w.logger.InfoContext(ctx, "Sync request completed",
		"reason", reason,
		"transactions", rep.Transactions,
		log.FieldDuration, rep.Duration().Milliseconds())
	return nil
}
