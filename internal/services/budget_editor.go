package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"financy/internal/core"
	"financy/internal/events"
	"financy/internal/log"
	"financy/internal/ports"
)

// DefaultSaveDelay is how long the editor waits after the last change before saving.
const DefaultSaveDelay = time.Second

const saveTimeout = 30 * time.Second

var ErrEditorClosed = errors.New("budget editor is closed")

// BudgetEditorConfig holds the editor's collaborators and timing.
type BudgetEditorConfig struct {
	SaveDelay time.Duration
	Publisher events.Publisher
	Logger    *log.Logger
	// OnError is called after a failed save; the draft stays pending.
	OnError func(budgetID int64, err error)
}

// BudgetEditor collects edits per budget and saves each budget once, SaveDelay
// after its last change. Saves run one at a time.
type BudgetEditor struct {
	writer     ports.BudgetWriter
	delay      time.Duration
	publisher  events.Publisher
	logger     *log.Logger
	structured *log.StructuredLogger
	onError    func(int64, error)

	mu     sync.Mutex
	drafts map[int64]*draft
	closed bool

	saveMu sync.Mutex
}

type draft struct {
	update   core.BudgetUpdate
	timer    *time.Timer
	attempts int
	saved    *core.Budget
}

func NewBudgetEditor(writer ports.BudgetWriter, cfg BudgetEditorConfig) *BudgetEditor {
	if cfg.SaveDelay < 0 {
		cfg.SaveDelay = 0
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	logger := cfg.Logger.WithComponent(log.ComponentBudget)
	return &BudgetEditor{
		writer:     writer,
		delay:      cfg.SaveDelay,
		publisher:  cfg.Publisher,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		onError:    cfg.OnError,
		drafts:     make(map[int64]*draft),
	}
}

// Apply merges u into the pending draft of budgetID and restarts its save timer.
func (e *BudgetEditor) Apply(budgetID int64, u core.BudgetUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if u.IsEmpty() {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEditorClosed
	}

	d, ok := e.drafts[budgetID]
	if !ok {
		d = &draft{}
		e.drafts[budgetID] = d
	}
	d.update = d.update.Merge(u)
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(e.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		e.save(ctx, budgetID)
	})
	return nil
}

// Pending reports whether budgetID has unsaved edits.
func (e *BudgetEditor) Pending(budgetID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.drafts[budgetID]
	return ok && !d.update.IsEmpty()
}

// Saved returns the budget as last returned by the writer, if it was saved.
func (e *BudgetEditor) Saved(budgetID int64) (core.Budget, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.drafts[budgetID]
	if !ok || d.saved == nil {
		return core.Budget{}, false
	}
	return *d.saved, true
}

// save writes the pending draft of budgetID, if any.
func (e *BudgetEditor) save(ctx context.Context, budgetID int64) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	d, ok := e.drafts[budgetID]
	if !ok || d.update.IsEmpty() {
		e.mu.Unlock()
		return nil
	}
	pending := d.update
	d.update = core.BudgetUpdate{}
	d.attempts++
	attempt := d.attempts
	e.mu.Unlock()

	saved, err := e.writer.UpdateBudget(ctx, budgetID, pending)
	if err != nil {
		e.mu.Lock()
		// Edits made while saving win over the failed ones.
		d.update = pending.Merge(d.update)
		e.mu.Unlock()

		e.structured.LogError(ctx, "Failed to save budget", err, log.ComponentBudget, log.OpSave,
			log.NewFields().WithBudget(budgetID))
		if e.onError != nil {
			e.onError(budgetID, err)
		}
		return fmt.Errorf("save budget %d: %w", budgetID, err)
	}

	e.mu.Lock()
	d.saved = &saved
	d.attempts = 0
	e.mu.Unlock()

	e.structured.LogBudgetSaved(ctx, budgetID, len(saved.Categories), attempt)
	err = events.Emit(ctx, e.publisher, events.BudgetSaved, events.BudgetSavedPayload{
		BudgetID:   budgetID,
		Categories: len(saved.Categories),
		UpdatedAt:  saved.UpdatedAt,
	})
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to publish budget event",
			log.FieldBudgetID, budgetID,
			log.FieldError, err)
	}
	return nil
}

// Flush saves every pending draft now.
func (e *BudgetEditor) Flush(ctx context.Context) error {
	e.mu.Lock()
	ids := make([]int64, 0, len(e.drafts))
	for id, d := range e.drafts {
		if d.timer != nil {
			d.timer.Stop()
		}
		if !d.update.IsEmpty() {
			ids = append(ids, id)
		}
	}
	e.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := e.save(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes pending drafts and rejects further edits.
func (e *BudgetEditor) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return e.Flush(ctx)
}
