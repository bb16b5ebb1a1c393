package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"financy/internal/core"
	"financy/internal/events"
)

type fakeBudgetWriter struct {
	mu      sync.Mutex
	updates []core.BudgetUpdate
	fail    error
	budget  core.Budget
}

func (w *fakeBudgetWriter) UpdateBudget(ctx context.Context, id int64, u core.BudgetUpdate) (core.Budget, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.updates = append(w.updates, u)
	if w.fail != nil {
		return core.Budget{}, w.fail
	}
	w.budget = u.Apply(w.budget)
	w.budget.BudgetID = id
	w.budget.UpdatedAt = "2024-03-15T10:00:00Z"
	return w.budget, nil
}

func (w *fakeBudgetWriter) calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.updates)
}

func (w *fakeBudgetWriter) setFail(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fail = err
}

func lines(amounts ...string) core.BudgetUpdate {
	cats := make([]core.BudgetCategory, 0, len(amounts))
	for i, a := range amounts {
		cats = append(cats, core.BudgetCategory{
			Name:           string(rune('A' + i)),
			BudgetedAmount: dec(a),
			Type:           core.Needs,
		})
	}
	return core.LinesUpdate(nil, cats)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before the deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBudgetEditor_DebouncesEdits(t *testing.T) {
	writer := &fakeBudgetWriter{}
	rec := &events.Recorder{}
	editor := NewBudgetEditor(writer, BudgetEditorConfig{SaveDelay: 50 * time.Millisecond, Publisher: rec})

	for _, amount := range []string{"100", "150", "200"} {
		if err := editor.Apply(7, lines(amount)); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !editor.Pending(7) {
		t.Error("expected pending edits before the delay elapsed")
	}

	waitFor(t, func() bool { return writer.calls() == 1 })
	time.Sleep(80 * time.Millisecond)
	if got := writer.calls(); got != 1 {
		t.Fatalf("writer called %d times, want 1", got)
	}

	saved, ok := editor.Saved(7)
	if !ok {
		t.Fatal("expected a saved budget")
	}
	if got := saved.Categories[0].BudgetedAmount; !got.Equal(dec("200")) {
		t.Errorf("saved amount = %s, want the last edit 200", got)
	}
	if editor.Pending(7) {
		t.Error("no edits should be pending after the save")
	}

	msgs := rec.OfType(events.BudgetSaved)
	if len(msgs) != 1 {
		t.Fatalf("published %d budget events, want 1", len(msgs))
	}
	var payload events.BudgetSavedPayload
	if err := msgs[0].Decode(&payload); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if payload.BudgetID != 7 || payload.Categories != 1 {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestBudgetEditor_SeparateBudgets(t *testing.T) {
	writer := &fakeBudgetWriter{}
	editor := NewBudgetEditor(writer, BudgetEditorConfig{SaveDelay: time.Hour})

	editor.Apply(1, lines("10"))
	editor.Apply(2, lines("20"))
	editor.Apply(1, lines("30"))

	if err := editor.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := writer.calls(); got != 2 {
		t.Errorf("writer called %d times, want one save per budget", got)
	}
	if editor.Pending(1) || editor.Pending(2) {
		t.Error("Flush should leave nothing pending")
	}
}

func TestBudgetEditor_FailureKeepsDraft(t *testing.T) {
	writer := &fakeBudgetWriter{fail: errors.New("503")}
	var (
		mu     sync.Mutex
		failed []int64
	)
	editor := NewBudgetEditor(writer, BudgetEditorConfig{
		SaveDelay: time.Hour,
		OnError: func(id int64, err error) {
			mu.Lock()
			failed = append(failed, id)
			mu.Unlock()
		},
	})
	ctx := context.Background()

	editor.Apply(7, lines("100"))
	if err := editor.Flush(ctx); err == nil {
		t.Fatal("expected Flush to report the failed save")
	}
	if !editor.Pending(7) {
		t.Error("a failed save must keep the draft pending")
	}
	mu.Lock()
	if len(failed) != 1 || failed[0] != 7 {
		t.Errorf("OnError calls = %v, want [7]", failed)
	}
	mu.Unlock()

	editor.Apply(7, lines("120"))
	writer.setFail(nil)
	if err := editor.Flush(ctx); err != nil {
		t.Fatalf("Flush() after recovery error = %v", err)
	}
	saved, ok := editor.Saved(7)
	if !ok || !saved.Categories[0].BudgetedAmount.Equal(dec("120")) {
		t.Errorf("saved = %+v, want the newer edit", saved)
	}
}

func TestBudgetEditor_Validation(t *testing.T) {
	writer := &fakeBudgetWriter{}
	editor := NewBudgetEditor(writer, BudgetEditorConfig{SaveDelay: time.Hour})

	bad := "EURO"
	if err := editor.Apply(7, core.BudgetUpdate{Currency: &bad}); !errors.Is(err, core.ErrInvalidCurrency) {
		t.Errorf("Apply() error = %v, want ErrInvalidCurrency", err)
	}
	if err := editor.Apply(7, core.BudgetUpdate{}); err != nil {
		t.Errorf("empty update error = %v", err)
	}
	if editor.Pending(7) {
		t.Error("invalid or empty edits must not create a draft")
	}
}

func TestBudgetEditor_Close(t *testing.T) {
	writer := &fakeBudgetWriter{}
	editor := NewBudgetEditor(writer, BudgetEditorConfig{SaveDelay: time.Hour})

	editor.Apply(7, lines("100"))
	if err := editor.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := writer.calls(); got != 1 {
		t.Errorf("Close should flush pending drafts, writer called %d times", got)
	}
	if err := editor.Apply(7, lines("200")); !errors.Is(err, ErrEditorClosed) {
		t.Errorf("Apply() after Close error = %v, want ErrEditorClosed", err)
	}
}
