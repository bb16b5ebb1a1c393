package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"financy/internal/core"
	"financy/internal/events"
	"financy/internal/services"
)

type fakeSyncer struct {
	calls []core.Date
	err   error
}

func (f *fakeSyncer) Sync(ctx context.Context, since core.Date) (core.SyncReport, error) {
	f.calls = append(f.calls, since)
	return core.SyncReport{Since: since}, f.err
}

func mustMessage(t *testing.T, eventType string, payload any) events.Message {
	t.Helper()
	msg, err := events.New(eventType, payload)
	if err != nil {
		t.Fatalf("events.New() error = %v", err)
	}
	return msg
}

func TestHandleMessage(t *testing.T) {
	since := core.NewDate(2024, 3, 1)
	saved := mustMessage(t, events.BudgetSaved, events.BudgetSavedPayload{BudgetID: 7})
	saved.OccurredAt = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		msg       events.Message
		syncErr   error
		wantCalls []core.Date
		wantErr   bool
	}{
		{
			name:      "sync request",
			msg:       mustMessage(t, events.SyncRequested, events.SyncRequestedPayload{Since: since, Reason: "cli"}),
			wantCalls: []core.Date{since},
		},
		{
			name:      "sync request without since",
			msg:       mustMessage(t, events.SyncRequested, events.SyncRequestedPayload{}),
			wantCalls: []core.Date{{}},
		},
		{
			name:      "budget saved refreshes from its day",
			msg:       saved,
			wantCalls: []core.Date{core.NewDate(2024, 3, 15)},
		},
		{
			name: "malformed payload is dropped",
			msg: events.Message{
				ID:      "bad",
				Type:    events.SyncRequested,
				Payload: json.RawMessage(`{"since": 12}`),
			},
		},
		{
			name: "unknown type is ignored",
			msg:  mustMessage(t, events.ReportExported, events.ReportExportedPayload{Rows: 3}),
		},
		{
			name:      "sync in progress is not retried",
			msg:       mustMessage(t, events.SyncRequested, events.SyncRequestedPayload{Since: since}),
			syncErr:   services.ErrSyncInProgress,
			wantCalls: []core.Date{since},
		},
		{
			name:      "sync failure requeues",
			msg:       mustMessage(t, events.SyncRequested, events.SyncRequestedPayload{Since: since}),
			syncErr:   errors.New("backend down"),
			wantCalls: []core.Date{since},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &fakeSyncer{err: tt.syncErr}
			w := NewSyncWorker(syncer, nil)

			err := w.HandleMessage(context.Background(), tt.msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("HandleMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(syncer.calls) != len(tt.wantCalls) {
				t.Fatalf("sync called %d times, want %d", len(syncer.calls), len(tt.wantCalls))
			}
			for i, want := range tt.wantCalls {
				if !syncer.calls[i].Equal(want.Time) {
					t.Errorf("call %d since = %s, want %s", i, syncer.calls[i], want)
				}
			}
		})
	}
}
