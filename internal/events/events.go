// Package events defines the envelope published when budgets are saved, snapshots
// refreshed or reports exported.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"financy/internal/core"
)

const (
	BudgetSaved    = "budget.saved"
	SnapshotSynced = "snapshot.synced"
	SyncRequested  = "sync.requested"
	ReportExported = "report.exported"
)

type Message struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// New wraps payload in a fresh envelope.
func New(eventType string, payload any) (Message, error) {
	msg := Message{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Message{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		msg.Payload = raw
	}
	return msg, nil
}

func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func FromJSON(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode event: %w", err)
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("decode event: missing type")
	}
	return msg, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Emit builds a message and publishes it.
func Emit(ctx context.Context, p Publisher, eventType string, payload any) error {
	msg, err := New(eventType, payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, msg)
}

// Nop drops every message.
type Nop struct{}

func (Nop) Publish(context.Context, Message) error { return nil }
func (Nop) Close() error                           { return nil }

// Recorder keeps published messages in memory.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Publish(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// OfType returns the recorded messages with the given type.
func (r *Recorder) OfType(eventType string) []Message {
	var out []Message
	for _, m := range r.Messages() {
		if m.Type == eventType {
			out = append(out, m)
		}
	}
	return out
}

// Payloads carried by the events above.
type (
	BudgetSavedPayload struct {
		BudgetID   int64  `json:"budget_id"`
		Categories int    `json:"categories"`
		UpdatedAt  string `json:"updated_at,omitempty"`
	}

	SyncRequestedPayload struct {
		// Since is the first day to refresh; null means the worker's lookback.
		Since core.Date `json:"since"`
		// Reason is free text for the logs, e.g. "cli" or "schedule".
		Reason string `json:"reason,omitempty"`
	}

	ReportExportedPayload struct {
		Spreadsheet string `json:"spreadsheet"`
		Range       string `json:"range"`
		Rows        int    `json:"rows"`
		Period      string `json:"period"`
	}
)
