package core

import "time"

// SyncReport describes one snapshot refresh from the backend.
type SyncReport struct {
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Since        Date      `json:"since"`
	Accounts     int       `json:"accounts"`
	Trips        int       `json:"trips"`
	Budgets      int       `json:"budgets"`
	Transactions int       `json:"transactions"`
	Rates        int       `json:"rates"`
	Error        string    `json:"error,omitempty"`
}

func (r SyncReport) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

func (r SyncReport) OK() bool { return r.Error == "" }
