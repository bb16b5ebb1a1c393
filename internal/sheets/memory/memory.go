// Package memory keeps written report tables in process, for tests and dry runs.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"financy/internal/sheets"
)

var _ sheets.ReportWriter = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	tables map[string]sheets.Table
	writes int
}

func New() *Store {
	return &Store{tables: make(map[string]sheets.Table)}
}

// WriteTable replaces the stored table of sheet.
func (s *Store) WriteTable(_ context.Context, sheet string, t sheets.Table) (string, error) {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		return "", errors.New("sheet name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[sheet] = t
	s.writes++
	values := t.Values()
	return sheets.A1Range(sheet, len(values), sheets.Width(values)), nil
}

// Table returns the last table written to sheet.
func (s *Store) Table(sheet string) (sheets.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[sheet]
	return t, ok
}

// Sheets lists the written sheet names in order.
func (s *Store) Sheets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tables))
	for name := range s.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
