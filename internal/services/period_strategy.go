// Package services loads data through the ports, converts it and assembles reports.
//
// This file holds the period strategies: one per reporting frequency, each
// knowing how to cut a reference month into a window, how to step between
// windows and which comparison series to chart.

package services

import (
	"fmt"
	"sync"

	"financy/internal/core"
)

// PeriodStrategy encapsulates the window arithmetic of one frequency.
type PeriodStrategy interface {
	Window(m core.Month, startDay int) core.Period
	Previous(m core.Month, startDay int) core.Month
	Next(m core.Month, startDay int) core.Month
	// Series returns the periods charted side by side in the comparison view.
	Series(m core.Month, startDay int) []core.LabeledPeriod
}

// MonthlyStrategy compares six months back and two ahead.
type MonthlyStrategy struct{}

func (MonthlyStrategy) Window(m core.Month, startDay int) core.Period {
	return core.PeriodDates(m, core.Monthly, startDay)
}

func (MonthlyStrategy) Previous(m core.Month, startDay int) core.Month {
	return core.PreviousMonth(m, core.Monthly, startDay)
}

func (MonthlyStrategy) Next(m core.Month, startDay int) core.Month {
	return core.NextMonth(m, core.Monthly, startDay)
}

func (MonthlyStrategy) Series(m core.Month, startDay int) []core.LabeledPeriod {
	return core.MonthlySeries(m, startDay, 6, 2)
}

// WeeklyStrategy compares the last six weeks.
type WeeklyStrategy struct{}

func (WeeklyStrategy) Window(m core.Month, startDay int) core.Period {
	return core.PeriodDates(m, core.Weekly, startDay)
}

func (WeeklyStrategy) Previous(m core.Month, startDay int) core.Month {
	return core.PreviousMonth(m, core.Weekly, startDay)
}

func (WeeklyStrategy) Next(m core.Month, startDay int) core.Month {
	return core.NextMonth(m, core.Weekly, startDay)
}

func (WeeklyStrategy) Series(m core.Month, startDay int) []core.LabeledPeriod {
	return core.WeeklySeries(m, startDay, 6)
}

var (
	strategiesMu     sync.RWMutex
	periodStrategies = map[core.Frequency]PeriodStrategy{
		core.Monthly: MonthlyStrategy{},
		core.Weekly:  WeeklyStrategy{},
	}
)

// GetPeriodStrategy returns the strategy registered for freq.
func GetPeriodStrategy(freq core.Frequency) (PeriodStrategy, error) {
	strategiesMu.RLock()
	defer strategiesMu.RUnlock()
	s, ok := periodStrategies[freq]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFrequency, freq)
	}
	return s, nil
}

// RegisterPeriodStrategy adds or replaces the strategy for freq.
func RegisterPeriodStrategy(freq core.Frequency, s PeriodStrategy) {
	strategiesMu.Lock()
	defer strategiesMu.Unlock()
	periodStrategies[freq] = s
}

// PeriodInfo describes one reporting window and its neighbours.
type PeriodInfo struct {
	Month     core.Month     `json:"month"`
	Frequency core.Frequency `json:"frequency"`
	StartDay  int            `json:"start_day"`
	Period    core.Period    `json:"period"`
	Label     string         `json:"label"`
	Days      int            `json:"days"`
	Previous  core.Month     `json:"previous"`
	Next      core.Month     `json:"next"`
}

// DescribePeriod resolves the window of m for freq and startDay.
func DescribePeriod(m core.Month, freq core.Frequency, startDay int) (PeriodInfo, error) {
	if err := core.ValidateStartDay(startDay); err != nil {
		return PeriodInfo{}, err
	}
	s, err := GetPeriodStrategy(freq)
	if err != nil {
		return PeriodInfo{}, err
	}
	p := s.Window(m, startDay)
	return PeriodInfo{
		Month:     m,
		Frequency: freq,
		StartDay:  startDay,
		Period:    p,
		Label:     core.FormatPeriod(p),
		Days:      p.Days(),
		Previous:  s.Previous(m, startDay),
		Next:      s.Next(m, startDay),
	}, nil
}
