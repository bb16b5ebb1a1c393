package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Frequency is the length of a reporting cycle.
type Frequency string

// ParseFrequency accepts "weekly" or "monthly" (case insensitive).
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case Weekly, Monthly:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
}

// ValidateStartDay checks the configured first day of a reporting cycle.
func ValidateStartDay(day int) error {
	if day < 1 || day > 31 {
		return ErrInvalidStartDay
	}
	return nil
}

// Month is a reference month, written YYYY-MM.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, ErrInvalidMonth)
	}
	return MonthOf(t), nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// AddMonths returns the month n months later (earlier for negative n).
func (m Month) AddMonths(n int) Month {
	return MonthOf(time.Date(m.Year, m.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC))
}

func (m Month) FirstDay() Date { return NewDate(m.Year, int(m.Month), 1) }

func (m Month) LastDay() Date { return NewDate(m.Year, int(m.Month)+1, 0) }

// Days is the number of days in the month.
func (m Month) Days() int { return m.LastDay().Day() }

// day returns the given day of the month, clamped to the month's length.
func (m Month) day(d int) Date {
	if n := m.Days(); d > n {
		d = n
	}
	if d < 1 {
		d = 1
	}
	return NewDate(m.Year, int(m.Month), d)
}

// Period is an inclusive reporting window. End is the last instant of the last day.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewPeriod spans first 00:00:00 to last 23:59:59.999.
func NewPeriod(first, last Date) Period {
	return Period{Start: first.Time, End: last.Add(24*time.Hour - time.Millisecond)}
}

func (p Period) FirstDay() Date { return DateOf(p.Start) }

func (p Period) LastDay() Date { return DateOf(p.End) }

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// ContainsDate reports whether the calendar day d falls in the window.
func (p Period) ContainsDate(d Date) bool {
	return !d.Before(p.FirstDay().Time) && !d.After(p.LastDay().Time)
}

// Days is the number of calendar days covered.
func (p Period) Days() int {
	return int(p.LastDay().Sub(p.FirstDay().Time).Hours()/24) + 1
}

// Dates lists every day of the period in order.
func (p Period) Dates() []Date {
	n := p.Days()
	out := make([]Date, 0, n)
	for d := p.FirstDay(); len(out) < n; d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// Previous is the window of the same length ending the day before p starts.
func (p Period) Previous() Period {
	last := p.FirstDay().AddDays(-1)
	return NewPeriod(last.AddDays(-(p.Days() - 1)), last)
}

func (p Period) String() string { return FormatPeriod(p) }

// PeriodDates computes the reporting window of month m.
//
// Monthly windows run from startDay of m to the day before startDay of the next
// month; with startDay 1 that is the calendar month. A startDay past the end of a
// month clamps to its last day. Weekly windows start on startDay of m (clamped the
// same way), last seven days and never cross the end of m.
func PeriodDates(m Month, freq Frequency, startDay int) Period {
	if startDay < 1 {
		startDay = 1
	}
	first := m.day(startDay)
	if freq == Weekly {
		last := first.AddDays(6)
		if end := m.LastDay(); last.After(end.Time) {
			last = end
		}
		return NewPeriod(first, last)
	}
	return NewPeriod(first, m.AddMonths(1).day(startDay).AddDays(-1))
}

// PreviousMonth is the reference month one period back.
func PreviousMonth(m Month, freq Frequency, startDay int) Month {
	if freq != Weekly {
		return m.AddMonths(-1)
	}
	prev := MonthOf(PeriodDates(m, freq, startDay).Start.AddDate(0, 0, -7))
	if prev == m {
		return m.AddMonths(-1)
	}
	return prev
}

// NextMonth is the reference month one period forward.
func NextMonth(m Month, freq Frequency, startDay int) Month {
	if freq != Weekly {
		return m.AddMonths(1)
	}
	next := MonthOf(PeriodDates(m, freq, startDay).LastDay().AddDays(1).Time)
	if next == m {
		return m.AddMonths(1)
	}
	return next
}

// FormatPeriod renders a window as "1st Jan - 31st Jan".
func FormatPeriod(p Period) string {
	return fmt.Sprintf("%s %s - %s %s",
		ordinal(p.Start.Day()), p.Start.Format("Jan"),
		ordinal(p.End.Day()), p.End.Format("Jan"))
}

func ordinal(n int) string {
	suffix := "th"
	switch v := n % 100; {
	case v >= 11 && v <= 13:
	case v%10 == 1:
		suffix = "st"
	case v%10 == 2:
		suffix = "nd"
	case v%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}

// LabeledPeriod is one bar of a comparison chart.
type LabeledPeriod struct {
	Period
	Label   string `json:"label"`
	Current bool   `json:"is_current"`
}

// MonthlySeries returns back periods ending with m (m included) followed by
// forward future periods, labelled "Jan 2025".
func MonthlySeries(m Month, startDay, back, forward int) []LabeledPeriod {
	out := make([]LabeledPeriod, 0, back+forward)
	for i := -(back - 1); i <= forward; i++ {
		p := PeriodDates(m.AddMonths(i), Monthly, startDay)
		out = append(out, LabeledPeriod{Period: p, Label: p.Start.Format("Jan 2006"), Current: i == 0})
	}
	return out
}

// WeeklySeries returns n seven-day windows ending with the one that starts on the
// last start day on or before the first of m, labelled "Jan 5".
func WeeklySeries(m Month, startDay, n int) []LabeledPeriod {
	anchor := m.FirstDay()
	if startDay > 1 {
		anchor = m.AddMonths(-1).day(startDay)
	}
	out := make([]LabeledPeriod, 0, n)
	for i := n - 1; i >= 0; i-- {
		first := anchor.AddDays(-7 * i)
		p := NewPeriod(first, first.AddDays(6))
		out = append(out, LabeledPeriod{Period: p, Label: p.Start.Format("Jan 2"), Current: i == 0})
	}
	return out
}

// SeriesSpan is the smallest window covering every period of the series.
func SeriesSpan(series []LabeledPeriod) Period {
	if len(series) == 0 {
		return Period{}
	}
	span := series[0].Period
	for _, p := range series[1:] {
		if p.Start.Before(span.Start) {
			span.Start = p.Start
		}
		if p.End.After(span.End) {
			span.End = p.End
		}
	}
	return span
}
