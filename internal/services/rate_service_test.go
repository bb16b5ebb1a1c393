package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"financy/internal/core"
)

type fakeRates struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
	rates core.ExchangeRates
}

func (f *fakeRates) LatestRates(ctx context.Context, base string, date core.Date) (core.ExchangeRates, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return core.ExchangeRates{}, f.err
	}
	if base != f.rates.BaseCurrency {
		t, ok := core.NewRateTable(f.rates).Rebase(base)
		if !ok {
			return core.ExchangeRates{}, core.ErrNotFound
		}
		return t.ExchangeRates(), nil
	}
	return f.rates, nil
}

func eurRates() core.ExchangeRates {
	return core.ExchangeRates{
		BaseCurrency: "EUR",
		Rates: map[string]decimal.Decimal{
			"GBP": decimal.RequireFromString("0.8"),
			"USD": decimal.RequireFromString("1.25"),
		},
	}
}

func TestRateService_Table(t *testing.T) {
	src := &fakeRates{rates: eurRates()}
	svc := NewRateService(src, time.Minute, nil)
	ctx := context.Background()

	table, fallback := svc.Table(ctx, "eur", core.Date{})
	if fallback {
		t.Fatal("expected live rates")
	}
	if table.Base != "EUR" || !table.Rates["GBP"].Equal(decimal.RequireFromString("0.8")) {
		t.Errorf("unexpected table %+v", table)
	}

	svc.Table(ctx, "EUR", core.Date{})
	if got := src.calls.Load(); got != 1 {
		t.Errorf("expected cached second lookup, source called %d times", got)
	}

	svc.Table(ctx, "EUR", core.NewDate(2024, 3, 1))
	if got := src.calls.Load(); got != 2 {
		t.Errorf("a dated lookup should miss the cache, source called %d times", got)
	}

	svc.Invalidate()
	svc.Table(ctx, "EUR", core.Date{})
	if got := src.calls.Load(); got != 3 {
		t.Errorf("expected a reload after Invalidate, source called %d times", got)
	}
}

func TestRateService_Fallback(t *testing.T) {
	src := &fakeRates{err: errors.New("backend down")}
	svc := NewRateService(src, time.Minute, nil)
	ctx := context.Background()

	table, fallback := svc.Table(ctx, "", core.Date{})
	if !fallback {
		t.Fatal("expected the fallback table")
	}
	if table.Base != "EUR" || !table.Rates["GBP"].Equal(decimal.RequireFromString("0.86")) {
		t.Errorf("unexpected fallback table %+v", table)
	}

	gbp, fallback := svc.Table(ctx, "GBP", core.Date{})
	if !fallback || gbp.Base != "GBP" {
		t.Errorf("expected fallback rebased on GBP, got %+v (fallback=%v)", gbp, fallback)
	}

	svc.Table(ctx, "EUR", core.Date{})
	if got := src.calls.Load(); got != 3 {
		t.Errorf("fallback tables must not be cached, source called %d times", got)
	}
}

func TestRateService_SingleFlight(t *testing.T) {
	src := &fakeRates{rates: eurRates(), gate: make(chan struct{})}
	svc := NewRateService(src, time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Table(context.Background(), "EUR", core.Date{})
		}()
	}

	// Let the first caller reach the source before releasing it.
	for src.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	if got := src.calls.Load(); got != 1 {
		t.Errorf("concurrent lookups hit the source %d times, want 1", got)
	}
}

func TestRateService_Convert(t *testing.T) {
	svc := NewRateService(&fakeRates{rates: eurRates()}, time.Minute, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		amount string
		from   string
		to     string
		want   string
	}{
		{"same currency", "10", "EUR", "EUR", "10"},
		{"eur to gbp", "10", "EUR", "GBP", "8"},
		{"gbp to usd", "8", "gbp", "usd", "12.5"},
		{"unknown currency passes through", "10", "JPY", "EUR", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fallback := svc.Convert(ctx, decimal.RequireFromString(tt.amount), tt.from, tt.to)
			if fallback {
				t.Error("unexpected fallback")
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Convert(%s %s -> %s) = %s, want %s", tt.amount, tt.from, tt.to, got, tt.want)
			}
		})
	}
}
