package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"financy/internal/cache"
	"financy/internal/core"
	"financy/internal/log"
	"financy/internal/ports"
)

const rateCacheSize = 64

// RateService hands out exchange-rate tables, cached per base currency and day.
// When the source fails it falls back to the built-in EUR table.
type RateService struct {
	source ports.RateFetcher
	cache  *cache.LRUCache[core.RateTable]
	group  singleflight.Group
	logger *log.Logger
}

func NewRateService(source ports.RateFetcher, ttl time.Duration, logger *log.Logger) *RateService {
	if logger == nil {
		logger = log.Discard()
	}
	return &RateService{
		source: source,
		cache:  cache.NewLRUCache[core.RateTable](rateCacheSize, ttl),
		logger: logger.WithComponent(log.ComponentRates),
	}
}

// Cache exposes the table cache so it can join a cleanup manager.
func (s *RateService) Cache() *cache.LRUCache[core.RateTable] { return s.cache }

// Table returns the rate table for base as of date (latest when zero). fallback is
// true when the static table had to be used; it is never cached.
func (s *RateService) Table(ctx context.Context, base string, date core.Date) (table core.RateTable, fallback bool) {
	base = strings.ToUpper(base)
	if base == "" {
		base = core.DefaultCurrency
	}
	key := base + "|" + date.String()
	if t, ok := s.cache.Get(key); ok {
		return t, false
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		rates, err := s.source.LatestRates(ctx, base, date)
		if err != nil {
			return nil, err
		}
		t := core.NewRateTable(rates)
		s.cache.Set(key, t)
		return t, nil
	})
	if err == nil {
		s.logger.DebugContext(ctx, "Loaded exchange rates",
			log.FieldCurrency, base,
			"date", date.String(),
			"shared", shared)
		return v.(core.RateTable), false
	}

	s.logger.WarnContext(ctx, "Falling back to static exchange rates",
		log.FieldCurrency, base,
		log.FieldError, err)
	t := core.FallbackRates()
	if rebased, ok := t.Rebase(base); ok {
		t = rebased
	}
	return t, true
}

// Convert converts amount between two currencies using the latest table.
func (s *RateService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, bool) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	t, fallback := s.Table(ctx, core.DefaultCurrency, core.Date{})
	return t.Convert(amount, from, to), fallback
}

// Invalidate drops every cached table.
func (s *RateService) Invalidate() { s.cache.Clear() }
