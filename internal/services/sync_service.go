package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"financy/internal/core"
	"financy/internal/events"
	"financy/internal/log"
	"financy/internal/ports"
)

var ErrSyncInProgress = errors.New("a sync is already running")

// SyncRecorder stores the outcome of each run.
type SyncRecorder interface {
	RecordSync(ctx context.Context, rep core.SyncReport) error
}

// SyncConfig holds the sync service's options.
type SyncConfig struct {
	// Lookback is how far back transactions are refreshed when no since date is given.
	Lookback time.Duration
	// RateBases are the base currencies whose rate tables are copied. EUR is always included.
	RateBases []string
	Recorder  SyncRecorder
	Publisher events.Publisher
	Logger    *log.Logger
}

// SyncService copies data from the backend into a local snapshot.
type SyncService struct {
	source    ports.Source
	sink      ports.SnapshotWriter
	recorder  SyncRecorder
	publisher events.Publisher
	logger    *log.Logger
	lookback  time.Duration
	bases     []string
	now       func() time.Time

	running sync.Mutex
}

func NewSyncService(source ports.Source, sink ports.SnapshotWriter, cfg SyncConfig) *SyncService {
	if cfg.Publisher == nil {
		cfg.Publisher = events.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	bases := []string{core.DefaultCurrency}
	for _, b := range cfg.RateBases {
		b = strings.ToUpper(b)
		if b != "" && !contains(bases, b) {
			bases = append(bases, b)
		}
	}
	return &SyncService{
		source:    source,
		sink:      sink,
		recorder:  cfg.Recorder,
		publisher: cfg.Publisher,
		logger:    cfg.Logger.WithComponent(log.ComponentSync),
		lookback:  cfg.Lookback,
		bases:     bases,
		now:       time.Now,
	}
}

type snapshot struct {
	accounts []core.Account
	trips    []core.Trip
	budgets  []core.Budget
	txs      []core.Transaction
	rates    []core.ExchangeRates
}

// Sync pulls everything changed since the given day (the lookback window when zero)
// and replaces it in the snapshot. Only one sync runs at a time.
func (s *SyncService) Sync(ctx context.Context, since core.Date) (core.SyncReport, error) {
	if !s.running.TryLock() {
		return core.SyncReport{}, ErrSyncInProgress
	}
	defer s.running.Unlock()

	if since.IsZero() && s.lookback > 0 {
		since = core.DateOf(s.now().Add(-s.lookback))
	}
	rep := core.SyncReport{StartedAt: s.now().UTC(), Since: since}

	snap, err := s.pull(ctx, since)
	if err == nil {
		err = s.write(ctx, since, snap)
	}
	rep.FinishedAt = s.now().UTC()
	rep.Accounts = len(snap.accounts)
	rep.Trips = len(snap.trips)
	rep.Budgets = len(snap.budgets)
	rep.Transactions = len(snap.txs)
	rep.Rates = len(snap.rates)
	if err != nil {
		rep.Error = err.Error()
	}

	if s.recorder != nil {
		if rerr := s.recorder.RecordSync(ctx, rep); rerr != nil {
			s.logger.WarnContext(ctx, "Failed to record sync run", log.FieldError, rerr)
		}
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Snapshot sync failed",
			log.FieldError, err,
			log.FieldDuration, rep.Duration().Milliseconds())
		return rep, err
	}

	s.logger.InfoContext(ctx, "Snapshot synced",
		"since", since.String(),
		"accounts", rep.Accounts,
		"transactions", rep.Transactions,
		"rates", rep.Rates,
		log.FieldDuration, rep.Duration().Milliseconds())
	if perr := events.Emit(ctx, s.publisher, events.SnapshotSynced, rep); perr != nil {
		s.logger.WarnContext(ctx, "Failed to publish sync event", log.FieldError, perr)
	}
	return rep, nil
}

func (s *SyncService) pull(ctx context.Context, since core.Date) (snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)

	g.Go(func() (err error) {
		snap.accounts, err = s.source.ListAccounts(gctx)
		return wrap("pull accounts", err)
	})
	g.Go(func() (err error) {
		snap.trips, err = s.source.ListTrips(gctx)
		return wrap("pull trips", err)
	})
	g.Go(func() (err error) {
		snap.budgets, err = s.source.ListBudgets(gctx)
		return wrap("pull budgets", err)
	})
	g.Go(func() (err error) {
		snap.txs, err = s.source.ListTransactions(gctx, core.TransactionFilter{StartDate: since})
		return wrap("pull transactions", err)
	})

	rates := make([]*core.ExchangeRates, len(s.bases))
	for i, base := range s.bases {
		g.Go(func() error {
			r, err := s.source.LatestRates(gctx, base, core.Date{})
			if err != nil {
				// Rates are optional; reports fall back to the static table.
				s.logger.WarnContext(gctx, "Skipping exchange rates", log.FieldCurrency, base, log.FieldError, err)
				return nil
			}
			rates[i] = &r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	for _, r := range rates {
		if r != nil {
			snap.rates = append(snap.rates, *r)
		}
	}
	return snap, nil
}

func (s *SyncService) write(ctx context.Context, since core.Date, snap snapshot) error {
	if err := s.sink.ReplaceAccounts(ctx, snap.accounts); err != nil {
		return fmt.Errorf("store accounts: %w", err)
	}
	if err := s.sink.ReplaceTrips(ctx, snap.trips); err != nil {
		return fmt.Errorf("store trips: %w", err)
	}
	if err := s.sink.ReplaceBudgets(ctx, snap.budgets); err != nil {
		return fmt.Errorf("store budgets: %w", err)
	}
	if err := s.sink.ReplaceTransactions(ctx, since, snap.txs); err != nil {
		return fmt.Errorf("store transactions: %w", err)
	}
	for _, r := range snap.rates {
		if err := s.sink.SaveRates(ctx, r); err != nil {
			return fmt.Errorf("store %s rates: %w", r.BaseCurrency, err)
		}
	}
	return nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
