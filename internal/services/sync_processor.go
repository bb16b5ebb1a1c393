package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"financy/internal/core"
	"financy/internal/log"
)

// SyncProcessorConfig holds configuration for the periodic sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often the snapshot is refreshed (default: 15m)
	PollInterval time.Duration

	// CleanupInterval is how often expired cache entries are dropped (default: 10m)
	CleanupInterval time.Duration

	// RunOnStart triggers a sync as soon as the processor starts
	RunOnStart bool
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval:    15 * time.Minute,
		CleanupInterval: 10 * time.Minute,
		RunOnStart:      true,
	}
}

// Syncer runs one snapshot refresh.
type Syncer interface {
	Sync(ctx context.Context, since core.Date) (core.SyncReport, error)
}

// Cleaner drops expired cache entries and reports how many went.
type Cleaner interface {
	CleanAll() int
}

// SyncProcessor refreshes the snapshot on a ticker until stopped.
type SyncProcessor struct {
	syncer  Syncer
	cleaner Cleaner
	config  SyncProcessorConfig
	logger  *log.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a new sync processor. cleaner may be nil.
func NewSyncProcessor(syncer Syncer, cleaner Cleaner, config SyncProcessorConfig, logger *log.Logger) *SyncProcessor {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncProcessor{
		syncer:  syncer,
		cleaner: cleaner,
		config:  config,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	if p.config.PollInterval <= 0 {
		p.mu.Unlock()
		return fmt.Errorf("sync processor poll interval must be positive, got %v", p.config.PollInterval)
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval.String(),
		"run_on_start", p.config.RunOnStart)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Sync processor stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	cleanup := p.config.CleanupInterval
	if cleanup <= 0 {
		cleanup = DefaultSyncProcessorConfig().CleanupInterval
	}
	cleanupTicker := time.NewTicker(cleanup)
	defer cleanupTicker.Stop()

	if p.config.RunOnStart {
		p.RunOnce(ctx)
	}

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.RunOnce(ctx)
		case <-cleanupTicker.C:
			if p.cleaner != nil {
				if n := p.cleaner.CleanAll(); n > 0 {
					p.logger.DebugContext(ctx, "Dropped expired cache entries", log.FieldCount, n)
				}
			}
		}
	}
}

// RunOnce performs one scheduled sync. A sync already in flight is not an error.
func (p *SyncProcessor) RunOnce(ctx context.Context) {
	_, err := p.syncer.Sync(ctx, core.Date{})
	switch {
	case err == nil:
	case errors.Is(err, ErrSyncInProgress):
		p.logger.DebugContext(ctx, "Skipping scheduled sync, one is already running")
	default:
		p.logger.ErrorContext(ctx, "Scheduled sync failed", log.FieldError, err)
	}
}
