package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultRetention is the default session retention period.
	DefaultRetention = 24 * time.Hour
	// DefaultSweepInterval is the default interval between cleanup runs.
	DefaultSweepInterval = time.Hour
)

// CleanupConfig holds configuration for the cleanup job.
type CleanupConfig struct {
	Retention     time.Duration // how long idle sessions are kept
	SweepInterval time.Duration // interval between cleanup runs
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		Retention:     DefaultRetention,
		SweepInterval: DefaultSweepInterval,
	}
}

// CleanupJob periodically evicts idle sessions from a Store.
type CleanupJob struct {
	store  *Store
	config CleanupConfig
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewCleanupJob creates a new cleanup job.
func NewCleanupJob(store *Store, config CleanupConfig, logger *slog.Logger) *CleanupJob {
	if config.Retention <= 0 {
		config.Retention = DefaultRetention
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupJob{
		store:  store,
		config: config,
		logger: logger,
	}
}

// Start begins the periodic cleanup job. Non-blocking; the sweep runs in a
// goroutine until Stop is called or the context is cancelled.
func (j *CleanupJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}
	j.running = true
	j.stopChan = make(chan struct{})

	go j.run(ctx)
}

// Stop halts the cleanup job.
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}
	j.running = false
	close(j.stopChan)
}

func (j *CleanupJob) run(ctx context.Context) {
	ticker := time.NewTicker(j.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopChan:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *CleanupJob) sweep() {
	cutoff := time.Now().Add(-j.config.Retention)
	if evicted := j.store.evictOlderThan(cutoff); evicted > 0 {
		j.logger.Info("evicted idle sessions", "count", evicted, "retention", j.config.Retention)
	}
}
