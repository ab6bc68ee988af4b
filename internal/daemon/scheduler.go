// Package daemon implements the scheduled cleaner.
package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

// Engine is the part of usecase.Engine the scheduler drives.
type Engine interface {
	ScanSystem(ctx context.Context, categories ...domain.Category) domain.ScanResult
	Clean(ctx context.Context, findings []domain.Finding) domain.CleanOutcome
	CleanOldBackups() bool
}

// MetricsWriter persists run statistics for an external collector.
type MetricsWriter interface {
	WriteTextfile(path string) error
}

// SchedulerConfig holds scheduled cleaner configuration.
type SchedulerConfig struct {
	CleanInterval time.Duration     // How often to scan and clean (default 24h)
	PruneInterval time.Duration     // How often to enforce backup retention (default 6h)
	Categories    []domain.Category // What gets cleaned; empty means DefaultCategories
	MetricsFile   string            // Textfile collector output, empty disables it
}

// DefaultCategories is the unattended selection: caches and leftovers only.
// Downloads and large files always need a human decision.
func DefaultCategories() []domain.Category {
	return []domain.Category{
		domain.CategoryTemp,
		domain.CategoryCache,
		domain.CategoryLogs,
		domain.CategoryThumbnails,
		domain.CategoryErrorReports,
		domain.CategoryAppCrash,
		domain.CategoryMemoryDumps,
		domain.CategoryDeliveryOpt,
	}
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		CleanInterval: 24 * time.Hour,
		PruneInterval: 6 * time.Hour,
		Categories:    DefaultCategories(),
	}
}

// Scheduler cleans the configured categories on a timer.
// It runs one pass at startup and prunes backups once more when stopping.
type Scheduler struct {
	config  SchedulerConfig
	engine  Engine
	metrics MetricsWriter
	logger  *zap.Logger
}

// NewScheduler creates a new scheduler. metrics may be nil.
func NewScheduler(config SchedulerConfig, engine Engine, metrics MetricsWriter, logger *zap.Logger) *Scheduler {
	defaults := DefaultSchedulerConfig()
	if config.CleanInterval <= 0 {
		config.CleanInterval = defaults.CleanInterval
	}
	if config.PruneInterval <= 0 {
		config.PruneInterval = defaults.PruneInterval
	}
	if len(config.Categories) == 0 {
		config.Categories = defaults.Categories
	}
	return &Scheduler{
		config:  config,
		engine:  engine,
		metrics: metrics,
		logger:  logger,
	}
}

// Run starts the scheduler loop.
// This blocks until context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		zap.Duration("clean_interval", s.config.CleanInterval),
		zap.Duration("prune_interval", s.config.PruneInterval),
		zap.Int("categories", len(s.config.Categories)))

	s.runClean(ctx)

	cleanTicker := time.NewTicker(s.config.CleanInterval)
	pruneTicker := time.NewTicker(s.config.PruneInterval)
	defer func() {
		cleanTicker.Stop()
		pruneTicker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			s.runPrune()
			return ctx.Err()

		case <-cleanTicker.C:
			s.runClean(ctx)

		case <-pruneTicker.C:
			s.runPrune()
		}
	}
}

// runClean scans the configured categories and cleans everything found.
func (s *Scheduler) runClean(ctx context.Context) {
	result := s.engine.ScanSystem(ctx, s.config.Categories...)
	findings := result.Select(s.config.Categories...)
	if len(findings) == 0 {
		s.logger.Debug("nothing to clean")
		s.writeMetrics()
		return
	}

	outcome := s.engine.Clean(ctx, findings)
	s.logger.Info("scheduled clean completed",
		zap.Int("cleaned", len(outcome.CleanedPaths)),
		zap.Int("errors", len(outcome.Errors)),
		zap.Uint64("freed_bytes", outcome.FreedBytes),
		zap.Bool("simulated", outcome.Simulated))
	s.writeMetrics()
}

func (s *Scheduler) runPrune() {
	if !s.engine.CleanOldBackups() {
		s.logger.Warn("backup retention incomplete")
	}
	s.writeMetrics()
}

func (s *Scheduler) writeMetrics() {
	if s.metrics == nil || s.config.MetricsFile == "" {
		return
	}
	if err := s.metrics.WriteTextfile(s.config.MetricsFile); err != nil {
		s.logger.Warn("failed to write metrics", zap.String("file", s.config.MetricsFile), zap.Error(err))
	}
}
