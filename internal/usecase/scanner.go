package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
	"github.com/eliteGoblin/focusd/disk_clean/internal/policy"
)

// ScannerConfig holds scanner settings.
type ScannerConfig struct {
	Concurrency int // Rules running at once
}

// DefaultScannerConfig returns default scanner settings.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{Concurrency: 10}
}

// ScannerImpl implements domain.Scanner.
type ScannerImpl struct {
	registry *policy.Registry
	config   ScannerConfig
	recorder domain.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewScanner creates a scanner over the rules of registry.
func NewScanner(registry *policy.Registry, config ScannerConfig, recorder domain.Recorder, logger *zap.Logger) *ScannerImpl {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultScannerConfig().Concurrency
	}
	return &ScannerImpl{
		registry: registry,
		config:   config,
		recorder: recorderOrNop(recorder),
		logger:   logger,
		now:      time.Now,
	}
}

// Scan runs every registered rule once.
func (s *ScannerImpl) Scan(ctx context.Context) domain.ScanResult {
	return s.ScanCategories(ctx)
}

// ScanCategories runs the rules of the given categories (all when none are given)
// and blocks until every one of them finished. A failing rule never stops the others.
func (s *ScannerImpl) ScanCategories(ctx context.Context, categories ...domain.Category) domain.ScanResult {
	start := s.now()
	rules := s.registry.ForCategories(categories...)
	collector := NewCollector()

	var g errgroup.Group
	g.SetLimit(s.config.Concurrency)
	for _, rule := range rules {
		rule := rule
		g.Go(func() error {
			if err := s.runRule(rule, collector); err != nil {
				s.recorder.RuleFailed(rule.Name())
				s.logger.Error("scan rule failed",
					zap.String("rule", rule.Name()),
					zap.String("category", string(rule.Category())),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	result := collector.Result()
	elapsed := s.now().Sub(start)
	s.recorder.ObserveScan(result, elapsed.Milliseconds())
	s.logger.Info("scan finished",
		zap.Int("rules", len(rules)),
		zap.Int("findings", result.Count()),
		zap.Uint64("bytes", result.Total()),
		zap.Duration("elapsed", elapsed))
	return result
}

// runRule turns a rule error or panic into ErrRuleCrashed.
func (s *ScannerImpl) runRule(rule policy.ScanRule, sink domain.ResultSink) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrRuleCrashed, r)
		}
	}()
	if runErr := rule.Run(sink); runErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrRuleCrashed, runErr)
	}
	return nil
}

var _ domain.Scanner = (*ScannerImpl)(nil)
