package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

type mockEngine struct {
	mu      sync.Mutex
	result  domain.ScanResult
	scans   [][]domain.Category
	cleaned [][]domain.Finding
	prunes  int
	pruneOK bool
	onClean func()
}

func (m *mockEngine) ScanSystem(_ context.Context, categories ...domain.Category) domain.ScanResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans = append(m.scans, categories)
	return m.result
}

func (m *mockEngine) Clean(_ context.Context, findings []domain.Finding) domain.CleanOutcome {
	m.mu.Lock()
	m.cleaned = append(m.cleaned, findings)
	hook := m.onClean
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return domain.CleanOutcome{CleanedPaths: []string{"x"}}
}

func (m *mockEngine) CleanOldBackups() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prunes++
	return m.pruneOK
}

type mockMetrics struct {
	mu     sync.Mutex
	writes []string
	err    error
}

func (m *mockMetrics) WriteTextfile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, path)
	return m.err
}

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	assert.Equal(t, 24*time.Hour, config.CleanInterval)
	assert.Equal(t, 6*time.Hour, config.PruneInterval)
	assert.NotContains(t, config.Categories, domain.CategoryLargeFiles)
	assert.NotContains(t, config.Categories, domain.CategoryDownloads)
	assert.Empty(t, config.MetricsFile)
}

func TestNewScheduler_FillsDefaults(t *testing.T) {
	s := NewScheduler(SchedulerConfig{}, &mockEngine{}, nil, zap.NewNop())
	assert.Equal(t, DefaultSchedulerConfig(), s.config)
}

func TestScheduler_RunCleanSelectsConfiguredCategories(t *testing.T) {
	engine := &mockEngine{result: domain.ScanResult{
		domain.CategoryTemp:       {{Path: "/t/a", Size: 1, Category: domain.CategoryTemp}},
		domain.CategoryLargeFiles: {{Path: "/big", Size: 1 << 30, Category: domain.CategoryLargeFiles}},
	}}
	metrics := &mockMetrics{}
	s := NewScheduler(SchedulerConfig{Categories: []domain.Category{domain.CategoryTemp}, MetricsFile: "/m.prom"}, engine, metrics, zap.NewNop())

	s.runClean(context.Background())

	require.Len(t, engine.cleaned, 1)
	assert.Equal(t, []domain.Finding{{Path: "/t/a", Size: 1, Category: domain.CategoryTemp}}, engine.cleaned[0])
	assert.Equal(t, [][]domain.Category{{domain.CategoryTemp}}, engine.scans)
	assert.Equal(t, []string{"/m.prom"}, metrics.writes)
}

func TestScheduler_RunCleanSkipsEmptySelection(t *testing.T) {
	engine := &mockEngine{result: domain.ScanResult{}}
	s := NewScheduler(DefaultSchedulerConfig(), engine, nil, zap.NewNop())

	s.runClean(context.Background())

	assert.Len(t, engine.scans, 1)
	assert.Empty(t, engine.cleaned)
}

func TestScheduler_WriteMetricsErrorIsLogged(t *testing.T) {
	metrics := &mockMetrics{err: errors.New("read-only")}
	s := NewScheduler(SchedulerConfig{MetricsFile: "/m.prom"}, &mockEngine{}, metrics, zap.NewNop())

	assert.NotPanics(t, s.writeMetrics)
	assert.Len(t, metrics.writes, 1)
}

func TestScheduler_RunStopsOnCancelAndPrunes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	engine := &mockEngine{
		pruneOK: true,
		result:  domain.ScanResult{domain.CategoryTemp: {{Path: "/t/a", Size: 1, Category: domain.CategoryTemp}}},
		onClean: cancel,
	}
	s := NewScheduler(SchedulerConfig{CleanInterval: time.Hour, PruneInterval: time.Hour}, engine, nil, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Len(t, engine.cleaned, 1, "one pass at startup")
	assert.Equal(t, 1, engine.prunes, "final prune on shutdown")
}

func TestScheduler_TicksRepeatedly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var once sync.Once
	passes := 0
	engine := &mockEngine{result: domain.ScanResult{domain.CategoryTemp: {{Path: "/t/a", Size: 1, Category: domain.CategoryTemp}}}}
	engine.onClean = func() {
		passes++
		if passes >= 3 {
			once.Do(cancel)
		}
	}
	s := NewScheduler(SchedulerConfig{CleanInterval: 5 * time.Millisecond, PruneInterval: time.Hour}, engine, nil, zap.NewNop())

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, passes, 3)
}
