//go:build integration

package integration

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
	"github.com/eliteGoblin/focusd/disk_clean/internal/infra"
	"github.com/eliteGoblin/focusd/disk_clean/internal/policy"
	"github.com/eliteGoblin/focusd/disk_clean/internal/usecase"
	"github.com/eliteGoblin/focusd/disk_clean/test/fixtures"
)

// harness is the production wiring over a fake volume.
type harness struct {
	volume  *fixtures.FakeVolume
	paths   domain.ResolvedPaths
	store   *infra.SnapshotStore
	metrics *infra.Metrics
	engine  *usecase.Engine
}

func newHarness(root string, opts domain.Options) *harness {
	volume := fixtures.NewFakeVolume(root)
	paths := volume.Paths()
	logger := zap.NewNop()

	base := policy.DefaultGuard(paths)
	store := infra.NewSnapshotStore(infra.BackupStoreConfig{
		Dir:        opts.BackupDir,
		VolumeRoot: paths.VolumeRoot,
		MaxBackups: opts.MaxBackups,
		MaxSize:    opts.MaxBackupSize,
	}, base, logger)
	guard := policy.Exclude(base, func() []string { return []string{store.Dir()} })
	metrics := infra.NewMetrics()

	engine := usecase.NewEngine(usecase.EngineDeps{
		Paths:    paths,
		Registry: policy.NewRegistry(paths, guard),
		Guard:    guard,
		Deleter:  infra.NewDeleter(paths, logger),
		Bin:      infra.NewRecycleBin(paths),
		Store:    store,
		Disk:     infra.NewDiskStats(),
		Procs:    infra.NewProcessManager(),
		Recorder: metrics,
		Scanner:  usecase.DefaultScannerConfig(),
		Cleaner:  usecase.DefaultCleanerConfig(),
	}, opts, logger)

	return &harness{volume: volume, paths: paths, store: store, metrics: metrics, engine: engine}
}

func (h *harness) close() {
	_ = h.store.Close()
}

// paths of all findings in a result.
func findingPaths(result domain.ScanResult) []string {
	var out []string
	for _, f := range result.All() {
		out = append(out, f.Path)
	}
	return out
}
