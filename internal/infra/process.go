// Package infra implements the host side of the cleaner: filesystem
// deletion, backups and their catalog, disk and process statistics, path
// resolution, logging and metrics.
package infra

import (
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

// ProcessManagerImpl implements domain.ProcessManager using gopsutil.
type ProcessManagerImpl struct{}

// NewProcessManager creates a new process manager.
func NewProcessManager() *ProcessManagerImpl {
	return &ProcessManagerImpl{}
}

// FindByName returns PIDs of processes whose name matches pattern,
// ignoring case and a trailing ".exe".
func (pm *ProcessManagerImpl) FindByName(pattern string) ([]int, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	want := normalizeProcessName(pattern)
	var found []int
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}
		if matchProcessName(want, normalizeProcessName(name)) {
			found = append(found, int(p.Pid))
		}
	}
	return found, nil
}

func normalizeProcessName(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".exe")
}

// matchProcessName matches exact names and helper processes that share the
// prefix ("chrome" matches "chrome_crashpad_handler", not "chromedriver2x").
func matchProcessName(want, name string) bool {
	if want == "" {
		return false
	}
	if name == want {
		return true
	}
	if !strings.HasPrefix(name, want) {
		return false
	}
	switch name[len(want)] {
	case '_', '-', '.', ' ':
		return true
	}
	return false
}

var _ domain.ProcessManager = (*ProcessManagerImpl)(nil)
