package infra

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

// DiskStatsImpl implements domain.DiskStats using gopsutil.
type DiskStatsImpl struct{}

// NewDiskStats creates a new disk statistics reader.
func NewDiskStats() *DiskStatsImpl {
	return &DiskStatsImpl{}
}

// Usage returns total, used and free bytes of the volume holding path.
func (d *DiskStatsImpl) Usage(path string) (domain.DiskInfo, error) {
	u, err := disk.Usage(path)
	if err != nil {
		return domain.DiskInfo{}, fmt.Errorf("disk usage of %s: %w", path, err)
	}
	return domain.DiskInfo{
		Path:        u.Path,
		Total:       u.Total,
		Used:        u.Used,
		Free:        u.Free,
		UsedPercent: u.UsedPercent,
	}, nil
}

var _ domain.DiskStats = (*DiskStatsImpl)(nil)
