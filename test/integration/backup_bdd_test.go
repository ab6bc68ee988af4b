//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

// seedSnapshot creates a snapshot directory holding one file of the given size.
func seedSnapshot(root, name string, size int) {
	dir := filepath.Join(root, name)
	Expect(os.MkdirAll(dir, 0755)).To(Succeed())
	Expect(os.WriteFile(filepath.Join(dir, "payload.bin"), make([]byte, size), 0644)).To(Succeed())
}

var _ = Describe("Backup retention", func() {
	var (
		backupDir string
		h         *harness
	)

	BeforeEach(func() {
		root := GinkgoT().TempDir()
		backupDir = filepath.Join(root, "Backups")
		h = newHarness(root, domain.DefaultOptions(backupDir))
		seedSnapshot(backupDir, "20260101_080000", 3000)
		seedSnapshot(backupDir, "20260102_080000", 2000)
		seedSnapshot(backupDir, "20260103_080000", 1000)
	})

	AfterEach(func() {
		h.close()
	})

	It("should list snapshots newest first", func() {
		info := h.engine.GetBackupInfo()

		Expect(info.Count).To(Equal(3))
		Expect(info.TotalSize).To(Equal(uint64(6000)))
		Expect(info.Snapshots[0].Name).To(Equal("20260103_080000"))
		Expect(info.Snapshots[0].CreatedAt).To(BeTemporally("==", time.Date(2026, 1, 3, 8, 0, 0, 0, time.Local)))
	})

	Context("with maxBackups=2", func() {
		It("should keep the two newest", func() {
			two := 2
			Expect(h.engine.SetOptions(domain.OptionsPatch{MaxBackups: &two})).To(Succeed())

			Expect(h.engine.CleanOldBackups()).To(BeTrue())

			names := snapshotNames(h.engine.GetBackupInfo())
			Expect(names).To(Equal([]string{"20260103_080000", "20260102_080000"}))
		})
	})

	Context("with a size quota", func() {
		It("should remove the oldest until the total fits", func() {
			quota := uint64(3500)
			Expect(h.engine.SetOptions(domain.OptionsPatch{MaxBackupSize: &quota})).To(Succeed())

			Expect(h.engine.CleanOldBackups()).To(BeTrue())

			info := h.engine.GetBackupInfo()
			Expect(info.TotalSize).To(BeNumerically("<=", quota))
			Expect(snapshotNames(info)).To(Equal([]string{"20260103_080000", "20260102_080000"}))
		})

		It("should keep the newest even when it alone is too big", func() {
			quota := uint64(10)
			Expect(h.engine.SetOptions(domain.OptionsPatch{MaxBackupSize: &quota})).To(Succeed())

			h.engine.CleanOldBackups()

			Expect(snapshotNames(h.engine.GetBackupInfo())).To(Equal([]string{"20260103_080000"}))
		})
	})

	It("should delete a single snapshot regardless of quotas", func() {
		Expect(h.engine.DeleteBackup("20260102_080000")).To(Succeed())
		Expect(snapshotNames(h.engine.GetBackupInfo())).To(Equal([]string{"20260103_080000", "20260101_080000"}))
	})

	It("should refuse to restore a missing snapshot", func() {
		Expect(h.engine.RestoreBackup(filepath.Join(backupDir, "19990101_000000"))).To(BeFalse())
	})
})

func snapshotNames(info domain.BackupInfo) []string {
	var names []string
	for _, s := range info.Snapshots {
		names = append(names, s.Name)
	}
	return names
}
