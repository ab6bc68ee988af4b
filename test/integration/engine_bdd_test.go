//go:build integration && !windows

package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

var _ = Describe("Cleaner Engine", func() {
	var (
		ctx context.Context
		h   *harness
	)

	BeforeEach(func() {
		ctx = context.Background()
		root := GinkgoT().TempDir()
		h = newHarness(root, domain.DefaultOptions(filepath.Join(root, "Backups")))
		Expect(h.volume.Create()).To(Succeed())
	})

	AfterEach(func() {
		h.close()
	})

	Describe("ScanSystem", func() {
		It("should find the disposable files by category", func() {
			result := h.engine.ScanSystem(ctx)

			Expect(result[domain.CategoryTemp]).To(HaveLen(3))
			Expect(result[domain.CategoryCache]).To(HaveLen(1))
			Expect(result.CategoryTotal(domain.CategoryCache)).To(Equal(uint64(8192 + 16384)))
			Expect(result[domain.CategoryLogs]).To(HaveLen(1))
			Expect(result[domain.CategoryPrefetch]).To(HaveLen(1))
			Expect(result[domain.CategoryDownloads]).To(HaveLen(1))
			Expect(result.CategoryTotal(domain.CategoryRecycle)).To(Equal(uint64(777 + 64)))
		})

		It("should never report protected or personal files", func() {
			paths := findingPaths(h.engine.ScanSystem(ctx))

			for _, f := range append(h.volume.Protected(), h.volume.Personal()...) {
				Expect(paths).NotTo(ContainElement(h.volume.Abs(f.Rel)))
			}
			for _, p := range paths {
				Expect(strings.Contains(p, "System32")).To(BeFalse(), p)
			}
		})

		It("should be repeatable", func() {
			first := h.engine.ScanSystem(ctx)
			second := h.engine.ScanSystem(ctx)
			Expect(second.Total()).To(Equal(first.Total()))
			Expect(findingPaths(second)).To(ConsistOf(findingPaths(first)))
		})
	})

	Describe("CleanSelected", func() {
		Context("when simulating", func() {
			It("should account for everything and change nothing", func() {
				result := h.engine.ScanSystem(ctx)
				out := h.engine.CleanSelected(ctx, result.All(), h.engine.Options())

				Expect(out.Simulated).To(BeTrue())
				Expect(out.Errors).To(BeEmpty())
				Expect(out.FreedBytes).To(Equal(result.Total()))
				for _, f := range h.volume.Disposable() {
					Expect(h.volume.Exists(f)).To(BeTrue(), f.Rel)
				}
				Expect(h.engine.GetBackupInfo().Count).To(BeZero())
			})
		})

		Context("when cleaning for real with backup", func() {
			It("should delete the selection and restore it byte for byte", func() {
				result := h.engine.ScanSystem(ctx)
				temp := result.Select(domain.CategoryTemp)

				out := h.engine.CleanSelected(ctx, temp, domain.Options{Backup: true})
				Expect(out.Errors).To(BeEmpty())
				Expect(out.FreedBytes).To(Equal(uint64(4096 + 2048 + 1024)))
				Expect(out.Snapshot).NotTo(BeEmpty())

				for _, f := range temp {
					Expect(f.Path).NotTo(BeAnExistingFile())
				}

				manifest, err := h.engine.BackupManifest(filepath.Base(out.Snapshot))
				Expect(err).NotTo(HaveOccurred())
				Expect(manifest).To(HaveLen(3))

				Expect(h.engine.RestoreBackup(out.Snapshot)).To(BeTrue())
				for _, f := range h.volume.Disposable()[:3] {
					data, err := os.ReadFile(h.volume.Abs(f.Rel))
					Expect(err).NotTo(HaveOccurred())
					Expect(data).To(Equal(h.volume.Content(f)))
				}
				Expect(out.Snapshot).To(BeADirectory(), "restore keeps the snapshot")
			})

			It("should empty a directory finding but keep its root", func() {
				cache := h.engine.ScanSystem(ctx, domain.CategoryCache).Select(domain.CategoryCache)
				Expect(cache).To(HaveLen(1))

				out := h.engine.CleanSelected(ctx, cache, domain.Options{Backup: false})

				Expect(out.FreedBytes).To(Equal(uint64(8192 + 16384)))
				Expect(cache[0].Path).To(BeADirectory())
				entries, err := os.ReadDir(cache[0].Path)
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(BeEmpty())
			})

			It("should empty the recycle bin in bulk", func() {
				bin := h.engine.ScanSystem(ctx, domain.CategoryRecycle).Select(domain.CategoryRecycle)
				Expect(bin).To(HaveLen(1))

				out := h.engine.CleanSelected(ctx, bin, domain.Options{})
				Expect(out.Errors).To(BeEmpty())
				Expect(h.engine.ScanSystem(ctx, domain.CategoryRecycle)).To(BeEmpty())
			})
		})

		Context("when a finding points at a protected path", func() {
			It("should record ErrPathUnsafe and leave the file alone", func() {
				target := h.volume.Abs(h.volume.Protected()[0].Rel)
				out := h.engine.CleanSelected(ctx,
					[]domain.Finding{{Path: target, Size: 4096, Category: domain.CategoryTemp}},
					domain.Options{})

				Expect(out.Errors).To(HaveLen(1))
				Expect(out.Errors[0].Err).To(MatchError(domain.ErrPathUnsafe))
				Expect(target).To(BeAnExistingFile())
			})
		})
	})

	Describe("a backup root inside the temp directory", func() {
		It("should never be scanned or cleaned", func() {
			inTemp := h.paths.DefaultBackupDir
			Expect(h.engine.SetOptions(domain.OptionsPatch{BackupDir: &inTemp})).To(Succeed())
			Expect(inTemp).To(BeADirectory())

			out := h.engine.CleanSelected(ctx, h.engine.ScanSystem(ctx).Select(domain.CategoryTemp), domain.Options{Backup: true})
			Expect(out.Snapshot).To(HavePrefix(inTemp))

			for _, p := range findingPaths(h.engine.ScanSystem(ctx)) {
				Expect(p).NotTo(HavePrefix(inTemp))
			}
			Expect(h.engine.GetBackupInfo().Count).To(Equal(1))
		})
	})

	Describe("metrics", func() {
		It("should write scan and clean statistics to a textfile", func() {
			result := h.engine.ScanSystem(ctx)
			h.engine.CleanSelected(ctx, result.All(), h.engine.Options())

			file := filepath.Join(GinkgoT().TempDir(), "diskclean.prom")
			Expect(h.metrics.WriteTextfile(file)).To(Succeed())
			data, err := os.ReadFile(file)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("diskclean_scans_total 1"))
			Expect(string(data)).To(ContainSubstring(`diskclean_cleans_total{mode="simulated"} 1`))
		})
	})
})
