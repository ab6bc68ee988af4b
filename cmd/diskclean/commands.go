package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/disk_clean/internal/daemon"
	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for disposable files",
	Long: `Runs every scan rule (or those of the given categories) and lists what
was found per category. Nothing is modified.`,
	RunE: runScan,
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean the selected categories",
	Long: `Scans, then cleans the findings of the given categories.
--all selects every category except large files ("one-click clean").

Simulated by default: pass --no-simulate to actually delete.`,
	RunE: runClean,
}

var diskCmd = &cobra.Command{
	Use:   "disk",
	Short: "Show system volume usage",
	RunE:  runDisk,
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List scan rules",
	Long:  `Shows every registered scan rule with its category, targets and owner processes.`,
	RunE:  runRules,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Clean on a schedule until interrupted",
	Long: `Runs a scan and clean of the configured categories now and then every
--interval, until SIGINT or SIGTERM. Backups are pruned periodically and once
more on exit. With --metrics-file, run statistics are written in the
Prometheus textfile format after every pass.`,
	RunE: runWatch,
}

var (
	scanCategories  []string
	scanJSON        bool
	cleanCategories []string
	cleanAll        bool
	watchCategories []string
	watchInterval   time.Duration
	watchMetrics    string
)

func init() {
	scanCmd.Flags().StringSliceVarP(&scanCategories, "category", "c", nil, "Only scan these categories")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print findings as JSON")

	cleanCmd.Flags().StringSliceVarP(&cleanCategories, "category", "c", nil, "Categories to clean")
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "Clean every category except large files")

	defaults := daemon.DefaultSchedulerConfig()
	watchCmd.Flags().StringSliceVarP(&watchCategories, "category", "c", nil, "Categories to clean (default: caches and leftovers)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", defaults.CleanInterval, "Time between cleans")
	watchCmd.Flags().StringVar(&watchMetrics, "metrics-file", "", "Write Prometheus textfile metrics here")
}

func runScan(cmd *cobra.Command, args []string) error {
	categories, err := parseCategories(scanCategories)
	if err != nil {
		return err
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.engine.ScanSystem(cmd.Context(), categories...)

	if scanJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.All())
	}

	printHeader("Scan Results")
	printScanResult(result)
	printFooter("Scan Results")
	return nil
}

func runClean(cmd *cobra.Command, args []string) error {
	categories, err := parseCategories(cleanCategories)
	if err != nil {
		return err
	}
	if len(categories) == 0 && !cleanAll {
		return errors.New("select categories with --category or use --all")
	}
	if cleanAll && len(categories) == 0 {
		for _, c := range domain.AllCategories() {
			if c != domain.CategoryLargeFiles {
				categories = append(categories, c)
			}
		}
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	result := a.engine.ScanSystem(ctx, categories...)
	findings := result.Select(categories...)

	printHeader("Clean Results")
	if len(findings) == 0 {
		okColor.Println("Nothing to clean.")
		printFooter("Clean Results")
		return nil
	}
	fmt.Printf("Selected: %d items, %s\n", len(findings), formatBytes(result.Total()))

	out := a.engine.Clean(ctx, findings)
	printOutcome(out)
	printFooter("Clean Results")
	return nil
}

func runDisk(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	info, err := a.engine.GetDiskInfo()
	if err != nil {
		return err
	}

	printHeader("Disk Usage")
	fmt.Printf("Volume: %s\n", info.Path)
	fmt.Printf("Total:  %s\n", formatBytes(info.Total))
	fmt.Printf("Used:   %s (%.1f%%)\n", formatBytes(info.Used), info.UsedPercent)
	fmt.Printf("Free:   %s\n", formatBytes(info.Free))
	printFooter("Disk Usage")
	return nil
}

func runRules(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	printHeader("Scan Rules")
	for _, rule := range a.engine.Rules() {
		fmt.Printf("\n[%s] %s (%s)\n", rule.Category(), rule.Name(), rule.Category().Title())
		if len(rule.Targets()) == 0 {
			dimColor.Println("  (no targets on this host)")
		}
		for _, target := range rule.Targets() {
			fmt.Printf("    - %s\n", target)
		}
		if owners := rule.Owners(); len(owners) > 0 {
			fmt.Printf("  Owner processes: %v\n", owners)
		}
	}
	printFooter("Scan Rules")
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	categories, err := parseCategories(watchCategories)
	if err != nil {
		return err
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			a.logger.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	config := daemon.DefaultSchedulerConfig()
	config.CleanInterval = watchInterval
	config.MetricsFile = watchMetrics
	if len(categories) > 0 {
		config.Categories = categories
	}

	opts := a.engine.Options()
	fmt.Printf("Watching %d categories every %s (simulate=%t, backup=%t). Ctrl+C to stop.\n",
		len(config.Categories), config.CleanInterval, opts.Simulate, opts.Backup)

	scheduler := daemon.NewScheduler(config, a.engine, a.metrics, a.logger)
	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("scheduler failed", zap.Error(err))
		return err
	}
	return nil
}
