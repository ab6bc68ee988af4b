package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	errColor    = color.New(color.FgRed)
	dimColor    = color.New(color.Faint)
)

// topItems is how many findings per category the scan listing shows.
const topItems = 5

func printHeader(title string) {
	headerColor.Printf("\n=== %s ===\n", title)
}

func printFooter(title string) {
	fmt.Println(strings.Repeat("=", len(title)+8))
}

func formatBytes(n uint64) string {
	return humanize.IBytes(n)
}

// parseCategories validates category names given on the command line.
func parseCategories(names []string) ([]domain.Category, error) {
	var out []domain.Category
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			c := domain.Category(strings.TrimSpace(part))
			if c == "" {
				continue
			}
			if !c.Valid() {
				return nil, fmt.Errorf("unknown category %q (see 'diskclean rules')", c)
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func printScanResult(result domain.ScanResult) {
	if result.Count() == 0 {
		okColor.Println("\nNothing to clean.")
		return
	}
	for _, c := range result.Categories() {
		findings := append([]domain.Finding(nil), result[c]...)
		sort.SliceStable(findings, func(i, j int) bool { return findings[i].Size > findings[j].Size })

		fmt.Printf("\n[%s] %s: %d items, %s\n", c, c.Title(), len(findings), formatBytes(result.CategoryTotal(c)))
		for i, f := range findings {
			if i == topItems {
				dimColor.Printf("    ... and %d more\n", len(findings)-topItems)
				break
			}
			fmt.Printf("    %10s  %s\n", formatBytes(f.Size), f.Path)
		}
	}
	fmt.Printf("\nTotal: %d items, %s\n", result.Count(), formatBytes(result.Total()))
}

func printOutcome(out domain.CleanOutcome) {
	if out.Simulated {
		warnColor.Println("Mode: SIMULATED (nothing was deleted, use --no-simulate to clean)")
	} else {
		fmt.Println("Mode: LIVE")
	}
	fmt.Printf("Cleaned: %d items\n", len(out.CleanedPaths))
	okColor.Printf("Freed: %s\n", formatBytes(out.FreedBytes))
	if out.Snapshot != "" {
		fmt.Printf("Backup: %s\n", out.Snapshot)
	}
	fmt.Printf("Took: %dms\n", out.DurationMs)

	if len(out.Errors) > 0 {
		errColor.Printf("\nFailed: %d items\n", len(out.Errors))
		for _, e := range out.Errors {
			fmt.Printf("  - %s: %v\n", e.Path, e.Err)
		}
	}
}
