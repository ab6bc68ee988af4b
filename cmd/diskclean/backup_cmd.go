package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage backup snapshots",
	Long: `Every live clean with backup enabled copies the deleted files into one
timestamped snapshot under the backup root. These commands list, restore,
inspect and remove snapshots.`,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE:  runBackupList,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <name|path>",
	Short: "Copy every file of a snapshot back to its original location",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupRestore,
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete <name|path>",
	Short: "Delete one snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupDelete,
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply --max-backups and --max-backup-size now",
	Args:  cobra.NoArgs,
	RunE:  runBackupPrune,
}

var backupShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "List the files recorded for a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupShow,
}

func init() {
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupDeleteCmd)
	backupCmd.AddCommand(backupPruneCmd)
	backupCmd.AddCommand(backupShowCmd)
}

func runBackupList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	info := a.engine.GetBackupInfo()

	printHeader("Backups")
	fmt.Printf("Location: %s\n", info.Dir)
	fmt.Printf("Snapshots: %d, %s total\n\n", info.Count, formatBytes(info.TotalSize))
	if info.Count == 0 {
		dimColor.Println("No backups yet.")
		printFooter("Backups")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCREATED\tSIZE\tPATH")
	for _, s := range info.Snapshots {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.CreatedAt.Format("2006-01-02 15:04:05"), formatBytes(s.Size), s.Path)
	}
	_ = w.Flush()
	printFooter("Backups")
	return nil
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.engine.RestoreBackupReport(args[0])
	if err != nil {
		return fmt.Errorf("restore %s: %w", args[0], err)
	}

	printHeader("Restore")
	fmt.Printf("Snapshot: %s\n", report.Snapshot)
	okColor.Printf("Restored: %d files\n", report.Restored)
	if report.Failed > 0 {
		errColor.Printf("Failed: %d files (see log for details)\n", report.Failed)
	}
	printFooter("Restore")
	return nil
}

func runBackupDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.engine.DeleteBackup(args[0]); err != nil {
		return fmt.Errorf("delete %s: %w", args[0], err)
	}
	okColor.Printf("Deleted backup %s\n", args[0])
	return nil
}

func runBackupPrune(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	report, ok := a.engine.PruneBackups()
	printHeader("Prune")
	opts := a.engine.Options()
	fmt.Printf("Limits: %d snapshots, %s\n", opts.MaxBackups, formatBytes(opts.MaxBackupSize))
	if len(report.Removed) == 0 {
		fmt.Println("Nothing to remove.")
	}
	for _, name := range report.Removed {
		fmt.Printf("  - removed %s\n", name)
	}
	for _, f := range report.Failures {
		errColor.Printf("  - failed %s: %v\n", f.Path, f.Err)
	}
	printFooter("Prune")
	if !ok || len(report.Failures) > 0 {
		return fmt.Errorf("prune incomplete")
	}
	return nil
}

func runBackupShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.engine.BackupManifest(args[0])
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	printHeader("Backup " + args[0])
	if len(entries) == 0 {
		dimColor.Println("No catalog entries (snapshot unknown or catalog unavailable).")
		printFooter("Backup " + args[0])
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIZE\tBACKED UP\tSHA256\tORIGINAL PATH")
	var total uint64
	for _, e := range entries {
		total += e.Size
		fmt.Fprintf(w, "%s\t%s\t%.12s\t%s\n", formatBytes(e.Size), e.BackedUpAt.Format("2006-01-02 15:04:05"), e.SHA256, e.OriginalPath)
	}
	_ = w.Flush()
	fmt.Printf("\n%d files, %s\n", len(entries), formatBytes(total))
	printFooter("Backup " + args[0])
	return nil
}
