package admin

import (
	"fmt"
	"time"

	"github.com/oracleconsulting/lightpoint-ingest/internal/config"
	"github.com/spf13/cobra"
)

// StaleCmd returns the stale command, a per-manual report of entries
// whose last verification is older than the threshold.
func StaleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stale",
		Short: "Report stale knowledge entries per manual",
		RunE:  runStale,
	}

	cmd.Flags().Int("days", 90, "Entries unchecked for more than this many days count as stale")

	return cmd
}

func runStale(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	d, err := buildDeps(ctx, cfg, pool)
	if err != nil {
		return err
	}

	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	counts, err := d.ingestSvc.StalenessReport(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("failed to build staleness report: %w", err)
	}

	if len(counts) == 0 {
		fmt.Println("no knowledge entries stored")
		return nil
	}

	fmt.Printf("entries unchecked since %s:\n", time.Now().Add(-time.Duration(days)*24*time.Hour).Format("2006-01-02"))
	for _, c := range counts {
		fmt.Printf("  %-8s %d stale of %d\n", c.ManualCode, c.Stale, c.Total)
	}
	return nil
}
