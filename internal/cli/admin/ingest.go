package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/oracleconsulting/lightpoint-ingest/internal/config"
	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
	"github.com/spf13/cobra"
)

// IngestCmd returns the one-shot ingest command. With no argument it
// refreshes every registered source: all HMRC manuals, all statutory
// provisions, then the seed case precedents.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [source]",
		Short: "Run an ingestion pass",
		Long: "Run a one-shot ingestion pass. The optional argument is a manual code " +
			"(e.g. CH), an act identifier (e.g. TMA1970), or CASELAW for the seed " +
			"precedents. With no argument every registered source is refreshed.",
		Args: cobra.MaximumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("ingestion requires OPENAI_API_KEY")
	}

	pool, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	d, err := buildDeps(ctx, cfg, pool)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return ingestEverything(ctx, d)
	}
	return ingestOne(ctx, d, args[0])
}

func ingestEverything(ctx context.Context, d *deps) error {
	summaries, err := d.ingestSvc.IngestAll(ctx, logProgress)
	printSummaries(summaries)
	if err != nil {
		return fmt.Errorf("manual ingestion failed: %w", err)
	}

	summaries, err = d.legalSvc.IngestAllLegislation(ctx, logProgress)
	printSummaries(summaries)
	if err != nil {
		return fmt.Errorf("legislation ingestion failed: %w", err)
	}

	summary, err := d.legalSvc.IngestSeedPrecedents(ctx, logProgress)
	if summary != nil {
		printSummaries([]*domain.IngestionSummary{summary})
	}
	if err != nil {
		return fmt.Errorf("case law ingestion failed: %w", err)
	}
	return nil
}

func ingestOne(ctx context.Context, d *deps, code string) error {
	var summary *domain.IngestionSummary
	var err error

	switch {
	case code == domain.CaseLawCode:
		summary, err = d.legalSvc.IngestSeedPrecedents(ctx, logProgress)
	default:
		if source, srcErr := domain.SourceByCode(code); srcErr == nil {
			summary, err = d.ingestSvc.Ingest(ctx, source, logProgress)
		} else if act, actErr := domain.ActByIdentifier(code); actErr == nil {
			summary, err = d.legalSvc.IngestLegislation(ctx, act, logProgress)
		} else {
			return fmt.Errorf("unknown source %q: expected a manual code, act identifier, or %s", code, domain.CaseLawCode)
		}
	}

	if summary != nil {
		printSummaries([]*domain.IngestionSummary{summary})
	}
	return err
}

func logProgress(stage domain.IngestionStage, current, total int) {
	log.Printf("  %s: %d/%d", stage, current, total)
}

func printSummaries(summaries []*domain.IngestionSummary) {
	for _, s := range summaries {
		if s == nil {
			continue
		}
		fmt.Printf("%s: %d added, %d updated, %d unchanged, %d errors (%d sections, %d chunks)\n",
			s.SourceCode, s.Added, s.Updated, s.Unchanged, len(s.Errors), s.Sections, s.Chunks)
		for _, e := range s.Errors {
			fmt.Printf("  error: %s %s: %s\n", s.SourceCode, e.Section, e.Error)
		}
	}
}
