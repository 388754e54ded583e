package main

import (
	"fmt"
	"os"

	"github.com/oracleconsulting/lightpoint-ingest/internal/cli"
	"github.com/oracleconsulting/lightpoint-ingest/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lightpointd",
		Short: "Lightpoint ingestion daemon and CLI",
		Long:  "Lightpoint daemon for serving the knowledge ingestion API and running one-shot ingestion, staleness, and sanitization tasks",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())
	rootCmd.AddCommand(admin.StaleCmd())
	rootCmd.AddCommand(admin.SanitizeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
