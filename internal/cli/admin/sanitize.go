package admin

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oracleconsulting/lightpoint-ingest/internal/sanitize"
	"github.com/spf13/cobra"
)

// SanitizeCmd returns the sanitize command. It reads text from a file
// argument or stdin and prints the redacted version, so complaint drafts
// can be scrubbed before they go anywhere near an external model.
func SanitizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanitize [file]",
		Short: "Redact PII from text before external processing",
		Long:  "Redact personal identifiers from text read from a file or stdin, printing the sanitized version to stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSanitize,
	}

	cmd.Flags().Bool("names", false, "Also redact honorific-prefixed names")
	cmd.Flags().Bool("client-refs", false, "Also redact client reference codes")
	cmd.Flags().Bool("banner", false, "Prepend a banner line with the redaction count")

	return cmd
}

func runSanitize(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		text = string(data)
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	redactNames, _ := cmd.Flags().GetBool("names")
	redactRefs, _ := cmd.Flags().GetBool("client-refs")
	banner, _ := cmd.Flags().GetBool("banner")

	res := sanitize.Sanitize(text, sanitize.Options{
		RedactNames:       redactNames,
		RedactClientRefs:  redactRefs,
		PreserveStructure: banner,
	})

	fmt.Fprint(cmd.OutOrStdout(), res.Sanitized)
	if !strings.HasSuffix(res.Sanitized, "\n") {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "redactions: %d", res.RedactionCount)
	if len(res.RedactedTypes) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), " (%s)", strings.Join(res.RedactedTypes, ", "))
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	return nil
}
