package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// getOutputFormat returns the effective output format from the root command's
// persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emitResult writes v as indented JSON to path, or to stdout when path is
// empty. Structured results are always JSON regardless of --output; the
// table format only affects listing commands.
func emitResult(path string, v interface{}) error {
	if path == "" {
		return printJSON(os.Stdout, v)
	}
	f, err := os.Create(path) //nolint:gosec // user-requested output path
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	if err := printJSON(f, v); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
