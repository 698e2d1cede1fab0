package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Output formats.
const (
	outputAuto  = "auto"
	outputTable = "table"
	outputJSON  = "json"
)

const tabPadding = 2

// resolveOutput picks the output format. auto means JSON when stdout is a pipe or
// file and a table otherwise.
func resolveOutput(cmd *cobra.Command, format string) (string, error) {
	switch format {
	case outputTable, outputJSON:
		return format, nil
	case outputAuto, "":
		if f, ok := cmd.OutOrStdout().(*os.File); ok && !isTerminal(f) {
			return outputJSON, nil
		}
		return outputTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid: auto, table, json)", format)
	}
}

func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", outputAuto, "output format: auto, table, json")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
