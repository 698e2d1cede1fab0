package cli

import (
	"github.com/spf13/cobra"
)

// NewConfigShowCmd creates the config show command, which prints the effective
// configuration with secrets masked.
func NewConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Show the effective configuration",
		Annotations: map[string]string{annotationLenientConfig: ""},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			if rt.loadErr != nil {
				cmd.PrintErrf("Warning: %v\nShowing defaults.\n", rt.loadErr)
			}
			cmd.Print(rt.cfg.String())
			return nil
		},
	}
}
