package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration: the global file, the project overlay and
PLANFOCUS_ environment variables.

This includes:
- YAML syntax
- Store backend and its required settings (dsn, url)
- Page size bounds
- Session role and logging format`,
		Example: `  # Validate current configuration
  planfocus config validate

  # Validate and show detailed information
  planfocus config validate --verbose`,
		Annotations: map[string]string{annotationLenientConfig: ""},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	rt, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}
	if rt.loadErr != nil {
		return fmt.Errorf("configuration validation failed: %w", rt.loadErr)
	}

	cmd.Printf("Configuration is valid\n")
	if verbose {
		printVerboseDetails(cmd, rt)
	}
	return nil
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, rt *runtime) {
	cfg := rt.cfg
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Config file: %s\n", rt.configPath)
	if rt.projectDir != "" {
		cmd.Printf("  Project directory: %s\n", rt.projectDir)
	}
	cmd.Printf("  Store backend: %s\n", cfg.Store.Backend)
	cmd.Printf("  Page size: %d\n", cfg.Paging.PageSize)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	if cfg.Logging.File != "" {
		cmd.Printf("  Log file: %s\n", cfg.Logging.File)
	}

	if cfg.Session.ActorID == "" {
		cmd.Println("  No actor configured (pass --actor for task and budget commands)")
	} else {
		cmd.Printf("  Actor: %s (%s)\n", cfg.Session.ActorID, cfg.Session.Role)
	}
}
