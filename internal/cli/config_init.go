package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/planfocus/internal/config"
)

// NewConfigInitCmd creates the config init command for initializing configuration.
// With a project directory (and without --global), it creates a project-local
// .planfocus/ directory with config.yaml and .gitignore. Otherwise, it creates the
// global ~/.planfocus/config.yaml.
func NewConfigInitCmd() *cobra.Command {
	var (
		force  bool
		global bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values.

With --project-dir (or PLANFOCUS_PROJECT_DIR), or inside a directory tree that already
has a .planfocus/config.yaml, creates project-local configuration at
$PROJECT/.planfocus/config.yaml with a .gitignore that keeps local store data out of
version control. Use --global to force global configuration initialization.`,
		Example: `  # Create global configuration
  planfocus config init

  # Create project-local configuration
  planfocus config init --project-dir .

  # Create configuration, overwriting existing
  planfocus config init --force`,
		Annotations: map[string]string{annotationLenientConfig: ""},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			if rt.projectDir != "" && !global {
				return initProjectConfig(cmd, rt.projectDir, rt.cfg.Store, force)
			}
			return initGlobalConfig(cmd, rt.configPath, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().BoolVar(&global, "global", false, "force global configuration init even inside a project")

	return cmd
}

// ensureAbsent fails when path exists, unless force is set.
func ensureAbsent(path string, force bool) error {
	if force {
		return nil
	}
	_, err := os.Stat(path)
	if err == nil {
		return errors.New("configuration file already exists, use --force to overwrite")
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access config path %s: %w", path, err)
	}
	return nil
}

// initProjectConfig creates project-local config at projectDir/config.yaml with .gitignore.
func initProjectConfig(cmd *cobra.Command, projectDir string, sc config.StoreConfig, force bool) error {
	configPath := filepath.Join(projectDir, "config.yaml")
	if err := ensureAbsent(configPath, force); err != nil {
		return err
	}

	if err := config.New().Save(configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	// Create .gitignore (never overwrites existing)
	created, err := config.EnsureGitignore(projectDir, sc)
	if err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}

	cmd.Printf("Configuration initialized at %s\n", configPath)
	if created {
		cmd.Printf("Created .gitignore to keep local store data out of version control\n")
	}
	return nil
}

// initGlobalConfig creates global config at configPath.
func initGlobalConfig(cmd *cobra.Command, configPath string, force bool) error {
	if err := ensureAbsent(configPath, force); err != nil {
		return err
	}

	if err := config.New().Save(configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Printf("Configuration initialized successfully\n")
	cmd.Printf("Configuration file: %s\n", configPath)
	return nil
}
