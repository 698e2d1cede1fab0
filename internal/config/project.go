package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rshade/planfocus/internal/logging"
)

// EnvProjectDir points at a project directory, overriding discovery.
const EnvProjectDir = "PLANFOCUS_PROJECT_DIR"

// ResolveProjectDir determines the project-local .planfocus directory path.
// It checks (in order):
//  1. flagValue
//  2. PLANFOCUS_PROJECT_DIR env var
//  3. the nearest ancestor of startDir holding .planfocus/config.yaml
//
// Returns the absolute path to the .planfocus directory, or "" if none is found.
// The global home directory is never treated as a project.
func ResolveProjectDir(ctx context.Context, flagValue, startDir string) string {
	if flagValue != "" {
		return toAbsProjectDir(ctx, flagValue)
	}
	if envDir := os.Getenv(EnvProjectDir); envDir != "" {
		return toAbsProjectDir(ctx, envDir)
	}

	home, _ := HomeDir()
	dir := toAbsProjectDir(ctx, startDir)
	for {
		if dir != home {
			if _, err := os.Stat(filepath.Join(dir, configFileName)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(filepath.Dir(dir))
		if parent == filepath.Dir(dir) {
			return ""
		}
		dir = filepath.Join(parent, dirName)
	}
}

// Load builds the effective config: defaults, then the global file at path (or
// DefaultPath when empty), then projectDir's config.yaml as a shallow overlay, then
// environment overrides. A broken project overlay is logged and skipped.
func Load(ctx context.Context, path, projectDir string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if projectDir != "" {
		overlayPath := filepath.Join(projectDir, configFileName)
		if _, statErr := os.Stat(overlayPath); statErr == nil {
			merged := *cfg
			if mergeErr := ShallowMergeYAML(&merged, overlayPath); mergeErr != nil {
				logging.FromContext(ctx).Warn().
					Str("component", "config").
					Str("operation", "merge_project_config").
					Err(mergeErr).
					Str("overlay_path", overlayPath).
					Msg("failed to merge project config, using global settings")
			} else {
				cfg = &merged
			}
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// toAbsProjectDir converts dir to an absolute path and appends ".planfocus".
// If the path already ends with ".planfocus", it is returned as-is (after
// resolving to an absolute path) to prevent double-append.
func toAbsProjectDir(ctx context.Context, dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		logging.FromContext(ctx).Warn().
			Str("component", "config").
			Err(err).
			Str("dir", dir).
			Msg("failed to resolve absolute path for project directory")
		abs = dir
	}

	if filepath.Base(abs) == dirName {
		return abs
	}
	return filepath.Join(abs, dirName)
}
