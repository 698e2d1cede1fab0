package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const gitignoreHeader = "# planfocus project-local data (auto-generated)\n# Config is tracked; local store data is not.\n"

// storeSidecars lists the files each backend writes next to its store path.
var storeSidecars = map[string][]string{
	BackendFile:   {"", ".lock", ".tmp"},
	BackendSQLite: {"", "-journal", "-wal", "-shm"},
}

// GitignorePatterns returns the ignore patterns for a project directory whose
// store is configured by sc. Store paths inside dir are anchored relative to it;
// paths elsewhere are matched by base name. Log files are always ignored.
func GitignorePatterns(dir string, sc StoreConfig) []string {
	var patterns []string
	if suffixes, ok := storeSidecars[sc.Backend]; ok {
		base := storePattern(dir, sc)
		for _, suffix := range suffixes {
			patterns = append(patterns, base+suffix)
		}
	}
	return append(patterns, "*.log")
}

func storePattern(dir string, sc StoreConfig) string {
	path := sc.Path
	if path == "" {
		if sc.Backend == BackendSQLite {
			return sqliteFileName
		}
		return storeFileName
	}
	// Relative store paths are opened from the working directory.
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.Base(path)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Base(path)
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(path)
	}
	return "/" + filepath.ToSlash(rel)
}

// GitignoreContent renders the .gitignore written by EnsureGitignore.
func GitignoreContent(dir string, sc StoreConfig) string {
	return gitignoreHeader + strings.Join(GitignorePatterns(dir, sc), "\n") + "\n"
}

// EnsureGitignore writes dir/.gitignore for the store configured by sc unless
// one exists. It reports whether a file was created and never overwrites.
func EnsureGitignore(dir string, sc StoreConfig) (bool, error) {
	path := filepath.Join(dir, ".gitignore")

	switch _, err := os.Stat(path); {
	case err == nil:
		return false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("checking .gitignore at %s: %w", path, err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return false, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	//nolint:gosec // .gitignore must be world-readable (0644).
	if err := os.WriteFile(path, []byte(GitignoreContent(dir, sc)), 0o644); err != nil {
		return false, fmt.Errorf("writing .gitignore at %s: %w", path, err)
	}
	return true, nil
}
