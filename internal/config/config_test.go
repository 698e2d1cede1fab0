package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/planfocus/internal/access"
	"github.com/rshade/planfocus/internal/config"
	"github.com/rshade/planfocus/internal/logging"
	"github.com/rshade/planfocus/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestNew_Defaults(t *testing.T) {
	cfg := config.New()

	assert.Equal(t, config.BackendFile, cfg.Store.Backend)
	assert.True(t, cfg.Store.CompositeIndex)
	assert.False(t, cfg.Store.ClientSort)
	assert.Equal(t, 10, cfg.Paging.PageSize)
	assert.Equal(t, "member", cfg.Session.Role)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := config.LoadFile(path)
	require.NoError(t, err, "a missing file yields defaults")
	assert.Equal(t, config.New(), cfg)

	writeFile(t, path, `
store:
  backend: sqlite
  path: /tmp/x.db
paging:
  page_size: 25
session:
  actor_id: u1
  role: manager
`)
	cfg, err = config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, 25, cfg.Paging.PageSize)
	assert.Equal(t, "u1", cfg.Session.ActorID)
	assert.Equal(t, "info", cfg.Logging.Level, "sections absent from the file keep defaults")

	writeFile(t, path, "store: [unclosed")
	_, err = config.LoadFile(path)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestSaveAndString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.New()
	cfg.Store.Token = "tok"
	cfg.Server.JWTSecret = "shh"
	require.NoError(t, cfg.Save(path))

	loaded, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	out := cfg.String()
	assert.NotContains(t, out, "tok\n")
	assert.NotContains(t, out, "shh")
	assert.Contains(t, out, "********")
	assert.Equal(t, "tok", cfg.Store.Token, "String does not modify the config")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PLANFOCUS_STORE_BACKEND", "memory")
	t.Setenv("PLANFOCUS_PAGE_SIZE", "50")
	t.Setenv("PLANFOCUS_CLIENT_SORT", "true")
	t.Setenv("PLANFOCUS_ACTOR_ID", "env-user")
	t.Setenv("PLANFOCUS_ALLOWED_ORIGINS", "http://a, ,http://b")
	t.Setenv(logging.EnvLogLevel, "debug")

	cfg := config.New()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, config.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 50, cfg.Paging.PageSize)
	assert.True(t, cfg.Store.ClientSort)
	assert.Equal(t, "env-user", cfg.Session.ActorID)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PLANFOCUS_PAGE_SIZE", "ten"},
		{"PLANFOCUS_CLIENT_SORT", "sometimes"},
		{"PLANFOCUS_COMPOSITE_INDEX", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			require.ErrorIs(t, config.New().ApplyEnv(), config.ErrInvalidConfig)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"defaults", func(*config.Config) {}, false},
		{"unknown backend", func(c *config.Config) { c.Store.Backend = "redis" }, true},
		{"postgres without dsn", func(c *config.Config) { c.Store.Backend = config.BackendPostgres }, true},
		{"postgres with dsn", func(c *config.Config) {
			c.Store.Backend = config.BackendPostgres
			c.Store.DSN = "postgres://localhost/db"
		}, false},
		{"remote without url", func(c *config.Config) { c.Store.Backend = config.BackendRemote }, true},
		{"page size zero", func(c *config.Config) { c.Paging.PageSize = 0 }, true},
		{"page size too large", func(c *config.Config) { c.Paging.PageSize = 1001 }, true},
		{"page size max", func(c *config.Config) { c.Paging.PageSize = 1000 }, false},
		{"unknown role", func(c *config.Config) { c.Session.Role = "owner" }, true},
		{"unknown format", func(c *config.Config) { c.Logging.Format = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, config.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestToSession(t *testing.T) {
	cfg := config.New()
	cfg.Session = config.SessionConfig{ActorID: "u1", ActorName: "Ana", Role: "admin"}

	s := cfg.ToSession()
	assert.Equal(t, "u1", s.ActorID)
	assert.Equal(t, "Ana", s.ActorName)
	assert.Equal(t, access.RoleAdmin, s.Role)
	assert.NotEmpty(t, s.ID)
}

func TestToLoggingConfig(t *testing.T) {
	lc := config.LoggingConfig{Level: "warn", Format: "json"}
	got := lc.ToLoggingConfig(false)
	assert.Equal(t, logging.Config{Level: "warn", Format: "json", Output: logging.OutputStderr}, got)

	lc.File = "/tmp/planfocus.log"
	got = lc.ToLoggingConfig(true)
	assert.Equal(t, logging.OutputFile, got.Output)
	assert.Equal(t, "/tmp/planfocus.log", got.File)
	assert.Equal(t, "debug", got.Level)
	assert.Equal(t, logging.FormatConsole, got.Format)
	assert.True(t, got.Caller)
}

func TestShallowMergeYAML(t *testing.T) {
	target := config.New()
	target.Session = config.SessionConfig{ActorID: "global", ActorName: "Global", Role: "admin"}
	target.Paging.PageSize = 30

	overlay := filepath.Join(t.TempDir(), "overlay.yaml")
	writeFile(t, overlay, `
session:
  actor_id: project
unknown_section:
  foo: bar
`)
	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, config.SessionConfig{ActorID: "project"}, target.Session,
		"a present section replaces the whole section")
	assert.Equal(t, 30, target.Paging.PageSize, "absent sections are untouched")

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	writeFile(t, empty, "# only a comment\n")
	require.NoError(t, config.ShallowMergeYAML(target, empty))

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	writeFile(t, broken, "session: [")
	require.Error(t, config.ShallowMergeYAML(target, broken))

	require.Error(t, config.ShallowMergeYAML(target, filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, config.ShallowMergeYAML(nil, overlay))
}

func TestResolveProjectDir(t *testing.T) {
	ctx := context.Background()
	t.Setenv(config.EnvHome, filepath.Join(t.TempDir(), "home"))
	t.Setenv(config.EnvProjectDir, "")

	flagDir := t.TempDir()
	assert.Equal(t, filepath.Join(flagDir, ".planfocus"), config.ResolveProjectDir(ctx, flagDir, "/nowhere"))
	assert.Equal(t, filepath.Join(flagDir, ".planfocus"),
		config.ResolveProjectDir(ctx, filepath.Join(flagDir, ".planfocus"), "/nowhere"),
		"an explicit .planfocus path is not doubled")

	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".planfocus", "config.yaml"), "paging:\n  page_size: 5\n")
	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0o750))
	assert.Equal(t, filepath.Join(root, ".planfocus"), config.ResolveProjectDir(ctx, "", deep))

	assert.Empty(t, config.ResolveProjectDir(ctx, "", t.TempDir()))

	envDir := t.TempDir()
	t.Setenv(config.EnvProjectDir, envDir)
	assert.Equal(t, filepath.Join(envDir, ".planfocus"), config.ResolveProjectDir(ctx, "", deep))
}

func TestLoad_LayersGlobalProjectAndEnv(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	global := filepath.Join(base, "global.yaml")
	writeFile(t, global, `
store:
  backend: memory
paging:
  page_size: 20
session:
  actor_id: global
`)
	projectDir := filepath.Join(base, "proj", ".planfocus")
	writeFile(t, filepath.Join(projectDir, "config.yaml"), "paging:\n  page_size: 5\n")
	t.Setenv("PLANFOCUS_ACTOR_ID", "from-env")

	cfg, err := config.Load(ctx, global, projectDir)
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 5, cfg.Paging.PageSize)
	assert.Equal(t, "from-env", cfg.Session.ActorID)

	writeFile(t, filepath.Join(projectDir, "config.yaml"), "paging: [")
	cfg, err = config.Load(ctx, global, projectDir)
	require.NoError(t, err, "a broken overlay is skipped")
	assert.Equal(t, 20, cfg.Paging.PageSize)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	t.Setenv(config.EnvHome, dir)

	tests := []struct {
		name     string
		sc       config.StoreConfig
		compound bool
	}{
		{"memory", config.StoreConfig{Backend: config.BackendMemory, CompositeIndex: true}, true},
		{"memory without index", config.StoreConfig{Backend: config.BackendMemory}, false},
		{"file default path", config.StoreConfig{Backend: config.BackendFile}, false},
		{"sqlite", config.StoreConfig{Backend: config.BackendSQLite, Path: filepath.Join(dir, "t.db")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := config.OpenStore(ctx, tt.sc)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })

			assert.Equal(t, tt.compound, s.Capabilities().CompoundQueries)
			_, err = s.Create(ctx, store.CollectionTasks, map[string]any{"title": "t"})
			require.NoError(t, err)
		})
	}

	_, err := config.OpenStore(ctx, config.StoreConfig{Backend: "redis"})
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}
