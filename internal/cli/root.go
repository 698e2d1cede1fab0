package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/planfocus/internal/access"
	"github.com/rshade/planfocus/internal/budgets"
	"github.com/rshade/planfocus/internal/config"
	"github.com/rshade/planfocus/internal/logging"
	"github.com/rshade/planfocus/internal/messages"
	"github.com/rshade/planfocus/internal/store"
	"github.com/rshade/planfocus/internal/tasks"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	debug      bool
	configPath string
	projectDir string
	backend    string
	actorID    string
	actorName  string
	role       string
	clientSort bool
}

type runtimeKey struct{}

// annotationLenientConfig marks commands that run even when the config does not load
// or validate.
const annotationLenientConfig = "planfocus/lenient-config"

// runtime is the resolved configuration of one command invocation.
type runtime struct {
	cfg        *config.Config
	configPath string
	projectDir string
	// loadErr is set only for lenient commands, which then see the defaults.
	loadErr error
}

func withRuntime(ctx context.Context, rt *runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

func runtimeFrom(cmd *cobra.Command) (*runtime, error) {
	if rt, ok := cmd.Context().Value(runtimeKey{}).(*runtime); ok && rt != nil {
		return rt, nil
	}
	return nil, errors.New("configuration not loaded")
}

// session returns the acting session, which must name an actor.
func (rt *runtime) session() (access.Session, error) {
	s := rt.cfg.ToSession()
	if err := s.Validate(); err != nil {
		return access.Session{}, fmt.Errorf("%w: set --actor, session.actor_id or PLANFOCUS_ACTOR_ID", err)
	}
	return s, nil
}

// sessionStore resolves the acting session and opens the store for it. The
// returned close function releases the store.
func (rt *runtime) sessionStore(ctx context.Context) (access.Session, store.Store, func(), error) {
	session, err := rt.session()
	if err != nil {
		return access.Session{}, nil, nil, err
	}
	s, err := rt.openStore(ctx)
	if err != nil {
		return access.Session{}, nil, nil, err
	}
	closeStore := func() {
		if cerr := s.Close(); cerr != nil {
			logger.Warn().Ctx(ctx).Err(cerr).Msg("closing store")
		}
	}
	return session, s, closeStore, nil
}

// services builds the task and budget services for the acting session.
func (rt *runtime) services(ctx context.Context) (*tasks.Service, *budgets.Service, func(), error) {
	session, s, closeStore, err := rt.sessionStore(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	ts := tasks.NewService(s, session).WithClientSort(rt.cfg.Store.ClientSort)
	bs := budgets.NewService(s, session).WithClientSort(rt.cfg.Store.ClientSort)
	return ts, bs, closeStore, nil
}

// chat builds the message service for the acting session.
func (rt *runtime) chat(ctx context.Context) (*messages.Service, func(), error) {
	session, s, closeStore, err := rt.sessionStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return messages.NewService(s, session).WithClientSort(rt.cfg.Store.ClientSort), closeStore, nil
}

// openStore opens the configured store without a session.
func (rt *runtime) openStore(ctx context.Context) (store.Store, error) {
	s, err := config.OpenStore(ctx, rt.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}

// NewRootCmd creates the root Cobra command for the planfocus CLI.
func NewRootCmd(ver string) *cobra.Command {
	var (
		flags     globalFlags
		logResult *logging.LogPathResult
	)

	cmd := &cobra.Command{
		Use:           "planfocus",
		Short:         "Team tasks, budgets and chat from the terminal",
		Long:          "planfocus: manage a team's tasks, budgets and chat in paged, sortable lists backed by a local or remote store",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			result := setupLogging(cmd, rt.cfg, flags.debug)
			logResult = &result
			cmd.SetContext(withRuntime(cmd.Context(), rt))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&flags.debug, "debug", false, "enable debug logging")
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.planfocus/config.yaml)")
	pf.StringVar(&flags.projectDir, "project-dir", "", "project directory holding .planfocus/config.yaml")
	pf.StringVar(&flags.backend, "backend", "", "store backend: memory, file, sqlite, postgres, remote")
	pf.StringVar(&flags.actorID, "actor", "", "acting user ID")
	pf.StringVar(&flags.actorName, "actor-name", "", "acting user display name")
	pf.StringVar(&flags.role, "role", "", "acting role: admin, manager, member")
	pf.BoolVar(&flags.clientSort, "client-sort", false, "sort lists in memory instead of in the store")

	cmd.AddCommand(
		newTaskCmd(), newBudgetCmd(), newChatCmd(), newBrowseCmd(),
		newServeCmd(), newTokenCmd(), newImportCmd(), newConfigCmd(),
	)
	return cmd
}

// loadConfig layers the config files and environment, then the explicitly set flags.
func loadConfig(cmd *cobra.Command, flags globalFlags) (*runtime, error) {
	ctx := cmd.Context()
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	rt := &runtime{
		configPath: flags.configPath,
		projectDir: config.ResolveProjectDir(ctx, flags.projectDir, cwd),
	}
	if rt.configPath == "" {
		if rt.configPath, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	_, lenient := cmd.Annotations[annotationLenientConfig]

	cfg, err := config.Load(ctx, rt.configPath, rt.projectDir)
	if err != nil {
		if !lenient {
			return nil, err
		}
		rt.cfg, rt.loadErr = config.New(), err
		return rt, nil
	}

	changed := cmd.Flags().Changed
	if changed("backend") {
		cfg.Store.Backend = flags.backend
	}
	if changed("actor") {
		cfg.Session.ActorID = flags.actorID
	}
	if changed("actor-name") {
		cfg.Session.ActorName = flags.actorName
	}
	if changed("role") {
		cfg.Session.Role = flags.role
	}
	if changed("client-sort") {
		cfg.Store.ClientSort = flags.clientSort
	}
	rt.cfg = cfg

	if err := cfg.Validate(); err != nil {
		if !lenient {
			return nil, err
		}
		rt.cfg, rt.loadErr = config.New(), err
	}
	return rt, nil
}

const rootCmdExample = `  # Create a config file
  planfocus config init

  # Add a task and list yours, two pages of 20
  planfocus task add "Book venue" --assignee u2 --priority high
  planfocus task list --mine --page-size 20 --pages 2

  # Sort the loaded list by priority and emit JSON
  planfocus task list --sort priority:desc --output json

  # Browse budgets interactively
  planfocus browse budgets

  # Serve the local store to other machines
  planfocus serve --addr 0.0.0.0:8080`

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd(), NewConfigValidateCmd())
	return cmd
}
