package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rshade/planfocus/internal/config"
	"github.com/rshade/planfocus/internal/remote"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured store over HTTP",
		Long: `Exposes the configured store to remote planfocus clients. Requests must carry a
bearer token signed with server.jwt_secret (see planfocus token).`,
		Example: `  PLANFOCUS_JWT_SECRET=change-me planfocus serve --addr 0.0.0.0:8080`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			if rt.cfg.Server.JWTSecret == "" {
				return errors.New("server.jwt_secret is not set (or PLANFOCUS_JWT_SECRET)")
			}
			if rt.cfg.Store.Backend == config.BackendRemote {
				return errors.New("serve needs a local store backend, not remote")
			}
			if !cmd.Flags().Changed("addr") {
				addr = rt.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := rt.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.Close(); cerr != nil {
					logger.Warn().Ctx(ctx).Err(cerr).Msg("closing store")
				}
			}()

			return remote.NewServer(s, []byte(rt.cfg.Server.JWTSecret)).
				WithAllowedOrigins(rt.cfg.Server.AllowedOrigins).
				WithLogger(logger).
				Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
