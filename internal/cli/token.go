package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/planfocus/internal/remote"
)

func newTokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the acting user",
		Long: `Signs a token for --actor, --actor-name and --role with server.jwt_secret.
Remote clients set it as store.token.`,
		Example: `  planfocus token --actor u2 --actor-name Binh --role member --ttl 72h`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			if rt.cfg.Server.JWTSecret == "" {
				return errors.New("server.jwt_secret is not set (or PLANFOCUS_JWT_SECRET)")
			}
			session, err := rt.session()
			if err != nil {
				return err
			}
			token, err := remote.IssueToken([]byte(rt.cfg.Server.JWTSecret), session, ttl)
			if err != nil {
				return err
			}
			logger.Debug().Ctx(cmd.Context()).
				Str("actor_id", session.ActorID).
				Str("role", string(session.Role)).
				Dur("ttl", ttl).
				Msg("token issued")
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", remote.DefaultTokenTTL, "token lifetime")
	return cmd
}
