package cli_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/planfocus/internal/access"
	"github.com/rshade/planfocus/internal/cli"
	"github.com/rshade/planfocus/internal/config"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/store"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: cli.ExitOK},
		{name: "generic", err: errors.New("boom"), want: cli.ExitFailure},
		{name: "permission", err: &access.PermissionError{Role: access.RoleMember, Permission: access.ApproveBudget}, want: cli.ExitPermission},
		{name: "no actor", err: fmt.Errorf("%w: set --actor", access.ErrNoActor), want: cli.ExitPermission},
		{name: "not found", err: fmt.Errorf("loading task: %w", store.ErrNotFound), want: cli.ExitNotFound},
		{name: "invalid task", err: record.ErrInvalidTask, want: cli.ExitInvalid},
		{name: "invalid message", err: fmt.Errorf("%w: content or an attachment is required", record.ErrInvalidMessage), want: cli.ExitInvalid},
		{name: "invalid config", err: config.ErrInvalidConfig, want: cli.ExitInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cli.ExitCode(tt.err))
		})
	}
}
