package cli

import (
	"errors"

	"github.com/rshade/planfocus/internal/access"
	"github.com/rshade/planfocus/internal/config"
	"github.com/rshade/planfocus/internal/pagination"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/remote"
	"github.com/rshade/planfocus/internal/seed"
	"github.com/rshade/planfocus/internal/store"
	"github.com/rshade/planfocus/internal/tasks"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitInvalid    = 2
	ExitPermission = 3
	ExitNotFound   = 4
)

// ExitCode maps an error returned by the root command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var permErr *access.PermissionError
	switch {
	case errors.As(err, &permErr),
		errors.Is(err, access.ErrNoActor),
		errors.Is(err, tasks.ErrNotAllowed),
		errors.Is(err, remote.ErrUnauthorized):
		return ExitPermission
	case errors.Is(err, store.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, record.ErrInvalidTask),
		errors.Is(err, record.ErrInvalidBudget),
		errors.Is(err, record.ErrInvalidMessage),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, seed.ErrInvalidSeed),
		errors.Is(err, pagination.ErrInvalidPageSize),
		errors.Is(err, pagination.ErrInvalidPages),
		errors.Is(err, pagination.ErrInvalidSortField),
		errors.Is(err, pagination.ErrInvalidSortOrder),
		errors.Is(err, pagination.ErrInvalidSortFormat):
		return ExitInvalid
	default:
		return ExitFailure
	}
}
