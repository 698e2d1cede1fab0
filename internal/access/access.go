// Package access evaluates role-based permissions for the acting user.
package access

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role is a user's role in the project.
type Role string

// Known roles.
const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// Permission names an action gated by role.
type Permission string

// Known permissions.
const (
	CreateTask     Permission = "create_task"
	EditTask       Permission = "edit_task"
	DeleteTask     Permission = "delete_task"
	AssignTask     Permission = "assign_task"
	CreateBudget   Permission = "create_budget"
	ApproveBudget  Permission = "approve_budget"
	EditBudget     Permission = "edit_budget"
	DeleteBudget   Permission = "delete_budget"
	SendMessage    Permission = "send_message"
	DeleteMessage  Permission = "delete_message"
	ManageUsers    Permission = "manage_users"
	ViewReports    Permission = "view_reports"
	ManageSettings Permission = "manage_settings"
)

// ErrNoActor is returned when a session has no actor identity.
var ErrNoActor = errors.New("session has no actor")

// ParseRole parses a role name case-insensitively. Unknown names map to RoleMember.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	default:
		return RoleMember
	}
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleMember
}

// Has reports whether role r grants permission p.
func (r Role) Has(p Permission) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleManager:
		return p != ManageUsers && p != ManageSettings
	case RoleMember:
		switch p {
		case CreateTask, EditTask, CreateBudget, SendMessage:
			return true
		default:
			return false
		}
	default:
		return false
	}
}

// CanManageTasks reports whether r may both create and edit tasks.
func (r Role) CanManageTasks() bool { return r.Has(CreateTask) && r.Has(EditTask) }

// CanApproveBudget reports whether r may approve budgets.
func (r Role) CanApproveBudget() bool { return r.Has(ApproveBudget) }

// CanDeleteTasks reports whether r may delete any task.
func (r Role) CanDeleteTasks() bool { return r.Has(DeleteTask) }

// CanManageUsers reports whether r may manage users.
func (r Role) CanManageUsers() bool { return r.Has(ManageUsers) }

// CanViewReports reports whether r may view reports.
func (r Role) CanViewReports() bool { return r.Has(ViewReports) }

// PermissionError is returned when a role lacks a permission.
type PermissionError struct {
	Role       Role
	Permission Permission
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("role %q lacks permission %q", e.Role, e.Permission)
}

// Session identifies the acting user. It is passed explicitly to every service.
type Session struct {
	ID        string `json:"id"         yaml:"id"`
	ActorID   string `json:"actor_id"   yaml:"actor_id"`
	ActorName string `json:"actor_name" yaml:"actor_name"`
	Role      Role   `json:"role"       yaml:"role"`
}

// NewSession creates a session with a fresh ID.
func NewSession(actorID, actorName string, role Role) Session {
	return Session{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		ActorName: actorName,
		Role:      role,
	}
}

// Can reports whether the session's role grants p.
func (s Session) Can(p Permission) bool {
	return s.Role.Has(p)
}

// Require returns a *PermissionError when the session lacks p.
func (s Session) Require(p Permission) error {
	if s.Role.Has(p) {
		return nil
	}
	return &PermissionError{Role: s.Role, Permission: p}
}

// Validate checks that the session names an actor.
func (s Session) Validate() error {
	if strings.TrimSpace(s.ActorID) == "" {
		return ErrNoActor
	}
	return nil
}

// IsActor reports whether userID is the session's actor.
func (s Session) IsActor(userID string) bool {
	return userID != "" && userID == s.ActorID
}
