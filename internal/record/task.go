package record

import (
	"errors"
	"fmt"
	"time"
)

// Task field names.
const (
	TaskTitle            = "title"
	TaskDescription      = "description"
	TaskAssignedToUserID = "assignedToUserId"
	TaskAssignedToName   = "assignedToName"
	TaskAssignerUserID   = "assignerUserId"
	TaskAssignerName     = "assignerName"
	TaskStatus           = "status"
	TaskPriority         = "priority"
	TaskDueDate          = "dueDate"
	TaskAttachmentURL    = "attachmentUrl"
	TaskAttachmentName   = "attachmentName"
)

// Task statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ErrInvalidTask is returned by Task.Validate.
var ErrInvalidTask = errors.New("invalid task")

// Task is a unit of work assigned from one user to another.
type Task struct {
	ID               string    `json:"id"                         yaml:"id,omitempty"`
	Title            string    `json:"title"                      yaml:"title"`
	Description      string    `json:"description,omitempty"      yaml:"description,omitempty"`
	AssignedToUserID string    `json:"assignedToUserId,omitempty" yaml:"assigned_to_user_id,omitempty"`
	AssignedToName   string    `json:"assignedToName,omitempty"   yaml:"assigned_to_name,omitempty"`
	AssignerUserID   string    `json:"assignerUserId,omitempty"   yaml:"assigner_user_id,omitempty"`
	AssignerName     string    `json:"assignerName,omitempty"     yaml:"assigner_name,omitempty"`
	Status           string    `json:"status"                     yaml:"status,omitempty"`
	Priority         string    `json:"priority"                   yaml:"priority,omitempty"`
	DueDate          time.Time `json:"dueDate,omitzero"           yaml:"due_date,omitempty"`
	CreatedAt        time.Time `json:"createdAt,omitzero"         yaml:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt,omitzero"         yaml:"updated_at,omitempty"`
	AttachmentURL    string    `json:"attachmentUrl,omitempty"    yaml:"attachment_url,omitempty"`
	AttachmentName   string    `json:"attachmentName,omitempty"   yaml:"attachment_name,omitempty"`
}

// RecordID implements Keyed.
func (t Task) RecordID() string {
	return t.ID
}

// WithDefaults fills status and priority when unset.
func (t Task) WithDefaults() Task {
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return t
}

// Validate checks the title, status and priority.
func (t Task) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if t.Status != "" && !IsValidStatus(t.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTask, t.Status)
	}
	if t.Priority != "" && !IsValidPriority(t.Priority) {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, t.Priority)
	}
	return nil
}

// IsCompleted reports whether the task is done.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// IsValidStatus reports whether s is a known task status.
func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsValidPriority reports whether p is a known task priority.
func IsValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// ToRecord converts the task into a store document. Empty optional fields are omitted.
func (t Task) ToRecord() Record {
	r := Record{
		TaskTitle:    t.Title,
		TaskStatus:   t.Status,
		TaskPriority: t.Priority,
	}
	if t.ID != "" {
		r[FieldID] = t.ID
	}
	putString(r, TaskDescription, t.Description)
	putString(r, TaskAssignedToUserID, t.AssignedToUserID)
	putString(r, TaskAssignedToName, t.AssignedToName)
	putString(r, TaskAssignerUserID, t.AssignerUserID)
	putString(r, TaskAssignerName, t.AssignerName)
	putString(r, TaskAttachmentURL, t.AttachmentURL)
	putString(r, TaskAttachmentName, t.AttachmentName)
	putTime(r, TaskDueDate, t.DueDate)
	putTime(r, FieldCreatedAt, t.CreatedAt)
	putTime(r, FieldUpdatedAt, t.UpdatedAt)
	return r
}

// TaskFromRecord builds a Task from a store document, applying defaults for
// missing status and priority.
func TaskFromRecord(r Record) Task {
	t := Task{ID: r.ID()}
	t.Title, _ = r.String(TaskTitle)
	t.Description, _ = r.String(TaskDescription)
	t.AssignedToUserID, _ = r.String(TaskAssignedToUserID)
	t.AssignedToName, _ = r.String(TaskAssignedToName)
	t.AssignerUserID, _ = r.String(TaskAssignerUserID)
	t.AssignerName, _ = r.String(TaskAssignerName)
	t.Status, _ = r.String(TaskStatus)
	t.Priority, _ = r.String(TaskPriority)
	t.AttachmentURL, _ = r.String(TaskAttachmentURL)
	t.AttachmentName, _ = r.String(TaskAttachmentName)
	t.DueDate, _ = r.Time(TaskDueDate)
	t.CreatedAt, _ = r.CreatedAt()
	t.UpdatedAt, _ = r.Time(FieldUpdatedAt)
	return t.WithDefaults()
}

func putString(r Record, field, value string) {
	if value != "" {
		r[field] = value
	}
}

func putTime(r Record, field string, value time.Time) {
	if !value.IsZero() {
		r[field] = value
	}
}
