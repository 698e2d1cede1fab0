package record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAccessors(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := Record{
		FieldID:        "t1",
		FieldCreatedAt: created,
		"amount":       42,
		"approved":     true,
		"title":        "Buy servers",
		"nothing":      nil,
	}

	assert.Equal(t, "t1", r.ID())
	assert.Equal(t, "t1", r.RecordID())

	got, ok := r.CreatedAt()
	require.True(t, ok)
	assert.True(t, created.Equal(got))

	amount, ok := r.Float("amount")
	require.True(t, ok)
	assert.InDelta(t, 42.0, amount, 0.0001)

	approved, ok := r.Bool("approved")
	require.True(t, ok)
	assert.True(t, approved)

	_, ok = r.Float("title")
	assert.False(t, ok)
	_, ok = r.Time("missing")
	assert.False(t, ok)

	assert.True(t, r.Has("title"))
	assert.False(t, r.Has("nothing"))
	assert.False(t, r.Has("missing"))
}

func TestRecordTimeFromJSON(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 123, time.UTC)
	r := Record{FieldID: "a", FieldCreatedAt: created, "amount": 10.5}

	data, err := json.Marshal(r.Normalize())
	require.NoError(t, err)

	var decoded Record
	require.NoError(t, json.Unmarshal(data, &decoded))

	got, ok := decoded.CreatedAt()
	require.True(t, ok)
	assert.True(t, created.Equal(got))

	amount, ok := decoded.Float("amount")
	require.True(t, ok)
	assert.InDelta(t, 10.5, amount, 0.0001)
}

func TestRecordZeroTimeIsAbsent(t *testing.T) {
	r := Record{FieldCreatedAt: time.Time{}}
	_, ok := r.CreatedAt()
	assert.False(t, ok)

	normalized := r.Normalize()
	assert.NotContains(t, normalized, FieldCreatedAt)
}

func TestRecordMerge(t *testing.T) {
	base := Record{FieldID: "x", "status": "pending", "priority": "high"}
	merged := base.Merge(Record{"status": "completed", "priority": nil})

	assert.Equal(t, "completed", merged["status"])
	assert.NotContains(t, merged, "priority")
	assert.Equal(t, "pending", base["status"], "merge must not mutate the receiver")
}

func TestTaskRecordConversion(t *testing.T) {
	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	task := Task{
		ID:               "t-1",
		Title:            "Write report",
		AssignedToUserID: "u2",
		AssignedToName:   "Lan",
		AssignerUserID:   "u1",
		Priority:         PriorityHigh,
		DueDate:          due,
	}.WithDefaults()

	r := task.ToRecord()
	assert.Equal(t, "t-1", r.ID())
	assert.Equal(t, StatusPending, r[TaskStatus])
	assert.NotContains(t, r, TaskDescription)

	back := TaskFromRecord(r)
	assert.Equal(t, task, back)
}

func TestTaskFromRecordDefaults(t *testing.T) {
	task := TaskFromRecord(Record{FieldID: "t", TaskTitle: "x"})
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)
}

func TestTaskValidate(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
	}{
		{name: "valid", task: Task{Title: "a", Status: StatusInProgress, Priority: PriorityLow}},
		{name: "defaults empty", task: Task{Title: "a"}},
		{name: "missing title", task: Task{}, wantErr: true},
		{name: "bad status", task: Task{Title: "a", Status: "done"}, wantErr: true},
		{name: "bad priority", task: Task{Title: "a", Priority: "urgent"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTask)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBudgetRecordConversion(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	b := Budget{
		ID:        "b-1",
		Title:     "Team offsite",
		Amount:    1250.75,
		Category:  "travel",
		UserID:    "u1",
		CreatedAt: created,
	}

	back := BudgetFromRecord(b.ToRecord())
	assert.Equal(t, b, back)
	assert.False(t, back.Approved)
}

func TestBudgetValidate(t *testing.T) {
	assert.NoError(t, Budget{Title: "a", Amount: 0}.Validate())
	assert.ErrorIs(t, Budget{Amount: 1}.Validate(), ErrInvalidBudget)
	assert.ErrorIs(t, Budget{Title: "a", Amount: -1}.Validate(), ErrInvalidBudget)
}

func TestIDs(t *testing.T) {
	recs := []Record{{FieldID: "a"}, {FieldID: "b"}}
	assert.Equal(t, []string{"a", "b"}, IDs(recs))
}

func TestMessageRecordConversion(t *testing.T) {
	at := time.Date(2025, 4, 2, 8, 30, 0, 0, time.UTC)
	m := Message{
		ID:         "m1",
		Content:    "standup moved to 10",
		SenderID:   "u1",
		SenderName: "Ana",
		Timestamp:  at,
		Attachment: &Attachment{URL: "https://files.example/agenda.png", Name: "agenda.png", Type: "image/png", Size: 2048},
	}

	// Round-trip through JSON the way the file and HTTP backends do.
	data, err := json.Marshal(m.ToRecord())
	require.NoError(t, err)
	var r Record
	require.NoError(t, json.Unmarshal(data, &r))

	got := MessageFromRecord(r)
	assert.Equal(t, m, got)
	assert.True(t, got.Attachment.IsImage())

	plain := MessageFromRecord(Message{Content: "hi", SenderID: "u2"}.ToRecord())
	assert.Nil(t, plain.Attachment)
	assert.NotContains(t, Message{Content: "hi", SenderID: "u2"}.ToRecord(), MessageAttachmentURL)
}

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{name: "text", msg: Message{Content: "hello", SenderID: "u1"}},
		{name: "attachment only", msg: Message{SenderID: "u1", Attachment: &Attachment{URL: "https://x/y.pdf"}}},
		{name: "blank content", msg: Message{Content: "  ", SenderID: "u1"}, wantErr: true},
		{name: "no sender", msg: Message{Content: "hello"}, wantErr: true},
		{name: "attachment without url", msg: Message{SenderID: "u1", Attachment: &Attachment{Name: "x"}}, wantErr: true},
		{name: "negative size", msg: Message{SenderID: "u1", Attachment: &Attachment{URL: "u", Size: -1}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidMessage)
				return
			}
			require.NoError(t, err)
		})
	}
}
