package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/planfocus/internal/access"
	"github.com/rshade/planfocus/internal/budgets"
	"github.com/rshade/planfocus/internal/pagedlist"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/store"
	"github.com/rshade/planfocus/internal/tasks"
	"github.com/rshade/planfocus/internal/tui/detail"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// settle waits for in-flight fetches and applies every queued controller event.
func settle(t *testing.T, m *ListModel) {
	t.Helper()
	m.controller.Wait()
	for {
		select {
		case msg := <-m.events:
			m.Update(msg)
		default:
			return
		}
	}
}

func press(t *testing.T, m *ListModel, msgs ...tea.KeyMsg) {
	t.Helper()
	for _, msg := range msgs {
		m.Update(msg)
	}
	settle(t, m)
}

func seedTasks(t *testing.T, s store.Store, n int) {
	t.Helper()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	priorities := []string{record.PriorityLow, record.PriorityMedium, record.PriorityHigh}
	for i := range n {
		assignee := "u2"
		if i%5 == 0 {
			assignee = "u1"
		}
		_, err := s.Create(context.Background(), store.CollectionTasks, record.Record{
			"id":                        fmt.Sprintf("t%02d", i),
			record.TaskTitle:            fmt.Sprintf("Task %02d", i),
			record.TaskStatus:           record.StatusPending,
			record.TaskPriority:         priorities[i%3],
			record.TaskAssignedToUserID: assignee,
			record.FieldCreatedAt:       base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
}

func newTaskModel(t *testing.T, n int) (*ListModel, *tasks.Service) {
	t.Helper()
	s := store.NewMemoryStore()
	seedTasks(t, s, n)
	svc := tasks.NewService(s, access.NewSession("u1", "Ana", access.RoleManager))
	m := NewTaskList(context.Background(), svc, 10)
	m.Init()
	settle(t, m)
	t.Cleanup(func() { m.quit() })
	return m, svc
}

func TestListModel_Paging(t *testing.T) {
	m, _ := newTaskModel(t, 25)

	require.Len(t, m.Rows(), 10)
	assert.Equal(t, "t24", m.Rows()[0].ID(), "newest first")
	assert.True(t, m.State().HasMore)
	assert.Contains(t, m.View(), "m: load more")

	press(t, m, keyRunes("m"))
	assert.Len(t, m.Rows(), 20)

	press(t, m, tea.KeyMsg{Type: tea.KeyEnd})
	assert.Len(t, m.Rows(), 25, "reaching the bottom loads the next page")
	assert.False(t, m.State().HasMore)
	assert.Contains(t, m.View(), "End of list")

	press(t, m, keyRunes("m"))
	assert.Len(t, m.Rows(), 25, "no fetch past the last page")

	press(t, m, keyRunes("r"))
	assert.Len(t, m.Rows(), 10, "refresh reloads from the first page")
}

func TestListModel_FilterToggle(t *testing.T) {
	m, _ := newTaskModel(t, 25)

	press(t, m, keyRunes("f"))
	require.Len(t, m.Rows(), 5)
	for _, rec := range m.Rows() {
		got, _ := rec.String(record.TaskAssignedToUserID)
		assert.Equal(t, "u1", got)
	}
	assert.Contains(t, m.View(), "scope: mine")

	press(t, m, keyRunes("f"))
	assert.Len(t, m.Rows(), 10)
	assert.Contains(t, m.View(), "scope: all")
}

func TestListModel_DisplaySort(t *testing.T) {
	m, _ := newTaskModel(t, 6)
	arrival := record.IDs(m.State().Items)

	press(t, m, keyRunes("s"))
	assert.Contains(t, m.View(), "sort: priority")

	rows := m.Rows()
	require.Len(t, rows, 6)
	for i, want := range []string{"t05", "t02", "t04", "t01", "t03", "t00"} {
		assert.Equal(t, want, rows[i].ID(), "row %d", i)
	}
	assert.Equal(t, arrival, record.IDs(m.State().Items), "the controller's order is untouched")

	press(t, m, keyRunes("s"), keyRunes("s"), keyRunes("s"))
	assert.Equal(t, arrival, record.IDs(m.Rows()), "the cycle wraps to arrival order")
}

func TestListModel_Search(t *testing.T) {
	m, _ := newTaskModel(t, 12)

	press(t, m, keyRunes("/"), keyRunes("task 1"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"t11", "t10"}, record.IDs(m.Rows()))
	assert.Contains(t, m.View(), `search: "task 1"`)

	press(t, m, keyRunes("/"), keyRunes("zzz"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, m.Rows())
	assert.Contains(t, m.View(), "No items match the search.")

	press(t, m, keyRunes("/"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.Rows(), "esc keeps the previous query")
}

func TestListModel_ErrorNotice(t *testing.T) {
	calls := 0
	fetcher := pagedlist.FetcherFunc[record.Record](func(_ context.Context, cursor pagedlist.Cursor, size int) (pagedlist.Page[record.Record], error) {
		calls++
		if !cursor.IsZero() {
			return pagedlist.Page[record.Record]{}, errors.New("backend unavailable")
		}
		recs := make([]record.Record, size)
		for i := range recs {
			recs[i] = record.Record{"id": fmt.Sprintf("r%d", i), "title": "x"}
		}
		return pagedlist.Page[record.Record]{Records: recs, Next: "next"}, nil
	})
	m := NewListModel(context.Background(), "Items", pagedlist.New[record.Record](fetcher).WithPageSize(2), RenderTask)
	m.Init()
	settle(t, m)
	t.Cleanup(func() { m.quit() })

	press(t, m, keyRunes("m"))
	assert.Contains(t, m.View(), "backend unavailable")
	assert.Len(t, m.Rows(), 2, "items survive a failed fetch")
	assert.True(t, m.State().CanLoadMore())

	press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.NotContains(t, m.View(), "backend unavailable", "the notice clears on the next key")
	assert.Equal(t, 2, calls)
}

func TestListModel_Detail(t *testing.T) {
	m, svc := newTaskModel(t, 3)
	_, err := svc.Update(context.Background(), record.Task{ID: "t02", Title: "Renamed", Description: "fresh"})
	require.NoError(t, err)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, detail.StateLoaded, m.detail.State())
	assert.Contains(t, m.View(), "Renamed", "details are loaded fresh")
	assert.Contains(t, m.View(), "fresh")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.detail)
	assert.Contains(t, m.View(), "Tasks")
}

func TestListModel_Quit(t *testing.T) {
	m, _ := newTaskModel(t, 3)
	wait := m.waitForEvent()

	_, cmd := m.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Nil(t, wait(), "pending event reads end on quit")
	assert.Empty(t, m.View())

	assert.False(t, m.controller.LoadFirstPage(context.Background()), "the controller is disposed")
}

func TestBudgetList(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	admin := access.NewSession("u1", "Ana", access.RoleAdmin)
	svc := budgets.NewService(s, admin)
	for _, b := range []record.Budget{
		{Title: "Venue", Amount: 1500, Category: "events"},
		{Title: "Snacks", Amount: 42.5},
	} {
		_, err := svc.Create(ctx, b)
		require.NoError(t, err)
	}

	m := NewBudgetList(ctx, svc, "u1", 10)
	m.Init()
	settle(t, m)
	t.Cleanup(func() { m.quit() })

	require.Len(t, m.Rows(), 2)
	assert.Contains(t, m.View(), "1,500.00")

	press(t, m, keyRunes("s"), keyRunes("s"))
	assert.Contains(t, m.View(), "sort: amount-desc")
	assert.Equal(t, "Venue", record.BudgetFromRecord(m.Rows()[0]).Title)

	press(t, m, keyRunes("/"), keyRunes("event"), tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.Rows(), 1)
}

func TestRenderTask(t *testing.T) {
	rec := record.Task{
		Title:    "A very long task title that will certainly be truncated",
		Status:   record.StatusInProgress,
		Priority: record.PriorityHigh,
		DueDate:  time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
	}.ToRecord()

	row := RenderTask(rec, false)
	assert.Contains(t, row, "...")
	assert.Contains(t, row, "2026-04-02")
	assert.Contains(t, RenderTask(rec, true), "in_progress")
}
