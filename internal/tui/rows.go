package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/planfocus/internal/budgets"
	"github.com/rshade/planfocus/internal/logging"
	"github.com/rshade/planfocus/internal/pagedlist"
	"github.com/rshade/planfocus/internal/pagination"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/tasks"
	"github.com/rshade/planfocus/internal/tui/detail"
)

// Column widths.
const (
	colTitle    = 36
	colStatus   = 12
	colPriority = 8
	colAssignee = 16
	colDue      = 10
	colAmount   = 14
	colCategory = 14

	dateLayout = "2006-01-02"
)

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}

func pad(s string, width int) string {
	return fmt.Sprintf("%-*s", width, truncate(s, width))
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case record.StatusInProgress:
		return InProgressStyle
	case record.StatusCompleted:
		return CompletedStyle
	default:
		return PendingStyle
	}
}

func priorityStyle(priority string) lipgloss.Style {
	switch priority {
	case record.PriorityHigh:
		return HighStyle
	case record.PriorityLow:
		return LowStyle
	default:
		return lipgloss.NewStyle()
	}
}

// RenderTask renders a task row.
func RenderTask(rec record.Record, selected bool) string {
	t := record.TaskFromRecord(rec)
	due := ""
	if !t.DueDate.IsZero() {
		due = t.DueDate.Format(dateLayout)
	}

	if selected {
		return SelectedStyle.Render(strings.Join([]string{
			pad(t.Title, colTitle), pad(t.Status, colStatus), pad(t.Priority, colPriority),
			pad(t.AssignedToName, colAssignee), pad(due, colDue),
		}, " "))
	}
	return strings.Join([]string{
		pad(t.Title, colTitle),
		statusStyle(t.Status).Render(pad(t.Status, colStatus)),
		priorityStyle(t.Priority).Render(pad(t.Priority, colPriority)),
		pad(t.AssignedToName, colAssignee),
		SubtleStyle.Render(pad(due, colDue)),
	}, " ")
}

// RenderBudget renders a budget row.
func RenderBudget(rec record.Record, selected bool) string {
	b := record.BudgetFromRecord(rec)
	status := "pending"
	style := PendingStyle
	if b.Approved {
		status = "approved"
		style = CompletedStyle
	}
	amount := fmt.Sprintf("%*s", colAmount, budgets.FormatAmount(b.Amount))

	if selected {
		return SelectedStyle.Render(strings.Join([]string{
			pad(b.Title, colTitle), amount, pad(status, colStatus), pad(b.Category, colCategory),
		}, " "))
	}
	return strings.Join([]string{
		pad(b.Title, colTitle),
		ValueStyle.Render(amount),
		style.Render(pad(status, colStatus)),
		SubtleStyle.Render(pad(b.Category, colCategory)),
	}, " ")
}

// TaskSortModes are the display orders for task lists.
func TaskSortModes() []SortMode {
	sorter := pagination.NewTaskSorter()
	modes := []SortMode{{Name: "newest"}}
	for _, m := range []struct{ name, field, order string }{
		{"priority", tasks.SortByPriority, pagination.SortOrderDesc},
		{"status", tasks.SortByStatus, pagination.SortOrderAsc},
		{"due date", tasks.SortByDueDate, pagination.SortOrderAsc},
	} {
		cmp, err := sorter.Comparator(m.field, m.order)
		if err != nil {
			continue
		}
		modes = append(modes, SortMode{Name: m.name, Compare: cmp})
	}
	return modes
}

// BudgetSortModes are the display orders for budget lists.
func BudgetSortModes() []SortMode {
	modes := make([]SortMode, 0, len(budgets.SortOptions()))
	for _, o := range budgets.SortOptions() {
		modes = append(modes, SortMode{Name: string(o), Compare: o.Compare()})
	}
	return modes
}

// MatchTask matches title, description or assignee.
func MatchTask(rec record.Record, query string) bool {
	return tasks.FilterCriteria{Search: query}.Matches(rec)
}

// MatchBudget matches title, description or category.
func MatchBudget(rec record.Record, query string) bool {
	q := strings.ToLower(query)
	for _, field := range []string{record.BudgetTitle, record.BudgetDescription, record.BudgetCategory} {
		if v, ok := rec.String(field); ok && strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// TaskDetail loads a task fresh from the service.
func TaskDetail(svc *tasks.Service) DetailFunc {
	return func(rec record.Record) detail.Loader {
		return func(ctx context.Context) ([]detail.Field, error) {
			t, err := svc.Get(ctx, rec.ID())
			if err != nil {
				return nil, err
			}
			due := "-"
			if !t.DueDate.IsZero() {
				due = t.DueDate.Format(dateLayout)
			}
			return []detail.Field{
				{Label: "Title", Value: t.Title},
				{Label: "Description", Value: orDash(t.Description)},
				{Label: "Status", Value: t.Status},
				{Label: "Priority", Value: t.Priority},
				{Label: "Assigned to", Value: orDash(t.AssignedToName)},
				{Label: "Assigned by", Value: orDash(t.AssignerName)},
				{Label: "Due", Value: due},
				{Label: "Attachment", Value: orDash(t.AttachmentName)},
				{Label: "Created", Value: formatTime(t.CreatedAt)},
				{Label: "Updated", Value: formatTime(t.UpdatedAt)},
				{Label: "ID", Value: t.ID},
			}, nil
		}
	}
}

// BudgetDetail loads a budget fresh from the service.
func BudgetDetail(svc *budgets.Service) DetailFunc {
	return func(rec record.Record) detail.Loader {
		return func(ctx context.Context) ([]detail.Field, error) {
			b, err := svc.Get(ctx, rec.ID())
			if err != nil {
				return nil, err
			}
			approved := "no"
			if b.Approved {
				approved = "yes"
			}
			return []detail.Field{
				{Label: "Title", Value: b.Title},
				{Label: "Amount", Value: budgets.FormatAmount(b.Amount)},
				{Label: "Category", Value: orDash(b.Category)},
				{Label: "Description", Value: orDash(b.Description)},
				{Label: "Approved", Value: approved},
				{Label: "Owner", Value: orDash(b.UserID)},
				{Label: "Created", Value: formatTime(b.CreatedAt)},
				{Label: "ID", Value: b.ID},
			}, nil
		}
	}
}

// NewTaskList builds the task browser: all tasks, toggling to the actor's own.
func NewTaskList(ctx context.Context, svc *tasks.Service, pageSize int) *ListModel {
	all := svc.AllFetcher()
	c := pagedlist.New[record.Record](all).WithPageSize(pageSize).WithLogger(*logging.FromContext(ctx))
	return NewListModel(ctx, "Tasks", c, RenderTask).
		WithFilters(Filter{Name: "all", Fetcher: all}, Filter{Name: "mine", Fetcher: svc.MineFetcher()}).
		WithSorts(TaskSortModes()...).
		WithSearch(MatchTask).
		WithDetail(TaskDetail(svc))
}

// NewBudgetList builds the budget browser: all budgets, toggling to the actor's own.
func NewBudgetList(ctx context.Context, svc *budgets.Service, actorID string, pageSize int) *ListModel {
	all := svc.AllFetcher()
	c := pagedlist.New[record.Record](all).WithPageSize(pageSize).WithLogger(*logging.FromContext(ctx))
	return NewListModel(ctx, "Budgets", c, RenderBudget).
		WithFilters(Filter{Name: "all", Fetcher: all}, Filter{Name: "mine", Fetcher: svc.ForUserFetcher(actorID)}).
		WithSorts(BudgetSortModes()...).
		WithSearch(MatchBudget).
		WithDetail(BudgetDetail(svc))
}
