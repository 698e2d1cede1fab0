package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/planfocus/internal/pagination"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/tasks"
)

const (
	dateLayout      = "2006-01-02"
	defaultDueDays  = 3
	clearDueKeyword = "none"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "task", Aliases: []string{"tasks"}, Short: "Task commands"}
	cmd.AddCommand(
		newTaskListCmd(), newTaskShowCmd(), newTaskAddCmd(), newTaskEditCmd(),
		newTaskStatusCmd(), newTaskReassignCmd(), newTaskDueCmd(), newTaskUpcomingCmd(),
		newTaskDeleteCmd(),
	)
	return cmd
}

// parseDate accepts YYYY-MM-DD or RFC3339. "none" clears the date.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, clearDueKeyword) {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

type taskListFlags struct {
	listFlags
	mine     bool
	assignee string
	status   string
	priority string
	search   string
}

func newTaskListCmd() *cobra.Command {
	var f taskListFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		Long: `Lists tasks page by page. The store applies the status, priority and assignee
filters; --search and --sort are applied to the loaded pages.`,
		Example: `  # My open tasks, two pages
  planfocus task list --mine --status pending --pages 2

  # Everything, highest priority first
  planfocus task list --all --sort priority:desc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTaskList(cmd, f)
		},
	}

	addListFlags(cmd, &f.listFlags, "sort loaded tasks: createdAt, priority, status, dueDate (field[:asc|desc])")
	cmd.Flags().BoolVar(&f.mine, "mine", false, "only tasks assigned to me")
	cmd.Flags().StringVar(&f.assignee, "assignee", "", "only tasks assigned to this user ID")
	cmd.Flags().StringVar(&f.status, "status", "", "pending, in_progress or completed")
	cmd.Flags().StringVar(&f.priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&f.search, "search", "", "match title, description or assignee")
	return cmd
}

func runTaskList(cmd *cobra.Command, f taskListFlags) error {
	ctx := cmd.Context()
	rt, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}
	params, err := f.params(rt.cfg)
	if err != nil {
		return err
	}
	format, err := resolveOutput(cmd, f.output)
	if err != nil {
		return err
	}

	criteria := tasks.FilterCriteria{
		Search:     f.search,
		Status:     f.status,
		Priority:   f.priority,
		AssignedTo: f.assignee,
	}
	if f.sort != "" {
		if criteria.SortBy, criteria.Order, err = pagination.ParseSort(f.sort); err != nil {
			return err
		}
		params.SortField, params.SortOrder = criteria.SortBy, criteria.Order
	}
	if err := criteria.Validate(); err != nil {
		return err
	}

	ts, _, closeStore, err := rt.services(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if f.mine {
		criteria.AssignedTo = ts.Session().ActorID
	}

	state, pages, err := collect(ctx, ts.CriteriaFetcher(criteria), params)
	if err != nil {
		return err
	}
	sorted, err := tasks.FilterAndSort(state.Items, criteria)
	if err != nil {
		return err
	}

	items := make([]record.Task, 0, len(sorted))
	for _, rec := range sorted {
		items = append(items, record.TaskFromRecord(rec))
	}
	meta := pagination.NewListMeta(params, pages, state.Len(), state.HasMore)

	if format == outputJSON {
		return writeJSON(cmd.OutOrStdout(), listResult[record.Task]{Items: items, Meta: meta})
	}
	renderTaskTable(cmd, items)
	printMoreHint(cmd.OutOrStdout(), meta)
	return nil
}

func renderTaskTable(cmd *cobra.Command, items []record.Task) {
	if len(items) == 0 {
		cmd.Println("No tasks found.")
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tASSIGNEE\tDUE")
	for _, t := range items {
		assignee := t.AssignedToName
		if assignee == "" {
			assignee = t.AssignedToUserID
		}
		if assignee == "" {
			assignee = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, t.Status, t.Priority, assignee, formatDate(t.DueDate))
	}
	_ = w.Flush()
}

func renderTask(cmd *cobra.Command, format string, t record.Task) error {
	if format == outputJSON {
		return writeJSON(cmd.OutOrStdout(), t)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", t.ID)
	fmt.Fprintf(w, "Title:\t%s\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(w, "Description:\t%s\n", t.Description)
	}
	fmt.Fprintf(w, "Status:\t%s\n", t.Status)
	fmt.Fprintf(w, "Priority:\t%s\n", t.Priority)
	fmt.Fprintf(w, "Assigned to:\t%s\n", orDash(t.AssignedToName, t.AssignedToUserID))
	fmt.Fprintf(w, "Assigned by:\t%s\n", orDash(t.AssignerName, t.AssignerUserID))
	fmt.Fprintf(w, "Due:\t%s\n", formatDate(t.DueDate))
	if t.AttachmentURL != "" {
		fmt.Fprintf(w, "Attachment:\t%s (%s)\n", orDash(t.AttachmentName), t.AttachmentURL)
	}
	return w.Flush()
}

// orDash returns the first non-empty value, or "-".
func orDash(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "-"
}

// taskCommand runs fn with the task service and renders the task it returns.
func taskCommand(
	cmd *cobra.Command,
	output string,
	fn func(ts *tasks.Service) (record.Task, error),
) error {
	rt, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}
	format, err := resolveOutput(cmd, output)
	if err != nil {
		return err
	}
	ts, _, closeStore, err := rt.services(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	t, err := fn(ts)
	if err != nil {
		return err
	}
	return renderTask(cmd, format, t)
}

func newTaskShowCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return taskCommand(cmd, output, func(ts *tasks.Service) (record.Task, error) {
				return ts.Get(cmd.Context(), args[0])
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

type taskFields struct {
	description  string
	assignee     string
	assigneeName string
	priority     string
	status       string
	due          string
	output       string
}

func newTaskAddCmd() *cobra.Command {
	var f taskFields

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Example: `  planfocus task add "Book venue" --assignee u2 --assignee-name Binh --priority high --due 2026-11-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := parseDate(f.due)
			if err != nil {
				return err
			}
			return taskCommand(cmd, f.output, func(ts *tasks.Service) (record.Task, error) {
				return ts.Create(cmd.Context(), record.Task{
					Title:            args[0],
					Description:      f.description,
					AssignedToUserID: f.assignee,
					AssignedToName:   f.assigneeName,
					Priority:         f.priority,
					Status:           f.status,
					DueDate:          due,
				})
			})
		},
	}

	cmd.Flags().StringVar(&f.description, "description", "", "task description")
	cmd.Flags().StringVar(&f.assignee, "assignee", "", "assignee user ID")
	cmd.Flags().StringVar(&f.assigneeName, "assignee-name", "", "assignee display name")
	cmd.Flags().StringVar(&f.priority, "priority", "", "low, medium (default) or high")
	cmd.Flags().StringVar(&f.status, "status", "", "initial status (default pending)")
	cmd.Flags().StringVar(&f.due, "due", "", "due date, YYYY-MM-DD")
	addOutputFlag(cmd, &f.output)
	return cmd
}

func newTaskEditCmd() *cobra.Command {
	var (
		f     taskFields
		title string
	)

	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Change a task's fields",
		Long:  "Changes only the fields whose flags are given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			return taskCommand(cmd, f.output, func(ts *tasks.Service) (record.Task, error) {
				ctx := cmd.Context()
				t, err := ts.Get(ctx, args[0])
				if err != nil {
					return record.Task{}, err
				}
				if changed("title") {
					t.Title = title
				}
				if changed("description") {
					t.Description = f.description
				}
				if changed("priority") {
					t.Priority = f.priority
				}
				if changed("due") {
					if t.DueDate, err = parseDate(f.due); err != nil {
						return record.Task{}, err
					}
				}
				return ts.Update(ctx, t)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&f.description, "description", "", "new description")
	cmd.Flags().StringVar(&f.priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&f.due, "due", "", "due date, YYYY-MM-DD, or none")
	addOutputFlag(cmd, &f.output)
	return cmd
}

func newTaskStatusCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "status <task-id> <pending|in_progress|completed>",
		Short: "Change a task's status",
		Args:  cobra.ExactArgs(2), //nolint:mnd // id and status
		RunE: func(cmd *cobra.Command, args []string) error {
			return taskCommand(cmd, output, func(ts *tasks.Service) (record.Task, error) {
				return ts.UpdateStatus(cmd.Context(), args[0], args[1])
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newTaskReassignCmd() *cobra.Command {
	var (
		name   string
		output string
	)
	cmd := &cobra.Command{
		Use:   "reassign <task-id> <user-id>",
		Short: "Assign a task to someone else",
		Long:  "Assigns the task to another user. The status goes back to pending.",
		Args:  cobra.ExactArgs(2), //nolint:mnd // id and user
		RunE: func(cmd *cobra.Command, args []string) error {
			return taskCommand(cmd, output, func(ts *tasks.Service) (record.Task, error) {
				return ts.Reassign(cmd.Context(), args[0], args[1], name)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "assignee display name")
	addOutputFlag(cmd, &output)
	return cmd
}

func newTaskDueCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "due <task-id> <YYYY-MM-DD|none>",
		Short: "Set or clear a task's due date",
		Args:  cobra.ExactArgs(2), //nolint:mnd // id and date
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := parseDate(args[1])
			if err != nil {
				return err
			}
			return taskCommand(cmd, output, func(ts *tasks.Service) (record.Task, error) {
				return ts.UpdateDueDate(cmd.Context(), args[0], due)
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newTaskUpcomingCmd() *cobra.Command {
	var (
		days   int
		output string
	)
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List my open tasks due soon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			format, err := resolveOutput(cmd, output)
			if err != nil {
				return err
			}
			ts, _, closeStore, err := rt.services(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			due, err := ts.DueSoon(cmd.Context(), days)
			if err != nil {
				return err
			}
			if format == outputJSON {
				return writeJSON(cmd.OutOrStdout(), due)
			}
			renderTaskTable(cmd, due)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", defaultDueDays, "look-ahead window in days")
	addOutputFlag(cmd, &output)
	return cmd
}

func newTaskDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				res := ConfirmWithStdin(cmd.OutOrStdout(), fmt.Sprintf("Delete task %s?", args[0]))
				if !res.Accepted {
					return errDeclined(res)
				}
			}
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			ts, _, closeStore, err := rt.services(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := ts.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("Deleted task %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

// errDeclined explains why a confirmation did not go ahead.
func errDeclined(res PromptResult) error {
	if res.NonInteractive {
		return errors.New("not a terminal, use --force to confirm")
	}
	return errors.New("aborted")
}
