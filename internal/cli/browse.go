package cli

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/planfocus/internal/tui"
)

const (
	browseTasks   = "tasks"
	browseBudgets = "budgets"
)

func newBrowseCmd() *cobra.Command {
	var pageSize int

	cmd := &cobra.Command{
		Use:   "browse <tasks|budgets>",
		Short: "Browse tasks or budgets interactively",
		Long: `Opens a scrolling list that loads pages as you reach the bottom.

Keys: up/down to move, m to load more, f to toggle all/mine, s to cycle the sort,
/ to search the loaded rows, enter for details, r to reload, q to quit.`,
		Example: `  planfocus browse tasks --page-size 25
  planfocus browse budgets`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{browseTasks, browseBudgets},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdout) {
				return errors.New("browse needs a terminal, use list with --output json instead")
			}
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("page-size") {
				pageSize = rt.cfg.Paging.PageSize
			}

			ctx := cmd.Context()
			ts, bs, closeStore, err := rt.services(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			var model *tui.ListModel
			switch args[0] {
			case browseTasks:
				model = tui.NewTaskList(ctx, ts, pageSize)
			case browseBudgets:
				model = tui.NewBudgetList(ctx, bs, rt.cfg.Session.ActorID, pageSize)
			default:
				return fmt.Errorf("unknown list %q (valid: %s, %s)", args[0], browseTasks, browseBudgets)
			}

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("running browser: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "records per page (default from config)")
	return cmd
}
