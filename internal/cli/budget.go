package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/planfocus/internal/budgets"
	"github.com/rshade/planfocus/internal/pagination"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/store"
)

func newBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "budget", Aliases: []string{"budgets"}, Short: "Budget commands"}
	cmd.AddCommand(
		newBudgetListCmd(), newBudgetShowCmd(), newBudgetAddCmd(), newBudgetEditCmd(),
		newBudgetApproveCmd(), newBudgetRevokeCmd(), newBudgetDeleteCmd(), newBudgetSummaryCmd(),
	)
	return cmd
}

type budgetListFlags struct {
	listFlags
	mine bool
}

// budgetFetcher returns the fetcher for every budget, or only the actor's.
func budgetFetcher(bs *budgets.Service, rt *runtime, mine bool) *store.Fetcher {
	if mine {
		return bs.ForUserFetcher(rt.cfg.Session.ActorID)
	}
	return bs.AllFetcher()
}

func newBudgetListCmd() *cobra.Command {
	var f budgetListFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List budgets, newest first",
		Example: `  # Largest budgets in the first three pages
  planfocus budget list --pages 3 --sort amount-desc

  # My budgets awaiting approval first
  planfocus budget list --mine --sort pending-first`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBudgetList(cmd, f)
		},
	}

	addListFlags(cmd, &f.listFlags, fmt.Sprintf("sort loaded budgets: %v", budgets.SortOptions()))
	cmd.Flags().BoolVar(&f.mine, "mine", false, "only my budgets")
	return cmd
}

func runBudgetList(cmd *cobra.Command, f budgetListFlags) error {
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
	option, err := budgets.ParseSortOption(f.sort)
	if err != nil {
		return err
	}
	if option != budgets.SortDefault {
		params.SortField, params.SortOrder = string(option), ""
	}

	_, bs, closeStore, err := rt.services(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	state, pages, err := collect(ctx, budgetFetcher(bs, rt, f.mine), params)
	if err != nil {
		return err
	}
	items := toBudgets(budgets.Sort(state.Items, option))
	meta := pagination.NewListMeta(params, pages, state.Len(), state.HasMore)

	if format == outputJSON {
		return writeJSON(cmd.OutOrStdout(), listResult[record.Budget]{Items: items, Meta: meta})
	}
	renderBudgetTable(cmd, items)
	printMoreHint(cmd.OutOrStdout(), meta)
	return nil
}

func toBudgets(records []record.Record) []record.Budget {
	out := make([]record.Budget, 0, len(records))
	for _, rec := range records {
		out = append(out, record.BudgetFromRecord(rec))
	}
	return out
}

func approvalLabel(approved bool) string {
	if approved {
		return "approved"
	}
	return "pending"
}

func renderBudgetTable(cmd *cobra.Command, items []record.Budget) {
	if len(items) == 0 {
		cmd.Println("No budgets found.")
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tAMOUNT\tSTATE")
	for _, b := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.Title, orDash(b.Category), budgets.FormatAmount(b.Amount), approvalLabel(b.Approved))
	}
	_ = w.Flush()
}

func renderBudget(cmd *cobra.Command, format string, b record.Budget) error {
	if format == outputJSON {
		return writeJSON(cmd.OutOrStdout(), b)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", b.ID)
	fmt.Fprintf(w, "Title:\t%s\n", b.Title)
	if b.Description != "" {
		fmt.Fprintf(w, "Description:\t%s\n", b.Description)
	}
	fmt.Fprintf(w, "Amount:\t%s\n", budgets.FormatAmount(b.Amount))
	fmt.Fprintf(w, "Category:\t%s\n", orDash(b.Category))
	fmt.Fprintf(w, "Owner:\t%s\n", orDash(b.UserID))
	fmt.Fprintf(w, "State:\t%s\n", approvalLabel(b.Approved))
	return w.Flush()
}

// budgetCommand runs fn with the budget service and renders the budget it returns.
func budgetCommand(
	cmd *cobra.Command,
	output string,
	fn func(bs *budgets.Service) (record.Budget, error),
) error {
	rt, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}
	format, err := resolveOutput(cmd, output)
	if err != nil {
		return err
	}
	_, bs, closeStore, err := rt.services(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	b, err := fn(bs)
	if err != nil {
		return err
	}
	return renderBudget(cmd, format, b)
}

func newBudgetShowCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <budget-id>",
		Short: "Show one budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return budgetCommand(cmd, output, func(bs *budgets.Service) (record.Budget, error) {
				return bs.Get(cmd.Context(), args[0])
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

type budgetFields struct {
	title       string
	amount      float64
	category    string
	description string
	output      string
}

func newBudgetAddCmd() *cobra.Command {
	var f budgetFields

	cmd := &cobra.Command{
		Use:     "add <title>",
		Short:   "Request a budget",
		Example: `  planfocus budget add "Team offsite" --amount 2500 --category events`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return budgetCommand(cmd, f.output, func(bs *budgets.Service) (record.Budget, error) {
				return bs.Create(cmd.Context(), record.Budget{
					Title:       args[0],
					Amount:      f.amount,
					Category:    f.category,
					Description: f.description,
				})
			})
		},
	}

	cmd.Flags().Float64Var(&f.amount, "amount", 0, "requested amount")
	cmd.Flags().StringVar(&f.category, "category", "", "spending category")
	cmd.Flags().StringVar(&f.description, "description", "", "what the money is for")
	_ = cmd.MarkFlagRequired("amount")
	addOutputFlag(cmd, &f.output)
	return cmd
}

func newBudgetEditCmd() *cobra.Command {
	var f budgetFields

	cmd := &cobra.Command{
		Use:   "edit <budget-id>",
		Short: "Change a budget's fields",
		Long:  "Changes only the fields whose flags are given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			return budgetCommand(cmd, f.output, func(bs *budgets.Service) (record.Budget, error) {
				ctx := cmd.Context()
				b, err := bs.Get(ctx, args[0])
				if err != nil {
					return record.Budget{}, err
				}
				if changed("title") {
					b.Title = f.title
				}
				if changed("amount") {
					b.Amount = f.amount
				}
				if changed("category") {
					b.Category = f.category
				}
				if changed("description") {
					b.Description = f.description
				}
				return bs.Update(ctx, b)
			})
		},
	}

	cmd.Flags().StringVar(&f.title, "title", "", "new title")
	cmd.Flags().Float64Var(&f.amount, "amount", 0, "new amount")
	cmd.Flags().StringVar(&f.category, "category", "", "new category")
	cmd.Flags().StringVar(&f.description, "description", "", "new description")
	addOutputFlag(cmd, &f.output)
	return cmd
}

func newBudgetApproveCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "approve <budget-id>",
		Short: "Approve a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return budgetCommand(cmd, output, func(bs *budgets.Service) (record.Budget, error) {
				return bs.Approve(cmd.Context(), args[0])
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newBudgetRevokeCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "revoke <budget-id>",
		Short: "Withdraw a budget's approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return budgetCommand(cmd, output, func(bs *budgets.Service) (record.Budget, error) {
				return bs.Revoke(cmd.Context(), args[0])
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newBudgetDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <budget-id>",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				res := ConfirmWithStdin(cmd.OutOrStdout(), fmt.Sprintf("Delete budget %s?", args[0]))
				if !res.Accepted {
					return errDeclined(res)
				}
			}
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			_, bs, closeStore, err := rt.services(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := bs.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("Deleted budget %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

func newBudgetSummaryCmd() *cobra.Command {
	var (
		mine   bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Total budgets by approval state",
		Long:  "Loads every page of budgets and totals the amounts by approval state.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			format, err := resolveOutput(cmd, output)
			if err != nil {
				return err
			}
			_, bs, closeStore, err := rt.services(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			params := pagination.PaginationParams{PageSize: rt.cfg.Paging.PageSize, All: true}
			state, _, err := collect(ctx, budgetFetcher(bs, rt, mine), params)
			if err != nil {
				return err
			}
			summary := budgets.Summarize(toBudgets(state.Items))

			if format == outputJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)
			fmt.Fprintf(w, "Budgets:\t%d\n", summary.Count)
			fmt.Fprintf(w, "Approved:\t%d\t%s\n", summary.ApprovedCount, budgets.FormatAmount(summary.Approved))
			fmt.Fprintf(w, "Pending:\t%d\t%s\n", summary.PendingCount, budgets.FormatAmount(summary.Pending))
			fmt.Fprintf(w, "Total:\t\t%s\n", budgets.FormatAmount(summary.Total))
			fmt.Fprintf(w, "Approval rate:\t%.1f%%\n", summary.ApprovalRate())
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&mine, "mine", false, "only my budgets")
	addOutputFlag(cmd, &output)
	return cmd
}
