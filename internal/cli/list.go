package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rshade/planfocus/internal/config"
	"github.com/rshade/planfocus/internal/pagedlist"
	"github.com/rshade/planfocus/internal/pagination"
	"github.com/rshade/planfocus/internal/record"
)

// listFlags are the paging and output flags of the list commands.
type listFlags struct {
	pageSize int
	pages    int
	all      bool
	sort     string
	output   string
}

func addListFlags(cmd *cobra.Command, f *listFlags, sortHelp string) {
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "records per page (default from config)")
	cmd.Flags().IntVar(&f.pages, "pages", pagination.DefaultPages, "number of pages to load")
	cmd.Flags().BoolVar(&f.all, "all", false, "load every page")
	cmd.Flags().StringVar(&f.sort, "sort", "", sortHelp)
	addOutputFlag(cmd, &f.output)
}

// params resolves the paging parameters, falling back to the configured page size.
func (f listFlags) params(cfg *config.Config) (pagination.PaginationParams, error) {
	p := *pagination.NewPaginationParams()
	p.PageSize = cfg.Paging.PageSize
	if f.pageSize != 0 {
		p.PageSize = f.pageSize
	}
	p.Pages = f.pages
	p.All = f.all
	if err := p.Validate(); err != nil {
		return pagination.PaginationParams{}, err
	}
	return p, nil
}

// listResult is the JSON form of a list command's output.
type listResult[T any] struct {
	Items []T                 `json:"items"`
	Meta  pagination.ListMeta `json:"meta"`
}

// collect drives a controller over fetcher for the page budget in params.
func collect(
	ctx context.Context,
	fetcher pagedlist.PageFetcher[record.Record],
	params pagination.PaginationParams,
) (pagedlist.State[record.Record], int, error) {
	c := pagedlist.New[record.Record](fetcher).
		WithPageSize(params.PageSize).
		WithLogger(logger)
	defer c.Dispose()

	state, pages, err := pagedlist.Collect(ctx, c, params.PageBudget())
	logger.Debug().
		Ctx(ctx).
		Str("operation", "collect").
		Int("pages", pages).
		Int("items", state.Len()).
		Bool("has_more", state.HasMore).
		Msg("list loaded")
	return state, pages, err
}

// printMoreHint tells the user how to see the next page.
func printMoreHint(w io.Writer, meta pagination.ListMeta) {
	if meta.HasMore {
		fmt.Fprintf(w, "\n%d loaded in %d page(s); more available, rerun with --pages %d or --all\n",
			meta.TotalLoaded, meta.PagesLoaded, meta.PagesLoaded+1)
		return
	}
	fmt.Fprintf(w, "\n%d loaded\n", meta.TotalLoaded)
}
