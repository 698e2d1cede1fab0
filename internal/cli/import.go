package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/planfocus/internal/batch"
	"github.com/rshade/planfocus/internal/seed"
)

const defaultImportConcurrency = 4

func newImportCmd() *cobra.Command {
	var (
		file string
		opts seed.Options
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import tasks and budgets from a YAML seed file",
		Long: `Creates every task and budget in the file as the acting user. Budgets marked
approved are approved after creation, which needs the approve permission.`,
		Example: `  planfocus import --file seed.yaml --actor admin --role admin`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}
			f, err := seed.Load(file)
			if err != nil {
				return err
			}
			ts, bs, closeStore, err := rt.services(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := seed.Import(ctx, ts, bs, f, opts)
			cmd.Printf("Imported %d of %d tasks and %d of %d budgets\n",
				res.Tasks, len(f.Tasks), res.Budgets, len(f.Budgets))
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "seed file path")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", batch.DefaultBatchSize, "records per batch")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", defaultImportConcurrency, "concurrent creates per batch")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
