package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/seoagent/internal/orchestrator"
)

// NewRunCmd создаёт команду синхронного запуска пайплайна.
func NewRunCmd(appFn AppFunc, outputFn func() *Output) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daily pipeline once",
		Long: `Run the daily pipeline synchronously in this process.

With --dry-run (default) nothing is published live; the article is
stored as pending approval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := appFn(ctx)
			if err != nil {
				return err
			}
			out := outputFn()

			result, err := app.Pipeline.RunDailyPipeline(ctx, dryRun)
			if result != nil {
				printRunResult(out, result)
			}
			if err != nil {
				return err
			}

			switch {
			case result.Published:
				out.Success("Article published")
			case result.Error != "":
				out.Success(fmt.Sprintf("Run finished without article: %s", result.Error))
			default:
				out.Success("Article saved for approval")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "Never publish live")

	return cmd
}

func printRunResult(out *Output, r *orchestrator.RunResult) {
	var articleID, clusterID string
	if r.ArticleID != nil {
		articleID = r.ArticleID.String()
	}
	if r.ClusterID != nil {
		clusterID = r.ClusterID.String()
	}

	out.Details([][2]string{
		{"Job", r.JobID.String()},
		{"Cluster", clusterID},
		{"Article", articleID},
		{"Dry run", strconv.FormatBool(r.DryRun)},
		{"Published", strconv.FormatBool(r.Published)},
		{"Publish degraded", strconv.FormatBool(r.PublishDegraded)},
		{"Error", r.Error},
	}, r)
}
