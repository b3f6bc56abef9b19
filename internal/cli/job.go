package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/seoagent/internal/domain"
	"github.com/shaiso/seoagent/internal/repo"
)

// NewJobCmd создаёт группу команд для просмотра jobs.
func NewJobCmd(appFn AppFunc, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect pipeline jobs",
	}

	cmd.AddCommand(
		newJobListCmd(appFn, outputFn),
		newJobShowCmd(appFn, outputFn),
	)

	return cmd
}

func newJobListCmd(appFn AppFunc, outputFn func() *Output) *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn(cmd.Context())
			if err != nil {
				return err
			}
			out := outputFn()

			jobs, err := app.Jobs.List(cmd.Context(), repo.JobFilter{
				Status: domain.JobStatus(status),
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "TYPE", "STATUS", "STARTED", "FINISHED", "ERROR"}
			rows := make([][]string, len(jobs))
			for i, j := range jobs {
				rows[i] = []string{
					j.ID.String(),
					string(j.Type),
					string(j.Status),
					formatTime(j.StartedAt),
					formatTime(j.FinishedAt),
					shorten(j.ErrorMessage, 60),
				}
			}

			out.Print(headers, rows, jobs)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (running, completed, failed, cancelled)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newJobShowCmd(appFn AppFunc, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show job details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := appFn(cmd.Context())
			if err != nil {
				return err
			}
			out := outputFn()

			job, err := app.Jobs.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			out.Details([][2]string{
				{"ID", job.ID.String()},
				{"Type", string(job.Type)},
				{"Status", string(job.Status)},
				{"Payload", formatMap(job.Payload)},
				{"Result", formatMap(job.Result)},
				{"Error", job.ErrorMessage},
				{"Started", formatTime(job.StartedAt)},
				{"Finished", formatTime(job.FinishedAt)},
				{"Duration", job.Duration().String()},
			}, job)
			return nil
		},
	}
}

func formatMap(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	return fmt.Sprint(m)
}
