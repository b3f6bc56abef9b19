package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/seoagent/internal/domain"
	"github.com/shaiso/seoagent/internal/repo"
)

// NewArticleCmd создаёт группу команд для просмотра статей.
func NewArticleCmd(appFn AppFunc, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "article",
		Short: "Inspect generated articles",
	}

	cmd.AddCommand(
		newArticleListCmd(appFn, outputFn),
		newArticleShowCmd(appFn, outputFn),
	)

	return cmd
}

func newArticleListCmd(appFn AppFunc, outputFn func() *Output) *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter repo.ArticleFilter
			if status != "" {
				st, ok := domain.ParseArticleStatus(status)
				if !ok {
					return fmt.Errorf("unknown article status %q", status)
				}
				filter.Status = st
			}
			filter.Limit = limit

			app, err := appFn(cmd.Context())
			if err != nil {
				return err
			}
			out := outputFn()

			articles, err := app.Articles.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			headers := []string{"ID", "STATUS", "SLUG", "KEYWORD", "URL", "CREATED"}
			rows := make([][]string, len(articles))
			for i, a := range articles {
				rows[i] = []string{
					a.ID.String(),
					string(a.Status),
					a.Slug,
					shorten(a.TargetKeyword, 40),
					a.PublisherURL,
					formatTime(&a.CreatedAt),
				}
			}

			out.Print(headers, rows, articles)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending_approval, published, ...)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newArticleShowCmd(appFn AppFunc, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show article details",
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

			a, err := app.Articles.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			out.Details([][2]string{
				{"ID", a.ID.String()},
				{"Job", a.JobID.String()},
				{"Cluster", a.ClusterID.String()},
				{"Status", string(a.Status)},
				{"Title", a.Title},
				{"Slug", a.Slug},
				{"Keyword", a.TargetKeyword},
				{"Meta title", a.MetaTitle},
				{"Meta description", a.MetaDescription},
				{"Publisher page", a.PublisherPageID},
				{"URL", a.PublisherURL},
				{"Scores", formatMap(a.QualityScores)},
				{"Created", formatTime(&a.CreatedAt)},
			}, a)
			return nil
		},
	}
}
