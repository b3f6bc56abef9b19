package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/seoagent/internal/domain"
)

// NewClusterCmd создаёт группу команд для управления кластерами.
func NewClusterCmd(appFn AppFunc, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Manage topic clusters",
	}

	cmd.AddCommand(
		newClusterAddCmd(appFn, outputFn),
		newClusterListCmd(appFn, outputFn),
	)

	return cmd
}

func newClusterAddCmd(appFn AppFunc, outputFn func() *Output) *cobra.Command {
	var region string
	var slug string
	var priority int
	var keywords []string
	var inactive bool

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a cluster with its keywords",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, ok := domain.ParseRegion(region)
			if !ok {
				return fmt.Errorf("unknown region %q, expected moscow or rf", region)
			}
			if slug == "" {
				return fmt.Errorf("--slug is required")
			}

			app, err := appFn(cmd.Context())
			if err != nil {
				return err
			}
			out := outputFn()

			now := time.Now().UTC()
			cluster := &domain.Cluster{
				ID:        uuid.New(),
				Name:      args[0],
				Region:    reg,
				Slug:      slug,
				IsActive:  !inactive,
				Priority:  priority,
				CreatedAt: now,
			}
			if err := app.Clusters.Create(cmd.Context(), cluster); err != nil {
				return err
			}

			for _, kw := range keywords {
				kw = strings.TrimSpace(kw)
				if kw == "" {
					continue
				}
				k := &domain.Keyword{
					ID:        uuid.New(),
					ClusterID: cluster.ID,
					Keyword:   kw,
					CreatedAt: now,
				}
				if err := app.Clusters.AddKeyword(cmd.Context(), k); err != nil {
					return err
				}
			}

			out.Success(fmt.Sprintf("Cluster created: %s", cluster.ID))
			out.Print(clusterHeaders, [][]string{clusterRow(cluster)}, cluster)
			return nil
		},
	}

	cmd.Flags().StringVar(&region, "region", string(domain.RegionRF), "Traffic region (moscow, rf)")
	cmd.Flags().StringVar(&slug, "slug", "", "Unique URL slug")
	cmd.Flags().IntVar(&priority, "priority", 0, "Higher priority clusters are picked first")
	cmd.Flags().StringArrayVar(&keywords, "keyword", nil, "Keyword (repeatable, first one is the target)")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Create the cluster disabled")

	return cmd
}

func newClusterListCmd(appFn AppFunc, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List clusters",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn(cmd.Context())
			if err != nil {
				return err
			}
			out := outputFn()

			clusters, err := app.Clusters.List(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(clusters))
			for i := range clusters {
				rows[i] = clusterRow(&clusters[i])
			}

			out.Print(clusterHeaders, rows, clusters)
			return nil
		},
	}
}

var clusterHeaders = []string{"ID", "NAME", "REGION", "SLUG", "PRIORITY", "ACTIVE"}

func clusterRow(c *domain.Cluster) []string {
	return []string{
		c.ID.String(),
		c.Name,
		string(c.Region),
		c.Slug,
		strconv.Itoa(c.Priority),
		strconv.FormatBool(c.IsActive),
	}
}
