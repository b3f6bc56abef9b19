package cli

import (
	"github.com/spf13/cobra"
)

// NewMigrateCmd создаёт команду применения схемы БД.
func NewMigrateCmd(appFn AppFunc, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn(cmd.Context())
			if err != nil {
				return err
			}

			if err := app.Migrate(cmd.Context()); err != nil {
				return err
			}

			outputFn().Success("Schema applied")
			return nil
		},
	}
}
