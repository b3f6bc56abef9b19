package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewRootCmd собирает дерево команд seoagent.
func NewRootCmd(version string, appFn AppFunc, stdout, stderr io.Writer) *cobra.Command {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "seoagent",
		Short:         "SEO content pipeline: run, inspect and seed",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	outputFn := func() *Output { return NewOutputTo(jsonOutput, stdout, stderr) }

	rootCmd.AddCommand(
		NewRunCmd(appFn, outputFn),
		NewJobCmd(appFn, outputFn),
		NewArticleCmd(appFn, outputFn),
		NewClusterCmd(appFn, outputFn),
		NewSettingCmd(appFn, outputFn),
		NewMigrateCmd(appFn, outputFn),
	)

	return rootCmd
}
