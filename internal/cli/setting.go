package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/seoagent/internal/config"
)

// NewSettingCmd создаёт группу команд для runtime overrides.
func NewSettingCmd(appFn AppFunc, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setting",
		Short: "Manage runtime overrides",
		Long: fmt.Sprintf(`Manage runtime overrides read at the start of every run.

Known keys: %s, %s, %s.`, config.KeyPublishMode, config.KeyMoscowShare, config.KeyArticlesPerDay),
	}

	cmd.AddCommand(
		newSettingSetCmd(appFn, outputFn),
		newSettingGetCmd(appFn, outputFn),
	)

	return cmd
}

func newSettingSetCmd(appFn AppFunc, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set an override",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], strings.TrimSpace(args[1])
			if err := config.ValidateSetting(key, value); err != nil {
				return err
			}

			app, err := appFn(cmd.Context())
			if err != nil {
				return err
			}
			out := outputFn()

			if err := app.Settings.Set(cmd.Context(), key, value); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Setting %s = %s", key, value))
			return nil
		},
	}
}

type settingView struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Set   bool   `json:"set"`
}

func newSettingGetCmd(appFn AppFunc, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Show an override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn(cmd.Context())
			if err != nil {
				return err
			}
			out := outputFn()

			value, ok, err := app.Settings.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			view := settingView{Key: args[0], Value: value, Set: ok}
			shown := value
			if !ok {
				shown = "(not set, process default applies)"
			}
			out.Print([]string{"KEY", "VALUE"}, [][]string{{view.Key, shown}}, view)
			return nil
		},
	}
}
