package cli

import (
	"github.com/spf13/cobra"

	"github.com/getmockd/wsgate/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration serve would run with, after the config file and
environment variables are applied. Output is YAML, or JSON with --json.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig(nil)
		if err != nil {
			return err
		}

		var data []byte
		if jsonOutput {
			data, err = config.ToJSON(cfg)
		} else {
			data, err = config.ToYAML(cfg)
		}
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
