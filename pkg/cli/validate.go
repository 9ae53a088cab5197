package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/wsgate/pkg/cli/internal/output"
	"github.com/getmockd/wsgate/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a config file without starting the gateway",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			path = config.FindConfigFile()
		}
		if path == "" {
			return fmt.Errorf("no config file found (looked for %v)", config.LocalConfigFileNames)
		}

		if _, err := config.LoadFromFile(path); err != nil {
			return err
		}
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), map[string]any{"path": path, "valid": true})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
