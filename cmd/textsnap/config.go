package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration after defaults, config file and TEXTSNAP_*
environment variables have been applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := mgr.Get().YAML()
		if err != nil {
			return err
		}
		if used := mgr.FileUsed(); used != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", used)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}
