package cmd

import (
	"github.com/spf13/cobra"

	"github.com/clauselens/clauselens/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize clauselens configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure clauselens and generates a .clauselens.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
