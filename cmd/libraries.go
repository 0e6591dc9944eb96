package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	addLibraryFlag(librariesCmd)
	rootCmd.AddCommand(librariesCmd)
}

var librariesCmd = &cobra.Command{
	Use:   "libraries",
	Short: "List the Steam library roots, in the order manifests are searched",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		for _, root := range a.locator().Roots() {
			fmt.Fprintln(cmd.OutOrStdout(), root)
		}
		return nil
	},
}
