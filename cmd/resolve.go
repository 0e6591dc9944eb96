package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/steamwake/steamwake/internal/manifest"
)

func init() {
	addLibraryFlag(resolveCmd)
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <appid>...",
	Short: "Print the game name for each app ID, as shown on the sleep lock",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appids := make([]uint64, 0, len(args))
		for _, arg := range args {
			appid, err := strconv.ParseUint(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid app id %q", arg)
			}
			appids = append(appids, appid)
		}

		a, err := setup()
		if err != nil {
			return err
		}

		resolver := manifest.NewResolver(a.locator().Roots())
		for _, appid := range appids {
			name, ok, err := resolver.Resolve(appid)
			if err != nil {
				return err
			}
			if !ok {
				name = "(not found)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", appid, name)
		}
		return nil
	},
}
