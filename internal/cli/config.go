package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/iuv/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.stdout, configPathFor(a.cfgFile))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.watchRoot()
			if err != nil {
				return err
			}
			cfg, err := config.LoadMerged(a.cfgFile, root)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debounce") {
				cfg.DebounceMs = a.debounceMs
			}
			return config.Print(cfg, a.stdout)
		},
	})

	return cmd
}
