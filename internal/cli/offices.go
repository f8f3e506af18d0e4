package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/courier-site/internal/config"
)

func newOfficesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "offices",
		Short: "List offices",
		Long:  "List the offices shown on the site, from COURIER_OFFICES_FILE or the built-in set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			registry, err := loadRegistry(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, registry.All())
			}
			return printOfficeTable(out, registry.All())
		},
	}
}
