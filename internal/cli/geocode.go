package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/courier-site/internal/config"
	"github.com/evcraddock/courier-site/internal/maps"
)

func newGeocodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "geocode <query>",
		Short: "Look up a location",
		Long:  "Resolve free text to a location through the configured geocoder, as the site's search box does.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			place, err := newMapsClient(cfg).Geocode(cmd.Context(), query)
			if errors.Is(err, maps.ErrNotFound) {
				return fmt.Errorf("no match for %q", query)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, place)
			}
			return printPlace(out, place)
		},
	}
}
