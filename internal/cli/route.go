package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/courier-site/internal/config"
	"github.com/evcraddock/courier-site/internal/maps"
)

func newRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route <office-id> <origin>",
		Short: "Plan a driving route to an office",
		Long:  "Geocode the origin and request a driving route to the office, as the site's route builder does.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			registry, err := loadRegistry(cfg)
			if err != nil {
				return err
			}

			dest, ok := registry.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown office %q", args[0])
			}

			client := newMapsClient(cfg)
			query := strings.Join(args[1:], " ")
			origin, err := client.Geocode(cmd.Context(), query)
			if errors.Is(err, maps.ErrNotFound) {
				return fmt.Errorf("no match for %q", query)
			}
			if err != nil {
				return err
			}

			route, err := client.Route(cmd.Context(), origin.Location, dest.Location)
			if errors.Is(err, maps.ErrNotFound) {
				return fmt.Errorf("no route from %s to %s", origin.Label, dest.City)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, struct {
					Origin maps.Place `json:"origin"`
					Office string     `json:"office"`
					Route  maps.Route `json:"route"`
				}{origin, dest.ID, route})
			}
			return printRoute(out, origin, dest.City, route)
		},
	}
}
