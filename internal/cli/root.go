// Package cli defines the cobra command tree for the courier site.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/courier-site/internal/config"
	"github.com/evcraddock/courier-site/internal/db"
	"github.com/evcraddock/courier-site/internal/geo"
	"github.com/evcraddock/courier-site/internal/maps"
	"github.com/evcraddock/courier-site/internal/office"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "courier",
		Short:         "Courier company website",
		Long:          "Serve the courier company website and inspect its offices, map provider and contact inquiries.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.courier-site/courier.db)")

	root.AddCommand(
		newServeCmd(),
		newOfficesCmd(),
		newGeocodeCmd(),
		newRouteCmd(),
		newInquiriesCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database from the --db flag, COURIER_DB or the
// default path, in that order.
func openDB(cfg *config.Config) (*sql.DB, error) {
	path := flagDB
	if path == "" {
		path = cfg.DBPath
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// loadRegistry returns the offices from COURIER_OFFICES_FILE or the
// built-in set.
func loadRegistry(cfg *config.Config) (*office.Registry, error) {
	if cfg.OfficesFile == "" {
		return office.Default(), nil
	}
	r, err := office.LoadFile(cfg.OfficesFile, geo.ServiceRegion)
	if err != nil {
		return nil, fmt.Errorf("loading offices: %w", err)
	}
	return r, nil
}

// newMapsClient builds the provider client from config.
func newMapsClient(cfg *config.Config) *maps.Client {
	return maps.NewClient(maps.Options{
		GeocodeURL:        cfg.GeocodeURL,
		RouteURL:          cfg.RouteURL,
		UserAgent:         cfg.UserAgent,
		RequestsPerSecond: cfg.MapRequestsPerSec,
	})
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
