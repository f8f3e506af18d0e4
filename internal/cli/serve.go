package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/courier-site/internal/config"
	"github.com/evcraddock/courier-site/internal/contact"
	"github.com/evcraddock/courier-site/internal/inquiry"
	"github.com/evcraddock/courier-site/internal/jobs"
	"github.com/evcraddock/courier-site/internal/logging"
	"github.com/evcraddock/courier-site/internal/mapsession"
	"github.com/evcraddock/courier-site/internal/session"
	"github.com/evcraddock/courier-site/internal/web"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the website",
		Long:  "Start the HTTP server for the website and its JSON API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "port to listen on (default: COURIER_PORT or 8080)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logging.Setup(cfg.DevMode)
	log := slog.Default()

	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	relay, err := newRelay(cfg)
	if err != nil {
		return err
	}

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	// Left as a nil interface when maps are off so visitors never go live.
	var provider mapsession.Provider
	if cfg.MapEnabled {
		provider = newMapsClient(cfg)
	}

	srv, err := web.NewServer(web.Options{
		Registry:       registry,
		Provider:       provider,
		Relay:          relay,
		RelayName:      cfg.Relay,
		DestinationKey: cfg.DestinationKey,
		Inquiries:      inquiry.NewRepository(database),
		MapZoom:        cfg.MapZoom,
		ClientRate:     cfg.ClientRate,
		ClientBurst:    cfg.ClientBurst,
		DevMode:        cfg.DevMode,
		Logger:         log,
	})
	if err != nil {
		return err
	}

	janitor := jobs.NewJanitor(sitePruner{store: srv.Sessions(), limiter: srv.Limiter()}, cfg.SessionTTL, cfg.JanitorSchedule, log)
	if err := janitor.Start(); err != nil {
		return err
	}
	defer janitor.Stop()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := srv.HTTPServer(":" + cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", "http://localhost:"+cfg.Port, "offices", registry.Len(), "map", cfg.MapEnabled, "relay", cfg.Relay)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// newRelay picks the contact relay named by COURIER_CONTACT_RELAY.
func newRelay(cfg *config.Config) (contact.Relay, error) {
	switch cfg.Relay {
	case config.RelaySMTP:
		return contact.NewSMTPRelay(contact.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		})
	case config.RelayWeb3Forms:
		if cfg.DestinationKey == "" {
			slog.Warn("COURIER_DESTINATION_KEY is not set; the relay will reject submissions")
		}
		return contact.NewWeb3FormsRelay(cfg.RelayEndpoint), nil
	}
	return nil, fmt.Errorf("unknown contact relay %q", cfg.Relay)
}

// sitePruner expires idle visitors and their rate limit buckets together.
type sitePruner struct {
	store   *session.Store
	limiter *web.IPRateLimiter
}

func (p sitePruner) Prune(ttl time.Duration) int {
	p.limiter.Forget(ttl)
	return p.store.Prune(ttl)
}

func (p sitePruner) Len() int {
	return p.store.Len()
}
