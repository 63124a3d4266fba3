package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/complaint-assistant/internal/config"
	"github.com/jonathan/complaint-assistant/internal/server"
	"github.com/jonathan/complaint-assistant/internal/server/ratelimit"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server and the reminder scheduler",
	Long:  `Start an HTTP server that exposes the complaint API, together with the daily follow-up reminder job.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply the database schema before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvCfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("failed to load server config: %w", err)
	}
	if servePort != 0 {
		srvCfg.Port = servePort
	}
	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to load JWT config: %w", err)
	}
	pwCfg, err := config.NewPasswordConfig()
	if err != nil {
		return fmt.Errorf("failed to load password config: %w", err)
	}
	rlCfg, err := ratelimit.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load rate limit config: %w", err)
	}
	remCfg, err := config.LoadReminder()
	if err != nil {
		return fmt.Errorf("failed to load reminder config: %w", err)
	}

	store, err := connectDB(ctx, srvCfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if serveMigrate {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	service, gen, err := newComplaintService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = gen.Close() }()

	srv, err := server.New(server.Config{
		Port:              srvCfg.Port,
		BaseURL:           srvCfg.BaseURL,
		SessionCookieName: srvCfg.SessionCookieName,
		JWT:               jwtCfg,
		Password:          pwCfg,
		RateLimit:         rlCfg,
	}, store, service)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })

	if remCfg.Enabled {
		scheduler, err := newScheduler(store, remCfg, srvCfg.BaseURL)
		if err != nil {
			return err
		}
		g.Go(func() error { return scheduler.Run(gctx) })
	} else {
		log.Println("[reminder] Disabled by REMINDER_ENABLED=false")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
