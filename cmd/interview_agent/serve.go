package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-kit/internal/server"
	"github.com/jonathan/interview-kit/internal/server/ratelimit"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for syncing records and regenerating questions.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply pending database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if serveMigrate {
		if err := a.db.RunMigrations(a.logger); err != nil {
			return err
		}
	}

	syncSvc, err := a.syncService(ctx)
	if err != nil {
		return err
	}
	regenSvc, err := a.regenerationService(ctx)
	if err != nil {
		return err
	}

	jwtCfg, err := a.cfg.JWT()
	if err != nil {
		return err
	}
	var jwtService *server.JWTService
	if jwtCfg != nil {
		jwtService = server.NewJWTService(jwtCfg)
	} else {
		a.logger.Warn("JWT_SECRET not set, API authentication is disabled")
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Enabled: a.cfg.RateLimit.Enabled,
		Rules:   ratelimit.DefaultRules(a.cfg.RateLimit.GeneratorPerHour, a.cfg.RateLimit.SyncPerMinute),
	})

	port := a.cfg.Server.Port
	if servePort > 0 {
		port = servePort
	}

	srv := server.New(server.Config{
		Port:         port,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}, server.Deps{
		Syncer:      syncSvc,
		Regenerator: regenSvc,
		Health:      a.db.Ping,
		JWT:         jwtService,
		RateLimiter: limiter,
		Logger:      a.logger.Named("server"),
	})

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

// contextOrBackground returns the command context, which is nil when a command runs outside Execute.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
