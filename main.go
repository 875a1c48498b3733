package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"strava-challenge/internal/auth"
	"strava-challenge/internal/collect"
	"strava-challenge/internal/config"
	"strava-challenge/internal/stats"
	"strava-challenge/internal/store"
	"strava-challenge/internal/strava"
	"strava-challenge/internal/web"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	cfg, err := config.Load(configPath)
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(configPath); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		fmt.Printf("\nPlease edit the config file at:\n  %s\n\n", configPath)
		fmt.Println("You need to add your Strava API credentials.")
		fmt.Println("Get them from: https://www.strava.com/settings/api")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	db, err := store.Open(cfg.Collect.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	windowStart, err := cfg.WindowStart()
	if err != nil {
		return err
	}
	windowEnd, err := cfg.WindowEnd()
	if err != nil {
		return err
	}
	period := stats.Period{Start: windowStart, End: windowEnd}

	oauthCfg := auth.NewOAuthConfig(auth.Config{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		RedirectURL:  cfg.Server.BaseURL + "/auth/callback",
	})

	clock := clockwork.NewRealClock()
	refresher := auth.NewRefresher(oauthCfg, clock)
	client := strava.NewClient(cfg.Collect.PageSize)

	collector := collect.New(db, refresher, client, period, cfg.Collect.Workers, clock, logger)
	scheduler := collect.NewScheduler(collector, cfg.Interval(), logger)

	server := web.NewServer(web.Config{
		Store:         db,
		Admin:         collector,
		Trigger:       scheduler,
		OAuthConfig:   oauthCfg,
		SessionSecret: cfg.Server.SessionSecret,
		AdminPassword: cfg.Server.AdminPassword,
		ChallengeName: cfg.Challenge.Name,
		Logger:        logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go scheduler.Start(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Server.ListenAddr),
			zap.String("challenge", cfg.Challenge.Name),
			zap.Time("window_start", period.Start),
			zap.Time("window_end", period.End))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
