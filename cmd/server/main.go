package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/api"
	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/auth"
	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/bus"
	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/config"
	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/simulator"
	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/storage"
	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/ws"
)

func main() {
	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to db", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	if cfg.Migrate {
		if err := store.Migrate(ctx); err != nil {
			logger.Error("migration failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := store.Seed(ctx); err != nil {
			logger.Error("seed failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	repo := storage.NewRepository(store)

	eventBus := bus.New()
	authSvc := auth.NewService(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour, repo)

	hub := ws.NewHub(authSvc, logger)
	go hub.Run(eventBus.Subscribe(256))

	forwardCtx, stopForward := context.WithCancel(ctx)
	defer stopForward()
	if cfg.NATSURL != "" {
		publisher, err := bus.NewPublisher(cfg.NATSURL)
		if err != nil {
			logger.Error("failed to connect to nats, bridge disabled", slog.String("error", err.Error()))
		} else {
			defer publisher.Close()
			go publisher.Forward(forwardCtx, eventBus)
			logger.Info("nats bridge enabled", slog.String("url", cfg.NATSURL))
		}
	}

	simCfg := simulator.Config{
		SensorType:       cfg.Simulator.SensorType,
		MinValue:         cfg.Simulator.MinValue,
		MaxValue:         cfg.Simulator.MaxValue,
		GenerateInterval: time.Duration(cfg.Simulator.GenerateIntervalSeconds) * time.Second,
		FlushInterval:    time.Duration(cfg.Simulator.FlushIntervalSeconds) * time.Second,
		RefreshInterval:  time.Duration(cfg.Simulator.RefreshIntervalSeconds) * time.Second,
		StalenessWindow:  time.Duration(cfg.Simulator.StalenessWindowSeconds) * time.Second,
	}
	sim := simulator.New(simCfg, repo, eventBus, logger)
	sim.Start(ctx)

	handler := &api.Handler{
		Repo:      repo,
		Auth:      authSvc,
		Sim:       sim,
		Staleness: simCfg.StalenessWindow,
		Log:       logger,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handler, hub),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server listening", slog.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("error", err.Error()))
	}

	sim.Stop()
	hub.CloseAll()
	eventBus.Close()
}
