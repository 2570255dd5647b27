package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Samyak44/Travel-Agent/internal/cache"
	"github.com/Samyak44/Travel-Agent/internal/config"
	"github.com/Samyak44/Travel-Agent/internal/history"
	"github.com/Samyak44/Travel-Agent/internal/httpx"
	"github.com/Samyak44/Travel-Agent/internal/obs"
	"github.com/Samyak44/Travel-Agent/internal/providers"
	"github.com/Samyak44/Travel-Agent/internal/service"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "travel-agent",
		Short: "Travel data provider integration service",
		Long:  "Normalizes flight, hotel and weather data from external providers behind a single authenticated API.",
	}
	cmd.AddCommand(serveCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the travel API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				os.Setenv("TRAVEL_CONFIG", configPath)
			}
			return runServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	return cmd
}

func runServer(ctx context.Context) error {
	cfg := config.Load()

	logger, err := obs.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return err
	}
	defer logger.Sync()

	metrics := obs.NewMetrics(prometheus.NewRegistry())

	// Response cache: redis when configured, otherwise in-process.
	var store cache.Store = cache.NewMemory()
	if cfg.RedisAddr != "" {
		redisStore, err := cache.NewRedis(cfg.RedisAddr, logger)
		if err != nil {
			logger.Error("redis connect failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			return err
		}
		defer redisStore.Close()
		store = redisStore
		logger.Info("response cache backed by redis", zap.String("addr", cfg.RedisAddr))
	}

	// Search history: postgres when configured, otherwise a bounded ring.
	var hist history.Store = history.NewMemory(0)
	if cfg.HistoryDSN != "" {
		pg, err := history.NewPostgres(ctx, cfg.HistoryDSN)
		if err != nil {
			logger.Error("history database connect failed", zap.Error(err))
			return err
		}
		defer pg.Close()
		hist = pg
		logger.Info("search history backed by postgres")
	}

	tokens := providers.NewTokenSource(
		cfg.AmadeusURL+providers.TokenEndpoint,
		cfg.AmadeusAPIKey,
		cfg.AmadeusAPISecret,
		&http.Client{Timeout: cfg.LookupTimeout},
	)

	clients := service.Clients{
		Flights:   providers.NewFlightClient(cfg, tokens, logger),
		Hotels:    providers.NewHotelClient(cfg, tokens, logger),
		Weather:   providers.NewWeatherClient(cfg, logger),
		Locations: providers.NewLocationClient(cfg, tokens),
	}

	svc := service.NewTravelService(clients, store, hist, metrics, logger, cfg)
	handlers := httpx.NewHandlers(svc, logger)
	router := httpx.NewRouter(handlers, cfg, metrics, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      0, // streams stay open indefinitely
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.Bool("tls", cfg.TLSCertFile != ""))
		var err error
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		logger.Error("server error", zap.Error(err))
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
			return err
		}
		logger.Info("shutdown complete")
		return nil
	}
}
