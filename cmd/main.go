package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/numera/internal/api"
	"github.com/UnknownOlympus/numera/internal/bot"
	"github.com/UnknownOlympus/numera/internal/cache"
	"github.com/UnknownOlympus/numera/internal/config"
	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/UnknownOlympus/numera/internal/provider"
	"github.com/UnknownOlympus/numera/internal/repository"
	"github.com/UnknownOlympus/numera/internal/server"
	"github.com/UnknownOlympus/numera/internal/service"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"

	redisTimeout = 5 * time.Second
	// apiWriteTimeout leaves room for a provider round trip inside a request.
	apiWriteTimeout = 30 * time.Second
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	dtb, err := repository.NewDatabase(
		ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer dtb.Close()

	if err = repository.Migrate(ctx, dtb); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	redisClient, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redisTimeout)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	repo := repository.NewRepository(dtb)
	clock := clockwork.NewRealClock()
	statsCache := cache.NewStatsCache(redisClient, logger, appMetrics, cfg.StatsCacheTTL)

	providerClient := provider.NewClient(logger, appMetrics, provider.Config{
		BaseURL:  cfg.Provider.URL,
		APIKey:   cfg.Provider.APIKey,
		Service:  cfg.Provider.Service,
		Operator: cfg.Provider.Operator,
		Country:  cfg.Provider.Country,
		MaxPrice: cfg.Provider.MaxPrice,
		Timeout:  cfg.Provider.Timeout,
	})

	orders := service.NewOrders(logger, appMetrics, repo, repo, providerClient, statsCache, clock, cfg.Location,
		service.OrderParams{
			Service:  cfg.Provider.Service,
			Operator: cfg.Provider.Operator,
			Country:  cfg.Provider.Country,
		})
	employees := service.NewEmployees(logger, appMetrics, repo, statsCache, clock)
	auth := service.NewAuth(logger, appMetrics, repo, repo)
	stats := service.NewStats(logger, appMetrics, repo, repo, statsCache, clock, cfg.Location)

	if err = auth.EnsureDefaultAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		logger.ErrorContext(ctx, "Failed to provision default admin", "error", err)
	}

	health := server.NewHealthChecker(logger, dtb, server.RedisPinger(redisClient))

	apiServer := api.NewServer(logger, appMetrics, api.Deps{
		Orders:    orders,
		Employees: employees,
		Auth:      auth,
		Stats:     stats,
		Health:    health,
		Clock:     clock,
		Env:       cfg.Env,
		DefaultAdmin: api.Credentials{
			Username: cfg.Admin.Username,
			Password: cfg.Admin.Password,
		},
	})

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return server.Serve(groupCtx, logger, "api", cfg.HTTPPort, apiServer.Handler(), apiWriteTimeout)
	})
	group.Go(func() error {
		return server.StartMonitoringServer(groupCtx, logger, reg, health, cfg.MonitoringPort)
	})

	if cfg.Telegram.Token != "" {
		languages := bot.NewRedisLanguageStore(redisClient, appMetrics)
		employeeBot, botErr := bot.NewBot(
			logger, appMetrics, orders, auth, languages, clock, cfg.Telegram.Token, cfg.Telegram.PollerTimeout,
		)
		if botErr != nil {
			log.Fatalf("Failed to create bot: %v", botErr)
		}

		go employeeBot.Start()
		group.Go(func() error {
			<-groupCtx.Done()
			employeeBot.Stop()
			return nil
		})
	} else {
		logger.WarnContext(ctx, "Telegram token is not set, the employee bot is disabled")
	}

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	if err = group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(ctx, "Application stopped with error", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelWarn,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelError,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
