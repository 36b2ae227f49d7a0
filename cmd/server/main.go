package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	promolimits "github.com/set-night/promolimits"
	"github.com/set-night/promolimits/internal/api"
	"github.com/set-night/promolimits/internal/config"
	"github.com/set-night/promolimits/internal/handler"
	"github.com/set-night/promolimits/internal/lock"
	"github.com/set-night/promolimits/internal/middleware"
	"github.com/set-night/promolimits/internal/repository"
	"github.com/set-night/promolimits/internal/service"
	"github.com/set-night/promolimits/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open partner store", "store", cfg.Store, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Per-partner locking
	var locker service.Locker = lock.NewLocal()
	if cfg.RedisAddr != "" {
		rdb, err := lock.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		locker = lock.NewRedis(rdb, cfg.LockTTL)
		slog.Info("using redis partner lock", "addr", cfg.RedisAddr)
	}

	// Optional admin bot
	var (
		b        *bot.Bot
		tgLogger *telegram.TelegramLogger
	)
	if cfg.BotEnabled() {
		botLimiter := middleware.NewKeyedLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, config.LimiterIdleTTL)
		botLimiter.StartJanitor(ctx, config.LimiterCleanupEvery)

		reportPanic := func(err error, op string) {
			if tgLogger != nil {
				tgLogger.LogError(err, op)
			}
		}

		b, err = bot.New(cfg.BotToken,
			bot.WithMiddlewares(middleware.BotChain(cfg, botLimiter, reportPanic)...),
			bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {}),
		)
		if err != nil {
			slog.Error("failed to create bot", "error", err)
			os.Exit(1)
		}
		tgLogger = telegram.NewTelegramLogger(b, cfg)
	}

	// Initialize services
	opts := []service.Option{
		service.WithLocker(locker),
		service.WithRequireActivePartner(cfg.RequireActivePartner),
	}
	if tgLogger != nil {
		opts = append(opts, service.WithNotifier(tgLogger))
	}
	limitService := service.NewLimitService(store, opts...)

	if b != nil {
		h := handler.New(handler.Deps{
			Bot:      b,
			Limits:   limitService,
			TgLogger: tgLogger,
		})
		h.Register()

		go func() {
			slog.Info("starting bot")
			b.Start(ctx)
			slog.Info("bot stopped")
		}()
	}

	// HTTP API
	httpLimiter := middleware.NewKeyedLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, config.LimiterIdleTTL)
	httpLimiter.StartJanitor(ctx, config.LimiterCleanupEvery)

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.RouterDeps{
			Limits:         api.NewLimitHandler(limitService),
			Limiter:        httpLimiter,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			TrustProxy:     cfg.TrustProxyHeaders,
		}),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown", "error", err)
		}
	}()

	slog.Info("starting http server", "addr", cfg.HTTPAddr, "store", cfg.Store, "bot", cfg.BotEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	slog.Info("server stopped gracefully")
}

func openStore(ctx context.Context, cfg *config.Config) (service.PartnerStore, func(), error) {
	if cfg.Store == config.StoreMemory {
		slog.Warn("using in-memory partner store, data is lost on restart")
		return repository.NewMemoryPartnerRepo(), func() {}, nil
	}

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	// Run migrations
	migrationsFS, err := fs.Sub(promolimits.MigrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return repository.NewPartnerRepo(pool), pool.Close, nil
}
