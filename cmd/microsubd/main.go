// Package main wires C1-C9 into a single deployable process: the Microsub
// HTTP API (spec.md §6), the inbound webmention/WebSub endpoints, and the
// tier scheduler that drives the Processor pipeline on a cron tick.
// Grounded on the teacher's cmd/api/main.go and cmd/worker/main.go, merged
// into one entrypoint since this system has no separate crawl-only worker
// process (spec.md §1, §5).
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	hhttp "microsubd/internal/handler/http"
	"microsubd/internal/handler/http/microsub"
	pgRepo "microsubd/internal/infra/adapter/persistence/postgres"
	"microsubd/internal/infra/db"
	"microsubd/internal/infra/feedparser"
	"microsubd/internal/infra/fetcher"
	"microsubd/internal/infra/worker"
	"microsubd/internal/usecase/channel"
	"microsubd/internal/usecase/event"
	"microsubd/internal/usecase/feed"
	"microsubd/internal/usecase/process"
	"microsubd/internal/usecase/scheduler"
	"microsubd/internal/usecase/timeline"
	"microsubd/internal/usecase/webmention"
	"microsubd/internal/usecase/websub"
	"microsubd/pkg/config"
)

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerMetrics := worker.NewWorkerMetrics()
	workerMetrics.MustRegister()
	schedulerCfg, err := worker.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load scheduler configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("scheduler configuration loaded",
		slog.String("tick_schedule", schedulerCfg.TickSchedule),
		slog.String("timezone", schedulerCfg.Timezone),
		slog.Int("fetch_concurrency", schedulerCfg.FetchConcurrency),
		slog.Duration("fetch_timeout", schedulerCfg.FetchTimeout),
		slog.Int("health_port", schedulerCfg.HealthPort))

	app := wireApp(logger, database, schedulerCfg)

	// Recovers from any gap in the periodic retention sweep: every
	// (channel, owner) pair gets its read-item backlog stripped once before
	// the process starts serving or ticking (spec.md §4.3).
	if err := app.Timeline.CleanupAll(ctx); err != nil {
		logger.Warn("startup timeline cleanup failed", slog.Any("error", err))
	}

	healthAddr := ":" + itoa(schedulerCfg.HealthPort)
	healthServer := worker.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	cronRunner, err := app.Scheduler.Start(ctx, app.Location, schedulerCfg.TickSchedule)
	if err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer cronRunner.Stop()

	healthServer.SetReady(true)
	logger.Info("microsubd ready")

	runServer(ctx, cancel, logger, app.Handler, app.RateLimiter)
}

func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return logger
}

func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// app bundles everything runServer and the scheduler startup need.
type app struct {
	Handler     http.Handler
	Scheduler   *scheduler.Scheduler
	Location    *time.Location
	RateLimiter *microsub.InboundRateLimiter
	Timeline    *timeline.Service
}

// wireApp constructs every repository, usecase service, and HTTP handler
// the system needs, per DESIGN.md's component wiring (C1-C9).
func wireApp(logger *slog.Logger, database *sql.DB, schedulerCfg *worker.SchedulerConfig) *app {
	channelRepo := pgRepo.NewChannelRepo(database)
	feedRepo := pgRepo.NewFeedRepo(database)
	itemRepo := pgRepo.NewItemRepo(database)
	muteBlockRepo := pgRepo.NewMuteBlockRepo(database)

	channelSvc := &channel.Service{Channels: channelRepo, Mutes: muteBlockRepo, Items: itemRepo}
	feedSvc := &feed.Service{Feeds: feedRepo}
	timelineSvc := &timeline.Service{Items: itemRepo}

	fetchCfg := fetcher.LoadConfigFromEnv(func(w string) { logger.Warn("fetch config fallback", slog.String("warning", w)) })
	fetchCfg.Timeout = schedulerCfg.FetchTimeout
	httpFetcher := fetcher.New(fetchCfg)

	events := event.NewPublisher([]event.Hook{event.NewLogChannel(true)}, schedulerCfg.FetchConcurrency)

	processSvc := &process.Service{
		Feeds:    feedRepo,
		Items:    itemRepo,
		Channels: channelRepo,
		Mutes:    muteBlockRepo,
		Fetcher:  &process.FetcherAdapter{Fetcher: httpFetcher},
		Parse:    feedparser.Parse,
		Events:   events,
		Logger:   logger,
	}

	websubSvc := &websub.Service{
		Feeds:     feedRepo,
		Processor: processSvc,
		Config: websub.Config{
			CallbackBaseURL: config.GetEnvString("WEBSUB_CALLBACK_BASE_URL", "http://localhost:8080"),
			LeaseSeconds:    config.GetEnvInt("WEBSUB_LEASE_SECONDS", websub.DefaultLeaseSeconds),
		},
		Logger: logger,
	}
	// The Processor discovers hubs and kicks off subscriptions; wire the
	// circular dependency back in now that both sides exist.
	processSvc.WebSub = websubSvc

	webmentionSvc := &webmention.Service{
		Ensurer: channelSvc,
		Mutes:   muteBlockRepo,
		Items:   itemRepo,
		Fetcher: &webmention.FetcherAdapter{Fetcher: httpFetcher},
		Logger:  logger,
	}

	sched := scheduler.New(feedSvc, processSvc, logger)
	sched.Leases = websubSvc
	sched.BatchConcurrency = schedulerCfg.FetchConcurrency

	loc, err := time.LoadLocation(schedulerCfg.Timezone)
	if err != nil {
		logger.Warn("invalid scheduler timezone, using UTC", slog.String("timezone", schedulerCfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	rateLimit := config.GetEnvInt("INBOUND_RATE_LIMIT", 30)
	rateWindow := config.GetEnvDuration("INBOUND_RATE_WINDOW", time.Minute)
	inboundLimiter := microsub.NewInboundRateLimiter(rateLimit, rateWindow)

	mountPath := config.GetEnvString("MICROSUB_MOUNT_PATH", "/microsub")

	mux := http.NewServeMux()
	microsub.Mount(mux, mountPath, microsub.Deps{
		Channels:    channelSvc,
		Feeds:       feedSvc,
		Timeline:    timelineSvc,
		WebSub:      websubSvc,
		Webmention:  webmentionSvc,
		Fetcher:     &process.FetcherAdapter{Fetcher: httpFetcher},
		Parse:       feedparser.Parse,
		Logger:      logger,
		RateLimiter: inboundLimiter,
	})
	mux.Handle("/health", &hhttp.HealthHandler{DB: database, Version: getVersion()})

	handler := devOwnerStub(mux)

	return &app{
		Handler:     handler,
		Scheduler:   sched,
		Location:    loc,
		RateLimiter: inboundLimiter,
		Timeline:    timelineSvc,
	}
}

// devOwnerStub populates the owner every microsub handler reads from
// context (microsub.WithOwner). Session/IndieAuth verification is an
// explicit external collaborator (spec.md §1); this stand-in simply trusts
// an X-Microsub-Owner header, the seam a real auth middleware would occupy
// in production.
func devOwnerStub(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get("X-Microsub-Owner")
		if owner != "" {
			r = r.WithContext(microsub.WithOwner(r.Context(), owner))
		}
		next.ServeHTTP(w, r)
	})
}

func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// runServer starts the HTTP server and handles graceful shutdown, grounded
// on the teacher's cmd/api/main.go runServer.
func runServer(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, handler http.Handler, rl *microsub.InboundRateLimiter) {
	cleanupCfg := hhttp.LoadCleanupConfigFromEnv()
	if rl != nil {
		go hhttp.StartRateLimitCleanup(ctx, rl.Store(), cleanupCfg.Interval, rl.Window(), "inbound")
	}

	addr := ":" + config.GetEnvString("PORT", "8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
