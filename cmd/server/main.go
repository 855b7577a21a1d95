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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/config"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/api/handler"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/api/router"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/metrics"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/repository"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/scheduler"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/service"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/database"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/jwt"
	applogger "github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/logger"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/redis"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/tracing"
)

func main() {
	// 1. config
	cfg, err := config.Load(os.Getenv("THESIS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	loc, _ := cfg.Scheduler.Location()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("timezone", loc.String()),
	)

	// 3. tracing
	shutdownTracing, err := tracing.Init(context.Background(), &cfg.Tracing, applogger.Component(logger, "tracing"))
	if err != nil {
		logger.Fatal("tracing init failed", zap.Error(err))
	}

	// 4. database
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// 5. redis (optional: without it locks are per-instance and the token
	// blacklist and rate limit are skipped)
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, running single-instance", zap.Error(err))
			rdb = nil
		}
	}

	var locker service.PhaseLocker
	if rdb != nil {
		locker = service.NewRedisLocker(rdb, cfg.Scheduler.LockTTL, applogger.Component(logger, "phase-lock"))
	} else {
		locker = service.NewLocalLocker()
	}

	// 6. jwt
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 7. metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 8. Repository → engine → scheduler → Service → Handler
	repo := repository.NewRepository(db)
	engine := service.NewTransitionService(repo.Cases, locker, m, applogger.Component(logger, "transition"))

	var (
		sched     *scheduler.Scheduler
		phaseSync service.PhaseScheduler
	)
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(engine, repo.Cases, loc, m, applogger.Component(logger, "scheduler"))
		startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := sched.Start(startCtx)
		cancel()
		if err != nil {
			logger.Fatal("scheduler start failed", zap.Error(err))
		}
		phaseSync = sched
	} else {
		logger.Warn("phase scheduler disabled, transitions only run on demand")
	}

	svc := service.NewService(repo, engine, phaseSync, loc, logger)
	h := handler.NewHandler(svc)

	// 9. router
	r := router.Setup(cfg, h, jwtMgr, rdb, reg, logger)

	// 10. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		if sched != nil {
			sched.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", zap.Error(err))
	}

	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("server stopped")
}
