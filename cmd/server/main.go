// main wires the registration engine: configuration, stores, services, the
// HTTP router, and the background workers. Business logic lives in the
// internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"examreg/internal/assertion"
	"examreg/internal/audit"
	"examreg/internal/examsession"
	examsessionhandler "examreg/internal/examsession/handler"
	"examreg/internal/importer"
	"examreg/internal/otp"
	otphandler "examreg/internal/otp/handler"
	"examreg/internal/platform/config"
	"examreg/internal/platform/httpserver"
	"examreg/internal/platform/logger"
	platformredis "examreg/internal/platform/redis"
	"examreg/internal/ratelimit"
	"examreg/internal/registration"
	registrationhandler "examreg/internal/registration/handler"
	"examreg/internal/student"
	studenthandler "examreg/internal/student/handler"
	httptransport "examreg/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Backing stores: Postgres and Redis when configured, in-memory
	// fallbacks for local development.
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var (
		studentStore      student.Store
		sessionStore      examsession.Store
		registrationStore registration.Store
		auditStore        audit.Store
	)
	if db != nil {
		studentStore = student.NewPostgresStore(db)
		sessionStore = examsession.NewPostgresStore(db)
		registrationStore = registration.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
	} else {
		log.Warn("no DATABASE_URL configured, using in-memory stores")
		studentStore = student.NewInMemoryStore()
		sessionStore = examsession.NewInMemoryStore()
		registrationStore = registration.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
	}

	var (
		otpStore  otp.Store
		usedStore assertion.UsedStore
		limiter   ratelimit.Limiter
	)
	otpMemory := otp.NewInMemoryStore()
	if redisClient != nil {
		otpStore = otp.NewRedisStore(redisClient.Client)
		usedStore = assertion.NewRedisUsedStore(redisClient.Client)
		limiter = ratelimit.NewRedisLimiter(redisClient.Client)
	} else {
		log.Warn("no REDIS_URL configured, using in-memory challenge stores")
		otpStore = otpMemory
		usedStore = assertion.NewInMemoryUsedStore()
		limiter = ratelimit.NewInMemoryLimiter()
	}

	// Audit pipeline: services emit onto a buffered channel, the worker
	// drains it into the store.
	auditPublisher := audit.NewPublisher(1024)
	auditWorker := audit.NewWorker(auditStore, auditPublisher.Inbox(), log)

	assertions := assertion.NewService(cfg.Assertion.SigningKey, cfg.Assertion.TTL, usedStore)

	otpService := otp.NewService(
		otpStore, limiter, otp.LogSender{Logger: log}, assertions,
		otp.Config{
			TTL:         cfg.OTP.TTL,
			CodeLength:  cfg.OTP.CodeLength,
			IssueLimit:  cfg.OTP.IssueLimit,
			IssueWindow: cfg.OTP.IssueWindow,
		},
		otp.WithLogger(log),
		otp.WithAuditPublisher(auditPublisher),
		otp.WithMetrics(otp.NewMetrics()),
	)

	studentService := student.NewService(studentStore, student.WithLogger(log))

	sessionService := examsession.NewService(sessionStore, cfg.CutoffWindow,
		examsession.WithLogger(log),
		examsession.WithAuditPublisher(auditPublisher),
		examsession.WithMetrics(examsession.NewMetrics()),
	)

	registrationService := registration.NewService(
		registrationStore, sessionService, studentService, assertions,
		registration.WithLogger(log),
		registration.WithAuditPublisher(auditPublisher),
		registration.WithMetrics(registration.NewMetrics()),
	)

	importPipeline := importer.NewPipeline(studentService, cfg.ImportBatchSize,
		importer.WithLogger(log))

	otpH := otphandler.New(otpService, log)
	studentH := studenthandler.New(studentService, importPipeline, log)
	sessionH := examsessionhandler.New(sessionService, log)
	registrationH := registrationhandler.New(registrationService, log)

	health := map[string]httptransport.HealthChecker{}
	if db != nil {
		health["database"] = func() error { return db.Ping() }
	}
	if redisClient != nil {
		health["redis"] = func() error { return redisClient.Health(context.Background()) }
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:     log,
		AdminToken: cfg.AdminToken,
		Public:     []httptransport.FeatureHandler{otpH, studentH, sessionH, registrationH},
		Admin:      []httptransport.AdminHandler{studentH, sessionH, registrationH},
		Health:     health,
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		if err := auditWorker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	// Expired in-memory challenges need periodic reclamation; Redis keys
	// expire on their own.
	if otpStore == otpMemory {
		group.Go(func() error {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-groupCtx.Done():
					return nil
				case <-ticker.C:
					otpMemory.Cleanup(groupCtx)
				}
			}
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
