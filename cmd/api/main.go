package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/card-service/internal/config"
	"github.com/Dan9191/card-service/internal/handler"
	"github.com/Dan9191/card-service/internal/integrations/cbr"
	"github.com/Dan9191/card-service/internal/jobs"
	"github.com/Dan9191/card-service/internal/metrics"
	"github.com/Dan9191/card-service/internal/middleware"
	"github.com/Dan9191/card-service/internal/repository"
	"github.com/Dan9191/card-service/internal/service"
	"github.com/Dan9191/card-service/internal/utils"
	"github.com/Dan9191/card-service/internal/utils/email"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

type store interface {
	service.Store
	Ping(ctx context.Context) error
}

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize storage
	var st store
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		st = repository.NewMemory()
	default:
		db, err := openDatabase(cfg, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()

		key, err := utils.ParseKey(cfg.EncryptionKey)
		if err != nil {
			logger.Fatalf("Invalid ENCRYPTION_KEY: %v", err)
		}
		st = repository.NewRepository(db, key, cfg.HMACSecret)
	}

	// Initialize layers
	m := metrics.New()
	keyRate := cbr.NewCBRClient(cfg.CBRURL, cfg.KeyRateMargin, logger)
	fraud := service.NewFraudService(st, service.DefaultRules(st), logger, m)
	auth := service.NewAuthService(st, logger, cfg.JWTSecret)
	h := handler.NewHandler(handler.Services{
		Cards:      service.NewCardService(st, logger, m),
		Operations: service.NewOperationService(st, st, logger, m),
		Fraud:      fraud,
		Reports:    service.NewReportService(st, st, st, keyRate, logger),
		Clients:    service.NewClientService(st, logger),
		Auth:       auth,
		KeyRate:    keyRate,
		Ping:       st.Ping,
	}, logger)

	// Background jobs
	scheduler := jobs.NewScheduler(logger)
	if cfg.DigestEnabled() {
		sender := email.NewSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SenderEmail,
		}, logger)
		digest := jobs.NewAlertDigest(fraud, sender, cfg.SecurityEmail, time.Now().UTC(), logger, m)
		if err := scheduler.AddTask(cfg.DigestSchedule, digest); err != nil {
			logger.Fatalf("Failed to schedule alert digest: %v", err)
		}
	} else {
		logger.Info("Alert digest disabled: SMTP_HOST or SECURITY_EMAIL not set")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(logger, m))
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	h.Routes(r, middleware.AuthMiddleware(auth, logger))

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}

func openDatabase(cfg *config.Config, logger *logrus.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Migrate {
		if err := repository.RunMigrations(db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Database migrations applied")
	}
	return db, nil
}
