package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"outreach-engine-go/internal/compliance"
	"outreach-engine-go/internal/config"
	"outreach-engine-go/internal/counter"
	"outreach-engine-go/internal/handlers"
	"outreach-engine-go/internal/mailer"
	"outreach-engine-go/internal/metrics"
	"outreach-engine-go/internal/model"
	"outreach-engine-go/internal/outbox"
	"outreach-engine-go/internal/queue"
	"outreach-engine-go/internal/ratelimit"
	"outreach-engine-go/internal/render"
	"outreach-engine-go/internal/repository"
	"outreach-engine-go/internal/scheduler"
	"outreach-engine-go/internal/sendhealth"
)

func main() {
	// Configure logging
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Outreach Engine")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Configuration validation failed: %v", err)
	}

	// Initialize database
	db, err := initDatabase(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize metrics
	m := metrics.NewMetrics()

	repo := repository.New(db)
	counters := counter.NewGormStore(db)
	limiter := ratelimit.NewLimiter(counters, cfg.Sending.DailyLimit, cfg.Sending.DomainDailyLimit)
	health := sendhealth.NewMonitor(counters, cfg.Sending.ErrorSpikeLimit)
	evaluator := compliance.NewEvaluator(cfg.Compliance.RegionPolicies)

	// Initialize mail transport
	transport, err := newTransport(&cfg.Mailer)
	if err != nil {
		logrus.Fatalf("Failed to create mail transport: %v", err)
	}

	signature := render.Signature{
		Name:     cfg.Signature.Name,
		Title:    cfg.Signature.Title,
		Org:      cfg.Signature.Org,
		Website:  cfg.Signature.Website,
		Location: cfg.Signature.Location,
	}

	sender := outbox.NewSender(repo, transport, limiter, health, evaluator, m,
		signature, cfg.Sending.Enabled, cfg.Mailer.FromEmail, cfg.Mailer.FromName)

	// Initialize work queue
	jobQueue, err := queue.NewRabbitMQ(cfg.Queue.GetURL())
	if err != nil {
		logrus.Fatalf("Failed to connect to work queue: %v", err)
	}

	// Initialize scheduler. Exactly one engine process may run: the
	// loop has no distributed lock, so a second instance would
	// double-fire jobs.
	jobs := make([]scheduler.Job, 0, len(cfg.Scheduler.Jobs))
	for name, expr := range cfg.Scheduler.Jobs {
		jobs = append(jobs, scheduler.Job{Name: name, Schedule: expr})
	}
	engine := scheduler.NewEngine(scheduler.NewGormStore(db), jobQueue, m)
	loop := scheduler.NewLoop(engine, jobs, cfg.Scheduler.PollInterval)

	// Initialize HTTP handlers
	h := handlers.NewHandlers(db, repo, sender, loop)

	// Setup HTTP server
	router := setupRouter(h)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start scheduler
	if err := loop.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop scheduler
	if err := loop.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	loop.Wait()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	// Close queue connection
	if err := jobQueue.Close(); err != nil {
		logrus.Errorf("Failed to close queue connection: %v", err)
	}

	logrus.Info("Server stopped gracefully")
}

// initDatabase initializes the database connection and runs migrations
func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	// Configure GORM logger
	gormLogger := logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	// Connect to database
	db, err := gorm.Open(mysql.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB for connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Run migrations
	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logrus.Info("Database initialized successfully")
	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	// Auto migrate all models
	if err := db.AutoMigrate(
		&model.Company{},
		&model.Lead{},
		&model.OutboxDraft{},
		&model.Outreach{},
		&model.Suppression{},
		&model.AuditEntry{},
		&model.RateCounter{},
		&model.JobSchedule{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

// newTransport selects the configured mail transport
func newTransport(cfg *config.MailerConfig) (mailer.Sender, error) {
	switch cfg.Provider {
	case "smtp":
		logrus.Info("Using SMTP mail transport")
		return mailer.NewSMTPSender(cfg), nil
	default:
		logrus.Info("Using Gmail API mail transport")
		return mailer.NewGmailSender(cfg)
	}
}

// setupRouter sets up the HTTP router with middleware
func setupRouter(h *handlers.Handlers) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	// Create router
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware())

	// Setup routes
	h.SetupRoutes(router)

	return router
}

// loggerMiddleware adds logging middleware
func loggerMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	})
}
