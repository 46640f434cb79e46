package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"outreach-engine-go/internal/compliance"
	"outreach-engine-go/internal/config"
	"outreach-engine-go/internal/counter"
	"outreach-engine-go/internal/mailer"
	"outreach-engine-go/internal/metrics"
	"outreach-engine-go/internal/outbox"
	"outreach-engine-go/internal/outreach"
	"outreach-engine-go/internal/queue"
	"outreach-engine-go/internal/ratelimit"
	"outreach-engine-go/internal/render"
	"outreach-engine-go/internal/repository"
	"outreach-engine-go/internal/sendhealth"
)

// The worker consumes pipeline jobs from the shared queue. Multiple
// worker processes may run concurrently: the only state they share is
// the counter store and the queue itself.
func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Outreach Worker")

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Configuration validation failed: %v", err)
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	m := metrics.NewMetrics()
	repo := repository.New(db)
	counters := counter.NewGormStore(db)
	limiter := ratelimit.NewLimiter(counters, cfg.Sending.DailyLimit, cfg.Sending.DomainDailyLimit)
	health := sendhealth.NewMonitor(counters, cfg.Sending.ErrorSpikeLimit)
	evaluator := compliance.NewEvaluator(cfg.Compliance.RegionPolicies)

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

	processor := outreach.NewProcessor(transport, repo, limiter, evaluator, repo,
		cfg.Mailer.FromEmail, cfg.Mailer.FromName)
	stage := outreach.NewStage(repo, processor, cfg.Sending.Enabled)

	jobQueue, err := queue.NewRabbitMQ(cfg.Queue.GetURL())
	if err != nil {
		logrus.Fatalf("Failed to connect to work queue: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	handlers := map[string]queue.Handler{
		queue.JobSendOutbox: func(ctx context.Context, payload queue.Payload) error {
			logrus.Infof("Running send_outbox batch (%s)", payload.JobID)
			return sender.Run(ctx)
		},
		queue.JobOutreach: func(ctx context.Context, payload queue.Payload) error {
			logrus.Infof("Running outreach batch (%s)", payload.JobID)
			return stage.Run(ctx)
		},
		// Discovery, qualification and enrichment run in sibling
		// services; their queues are drained here so a shared broker
		// never backs up when those services are absent.
		queue.JobDiscover: noopHandler(queue.JobDiscover),
		queue.JobQualify:  noopHandler(queue.JobQualify),
		queue.JobEnrich:   noopHandler(queue.JobEnrich),
	}

	go func() {
		if err := jobQueue.Consume(ctx, handlers); err != nil {
			logrus.Errorf("Queue consumer stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down worker...")
	cancel()

	if err := jobQueue.Close(); err != nil {
		logrus.Errorf("Failed to close queue connection: %v", err)
	}

	logrus.Info("Worker stopped gracefully")
}

func noopHandler(jobName string) queue.Handler {
	return func(ctx context.Context, payload queue.Payload) error {
		logrus.Infof("Job %s (%s) acknowledged without local handler", jobName, payload.JobID)
		return nil
	}
}

func openDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(mysql.Open(cfg.GetDSN()), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

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
