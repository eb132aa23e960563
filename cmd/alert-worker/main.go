package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendtrack/internal/config"
	"spendtrack/internal/core"
	applog "spendtrack/internal/log"
	"spendtrack/internal/notify"
	"spendtrack/internal/storage"
)

// The alert worker consumes expense events and raises budget and
// large-expense alerts according to each owner's notification settings.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting alert-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the alert worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := notify.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alerter := &alerter{
		storage:   repo,
		threshold: cfg.LargeExpenseThreshold,
		logger:    logger,
	}

	go func() {
		if err := client.ConsumeExpenseEvents(ctx, alerter.handle); err != nil {
			if err != context.Canceled {
				logger.Error("Event consumption failed", "error", err)
			}
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	time.Sleep(time.Second)
	logger.Info("Worker shutdown complete")
}

type alerter struct {
	storage   *storage.SQLiteRepository
	threshold float64
	logger    *applog.Logger
}

// handle evaluates one expense event against the owner's notification
// settings. Errors are returned so the delivery is requeued.
func (a *alerter) handle(ev *notify.ExpenseEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	settings, found, err := a.storage.GetSettings(ctx, ev.Token)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	if settings.Notifications.LargeExpense && ev.Amount >= a.threshold {
		a.logger.WarnContext(ctx, "Large expense alert",
			"category", ev.Category,
			"amount", ev.Amount,
			"threshold", a.threshold)
	}

	if settings.Notifications.BudgetAlert && settings.Budget != nil && *settings.Budget > 0 {
		spent, err := a.monthSpent(ctx, ev.Token)
		if err != nil {
			return err
		}
		if spent > *settings.Budget {
			a.logger.WarnContext(ctx, "Budget exceeded alert",
				"spent", spent,
				"budget", *settings.Budget)
		}
	}

	return nil
}

// monthSpent totals the owner's expenses in the default 30-day window.
func (a *alerter) monthSpent(ctx context.Context, token string) (float64, error) {
	all, err := a.storage.ListExpenses(ctx, token)
	if err != nil {
		return 0, err
	}
	windowed, err := core.ExpensesSince(all, core.PeriodStart(time.Now().UTC(), "month"))
	if err != nil {
		return 0, err
	}
	var spent float64
	for _, e := range windowed {
		spent += e.Amount
	}
	return spent, nil
}
