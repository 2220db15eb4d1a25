package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/telebot.v3"

	"staff_record_notifier/internal/app"
	"staff_record_notifier/internal/infra/config"
	"staff_record_notifier/internal/infra/content"
	idb "staff_record_notifier/internal/infra/database"
	"staff_record_notifier/internal/infra/httpapi"
	applogger "staff_record_notifier/internal/infra/logger"
	inframailer "staff_record_notifier/internal/infra/mailer"
	"staff_record_notifier/internal/infra/scheduler"
	infratelegram "staff_record_notifier/internal/infra/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		applogger.Get().Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	applogger.Init(cfg)
	log := applogger.Get()
	log.Infof("Configuration loaded. Environment: %s, HTTP: %s", cfg.Environment, cfg.HTTPListenAddr)

	// Database and repositories
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	periodRepo := idb.NewPostgresPeriodRepository(db)
	staffRepo := idb.NewPostgresStaffRepository(db)
	ledger := idb.NewPostgresAlertLedger(db)

	// Transport, content and dispatch pipeline
	mailClient := inframailer.NewSMTPClient(inframailer.SMTPConfig{
		Host:         cfg.SMTPHost,
		Port:         cfg.SMTPPort,
		Username:     cfg.SMTPUsername,
		Password:     cfg.SMTPPassword,
		From:         cfg.SMTPFrom,
		MaxPerSecond: cfg.SMTPMaxPerSecond,
	})
	renderer := content.NewRenderer(cfg.OversightEmails)
	sender := app.NewRetryingSender(mailClient, renderer, app.RetryConfig{
		MaxRetries:     cfg.SenderMaxRetries,
		AttemptTimeout: cfg.SenderAttemptTimeout,
		RetryDelay:     cfg.SenderRetryDelay,
	}, log)
	dispatcher := app.NewDispatcher(sender, ledger, log)

	// Optional alarm paging
	var pager app.Pager
	if cfg.TelegramToken != "" {
		bot, err := telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		})
		if err != nil {
			log.WithError(err).Warn("Could not create Telegram bot, alarm paging disabled")
		} else {
			pager = infratelegram.NewTelebotPager(bot, cfg.AdminTelegramID)
			log.Info("Telegram alarm paging enabled")
		}
	}

	service := app.NewNotifierService(
		periodRepo, staffRepo, ledger,
		sender, dispatcher, renderer,
		app.AlarmConfig{
			WarningRate:  cfg.AlarmWarningRate,
			CriticalRate: cfg.AlarmCriticalRate,
			MaxFailed:    cfg.AlarmMaxFailed,
		},
		pager, log,
	)

	// Scheduled trigger
	trigger := scheduler.NewRunTrigger(service, log, cfg.CronSpecDailyRun)
	if err := trigger.Start(); err != nil {
		log.Fatalf("FATAL: Could not start dispatch scheduler: %v", err)
	}

	// HTTP trigger boundary
	srv := &http.Server{
		Addr:    cfg.HTTPListenAddr,
		Handler: httpapi.NewRouter(service, log),
	}
	go func() {
		log.Infof("HTTP server listening on %s", cfg.HTTPListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: HTTP server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	trigger.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}
	log.Info("Application shut down gracefully")
}
