package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"selinggonet_notification_service/internal/app"
	"selinggonet_notification_service/internal/domain/notification"
	"selinggonet_notification_service/internal/infra/api"
	"selinggonet_notification_service/internal/infra/config"
	idb "selinggonet_notification_service/internal/infra/database"
	"selinggonet_notification_service/internal/infra/fcm"
	"selinggonet_notification_service/internal/infra/logger"
	"selinggonet_notification_service/internal/infra/realtime"
	"selinggonet_notification_service/internal/infra/scheduler"
	"selinggonet_notification_service/internal/infra/whatsapp"
)

func main() {
	fmt.Println("Selinggonet notification service starting...")

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	// Initialize Repositories
	subscriberRepo := idb.NewPostgresSubscriberRepository(db)
	tokenRepo := idb.NewPostgresDeviceTokenRepository(db)
	packageRepo := idb.NewPostgresPackageRepository(db)
	notificationRepo := idb.NewPostgresNotificationRepository(db)
	dashboardRepo := idb.NewPostgresDashboardRepository(db)
	log.Info("Repositories initialized.")

	// Initialize Delivery Adapters
	ctx := context.Background()
	pushClient := fcm.NewClient(ctx, cfg.FirebaseCredJSON, log)
	gatewayClient := whatsapp.NewClient(cfg.WhatsAppGatewayURL, cfg.ServiceRoleKey)
	log.Info("Delivery adapters initialized.")

	// Initialize Application Services
	pushReminders := app.NewPushReminderService(subscriberRepo, tokenRepo, pushClient, log)
	whatsAppReminders := app.NewWhatsAppReminderService(subscriberRepo, packageRepo, gatewayClient, log)
	activityService := app.NewActivityService(notificationRepo, notificationRepo, log)

	// Initialize ReminderScheduler
	reminderScheduler := scheduler.NewReminderScheduler(pushReminders, whatsAppReminders, log, cfg.CronSpecReminders)
	reminderScheduler.Start()

	// Optionally keep a live relay session open for the configured admin,
	// mirroring notification traffic into the log stream.
	var relay *app.NotificationRelay
	if cfg.AdminUserID != "" {
		adminID, err := uuid.Parse(cfg.AdminUserID)
		if err != nil {
			log.Fatalf("FATAL: Invalid ADMIN_USER_ID: %v", err)
		}
		opener := realtime.NewOpener(cfg.DatabaseURL, cfg.RelayQueueSize, log)
		openChannel := func(ctx context.Context) (app.EventChannel, error) {
			return opener.Open(ctx)
		}
		relay = app.NewNotificationRelay(openChannel, notificationRepo, &logUI{log: log}, adminID, cfg.BadgePollInterval, log)
		if err := relay.Start(ctx); err != nil {
			log.Fatalf("FATAL: Could not start notification relay: %v", err)
		}
	}

	// Initialize HTTP function server
	server := api.NewServer(pushReminders, whatsAppReminders, subscriberRepo, tokenRepo, notificationRepo, dashboardRepo, activityService, log)
	go func() {
		log.Infof("HTTP server listening on :%s", cfg.HTTPPort)
		if err := server.Listen(":" + cfg.HTTPPort); err != nil {
			log.Fatalf("FATAL: HTTP server stopped: %v", err)
		}
	}()

	log.Info("Application setup complete.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	reminderScheduler.Stop()
	if relay != nil {
		relay.Stop()
	}
	if err := server.Shutdown(); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}
	// db.Close() is handled by defer
	log.Info("Application shut down gracefully.")
}

// logUI renders relay effects into the service log; the ops tail of what an
// admin session would see as pop-ups and badge updates.
type logUI struct {
	log *logrus.Logger
}

func (u *logUI) ShowInstant(n *notification.Notification, _ time.Duration) {
	u.log.Infof("[notification] %s: %s", n.Title, n.Body)
}

func (u *logUI) ShowActivity(a *notification.ActivityEntry, _ time.Duration) {
	u.log.Infof("[activity] %s", a.Description)
}

func (u *logUI) UpdateBadge(unread int) {
	u.log.Debugf("[badge] %d unread", unread)
}
