package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"selinggonet_notification_service/internal/app"
)

// ReminderJob is one due-date reminder variant (push or WhatsApp).
type ReminderJob interface {
	ProcessDueReminders(ctx context.Context, now time.Time) (app.DeliveryReport, error)
}

// ReminderScheduler triggers both reminder variants on a shared daily cron
// spec. The jobs themselves are stateless between runs: a missed run is not
// backfilled, the next day's run recomputes eligibility from scratch.
type ReminderScheduler struct {
	cronEngine  *cron.Cron
	pushJob     ReminderJob
	whatsAppJob ReminderJob
	logger      *logrus.Logger
	cronSpec    string // e.g. "0 8 * * *" (08:00 daily)
}

func NewReminderScheduler(
	pushJob ReminderJob,
	whatsAppJob ReminderJob,
	logger *logrus.Logger,
	cronSpec string,
) *ReminderScheduler {
	return &ReminderScheduler{
		cronEngine:  cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		pushJob:     pushJob,
		whatsAppJob: whatsAppJob,
		logger:      logger,
		cronSpec:    cronSpec,
	}
}

func (s *ReminderScheduler) Start() {
	s.logger.Info("Starting reminder scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for daily due-date reminders.")
		s.runJob("push", s.pushJob)
		s.runJob("whatsapp", s.whatsAppJob)
	})
	if err != nil {
		s.logger.Fatalf("Could not add daily reminder cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Infof("Reminder scheduler started with spec %q.", s.cronSpec)
}

// runJob executes one variant with its own timeout. The two variants are
// independent: a failed push run never stops the WhatsApp run.
func (s *ReminderScheduler) runJob(name string, job ReminderJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := job.ProcessDueReminders(ctx, time.Now())
	if err != nil {
		s.logger.Errorf("Reminder run (%s) failed: %v", name, err)
		return
	}
	s.logger.Infof("Reminder run (%s) finished: %s", name, report.Message)
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // Stops scheduling new runs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Reminder scheduler gracefully stopped.")
}
