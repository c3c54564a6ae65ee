// internal/app/reminder_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"selinggonet_notification_service/internal/domain/billing"
	"selinggonet_notification_service/internal/domain/device"
	"selinggonet_notification_service/internal/domain/messaging"
	"selinggonet_notification_service/internal/domain/push"
	"selinggonet_notification_service/internal/domain/subscriber"
)

// DeliveryReport is the aggregate outcome of one reminder run. It is never
// persisted here; outcome persistence, if any, belongs to the backend.
type DeliveryReport struct {
	SuccessCount int
	FailureCount int
	Message      string
}

const (
	pushReminderTitle    = "Pengingat Pembayaran Selinggonet"
	pushReminderBodyTmpl = "Halo %s, sudah waktunya melakukan pembayaran tagihan internet Anda bulan ini. Terima kasih!"
)

// PushReminderService is the push-channel due-date reminder job.
type PushReminderService struct {
	subscriberRepo subscriber.Repository
	tokenRepo      device.Repository
	pushClient     push.Client
	logger         *logrus.Logger
}

func NewPushReminderService(
	sr subscriber.Repository,
	dr device.Repository,
	pc push.Client,
	logger *logrus.Logger,
) *PushReminderService {
	return &PushReminderService{
		subscriberRepo: sr,
		tokenRepo:      dr,
		pushClient:     pc,
		logger:         logger,
	}
}

// ProcessDueReminders runs one complete push reminder pass for the calendar
// day of now. Eligibility is recomputed from scratch on every run, so a
// rerun on the same day with unchanged data selects the same subscribers.
// Only the initial subscriber fetch is fatal; everything past it is isolated
// per subscriber and folded into the report's counters.
func (s *PushReminderService) ProcessDueReminders(ctx context.Context, now time.Time) (DeliveryReport, error) {
	s.logger.Infof("Checking push reminders due on day %d", now.Day())

	active, err := s.subscriberRepo.ListActive(ctx)
	if err != nil {
		return DeliveryReport{}, fmt.Errorf("failed to list active subscribers: %w", err)
	}

	due := filterDue(active, now)
	if len(due) == 0 {
		msg := "Tidak ada pengguna untuk dinotifikasi hari ini."
		s.logger.Info(msg)
		return DeliveryReport{Message: msg}, nil
	}
	s.logger.Infof("Found %d subscriber(s) due for a push reminder", len(due))

	// Resolve every subscriber's token set first; a failed or empty lookup
	// skips that subscriber without failing the run.
	type target struct {
		name   string
		tokens []string
	}
	targets := make([]target, 0, len(due))
	for _, sub := range due {
		tokens, err := s.tokenRepo.ListByUser(ctx, sub.ID)
		if err != nil {
			s.logger.Errorf("Failed to fetch device tokens for %s: %v", sub.FullName, err)
			continue
		}
		if len(tokens) == 0 {
			s.logger.Infof("Subscriber %s has no registered devices, skipping", sub.FullName)
			continue
		}
		tokenStrings := make([]string, 0, len(tokens))
		for _, t := range tokens {
			tokenStrings = append(tokenStrings, t.Token)
		}
		targets = append(targets, target{name: sub.FullName, tokens: tokenStrings})
	}

	if len(targets) == 0 {
		msg := "Tidak ada perangkat terdaftar untuk pengguna yang akan dinotifikasi."
		s.logger.Info(msg)
		return DeliveryReport{Message: msg}, nil
	}

	var successCount, failureCount int
	for _, t := range targets {
		body := fmt.Sprintf(pushReminderBodyTmpl, t.name)

		result, err := s.pushClient.SendMulticast(ctx, t.tokens, pushReminderTitle, body)
		if err != nil {
			// The whole multicast failed; every token of this
			// subscriber counts as a failure and the run continues.
			s.logger.Errorf("Failed to send push reminder to %s: %v", t.name, err)
			failureCount += len(t.tokens)
			continue
		}

		successCount += result.SuccessCount
		failureCount += result.FailureCount
		s.logger.Infof("Sent %d push notification(s) to %s", result.SuccessCount, t.name)
		if result.FailureCount > 0 {
			s.logger.Warnf("Failed to deliver %d push notification(s) to %s", result.FailureCount, t.name)
			// Rejected tokens are intentionally not pruned here; cleanup
			// is a manual operation on the backend.
		}
	}

	msg := fmt.Sprintf("Proses notifikasi selesai. Terkirim: %d, Gagal: %d.", successCount, failureCount)
	s.logger.Info(msg)
	return DeliveryReport{SuccessCount: successCount, FailureCount: failureCount, Message: msg}, nil
}

// WhatsAppReminderService is the messaging-channel due-date reminder job.
type WhatsAppReminderService struct {
	subscriberRepo subscriber.Repository
	packageRepo    billing.Repository
	gateway        messaging.Client
	logger         *logrus.Logger
}

func NewWhatsAppReminderService(
	sr subscriber.Repository,
	pr billing.Repository,
	gw messaging.Client,
	logger *logrus.Logger,
) *WhatsAppReminderService {
	return &WhatsAppReminderService{
		subscriberRepo: sr,
		packageRepo:    pr,
		gateway:        gw,
		logger:         logger,
	}
}

// ProcessDueReminders runs one complete WhatsApp reminder pass for the
// calendar day of now. The subscriber and package fetches are fatal;
// subscribers missing a WhatsApp number or a resolvable package price are
// skipped with a warning and touch neither counter. One gateway call per
// subscriber, continue-on-error.
func (s *WhatsAppReminderService) ProcessDueReminders(ctx context.Context, now time.Time) (DeliveryReport, error) {
	s.logger.Infof("Checking WhatsApp reminders due on day %d", now.Day())

	active, err := s.subscriberRepo.ListActive(ctx)
	if err != nil {
		return DeliveryReport{}, fmt.Errorf("failed to list active subscribers: %w", err)
	}

	due := filterDue(active, now)
	if len(due) == 0 {
		msg := "Tidak ada pengguna untuk dinotifikasi via WhatsApp hari ini."
		s.logger.Info(msg)
		return DeliveryReport{Message: msg}, nil
	}
	s.logger.Infof("Found %d subscriber(s) due for a WhatsApp reminder", len(due))

	// One bulk package fetch per run; prices are resolved from the map.
	packages, err := s.packageRepo.ListAll(ctx)
	if err != nil {
		return DeliveryReport{}, fmt.Errorf("failed to list packages: %w", err)
	}
	prices := make(map[string]int64, len(packages))
	for _, p := range packages {
		prices[p.ID.String()] = p.Price
	}

	period := formatPeriod(now)

	var successCount, failureCount int
	for _, sub := range due {
		var price int64
		ok := false
		if sub.PackageID.Valid {
			price, ok = prices[sub.PackageID.UUID.String()]
		}
		if !ok || !sub.WhatsAppNumber.Valid || sub.WhatsAppNumber.String == "" {
			s.logger.Warnf("Skipping %s: package price or WhatsApp number not found", sub.FullName)
			continue
		}

		message := composeBillReminder(sub, period, price)

		if err := s.gateway.Send(ctx, sub.WhatsAppNumber.String, message); err != nil {
			s.logger.Errorf("Failed to queue message for %s: %v", sub.FullName, err)
			failureCount++
			continue
		}
		s.logger.Infof("Queued bill reminder for %s", sub.FullName)
		successCount++
	}

	msg := fmt.Sprintf("Proses notifikasi WhatsApp selesai. Berhasil: %d, Gagal: %d.", successCount, failureCount)
	s.logger.Info(msg)
	return DeliveryReport{SuccessCount: successCount, FailureCount: failureCount, Message: msg}, nil
}

// filterDue narrows active subscribers to those whose bill is payable today.
func filterDue(subs []*subscriber.Subscriber, now time.Time) []*subscriber.Subscriber {
	due := make([]*subscriber.Subscriber, 0)
	for _, s := range subs {
		if subscriber.IsDue(s, now) {
			due = append(due, s)
		}
	}
	return due
}
