// Package api exposes the service's HTTP surface: the scheduled-function
// invocation endpoints and the thin client API (device registration, badge
// state, dashboard pass-throughs).
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"selinggonet_notification_service/internal/app"
	"selinggonet_notification_service/internal/domain/dashboard"
	"selinggonet_notification_service/internal/domain/device"
	"selinggonet_notification_service/internal/domain/notification"
	"selinggonet_notification_service/internal/domain/subscriber"
	idb "selinggonet_notification_service/internal/infra/database"
)

// reminderJob is one due-date reminder variant, invokable over HTTP the way
// the platform scheduler invokes it.
type reminderJob interface {
	ProcessDueReminders(ctx context.Context, now time.Time) (app.DeliveryReport, error)
}

// Server wires the fiber app and its handlers.
type Server struct {
	app            *fiber.App
	pushJob        reminderJob
	whatsAppJob    reminderJob
	subscriberRepo subscriber.Repository
	tokenRepo      device.Repository
	notifRepo      notification.Repository
	dashboardRepo  dashboard.Repository
	activities     *app.ActivityService
	logger         *logrus.Logger
}

func NewServer(
	pushJob reminderJob,
	whatsAppJob reminderJob,
	subscriberRepo subscriber.Repository,
	tokenRepo device.Repository,
	notifRepo notification.Repository,
	dashboardRepo dashboard.Repository,
	activities *app.ActivityService,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		app:            fiber.New(fiber.Config{DisableStartupMessage: true}),
		pushJob:        pushJob,
		whatsAppJob:    whatsAppJob,
		subscriberRepo: subscriberRepo,
		tokenRepo:      tokenRepo,
		notifRepo:      notifRepo,
		dashboardRepo:  dashboardRepo,
		activities:     activities,
		logger:         logger,
	}

	s.app.Use(recover.New())

	s.app.Post("/functions/v1/payment-reminder", s.paymentReminderHandler)
	s.app.Post("/functions/v1/whatsapp-reminder", s.whatsAppReminderHandler)
	s.app.Post("/api/device-tokens", s.registerDeviceTokenHandler)
	s.app.Get("/api/subscribers/:id", s.subscriberProfileHandler)
	s.app.Get("/api/notifications/unread-count", s.unreadCountHandler)
	s.app.Post("/api/notifications/:id/read", s.markReadHandler)
	s.app.Get("/api/dashboard/stats", s.dashboardStatsHandler)
	s.app.Get("/api/dashboard/charts", s.dashboardChartsHandler)

	// Broadcast triggers invoked by the admin UI after billing actions.
	s.app.Post("/api/broadcasts/payment", s.paymentBroadcastHandler)
	s.app.Post("/api/broadcasts/invoices-created", s.invoiceBroadcastHandler)
	s.app.Post("/api/broadcasts/customer-added", s.customerAddedBroadcastHandler)
	s.app.Post("/api/broadcasts/admin-login", s.adminLoginBroadcastHandler)

	return s
}

// Listen serves until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// paymentReminderHandler runs the push reminder job. Per the scheduled-job
// contract only a fatal fetch error yields a 500; per-subscriber failures
// are folded into the summary message.
func (s *Server) paymentReminderHandler(c *fiber.Ctx) error {
	return s.runReminder(c, s.pushJob)
}

func (s *Server) whatsAppReminderHandler(c *fiber.Ctx) error {
	return s.runReminder(c, s.whatsAppJob)
}

func (s *Server) runReminder(c *fiber.Ctx, job reminderJob) error {
	report, err := job.ProcessDueReminders(c.UserContext(), time.Now())
	if err != nil {
		s.logger.Errorf("Reminder invocation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": report.Message})
}

type registerTokenRequest struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

func (s *Server) registerDeviceTokenHandler(c *fiber.Ctx) error {
	var req registerTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
	}
	if req.Token == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token is required")
	}

	if err := s.tokenRepo.Upsert(c.UserContext(), userID, req.Token); err != nil {
		s.logger.Errorf("Failed to register device token: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to register device token")
	}
	return c.SendStatus(fiber.StatusCreated)
}

type subscriberProfileResponse struct {
	ID               string `json:"id"`
	CustomerCode     string `json:"idpl"`
	FullName         string `json:"full_name"`
	WhatsAppNumber   string `json:"whatsapp_number,omitempty"`
	Status           string `json:"status"`
	InstallationDate string `json:"installation_date,omitempty"`
}

// subscriberProfileHandler serves the portal's profile view.
func (s *Server) subscriberProfileHandler(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid subscriber id")
	}

	sub, err := s.subscriberRepo.GetByID(c.UserContext(), id.String())
	if err != nil {
		if err == idb.ErrSubscriberNotFound {
			return fiber.NewError(fiber.StatusNotFound, "subscriber not found")
		}
		s.logger.Errorf("Failed to get subscriber: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to get subscriber")
	}

	resp := subscriberProfileResponse{
		ID:           sub.ID.String(),
		CustomerCode: sub.CustomerCode,
		FullName:     sub.FullName,
		Status:       string(sub.Status),
	}
	if sub.WhatsAppNumber.Valid {
		resp.WhatsAppNumber = sub.WhatsAppNumber.String
	}
	if sub.InstallationDate.Valid {
		resp.InstallationDate = sub.InstallationDate.Time.Format("2006-01-02")
	}
	return c.JSON(resp)
}

func (s *Server) unreadCountHandler(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
	}

	count, err := s.notifRepo.UnreadCount(c.UserContext(), userID)
	if err != nil {
		s.logger.Errorf("Failed to get unread count: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to get unread count")
	}
	return c.JSON(fiber.Map{"count": count})
}

type markReadRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) markReadHandler(c *fiber.Ctx) error {
	notificationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid notification id")
	}
	var req markReadRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
	}

	if err := s.notifRepo.MarkRead(c.UserContext(), notificationID, userID); err != nil {
		s.logger.Errorf("Failed to mark notification read: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to mark notification read")
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) dashboardStatsHandler(c *fiber.Ctx) error {
	month := c.QueryInt("month", 0) // 0 means the whole year
	year := c.QueryInt("year", time.Now().Year())

	stats, err := s.dashboardRepo.Stats(c.UserContext(), month, year)
	if err != nil {
		s.logger.Errorf("Failed to get dashboard stats: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to get dashboard stats")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(stats)
}

type paymentBroadcastRequest struct {
	AdminID       string `json:"admin_id"`
	AdminName     string `json:"admin_name"`
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerCode  string `json:"customer_code"`
	InvoiceID     string `json:"invoice_id"`
	InvoicePeriod string `json:"invoice_period"`
	Amount        int64  `json:"amount"`
}

func (s *Server) paymentBroadcastHandler(c *fiber.Ctx) error {
	var req paymentBroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	adminID, err := uuid.Parse(req.AdminID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid admin_id")
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid customer_id")
	}
	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid invoice_id")
	}

	p := notification.PaymentBroadcast{
		CustomerName:  req.CustomerName,
		CustomerCode:  req.CustomerCode,
		InvoicePeriod: req.InvoicePeriod,
		Amount:        req.Amount,
		CustomerID:    customerID,
		InvoiceID:     invoiceID,
	}
	if err := s.activities.NotifyPayment(c.UserContext(), adminID, req.AdminName, p); err != nil {
		s.logger.Errorf("Payment broadcast failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to send payment notification")
	}
	return c.JSON(fiber.Map{"success": true})
}

type invoiceBroadcastRequest struct {
	AdminID      string `json:"admin_id"`
	AdminName    string `json:"admin_name"`
	InvoiceCount int    `json:"invoice_count"`
	Period       string `json:"period"`
}

func (s *Server) invoiceBroadcastHandler(c *fiber.Ctx) error {
	var req invoiceBroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	adminID, err := uuid.Parse(req.AdminID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid admin_id")
	}

	if err := s.activities.NotifyInvoiceCreation(c.UserContext(), adminID, req.AdminName, req.InvoiceCount, req.Period); err != nil {
		s.logger.Errorf("Invoice creation broadcast failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to send invoice creation notification")
	}
	return c.JSON(fiber.Map{"success": true})
}

type customerAddedBroadcastRequest struct {
	AdminID      string `json:"admin_id"`
	AdminName    string `json:"admin_name"`
	CustomerName string `json:"customer_name"`
}

func (s *Server) customerAddedBroadcastHandler(c *fiber.Ctx) error {
	var req customerAddedBroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	adminID, err := uuid.Parse(req.AdminID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid admin_id")
	}

	if err := s.activities.NotifyCustomerAdded(c.UserContext(), adminID, req.AdminName, req.CustomerName); err != nil {
		s.logger.Errorf("Customer added broadcast failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to send customer added notification")
	}
	return c.JSON(fiber.Map{"success": true})
}

type adminLoginBroadcastRequest struct {
	AdminID   string `json:"admin_id"`
	AdminName string `json:"admin_name"`
}

func (s *Server) adminLoginBroadcastHandler(c *fiber.Ctx) error {
	var req adminLoginBroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	adminID, err := uuid.Parse(req.AdminID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid admin_id")
	}

	if err := s.activities.NotifyAdminLogin(c.UserContext(), adminID, req.AdminName); err != nil {
		s.logger.Errorf("Admin login broadcast failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to send admin login notification")
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) dashboardChartsHandler(c *fiber.Ctx) error {
	months := c.QueryInt("months", 6)

	series, err := s.dashboardRepo.ChartSeries(c.UserContext(), months)
	if err != nil {
		s.logger.Errorf("Failed to get chart series: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to get chart series")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(series)
}
