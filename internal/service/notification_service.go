package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/spec-kit/property-market/internal/config"
	"github.com/spec-kit/property-market/internal/events"
)

// MailSender delivers a prepared message.
type MailSender interface {
	Send(ctx context.Context, msg *mail.SGMailV3) error
}

type sendgridSender struct {
	client *sendgrid.Client
}

// NewSendGridSender returns a sender backed by the SendGrid v3 API, or nil
// when no API key is configured.
func NewSendGridSender(apiKey string) MailSender {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	return &sendgridSender{client: sendgrid.NewSendClient(apiKey)}
}

func (s *sendgridSender) Send(ctx context.Context, msg *mail.SGMailV3) error {
	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// NotificationService emails counterparties when workflow events happen.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     MailSender
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service. A nil sender logs messages
// instead of delivering them.
func NewNotificationService(dispatcher events.Dispatcher, sender MailSender, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		sender:     sender,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventOfferCreated, n.handleOfferCreated)
	n.dispatcher.Subscribe(events.EventOfferStatusChanged, n.handleOfferStatusChanged)
	n.dispatcher.Subscribe(events.EventPaymentRecorded, n.handlePaymentRecorded)
	n.dispatcher.Subscribe(events.EventAgentMarkedFraud, n.handleAgentMarkedFraud)
	n.dispatcher.Subscribe(events.EventAccountDeleted, n.handleAccountDeleted)
}

func (n *NotificationService) handleOfferCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.OfferCreatedPayload)
	if !ok {
		return nil
	}
	return n.send(ctx, event, payload.AgentEmail,
		"New offer on "+payload.PropertyTitle,
		fmt.Sprintf("%s offered %s for %s.", payload.BuyerName, payload.OfferAmount.StringFixed(2), payload.PropertyTitle))
}

func (n *NotificationService) handleOfferStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.OfferStatusChangedPayload)
	if !ok {
		return nil
	}
	return n.send(ctx, event, payload.BuyerEmail,
		fmt.Sprintf("Your offer was %s", payload.NewStatus),
		fmt.Sprintf("Your offer on %s is now %s.", payload.PropertyTitle, payload.NewStatus))
}

func (n *NotificationService) handlePaymentRecorded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PaymentRecordedPayload)
	if !ok {
		return nil
	}
	return n.send(ctx, event, payload.AgentEmail,
		"Property sold",
		fmt.Sprintf("%s paid %s (transaction %s).", payload.BuyerEmail, payload.Amount.StringFixed(2), payload.TransactionID))
}

func (n *NotificationService) handleAgentMarkedFraud(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AgentMarkedFraudPayload)
	if !ok {
		return nil
	}
	return n.send(ctx, event, payload.AgentEmail,
		"Your agent account was suspended",
		fmt.Sprintf("Your account was flagged and %d listing(s) were removed.", len(payload.DeletedProperties)))
}

func (n *NotificationService) handleAccountDeleted(_ context.Context, event events.Event) error {
	n.logger.Info("AccountDeleted", zap.String("user_id", event.SubjectID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) send(ctx context.Context, event events.Event, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return nil
	}
	if n.sender == nil {
		n.logger.Debug("email delivery disabled",
			zap.String("event_type", string(event.Type)),
			zap.String("to", to),
			zap.String("subject", subject))
		return nil
	}

	from := mail.NewEmail(n.cfg.FromName, n.cfg.EmailFrom)
	msg := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), body, "<p>"+html.EscapeString(body)+"</p>")
	if n.cfg.Sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Warn("notification delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("subject_id", event.SubjectID),
			zap.Error(err))
		return err
	}
	return nil
}
