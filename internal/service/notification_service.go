package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/booking-service/internal/config"
	"github.com/spec-kit/booking-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSlotPublished, n.handleSlotPublished)
	n.dispatcher.Subscribe(events.EventSlotBooked, n.handleSlotBooked)
	n.dispatcher.Subscribe(events.EventSlotStatusChanged, n.handleSlotStatusChanged)
	n.dispatcher.Subscribe(events.EventSlotRescheduled, n.handleSlotRescheduled)
	n.dispatcher.Subscribe(events.EventSlotDeleted, n.handleSlotDeleted)
}

func (n *NotificationService) handleSlotPublished(ctx context.Context, event events.Event) error {
	n.logger.Info("SlotPublished", zap.String("slot_id", event.SlotID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSlotBooked(ctx context.Context, event events.Event) error {
	n.logger.Info("SlotBooked", zap.String("slot_id", event.SlotID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSlotStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("SlotStatusChanged", zap.String("slot_id", event.SlotID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSlotRescheduled(ctx context.Context, event events.Event) error {
	n.logger.Info("SlotRescheduled", zap.String("slot_id", event.SlotID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSlotDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("SlotDeleted", zap.String("slot_id", event.SlotID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("slot_id", event.SlotID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("slot_id", event.SlotID),
		zap.String("event_type", string(event.Type)))
}
