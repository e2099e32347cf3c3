package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/pet-adoption/internal/config"
	"github.com/spec-kit/pet-adoption/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
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
	n.dispatcher.Subscribe(events.EventPetCreated, n.handleCatalogChange)
	n.dispatcher.Subscribe(events.EventPetUpdated, n.handleCatalogChange)
	n.dispatcher.Subscribe(events.EventPetDeleted, n.handleCatalogChange)
	n.dispatcher.Subscribe(events.EventAdoptionSubmitted, n.handleAdoptionSubmitted)
	n.dispatcher.Subscribe(events.EventAdoptionDecided, n.handleAdoptionDecided)
}

func (n *NotificationService) handleCatalogChange(ctx context.Context, event events.Event) error {
	n.logger.Info("PetCatalogChanged",
		zap.String("event_type", string(event.Type)),
		zap.String("pet_id", event.PetID),
		zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleAdoptionSubmitted(ctx context.Context, event events.Event) error {
	n.logger.Info("AdoptionSubmitted",
		zap.String("application_id", event.ApplicationID),
		zap.String("pet_id", event.PetID),
		zap.String("user_id", event.Actor.UserID))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleAdoptionDecided(ctx context.Context, event events.Event) error {
	n.logger.Info("AdoptionDecided",
		zap.String("application_id", event.ApplicationID),
		zap.String("pet_id", event.PetID),
		zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("application_id", event.ApplicationID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
}
