package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/antonkudinov/linkmarket-backend/internal/logger"
	"github.com/antonkudinov/linkmarket-backend/internal/models"
)

// ConversationRepository описывает хранилище тредов общения по заявкам.
type ConversationRepository interface {
	EnsureForRequest(ctx context.Context, requestID, advertiserID, publisherID uuid.UUID) (*models.Conversation, error)
	GetByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Conversation, error)
}

// NotificationSink принимает уведомления для пользователя.
type NotificationSink interface {
	Push(ctx context.Context, userID uuid.UUID, payload any) error
}

// ConversationService — шлюз жизненного цикла заявок: заводит тред общения
// при принятии заявки и рассылает событийные уведомления обеим сторонам.
// Реализует LifecycleGateway; все сбои здесь только логируются, доставка
// уведомлений не участвует в транзакциях ядра.
type ConversationService struct {
	repo          ConversationRepository
	notifications NotificationSink
}

// NewConversationService создаёт шлюз жизненного цикла.
func NewConversationService(repo ConversationRepository, notifications NotificationSink) *ConversationService {
	return &ConversationService{repo: repo, notifications: notifications}
}

// Notify обрабатывает событие жизненного цикла заявки.
func (s *ConversationService) Notify(ctx context.Context, event models.LifecycleEvent) {
	if event.Event == models.EventRequestAccepted {
		if _, err := s.repo.EnsureForRequest(ctx,
			event.PurchaseRequestID, event.AdvertiserID, event.PublisherID); err != nil && logger.Log != nil {
			logger.Log.WithField("request_id", event.PurchaseRequestID).
				Errorf("не удалось создать тред общения: %v", err)
		}
	}

	if s.notifications == nil {
		return
	}
	for _, userID := range []uuid.UUID{event.AdvertiserID, event.PublisherID} {
		if err := s.notifications.Push(ctx, userID, event); err != nil && logger.Log != nil {
			logger.Log.WithField("user_id", userID).
				Errorf("не удалось доставить уведомление %s: %v", event.Event, err)
		}
	}
}

// GetByRequestID возвращает тред общения по заявке.
func (s *ConversationService) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Conversation, error) {
	return s.repo.GetByRequestID(ctx, requestID)
}
