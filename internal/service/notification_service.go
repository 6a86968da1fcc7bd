package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/antonkudinov/linkmarket-backend/internal/models"
	"github.com/antonkudinov/linkmarket-backend/internal/pkg/apperror"
)

// NotificationRepository описывает хранилище уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// WSNotifier доставляет уведомление пользователю в реальном времени.
type WSNotifier interface {
	BroadcastToUser(userID uuid.UUID, payload []byte)
}

// NotificationService создаёт уведомления и доставляет их онлайн-клиентам.
type NotificationService struct {
	repo     NotificationRepository
	notifier WSNotifier
}

// NewNotificationService создаёт сервис уведомлений.
func NewNotificationService(repo NotificationRepository, notifier WSNotifier) *NotificationService {
	return &NotificationService{repo: repo, notifier: notifier}
}

// Push сохраняет уведомление и отправляет его в WebSocket-канал
// пользователя, если тот подключён.
func (s *NotificationService) Push(ctx context.Context, userID uuid.UUID, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать уведомление")
	}

	n := &models.Notification{UserID: userID, Payload: raw}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.BroadcastToUser(userID, raw)
	}
	return nil
}

// List возвращает уведомления пользователя.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, userID, limit, offset, unreadOnly)
}

// MarkAsRead отмечает уведомление прочитанным. Чужие уведомления недоступны.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return apperror.ErrForbidden
	}
	return s.repo.MarkAsRead(ctx, id)
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
