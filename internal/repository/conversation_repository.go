package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/antonkudinov/linkmarket-backend/internal/models"
	"github.com/antonkudinov/linkmarket-backend/internal/pkg/apperror"
)

// ConversationRepository хранит треды общения по заявкам. Ядро создаёт тред
// при принятии заявки; сами сообщения обслуживаются внешним шлюзом.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository создаёт экземпляр репозитория.
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// EnsureForRequest создаёт тред по заявке, если его ещё нет.
func (r *ConversationRepository) EnsureForRequest(ctx context.Context, requestID, advertiserID, publisherID uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `
		INSERT INTO conversations (purchase_request_id, advertiser_id, publisher_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (purchase_request_id) DO UPDATE SET purchase_request_id = EXCLUDED.purchase_request_id
		RETURNING *
	`, requestID, advertiserID, publisherID)
	if err != nil {
		return nil, fmt.Errorf("conversation repository: ensure for request %w", err)
	}
	return &conv, nil
}

// GetByRequestID возвращает тред по заявке.
func (r *ConversationRepository) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT * FROM conversations WHERE purchase_request_id = $1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.ErrCodeNotFound, "тред общения не найден")
	}
	if err != nil {
		return nil, fmt.Errorf("conversation repository: get by request %w", err)
	}
	return &conv, nil
}
