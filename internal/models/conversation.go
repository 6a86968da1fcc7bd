package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Conversation описывает тред общения рекламодателя и издателя по заявке.
// Ядро только создаёт тред и шлёт в него события жизненного цикла,
// транспорт сообщений лежит за пределами ядра.
type Conversation struct {
	ID                uuid.UUID `db:"id" json:"id"`
	PurchaseRequestID uuid.UUID `db:"purchase_request_id" json:"purchase_request_id"`
	AdvertiserID      uuid.UUID `db:"advertiser_id" json:"advertiser_id"`
	PublisherID       uuid.UUID `db:"publisher_id" json:"publisher_id"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// Notification описывает событие, отправленное пользователю.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// LifecycleEvent — уведомление внешним шлюзам о переходе заявки.
type LifecycleEvent struct {
	PurchaseRequestID uuid.UUID `json:"purchase_request_id"`
	AdvertiserID      uuid.UUID `json:"advertiser_id"`
	PublisherID       uuid.UUID `json:"publisher_id"`
	Event             string    `json:"event"`
}

// События жизненного цикла для внешних шлюзов.
const (
	EventRequestAccepted   = "request_accepted"
	EventRequestRejected   = "request_rejected"
	EventRequestCancelled  = "request_cancelled"
	EventArticleReady      = "article_ready"
	EventPlacementComplete = "placement_completed"
	EventDisputeOpened     = "dispute_opened"
	EventDisputeResolved   = "dispute_resolved"
)
