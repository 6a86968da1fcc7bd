package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseRequest описывает заявку рекламодателя на размещение ссылки
// на площадке издателя. Создаётся рекламодателем, статус меняет только
// владеющая машина состояний.
type PurchaseRequest struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	AdvertiserID     uuid.UUID       `db:"advertiser_id" json:"advertiser_id"`
	PublisherID      uuid.UUID       `db:"publisher_id" json:"publisher_id"`
	ListingReference string          `db:"listing_reference" json:"listing_reference"`
	AnchorText       string          `db:"anchor_text" json:"anchor_text"`
	TargetURL        string          `db:"target_url" json:"target_url"`
	ProposedPrice    decimal.Decimal `db:"proposed_price" json:"proposed_price"`
	ProposedDuration int             `db:"proposed_duration" json:"proposed_duration"`
	ContentMode      ContentMode     `db:"content_mode" json:"content_mode"`
	Status           RequestStatus   `db:"status" json:"status"`
	ExtendedStatus   *ExtendedStatus `db:"extended_status" json:"extended_status,omitempty"`
	PlacedURL        *string         `db:"placed_url" json:"placed_url,omitempty"`
	ArticleTitle     *string         `db:"article_title" json:"article_title,omitempty"`
	ArticleContent   *string         `db:"article_content" json:"article_content,omitempty"`
	ArticleKeywords  *string         `db:"article_keywords" json:"article_keywords,omitempty"`
	ArticleWriter    *string         `db:"article_writer" json:"article_writer,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	RespondedAt      *time.Time      `db:"responded_at" json:"responded_at,omitempty"`
	PlacedAt         *time.Time      `db:"placed_at" json:"placed_at,omitempty"`
}

// AcceptTarget возвращает статус, в который заявка переходит при принятии
// издателем: контент платформы требует этапа подготовки статьи.
func (r *PurchaseRequest) AcceptTarget() RequestStatus {
	if r.ContentMode == ContentModePlatformWritten {
		return RequestStatusWaitingArticle
	}
	return RequestStatusPlacementPendingDirect
}

// IsParticipant сообщает, относится ли пользователь к сторонам сделки.
func (r *PurchaseRequest) IsParticipant(userID uuid.UUID) bool {
	return r.AdvertiserID == userID || r.PublisherID == userID
}
