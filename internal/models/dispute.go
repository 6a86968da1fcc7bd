package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Dispute представляет спор по заявке на размещение. Одновременно по одной
// заявке может существовать не более одного активного спора.
type Dispute struct {
	ID                uuid.UUID        `db:"id" json:"id"`
	PurchaseRequestID uuid.UUID        `db:"purchase_request_id" json:"purchase_request_id"`
	InitiatorID       uuid.UUID        `db:"initiator_id" json:"initiator_id"`
	RespondentID      uuid.UUID        `db:"respondent_id" json:"respondent_id"`
	DisputeType       string           `db:"dispute_type" json:"dispute_type"`
	Description       string           `db:"description" json:"description"`
	Status            DisputeStatus    `db:"status" json:"status"`
	ResolutionType    *ResolutionType  `db:"resolution_type" json:"resolution_type,omitempty"`
	ResolutionAmount  *decimal.Decimal `db:"resolution_amount" json:"resolution_amount,omitempty"`
	ResolvedBy        *uuid.UUID       `db:"resolved_by" json:"resolved_by,omitempty"`
	// Признак того, что реверс комиссии издателя не удался из-за нехватки
	// средств; возврат рекламодателю при этом выполнен, недостача передаётся
	// администраторам на досбор.
	PublisherReversalShortfall bool       `db:"publisher_reversal_shortfall" json:"publisher_reversal_shortfall"`
	OpenedAt                   time.Time  `db:"opened_at" json:"opened_at"`
	ResolvedAt                 *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// DisputeMessage — запись в треде спора, в том числе с доказательствами.
// Тред только дополняется, сообщения не редактируются.
type DisputeMessage struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	DisputeID    uuid.UUID  `db:"dispute_id" json:"dispute_id"`
	AuthorID     *uuid.UUID `db:"author_id" json:"author_id,omitempty"`
	Content      string     `db:"content" json:"content"`
	EvidenceURLs []string   `json:"evidence_urls,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// IsParty сообщает, является ли пользователь стороной спора.
func (d *Dispute) IsParty(userID uuid.UUID) bool {
	return d.InitiatorID == userID || d.RespondentID == userID
}
