package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Направления записей леджера. Вид записи задаёт направление по умолчанию,
// но реверс комиссии по спору — дебетовая запись вида refund, поэтому
// направление хранится явно.
const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// Account представляет денежный счёт пользователя. Поле CurrentBalance —
// кэшированная проекция леджера для быстрых чтений; источником истины
// всегда остаётся сумма записей леджера.
type Account struct {
	UserID         uuid.UUID       `db:"user_id" json:"user_id"`
	CurrentBalance decimal.Decimal `db:"current_balance" json:"current_balance"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// LedgerEntry — неизменяемая запись о движении средств. Записи никогда не
// обновляются и не удаляются, исправления оформляются встречными записями.
type LedgerEntry struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	AccountID         uuid.UUID       `db:"account_id" json:"account_id"`
	Kind              EntryKind       `db:"kind" json:"kind"`
	Direction         string          `db:"direction" json:"direction"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	Description       string          `db:"description" json:"description"`
	RelatedRequestID  *uuid.UUID      `db:"related_request_id" json:"related_request_id,omitempty"`
	ExternalReference *string         `db:"external_reference" json:"external_reference,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// Signed возвращает сумму записи со знаком.
func (e LedgerEntry) Signed() decimal.Decimal {
	if e.Direction == DirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Withdrawal представляет заявку на вывод средств издателя.
type Withdrawal struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Status      string          `db:"status" json:"status"`
	CardLast4   *string         `db:"card_last4" json:"card_last4,omitempty"`
	BankName    *string         `db:"bank_name" json:"bank_name,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// Статусы заявок на вывод.
const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusCompleted = "completed"
	WithdrawalStatusRejected  = "rejected"
)
