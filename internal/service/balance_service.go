package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/antonkudinov/linkmarket-backend/internal/commission"
	"github.com/antonkudinov/linkmarket-backend/internal/logger"
	"github.com/antonkudinov/linkmarket-backend/internal/models"
	"github.com/antonkudinov/linkmarket-backend/internal/pkg/apperror"
	"github.com/antonkudinov/linkmarket-backend/internal/validation"
)

// LedgerRepository описывает взаимодействие сервиса со счетами и леджером.
type LedgerRepository interface {
	GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, kind models.EntryKind, description string, relatedRequestID *uuid.UUID) (*models.LedgerEntry, error)
	Debit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, kind models.EntryKind, description string, relatedRequestID *uuid.UUID) (*models.LedgerEntry, error)
	Transfer(ctx context.Context, from, to uuid.UUID, amount decimal.Decimal, debitKind, creditKind models.EntryKind, description string, relatedRequestID *uuid.UUID) (*models.LedgerEntry, *models.LedgerEntry, error)
	Deposit(ctx context.Context, accountID, platformAccountID uuid.UUID, credited, fee decimal.Decimal, externalReference string) (*models.LedgerEntry, bool, error)
	Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, cardLast4, bankName *string) (*models.Withdrawal, error)
	ListEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error)
	ListWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error)
	LedgerSum(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
}

// BalanceService — единственная точка изменения балансов. Все операции
// идемпотентны по своему естественному ключу и сериализуются по счёту
// на уровне хранилища.
type BalanceService struct {
	repo              LedgerRepository
	platformAccountID uuid.UUID
}

// NewBalanceService создаёт сервис балансов.
func NewBalanceService(repo LedgerRepository, platformAccountID uuid.UUID) *BalanceService {
	return &BalanceService{repo: repo, platformAccountID: platformAccountID}
}

// PlatformAccountID возвращает идентификатор внутреннего счёта платформы.
func (s *BalanceService) PlatformAccountID() uuid.UUID {
	return s.platformAccountID
}

// GetBalance возвращает счёт с кэшированным балансом.
func (s *BalanceService) GetBalance(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	return s.repo.GetAccount(ctx, userID)
}

// DepositInput — событие "средства получены" от платёжного коллектора.
type DepositInput struct {
	AccountID         uuid.UUID
	GrossAmount       decimal.Decimal
	PaymentMethod     string
	ExternalReference string
}

// DepositResult — итог зачисления пополнения.
type DepositResult struct {
	Entry          *models.LedgerEntry `json:"entry"`
	CreditedAmount decimal.Decimal     `json:"credited_amount"`
	PlatformFee    decimal.Decimal     `json:"platform_fee"`
	Replayed       bool                `json:"replayed"`
}

// Deposit зачисляет пополнение: с брутто-суммы удерживается комиссия
// платформы, остаток попадает на счёт. Повтор события с тем же
// external_reference возвращает исходную запись без повторного зачисления.
func (s *BalanceService) Deposit(ctx context.Context, in DepositInput) (*DepositResult, error) {
	if err := validation.ValidateAmount("сумма пополнения", in.GrossAmount); err != nil {
		return nil, err
	}
	if in.ExternalReference == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "внешний идентификатор платежа обязателен")
	}

	split := commission.ComputeDepositCommission(in.GrossAmount, commission.DefaultDepositFeeRate)
	entry, replayed, err := s.repo.Deposit(ctx, in.AccountID, s.platformAccountID,
		split.CreditedAmount, split.PlatformFee, in.ExternalReference)
	if err != nil {
		return nil, err
	}

	if replayed && logger.Log != nil {
		logger.Log.WithField("external_reference", in.ExternalReference).
			Info("повторное событие пополнения, зачисление не дублируется")
	}

	return &DepositResult{
		Entry:          entry,
		CreditedAmount: split.CreditedAmount,
		PlatformFee:    split.PlatformFee,
		Replayed:       replayed,
	}, nil
}

// Transfer переводит средства между счетами парой записей в одной
// транзакции: дебет отправителя и кредит получателя. Используется
// арбитражом для ручных корректировок, в том числе досбора недостачи
// после неудавшегося реверса комиссии издателя.
func (s *BalanceService) Transfer(ctx context.Context, from, to uuid.UUID, amount decimal.Decimal, description string) (*models.LedgerEntry, *models.LedgerEntry, error) {
	if from == to {
		return nil, nil, apperror.New(apperror.ErrCodeValidation,
			"счета отправителя и получателя совпадают")
	}
	if err := validation.ValidateAmount("сумма перевода", amount); err != nil {
		return nil, nil, err
	}
	if description == "" {
		description = "Внутренний перевод по решению арбитража"
	}
	return s.repo.Transfer(ctx, from, to, amount,
		models.EntryKindRefund, models.EntryKindRefund, description, nil)
}

// Withdraw списывает средства и создаёт заявку на вывод.
func (s *BalanceService) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, cardLast4, bankName *string) (*models.Withdrawal, error) {
	if err := validation.ValidateAmount("сумма вывода", amount); err != nil {
		return nil, err
	}
	return s.repo.Withdraw(ctx, userID, amount, cardLast4, bankName)
}

// ListTransactions возвращает записи леджера по счёту.
func (s *BalanceService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListEntries(ctx, userID, limit, offset)
}

// ListWithdrawals возвращает заявки пользователя на вывод.
func (s *BalanceService) ListWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListWithdrawals(ctx, userID, limit, offset)
}

// ReconciliationReport — итог сверки кэшированного баланса с леджером.
type ReconciliationReport struct {
	AccountID      uuid.UUID       `json:"account_id"`
	CachedBalance  decimal.Decimal `json:"cached_balance"`
	LedgerBalance  decimal.Decimal `json:"ledger_balance"`
	Consistent     bool            `json:"consistent"`
}

// Reconcile сверяет кэшированный баланс счёта с агрегатом леджера.
// Расхождение означает ошибку в коде, а не в данных: леджер — источник
// истины, расхождение логируется для разбирательства.
func (s *BalanceService) Reconcile(ctx context.Context, userID uuid.UUID) (*ReconciliationReport, error) {
	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	ledgerSum, err := s.repo.LedgerSum(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		AccountID:     userID,
		CachedBalance: account.CurrentBalance,
		LedgerBalance: ledgerSum,
		Consistent:    account.CurrentBalance.Equal(ledgerSum),
	}
	if !report.Consistent && logger.Log != nil {
		logger.Log.WithField("account_id", userID).
			Errorf("расхождение баланса: кэш %s, леджер %s", account.CurrentBalance, ledgerSum)
	}
	return report, nil
}
