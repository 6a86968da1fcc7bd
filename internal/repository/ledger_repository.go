package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/antonkudinov/linkmarket-backend/internal/models"
	"github.com/antonkudinov/linkmarket-backend/internal/pkg/apperror"
	"github.com/antonkudinov/linkmarket-backend/internal/repository/common"
)

const pqUniqueViolation = "23505"

// LedgerRepository отвечает за счета и append-only леджер. Все изменения
// балансов идут через него; кэшированный баланс обновляется в той же
// транзакции, что и запись леджера.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository создаёт экземпляр репозитория.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// GetAccount возвращает счёт пользователя, создаёт если не существует.
func (r *LedgerRepository) GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	var account models.Account
	query := `
		INSERT INTO accounts (user_id, current_balance)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = accounts.updated_at
		RETURNING user_id, current_balance, updated_at
	`
	if err := r.db.GetContext(ctx, &account, query, userID); err != nil {
		return nil, fmt.Errorf("ledger repository: get account %w", err)
	}
	return &account, nil
}

// lockAccounts блокирует строки счетов в порядке возрастания идентификаторов.
// Единый порядок взятия блокировок исключает взаимоблокировки между
// конкурентными расчётами и решениями споров. Отсутствующие счета создаются.
func lockAccounts(ctx context.Context, tx *sqlx.Tx, ids ...uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})

	balances := make(map[uuid.UUID]decimal.Decimal, len(unique))
	for _, id := range unique {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (user_id, current_balance) VALUES ($1, 0)
			ON CONFLICT (user_id) DO NOTHING
		`, id); err != nil {
			return nil, fmt.Errorf("ledger repository: ensure account %w", err)
		}

		var balance decimal.Decimal
		if err := tx.GetContext(ctx, &balance,
			`SELECT current_balance FROM accounts WHERE user_id = $1 FOR UPDATE`, id); err != nil {
			return nil, fmt.Errorf("ledger repository: lock account %w", err)
		}
		balances[id] = balance
	}
	return balances, nil
}

// insertEntry добавляет запись леджера и сдвигает кэшированный баланс счёта
// в той же транзакции.
func insertEntry(ctx context.Context, tx *sqlx.Tx, entry *models.LedgerEntry) error {
	if err := tx.QueryRowxContext(ctx, `
		INSERT INTO ledger_entries (account_id, kind, direction, amount, description, related_request_id, external_reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, entry.AccountID, entry.Kind, entry.Direction, entry.Amount, entry.Description,
		entry.RelatedRequestID, entry.ExternalReference).
		Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("ledger repository: insert entry %w", err)
	}

	delta := entry.Signed()
	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET current_balance = current_balance + $2, updated_at = NOW()
		WHERE user_id = $1
	`, entry.AccountID, delta); err != nil {
		return fmt.Errorf("ledger repository: apply entry to balance %w", err)
	}
	return nil
}

// Credit зачисляет средства на счёт. Не может завершиться отказом
// кроме ошибок хранилища.
func (r *LedgerRepository) Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, kind models.EntryKind, description string, relatedRequestID *uuid.UUID) (*models.LedgerEntry, error) {
	entry := &models.LedgerEntry{
		AccountID:        accountID,
		Kind:             kind,
		Direction:        models.DirectionCredit,
		Amount:           amount,
		Description:      description,
		RelatedRequestID: relatedRequestID,
	}

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := lockAccounts(ctx, tx, accountID); err != nil {
			return err
		}
		return insertEntry(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Debit списывает средства со счёта. Проверка достаточности средств и
// списание выполняются под блокировкой строки счёта, поэтому два
// конкурентных списания не могут оба пройти проверку.
func (r *LedgerRepository) Debit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, kind models.EntryKind, description string, relatedRequestID *uuid.UUID) (*models.LedgerEntry, error) {
	entry := &models.LedgerEntry{
		AccountID:        accountID,
		Kind:             kind,
		Direction:        models.DirectionDebit,
		Amount:           amount,
		Description:      description,
		RelatedRequestID: relatedRequestID,
	}

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		balances, err := lockAccounts(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if balances[accountID].LessThan(amount) {
			return apperror.ErrInsufficientFunds
		}
		return insertEntry(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Transfer атомарно переносит средства с одного счёта на другой:
// дебет и кредит либо фиксируются вместе, либо не фиксируются вовсе.
func (r *LedgerRepository) Transfer(ctx context.Context, from, to uuid.UUID, amount decimal.Decimal, debitKind, creditKind models.EntryKind, description string, relatedRequestID *uuid.UUID) (*models.LedgerEntry, *models.LedgerEntry, error) {
	debit := &models.LedgerEntry{
		AccountID:        from,
		Kind:             debitKind,
		Direction:        models.DirectionDebit,
		Amount:           amount,
		Description:      description,
		RelatedRequestID: relatedRequestID,
	}
	credit := &models.LedgerEntry{
		AccountID:        to,
		Kind:             creditKind,
		Direction:        models.DirectionCredit,
		Amount:           amount,
		Description:      description,
		RelatedRequestID: relatedRequestID,
	}

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		balances, err := lockAccounts(ctx, tx, from, to)
		if err != nil {
			return err
		}
		if balances[from].LessThan(amount) {
			return apperror.ErrInsufficientFunds
		}
		if err := insertEntry(ctx, tx, debit); err != nil {
			return err
		}
		return insertEntry(ctx, tx, credit)
	})
	if err != nil {
		return nil, nil, err
	}
	return debit, credit, nil
}

// Deposit зачисляет пополнение от платёжного коллектора: нетто на счёт
// пользователя, комиссию — на счёт платформы. Идемпотентность обеспечивается
// уникальностью external_reference: повтор события возвращает исходную запись.
func (r *LedgerRepository) Deposit(ctx context.Context, accountID, platformAccountID uuid.UUID, credited, fee decimal.Decimal, externalReference string) (*models.LedgerEntry, bool, error) {
	if existing, err := r.getEntryByReference(ctx, externalReference); err == nil {
		return existing, true, nil
	} else if !apperror.IsNotFound(err) {
		return nil, false, err
	}

	entry := &models.LedgerEntry{
		AccountID:         accountID,
		Kind:              models.EntryKindDeposit,
		Direction:         models.DirectionCredit,
		Amount:            credited,
		Description:       "Пополнение баланса",
		ExternalReference: &externalReference,
	}

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := lockAccounts(ctx, tx, accountID, platformAccountID); err != nil {
			return err
		}
		if err := insertEntry(ctx, tx, entry); err != nil {
			return err
		}
		if fee.IsPositive() {
			feeEntry := &models.LedgerEntry{
				AccountID:   platformAccountID,
				Kind:        models.EntryKindDeposit,
				Direction:   models.DirectionCredit,
				Amount:      fee,
				Description: "Комиссия платформы за пополнение",
			}
			return insertEntry(ctx, tx, feeEntry)
		}
		return nil
	})
	if err != nil {
		// Конкурентный повтор того же события: вставка упёрлась в уникальный
		// индекс по external_reference, возвращаем исходную запись.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			existing, getErr := r.getEntryByReference(ctx, externalReference)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, true, nil
		}
		return nil, false, err
	}
	return entry, false, nil
}

func (r *LedgerRepository) getEntryByReference(ctx context.Context, externalReference string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.GetContext(ctx, &entry,
		`SELECT * FROM ledger_entries WHERE external_reference = $1`, externalReference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.ErrCodeNotFound, "запись леджера не найдена")
	}
	if err != nil {
		return nil, fmt.Errorf("ledger repository: get entry by reference %w", err)
	}
	return &entry, nil
}

// Withdraw списывает средства и создаёт заявку на вывод в одной транзакции.
func (r *LedgerRepository) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, cardLast4, bankName *string) (*models.Withdrawal, error) {
	withdrawal := &models.Withdrawal{
		UserID:    userID,
		Amount:    amount,
		Status:    models.WithdrawalStatusPending,
		CardLast4: cardLast4,
		BankName:  bankName,
	}

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		balances, err := lockAccounts(ctx, tx, userID)
		if err != nil {
			return err
		}
		if balances[userID].LessThan(amount) {
			return apperror.ErrInsufficientFunds
		}

		entry := &models.LedgerEntry{
			AccountID:   userID,
			Kind:        models.EntryKindWithdrawal,
			Direction:   models.DirectionDebit,
			Amount:      amount,
			Description: "Вывод средств",
		}
		if err := insertEntry(ctx, tx, entry); err != nil {
			return err
		}

		return tx.QueryRowxContext(ctx, `
			INSERT INTO withdrawals (user_id, amount, status, card_last4, bank_name)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, userID, amount, withdrawal.Status, cardLast4, bankName).
			Scan(&withdrawal.ID, &withdrawal.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return withdrawal, nil
}

// ListEntries возвращает записи леджера по счёту, новые первыми.
func (r *LedgerRepository) ListEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: list entries %w", err)
	}
	return entries, nil
}

// LedgerSum агрегирует записи леджера по счёту. Используется для сверки
// кэшированного баланса с источником истины.
func (r *LedgerRepository) LedgerSum(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(CASE WHEN direction = 'debit' THEN -amount ELSE amount END), 0)
		FROM ledger_entries
		WHERE account_id = $1
	`, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger repository: ledger sum %w", err)
	}
	return sum, nil
}

// ListWithdrawals возвращает заявки пользователя на вывод средств.
func (r *LedgerRepository) ListWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := r.db.SelectContext(ctx, &withdrawals, `
		SELECT * FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: list withdrawals %w", err)
	}
	return withdrawals, nil
}
