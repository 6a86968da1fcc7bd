package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/antonkudinov/linkmarket-backend/internal/models"
	"github.com/antonkudinov/linkmarket-backend/internal/pkg/apperror"
	"github.com/antonkudinov/linkmarket-backend/internal/repository/common"
)

// DisputeRepository отвечает за споры и их денежные последствия.
type DisputeRepository struct {
	db *sqlx.DB
}

// NewDisputeRepository создаёт экземпляр репозитория.
func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Create сохраняет новый спор. Частичный уникальный индекс по активным
// спорам гарантирует не более одного открытого спора на заявку даже при
// конкурентных запросах обеих сторон.
func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	query := `
		INSERT INTO disputes (purchase_request_id, initiator_id, respondent_id, dispute_type, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, opened_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		d.PurchaseRequestID, d.InitiatorID, d.RespondentID, d.DisputeType, d.Description, d.Status).
		Scan(&d.ID, &d.OpenedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return apperror.ErrConflictingDispute
		}
		return fmt.Errorf("dispute repository: create %w", err)
	}
	return nil
}

// GetByID возвращает спор по идентификатору.
func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return common.GetByID[models.Dispute](ctx, r.db, "disputes", id, apperror.ErrDisputeNotFound)
}

// GetActiveByRequestID возвращает активный спор по заявке, если он есть.
func (r *DisputeRepository) GetActiveByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `
		SELECT * FROM disputes
		WHERE purchase_request_id = $1 AND status IN ('open', 'under_review', 'escalated')
	`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrDisputeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispute repository: get active by request %w", err)
	}
	return &d, nil
}

// ListByUser возвращает споры, где пользователь — инициатор или ответчик.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes
		WHERE initiator_id = $1 OR respondent_id = $1
		ORDER BY opened_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: list by user %w", err)
	}
	return disputes, nil
}

// UpdateStatus переводит спор в нетерминальный статус (under_review,
// escalated, closed) через CAS по текущему статусу.
func (r *DisputeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []models.DisputeStatus, to models.DisputeStatus) (*models.Dispute, error) {
	fromStrings := make([]string, len(from))
	for i, s := range from {
		fromStrings[i] = string(s)
	}

	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `
		UPDATE disputes SET status = $2
		WHERE id = $1 AND status = ANY($3)
		RETURNING *
	`, id, to, pq.Array(fromStrings))
	if errors.Is(err, sql.ErrNoRows) {
		current, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperror.New(apperror.ErrCodeInvalidTransition,
			fmt.Sprintf("переход спора из статуса %s в %s недопустим", current.Status, to))
	}
	if err != nil {
		return nil, fmt.Errorf("dispute repository: update status %w", err)
	}
	return &d, nil
}

// ResolutionOutcome — результат применения решения спора.
type ResolutionOutcome struct {
	Dispute *models.Dispute
	Request *models.PurchaseRequest
	// Реверс комиссии издателя не удался: возврат рекламодателю выполнен,
	// недостача помечена для административного досбора.
	PublisherReversalShortfall bool
}

// Resolve применяет решение арбитра в одной транзакции: проводки леджера,
// терминализация заявки и фиксация резолюции спора. Счета блокируются
// раньше строки заявки, в возрастающем порядке идентификаторов, тем же
// порядком, что и при расчёте размещения.
func (r *DisputeRepository) Resolve(ctx context.Context, disputeID uuid.UUID, resolutionType models.ResolutionType, resolutionAmount *decimal.Decimal, resolvedBy uuid.UUID, publisherShare, platformFee decimal.Decimal, platformAccountID uuid.UUID) (*ResolutionOutcome, error) {
	dispute, err := r.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	// До транзакции из заявки берутся только неизменяемые идентификаторы
	// счетов; статус перечитывается под блокировкой ниже.
	var ref models.PurchaseRequest
	if err := r.db.GetContext(ctx, &ref,
		`SELECT * FROM purchase_requests WHERE id = $1`, dispute.PurchaseRequestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, fmt.Errorf("dispute repository: resolve get request %w", err)
	}

	outcome := &ResolutionOutcome{}
	err = common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		balances, err := lockAccounts(ctx, tx,
			ref.AdvertiserID, ref.PublisherID, platformAccountID)
		if err != nil {
			return err
		}

		// Строка заявки блокируется после счетов. Конкурентный
		// SettlePlacement держит тот же набор блокировок, поэтому после
		// этой точки статус зафиксирован до конца транзакции.
		var request models.PurchaseRequest
		if err := tx.GetContext(ctx, &request, `
			SELECT * FROM purchase_requests WHERE id = $1 FOR UPDATE
		`, dispute.PurchaseRequestID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.ErrRequestNotFound
			}
			return fmt.Errorf("dispute repository: resolve lock request %w", err)
		}

		// Комиссия уже проведена, только если размещение было подтверждено.
		commissionPosted := request.Status == models.RequestStatusPlacementCompleted
		shortfall := false

		switch resolutionType {
		case models.ResolutionRefundFull:
			if commissionPosted {
				refund := &models.LedgerEntry{
					AccountID:        request.AdvertiserID,
					Kind:             models.EntryKindRefund,
					Direction:        models.DirectionCredit,
					Amount:           request.ProposedPrice,
					Description:      "Полный возврат по решению спора",
					RelatedRequestID: &request.ID,
				}
				if err := insertEntry(ctx, tx, refund); err != nil {
					return err
				}

				// Реверс ранее начисленной комиссии издателя. Нехватка средств
				// не блокирует возврат рекламодателю: недостача помечается и
				// уходит администраторам.
				if balances[request.PublisherID].GreaterThanOrEqual(publisherShare) {
					reversal := &models.LedgerEntry{
						AccountID:        request.PublisherID,
						Kind:             models.EntryKindRefund,
						Direction:        models.DirectionDebit,
						Amount:           publisherShare,
						Description:      "Реверс вознаграждения по решению спора",
						RelatedRequestID: &request.ID,
					}
					if err := insertEntry(ctx, tx, reversal); err != nil {
						return err
					}
				} else {
					shortfall = true
				}

				// Платформа возвращает свою комиссию; внутренний счёт платформы
				// может уходить в минус.
				platformReversal := &models.LedgerEntry{
					AccountID:        platformAccountID,
					Kind:             models.EntryKindRefund,
					Direction:        models.DirectionDebit,
					Amount:           platformFee,
					Description:      "Реверс комиссии платформы по решению спора",
					RelatedRequestID: &request.ID,
				}
				if err := insertEntry(ctx, tx, platformReversal); err != nil {
					return err
				}
			}

		case models.ResolutionRefundPartial:
			// Частичный возврат финансируется платформой, комиссия издателя
			// не трогается.
			entries := []*models.LedgerEntry{
				{
					AccountID:        platformAccountID,
					Kind:             models.EntryKindRefund,
					Direction:        models.DirectionDebit,
					Amount:           *resolutionAmount,
					Description:      "Частичный возврат по решению спора",
					RelatedRequestID: &request.ID,
				},
				{
					AccountID:        request.AdvertiserID,
					Kind:             models.EntryKindRefund,
					Direction:        models.DirectionCredit,
					Amount:           *resolutionAmount,
					Description:      "Частичный возврат по решению спора",
					RelatedRequestID: &request.ID,
				},
			}
			for _, entry := range entries {
				if err := insertEntry(ctx, tx, entry); err != nil {
					return err
				}
			}

		case models.ResolutionCompensation:
			entries := []*models.LedgerEntry{
				{
					AccountID:        platformAccountID,
					Kind:             models.EntryKindRefund,
					Direction:        models.DirectionDebit,
					Amount:           *resolutionAmount,
					Description:      "Компенсация по решению спора",
					RelatedRequestID: &request.ID,
				},
				{
					AccountID:        dispute.InitiatorID,
					Kind:             models.EntryKindRefund,
					Direction:        models.DirectionCredit,
					Amount:           *resolutionAmount,
					Description:      "Компенсация по решению спора",
					RelatedRequestID: &request.ID,
				},
			}
			for _, entry := range entries {
				if err := insertEntry(ctx, tx, entry); err != nil {
					return err
				}
			}

		case models.ResolutionReplacement, models.ResolutionDismissed:
			// Без движения средств.
		}

		// Полный возврат терминализирует заявку принудительно; остальные
		// резолюции оставляют её статус как есть. CAS по статусу,
		// зафиксированному блокировкой выше.
		if resolutionType == models.ResolutionRefundFull {
			var refunded models.PurchaseRequest
			err := tx.GetContext(ctx, &refunded, `
				UPDATE purchase_requests SET status = $2 WHERE id = $1 AND status = $3 RETURNING *
			`, request.ID, models.RequestStatusRefunded, request.Status)
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.New(apperror.ErrCodeInvalidTransition,
					"статус заявки изменился во время резолюции")
			}
			if err != nil {
				return fmt.Errorf("dispute repository: force refund status %w", err)
			}
			outcome.Request = &refunded
		} else {
			outcome.Request = &request
		}

		var resolved models.Dispute
		err = tx.GetContext(ctx, &resolved, `
			UPDATE disputes
			SET status = $2, resolution_type = $3, resolution_amount = $4,
				resolved_by = $5, publisher_reversal_shortfall = $6, resolved_at = NOW()
			WHERE id = $1 AND status IN ('open', 'under_review', 'escalated')
			RETURNING *
		`, disputeID, models.DisputeStatusResolved, resolutionType, resolutionAmount,
			resolvedBy, shortfall)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.New(apperror.ErrCodeInvalidTransition,
				"спор уже разрешён или закрыт")
		}
		if err != nil {
			return fmt.Errorf("dispute repository: resolve update %w", err)
		}

		outcome.Dispute = &resolved
		outcome.PublisherReversalShortfall = shortfall
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// AddMessage добавляет сообщение в тред спора. Тред только пополняется.
func (r *DisputeRepository) AddMessage(ctx context.Context, msg *models.DisputeMessage) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO dispute_messages (dispute_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, msg.DisputeID, msg.AuthorID, msg.Content).
		Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("dispute repository: add message %w", err)
	}

	for _, evidenceURL := range msg.EvidenceURLs {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO dispute_message_evidence (message_id, url)
			VALUES ($1, $2)
		`, msg.ID, evidenceURL); err != nil {
			return fmt.Errorf("dispute repository: add evidence %w", err)
		}
	}
	return nil
}

// ListMessages возвращает тред спора в хронологическом порядке.
func (r *DisputeRepository) ListMessages(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeMessage, error) {
	var messages []models.DisputeMessage
	err := r.db.SelectContext(ctx, &messages, `
		SELECT id, dispute_id, author_id, content, created_at FROM dispute_messages
		WHERE dispute_id = $1
		ORDER BY created_at ASC
	`, disputeID)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: list messages %w", err)
	}

	for i := range messages {
		var urls []string
		if err := r.db.SelectContext(ctx, &urls,
			`SELECT url FROM dispute_message_evidence WHERE message_id = $1`, messages[i].ID); err != nil {
			return nil, fmt.Errorf("dispute repository: list evidence %w", err)
		}
		messages[i].EvidenceURLs = urls
	}
	return messages, nil
}
