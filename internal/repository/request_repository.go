package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/antonkudinov/linkmarket-backend/internal/models"
	"github.com/antonkudinov/linkmarket-backend/internal/pkg/apperror"
	"github.com/antonkudinov/linkmarket-backend/internal/repository/common"
)

// RequestRepository отвечает за заявки на размещение. Переходы статусов
// выполняются через compare-and-swap по текущему статусу: конкурентные
// вызовы одной операции не могут выполнить переход дважды.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository создаёт экземпляр репозитория.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create сохраняет новую заявку в статусе pending.
func (r *RequestRepository) Create(ctx context.Context, request *models.PurchaseRequest) error {
	query := `
		INSERT INTO purchase_requests
			(advertiser_id, publisher_id, listing_reference, anchor_text, target_url,
			 proposed_price, proposed_duration, content_mode, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		request.AdvertiserID, request.PublisherID, request.ListingReference,
		request.AnchorText, request.TargetURL, request.ProposedPrice,
		request.ProposedDuration, request.ContentMode, request.Status).
		Scan(&request.ID, &request.CreatedAt); err != nil {
		return fmt.Errorf("request repository: create %w", err)
	}
	return nil
}

// GetByID возвращает заявку по идентификатору.
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseRequest, error) {
	return common.GetByID[models.PurchaseRequest](ctx, r.db, "purchase_requests", id, apperror.ErrRequestNotFound)
}

// ListByParticipant возвращает заявки, где пользователь выступает
// рекламодателем или издателем.
func (r *RequestRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.PurchaseRequest, error) {
	var requests []models.PurchaseRequest
	err := r.db.SelectContext(ctx, &requests, `
		SELECT * FROM purchase_requests
		WHERE advertiser_id = $1 OR publisher_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("request repository: list by participant %w", err)
	}
	return requests, nil
}

// TransitionFromPending переводит заявку из pending в следующий статус
// (принятие, отказ или отмена) и проставляет responded_at.
func (r *RequestRepository) TransitionFromPending(ctx context.Context, id uuid.UUID, to models.RequestStatus, extended *models.ExtendedStatus) (*models.PurchaseRequest, error) {
	var request models.PurchaseRequest
	err := r.db.GetContext(ctx, &request, `
		UPDATE purchase_requests
		SET status = $2, extended_status = $3, responded_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING *
	`, id, to, extended, models.RequestStatusPending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.classifyTransitionFailure(ctx, id, to)
	}
	if err != nil {
		return nil, fmt.Errorf("request repository: transition from pending %w", err)
	}
	return &request, nil
}

// SubmitArticle прикрепляет подготовленную статью и переводит заявку
// accepted_waiting_article -> article_ready.
func (r *RequestRepository) SubmitArticle(ctx context.Context, id uuid.UUID, title, content, keywords, writer string) (*models.PurchaseRequest, error) {
	extended := models.ExtendedStatusArticleReady
	var request models.PurchaseRequest
	err := r.db.GetContext(ctx, &request, `
		UPDATE purchase_requests
		SET status = $2, extended_status = $3,
			article_title = $4, article_content = $5, article_keywords = $6, article_writer = $7
		WHERE id = $1 AND status = $8
		RETURNING *
	`, id, models.RequestStatusArticleReady, extended,
		title, content, keywords, writer, models.RequestStatusWaitingArticle)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.classifyTransitionFailure(ctx, id, models.RequestStatusArticleReady)
	}
	if err != nil {
		return nil, fmt.Errorf("request repository: submit article %w", err)
	}
	return &request, nil
}

// SettlePlacement финализирует размещение: единая транзакция переводит
// заявку в placement_completed, списывает цену с рекламодателя и зачисляет
// долю издателю и комиссию платформе. Счета блокируются раньше строки
// заявки, в возрастающем порядке идентификаторов. CAS по статусу
// гарантирует ровно одну проводку комиссии при любых ретраях.
func (r *RequestRepository) SettlePlacement(ctx context.Context, id uuid.UUID, placedURL string, publisherShare, platformFee decimal.Decimal, platformAccountID uuid.UUID) (*models.PurchaseRequest, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var settled models.PurchaseRequest
	err = common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		balances, err := lockAccounts(ctx, tx,
			current.AdvertiserID, current.PublisherID, platformAccountID)
		if err != nil {
			return err
		}

		extended := models.ExtendedStatusPlaced
		err = tx.GetContext(ctx, &settled, `
			UPDATE purchase_requests
			SET status = $2, extended_status = CASE WHEN content_mode = 'platform_written' THEN $3 ELSE extended_status END,
				placed_url = $4, placed_at = NOW()
			WHERE id = $1 AND status IN ($5, $6)
			RETURNING *
		`, id, models.RequestStatusPlacementCompleted, extended, placedURL,
			models.RequestStatusPlacementPendingDirect, models.RequestStatusArticleReady)
		if errors.Is(err, sql.ErrNoRows) {
			return r.classifyTransitionFailure(ctx, id, models.RequestStatusPlacementCompleted)
		}
		if err != nil {
			return fmt.Errorf("request repository: settle placement %w", err)
		}

		price := settled.ProposedPrice
		if balances[settled.AdvertiserID].LessThan(price) {
			return apperror.ErrInsufficientFunds
		}

		entries := []*models.LedgerEntry{
			{
				AccountID:        settled.AdvertiserID,
				Kind:             models.EntryKindPurchase,
				Direction:        models.DirectionDebit,
				Amount:           price,
				Description:      "Оплата размещения ссылки",
				RelatedRequestID: &settled.ID,
			},
			{
				AccountID:        settled.PublisherID,
				Kind:             models.EntryKindCommission,
				Direction:        models.DirectionCredit,
				Amount:           publisherShare,
				Description:      "Вознаграждение издателя за размещение",
				RelatedRequestID: &settled.ID,
			},
			{
				AccountID:        platformAccountID,
				Kind:             models.EntryKindCommission,
				Direction:        models.DirectionCredit,
				Amount:           platformFee,
				Description:      "Комиссия платформы за размещение",
				RelatedRequestID: &settled.ID,
			},
		}
		for _, entry := range entries {
			if err := insertEntry(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &settled, nil
}

// classifyTransitionFailure разбирает неуспешный CAS: заявки нет, заявка
// уже финализирована или переход из текущего статуса недопустим.
func (r *RequestRepository) classifyTransitionFailure(ctx context.Context, id uuid.UUID, target models.RequestStatus) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == target {
		return apperror.ErrAlreadyFinalized
	}
	if current.Status.IsTerminal() {
		return apperror.New(apperror.ErrCodeInvalidTransition,
			fmt.Sprintf("заявка уже завершена в статусе %s", current.Status))
	}
	return apperror.New(apperror.ErrCodeInvalidTransition,
		fmt.Sprintf("переход из статуса %s в %s недопустим", current.Status, target))
}
