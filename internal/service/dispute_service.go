package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/antonkudinov/linkmarket-backend/internal/commission"
	"github.com/antonkudinov/linkmarket-backend/internal/models"
	"github.com/antonkudinov/linkmarket-backend/internal/pkg/apperror"
	"github.com/antonkudinov/linkmarket-backend/internal/repository"
	"github.com/antonkudinov/linkmarket-backend/internal/validation"
)

// DisputeRepository описывает взаимодействие сервиса споров с хранилищем.
type DisputeRepository interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetActiveByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Dispute, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from []models.DisputeStatus, to models.DisputeStatus) (*models.Dispute, error)
	Resolve(ctx context.Context, disputeID uuid.UUID, resolutionType models.ResolutionType, resolutionAmount *decimal.Decimal, resolvedBy uuid.UUID, publisherShare, platformFee decimal.Decimal, platformAccountID uuid.UUID) (*repository.ResolutionOutcome, error)
	AddMessage(ctx context.Context, msg *models.DisputeMessage) error
	ListMessages(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeMessage, error)
}

// Статусы заявки, по которым сторона может открыть спор. До принятия
// заявки спорить не о чем, после терминализации отменой или отказом — тоже.
var disputeEligibleStatuses = map[models.RequestStatus]struct{}{
	models.RequestStatusPlacementPendingDirect: {},
	models.RequestStatusWaitingArticle:         {},
	models.RequestStatusArticleReady:           {},
	models.RequestStatusPlacementCompleted:     {},
}

// DisputeService управляет жизненным циклом споров и применением решений
// арбитра, включая компенсационные выплаты.
type DisputeService struct {
	repo              DisputeRepository
	requests          RequestRepository
	gateway           LifecycleGateway
	platformAccountID uuid.UUID
}

// NewDisputeService создаёт сервис споров.
func NewDisputeService(repo DisputeRepository, requests RequestRepository, gateway LifecycleGateway, platformAccountID uuid.UUID) *DisputeService {
	return &DisputeService{
		repo:              repo,
		requests:          requests,
		gateway:           gateway,
		platformAccountID: platformAccountID,
	}
}

// OpenDisputeInput — данные нового спора.
type OpenDisputeInput struct {
	PurchaseRequestID uuid.UUID
	InitiatorID       uuid.UUID
	DisputeType       string
	Description       string
}

// OpenDispute открывает спор по заявке. Инициатором может быть любая из
// сторон сделки; второй участник автоматически становится ответчиком.
// По одной заявке допускается не более одного активного спора.
func (s *DisputeService) OpenDispute(ctx context.Context, in OpenDisputeInput) (*models.Dispute, error) {
	if err := validation.ValidateLength("описание спора", in.Description,
		validation.MinDisputeDescriptionLength, validation.MaxDisputeDescriptionLength); err != nil {
		return nil, err
	}

	request, err := s.requests.GetByID(ctx, in.PurchaseRequestID)
	if err != nil {
		return nil, err
	}
	if !request.IsParticipant(in.InitiatorID) {
		return nil, apperror.ErrForbidden
	}
	if _, ok := disputeEligibleStatuses[request.Status]; !ok {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition,
			"спор нельзя открыть по заявке в текущем статусе")
	}

	respondent := request.PublisherID
	if in.InitiatorID == request.PublisherID {
		respondent = request.AdvertiserID
	}

	dispute := &models.Dispute{
		PurchaseRequestID: in.PurchaseRequestID,
		InitiatorID:       in.InitiatorID,
		RespondentID:      respondent,
		DisputeType:       in.DisputeType,
		Description:       in.Description,
		Status:            models.DisputeStatusOpen,
	}
	if err := s.repo.Create(ctx, dispute); err != nil {
		return nil, err
	}

	s.notify(ctx, request, models.EventDisputeOpened)
	return dispute, nil
}

// GetDispute возвращает спор; доступ у сторон спора и администраторов.
func (s *DisputeService) GetDispute(ctx context.Context, id, actorID uuid.UUID, actorRole string) (*models.Dispute, error) {
	dispute, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !dispute.IsParty(actorID) && actorRole != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	return dispute, nil
}

// ListUserDisputes возвращает споры, где пользователь — одна из сторон.
func (s *DisputeService) ListUserDisputes(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// StartReview берёт спор в работу арбитром.
func (s *DisputeService) StartReview(ctx context.Context, id uuid.UUID, actorRole string) (*models.Dispute, error) {
	if actorRole != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	return s.repo.UpdateStatus(ctx, id,
		[]models.DisputeStatus{models.DisputeStatusOpen}, models.DisputeStatusUnderReview)
}

// Escalate поднимает спор на уровень старшего арбитража.
func (s *DisputeService) Escalate(ctx context.Context, id uuid.UUID, actorRole string) (*models.Dispute, error) {
	if actorRole != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	return s.repo.UpdateStatus(ctx, id,
		[]models.DisputeStatus{models.DisputeStatusOpen, models.DisputeStatusUnderReview},
		models.DisputeStatusEscalated)
}

// Close закрывает разрешённый спор после периода обжалования.
func (s *DisputeService) Close(ctx context.Context, id uuid.UUID, actorRole string) (*models.Dispute, error) {
	if actorRole != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	return s.repo.UpdateStatus(ctx, id,
		[]models.DisputeStatus{models.DisputeStatusResolved}, models.DisputeStatusClosed)
}

// ResolveInput — решение арбитра по спору.
type ResolveInput struct {
	DisputeID        uuid.UUID
	ResolutionType   models.ResolutionType
	ResolutionAmount *decimal.Decimal
	ResolvedBy       uuid.UUID
}

// Resolve применяет решение арбитра. Денежные последствия зависят от типа
// резолюции: полный возврат реверсирует комиссию и терминализирует заявку,
// частичный возврат и компенсация финансируются платформой, замена и
// отклонение не двигают средств. Суммы для refund_partial и compensation
// обязательны и не превышают цену заявки.
func (s *DisputeService) Resolve(ctx context.Context, in ResolveInput, actorRole string) (*repository.ResolutionOutcome, error) {
	if actorRole != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	if !in.ResolutionType.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "недопустимый тип резолюции")
	}

	dispute, err := s.repo.GetByID(ctx, in.DisputeID)
	if err != nil {
		return nil, err
	}
	request, err := s.requests.GetByID(ctx, dispute.PurchaseRequestID)
	if err != nil {
		return nil, err
	}

	if in.ResolutionType.RequiresAmount() {
		if in.ResolutionAmount == nil {
			return nil, apperror.New(apperror.ErrCodeValidation,
				"для этого типа резолюции требуется сумма")
		}
		if err := validation.ValidateAmount("сумма резолюции", *in.ResolutionAmount); err != nil {
			return nil, err
		}
		if in.ResolutionAmount.GreaterThan(request.ProposedPrice) {
			return nil, apperror.New(apperror.ErrCodeValidation,
				"сумма резолюции не может превышать цену заявки")
		}
	} else {
		in.ResolutionAmount = nil
	}

	// Реверс расчитывается по тем же долям, что и исходная проводка.
	settlement := commission.ComputeSettlement(request.ProposedPrice, commission.DefaultPublisherRate)
	outcome, err := s.repo.Resolve(ctx, in.DisputeID, in.ResolutionType, in.ResolutionAmount,
		in.ResolvedBy, settlement.PublisherShare, settlement.PlatformFee, s.platformAccountID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, outcome.Request, models.EventDisputeResolved)
	return outcome, nil
}

// AddMessageInput — сообщение в тред спора.
type AddMessageInput struct {
	DisputeID    uuid.UUID
	AuthorID     uuid.UUID
	AuthorRole   string
	Content      string
	EvidenceURLs []string
}

// AddMessage добавляет сообщение в тред спора. Писать могут стороны спора
// и арбитры; тред остаётся открытым и после резолюции, пока спор не закрыт.
func (s *DisputeService) AddMessage(ctx context.Context, in AddMessageInput) (*models.DisputeMessage, error) {
	if err := validation.ValidateLength("сообщение", in.Content, 1,
		validation.MaxMessageLength); err != nil {
		return nil, err
	}
	for _, evidenceURL := range in.EvidenceURLs {
		if err := validation.ValidateAbsoluteURL("ссылка на доказательство", evidenceURL); err != nil {
			return nil, err
		}
	}

	dispute, err := s.repo.GetByID(ctx, in.DisputeID)
	if err != nil {
		return nil, err
	}
	if !dispute.IsParty(in.AuthorID) && in.AuthorRole != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	if dispute.Status == models.DisputeStatusClosed {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition,
			"тред закрытого спора не пополняется")
	}

	msg := &models.DisputeMessage{
		DisputeID:    in.DisputeID,
		AuthorID:     &in.AuthorID,
		Content:      in.Content,
		EvidenceURLs: in.EvidenceURLs,
	}
	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages возвращает тред спора.
func (s *DisputeService) ListMessages(ctx context.Context, disputeID, actorID uuid.UUID, actorRole string) ([]models.DisputeMessage, error) {
	dispute, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !dispute.IsParty(actorID) && actorRole != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	return s.repo.ListMessages(ctx, disputeID)
}

func (s *DisputeService) notify(ctx context.Context, request *models.PurchaseRequest, event string) {
	if s.gateway == nil || request == nil {
		return
	}
	s.gateway.Notify(ctx, models.LifecycleEvent{
		PurchaseRequestID: request.ID,
		AdvertiserID:      request.AdvertiserID,
		PublisherID:       request.PublisherID,
		Event:             event,
	})
}
