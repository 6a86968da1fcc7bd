package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/antonkudinov/linkmarket-backend/internal/commission"
	"github.com/antonkudinov/linkmarket-backend/internal/goroutine"
	"github.com/antonkudinov/linkmarket-backend/internal/logger"
	"github.com/antonkudinov/linkmarket-backend/internal/models"
	"github.com/antonkudinov/linkmarket-backend/internal/pkg/apperror"
	"github.com/antonkudinov/linkmarket-backend/internal/validation"
)

// RequestRepository описывает взаимодействие сервиса с хранилищем заявок.
type RequestRepository interface {
	Create(ctx context.Context, request *models.PurchaseRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseRequest, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.PurchaseRequest, error)
	TransitionFromPending(ctx context.Context, id uuid.UUID, to models.RequestStatus, extended *models.ExtendedStatus) (*models.PurchaseRequest, error)
	SubmitArticle(ctx context.Context, id uuid.UUID, title, content, keywords, writer string) (*models.PurchaseRequest, error)
	SettlePlacement(ctx context.Context, id uuid.UUID, placedURL string, publisherShare, platformFee decimal.Decimal, platformAccountID uuid.UUID) (*models.PurchaseRequest, error)
}

// LifecycleGateway получает события жизненного цикла заявки: создание
// тредов бесед, уведомления сторонам. Доставка — fire-and-forget,
// её сбой никогда не откатывает переход.
type LifecycleGateway interface {
	Notify(ctx context.Context, event models.LifecycleEvent)
}

// RequestService владеет машиной состояний заявки на размещение. Все
// переходы идут только через его методы, клиент не может перескочить
// статус или провести комиссию дважды.
type RequestService struct {
	repo              RequestRepository
	gateway           LifecycleGateway
	platformAccountID uuid.UUID
}

// NewRequestService создаёт сервис заявок.
func NewRequestService(repo RequestRepository, gateway LifecycleGateway, platformAccountID uuid.UUID) *RequestService {
	return &RequestService{
		repo:              repo,
		gateway:           gateway,
		platformAccountID: platformAccountID,
	}
}

// CreateRequestInput описывает входные данные новой заявки.
type CreateRequestInput struct {
	AdvertiserID     uuid.UUID
	PublisherID      uuid.UUID
	ListingReference string
	AnchorText       string
	TargetURL        string
	ProposedPrice    decimal.Decimal
	ProposedDuration int
	ContentMode      models.ContentMode
}

// CreateRequest создаёт заявку в статусе pending. Средства рекламодателя
// на этом шаге не резервируются: списание происходит при подтверждении
// размещения.
func (s *RequestService) CreateRequest(ctx context.Context, in CreateRequestInput) (*models.PurchaseRequest, error) {
	if in.AdvertiserID == in.PublisherID {
		return nil, apperror.New(apperror.ErrCodeValidation, "рекламодатель и издатель не могут совпадать")
	}
	if !in.ContentMode.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "недопустимый режим контента")
	}
	if err := validation.ValidateLength("анкорный текст", in.AnchorText,
		validation.MinAnchorTextLength, validation.MaxAnchorTextLength); err != nil {
		return nil, err
	}
	if err := validation.ValidateLength("ссылка на лот", in.ListingReference, 1,
		validation.MaxListingReferenceLength); err != nil {
		return nil, err
	}
	if err := validation.ValidateAbsoluteURL("целевой URL", in.TargetURL); err != nil {
		return nil, err
	}
	if err := validation.ValidateAmount("цена размещения", in.ProposedPrice); err != nil {
		return nil, err
	}
	if err := validation.ValidateDuration(in.ProposedDuration); err != nil {
		return nil, err
	}

	request := &models.PurchaseRequest{
		AdvertiserID:     in.AdvertiserID,
		PublisherID:      in.PublisherID,
		ListingReference: in.ListingReference,
		AnchorText:       in.AnchorText,
		TargetURL:        in.TargetURL,
		ProposedPrice:    in.ProposedPrice,
		ProposedDuration: in.ProposedDuration,
		ContentMode:      in.ContentMode,
		Status:           models.RequestStatusPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// GetRequest возвращает заявку, доступ только сторонам сделки.
func (s *RequestService) GetRequest(ctx context.Context, id, actorID uuid.UUID, actorRole string) (*models.PurchaseRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !request.IsParticipant(actorID) && actorRole != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	return request, nil
}

// ListMyRequests возвращает заявки, в которых участвует пользователь.
func (s *RequestService) ListMyRequests(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.PurchaseRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByParticipant(ctx, userID, limit, offset)
}

// Accept принимает заявку от имени издателя. Ветвление по режиму контента:
// контент платформы требует этапа подготовки статьи. Денежных эффектов
// на этом шаге нет — средства движутся при подтверждении размещения,
// чтобы издатель не получал оплату за ещё не выполненную работу.
func (s *RequestService) Accept(ctx context.Context, id, actorID uuid.UUID) (*models.PurchaseRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.PublisherID != actorID {
		return nil, apperror.ErrForbidden
	}

	target := request.AcceptTarget()
	var extended *models.ExtendedStatus
	if target == models.RequestStatusWaitingArticle {
		waiting := models.ExtendedStatusWaitingArticle
		extended = &waiting
	}

	accepted, err := s.repo.TransitionFromPending(ctx, id, target, extended)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, accepted, models.EventRequestAccepted)
	return accepted, nil
}

// Reject отклоняет заявку от имени издателя. Допустимо только из pending.
func (s *RequestService) Reject(ctx context.Context, id, actorID uuid.UUID) (*models.PurchaseRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.PublisherID != actorID {
		return nil, apperror.ErrForbidden
	}

	rejected, err := s.repo.TransitionFromPending(ctx, id, models.RequestStatusRejected, nil)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, rejected, models.EventRequestRejected)
	return rejected, nil
}

// Cancel отменяет заявку от имени рекламодателя. Допустимо только из
// pending; средства не резервировались, поэтому возвращать нечего —
// отмена всегда безштрафная и синхронная.
func (s *RequestService) Cancel(ctx context.Context, id, actorID uuid.UUID) (*models.PurchaseRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.AdvertiserID != actorID {
		return nil, apperror.ErrForbidden
	}

	cancelled, err := s.repo.TransitionFromPending(ctx, id, models.RequestStatusCancelled, nil)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, cancelled, models.EventRequestCancelled)
	return cancelled, nil
}

// SubmitArticleInput — статья, подготовленная редакцией платформы.
type SubmitArticleInput struct {
	RequestID uuid.UUID
	Title     string
	Content   string
	Keywords  string
	Writer    string
}

// SubmitArticle прикрепляет статью редакции и переводит заявку в
// article_ready. Доступно только редакционному актору (роль admin).
func (s *RequestService) SubmitArticle(ctx context.Context, in SubmitArticleInput, actorRole string) (*models.PurchaseRequest, error) {
	if actorRole != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateLength("заголовок статьи", in.Title, 1, 300); err != nil {
		return nil, err
	}
	if in.Content == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "текст статьи обязателен")
	}

	ready, err := s.repo.SubmitArticle(ctx, in.RequestID, in.Title, in.Content, in.Keywords, in.Writer)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, ready, models.EventArticleReady)
	return ready, nil
}

// SubmitPlacementURL подтверждает размещение ссылки издателем. Ровно один
// успешный вызов проводит расчёт: списание с рекламодателя и зачисление
// доли издателя и комиссии платформы. Повторный вызов по уже
// финализированной заявке возвращает AlreadyFinalized без денежных
// эффектов — ретраи клиента безопасны.
func (s *RequestService) SubmitPlacementURL(ctx context.Context, id, actorID uuid.UUID, placedURL string) (*models.PurchaseRequest, error) {
	if err := validation.ValidateAbsoluteURL("URL размещения", placedURL); err != nil {
		return nil, err
	}

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.PublisherID != actorID {
		return nil, apperror.ErrForbidden
	}

	settlement := commission.ComputeSettlement(request.ProposedPrice, commission.DefaultPublisherRate)
	settled, err := s.repo.SettlePlacement(ctx, id, placedURL,
		settlement.PublisherShare, settlement.PlatformFee, s.platformAccountID)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, settled, models.EventPlacementComplete)
	return settled, nil
}

// emit отправляет событие жизненного цикла внешним шлюзам, не дожидаясь
// доставки и не позволяя её сбоям влиять на результат операции.
func (s *RequestService) emit(ctx context.Context, request *models.PurchaseRequest, event string) {
	if s.gateway == nil {
		return
	}
	lifecycleEvent := models.LifecycleEvent{
		PurchaseRequestID: request.ID,
		AdvertiserID:      request.AdvertiserID,
		PublisherID:       request.PublisherID,
		Event:             event,
	}
	goroutine.SafeGo(func() {
		s.gateway.Notify(context.WithoutCancel(ctx), lifecycleEvent)
	})
	if logger.Log != nil {
		logger.Log.WithField("request_id", request.ID).Debug(event)
	}
}
