package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/antonkudinov/linkmarket-backend/internal/models"
	"github.com/antonkudinov/linkmarket-backend/internal/pkg/apperror"
)

type mockRequestRepo struct {
	mock.Mock
}

func (m *mockRequestRepo) Create(ctx context.Context, request *models.PurchaseRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseRequest), args.Error(1)
}

func (m *mockRequestRepo) ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.PurchaseRequest, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.PurchaseRequest), args.Error(1)
}

func (m *mockRequestRepo) TransitionFromPending(ctx context.Context, id uuid.UUID, to models.RequestStatus, extended *models.ExtendedStatus) (*models.PurchaseRequest, error) {
	args := m.Called(ctx, id, to, extended)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseRequest), args.Error(1)
}

func (m *mockRequestRepo) SubmitArticle(ctx context.Context, id uuid.UUID, title, content, keywords, writer string) (*models.PurchaseRequest, error) {
	args := m.Called(ctx, id, title, content, keywords, writer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseRequest), args.Error(1)
}

func (m *mockRequestRepo) SettlePlacement(ctx context.Context, id uuid.UUID, placedURL string, publisherShare, platformFee decimal.Decimal, platformAccountID uuid.UUID) (*models.PurchaseRequest, error) {
	args := m.Called(ctx, id, placedURL, publisherShare, platformFee, platformAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseRequest), args.Error(1)
}

func validCreateInput() CreateRequestInput {
	return CreateRequestInput{
		AdvertiserID:     uuid.New(),
		PublisherID:      uuid.New(),
		ListingReference: "premium-seo-blog",
		AnchorText:       "лучший хостинг",
		TargetURL:        "https://example.com/landing",
		ProposedPrice:    decimal.NewFromInt(500),
		ProposedDuration: 90,
		ContentMode:      models.ContentModeExisting,
	}
}

func TestRequestService_CreateRequest_Success(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil, uuid.New())
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*models.PurchaseRequest")).Return(nil)

	request, err := svc.CreateRequest(ctx, validCreateInput())
	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, request.Status)
	repo.AssertExpectations(t)
}

func TestRequestService_CreateRequest_SamePartyRejected(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil, uuid.New())

	in := validCreateInput()
	in.PublisherID = in.AdvertiserID

	_, err := svc.CreateRequest(context.Background(), in)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "Create")
}

func TestRequestService_CreateRequest_RelativeURLRejected(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil, uuid.New())

	in := validCreateInput()
	in.TargetURL = "/relative/path"

	_, err := svc.CreateRequest(context.Background(), in)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestRequestService_CreateRequest_TooManyFractionDigits(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil, uuid.New())

	in := validCreateInput()
	in.ProposedPrice = decimal.RequireFromString("10.555")

	_, err := svc.CreateRequest(context.Background(), in)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestRequestService_Accept_DirectPlacement(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil, uuid.New())
	ctx := context.Background()

	publisherID := uuid.New()
	requestID := uuid.New()
	pending := &models.PurchaseRequest{
		ID:          requestID,
		PublisherID: publisherID,
		ContentMode: models.ContentModeExisting,
		Status:      models.RequestStatusPending,
	}
	accepted := &models.PurchaseRequest{
		ID:     requestID,
		Status: models.RequestStatusPlacementPendingDirect,
	}

	repo.On("GetByID", ctx, requestID).Return(pending, nil)
	repo.On("TransitionFromPending", ctx, requestID,
		models.RequestStatusPlacementPendingDirect, (*models.ExtendedStatus)(nil)).
		Return(accepted, nil)

	result, err := svc.Accept(ctx, requestID, publisherID)
	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusPlacementPendingDirect, result.Status)
	repo.AssertExpectations(t)
}

func TestRequestService_Accept_PlatformWrittenGoesToArticleStage(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil, uuid.New())
	ctx := context.Background()

	publisherID := uuid.New()
	requestID := uuid.New()
	pending := &models.PurchaseRequest{
		ID:          requestID,
		PublisherID: publisherID,
		ContentMode: models.ContentModePlatformWritten,
		Status:      models.RequestStatusPending,
	}
	waiting := models.ExtendedStatusWaitingArticle
	accepted := &models.PurchaseRequest{
		ID:             requestID,
		Status:         models.RequestStatusWaitingArticle,
		ExtendedStatus: &waiting,
	}

	repo.On("GetByID", ctx, requestID).Return(pending, nil)
	repo.On("TransitionFromPending", ctx, requestID,
		models.RequestStatusWaitingArticle, &waiting).
		Return(accepted, nil)

	result, err := svc.Accept(ctx, requestID, publisherID)
	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusWaitingArticle, result.Status)
	repo.AssertExpectations(t)
}

func TestRequestService_Accept_ForbiddenForStranger(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil, uuid.New())
	ctx := context.Background()

	requestID := uuid.New()
	repo.On("GetByID", ctx, requestID).Return(&models.PurchaseRequest{
		ID:          requestID,
		PublisherID: uuid.New(),
	}, nil)

	_, err := svc.Accept(ctx, requestID, uuid.New())
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "TransitionFromPending")
}

func TestRequestService_Cancel_OnlyAdvertiser(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil, uuid.New())
	ctx := context.Background()

	advertiserID := uuid.New()
	requestID := uuid.New()
	repo.On("GetByID", ctx, requestID).Return(&models.PurchaseRequest{
		ID:           requestID,
		AdvertiserID: advertiserID,
		PublisherID:  uuid.New(),
	}, nil)

	_, err := svc.Cancel(ctx, requestID, uuid.New())
	assert.True(t, apperror.IsForbidden(err))

	cancelled := &models.PurchaseRequest{ID: requestID, Status: models.RequestStatusCancelled}
	repo.On("TransitionFromPending", ctx, requestID,
		models.RequestStatusCancelled, (*models.ExtendedStatus)(nil)).
		Return(cancelled, nil)

	result, err := svc.Cancel(ctx, requestID, advertiserID)
	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusCancelled, result.Status)
}

func TestRequestService_SubmitArticle_AdminOnly(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil, uuid.New())

	in := SubmitArticleInput{
		RequestID: uuid.New(),
		Title:     "Обзор хостингов",
		Content:   "Текст статьи",
	}

	_, err := svc.SubmitArticle(context.Background(), in, models.RolePublisher)
	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "SubmitArticle")
}

func TestRequestService_SubmitPlacementURL_ComputesSettlement(t *testing.T) {
	repo := new(mockRequestRepo)
	platformID := uuid.New()
	svc := NewRequestService(repo, nil, platformID)
	ctx := context.Background()

	publisherID := uuid.New()
	requestID := uuid.New()
	repo.On("GetByID", ctx, requestID).Return(&models.PurchaseRequest{
		ID:            requestID,
		PublisherID:   publisherID,
		ProposedPrice: decimal.NewFromInt(500),
		Status:        models.RequestStatusPlacementPendingDirect,
	}, nil)

	settled := &models.PurchaseRequest{ID: requestID, Status: models.RequestStatusPlacementCompleted}
	repo.On("SettlePlacement", ctx, requestID, "https://blog.example.com/post",
		decimal.NewFromInt(350), decimal.NewFromInt(150), platformID).
		Return(settled, nil)

	result, err := svc.SubmitPlacementURL(ctx, requestID, publisherID, "https://blog.example.com/post")
	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusPlacementCompleted, result.Status)
	repo.AssertExpectations(t)
}

func TestRequestService_SubmitPlacementURL_AlreadyFinalized(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil, uuid.New())
	ctx := context.Background()

	publisherID := uuid.New()
	requestID := uuid.New()
	repo.On("GetByID", ctx, requestID).Return(&models.PurchaseRequest{
		ID:            requestID,
		PublisherID:   publisherID,
		ProposedPrice: decimal.NewFromInt(500),
		Status:        models.RequestStatusPlacementCompleted,
	}, nil)
	repo.On("SettlePlacement", ctx, requestID, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperror.ErrAlreadyFinalized)

	_, err := svc.SubmitPlacementURL(ctx, requestID, publisherID, "https://blog.example.com/post")
	assert.True(t, apperror.IsAlreadyFinalized(err))
}

func TestRequestService_SubmitPlacementURL_InvalidURL(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil, uuid.New())

	_, err := svc.SubmitPlacementURL(context.Background(), uuid.New(), uuid.New(), "ftp://bad")
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "GetByID")
}
