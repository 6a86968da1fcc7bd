package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antonkudinov/linkmarket-backend/internal/models"
	"github.com/antonkudinov/linkmarket-backend/internal/pkg/apperror"
	"github.com/antonkudinov/linkmarket-backend/internal/repository"
)

// fakeLedger — леджер в памяти с теми же инвариантами, что у хранилища:
// записи только добавляются, баланс — проекция записей.
type fakeLedger struct {
	balances    map[uuid.UUID]decimal.Decimal
	entries     []models.LedgerEntry
	byReference map[string]models.LedgerEntry
	withdrawals []models.Withdrawal
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:    make(map[uuid.UUID]decimal.Decimal),
		byReference: make(map[string]models.LedgerEntry),
	}
}

func (f *fakeLedger) balance(accountID uuid.UUID) decimal.Decimal {
	return f.balances[accountID]
}

func (f *fakeLedger) apply(e models.LedgerEntry) models.LedgerEntry {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	f.entries = append(f.entries, e)
	f.balances[e.AccountID] = f.balance(e.AccountID).Add(e.Signed())
	return e
}

func (f *fakeLedger) GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	return &models.Account{UserID: userID, CurrentBalance: f.balance(userID)}, nil
}

func (f *fakeLedger) Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, kind models.EntryKind, description string, relatedRequestID *uuid.UUID) (*models.LedgerEntry, error) {
	entry := f.apply(models.LedgerEntry{
		AccountID: accountID, Kind: kind, Direction: models.DirectionCredit,
		Amount: amount, Description: description, RelatedRequestID: relatedRequestID,
	})
	return &entry, nil
}

func (f *fakeLedger) Debit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, kind models.EntryKind, description string, relatedRequestID *uuid.UUID) (*models.LedgerEntry, error) {
	if f.balance(accountID).LessThan(amount) {
		return nil, apperror.ErrInsufficientFunds
	}
	entry := f.apply(models.LedgerEntry{
		AccountID: accountID, Kind: kind, Direction: models.DirectionDebit,
		Amount: amount, Description: description, RelatedRequestID: relatedRequestID,
	})
	return &entry, nil
}

func (f *fakeLedger) Transfer(ctx context.Context, from, to uuid.UUID, amount decimal.Decimal, debitKind, creditKind models.EntryKind, description string, relatedRequestID *uuid.UUID) (*models.LedgerEntry, *models.LedgerEntry, error) {
	debit, err := f.Debit(ctx, from, amount, debitKind, description, relatedRequestID)
	if err != nil {
		return nil, nil, err
	}
	credit, err := f.Credit(ctx, to, amount, creditKind, description, relatedRequestID)
	if err != nil {
		return nil, nil, err
	}
	return debit, credit, nil
}

func (f *fakeLedger) Deposit(ctx context.Context, accountID, platformAccountID uuid.UUID, credited, fee decimal.Decimal, externalReference string) (*models.LedgerEntry, bool, error) {
	if existing, ok := f.byReference[externalReference]; ok {
		return &existing, true, nil
	}
	entry := f.apply(models.LedgerEntry{
		AccountID: accountID, Kind: models.EntryKindDeposit,
		Direction: models.DirectionCredit, Amount: credited,
		ExternalReference: &externalReference,
	})
	f.byReference[externalReference] = entry
	if fee.IsPositive() {
		f.apply(models.LedgerEntry{
			AccountID: platformAccountID, Kind: models.EntryKindDeposit,
			Direction: models.DirectionCredit, Amount: fee,
		})
	}
	return &entry, false, nil
}

func (f *fakeLedger) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, cardLast4, bankName *string) (*models.Withdrawal, error) {
	if _, err := f.Debit(ctx, userID, amount, models.EntryKindWithdrawal, "вывод средств", nil); err != nil {
		return nil, err
	}
	w := models.Withdrawal{
		ID: uuid.New(), UserID: userID, Amount: amount,
		Status: models.WithdrawalStatusPending, CreatedAt: time.Now(),
	}
	f.withdrawals = append(f.withdrawals, w)
	return &w, nil
}

func (f *fakeLedger) ListEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range f.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	var out []models.Withdrawal
	for _, w := range f.withdrawals {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeLedger) LedgerSum(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range f.entries {
		if e.AccountID == accountID {
			sum = sum.Add(e.Signed())
		}
	}
	return sum, nil
}

// fakeRequestStore хранит заявки в памяти и проводит расчёт размещения
// через fakeLedger по тем же правилам, что и настоящий репозиторий.
type fakeRequestStore struct {
	ledger   *fakeLedger
	requests map[uuid.UUID]*models.PurchaseRequest
}

func newFakeRequestStore(ledger *fakeLedger) *fakeRequestStore {
	return &fakeRequestStore{ledger: ledger, requests: make(map[uuid.UUID]*models.PurchaseRequest)}
}

func (f *fakeRequestStore) Create(ctx context.Context, request *models.PurchaseRequest) error {
	request.ID = uuid.New()
	request.CreatedAt = time.Now()
	stored := *request
	f.requests[request.ID] = &stored
	return nil
}

func (f *fakeRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, apperror.ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRequestStore) ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.PurchaseRequest, error) {
	var out []models.PurchaseRequest
	for _, r := range f.requests {
		if r.IsParticipant(userID) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRequestStore) TransitionFromPending(ctx context.Context, id uuid.UUID, to models.RequestStatus, extended *models.ExtendedStatus) (*models.PurchaseRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, apperror.ErrRequestNotFound
	}
	if r.Status != models.RequestStatusPending {
		if r.Status == to {
			return nil, apperror.ErrAlreadyFinalized
		}
		return nil, apperror.New(apperror.ErrCodeInvalidTransition, "заявка не в статусе pending")
	}
	r.Status = to
	r.ExtendedStatus = extended
	cp := *r
	return &cp, nil
}

func (f *fakeRequestStore) SubmitArticle(ctx context.Context, id uuid.UUID, title, content, keywords, writer string) (*models.PurchaseRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, apperror.ErrRequestNotFound
	}
	if r.Status != models.RequestStatusWaitingArticle {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition, "статья не ожидается")
	}
	r.Status = models.RequestStatusArticleReady
	r.ArticleTitle = &title
	r.ArticleContent = &content
	cp := *r
	return &cp, nil
}

func (f *fakeRequestStore) SettlePlacement(ctx context.Context, id uuid.UUID, placedURL string, publisherShare, platformFee decimal.Decimal, platformAccountID uuid.UUID) (*models.PurchaseRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, apperror.ErrRequestNotFound
	}
	if r.Status == models.RequestStatusPlacementCompleted {
		return nil, apperror.ErrAlreadyFinalized
	}
	if r.Status != models.RequestStatusPlacementPendingDirect && r.Status != models.RequestStatusArticleReady {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition, "размещение не ожидается")
	}
	if f.ledger.balance(r.AdvertiserID).LessThan(r.ProposedPrice) {
		return nil, apperror.ErrInsufficientFunds
	}

	f.ledger.apply(models.LedgerEntry{
		AccountID: r.AdvertiserID, Kind: models.EntryKindPurchase,
		Direction: models.DirectionDebit, Amount: r.ProposedPrice, RelatedRequestID: &r.ID,
	})
	f.ledger.apply(models.LedgerEntry{
		AccountID: r.PublisherID, Kind: models.EntryKindCommission,
		Direction: models.DirectionCredit, Amount: publisherShare, RelatedRequestID: &r.ID,
	})
	f.ledger.apply(models.LedgerEntry{
		AccountID: platformAccountID, Kind: models.EntryKindCommission,
		Direction: models.DirectionCredit, Amount: platformFee, RelatedRequestID: &r.ID,
	})

	r.Status = models.RequestStatusPlacementCompleted
	r.PlacedURL = &placedURL
	cp := *r
	return &cp, nil
}

// fakeDisputeStore хранит споры в памяти и применяет резолюции через
// fakeLedger по правилам настоящего репозитория.
type fakeDisputeStore struct {
	ledger   *fakeLedger
	requests *fakeRequestStore
	disputes map[uuid.UUID]*models.Dispute
}

func newFakeDisputeStore(ledger *fakeLedger, requests *fakeRequestStore) *fakeDisputeStore {
	return &fakeDisputeStore{ledger: ledger, requests: requests, disputes: make(map[uuid.UUID]*models.Dispute)}
}

func (f *fakeDisputeStore) Create(ctx context.Context, d *models.Dispute) error {
	for _, existing := range f.disputes {
		if existing.PurchaseRequestID == d.PurchaseRequestID && existing.Status.IsActive() {
			return apperror.ErrConflictingDispute
		}
	}
	d.ID = uuid.New()
	d.OpenedAt = time.Now()
	stored := *d
	f.disputes[d.ID] = &stored
	return nil
}

func (f *fakeDisputeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	d, ok := f.disputes[id]
	if !ok {
		return nil, apperror.ErrDisputeNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDisputeStore) GetActiveByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Dispute, error) {
	for _, d := range f.disputes {
		if d.PurchaseRequestID == requestID && d.Status.IsActive() {
			cp := *d
			return &cp, nil
		}
	}
	return nil, apperror.ErrDisputeNotFound
}

func (f *fakeDisputeStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var out []models.Dispute
	for _, d := range f.disputes {
		if d.IsParty(userID) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDisputeStore) UpdateStatus(ctx context.Context, id uuid.UUID, from []models.DisputeStatus, to models.DisputeStatus) (*models.Dispute, error) {
	d, ok := f.disputes[id]
	if !ok {
		return nil, apperror.ErrDisputeNotFound
	}
	for _, allowed := range from {
		if d.Status == allowed {
			d.Status = to
			cp := *d
			return &cp, nil
		}
	}
	return nil, apperror.New(apperror.ErrCodeInvalidTransition, "переход спора недопустим")
}

func (f *fakeDisputeStore) Resolve(ctx context.Context, disputeID uuid.UUID, resolutionType models.ResolutionType, resolutionAmount *decimal.Decimal, resolvedBy uuid.UUID, publisherShare, platformFee decimal.Decimal, platformAccountID uuid.UUID) (*repository.ResolutionOutcome, error) {
	d, ok := f.disputes[disputeID]
	if !ok {
		return nil, apperror.ErrDisputeNotFound
	}
	r, ok := f.requests.requests[d.PurchaseRequestID]
	if !ok {
		return nil, apperror.ErrRequestNotFound
	}

	shortfall := false
	switch resolutionType {
	case models.ResolutionRefundFull:
		if r.Status == models.RequestStatusPlacementCompleted {
			f.ledger.apply(models.LedgerEntry{
				AccountID: r.AdvertiserID, Kind: models.EntryKindRefund,
				Direction: models.DirectionCredit, Amount: r.ProposedPrice, RelatedRequestID: &r.ID,
			})
			if f.ledger.balance(r.PublisherID).GreaterThanOrEqual(publisherShare) {
				f.ledger.apply(models.LedgerEntry{
					AccountID: r.PublisherID, Kind: models.EntryKindRefund,
					Direction: models.DirectionDebit, Amount: publisherShare, RelatedRequestID: &r.ID,
				})
			} else {
				shortfall = true
			}
			f.ledger.apply(models.LedgerEntry{
				AccountID: platformAccountID, Kind: models.EntryKindRefund,
				Direction: models.DirectionDebit, Amount: platformFee, RelatedRequestID: &r.ID,
			})
		}
		r.Status = models.RequestStatusRefunded
	case models.ResolutionRefundPartial:
		f.ledger.apply(models.LedgerEntry{
			AccountID: platformAccountID, Kind: models.EntryKindRefund,
			Direction: models.DirectionDebit, Amount: *resolutionAmount, RelatedRequestID: &r.ID,
		})
		f.ledger.apply(models.LedgerEntry{
			AccountID: r.AdvertiserID, Kind: models.EntryKindRefund,
			Direction: models.DirectionCredit, Amount: *resolutionAmount, RelatedRequestID: &r.ID,
		})
	case models.ResolutionCompensation:
		f.ledger.apply(models.LedgerEntry{
			AccountID: platformAccountID, Kind: models.EntryKindRefund,
			Direction: models.DirectionDebit, Amount: *resolutionAmount, RelatedRequestID: &r.ID,
		})
		f.ledger.apply(models.LedgerEntry{
			AccountID: d.InitiatorID, Kind: models.EntryKindRefund,
			Direction: models.DirectionCredit, Amount: *resolutionAmount, RelatedRequestID: &r.ID,
		})
	}

	d.Status = models.DisputeStatusResolved
	d.ResolutionType = &resolutionType
	d.ResolutionAmount = resolutionAmount
	d.ResolvedBy = &resolvedBy
	d.PublisherReversalShortfall = shortfall

	disputeCopy := *d
	requestCopy := *r
	return &repository.ResolutionOutcome{
		Dispute:                    &disputeCopy,
		Request:                    &requestCopy,
		PublisherReversalShortfall: shortfall,
	}, nil
}

func (f *fakeDisputeStore) AddMessage(ctx context.Context, msg *models.DisputeMessage) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	return nil
}

func (f *fakeDisputeStore) ListMessages(ctx context.Context, disputeID uuid.UUID) ([]models.DisputeMessage, error) {
	return nil, nil
}

// Сквозной сценарий сделки: пополнение, заявка, принятие, размещение с
// расчётом комиссии, спор с частичным возвратом. После каждого шага
// кэшированные балансы сходятся с леджером.
func TestFullDealScenario(t *testing.T) {
	ledger := newFakeLedger()
	requests := newFakeRequestStore(ledger)
	disputes := newFakeDisputeStore(ledger, requests)

	platformID := uuid.New()
	balanceSvc := NewBalanceService(ledger, platformID)
	requestSvc := NewRequestService(requests, nil, platformID)
	disputeSvc := NewDisputeService(disputes, requests, nil, platformID)

	ctx := context.Background()
	advertiserID := uuid.New()
	publisherID := uuid.New()
	adminID := uuid.New()

	// Пополнение 1000: рекламодателю 950, платформе 50.
	depositResult, err := balanceSvc.Deposit(ctx, DepositInput{
		AccountID:         advertiserID,
		GrossAmount:       decimal.NewFromInt(1000),
		ExternalReference: "pay-scenario-1",
	})
	require.NoError(t, err)
	assert.False(t, depositResult.Replayed)
	assert.True(t, ledger.balance(advertiserID).Equal(decimal.NewFromInt(950)))
	assert.True(t, ledger.balance(platformID).Equal(decimal.NewFromInt(50)))

	// Повтор того же платёжного события ничего не зачисляет.
	replayed, err := balanceSvc.Deposit(ctx, DepositInput{
		AccountID:         advertiserID,
		GrossAmount:       decimal.NewFromInt(1000),
		ExternalReference: "pay-scenario-1",
	})
	require.NoError(t, err)
	assert.True(t, replayed.Replayed)
	assert.True(t, ledger.balance(advertiserID).Equal(decimal.NewFromInt(950)))

	// Заявка на 500 с готовым контентом.
	in := validCreateInput()
	in.AdvertiserID = advertiserID
	in.PublisherID = publisherID
	request, err := requestSvc.CreateRequest(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, request.Status)

	// Принятие издателем: денежных эффектов нет.
	accepted, err := requestSvc.Accept(ctx, request.ID, publisherID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPlacementPendingDirect, accepted.Status)
	assert.True(t, ledger.balance(advertiserID).Equal(decimal.NewFromInt(950)))

	// Подтверждение размещения: списание 500, издателю 350, платформе 150.
	settled, err := requestSvc.SubmitPlacementURL(ctx, request.ID, publisherID, "https://blog.example.com/post")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPlacementCompleted, settled.Status)
	assert.True(t, ledger.balance(advertiserID).Equal(decimal.NewFromInt(450)))
	assert.True(t, ledger.balance(publisherID).Equal(decimal.NewFromInt(350)))
	assert.True(t, ledger.balance(platformID).Equal(decimal.NewFromInt(200)))

	// Повторное подтверждение — без повторной проводки.
	entriesBefore := len(ledger.entries)
	_, err = requestSvc.SubmitPlacementURL(ctx, request.ID, publisherID, "https://blog.example.com/post")
	assert.True(t, apperror.IsAlreadyFinalized(err))
	assert.Equal(t, entriesBefore, len(ledger.entries))

	// Спор и частичный возврат 200 за счёт платформы.
	dispute, err := disputeSvc.OpenDispute(ctx, OpenDisputeInput{
		PurchaseRequestID: request.ID,
		InitiatorID:       advertiserID,
		DisputeType:       "link_removed",
		Description:       "Ссылка исчезла через неделю после размещения",
	})
	require.NoError(t, err)

	refund := decimal.NewFromInt(200)
	outcome, err := disputeSvc.Resolve(ctx, ResolveInput{
		DisputeID:        dispute.ID,
		ResolutionType:   models.ResolutionRefundPartial,
		ResolutionAmount: &refund,
		ResolvedBy:       adminID,
	}, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.DisputeStatusResolved, outcome.Dispute.Status)
	// Комиссия издателя при частичном возврате не трогается.
	assert.True(t, ledger.balance(advertiserID).Equal(decimal.NewFromInt(650)))
	assert.True(t, ledger.balance(publisherID).Equal(decimal.NewFromInt(350)))
	assert.True(t, ledger.balance(platformID).Equal(decimal.Zero))

	// Кэшированные балансы сходятся с леджером у всех участников.
	for _, accountID := range []uuid.UUID{advertiserID, publisherID, platformID} {
		report, err := balanceSvc.Reconcile(ctx, accountID)
		require.NoError(t, err)
		assert.True(t, report.Consistent, "счёт %s разошёлся с леджером", accountID)
	}
}

// Полный возврат по спору, открытому до подтверждения размещения и
// разрешённому после него. Решение о реверсе принимается по состоянию
// заявки на момент резолюции: расчёт уже проведён, значит реверсируется
// целиком — возврат рекламодателю, списание доли издателя и комиссии
// платформы.
func TestFullRefundReversesSettlement(t *testing.T) {
	ledger := newFakeLedger()
	requests := newFakeRequestStore(ledger)
	disputes := newFakeDisputeStore(ledger, requests)

	platformID := uuid.New()
	balanceSvc := NewBalanceService(ledger, platformID)
	requestSvc := NewRequestService(requests, nil, platformID)
	disputeSvc := NewDisputeService(disputes, requests, nil, platformID)

	ctx := context.Background()
	advertiserID := uuid.New()
	publisherID := uuid.New()
	adminID := uuid.New()

	_, err := ledger.Credit(ctx, advertiserID, decimal.NewFromInt(1000),
		models.EntryKindDeposit, "пополнение счёта", nil)
	require.NoError(t, err)

	in := validCreateInput()
	in.AdvertiserID = advertiserID
	in.PublisherID = publisherID
	in.ProposedPrice = decimal.NewFromInt(1000)
	request, err := requestSvc.CreateRequest(ctx, in)
	require.NoError(t, err)

	_, err = requestSvc.Accept(ctx, request.ID, publisherID)
	require.NoError(t, err)

	// Спор открыт, пока размещение ещё не подтверждено.
	dispute, err := disputeSvc.OpenDispute(ctx, OpenDisputeInput{
		PurchaseRequestID: request.ID,
		InitiatorID:       advertiserID,
		DisputeType:       "link_removed",
		Description:       "Размещение не соответствует договорённости",
	})
	require.NoError(t, err)

	_, err = requestSvc.SubmitPlacementURL(ctx, request.ID, publisherID, "https://blog.example.com/post")
	require.NoError(t, err)
	assert.True(t, ledger.balance(advertiserID).Equal(decimal.Zero))
	assert.True(t, ledger.balance(publisherID).Equal(decimal.NewFromInt(700)))
	assert.True(t, ledger.balance(platformID).Equal(decimal.NewFromInt(300)))

	outcome, err := disputeSvc.Resolve(ctx, ResolveInput{
		DisputeID:      dispute.ID,
		ResolutionType: models.ResolutionRefundFull,
		ResolvedBy:     adminID,
	}, models.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusRefunded, outcome.Request.Status)
	assert.False(t, outcome.PublisherReversalShortfall)
	assert.True(t, ledger.balance(advertiserID).Equal(decimal.NewFromInt(1000)))
	assert.True(t, ledger.balance(publisherID).Equal(decimal.Zero))
	assert.True(t, ledger.balance(platformID).Equal(decimal.Zero))

	for _, accountID := range []uuid.UUID{advertiserID, publisherID, platformID} {
		report, err := balanceSvc.Reconcile(ctx, accountID)
		require.NoError(t, err)
		assert.True(t, report.Consistent, "счёт %s разошёлся с леджером", accountID)
	}
}

// Полный возврат при пустом счёте издателя: возврат рекламодателю
// проходит целиком, реверс доли издателя пропускается, недостача
// помечается на споре.
func TestFullRefundPublisherShortfall(t *testing.T) {
	ledger := newFakeLedger()
	requests := newFakeRequestStore(ledger)
	disputes := newFakeDisputeStore(ledger, requests)

	platformID := uuid.New()
	balanceSvc := NewBalanceService(ledger, platformID)
	requestSvc := NewRequestService(requests, nil, platformID)
	disputeSvc := NewDisputeService(disputes, requests, nil, platformID)

	ctx := context.Background()
	advertiserID := uuid.New()
	publisherID := uuid.New()
	adminID := uuid.New()

	_, err := ledger.Credit(ctx, advertiserID, decimal.NewFromInt(1000),
		models.EntryKindDeposit, "пополнение счёта", nil)
	require.NoError(t, err)

	in := validCreateInput()
	in.AdvertiserID = advertiserID
	in.PublisherID = publisherID
	in.ProposedPrice = decimal.NewFromInt(1000)
	request, err := requestSvc.CreateRequest(ctx, in)
	require.NoError(t, err)

	_, err = requestSvc.Accept(ctx, request.ID, publisherID)
	require.NoError(t, err)
	_, err = requestSvc.SubmitPlacementURL(ctx, request.ID, publisherID, "https://blog.example.com/post")
	require.NoError(t, err)

	// Издатель выводит вознаграждение до резолюции.
	_, err = balanceSvc.Withdraw(ctx, publisherID, decimal.NewFromInt(700), nil, nil)
	require.NoError(t, err)
	assert.True(t, ledger.balance(publisherID).Equal(decimal.Zero))

	dispute, err := disputeSvc.OpenDispute(ctx, OpenDisputeInput{
		PurchaseRequestID: request.ID,
		InitiatorID:       advertiserID,
		DisputeType:       "link_removed",
		Description:       "Ссылка удалена сразу после оплаты размещения",
	})
	require.NoError(t, err)

	outcome, err := disputeSvc.Resolve(ctx, ResolveInput{
		DisputeID:      dispute.ID,
		ResolutionType: models.ResolutionRefundFull,
		ResolvedBy:     adminID,
	}, models.RoleAdmin)
	require.NoError(t, err)

	assert.True(t, outcome.PublisherReversalShortfall)
	assert.True(t, outcome.Dispute.PublisherReversalShortfall)
	assert.Equal(t, models.RequestStatusRefunded, outcome.Request.Status)
	// Возврат рекламодателю не блокируется нехваткой средств издателя.
	assert.True(t, ledger.balance(advertiserID).Equal(decimal.NewFromInt(1000)))
	assert.True(t, ledger.balance(publisherID).Equal(decimal.Zero))
	assert.True(t, ledger.balance(platformID).Equal(decimal.Zero))
}
