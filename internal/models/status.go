package models

// RequestStatus — основной жизненный цикл заявки на размещение ссылки.
// Статусы образуют закрытое множество, любые переходы проверяются
// через CanTransitionTo, произвольные строки недопустимы.
type RequestStatus string

const (
	RequestStatusPending                = RequestStatus("pending")
	RequestStatusPlacementPendingDirect = RequestStatus("placement_pending_direct")
	RequestStatusWaitingArticle         = RequestStatus("accepted_waiting_article")
	RequestStatusArticleReady           = RequestStatus("article_ready")
	RequestStatusPlacementCompleted     = RequestStatus("placement_completed")
	RequestStatusRejected               = RequestStatus("rejected")
	RequestStatusCancelled              = RequestStatus("cancelled")
	RequestStatusRefunded               = RequestStatus("refunded")
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending: {
		RequestStatusPlacementPendingDirect,
		RequestStatusWaitingArticle,
		RequestStatusRejected,
		RequestStatusCancelled,
	},
	RequestStatusWaitingArticle:         {RequestStatusArticleReady},
	RequestStatusArticleReady:           {RequestStatusPlacementCompleted},
	RequestStatusPlacementPendingDirect: {RequestStatusPlacementCompleted},
	// Возврат возможен только решением спора.
	RequestStatusPlacementCompleted: {RequestStatusRefunded},
	RequestStatusRejected:           {},
	RequestStatusCancelled:          {},
	RequestStatusRefunded:           {},
}

func (s RequestStatus) IsValid() bool {
	_, ok := requestTransitions[s]
	return ok
}

func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal сообщает, завершён ли жизненный цикл заявки.
// placement_completed считается терминальным для всех операций,
// кроме принудительного возврата по спору.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestStatusRejected, RequestStatusCancelled, RequestStatusRefunded, RequestStatusPlacementCompleted:
		return true
	}
	return false
}

// ExtendedStatus — дополнительный цикл подготовки статьи,
// используется только при content_mode = platform_written.
type ExtendedStatus string

const (
	ExtendedStatusWaitingArticle = ExtendedStatus("waiting_article")
	ExtendedStatusArticleReady   = ExtendedStatus("article_ready")
	ExtendedStatusPlaced         = ExtendedStatus("placed")
)

// ContentMode определяет, откуда берётся контент для размещения.
type ContentMode string

const (
	ContentModeExisting        = ContentMode("existing")
	ContentModePlatformWritten = ContentMode("platform_written")
	ContentModeCustom          = ContentMode("custom")
)

func (m ContentMode) IsValid() bool {
	switch m {
	case ContentModeExisting, ContentModePlatformWritten, ContentModeCustom:
		return true
	}
	return false
}

// DisputeStatus — жизненный цикл спора.
type DisputeStatus string

const (
	DisputeStatusOpen        = DisputeStatus("open")
	DisputeStatusUnderReview = DisputeStatus("under_review")
	DisputeStatusResolved    = DisputeStatus("resolved")
	DisputeStatusClosed      = DisputeStatus("closed")
	DisputeStatusEscalated   = DisputeStatus("escalated")
)

var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeStatusOpen:        {DisputeStatusUnderReview, DisputeStatusResolved, DisputeStatusEscalated},
	DisputeStatusUnderReview: {DisputeStatusResolved, DisputeStatusEscalated},
	DisputeStatusEscalated:   {DisputeStatusResolved},
	DisputeStatusResolved:    {DisputeStatusClosed},
	DisputeStatusClosed:      {},
}

func (s DisputeStatus) CanTransitionTo(next DisputeStatus) bool {
	for _, allowed := range disputeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive сообщает, блокирует ли спор открытие нового по той же заявке.
func (s DisputeStatus) IsActive() bool {
	switch s {
	case DisputeStatusOpen, DisputeStatusUnderReview, DisputeStatusEscalated:
		return true
	}
	return false
}

// ResolutionType — варианты решения спора арбитром.
type ResolutionType string

const (
	ResolutionRefundFull    = ResolutionType("refund_full")
	ResolutionRefundPartial = ResolutionType("refund_partial")
	ResolutionReplacement   = ResolutionType("replacement")
	ResolutionCompensation  = ResolutionType("compensation")
	ResolutionDismissed     = ResolutionType("dismissed")
)

func (r ResolutionType) IsValid() bool {
	switch r {
	case ResolutionRefundFull, ResolutionRefundPartial, ResolutionReplacement,
		ResolutionCompensation, ResolutionDismissed:
		return true
	}
	return false
}

// RequiresAmount сообщает, обязана ли резолюция содержать сумму.
func (r ResolutionType) RequiresAmount() bool {
	return r == ResolutionRefundPartial || r == ResolutionCompensation
}

// EntryKind — виды записей в леджере. Сумма записи всегда положительна,
// знак определяется видом.
type EntryKind string

const (
	EntryKindDeposit    = EntryKind("deposit")
	EntryKindWithdrawal = EntryKind("withdrawal")
	EntryKindPurchase   = EntryKind("purchase")
	EntryKindCommission = EntryKind("commission")
	EntryKindRefund     = EntryKind("refund")
)

// IsDebit сообщает, уменьшает ли запись баланс счёта.
func (k EntryKind) IsDebit() bool {
	return k == EntryKindWithdrawal || k == EntryKindPurchase
}

// Роли пользователей.
const (
	RoleAdvertiser = "advertiser"
	RolePublisher  = "publisher"
	RoleAdmin      = "admin"
)

// ValidRoles список валидных ролей.
var ValidRoles = map[string]struct{}{
	RoleAdvertiser: {},
	RolePublisher:  {},
	RoleAdmin:      {},
}
