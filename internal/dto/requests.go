package dto

import (
	"github.com/shopspring/decimal"
)

// RegisterRequest represents the request to register a new user
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreatePurchaseRequest represents the request to create a link placement request
type CreatePurchaseRequest struct {
	PublisherID      string          `json:"publisher_id" binding:"required"`
	ListingReference string          `json:"listing_reference" binding:"required"`
	AnchorText       string          `json:"anchor_text" binding:"required"`
	TargetURL        string          `json:"target_url" binding:"required"`
	ProposedPrice    decimal.Decimal `json:"proposed_price" binding:"required"`
	ProposedDuration int             `json:"proposed_duration" binding:"required"`
	ContentMode      string          `json:"content_mode" binding:"required"`
}

// SubmitArticleRequest represents the editorial article submission
type SubmitArticleRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
	Keywords string `json:"keywords"`
	Writer   string `json:"writer"`
}

// SubmitPlacementRequest represents the publisher's placement confirmation
type SubmitPlacementRequest struct {
	PlacedURL string `json:"placed_url" binding:"required"`
}

// DepositRequest represents a "funds received" event from the payment collector
type DepositRequest struct {
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod     string          `json:"payment_method"`
	ExternalReference string          `json:"external_reference" binding:"required"`
}

// WithdrawRequest represents the request to withdraw funds
type WithdrawRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	CardLast4 *string         `json:"card_last4"`
	BankName  *string         `json:"bank_name"`
}

// TransferRequest represents a manual transfer between user accounts
type TransferRequest struct {
	FromUserID  string          `json:"from_user_id" binding:"required"`
	ToUserID    string          `json:"to_user_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

// OpenDisputeRequest represents the request to open a dispute
type OpenDisputeRequest struct {
	DisputeType string `json:"dispute_type" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// ResolveDisputeRequest represents the arbiter's resolution
type ResolveDisputeRequest struct {
	ResolutionType   string           `json:"resolution_type" binding:"required"`
	ResolutionAmount *decimal.Decimal `json:"resolution_amount"`
}

// DisputeMessageRequest represents a message in a dispute thread
type DisputeMessageRequest struct {
	Content      string   `json:"content" binding:"required"`
	EvidenceURLs []string `json:"evidence_urls"`
}
