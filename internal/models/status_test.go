package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestStatusTransitions(t *testing.T) {
	assert.True(t, RequestStatusPending.CanTransitionTo(RequestStatusPlacementPendingDirect))
	assert.True(t, RequestStatusPending.CanTransitionTo(RequestStatusWaitingArticle))
	assert.True(t, RequestStatusPending.CanTransitionTo(RequestStatusRejected))
	assert.True(t, RequestStatusPending.CanTransitionTo(RequestStatusCancelled))
	assert.True(t, RequestStatusWaitingArticle.CanTransitionTo(RequestStatusArticleReady))
	assert.True(t, RequestStatusArticleReady.CanTransitionTo(RequestStatusPlacementCompleted))
	assert.True(t, RequestStatusPlacementPendingDirect.CanTransitionTo(RequestStatusPlacementCompleted))
	assert.True(t, RequestStatusPlacementCompleted.CanTransitionTo(RequestStatusRefunded))

	assert.False(t, RequestStatusPending.CanTransitionTo(RequestStatusPlacementCompleted))
	assert.False(t, RequestStatusRejected.CanTransitionTo(RequestStatusPending))
	assert.False(t, RequestStatusCancelled.CanTransitionTo(RequestStatusPlacementCompleted))
	assert.False(t, RequestStatusRefunded.CanTransitionTo(RequestStatusPlacementCompleted))
}

func TestRequestStatusIsTerminal(t *testing.T) {
	assert.True(t, RequestStatusRejected.IsTerminal())
	assert.True(t, RequestStatusCancelled.IsTerminal())
	assert.True(t, RequestStatusRefunded.IsTerminal())
	assert.True(t, RequestStatusPlacementCompleted.IsTerminal())

	assert.False(t, RequestStatusPending.IsTerminal())
	assert.False(t, RequestStatusWaitingArticle.IsTerminal())
	assert.False(t, RequestStatusArticleReady.IsTerminal())
}

func TestAcceptTarget(t *testing.T) {
	direct := &PurchaseRequest{ContentMode: ContentModeExisting}
	assert.Equal(t, RequestStatusPlacementPendingDirect, direct.AcceptTarget())

	custom := &PurchaseRequest{ContentMode: ContentModeCustom}
	assert.Equal(t, RequestStatusPlacementPendingDirect, custom.AcceptTarget())

	written := &PurchaseRequest{ContentMode: ContentModePlatformWritten}
	assert.Equal(t, RequestStatusWaitingArticle, written.AcceptTarget())
}

func TestDisputeStatus(t *testing.T) {
	assert.True(t, DisputeStatusOpen.IsActive())
	assert.True(t, DisputeStatusUnderReview.IsActive())
	assert.True(t, DisputeStatusEscalated.IsActive())
	assert.False(t, DisputeStatusResolved.IsActive())
	assert.False(t, DisputeStatusClosed.IsActive())

	assert.True(t, DisputeStatusOpen.CanTransitionTo(DisputeStatusResolved))
	assert.True(t, DisputeStatusEscalated.CanTransitionTo(DisputeStatusResolved))
	assert.False(t, DisputeStatusClosed.CanTransitionTo(DisputeStatusOpen))
}

func TestResolutionType(t *testing.T) {
	assert.True(t, ResolutionRefundPartial.RequiresAmount())
	assert.True(t, ResolutionCompensation.RequiresAmount())
	assert.False(t, ResolutionRefundFull.RequiresAmount())
	assert.False(t, ResolutionReplacement.RequiresAmount())
	assert.False(t, ResolutionDismissed.RequiresAmount())

	assert.False(t, ResolutionType("arbitrary").IsValid())
}
