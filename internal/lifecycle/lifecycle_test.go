package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"outreach-engine-go/internal/model"
)

func TestLeadTransitions(t *testing.T) {
	// Every legal step in order
	assert.NoError(t, AssertTransition(model.LeadStatusNew, model.LeadStatusEnriched))
	assert.NoError(t, AssertTransition(model.LeadStatusEnriched, model.LeadStatusReadyForReview))
	assert.NoError(t, AssertTransition(model.LeadStatusReadyForReview, model.LeadStatusApproved))
	assert.NoError(t, AssertTransition(model.LeadStatusApproved, model.LeadStatusSent))

	// Skipping and reversing are rejected
	assert.Error(t, AssertTransition(model.LeadStatusNew, model.LeadStatusApproved))
	assert.Error(t, AssertTransition(model.LeadStatusSent, model.LeadStatusApproved))
	assert.Error(t, AssertTransition(model.LeadStatusApproved, model.LeadStatusNew))

	// Terminal state has no outgoing edges
	assert.False(t, CanTransition(model.LeadStatusSent, model.LeadStatusNew))
	assert.False(t, CanTransition(model.LeadStatusSent, ""))
}

func TestLeadTransitionErrorFormat(t *testing.T) {
	err := AssertTransition(model.LeadStatusNew, model.LeadStatusSent)
	assert.EqualError(t, err, "invalid_transition:new->sent")

	var invalid *InvalidTransitionError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, model.LeadStatusNew, invalid.From)
	assert.Equal(t, model.LeadStatusSent, invalid.To)
}

func TestDraftTransitions(t *testing.T) {
	assert.NoError(t, AssertDraftTransition(model.DraftStatusDraft, model.DraftStatusApproved, true))
	assert.NoError(t, AssertDraftTransition(model.DraftStatusReadyForReview, model.DraftStatusApproved, true))
	assert.NoError(t, AssertDraftTransition(model.DraftStatusApproved, model.DraftStatusSent, false))

	// Approval without the human flag is rejected even though the edge
	// itself is legal.
	assert.Error(t, AssertDraftTransition(model.DraftStatusDraft, model.DraftStatusApproved, false))

	// Sent is terminal
	assert.Error(t, AssertDraftTransition(model.DraftStatusSent, model.DraftStatusApproved, true))
	assert.Error(t, AssertDraftTransition(model.DraftStatusSent, model.DraftStatusDraft, true))
}

func TestCanRegenerate(t *testing.T) {
	assert.True(t, CanRegenerate(model.DraftStatusDraft))
	assert.True(t, CanRegenerate(model.DraftStatusReadyForReview))
	assert.False(t, CanRegenerate(model.DraftStatusApproved))
	assert.False(t, CanRegenerate(model.DraftStatusSent))
}
