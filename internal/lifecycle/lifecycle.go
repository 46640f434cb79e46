// Package lifecycle validates lead and outbox draft status transitions.
// Both chains are forward-only: only the exact next status is legal and
// nothing may be skipped or reversed.
package lifecycle

import (
	"fmt"

	"outreach-engine-go/internal/model"
)

// InvalidTransitionError reports an attempted illegal status move. These
// are programmer errors and are surfaced immediately, never retried.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid_transition:%s->%s", e.From, e.To)
}

var leadFlow = map[string]string{
	model.LeadStatusNew:            model.LeadStatusEnriched,
	model.LeadStatusEnriched:       model.LeadStatusReadyForReview,
	model.LeadStatusReadyForReview: model.LeadStatusApproved,
	model.LeadStatusApproved:       model.LeadStatusSent,
}

var draftFlow = map[string]string{
	model.DraftStatusDraft:          model.DraftStatusApproved,
	model.DraftStatusReadyForReview: model.DraftStatusApproved,
	model.DraftStatusApproved:       model.DraftStatusSent,
}

// CanTransition reports whether target is the legal next lead status.
func CanTransition(current, target string) bool {
	return leadFlow[current] == target && target != ""
}

// AssertTransition validates a lead status move.
func AssertTransition(current, target string) error {
	if !CanTransition(current, target) {
		return &InvalidTransitionError{From: current, To: target}
	}
	return nil
}

// CanTransitionDraft reports whether target is a legal next draft status.
func CanTransitionDraft(current, target string) bool {
	return draftFlow[current] == target && target != ""
}

// AssertDraftTransition validates a draft status move. Moving into
// approved additionally requires the human-approval flag.
func AssertDraftTransition(current, target string, approvedByHuman bool) error {
	if !CanTransitionDraft(current, target) {
		return &InvalidTransitionError{From: current, To: target}
	}
	if target == model.DraftStatusApproved && !approvedByHuman {
		return fmt.Errorf("draft approval requires approved_by_human")
	}
	return nil
}

// CanRegenerate reports whether a draft may be discarded and replaced.
// Approved and sent drafts are immutable.
func CanRegenerate(status string) bool {
	return status == model.DraftStatusDraft || status == model.DraftStatusReadyForReview
}
