// Package preflight is the final content and approval safety gate run
// immediately before dispatch.
package preflight

import (
	"net/url"
	"strings"

	"outreach-engine-go/internal/model"
	"outreach-engine-go/internal/render"
)

// MaxBodyWords is the hard content-length ceiling for outbound bodies.
const MaxBodyWords = 110

// Result carries the gate outcome plus a flat diagnostic snapshot of
// every check performed, recorded to the audit trail whether or not the
// gate passes.
type Result struct {
	Allowed bool
	Details map[string]interface{}
}

func sourceURLValid(raw string) bool {
	if raw == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// Run evaluates the draft against every preflight check. The function
// is pure aside from rendering and idempotent: two calls on the same
// draft yield the same result and details.
func Run(draft *model.OutboxDraft, lead *model.Lead, company *model.Company, signature render.Signature) Result {
	rendered := render.Body(draft.BodyText, signature)

	placeholderClean := !render.HasUnresolvedPlaceholders(rendered) &&
		!render.HasUnresolvedPlaceholders(draft.Subject)
	signaturePresent := signature.Complete() &&
		containsVerbatim(rendered, signature.Render())
	factInBody := draft.PersonalizationFact != "" &&
		containsVerbatim(draft.BodyText, draft.PersonalizationFact)

	details := map[string]interface{}{
		"to_email":                     draft.ToEmail,
		"subject_length":               len(draft.Subject),
		"word_count":                   render.WordCount(draft.BodyText),
		"placeholder_scan":             placeholderClean,
		"signature_present":            signaturePresent,
		"signature_required_fields":    signature.Complete(),
		"personalization_fact":         draft.PersonalizationFact,
		"personalization_source_url":   draft.PersonalizationSourceURL,
		"personalization_fact_in_body": factInBody,
		"status":                       draft.Status,
		"approved_by_human":            draft.ApprovedByHuman,
	}

	allowed := true
	if !draft.ApprovedByHuman || draft.Status != model.DraftStatusApproved {
		allowed = false
	}
	if !signature.Complete() || !signaturePresent {
		allowed = false
	}
	if !placeholderClean {
		allowed = false
	}
	if render.WordCount(draft.BodyText) > MaxBodyWords {
		allowed = false
	}
	if draft.PersonalizationFact != "" && !sourceURLValid(draft.PersonalizationSourceURL) {
		allowed = false
	}
	if draft.PersonalizationFact != "" && !factInBody {
		allowed = false
	}

	return Result{Allowed: allowed, Details: details}
}

func containsVerbatim(haystack, needle string) bool {
	return needle != "" && strings.Contains(haystack, needle)
}
