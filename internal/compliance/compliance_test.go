package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testEvaluator() *Evaluator {
	return NewEvaluator(map[string]string{
		"US": PolicyAutoSend,
		"EU": PolicyOptInOnly,
	})
}

func strPtr(s string) *string { return &s }

func TestEvaluateAutoSendRegion(t *testing.T) {
	e := testEvaluator()

	decision := e.Evaluate(strPtr("US"), false)
	assert.True(t, decision.Allowed)
	assert.Empty(t, decision.Reason)

	// Opt-in is irrelevant under auto_send
	decision = e.Evaluate(strPtr("US"), true)
	assert.True(t, decision.Allowed)
}

func TestEvaluateOptInOnlyRegion(t *testing.T) {
	e := testEvaluator()

	decision := e.Evaluate(strPtr("EU"), false)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonOptInRequired, decision.Reason)

	decision = e.Evaluate(strPtr("EU"), true)
	assert.True(t, decision.Allowed)
}

func TestEvaluateMissingRegion(t *testing.T) {
	e := testEvaluator()

	decision := e.Evaluate(nil, true)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonMissingRegion, decision.Reason)
}

func TestEvaluateUnknownRegionDefaultsToOptInOnly(t *testing.T) {
	e := testEvaluator()

	assert.Equal(t, PolicyOptInOnly, e.PolicyFor("JP"))

	decision := e.Evaluate(strPtr("JP"), false)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonOptInRequired, decision.Reason)

	decision = e.Evaluate(strPtr("JP"), true)
	assert.True(t, decision.Allowed)
}
