// Package compliance decides whether a region/opt-in pair may legally
// receive outbound mail. The evaluator is pure and must be re-run on
// every send attempt, since opt-in state can change between enqueue and
// send.
package compliance

// Region policies.
const (
	PolicyAutoSend  = "auto_send"
	PolicyOptInOnly = "opt_in_only"
)

// Block reasons.
const (
	ReasonMissingRegion = "missing_region"
	ReasonOptInRequired = "opt_in_required"
)

// Decision is the outcome of one compliance evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

// Evaluator resolves region codes against a configured policy map.
// Unknown regions default to opt_in_only.
type Evaluator struct {
	policies map[string]string
}

// NewEvaluator creates an evaluator from a region->policy map.
func NewEvaluator(policies map[string]string) *Evaluator {
	return &Evaluator{policies: policies}
}

// PolicyFor returns the effective policy for a region code.
func (e *Evaluator) PolicyFor(region string) string {
	if policy, ok := e.policies[region]; ok {
		return policy
	}
	return PolicyOptInOnly
}

// Evaluate returns whether sending is allowed for the given region and
// opt-in state. A nil region always blocks.
func (e *Evaluator) Evaluate(region *string, isOptIn bool) Decision {
	if region == nil {
		return Decision{Allowed: false, Reason: ReasonMissingRegion}
	}
	policy := e.PolicyFor(*region)
	if policy == PolicyAutoSend {
		return Decision{Allowed: true}
	}
	if policy == PolicyOptInOnly && isOptIn {
		return Decision{Allowed: true}
	}
	return Decision{Allowed: false, Reason: ReasonOptInRequired}
}
