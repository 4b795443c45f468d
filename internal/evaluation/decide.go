package evaluation

import "signet/internal/policy"

// Decide reduces per-policy results into one decision with approval
// bookkeeping. Forbid always wins over permit, regardless of order or count;
// the engine never synthesizes a forbid from an error.
func Decide(results []Result) Decision {
	var reasons []MatchedRule
	for _, result := range results {
		reasons = append(reasons, result.Reasons...)
	}

	for _, reason := range reasons {
		if reason.Type == policy.EffectForbid {
			return Decision{Decision: OutcomeForbid}
		}
	}

	// Collect approvals preserving per-result, per-reason order.
	missing := []ApprovalRequirement{}
	satisfied := []ApprovalRequirement{}
	for _, reason := range reasons {
		missing = append(missing, reason.ApprovalsMissing...)
		satisfied = append(satisfied, reason.ApprovalsSatisfied...)
	}

	if len(missing) > 0 {
		required := make([]ApprovalRequirement, 0, len(missing)+len(satisfied))
		required = append(required, missing...)
		required = append(required, satisfied...)
		return Decision{
			Decision: OutcomeConfirm,
			Approvals: &DecisionApprovals{
				Required:  required,
				Missing:   missing,
				Satisfied: satisfied,
			},
		}
	}

	return Decision{
		Decision: OutcomePermit,
		Approvals: &DecisionApprovals{
			Required:  []ApprovalRequirement{},
			Missing:   []ApprovalRequirement{},
			Satisfied: []ApprovalRequirement{},
		},
	}
}
