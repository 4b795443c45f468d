package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/policy"
)

func permitReason(id string, missing, satisfied []ApprovalRequirement) MatchedRule {
	return MatchedRule{
		PolicyID:           id,
		Type:               policy.EffectPermit,
		ApprovalsMissing:   missing,
		ApprovalsSatisfied: satisfied,
	}
}

func req(count int, ids ...string) ApprovalRequirement {
	return ApprovalRequirement{
		ApprovalCount:      count,
		ApprovalEntityType: "user",
		EntityIDs:          ids,
	}
}

func TestDecide(t *testing.T) {
	t.Run("no reasons means permit", func(t *testing.T) {
		d := Decide([]Result{{Permit: true}})
		assert.Equal(t, OutcomePermit, d.Decision)
		require.NotNil(t, d.Approvals)
		assert.Empty(t, d.Approvals.Required)
		assert.Empty(t, d.Approvals.Missing)
		assert.Empty(t, d.Approvals.Satisfied)
	})

	t.Run("any forbid wins", func(t *testing.T) {
		d := Decide([]Result{{
			Reasons: []MatchedRule{
				permitReason("p1", nil, []ApprovalRequirement{req(1, "alice")}),
				{PolicyID: "p2", Type: policy.EffectForbid},
				permitReason("p3", []ApprovalRequirement{req(2, "bob")}, nil),
			},
		}})
		assert.Equal(t, OutcomeForbid, d.Decision)
		assert.Nil(t, d.Approvals)
	})

	t.Run("forbid in a later result group still wins", func(t *testing.T) {
		d := Decide([]Result{
			{Reasons: []MatchedRule{permitReason("p1", nil, nil)}},
			{Reasons: []MatchedRule{{PolicyID: "p2", Type: policy.EffectForbid}}},
		})
		assert.Equal(t, OutcomeForbid, d.Decision)
	})

	t.Run("missing approvals yield confirm", func(t *testing.T) {
		missing := req(2, "alice", "bob")
		satisfied := req(1, "carol")
		d := Decide([]Result{{
			Reasons: []MatchedRule{
				permitReason("p1", []ApprovalRequirement{missing}, []ApprovalRequirement{satisfied}),
			},
		}})
		assert.Equal(t, OutcomeConfirm, d.Decision)
		require.NotNil(t, d.Approvals)
		assert.Equal(t, []ApprovalRequirement{missing}, d.Approvals.Missing)
		assert.Equal(t, []ApprovalRequirement{satisfied}, d.Approvals.Satisfied)
		assert.Equal(t, []ApprovalRequirement{missing, satisfied}, d.Approvals.Required)
	})

	t.Run("aggregation preserves reason order across policies", func(t *testing.T) {
		m1, m2 := req(1, "m1"), req(1, "m2")
		s1, s2 := req(1, "s1"), req(1, "s2")
		d := Decide([]Result{{
			Reasons: []MatchedRule{
				permitReason("p1", []ApprovalRequirement{m1}, []ApprovalRequirement{s1}),
				permitReason("p2", []ApprovalRequirement{m2}, []ApprovalRequirement{s2}),
			},
		}})
		assert.Equal(t, OutcomeConfirm, d.Decision)
		assert.Equal(t, []ApprovalRequirement{m1, m2}, d.Approvals.Missing)
		assert.Equal(t, []ApprovalRequirement{s1, s2}, d.Approvals.Satisfied)
		assert.Equal(t, []ApprovalRequirement{m1, m2, s1, s2}, d.Approvals.Required)
	})

	t.Run("satisfied approvals alone still permit", func(t *testing.T) {
		d := Decide([]Result{{
			Permit: true,
			Reasons: []MatchedRule{
				permitReason("p1", []ApprovalRequirement{}, []ApprovalRequirement{req(1, "alice")}),
			},
		}})
		assert.Equal(t, OutcomePermit, d.Decision)
	})
}
