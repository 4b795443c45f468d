package compiler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/policy"
)

func criterion(t *testing.T, kind policy.Kind, args string) policy.Criterion {
	t.Helper()
	c := policy.Criterion{Criterion: kind}
	if args != "" {
		c.Args = json.RawMessage(args)
	}
	return c
}

func TestTranspileCriterion(t *testing.T) {
	t.Run("bare predicate for no-arg kinds", func(t *testing.T) {
		expr, err := TranspileCriterion(criterion(t, policy.KindCheckNonceExists, ""))
		require.NoError(t, err)
		assert.Equal(t, "checkNonceExists", expr)
	})

	t.Run("bare predicate when args degrade to empty", func(t *testing.T) {
		for _, args := range []string{"null", "[]"} {
			expr, err := TranspileCriterion(criterion(t, policy.KindCheckAction, args))
			require.NoError(t, err)
			assert.Equal(t, "checkAction", expr)
		}
	})

	t.Run("string list renders a set literal", func(t *testing.T) {
		expr, err := TranspileCriterion(criterion(t, policy.KindCheckDestinationAddress, `["0x123", "0x456"]`))
		require.NoError(t, err)
		assert.Equal(t, `checkDestinationAddress({"0x123", "0x456"})`, expr)
	})

	t.Run("object renders a compact object literal", func(t *testing.T) {
		expr, err := TranspileCriterion(criterion(t, policy.KindCheckIntentAmount,
			`{"currency": "*", "operator": "lte", "value": "1000000000000000000"}`))
		require.NoError(t, err)
		assert.Equal(t, `checkIntentAmount({"currency":"*","operator":"lte","value":"1000000000000000000"})`, expr)
	})

	t.Run("object list renders a compact list literal", func(t *testing.T) {
		expr, err := TranspileCriterion(criterion(t, policy.KindCheckErc1155Transfers,
			`[{"tokenId": "nft-1", "operator": "eq", "value": "1"}]`))
		require.NoError(t, err)
		assert.Equal(t, `checkErc1155Transfers([{"tokenId":"nft-1","operator":"eq","value":"1"}])`, expr)
	})

	t.Run("approvals bind to an intermediate", func(t *testing.T) {
		expr, err := TranspileCriterion(criterion(t, policy.KindCheckApprovals,
			`[{"approvalCount":2,"countPrincipal":false,"approvalEntityType":"user","entityIds":["alice"]}]`))
		require.NoError(t, err)
		assert.Contains(t, expr, "approvals := checkApprovals(")
	})

	t.Run("rejects malformed string list args", func(t *testing.T) {
		_, err := TranspileCriterion(criterion(t, policy.KindCheckAction, `[1, 2]`))
		require.Error(t, err)
	})
}

func TestTranspileReason(t *testing.T) {
	t.Run("permit with approvals references the intermediate", func(t *testing.T) {
		p := policy.Policy{
			ID:   "p1",
			Name: "needs signoff",
			Then: policy.EffectPermit,
			When: []policy.Criterion{
				criterion(t, policy.KindCheckApprovals, `[{"approvalCount":1}]`),
			},
		}
		reason := TranspileReason(p)
		assert.Contains(t, reason, `"approvalsSatisfied": approvals.approvalsSatisfied`)
		assert.Contains(t, reason, `"approvalsMissing": approvals.approvalsMissing`)
		assert.Contains(t, reason, `"policyId": "p1"`)
	})

	t.Run("permit without approvals emits empty lists", func(t *testing.T) {
		p := policy.Policy{ID: "p2", Name: "plain", Then: policy.EffectPermit}
		reason := TranspileReason(p)
		assert.Contains(t, reason, `"approvalsSatisfied": []`)
		assert.Contains(t, reason, `"approvalsMissing": []`)
	})

	t.Run("forbid never references approvals", func(t *testing.T) {
		p := policy.Policy{
			ID:   "p3",
			Name: "block",
			Then: policy.EffectForbid,
			When: []policy.Criterion{
				criterion(t, policy.KindCheckApprovals, `[{"approvalCount":1}]`),
			},
		}
		reason := TranspileReason(p)
		assert.NotContains(t, reason, "approvals.")
		assert.Contains(t, reason, `"type": "forbid"`)
	})
}

func TestRender(t *testing.T) {
	set := policy.Set{
		{
			ID:   "p1",
			Name: "allow transfers",
			Then: policy.EffectPermit,
			When: []policy.Criterion{
				criterion(t, policy.KindCheckAction, `["signTransaction"]`),
				criterion(t, policy.KindCheckIntentType, `["transferNative"]`),
			},
		},
		{
			ID:   "p2",
			Name: "block address",
			Then: policy.EffectForbid,
			When: []policy.Criterion{
				criterion(t, policy.KindCheckDestinationAddress, `["0xdead"]`),
			},
		},
	}

	source, err := Render(set)
	require.NoError(t, err)

	assert.Contains(t, source, "package signet.policies")
	assert.Contains(t, source, "permit[reason] {")
	assert.Contains(t, source, "forbid[reason] {")
	assert.Contains(t, source, `checkAction({"signTransaction"})`)
	assert.Contains(t, source, `checkDestinationAddress({"0xdead"})`)
	assert.Contains(t, source, `"policyId": "p1"`)
	assert.Contains(t, source, `"policyId": "p2"`)
}
