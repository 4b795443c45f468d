package engine_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/attestation"
	"signet/internal/audit"
	"signet/internal/compiler"
	"signet/internal/engine"
	"signet/internal/entity"
	"signet/internal/evaluation"
	"signet/internal/intent"
	"signet/internal/policy"
	"signet/internal/storage"
	dErrors "signet/pkg/domain-errors"
)

const clientID = "client-1"

func crit(kind policy.Kind, args string) policy.Criterion {
	c := policy.Criterion{Criterion: kind}
	if args != "" {
		c.Args = json.RawMessage(args)
	}
	return c
}

func seedStore(t *testing.T, policies policy.Set) storage.DataStore {
	t.Helper()
	store := storage.NewInMemoryDataStore()
	err := store.Save(context.Background(), clientID, &storage.DataSet{
		Version: entity.SchemaV2,
		Entities: entity.Entities{
			Users: []entity.User{
				{ID: "alice", Role: "admin"},
				{ID: "bob", Role: "member"},
			},
			Accounts: []entity.Account{
				{ID: "treasury", Address: "0xAAA0000000000000000000000000000000000001"},
			},
		},
		Policies: policies,
	})
	require.NoError(t, err)
	return store
}

func newService(t *testing.T, policies policy.Set, opts ...engine.Option) (*engine.Service, *audit.MemoryPublisher) {
	t.Helper()
	publisher := audit.NewMemoryPublisher()
	opts = append(opts, engine.WithAuditPublisher(publisher))
	service := engine.New(
		seedStore(t, policies),
		compiler.New(compiler.RegoBuilder{}),
		evaluation.NewRuntime(),
		intent.NewDecoder(),
		attestation.NewJWTSigner("test-key"),
		opts...,
	)
	return service, publisher
}

func transferRequest(value string) evaluation.EvaluationRequest {
	return evaluation.EvaluationRequest{
		Request: evaluation.Request{
			Action: evaluation.ActionSignTransaction,
			TransactionRequest: &evaluation.TransactionRequest{
				From:    "0xaaa0000000000000000000000000000000000001",
				To:      "0xbbb0000000000000000000000000000000000002",
				Value:   value,
				ChainID: "1",
			},
		},
		Principal: evaluation.Principal{UserID: "alice"},
		Metadata:  evaluation.Metadata{IssuedAt: 1700000000, ExpiresIn: 600},
	}
}

func basePolicies() policy.Set {
	return policy.Set{
		{
			ID:   "allow-transfers",
			Name: "allow transfers",
			Then: policy.EffectPermit,
			When: []policy.Criterion{
				crit(policy.KindCheckAction, `["signTransaction"]`),
				crit(policy.KindCheckIntentType, `["transferNative"]`),
			},
		},
		{
			ID:   "cap-amount",
			Name: "cap amount",
			Then: policy.EffectForbid,
			When: []policy.Criterion{
				crit(policy.KindCheckIntentAmount, `{"operator": "gt", "value": "1000000"}`),
			},
		},
	}
}

func TestServiceEvaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("permit issues a signed attestation", func(t *testing.T) {
		service, publisher := newService(t, basePolicies())

		response, err := service.Evaluate(ctx, clientID, transferRequest("500"))
		require.NoError(t, err)

		assert.Equal(t, evaluation.OutcomePermit, response.Decision.Decision)
		assert.NotEmpty(t, response.AccessToken)

		events := publisher.Events()
		require.Len(t, events, 1)
		assert.Equal(t, clientID, events[0].ClientID)
		assert.Equal(t, "alice", events[0].PrincipalID)
		assert.Equal(t, "PERMIT", events[0].Decision)
		assert.Contains(t, events[0].PolicyIDs, "allow-transfers")
	})

	t.Run("forbid yields no attestation", func(t *testing.T) {
		service, publisher := newService(t, basePolicies())

		response, err := service.Evaluate(ctx, clientID, transferRequest("2000000"))
		require.NoError(t, err)

		assert.Equal(t, evaluation.OutcomeForbid, response.Decision.Decision)
		assert.Empty(t, response.AccessToken)

		events := publisher.Events()
		require.Len(t, events, 1)
		assert.Equal(t, "FORBID", events[0].Decision)
	})

	t.Run("missing approvals confirm without attestation", func(t *testing.T) {
		policies := policy.Set{{
			ID:   "dual-control",
			Name: "dual control",
			Then: policy.EffectPermit,
			When: []policy.Criterion{
				crit(policy.KindCheckAction, `["signTransaction"]`),
				crit(policy.KindCheckApprovals, `[{"approvalCount": 1, "countPrincipal": false, "approvalEntityType": "user", "entityIds": ["bob"]}]`),
			},
		}}
		service, _ := newService(t, policies)

		response, err := service.Evaluate(ctx, clientID, transferRequest("500"))
		require.NoError(t, err)

		assert.Equal(t, evaluation.OutcomeConfirm, response.Decision.Decision)
		assert.Empty(t, response.AccessToken)
		require.NotNil(t, response.Decision.Approvals)
		assert.Len(t, response.Decision.Approvals.Missing, 1)
	})

	t.Run("unknown client is not found", func(t *testing.T) {
		service, _ := newService(t, basePolicies())

		_, err := service.Evaluate(ctx, "unknown-client", transferRequest("500"))
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	t.Run("undecodable payload is an invalid intent", func(t *testing.T) {
		service, publisher := newService(t, basePolicies())

		req := transferRequest("500")
		req.Request.TransactionRequest = nil
		_, err := service.Evaluate(ctx, clientID, req)
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeInvalidIntent, dErrors.CodeOf(err))
		// Errors never reach the audit stream as decisions.
		assert.Empty(t, publisher.Events())
	})
}
