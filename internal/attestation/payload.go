package attestation

import (
	"encoding/json"
	"time"

	"signet/internal/evaluation"
	dErrors "signet/pkg/domain-errors"
)

// AccessEntry grants named permissions on one resource.
type AccessEntry struct {
	Resource    string   `json:"resource"`
	Permissions []string `json:"permissions"`
}

// Payload holds the claims of a decision token. The external signer turns it
// into a verifiable attestation bound to the permitted request.
type Payload struct {
	Sub          string          `json:"sub"`
	Iss          string          `json:"iss,omitempty"`
	Aud          string          `json:"aud,omitempty"`
	Iat          int64           `json:"iat"`
	Exp          int64           `json:"exp,omitempty"`
	Cnf          json.RawMessage `json:"cnf,omitempty"`
	RequestHash  string          `json:"requestHash,omitempty"`
	HashWildcard []string        `json:"hashWildcard,omitempty"`
	Access       []AccessEntry   `json:"access,omitempty"`
}

// Builder assembles permit payloads. The clock is injected for reproducible
// issued-at values in tests.
type Builder struct {
	clock func() time.Time
}

type BuilderOption func(*Builder)

func WithClock(clock func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.clock = clock
	}
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// BuildPermitPayload builds the claims for a signed decision token. Called
// only on PERMIT; anything else is a validation error, never silently
// downgraded.
func (b *Builder) BuildPermitPayload(clientID string, response *evaluation.EvaluationResponse) (*Payload, error) {
	if response == nil || response.Decision.Decision != evaluation.OutcomePermit {
		return nil, dErrors.New(dErrors.CodeValidation, "attestation requires a PERMIT decision")
	}
	if response.Principal == nil || response.Principal.UserID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "attestation requires a principal")
	}
	if response.Request == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "attestation requires a request")
	}

	iat := response.Metadata.IssuedAt
	if iat == 0 {
		iat = b.clock().Unix()
	}

	payload := &Payload{
		Sub: response.Principal.UserID,
		Iss: response.Metadata.Issuer,
		Aud: response.Metadata.Audience,
		Iat: iat,
	}
	if payload.Iss == "" {
		payload.Iss = clientID
	}
	if response.Metadata.ExpiresIn > 0 {
		payload.Exp = iat + response.Metadata.ExpiresIn
	}

	// Delegated binding: a caller-supplied confirmation key wins over the
	// principal's own key.
	if len(response.Metadata.Confirmation) > 0 {
		payload.Cnf = response.Metadata.Confirmation
	} else if len(response.Principal.Key) > 0 {
		payload.Cnf = response.Principal.Key
	}

	if response.Request.Action == evaluation.ActionGrantPermission {
		resource := ""
		if response.Request.Resource != nil {
			resource = response.Request.Resource.UID
		}
		payload.Access = []AccessEntry{{
			Resource:    resource,
			Permissions: response.Request.Permissions,
		}}
		return payload, nil
	}

	hash, err := RequestHash(response.Request)
	if err != nil {
		return nil, err
	}
	payload.RequestHash = hash
	payload.HashWildcard = GasFieldWildcard
	return payload, nil
}
