package attestation

import (
	"context"
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "signet/pkg/domain-errors"
)

// Signer turns an attestation payload into a signed, verifiable token. The
// engine never performs signing itself; hosts may back this with a KMS.
type Signer interface {
	Sign(ctx context.Context, payload *Payload) (string, error)
}

// JWTSigner signs payloads as HS256 JWTs.
type JWTSigner struct {
	signingKey []byte
}

func NewJWTSigner(signingKey string) *JWTSigner {
	return &JWTSigner{signingKey: []byte(signingKey)}
}

func (s *JWTSigner) Sign(_ context.Context, payload *Payload) (string, error) {
	if payload == nil {
		return "", dErrors.New(dErrors.CodeValidation, "payload is required")
	}

	// Round-trip through MapClaims so the custom claims (cnf, requestHash,
	// hashWildcard, access) land at the top level of the token.
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "serialize payload", err)
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "build claims", err)
	}
	claims["jti"] = uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "sign attestation", err)
	}
	return signed, nil
}
