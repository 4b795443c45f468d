package attestation

import (
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/sha3"

	"signet/internal/evaluation"
	dErrors "signet/pkg/domain-errors"
)

// GasFieldWildcard lists the request field paths downstream infrastructure may
// recompute (fee bumping, nonce management). Token consumers exclude them from
// the request hash's strict-equality check.
var GasFieldWildcard = []string{
	"transactionRequest.gas",
	"transactionRequest.gasPrice",
	"transactionRequest.maxFeePerGas",
	"transactionRequest.maxPriorityFeePerGas",
	"transactionRequest.nonce",
}

// RequestHash computes the Keccak-256 content hash of the canonical JSON form
// of the request. Canonicalization goes through a map round-trip so object
// keys serialize sorted.
func RequestHash(request *evaluation.Request) (string, error) {
	raw, err := json.Marshal(request)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeValidation, "serialize request", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", dErrors.Wrap(dErrors.CodeValidation, "canonicalize request", err)
	}
	canonical, err := json.Marshal(doc)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeValidation, "canonicalize request", err)
	}

	digest := sha3.NewLegacyKeccak256()
	digest.Write(canonical)
	return "0x" + hex.EncodeToString(digest.Sum(nil)), nil
}
