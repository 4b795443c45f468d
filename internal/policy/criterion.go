package policy

import (
	"bytes"
	"encoding/json"
	"fmt"

	dErrors "signet/pkg/domain-errors"
)

// Kind identifies one criterion predicate. The set is closed; both the
// transpiler and the validator switch over it exhaustively so adding a kind is
// a single-point, compile-checked change.
type Kind string

const (
	KindCheckAction                    Kind = "checkAction"
	KindCheckPrincipalID               Kind = "checkPrincipalId"
	KindCheckPrincipalRole             Kind = "checkPrincipalRole"
	KindCheckPrincipalGroup            Kind = "checkPrincipalGroup"
	KindCheckAccountID                 Kind = "checkAccountId"
	KindCheckAccountAddress            Kind = "checkAccountAddress"
	KindCheckAccountType               Kind = "checkAccountType"
	KindCheckAccountGroup              Kind = "checkAccountGroup"
	KindCheckSourceID                  Kind = "checkSourceId"
	KindCheckSourceAddress             Kind = "checkSourceAddress"
	KindCheckSourceAccountType         Kind = "checkSourceAccountType"
	KindCheckSourceClassification      Kind = "checkSourceClassification"
	KindCheckDestinationID             Kind = "checkDestinationId"
	KindCheckDestinationAddress        Kind = "checkDestinationAddress"
	KindCheckDestinationAccountType    Kind = "checkDestinationAccountType"
	KindCheckDestinationClassification Kind = "checkDestinationClassification"
	KindCheckIntentType                Kind = "checkIntentType"
	KindCheckIntentContract            Kind = "checkIntentContract"
	KindCheckIntentToken               Kind = "checkIntentToken"
	KindCheckIntentSpender             Kind = "checkIntentSpender"
	KindCheckIntentChainID             Kind = "checkIntentChainId"
	KindCheckIntentHexSignature        Kind = "checkIntentHexSignature"
	KindCheckIntentAmount              Kind = "checkIntentAmount"
	KindCheckIntentMessage             Kind = "checkIntentMessage"
	KindCheckIntentAlgorithm           Kind = "checkIntentAlgorithm"
	KindCheckIntentDomain              Kind = "checkIntentDomain"
	KindCheckErc721TokenID             Kind = "checkErc721TokenId"
	KindCheckErc1155TokenID            Kind = "checkErc1155TokenId"
	KindCheckErc1155Transfers          Kind = "checkErc1155Transfers"
	KindCheckPermitDeadline            Kind = "checkPermitDeadline"
	KindCheckGasFeeAmount              Kind = "checkGasFeeAmount"
	KindCheckNonceExists               Kind = "checkNonceExists"
	KindCheckNonceNotExists            Kind = "checkNonceNotExists"
	KindCheckApprovals                 Kind = "checkApprovals"
	KindCheckSpendingLimit             Kind = "checkSpendingLimit"
)

// ArgShape describes the fixed argument shape of a criterion kind.
type ArgShape int

const (
	// ShapeNone is a bare presence predicate with no arguments.
	ShapeNone ArgShape = iota
	// ShapeStringList applies the predicate to a set of strings.
	ShapeStringList
	// ShapeObjectList applies the predicate to a list of condition objects.
	ShapeObjectList
	// ShapeObject applies the predicate to a single condition object.
	ShapeObject
)

// Shape returns the argument shape for the kind. Unknown kinds panic; they are
// rejected during parsing before any caller can reach this.
func (k Kind) Shape() ArgShape {
	switch k {
	case KindCheckNonceExists, KindCheckNonceNotExists:
		return ShapeNone
	case KindCheckApprovals, KindCheckErc1155Transfers:
		return ShapeObjectList
	case KindCheckIntentAmount, KindCheckGasFeeAmount, KindCheckIntentMessage,
		KindCheckIntentDomain, KindCheckPermitDeadline, KindCheckSpendingLimit:
		return ShapeObject
	case KindCheckAction, KindCheckPrincipalID, KindCheckPrincipalRole,
		KindCheckPrincipalGroup, KindCheckAccountID, KindCheckAccountAddress,
		KindCheckAccountType, KindCheckAccountGroup, KindCheckSourceID,
		KindCheckSourceAddress, KindCheckSourceAccountType,
		KindCheckSourceClassification, KindCheckDestinationID,
		KindCheckDestinationAddress, KindCheckDestinationAccountType,
		KindCheckDestinationClassification, KindCheckIntentType,
		KindCheckIntentContract, KindCheckIntentToken, KindCheckIntentSpender,
		KindCheckIntentChainID, KindCheckIntentHexSignature,
		KindCheckIntentAlgorithm, KindCheckErc721TokenID, KindCheckErc1155TokenID:
		return ShapeStringList
	}
	panic(fmt.Sprintf("policy: unknown criterion kind %q", string(k)))
}

var kinds = map[Kind]struct{}{
	KindCheckAction: {}, KindCheckPrincipalID: {}, KindCheckPrincipalRole: {},
	KindCheckPrincipalGroup: {}, KindCheckAccountID: {}, KindCheckAccountAddress: {},
	KindCheckAccountType: {}, KindCheckAccountGroup: {}, KindCheckSourceID: {},
	KindCheckSourceAddress: {}, KindCheckSourceAccountType: {},
	KindCheckSourceClassification: {}, KindCheckDestinationID: {},
	KindCheckDestinationAddress: {}, KindCheckDestinationAccountType: {},
	KindCheckDestinationClassification: {}, KindCheckIntentType: {},
	KindCheckIntentContract: {}, KindCheckIntentToken: {}, KindCheckIntentSpender: {},
	KindCheckIntentChainID: {}, KindCheckIntentHexSignature: {},
	KindCheckIntentAmount: {}, KindCheckIntentMessage: {}, KindCheckIntentAlgorithm: {},
	KindCheckIntentDomain: {}, KindCheckErc721TokenID: {}, KindCheckErc1155TokenID: {},
	KindCheckErc1155Transfers: {}, KindCheckPermitDeadline: {},
	KindCheckGasFeeAmount: {}, KindCheckNonceExists: {}, KindCheckNonceNotExists: {},
	KindCheckApprovals: {}, KindCheckSpendingLimit: {},
}

// ParseKind validates a criterion kind string.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := kinds[k]; !ok {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown criterion kind %q", s))
	}
	return k, nil
}

// Criterion is one atomic condition a policy checks. Args retains the raw JSON
// so the transpiler can re-render literals without loss; its shape is validated
// against the kind at parse time.
type Criterion struct {
	Criterion Kind            `json:"criterion"`
	Args      json.RawMessage `json:"args,omitempty"`
}

func (c *Criterion) UnmarshalJSON(data []byte) error {
	type alias struct {
		Criterion string          `json:"criterion"`
		Args      json.RawMessage `json:"args"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	kind, err := ParseKind(a.Criterion)
	if err != nil {
		return err
	}
	if err := validateArgs(kind, a.Args); err != nil {
		return err
	}
	c.Criterion = kind
	c.Args = a.Args
	return nil
}

func validateArgs(kind Kind, args json.RawMessage) error {
	switch kind.Shape() {
	case ShapeNone:
		if !argsAbsent(args) {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s takes no args", kind))
		}
	case ShapeStringList:
		if argsAbsent(args) {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s requires a string list", kind))
		}
		var vals []string
		if err := json.Unmarshal(args, &vals); err != nil || len(vals) == 0 {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s requires a non-empty string list", kind))
		}
	case ShapeObjectList:
		if argsAbsent(args) {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s requires a condition list", kind))
		}
		var vals []map[string]any
		if err := json.Unmarshal(args, &vals); err != nil || len(vals) == 0 {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s requires a non-empty condition list", kind))
		}
	case ShapeObject:
		if argsAbsent(args) {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s requires a condition object", kind))
		}
		var val map[string]any
		if err := json.Unmarshal(args, &val); err != nil {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s requires a condition object", kind))
		}
	}
	return nil
}

func argsAbsent(args json.RawMessage) bool {
	return len(args) == 0 || bytes.Equal(bytes.TrimSpace(args), []byte("null"))
}
