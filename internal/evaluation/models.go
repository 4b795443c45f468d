package evaluation

import (
	"encoding/json"

	"signet/internal/policy"
)

// Action identifies the kind of authorization request being evaluated.
type Action string

const (
	ActionSignTransaction   Action = "signTransaction"
	ActionSignMessage       Action = "signMessage"
	ActionSignTypedData     Action = "signTypedData"
	ActionSignRaw           Action = "signRaw"
	ActionSignUserOperation Action = "signUserOperation"
	ActionGrantPermission   Action = "grantPermission"
)

// Principal is the authenticated requester, carried through unchanged from
// the authentication collaborator.
type Principal struct {
	UserID string          `json:"userId"`
	Role   string          `json:"role,omitempty"`
	Key    json.RawMessage `json:"key,omitempty"`
}

// Approval is a recorded endorsement counted toward a policy's approval
// requirement.
type Approval struct {
	UserID string `json:"userId"`
}

// TransactionRequest is the raw transaction payload. Amount-like fields are
// decimal or 0x-hex strings; they may exceed 64 bits and are never parsed
// into machine integers.
type TransactionRequest struct {
	From                 string `json:"from,omitempty"`
	To                   string `json:"to,omitempty"`
	Data                 string `json:"data,omitempty"`
	Value                string `json:"value,omitempty"`
	ChainID              string `json:"chainId,omitempty"`
	Gas                  string `json:"gas,omitempty"`
	GasPrice             string `json:"gasPrice,omitempty"`
	MaxFeePerGas         string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas,omitempty"`

	// Nonce stays a pointer so the rule program can distinguish "no nonce"
	// from nonce zero.
	Nonce *uint64 `json:"nonce"`
}

// Resource names the wallet or vault a request operates on.
type Resource struct {
	UID string `json:"uid"`
}

// Request is the action-typed payload of an evaluation request.
type Request struct {
	Action             Action              `json:"action"`
	Nonce              string              `json:"nonce,omitempty"`
	Resource           *Resource           `json:"resource,omitempty"`
	TransactionRequest *TransactionRequest `json:"transactionRequest,omitempty"`
	Message            string              `json:"message,omitempty"`
	TypedData          json.RawMessage     `json:"typedData,omitempty"`
	Payload            string              `json:"payload,omitempty"`
	Algorithm          string              `json:"algorithm,omitempty"`
	UserOperation      json.RawMessage     `json:"userOperation,omitempty"`
	Permissions        []string            `json:"permissions,omitempty"`
}

// Metadata carries token-issuance parameters supplied by the caller.
type Metadata struct {
	Issuer       string          `json:"issuer,omitempty"`
	Audience     string          `json:"audience,omitempty"`
	IssuedAt     int64           `json:"issuedAt,omitempty"`
	ExpiresIn    int64           `json:"expiresIn,omitempty"`
	Confirmation json.RawMessage `json:"confirmation,omitempty"`
}

// EvaluationRequest is the full inbound request the engine evaluates.
type EvaluationRequest struct {
	Request   Request    `json:"request"`
	Principal Principal  `json:"principal"`
	Approvals []Approval `json:"approvals,omitempty"`
	Transfers []Transfer `json:"transfers,omitempty"`
	Metadata  Metadata   `json:"metadata,omitempty"`
}

// Transfer is one historical transfer record used by spending-limit checks.
type Transfer struct {
	Amount      string `json:"amount"`
	Token       string `json:"token"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	InitiatedBy string `json:"initiatedBy,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// Erc1155Transfer is one token transfer inside a batch intent.
type Erc1155Transfer struct {
	TokenID string `json:"tokenId"`
	Amount  string `json:"amount"`
}

// Intent is the semantic interpretation of a raw payload, produced by the
// external intent decoder.
type Intent struct {
	Type         string            `json:"type"`
	From         string            `json:"from,omitempty"`
	To           string            `json:"to,omitempty"`
	Contract     string            `json:"contract,omitempty"`
	Token        string            `json:"token,omitempty"`
	Spender      string            `json:"spender,omitempty"`
	ChainID      string            `json:"chainId,omitempty"`
	Amount       string            `json:"amount,omitempty"`
	HexSignature string            `json:"hexSignature,omitempty"`
	Message      string            `json:"message,omitempty"`
	Payload      string            `json:"payload,omitempty"`
	Algorithm    string            `json:"algorithm,omitempty"`
	Domain       map[string]any    `json:"domain,omitempty"`
	Deadline     string            `json:"deadline,omitempty"`
	NFTIDs       []string          `json:"nftIds,omitempty"`
	Transfers    []Erc1155Transfer `json:"transfers,omitempty"`
}

// Input is the per-evaluation record handed to the rule program. Built fresh
// for each request, never persisted.
type Input struct {
	Action             Action              `json:"action"`
	Principal          Principal           `json:"principal"`
	Approvals          []Approval          `json:"approvals"`
	Intent             *Intent             `json:"intent,omitempty"`
	TransactionRequest *TransactionRequest `json:"transactionRequest,omitempty"`
	Resource           *Resource           `json:"resource,omitempty"`
	Permissions        []string            `json:"permissions,omitempty"`
	Transfers          []Transfer          `json:"transfers,omitempty"`
	Now                int64               `json:"now"`
}

// ApprovalRequirement is one approval condition a policy demands. It appears
// verbatim in reasons as approval state.
type ApprovalRequirement struct {
	ApprovalCount      int      `json:"approvalCount"`
	CountPrincipal     bool     `json:"countPrincipal"`
	ApprovalEntityType string   `json:"approvalEntityType"`
	EntityIDs          []string `json:"entityIds"`
}

// MatchedRule is one reason emitted by the rule program. Produced once per
// evaluation, never mutated, consumed immediately by the combinator.
type MatchedRule struct {
	PolicyID           string                `json:"policyId"`
	PolicyName         string                `json:"policyName"`
	Type               policy.Effect         `json:"type"`
	ApprovalsSatisfied []ApprovalRequirement `json:"approvalsSatisfied"`
	ApprovalsMissing   []ApprovalRequirement `json:"approvalsMissing"`
}

// Result is one evaluation result group. A bundle may legitimately yield more
// than one; the combinator treats the full list uniformly.
type Result struct {
	Permit  bool          `json:"permit"`
	Reasons []MatchedRule `json:"reasons"`
}

// Outcome is the final decision value. The three are exhaustive and mutually
// exclusive.
type Outcome string

const (
	OutcomePermit  Outcome = "PERMIT"
	OutcomeForbid  Outcome = "FORBID"
	OutcomeConfirm Outcome = "CONFIRM"
)

// DecisionApprovals aggregates approval bookkeeping for a CONFIRM decision.
type DecisionApprovals struct {
	Required  []ApprovalRequirement `json:"required"`
	Missing   []ApprovalRequirement `json:"missing"`
	Satisfied []ApprovalRequirement `json:"satisfied"`
}

// Decision is the combined outcome of one evaluation.
type Decision struct {
	Decision  Outcome            `json:"decision"`
	Approvals *DecisionApprovals `json:"approvals,omitempty"`
}

// EvaluationResponse is what the engine returns to its host: the decision
// plus, on permit, a signed access token.
type EvaluationResponse struct {
	Decision    Decision   `json:"decision"`
	Principal   *Principal `json:"principal,omitempty"`
	Request     *Request   `json:"request,omitempty"`
	Metadata    Metadata   `json:"metadata,omitempty"`
	AccessToken string     `json:"accessToken,omitempty"`
}
