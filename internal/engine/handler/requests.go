package handler

import (
	"signet/internal/entity"
	"signet/internal/evaluation"
	"signet/internal/policy"
	"signet/internal/storage"
	dErrors "signet/pkg/domain-errors"
)

// EvaluateRequest is the HTTP request body for POST /v1/evaluations.
type EvaluateRequest struct {
	evaluation.EvaluationRequest
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *EvaluateRequest) Validate() error {
	if r.Request.Action == "" {
		return dErrors.New(dErrors.CodeValidation, "request.action is required")
	}
	if r.Principal.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "principal.userId is required")
	}
	return nil
}

// EvaluateResponse is the HTTP response body for POST /v1/evaluations.
type EvaluateResponse struct {
	Decision    evaluation.Outcome            `json:"decision"`
	Approvals   *evaluation.DecisionApprovals `json:"approvals,omitempty"`
	AccessToken string                        `json:"accessToken,omitempty"`
}

// SaveDataRequest is the HTTP request body for POST /v1/data.
type SaveDataRequest struct {
	Version  string          `json:"version"`
	Entities entity.Entities `json:"entities"`
	Policies policy.Set      `json:"policies"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SaveDataRequest) Validate() error {
	if r.Version == "" {
		r.Version = string(entity.SchemaV2)
	}
	switch entity.SchemaVersion(r.Version) {
	case entity.SchemaV1, entity.SchemaV2:
	default:
		return dErrors.New(dErrors.CodeValidation, "version must be 1 or 2")
	}
	return nil
}

// DataSet converts the validated request into its storage form.
func (r *SaveDataRequest) DataSet() *storage.DataSet {
	return &storage.DataSet{
		Version:  entity.SchemaVersion(r.Version),
		Entities: r.Entities,
		Policies: r.Policies,
	}
}
