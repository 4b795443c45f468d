package storage

import (
	"context"

	"signet/internal/entity"
	"signet/internal/policy"
	dErrors "signet/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across in-memory and
// redis implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "data set not found")

// DataSet is one client's entity and policy state. It arrives already
// signature-verified; the engine trusts it completely.
type DataSet struct {
	Version  entity.SchemaVersion `json:"version"`
	Entities entity.Entities      `json:"entities"`
	Policies policy.Set           `json:"policies"`
}

// Stores are interface-driven to keep the engine testable and to allow
// swapping in-memory or external persistence without rewiring business code.
type DataStore interface {
	FindByClientID(ctx context.Context, clientID string) (*DataSet, error)
	Save(ctx context.Context, clientID string, dataSet *DataSet) error
}
