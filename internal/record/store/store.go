// Package store persists canonical entity records and officer rows.
//
// Stores are interface-driven so the merge orchestration stays testable
// against the in-memory implementation while production runs on PostgreSQL.
// All implementations enforce optimistic concurrency: Save compares the
// record's Version against the stored one and returns sentinel.ErrConflict on
// a race, which the caller resolves by reloading and re-merging.
package store

import (
	"context"

	"attest/internal/record/models"
	"attest/pkg/domain"
)

// RecordStore persists multi-source individual and company records.
type RecordStore interface {
	// Load returns the record for key, or sentinel.ErrNotFound.
	Load(ctx context.Context, key domain.EntityKey) (*models.EntityRecord, error)
	// Save persists the record. New records must carry Version 0. On success
	// the record's Version is advanced; on a concurrent-write race Save
	// returns sentinel.ErrConflict and persists nothing.
	Save(ctx context.Context, record *models.EntityRecord) error
	// ListByClient returns every record for a client, in no guaranteed order.
	ListByClient(ctx context.Context, clientID domain.ClientID) ([]*models.EntityRecord, error)
}

// OfficerStore persists scalar director and shareholder rows.
type OfficerStore interface {
	Load(ctx context.Context, key domain.EntityKey) (*models.Officer, error)
	Save(ctx context.Context, officer *models.Officer) error
	ListByClient(ctx context.Context, clientID domain.ClientID) ([]*models.Officer, error)
}
