// Package blobstore provides CID-keyed storage for capsule payloads, plus
// a local catalog index that tracks what has already been stored without a
// network round-trip to the backend.
package blobstore

import (
	"context"

	"github.com/logline-foundation/atomic-core/pkg/atomtypes"
)

// Store persists and retrieves capsule payloads keyed by their content id.
type Store interface {
	Put(ctx context.Context, cid atomtypes.Cid32, payload []byte) error
	Get(ctx context.Context, cid atomtypes.Cid32) ([]byte, error)
	Has(ctx context.Context, cid atomtypes.Cid32) (bool, error)
}

func blobKey(cid atomtypes.Cid32) string {
	return cid.String() + ".blob"
}
