package decision

import (
	"context"

	"sentinelle/internal/policy"
)

// ReviewFunc computes the entry to append given the record's current decision.
// It runs inside the store's per-record critical section and must be pure: no
// I/O, no side effects.
type ReviewFunc func(current policy.Decision) ReviewEntry

// Store persists decision records and their append-only review trails.
//
// Implementations guarantee:
//   - Create is all-or-nothing; a half-written record is never visible.
//   - AppendReview serializes per record: the read of the current decision,
//     the entry append, and the decision overwrite are atomic with respect to
//     concurrent reviews and readers.
//   - AppendReview returns the entry fn produced together with the updated
//     record. Callers must use the returned entry, never a position in
//     record.Reviews: a concurrent review can append behind this one before
//     the record is re-read.
//   - Unknown decision IDs surface sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, record *Record) error
	Get(ctx context.Context, decisionID string) (*Record, error)
	AppendReview(ctx context.Context, decisionID string, fn ReviewFunc) (*Record, ReviewEntry, error)
}
