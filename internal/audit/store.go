package audit

import "context"

// Store is an append-only sink for audit events. ListByDecision exists for
// in-process sinks; streaming sinks may report it unsupported.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByDecision(ctx context.Context, decisionID string) ([]Event, error)
}
