package audit

import "context"

// Store is the Audit Log Store's persistence contract. Log never
// returns an error visible to the caller's business logic: an audit
// write failure is itself an operational concern for the store
// implementation (e.g. logged), not a reason to unwind the operation
// being audited.
type Store interface {
	Log(ctx context.Context, in LogInput) Event
	List(ctx context.Context, limit int) []Event
	ListByTarget(ctx context.Context, target string) []Event
}
