// Package transferworkflow runs the transfer-request lifecycle between
// organizations. A request moves pending -> approved -> completed, or
// leaves the happy path through rejection or cancellation; terminal
// states accept no further transitions. Approval reserves quantity on
// the inventory ledger, rejection and cancellation release it, and
// completion marks the allocation transferred.
//
// Every state change persists its audit entry and outbox event in the
// same unit of work as the request row, guarded by an optimistic
// status check so concurrent reviewers cannot both win.
package transferworkflow
