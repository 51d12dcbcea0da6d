// Package auditrecorder keeps the append-only audit trail. Entries are
// write-once: no update or delete operation exists anywhere in the
// module, and duplicate deliveries of the same mutation are suppressed
// by the (entity_id, action, changed_at) key.
//
// Layering:
// - domain: audit entry shape and failure kinds
// - application: record/query operations over the entry store port
// - ports: append-only store boundary
// - adapters: concrete memory, postgres, and HTTP implementations
package auditrecorder
