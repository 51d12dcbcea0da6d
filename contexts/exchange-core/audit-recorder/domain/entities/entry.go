package entities

import (
	"encoding/json"
	"strings"
	"time"
)

// AuditLogEntry captures one committed mutation with its before/after
// snapshots. After is always present; Before is empty for creations.
type AuditLogEntry struct {
	AuditID        string          `json:"audit_id"`
	OrganizationID string          `json:"organization_id"`
	Entity         string          `json:"entity"`
	EntityID       string          `json:"entity_id"`
	Action         string          `json:"action"`
	ChangedBy      string          `json:"changed_by"`
	ChangedAt      time.Time       `json:"changed_at"`
	Before         json.RawMessage `json:"before,omitempty"`
	After          json.RawMessage `json:"after"`
}

func (e AuditLogEntry) ValidateRecord() bool {
	return strings.TrimSpace(e.AuditID) != "" &&
		strings.TrimSpace(e.OrganizationID) != "" &&
		strings.TrimSpace(e.Entity) != "" &&
		strings.TrimSpace(e.EntityID) != "" &&
		strings.TrimSpace(e.Action) != "" &&
		strings.TrimSpace(e.ChangedBy) != "" &&
		!e.ChangedAt.IsZero() &&
		len(e.After) > 0
}

// DedupKey identifies a mutation across at-least-once deliveries.
func (e AuditLogEntry) DedupKey() string {
	return e.EntityID + "|" + e.Action + "|" + e.ChangedAt.UTC().Format(time.RFC3339Nano)
}
