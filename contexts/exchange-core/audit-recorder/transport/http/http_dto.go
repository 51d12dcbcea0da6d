package httptransport

type AuditEntryPayload struct {
	AuditID        string `json:"audit_id"`
	OrganizationID string `json:"organization_id"`
	Entity         string `json:"entity"`
	EntityID       string `json:"entity_id"`
	Action         string `json:"action"`
	ChangedBy      string `json:"changed_by"`
	ChangedAt      string `json:"changed_at"`
	Before         any    `json:"before,omitempty"`
	After          any    `json:"after"`
}

type AuditListResponse struct {
	Status string              `json:"status"`
	Data   []AuditEntryPayload `json:"data"`
}
