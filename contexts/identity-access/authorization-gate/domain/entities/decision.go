package entities

// Role mirrors the platform role vocabulary. The gate keeps its own copy
// so it stays importable without crossing module boundaries.
type Role string

const (
	RolePlatformAdmin Role = "platform_admin"
	RoleOrgAdmin      Role = "org_admin"
	RoleOrgMember     Role = "org_member"
)

// Identity is the caller on whose behalf an action is evaluated.
type Identity struct {
	UserID               string
	OrganizationID       string
	OrganizationCategory string
	Role                 Role
}

// Action names every operation the gate can evaluate.
type Action string

const (
	ActionMaterialCreate  Action = "material.create"
	ActionMaterialUpdate  Action = "material.update"
	ActionMaterialArchive Action = "material.archive"
	ActionMaterialRead    Action = "material.read"

	ActionTransferCreate   Action = "transfer.create"
	ActionTransferApprove  Action = "transfer.approve"
	ActionTransferReject   Action = "transfer.reject"
	ActionTransferCancel   Action = "transfer.cancel"
	ActionTransferComplete Action = "transfer.complete"
	ActionTransferRead     Action = "transfer.read"

	ActionAuditRead Action = "audit.read"
)

func (a Action) IsRead() bool {
	switch a {
	case ActionMaterialRead, ActionTransferRead, ActionAuditRead:
		return true
	}
	return false
}

// Resource describes the target of an action. Material resources carry
// the owning organization and its category; transfer resources also
// carry both organization parties and the original requester.
type Resource struct {
	OwnerOrganizationID string
	Category            string
	FromOrganizationID  string
	ToOrganizationID    string
	RequestedBy         string
}

// Decision is the gate verdict. Reason is a stable machine-readable tag.
type Decision struct {
	Allowed bool
	Reason  string
}
