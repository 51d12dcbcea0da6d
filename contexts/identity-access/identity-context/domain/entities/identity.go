package entities

// Role is the platform-wide actor role carried by every identity.
type Role string

const (
	RolePlatformAdmin Role = "platform_admin"
	RoleOrgAdmin      Role = "org_admin"
	RoleOrgMember     Role = "org_member"
)

// Organization is the tenancy boundary. Every inventory and workflow
// entity is scoped to exactly one owning organization.
type Organization struct {
	OrganizationID string
	Name           string
	Category       string
	IsActive       bool
}

// Subject is a registered platform user.
type Subject struct {
	UserID         string
	OrganizationID string
	Role           Role
	IsActive       bool
}

// IdentityContext is the resolved identity attached to a single call.
// It is never cached across requests.
type IdentityContext struct {
	UserID               string
	OrganizationID       string
	OrganizationCategory string
	Role                 Role
}
