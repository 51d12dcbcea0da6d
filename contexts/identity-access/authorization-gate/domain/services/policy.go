package services

import "resupply/contexts/identity-access/authorization-gate/domain/entities"

// Decide evaluates the ordered rule set. First match wins; anything
// unmatched is denied.
//
// Rule order:
// 1. platform admins may do everything
// 2. reads are visible inside the same organization category, or to an
//    organization that is itself a party to the resource
// 3. transfer creation is open to any organization other than the owner
// 4. approve/reject belong to the owning organization's admins
// 5. cancel belongs to the original requester or an admin of either party
// 6. completion belongs to either transfer party
// 7. remaining mutations are tenant master data: owning-org admins only
func Decide(identity entities.Identity, action entities.Action, resource entities.Resource) entities.Decision {
	if identity.Role == entities.RolePlatformAdmin {
		return allow("platform_admin")
	}

	if action.IsRead() {
		if resource.Category != "" && identity.OrganizationCategory == resource.Category {
			return allow("category_scoped_read")
		}
		if isParty(identity.OrganizationID, resource) {
			return allow("resource_party_read")
		}
		return deny("read_outside_category")
	}

	switch action {
	case entities.ActionTransferCreate:
		if identity.OrganizationID == resource.OwnerOrganizationID {
			return deny("own_material_request")
		}
		return allow("transfer_request_open")

	case entities.ActionTransferApprove, entities.ActionTransferReject:
		if identity.OrganizationID == resource.FromOrganizationID && identity.Role == entities.RoleOrgAdmin {
			return allow("owning_org_admin")
		}
		return deny("approval_requires_owning_org_admin")

	case entities.ActionTransferCancel:
		if identity.UserID != "" && identity.UserID == resource.RequestedBy {
			return allow("requester_cancel")
		}
		if identity.Role == entities.RoleOrgAdmin && isTransferParty(identity.OrganizationID, resource) {
			return allow("party_admin_cancel")
		}
		return deny("cancel_requires_requester_or_party_admin")

	case entities.ActionTransferComplete:
		if isTransferParty(identity.OrganizationID, resource) {
			return allow("transfer_party")
		}
		return deny("completion_requires_transfer_party")
	}

	if identity.OrganizationID != resource.OwnerOrganizationID {
		return deny("cross_tenant_mutation")
	}
	if identity.Role != entities.RoleOrgAdmin {
		return deny("mutation_requires_org_admin")
	}
	return allow("owning_org_admin")
}

func isTransferParty(organizationID string, resource entities.Resource) bool {
	if organizationID == "" {
		return false
	}
	return organizationID == resource.FromOrganizationID || organizationID == resource.ToOrganizationID
}

func isParty(organizationID string, resource entities.Resource) bool {
	if organizationID == "" {
		return false
	}
	return organizationID == resource.OwnerOrganizationID || isTransferParty(organizationID, resource)
}

func allow(reason string) entities.Decision {
	return entities.Decision{Allowed: true, Reason: reason}
}

func deny(reason string) entities.Decision {
	return entities.Decision{Allowed: false, Reason: reason}
}
