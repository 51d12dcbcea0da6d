package services

import (
	"testing"

	"resupply/contexts/identity-access/authorization-gate/domain/entities"
)

var (
	platformAdmin = entities.Identity{
		UserID:               "user_root",
		OrganizationID:       "org_platform",
		OrganizationCategory: "platform",
		Role:                 entities.RolePlatformAdmin,
	}
	ownerAdmin = entities.Identity{
		UserID:               "user_owner_admin",
		OrganizationID:       "org_owner",
		OrganizationCategory: "food_bank",
		Role:                 entities.RoleOrgAdmin,
	}
	ownerMember = entities.Identity{
		UserID:               "user_owner_member",
		OrganizationID:       "org_owner",
		OrganizationCategory: "food_bank",
		Role:                 entities.RoleOrgMember,
	}
	requester = entities.Identity{
		UserID:               "user_requester",
		OrganizationID:       "org_other",
		OrganizationCategory: "food_bank",
		Role:                 entities.RoleOrgMember,
	}
	outsiderAdmin = entities.Identity{
		UserID:               "user_outsider",
		OrganizationID:       "org_stranger",
		OrganizationCategory: "shelter",
		Role:                 entities.RoleOrgAdmin,
	}
)

func materialResource() entities.Resource {
	return entities.Resource{
		OwnerOrganizationID: "org_owner",
		Category:            "food_bank",
	}
}

func transferResource() entities.Resource {
	return entities.Resource{
		OwnerOrganizationID: "org_owner",
		Category:            "food_bank",
		FromOrganizationID:  "org_owner",
		ToOrganizationID:    "org_other",
		RequestedBy:         "user_requester",
	}
}

func TestDecideRuleTable(t *testing.T) {
	cases := []struct {
		name     string
		identity entities.Identity
		action   entities.Action
		resource entities.Resource
		allowed  bool
		reason   string
	}{
		{"platform admin may do everything", platformAdmin, entities.ActionMaterialArchive, materialResource(), true, "platform_admin"},
		{"category scoped discovery read", requester, entities.ActionMaterialRead, materialResource(), true, "category_scoped_read"},
		{"read outside category denied", outsiderAdmin, entities.ActionMaterialRead, materialResource(), false, "read_outside_category"},
		{"transfer party reads across category", outsiderAdmin, entities.ActionTransferRead, entities.Resource{
			OwnerOrganizationID: "org_owner",
			Category:            "food_bank",
			FromOrganizationID:  "org_owner",
			ToOrganizationID:    "org_stranger",
			RequestedBy:         "user_outsider",
		}, true, "resource_party_read"},
		{"transfer create open to other organizations", requester, entities.ActionTransferCreate, materialResource(), true, "transfer_request_open"},
		{"transfer create against own material denied", ownerMember, entities.ActionTransferCreate, materialResource(), false, "own_material_request"},
		{"approve by owning org admin", ownerAdmin, entities.ActionTransferApprove, transferResource(), true, "owning_org_admin"},
		{"approve by owning org member denied", ownerMember, entities.ActionTransferApprove, transferResource(), false, "approval_requires_owning_org_admin"},
		{"approve by outsider denied", outsiderAdmin, entities.ActionTransferApprove, transferResource(), false, "approval_requires_owning_org_admin"},
		{"reject follows approve rule", ownerAdmin, entities.ActionTransferReject, transferResource(), true, "owning_org_admin"},
		{"requester may cancel own request", requester, entities.ActionTransferCancel, transferResource(), true, "requester_cancel"},
		{"party admin may cancel", ownerAdmin, entities.ActionTransferCancel, transferResource(), true, "party_admin_cancel"},
		{"stranger cannot cancel", outsiderAdmin, entities.ActionTransferCancel, transferResource(), false, "cancel_requires_requester_or_party_admin"},
		{"either party may complete", requester, entities.ActionTransferComplete, transferResource(), true, "transfer_party"},
		{"stranger cannot complete", outsiderAdmin, entities.ActionTransferComplete, transferResource(), false, "completion_requires_transfer_party"},
		{"cross tenant material mutation denied", requester, entities.ActionMaterialUpdate, materialResource(), false, "cross_tenant_mutation"},
		{"member cannot mutate master data", ownerMember, entities.ActionMaterialArchive, materialResource(), false, "mutation_requires_org_admin"},
		{"owning admin mutates master data", ownerAdmin, entities.ActionMaterialCreate, materialResource(), true, "owning_org_admin"},
		{"audit read stays org scoped", requester, entities.ActionAuditRead, entities.Resource{OwnerOrganizationID: "org_owner"}, false, "read_outside_category"},
		{"audit read by owning org", ownerMember, entities.ActionAuditRead, entities.Resource{OwnerOrganizationID: "org_owner"}, true, "resource_party_read"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := Decide(tc.identity, tc.action, tc.resource)
			if decision.Allowed != tc.allowed {
				t.Fatalf("allowed = %v, want %v (reason %s)", decision.Allowed, tc.allowed, decision.Reason)
			}
			if decision.Reason != tc.reason {
				t.Fatalf("reason = %s, want %s", decision.Reason, tc.reason)
			}
		})
	}
}

func TestDecideTenantIsolation(t *testing.T) {
	// No mutating action on a material owned by org_owner may be allowed
	// for an identity outside org_owner below platform admin.
	mutations := []entities.Action{
		entities.ActionMaterialCreate,
		entities.ActionMaterialUpdate,
		entities.ActionMaterialArchive,
	}
	for _, action := range mutations {
		for _, identity := range []entities.Identity{requester, outsiderAdmin} {
			decision := Decide(identity, action, materialResource())
			if decision.Allowed {
				t.Fatalf("action %s by %s should be denied", action, identity.UserID)
			}
		}
	}
}
