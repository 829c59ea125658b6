package authz

import "testing"

func TestAbilityNoMembershipsDeniesEverything(t *testing.T) {
	ability := BuildAbility("u1", nil)
	for _, res := range ConcreteResources {
		if ability.Can(ActionRead, res, GrantContext{OrganizationID: "org1"}) {
			t.Fatalf("expected deny on %s with no memberships", res)
		}
	}
}

func TestAbilityPersonalGrants(t *testing.T) {
	ability := BuildAbility("u1", nil)

	if !ability.Can(ActionRead, ResourceDocument, GrantContext{OwnerID: "u1"}) {
		t.Fatalf("user must always read their own documents")
	}
	if ability.Can(ActionUpdate, ResourceDocument, GrantContext{OwnerID: "u1"}) {
		t.Fatalf("personal document grant is read only")
	}
	if !ability.Can(ActionDelete, ResourceChat, GrantContext{OwnerID: "u1"}) {
		t.Fatalf("user must manage their own chats")
	}
	if ability.Can(ActionRead, ResourceDocument, GrantContext{OwnerID: "someone-else"}) {
		t.Fatalf("personal grants must not apply to other owners")
	}
}

func TestAbilityOrganizationScoping(t *testing.T) {
	ability := BuildAbility("u1", []Membership{
		{UserID: "u1", OrganizationID: "orgA", Role: RoleEditor, Status: StatusActive},
	})

	if !ability.Can(ActionUpdate, ResourceDocument, GrantContext{OrganizationID: "orgA"}) {
		t.Fatalf("editor must update documents in their organization")
	}
	if ability.Can(ActionUpdate, ResourceDocument, GrantContext{OrganizationID: "orgB"}) {
		t.Fatalf("grants must not leak to other organizations")
	}
}

func TestAbilityIgnoresInactiveMemberships(t *testing.T) {
	ability := BuildAbility("u1", []Membership{
		{UserID: "u1", OrganizationID: "orgA", Role: RoleOwner, Status: StatusPending},
		{UserID: "u1", OrganizationID: "orgB", Role: RoleOwner, Status: StatusSuspended},
	})
	if ability.Can(ActionRead, ResourceDocument, GrantContext{OrganizationID: "orgA"}) {
		t.Fatalf("pending membership must not grant")
	}
	if ability.Can(ActionRead, ResourceDocument, GrantContext{OrganizationID: "orgB"}) {
		t.Fatalf("suspended membership must not grant")
	}
}

func TestAbilityCustomPermissionsAdditive(t *testing.T) {
	ability := BuildAbility("u1", []Membership{{
		UserID:         "u1",
		OrganizationID: "orgA",
		Role:           RoleViewer,
		Status:         StatusActive,
		CustomPermissions: []GrantSpec{
			{Resource: ResourceDocument, Actions: []Action{ActionCreate}},
		},
	}})

	if !ability.Can(ActionCreate, ResourceDocument, GrantContext{OrganizationID: "orgA"}) {
		t.Fatalf("custom grant must add create")
	}
	if !ability.Can(ActionRead, ResourceDocument, GrantContext{OrganizationID: "orgA"}) {
		t.Fatalf("role default read must survive custom overlay")
	}
	if ability.Can(ActionDelete, ResourceDocument, GrantContext{OrganizationID: "orgA"}) {
		t.Fatalf("custom grant must not imply delete")
	}
}

func TestAbilityManageImpliesEveryAction(t *testing.T) {
	ability := BuildAbility("u1", []Membership{{
		UserID:         "u1",
		OrganizationID: "orgA",
		Role:           RoleGuest,
		Status:         StatusActive,
		CustomPermissions: []GrantSpec{
			{Resource: ResourceAll, Actions: []Action{ActionManage}},
		},
	}})
	for _, res := range ConcreteResources {
		for _, action := range Actions {
			if !ability.Can(action, res, GrantContext{OrganizationID: "orgA"}) {
				t.Fatalf("custom all/manage must grant %s on %s", action, res)
			}
		}
	}
}
