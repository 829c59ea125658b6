package authz

import "testing"

func TestShareGrantsUserShare(t *testing.T) {
	doc := &Document{
		ID:      "d1",
		OwnerID: "owner",
		SharedWithUsers: []UserShare{
			{UserID: "u1", Actions: []Action{ActionRead, ActionUpdate}},
		},
	}
	grants := ShareGrantsFor(doc, "u1", nil)
	if !grants.Allows(ActionUpdate) {
		t.Fatalf("expected update from user share")
	}
	grants = ShareGrantsFor(doc, "u2", nil)
	if grants.FromUserShare != nil {
		t.Fatalf("u2 has no user share, got %v", grants.FromUserShare)
	}
}

func TestShareGrantsLegacyImplicitRead(t *testing.T) {
	doc := &Document{ID: "d1", OwnerID: "owner", LegacySharedWith: []string{"u1"}}
	grants := ShareGrantsFor(doc, "u1", nil)
	if !grants.Allows(ActionRead) {
		t.Fatalf("legacy shared_with entry must grant implicit read")
	}
	if grants.Allows(ActionUpdate) {
		t.Fatalf("legacy grant is read only")
	}
}

func TestShareGrantsStructuredEntryWinsOverLegacy(t *testing.T) {
	doc := &Document{
		ID:               "d1",
		OwnerID:          "owner",
		LegacySharedWith: []string{"u1"},
		SharedWithUsers: []UserShare{
			{UserID: "u1", Actions: []Action{ActionUpdate}},
		},
	}
	grants := ShareGrantsFor(doc, "u1", nil)
	if len(grants.FromUserShare) != 1 || grants.FromUserShare[0] != ActionUpdate {
		t.Fatalf("structured entry must take precedence, got %v", grants.FromUserShare)
	}
}

func TestShareGrantsOrgUnion(t *testing.T) {
	doc := &Document{
		ID:      "d1",
		OwnerID: "owner",
		SharedWithOrganizations: []OrgShare{
			{OrganizationID: "orgA", Actions: []Action{ActionRead}},
			{OrganizationID: "orgB", Actions: []Action{ActionUpdate, ActionRead}},
			{OrganizationID: "orgC", Actions: []Action{ActionDelete}},
		},
	}
	grants := ShareGrantsFor(doc, "u1", []string{"orgA", "orgB"})
	if !grants.Allows(ActionRead) || !grants.Allows(ActionUpdate) {
		t.Fatalf("expected union of orgA and orgB grants, got %v", grants.FromOrgShare)
	}
	if grants.Allows(ActionDelete) {
		t.Fatalf("orgC share must not apply, got %v", grants.FromOrgShare)
	}
	if len(grants.FromOrgShare) != 2 {
		t.Fatalf("union must deduplicate, got %v", grants.FromOrgShare)
	}
}

func TestShareGrantsPublicShare(t *testing.T) {
	doc := &Document{
		ID:          "d1",
		OwnerID:     "owner",
		PublicShare: &PublicShare{Enabled: true, Actions: []Action{ActionRead}},
	}
	if !ShareGrantsFor(doc, "anyone", nil).Allows(ActionRead) {
		t.Fatalf("enabled public share must grant read")
	}

	doc.PublicShare.Enabled = false
	if ShareGrantsFor(doc, "anyone", nil).Allows(ActionRead) {
		t.Fatalf("disabled public share must grant nothing")
	}
}

func TestShareGrantsManageSuperset(t *testing.T) {
	doc := &Document{
		ID:      "d1",
		OwnerID: "owner",
		SharedWithUsers: []UserShare{
			{UserID: "u1", Actions: []Action{ActionManage}},
		},
	}
	grants := ShareGrantsFor(doc, "u1", nil)
	for _, action := range Actions {
		if !grants.Allows(action) {
			t.Fatalf("manage share must allow %s", action)
		}
	}
}
