package authz

import (
	"errors"
	"testing"
)

func activeMember(userID, orgID string, role Role) Membership {
	return Membership{UserID: userID, OrganizationID: orgID, Role: role, Status: StatusActive}
}

func TestAdminCannotPromotePeerToOwner(t *testing.T) {
	actor := activeMember("a", "org", RoleAdmin)
	target := activeMember("b", "org", RoleAdmin)
	if err := AssertRoleChangeAllowed(actor, target, RoleOwner); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestAdminCannotDemoteOwner(t *testing.T) {
	actor := activeMember("a", "org", RoleAdmin)
	target := activeMember("b", "org", RoleOwner)
	if err := AssertRoleChangeAllowed(actor, target, RoleMember); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestRankEqualPeerBlocked(t *testing.T) {
	actor := activeMember("a", "org", RoleEditor)
	target := activeMember("b", "org", RoleEditor)
	if err := AssertRoleChangeAllowed(actor, target, RoleViewer); !errors.Is(err, ErrForbidden) {
		t.Fatalf("rank-equal demotion must be blocked, got %v", err)
	}
}

func TestCannotPromoteToOwnRank(t *testing.T) {
	actor := activeMember("a", "org", RoleAdmin)
	target := activeMember("b", "org", RoleMember)
	if err := AssertRoleChangeAllowed(actor, target, RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("promotion to actor's own rank must be blocked, got %v", err)
	}
}

func TestAdminMayChangeLowerRankedMember(t *testing.T) {
	actor := activeMember("a", "org", RoleAdmin)
	target := activeMember("b", "org", RoleViewer)
	if err := AssertRoleChangeAllowed(actor, target, RoleEditor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestActorMustBeInSameOrganization(t *testing.T) {
	actor := activeMember("a", "orgA", RoleOwner)
	target := activeMember("b", "orgB", RoleViewer)
	if err := AssertRoleChangeAllowed(actor, target, RoleMember); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected Forbidden across organizations, got %v", err)
	}
}

func TestInactiveActorBlocked(t *testing.T) {
	actor := Membership{UserID: "a", OrganizationID: "org", Role: RoleOwner, Status: StatusSuspended}
	target := activeMember("b", "org", RoleViewer)
	if err := AssertRoleChangeAllowed(actor, target, RoleMember); !errors.Is(err, ErrForbidden) {
		t.Fatalf("suspended actor must be blocked, got %v", err)
	}
}

func TestRemovalRules(t *testing.T) {
	actor := activeMember("a", "org", RoleAdmin)

	if err := AssertRemovalAllowed(actor, activeMember("b", "org", RoleMember)); err != nil {
		t.Fatalf("admin must remove lower ranked member: %v", err)
	}
	if err := AssertRemovalAllowed(actor, activeMember("b", "org", RoleAdmin)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("peer removal must be blocked, got %v", err)
	}
	if err := AssertRemovalAllowed(actor, activeMember("b", "org", RoleOwner)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("owner removal must be blocked, got %v", err)
	}
}
