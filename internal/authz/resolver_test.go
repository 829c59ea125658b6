package authz

import (
	"context"
	"errors"
	"testing"
)

type stubMemberships map[string][]Membership

func (s stubMemberships) LoadActiveMemberships(_ context.Context, userID string) ([]Membership, error) {
	return s[userID], nil
}

type stubDocuments map[string]*Document

func (s stubDocuments) LoadDocument(_ context.Context, documentID string) (*Document, error) {
	doc, ok := s[documentID]
	if !ok {
		return nil, errNotFoundStub
	}
	return doc, nil
}

var errNotFoundStub = &stubNotFoundError{}

type stubNotFoundError struct{}

func (*stubNotFoundError) Error() string { return "document not found" }

func newTestResolver(memberships stubMemberships, documents stubDocuments) *Resolver {
	return NewResolver(memberships, documents)
}

func mustAccess(t *testing.T, r *Resolver, userID, docID string, action Action, want bool) {
	t.Helper()
	got, err := r.CanAccessDocument(context.Background(), userID, docID, action)
	if err != nil {
		t.Fatalf("CanAccessDocument(%s, %s, %s): %v", userID, docID, action, err)
	}
	if got != want {
		t.Fatalf("CanAccessDocument(%s, %s, %s) = %v, want %v", userID, docID, action, got, want)
	}
}

func TestOwnerAllowedEveryActionRegardlessOfState(t *testing.T) {
	docs := stubDocuments{
		"private": {ID: "private", OwnerID: "owner", OrganizationID: "orgA", Visibility: VisibilityPrivate},
		"personal": {ID: "personal", OwnerID: "owner"},
	}
	r := newTestResolver(stubMemberships{}, docs)

	for _, docID := range []string{"private", "personal"} {
		for _, action := range Actions {
			mustAccess(t, r, "owner", docID, action, true)
		}
	}
}

func TestGuestDeniedUnderEveryVisibility(t *testing.T) {
	memberships := stubMemberships{
		"guest": {{UserID: "guest", OrganizationID: "orgA", Role: RoleGuest, Status: StatusActive}},
	}
	for _, vis := range []Visibility{VisibilityPrivate, VisibilityOrganization, VisibilityPublic} {
		docs := stubDocuments{
			"d1": {ID: "d1", OwnerID: "owner", OrganizationID: "orgA", Visibility: vis},
		}
		r := newTestResolver(memberships, docs)
		mustAccess(t, r, "guest", "d1", ActionRead, false)
	}
}

func TestGuestAllowedViaExplicitShare(t *testing.T) {
	memberships := stubMemberships{
		"guest": {{UserID: "guest", OrganizationID: "orgA", Role: RoleGuest, Status: StatusActive}},
	}
	docs := stubDocuments{
		"d1": {
			ID: "d1", OwnerID: "owner", OrganizationID: "orgA", Visibility: VisibilityPrivate,
			SharedWithUsers: []UserShare{{UserID: "guest", Actions: []Action{ActionRead}}},
		},
	}
	r := newTestResolver(memberships, docs)
	mustAccess(t, r, "guest", "d1", ActionRead, true)
	mustAccess(t, r, "guest", "d1", ActionUpdate, false)
}

func TestViewerCustomCreateAdditiveOnly(t *testing.T) {
	memberships := stubMemberships{
		"viewer": {{
			UserID: "viewer", OrganizationID: "orgA", Role: RoleViewer, Status: StatusActive,
			CustomPermissions: []GrantSpec{{Resource: ResourceDocument, Actions: []Action{ActionCreate}}},
		}},
	}
	docs := stubDocuments{
		"d1": {ID: "d1", OwnerID: "owner", OrganizationID: "orgA", Visibility: VisibilityOrganization},
	}
	r := newTestResolver(memberships, docs)
	mustAccess(t, r, "viewer", "d1", ActionCreate, true)
	mustAccess(t, r, "viewer", "d1", ActionDelete, false)
}

func TestUserShareGrantsOnlyItsActions(t *testing.T) {
	docs := stubDocuments{
		"d1": {
			ID: "d1", OwnerID: "owner", OrganizationID: "orgA", Visibility: VisibilityPrivate,
			SharedWithUsers: []UserShare{{UserID: "u1", Actions: []Action{ActionRead}}},
		},
	}
	r := newTestResolver(stubMemberships{}, docs)
	mustAccess(t, r, "u1", "d1", ActionRead, true)
	mustAccess(t, r, "u1", "d1", ActionUpdate, false)
}

func TestOrgShareUnionAcrossMemberships(t *testing.T) {
	memberships := stubMemberships{
		"u1": {
			{UserID: "u1", OrganizationID: "orgA", Role: RoleGuest, Status: StatusActive},
			{UserID: "u1", OrganizationID: "orgB", Role: RoleGuest, Status: StatusActive},
		},
	}
	docs := stubDocuments{
		"d1": {
			ID: "d1", OwnerID: "owner", OrganizationID: "orgZ", Visibility: VisibilityPrivate,
			SharedWithOrganizations: []OrgShare{
				{OrganizationID: "orgA", Actions: []Action{ActionRead}},
				{OrganizationID: "orgB", Actions: []Action{ActionUpdate}},
			},
		},
	}
	r := newTestResolver(memberships, docs)
	mustAccess(t, r, "u1", "d1", ActionUpdate, true)
	mustAccess(t, r, "u1", "d1", ActionRead, true)
	mustAccess(t, r, "u1", "d1", ActionDelete, false)
}

func TestPublicShareBypassesMembershipAndVisibility(t *testing.T) {
	docs := stubDocuments{
		"d1": {
			ID: "d1", OwnerID: "owner", OrganizationID: "orgA", Visibility: VisibilityPrivate,
			PublicShare: &PublicShare{Enabled: true, Actions: []Action{ActionRead}},
		},
	}
	r := newTestResolver(stubMemberships{}, docs)
	mustAccess(t, r, "outsider", "d1", ActionRead, true)
	mustAccess(t, r, "outsider", "d1", ActionUpdate, false)
}

func TestPersonalDocumentUnreachableThroughRoles(t *testing.T) {
	memberships := stubMemberships{
		"admin": {{UserID: "admin", OrganizationID: "orgA", Role: RoleAdmin, Status: StatusActive}},
	}
	docs := stubDocuments{
		"personal": {ID: "personal", OwnerID: "someone"},
	}
	r := newTestResolver(memberships, docs)
	mustAccess(t, r, "admin", "personal", ActionRead, false)
}

func TestPrivateOrganizationDocumentDeniedToNonOwnerMembers(t *testing.T) {
	memberships := stubMemberships{
		"editor": {{UserID: "editor", OrganizationID: "orgA", Role: RoleEditor, Status: StatusActive}},
	}
	docs := stubDocuments{
		"d1": {ID: "d1", OwnerID: "owner", OrganizationID: "orgA", Visibility: VisibilityPrivate},
	}
	r := newTestResolver(memberships, docs)
	mustAccess(t, r, "editor", "d1", ActionRead, false)
}

func TestNonMemberDeniedOrganizationDocument(t *testing.T) {
	docs := stubDocuments{
		"d1": {ID: "d1", OwnerID: "owner", OrganizationID: "orgA", Visibility: VisibilityOrganization},
	}
	r := newTestResolver(stubMemberships{}, docs)
	mustAccess(t, r, "stranger", "d1", ActionRead, false)
}

func TestRoleDefaultsApplyToOrganizationVisibility(t *testing.T) {
	memberships := stubMemberships{
		"editor": {{UserID: "editor", OrganizationID: "orgA", Role: RoleEditor, Status: StatusActive}},
		"viewer": {{UserID: "viewer", OrganizationID: "orgA", Role: RoleViewer, Status: StatusActive}},
	}
	docs := stubDocuments{
		"d1": {ID: "d1", OwnerID: "owner", OrganizationID: "orgA", Visibility: VisibilityOrganization},
	}
	r := newTestResolver(memberships, docs)
	mustAccess(t, r, "editor", "d1", ActionUpdate, true)
	mustAccess(t, r, "viewer", "d1", ActionRead, true)
	mustAccess(t, r, "viewer", "d1", ActionUpdate, false)
}

func TestCanAccessPropagatesNotFound(t *testing.T) {
	r := newTestResolver(stubMemberships{}, stubDocuments{})
	if _, err := r.CanAccessDocument(context.Background(), "u1", "missing", ActionRead); err == nil {
		t.Fatalf("expected collaborator error for missing document")
	}
}

func TestAuthorizeOwnerManagesOrganizationImmediately(t *testing.T) {
	// Organization just created: the auto-created owner membership alone
	// must grant manage with no explicit grant step.
	memberships := stubMemberships{
		"founder": {{UserID: "founder", OrganizationID: "orgA", Role: RoleOwner, Status: StatusActive}},
	}
	r := newTestResolver(memberships, stubDocuments{})
	if err := r.Authorize(context.Background(), "founder", ActionManage, ResourceOrganization, GrantContext{OrganizationID: "orgA"}); err != nil {
		t.Fatalf("owner must manage organization: %v", err)
	}
	err := r.Authorize(context.Background(), "founder", ActionManage, ResourceOrganization, GrantContext{OrganizationID: "orgB"})
	if err == nil {
		t.Fatalf("expected Forbidden outside own organization")
	}
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ForbiddenError got %T", err)
	}
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("ForbiddenError must unwrap to ErrForbidden")
	}
}
