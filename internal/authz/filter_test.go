package authz

import (
	"context"
	"testing"
)

// TestFilterMatchesSingleDocumentPath checks the consistency law: filtering
// a document set must yield exactly the documents the single-document check
// allows, in input order.
func TestFilterMatchesSingleDocumentPath(t *testing.T) {
	memberships := stubMemberships{
		"u1": {
			{UserID: "u1", OrganizationID: "orgA", Role: RoleViewer, Status: StatusActive},
			{UserID: "u1", OrganizationID: "orgB", Role: RoleEditor, Status: StatusActive},
		},
	}
	docs := []*Document{
		{ID: "owned", OwnerID: "u1"},
		{ID: "org-vis", OwnerID: "o", OrganizationID: "orgA", Visibility: VisibilityOrganization},
		{ID: "org-priv", OwnerID: "o", OrganizationID: "orgA", Visibility: VisibilityPrivate},
		{ID: "other-org", OwnerID: "o", OrganizationID: "orgZ", Visibility: VisibilityOrganization},
		{ID: "shared", OwnerID: "o", OrganizationID: "orgZ", Visibility: VisibilityPrivate,
			SharedWithUsers: []UserShare{{UserID: "u1", Actions: []Action{ActionRead}}}},
		{ID: "org-shared", OwnerID: "o", Visibility: VisibilityPrivate,
			SharedWithOrganizations: []OrgShare{{OrganizationID: "orgB", Actions: []Action{ActionUpdate}}}},
		{ID: "public", OwnerID: "o", OrganizationID: "orgZ", Visibility: VisibilityPrivate,
			PublicShare: &PublicShare{Enabled: true, Actions: []Action{ActionRead}}},
		{ID: "personal-other", OwnerID: "o"},
	}
	byID := make(stubDocuments, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	r := newTestResolver(memberships, byID)

	for _, action := range []Action{ActionRead, ActionUpdate, ActionDelete} {
		filtered, err := r.FilterDocuments(context.Background(), "u1", docs, action)
		if err != nil {
			t.Fatalf("FilterDocuments(%s): %v", action, err)
		}

		var want []string
		for _, d := range docs {
			allowed, err := r.CanAccessDocument(context.Background(), "u1", d.ID, action)
			if err != nil {
				t.Fatalf("CanAccessDocument(%s, %s): %v", d.ID, action, err)
			}
			if allowed {
				want = append(want, d.ID)
			}
		}

		if len(filtered) != len(want) {
			t.Fatalf("action %s: filter kept %d docs, single-path allows %d", action, len(filtered), len(want))
		}
		for i, d := range filtered {
			if d.ID != want[i] {
				t.Fatalf("action %s: position %d is %s, want %s (order must be preserved)", action, i, d.ID, want[i])
			}
		}
	}
}

func TestFilterEmptyInput(t *testing.T) {
	r := newTestResolver(stubMemberships{}, stubDocuments{})
	filtered, err := r.FilterDocuments(context.Background(), "u1", nil, ActionRead)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filtered) != 0 {
		t.Fatalf("expected empty result, got %d", len(filtered))
	}
}
