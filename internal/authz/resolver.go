package authz

import "context"

// MembershipSource loads the requesting user's active memberships. One
// membership per organization; non-active rows are excluded by the loader.
type MembershipSource interface {
	LoadActiveMemberships(ctx context.Context, userID string) ([]Membership, error)
}

// DocumentSource loads the evaluation view of one document. A missing
// document surfaces as the collaborator's not-found error, never as an
// authorization outcome.
type DocumentSource interface {
	LoadDocument(ctx context.Context, documentID string) (*Document, error)
}

// Resolver is the single source of truth for "can user U perform action A
// on document D". Every call loads state current at call time and computes
// a fresh decision; nothing is cached across requests.
type Resolver struct {
	memberships MembershipSource
	documents   DocumentSource
}

// NewResolver constructs a Resolver over its two collaborators.
func NewResolver(memberships MembershipSource, documents DocumentSource) *Resolver {
	return &Resolver{memberships: memberships, documents: documents}
}

// CanAccessDocument decides one document operation. It performs exactly one
// document load and one membership load; everything after that is the pure
// decision predicate shared with the bulk filter.
func (r *Resolver) CanAccessDocument(ctx context.Context, userID, documentID string, action Action) (bool, error) {
	doc, err := r.documents.LoadDocument(ctx, documentID)
	if err != nil {
		return false, err
	}
	memberships, err := r.memberships.LoadActiveMemberships(ctx, userID)
	if err != nil {
		return false, err
	}
	return decideDocumentAccess(doc, userID, memberships, action), nil
}

// Authorize is the strict form used for non-document resources: it returns
// a ForbiddenError instead of false.
func (r *Resolver) Authorize(ctx context.Context, userID string, action Action, resource Resource, gc GrantContext) error {
	memberships, err := r.memberships.LoadActiveMemberships(ctx, userID)
	if err != nil {
		return err
	}
	if !BuildAbility(userID, memberships).Can(action, resource, gc) {
		return &ForbiddenError{Action: action, Resource: resource}
	}
	return nil
}

// ResolveOrganizationPermissions renders the effective per-resource action
// map for a role plus its custom permissions, for "what can I do"
// summaries.
func ResolveOrganizationPermissions(role Role, custom []GrantSpec) map[Resource][]Action {
	expanded := ExpandGrants(append(DefaultGrants(role), custom...))
	out := make(map[Resource][]Action, len(expanded))
	for res, set := range expanded {
		out[res] = set.Sorted()
	}
	return out
}

// decideDocumentAccess applies the access decision order over already
// loaded data. Ownership and explicit shares come before role and
// visibility rules: a viewer shared update access on one document can
// update that document, and a guest can read documents explicitly shared
// with them.
func decideDocumentAccess(doc *Document, userID string, memberships []Membership, action Action) bool {
	// 1. Ownership is absolute; visibility and shares never weaken it.
	if doc.OwnerID == userID {
		return true
	}

	// 2. Any of the three share mechanisms granting the action wins,
	// independent of membership and visibility.
	orgIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		if m.Active() {
			orgIDs = append(orgIDs, m.OrganizationID)
		}
	}
	if ShareGrantsFor(doc, userID, orgIDs).Allows(action) {
		return true
	}

	// 3. Personal documents are never reachable through organization roles.
	if doc.OrganizationID == "" {
		return false
	}

	// 4. No active membership in the document's organization.
	var member *Membership
	for i := range memberships {
		if memberships[i].OrganizationID == doc.OrganizationID && memberships[i].Active() {
			member = &memberships[i]
			break
		}
	}
	if member == nil {
		return false
	}

	// 5. Private documents are owner-or-explicit-share only, both already
	// checked.
	if doc.Visibility == VisibilityPrivate {
		return false
	}

	// 6. Guests get no role-based document access under any visibility.
	if member.Role == RoleGuest {
		return false
	}

	// 7. Role defaults plus additive custom permissions.
	expanded := ExpandGrants(append(DefaultGrants(member.Role), member.CustomPermissions...))
	return expanded[ResourceDocument].Contains(action)
}
