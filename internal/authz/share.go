package authz

import "time"

// Visibility governs default role-based access to an organization document.
// It is orthogonal to explicit shares, which bypass it entirely.
type Visibility string

const (
	VisibilityPrivate      Visibility = "private"
	VisibilityOrganization Visibility = "organization"
	VisibilityPublic       Visibility = "public"
)

// ParseVisibility validates an external visibility token.
func ParseVisibility(s string) (Visibility, error) {
	switch Visibility(s) {
	case VisibilityPrivate, VisibilityOrganization, VisibilityPublic:
		return Visibility(s), nil
	}
	return "", errUnknownVisibility(s)
}

// UserShare grants actions on one document to one user. At most one entry
// per user; a later share overwrites the earlier one.
type UserShare struct {
	UserID   string    `json:"userId"`
	Actions  []Action  `json:"actions"`
	SharedBy string    `json:"sharedBy"`
	SharedAt time.Time `json:"sharedAt"`
}

// OrgShare grants actions on one document to every member of one
// organization. At most one entry per organization.
type OrgShare struct {
	OrganizationID string    `json:"organizationId"`
	Actions        []Action  `json:"actions"`
	SharedBy       string    `json:"sharedBy"`
	SharedAt       time.Time `json:"sharedAt"`
}

// PublicShare grants actions on one document to any authenticated user
// while enabled.
type PublicShare struct {
	Enabled   bool      `json:"enabled"`
	Actions   []Action  `json:"actions"`
	EnabledBy string    `json:"enabledBy"`
	EnabledAt time.Time `json:"enabledAt"`
}

// Document is the evaluation view of a stored document: ownership, optional
// organization scope, visibility, and the three independent share lists.
// An empty OrganizationID means a personal document. LegacySharedWith is the
// old flat user-id list kept as an implicit read-only grant path.
type Document struct {
	ID                      string
	OwnerID                 string
	OrganizationID          string
	Visibility              Visibility
	SharedWithUsers         []UserShare
	SharedWithOrganizations []OrgShare
	PublicShare             *PublicShare
	LegacySharedWith        []string
}

// ShareGrants holds the three independent permission sets a document's
// shares contribute for one requesting user. A nil set means the mechanism
// grants nothing. The sets are not merged here; the resolver decides how
// they combine.
type ShareGrants struct {
	FromUserShare   []Action
	FromOrgShare    []Action
	FromPublicShare []Action
}

// Allows reports whether any of the three sets grants the action.
func (g ShareGrants) Allows(action Action) bool {
	return containsAction(g.FromUserShare, action) ||
		containsAction(g.FromOrgShare, action) ||
		containsAction(g.FromPublicShare, action)
}

// ShareGrantsFor computes the three share-derived permission sets for a
// user who is an active member of the given organizations.
func ShareGrantsFor(doc *Document, userID string, orgIDs []string) ShareGrants {
	var grants ShareGrants

	for _, share := range doc.SharedWithUsers {
		if share.UserID == userID {
			grants.FromUserShare = share.Actions
			break
		}
	}
	if grants.FromUserShare == nil {
		// Legacy flat share list carried no action granularity; presence
		// means an implicit read grant.
		for _, id := range doc.LegacySharedWith {
			if id == userID {
				grants.FromUserShare = []Action{ActionRead}
				break
			}
		}
	}

	// A member of several organizations targeted by separate shares gets
	// the union of their action sets.
	memberOf := make(map[string]struct{}, len(orgIDs))
	for _, id := range orgIDs {
		memberOf[id] = struct{}{}
	}
	seen := make(map[Action]struct{})
	for _, share := range doc.SharedWithOrganizations {
		if _, ok := memberOf[share.OrganizationID]; !ok {
			continue
		}
		for _, action := range share.Actions {
			if _, dup := seen[action]; dup {
				continue
			}
			seen[action] = struct{}{}
			grants.FromOrgShare = append(grants.FromOrgShare, action)
		}
	}

	if doc.PublicShare != nil && doc.PublicShare.Enabled {
		grants.FromPublicShare = doc.PublicShare.Actions
	}

	return grants
}
