package authz

// GrantContext carries the scope of a permission check: the organization
// the resource belongs to and, for personal resources, its owner.
type GrantContext struct {
	OrganizationID string
	OwnerID        string
}

type scopeKind uint8

const (
	scopeOrganization scopeKind = iota
	scopeUser
)

// grant is one registered capability: an exact (resource, action) pair tied
// to an organization or, for personal resources, to the user themself.
type grant struct {
	resource Resource
	action   Action
	scope    scopeKind
	scopeID  string
}

// Ability is a request-scoped capability set built fresh from a user's
// active memberships. It is never persisted or cached across requests.
type Ability struct {
	userID string
	grants map[grant]struct{}
}

// BuildAbility computes the capability set for a user. Role default grants
// are registered per organization, then custom permissions are layered on
// additively; a default grant can never be removed by a custom entry.
// Building never fails: no active memberships just yields an Ability that
// denies everything except the personal-resource grants.
func BuildAbility(userID string, memberships []Membership) *Ability {
	ability := &Ability{
		userID: userID,
		grants: make(map[grant]struct{}),
	}

	for _, m := range memberships {
		if !m.Active() {
			continue
		}
		ability.registerOrgGrants(m.OrganizationID, DefaultGrants(m.Role))
		ability.registerOrgGrants(m.OrganizationID, m.CustomPermissions)
	}

	// Personal cross-organization grants: a user can always read their own
	// documents and chats, and fully manage their own chats.
	ability.registerUserGrants([]GrantSpec{
		{Resource: ResourceDocument, Actions: []Action{ActionRead}},
		{Resource: ResourceChat, Actions: []Action{ActionManage}},
	})

	return ability
}

func (a *Ability) registerOrgGrants(organizationID string, specs []GrantSpec) {
	for res, actions := range ExpandGrants(specs) {
		for action := range actions {
			a.grants[grant{resource: res, action: action, scope: scopeOrganization, scopeID: organizationID}] = struct{}{}
		}
	}
}

func (a *Ability) registerUserGrants(specs []GrantSpec) {
	for res, actions := range ExpandGrants(specs) {
		for action := range actions {
			a.grants[grant{resource: res, action: action, scope: scopeUser, scopeID: a.userID}] = struct{}{}
		}
	}
}

// Can reports whether the ability holds the exact action on the resource
// within the given scope. Wildcard and manage grants were already expanded
// at registration, so matching is plain equality.
func (a *Ability) Can(action Action, resource Resource, ctx GrantContext) bool {
	if ctx.OrganizationID != "" {
		key := grant{resource: resource, action: action, scope: scopeOrganization, scopeID: ctx.OrganizationID}
		if _, ok := a.grants[key]; ok {
			return true
		}
	}
	if ctx.OwnerID != "" && ctx.OwnerID == a.userID {
		key := grant{resource: resource, action: action, scope: scopeUser, scopeID: a.userID}
		if _, ok := a.grants[key]; ok {
			return true
		}
	}
	return false
}
