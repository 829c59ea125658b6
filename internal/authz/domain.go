// Package authz implements the authorization and access-resolution engine:
// role-based organization permissions, additive per-member custom grants,
// the role-rank hierarchy, and the three document-sharing mechanisms merged
// into a single access decision.
package authz

import "fmt"

// Role is an organization-scoped role name.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
	RoleGuest  Role = "guest"
)

// Roles lists every role, highest rank first.
var Roles = []Role{RoleOwner, RoleAdmin, RoleEditor, RoleMember, RoleViewer, RoleGuest}

// ParseRole validates an external role token. Unknown tokens are rejected
// here so the evaluation core never sees them.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleEditor, RoleMember, RoleViewer, RoleGuest:
		return Role(s), nil
	}
	return "", fmt.Errorf("authz: unknown role %q", s)
}

// Action is an operation on a resource. Manage is a superset: granting it
// implies every other action on the same resource.
type Action string

const (
	ActionManage Action = "manage"
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionShare  Action = "share"
	ActionExport Action = "export"
	ActionInvite Action = "invite"
)

// Actions lists every action.
var Actions = []Action{
	ActionManage, ActionCreate, ActionRead, ActionUpdate,
	ActionDelete, ActionShare, ActionExport, ActionInvite,
}

// ParseAction validates an external action token.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionManage, ActionCreate, ActionRead, ActionUpdate,
		ActionDelete, ActionShare, ActionExport, ActionInvite:
		return Action(s), nil
	}
	return "", fmt.Errorf("authz: unknown action %q", s)
}

// Resource is a grantable resource type. ResourceAll is a wildcard that
// expands to every concrete resource type at grant-expansion time.
type Resource string

const (
	ResourceOrganization Resource = "organization"
	ResourceDocument     Resource = "document"
	ResourceChat         Resource = "chat"
	ResourceMember       Resource = "member"
	ResourceSettings     Resource = "settings"
	ResourceAll          Resource = "all"
)

// ConcreteResources lists the resource types a wildcard grant expands to.
var ConcreteResources = []Resource{
	ResourceOrganization, ResourceDocument, ResourceChat, ResourceMember, ResourceSettings,
}

// ParseResource validates an external resource token. The wildcard "all" is
// accepted because custom-permission entries may name it.
func ParseResource(s string) (Resource, error) {
	switch Resource(s) {
	case ResourceOrganization, ResourceDocument, ResourceChat,
		ResourceMember, ResourceSettings, ResourceAll:
		return Resource(s), nil
	}
	return "", fmt.Errorf("authz: unknown resource %q", s)
}

// MembershipStatus tracks the lifecycle of an organization membership. Only
// active memberships participate in permission evaluation.
type MembershipStatus string

const (
	StatusPending   MembershipStatus = "pending"
	StatusActive    MembershipStatus = "active"
	StatusSuspended MembershipStatus = "suspended"
)

// GrantSpec is one entry of a grant table: a resource and the actions
// granted on it. Both role default tables and per-member custom permissions
// use this shape, so both run through the same expansion routine.
type GrantSpec struct {
	Resource Resource `json:"resource"`
	Actions  []Action `json:"actions"`
}

// Validate rejects unknown resource or action tokens. Called wherever a
// GrantSpec crosses a trust boundary (request DTOs, stored jsonb).
func (g GrantSpec) Validate() error {
	if _, err := ParseResource(string(g.Resource)); err != nil {
		return err
	}
	if len(g.Actions) == 0 {
		return fmt.Errorf("authz: grant on %s has no actions", g.Resource)
	}
	for _, a := range g.Actions {
		if _, err := ParseAction(string(a)); err != nil {
			return err
		}
	}
	return nil
}

// Membership is the evaluation view of one user's membership in one
// organization. Unique per (UserID, OrganizationID).
type Membership struct {
	UserID            string
	OrganizationID    string
	Role              Role
	CustomPermissions []GrantSpec
	Status            MembershipStatus
}

// Active reports whether the membership participates in evaluation.
func (m Membership) Active() bool {
	return m.Status == StatusActive
}
