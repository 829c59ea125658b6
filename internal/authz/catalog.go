package authz

import (
	"fmt"
	"sort"
)

// roleRanks orders roles for hierarchy enforcement only. Permission
// computation never consults rank; the default grant tables are explicit.
var roleRanks = map[Role]int{
	RoleOwner:  100,
	RoleAdmin:  80,
	RoleEditor: 60,
	RoleMember: 40,
	RoleViewer: 20,
	RoleGuest:  10,
}

// Rank returns the hierarchy rank of a role. Unknown roles are a programmer
// error: tokens are validated at the boundary, so failing loud here beats
// silently granting nothing.
func Rank(role Role) int {
	rank, ok := roleRanks[role]
	if !ok {
		panic(fmt.Sprintf("authz: rank of unknown role %q", role))
	}
	return rank
}

// defaultGrants is the static per-role grant table. The tables happen to
// nest by rank, but nothing depends on that: each role's permissions are
// exactly what its table says. Guests get no default grants at all; they
// rely exclusively on explicit shares.
var defaultGrants = map[Role][]GrantSpec{
	RoleOwner: {
		{Resource: ResourceAll, Actions: []Action{ActionManage}},
	},
	RoleAdmin: {
		{Resource: ResourceOrganization, Actions: []Action{ActionRead, ActionUpdate, ActionInvite, ActionExport}},
		{Resource: ResourceDocument, Actions: []Action{ActionManage}},
		{Resource: ResourceChat, Actions: []Action{ActionManage}},
		{Resource: ResourceMember, Actions: []Action{ActionManage}},
		{Resource: ResourceSettings, Actions: []Action{ActionManage}},
	},
	RoleEditor: {
		{Resource: ResourceOrganization, Actions: []Action{ActionRead}},
		{Resource: ResourceDocument, Actions: []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionShare, ActionExport}},
		{Resource: ResourceChat, Actions: []Action{ActionManage}},
		{Resource: ResourceMember, Actions: []Action{ActionRead}},
		{Resource: ResourceSettings, Actions: []Action{ActionRead}},
	},
	RoleMember: {
		{Resource: ResourceOrganization, Actions: []Action{ActionRead}},
		{Resource: ResourceDocument, Actions: []Action{ActionCreate, ActionRead, ActionUpdate, ActionShare}},
		{Resource: ResourceChat, Actions: []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}},
		{Resource: ResourceMember, Actions: []Action{ActionRead}},
	},
	RoleViewer: {
		{Resource: ResourceOrganization, Actions: []Action{ActionRead}},
		{Resource: ResourceDocument, Actions: []Action{ActionRead}},
		{Resource: ResourceChat, Actions: []Action{ActionRead}},
		{Resource: ResourceMember, Actions: []Action{ActionRead}},
	},
	RoleGuest: {},
}

// DefaultGrants returns a copy of the role's default grant table.
func DefaultGrants(role Role) []GrantSpec {
	table, ok := defaultGrants[role]
	if !ok {
		panic(fmt.Sprintf("authz: default grants of unknown role %q", role))
	}
	out := make([]GrantSpec, len(table))
	copy(out, table)
	return out
}

// ActionSet is an expanded, deduplicated set of actions on one resource.
type ActionSet map[Action]struct{}

// Contains reports whether the set holds the action. Expansion already
// rewrote manage into every action, so a plain lookup suffices.
func (s ActionSet) Contains(action Action) bool {
	_, ok := s[action]
	return ok
}

// Sorted returns the actions in stable order for rendering.
func (s ActionSet) Sorted() []Action {
	out := make([]Action, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ExpandGrants flattens grant entries into per-resource action sets. The
// wildcard resource expands to every concrete resource type and manage
// expands to every action. This is the single expansion routine shared by
// role defaults and custom permissions: a custom {all: [manage]} entry
// behaves identically to the owner default table.
func ExpandGrants(specs []GrantSpec) map[Resource]ActionSet {
	expanded := make(map[Resource]ActionSet)
	for _, spec := range specs {
		resources := []Resource{spec.Resource}
		if spec.Resource == ResourceAll {
			resources = ConcreteResources
		}
		actions := spec.Actions
		if containsAction(spec.Actions, ActionManage) {
			actions = Actions
		}
		for _, res := range resources {
			if res == ResourceAll {
				panic("authz: wildcard resource inside concrete expansion")
			}
			set, ok := expanded[res]
			if !ok {
				set = make(ActionSet, len(actions))
				expanded[res] = set
			}
			for _, a := range actions {
				set[a] = struct{}{}
			}
		}
	}
	return expanded
}

// containsAction reports whether the raw (unexpanded) action list grants the
// target, treating manage as a superset of every action.
func containsAction(actions []Action, target Action) bool {
	for _, a := range actions {
		if a == target || a == ActionManage {
			return true
		}
	}
	return false
}
