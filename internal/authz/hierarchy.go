package authz

// Role hierarchy guard: a mandatory gate on membership mutation, enforced
// independently of the Ability Builder so it stays correct even if grant
// logic changes.

// AssertRoleChangeAllowed checks whether the actor may set the target
// membership's role to newRole. The actor must hold an active membership in
// the same organization, must outrank the target's current role, and must
// outrank newRole. The owner role is never assigned or removed through this
// path; ownership moves only via the dedicated transfer operation.
func AssertRoleChangeAllowed(actor, target Membership, newRole Role) error {
	if err := assertActorOutranks(actor, target); err != nil {
		return err
	}
	if newRole == RoleOwner {
		return &ForbiddenError{Action: ActionUpdate, Resource: ResourceMember,
			Reason: "the owner role cannot be assigned"}
	}
	if Rank(newRole) >= Rank(actor.Role) {
		return &ForbiddenError{Action: ActionUpdate, Resource: ResourceMember,
			Reason: "cannot promote to a role at or above your own"}
	}
	return nil
}

// AssertRemovalAllowed checks whether the actor may remove the target
// membership.
func AssertRemovalAllowed(actor, target Membership) error {
	if err := assertActorOutranks(actor, target); err != nil {
		return err
	}
	return nil
}

func assertActorOutranks(actor, target Membership) error {
	if actor.OrganizationID != target.OrganizationID {
		return &ForbiddenError{Action: ActionUpdate, Resource: ResourceMember,
			Reason: "not a member of this organization"}
	}
	if !actor.Active() {
		return &ForbiddenError{Action: ActionUpdate, Resource: ResourceMember,
			Reason: "membership is not active"}
	}
	if target.Role == RoleOwner {
		return &ForbiddenError{Action: ActionUpdate, Resource: ResourceMember,
			Reason: "the organization owner cannot be modified"}
	}
	// Blocks peers and superiors alike, including rank-equal demotions.
	if Rank(target.Role) >= Rank(actor.Role) {
		return &ForbiddenError{Action: ActionUpdate, Resource: ResourceMember,
			Reason: "cannot modify a member at or above your own role"}
	}
	return nil
}
