package orgs

// CreateOrganizationInput is the payload for creating an organization.
type CreateOrganizationInput struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
	Slug string `json:"slug" validate:"omitempty,min=2,max=64,lowercase"`
}

// InviteMemberInput is the payload for inviting a member.
type InviteMemberInput struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

// UpdateRoleInput is the payload for changing a member's role.
type UpdateRoleInput struct {
	Role string `json:"role" validate:"required"`
}

// GrantInput mirrors one custom permission entry as submitted by clients.
type GrantInput struct {
	Resource string   `json:"resource" validate:"required"`
	Actions  []string `json:"actions" validate:"required,min=1"`
}

// UpdatePermissionsInput replaces a member's custom permission list.
type UpdatePermissionsInput struct {
	Permissions []GrantInput `json:"permissions" validate:"required,dive"`
}
