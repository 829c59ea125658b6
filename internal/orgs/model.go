// Package orgs manages organizations and their memberships: creation,
// invitations, role changes, custom permission grants, and removal.
package orgs

import (
	"time"

	"github.com/vellum-docs/vellum/internal/authz"
)

// Organization is a tenant workspace.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Member is the management view of an organization membership. The
// evaluation view lives in authz.Membership; this one carries the extra
// lifecycle columns the admin surface needs.
type Member struct {
	UserID            string                 `json:"user_id"`
	OrganizationID    string                 `json:"organization_id"`
	Email             string                 `json:"email"`
	Name              string                 `json:"name"`
	Role              authz.Role             `json:"role"`
	CustomPermissions []authz.GrantSpec      `json:"custom_permissions"`
	Status            authz.MembershipStatus `json:"status"`
	InvitedBy         string                 `json:"invited_by,omitempty"`
	InviteExpiresAt   *time.Time             `json:"invite_expires_at,omitempty"`
	JoinedAt          *time.Time             `json:"joined_at,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// AsEvaluation converts the management row into the evaluation view.
func (m Member) AsEvaluation() authz.Membership {
	return authz.Membership{
		UserID:            m.UserID,
		OrganizationID:    m.OrganizationID,
		Role:              m.Role,
		CustomPermissions: m.CustomPermissions,
		Status:            m.Status,
	}
}

// MemberSummary is a member plus their effective per-resource permissions.
type MemberSummary struct {
	Member
	Permissions map[authz.Resource][]authz.Action `json:"permissions"`
}
