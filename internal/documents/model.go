// Package documents manages documents and their sharing state: CRUD,
// visibility, per-user and per-organization shares, the public share toggle,
// and permission-filtered listing and search.
package documents

import (
	"time"

	"github.com/vellum-docs/vellum/internal/authz"
)

// Document is the stored document record.
type Document struct {
	ID             string           `json:"id"`
	OwnerID        string           `json:"owner_id"`
	OrganizationID string           `json:"organization_id,omitempty"`
	Title          string           `json:"title"`
	Content        string           `json:"content,omitempty"`
	Visibility     authz.Visibility `json:"visibility"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// SharingState is the full sharing surface of one document, returned to
// owners and share managers.
type SharingState struct {
	UserShares  []authz.UserShare `json:"user_shares"`
	OrgShares   []authz.OrgShare  `json:"org_shares"`
	PublicShare authz.PublicShare `json:"public_share"`
	// SharedWith carries legacy share entries that predate structured
	// shares; each grants implicit read.
	SharedWith []string `json:"shared_with,omitempty"`
}
