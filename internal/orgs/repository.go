package orgs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/vellum-docs/vellum/internal/authz"
	"github.com/vellum-docs/vellum/internal/platform/db"
	"github.com/vellum-docs/vellum/internal/shared"
)

// Repository provides PostgreSQL backed persistence for organizations and
// memberships. It is also the authz.MembershipSource collaborator of the
// access resolver.
type Repository struct {
	pool  *pgxpool.Pool
	group singleflight.Group
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const memberColumns = `
m.user_id, m.organization_id, u.email, u.name, m.role, m.custom_permissions,
m.status, COALESCE(m.invited_by::text, ''), m.invite_expires_at, m.joined_at,
m.created_at, m.updated_at`

// CreateOrganization inserts the organization and its owner membership in
// one transaction.
func (r *Repository) CreateOrganization(ctx context.Context, org *Organization) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO organizations (id, name, slug, owner_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())`,
			org.ID, org.Name, org.Slug, org.OwnerID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
INSERT INTO organization_members (user_id, organization_id, role, custom_permissions, status, joined_at, created_at, updated_at)
VALUES ($1, $2, 'owner', '[]'::jsonb, 'active', now(), now(), now())`,
			org.OwnerID, org.ID)
		return err
	})
}

// GetOrganization fetches one organization.
func (r *Repository) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	const q = `
SELECT id, name, slug, owner_id, created_at, updated_at
FROM organizations
WHERE id = $1`

	var org Organization
	err := r.pool.QueryRow(ctx, q, id).Scan(&org.ID, &org.Name, &org.Slug, &org.OwnerID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

// ListUserOrganizations returns every organization the user actively
// belongs to.
func (r *Repository) ListUserOrganizations(ctx context.Context, userID string) ([]Organization, error) {
	const q = `
SELECT o.id, o.name, o.slug, o.owner_id, o.created_at, o.updated_at
FROM organizations o
JOIN organization_members m ON m.organization_id = o.id
WHERE m.user_id = $1 AND m.status = 'active'
ORDER BY o.created_at`

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Organization
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Slug, &org.OwnerID, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, org)
	}
	return out, rows.Err()
}

// LoadActiveMemberships returns the evaluation view of the user's active
// memberships. Concurrent loads for the same user are coalesced; the access
// resolver calls this on every document decision.
func (r *Repository) LoadActiveMemberships(ctx context.Context, userID string) ([]authz.Membership, error) {
	ch := r.group.DoChan("memberships:"+userID, func() (any, error) {
		return r.loadActiveMemberships(context.WithoutCancel(ctx), userID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]authz.Membership), nil
	}
}

func (r *Repository) loadActiveMemberships(ctx context.Context, userID string) ([]authz.Membership, error) {
	const q = `
SELECT user_id, organization_id, role, custom_permissions, status
FROM organization_members
WHERE user_id = $1 AND status = 'active'`

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []authz.Membership
	for rows.Next() {
		var (
			m       authz.Membership
			rawPerm []byte
		)
		if err := rows.Scan(&m.UserID, &m.OrganizationID, &m.Role, &rawPerm, &m.Status); err != nil {
			return nil, err
		}
		if err := unmarshalGrants(rawPerm, &m.CustomPermissions); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// GetMember fetches one membership row with its user columns joined.
func (r *Repository) GetMember(ctx context.Context, orgID, userID string) (*Member, error) {
	q := `
SELECT` + memberColumns + `
FROM organization_members m
JOIN users u ON u.id = m.user_id
WHERE m.organization_id = $1 AND m.user_id = $2`

	row := r.pool.QueryRow(ctx, q, orgID, userID)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListMembers returns all memberships of an organization.
func (r *Repository) ListMembers(ctx context.Context, orgID string) ([]Member, error) {
	q := `
SELECT` + memberColumns + `
FROM organization_members m
JOIN users u ON u.id = m.user_id
WHERE m.organization_id = $1
ORDER BY m.created_at`

	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// CreateInvite inserts a pending membership.
func (r *Repository) CreateInvite(ctx context.Context, m *Member) error {
	perms, err := marshalGrants(m.CustomPermissions)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO organization_members (user_id, organization_id, role, custom_permissions, status, invited_by, invite_expires_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'pending', $5, $6, now(), now())`,
		m.UserID, m.OrganizationID, m.Role, perms, m.InvitedBy, m.InviteExpiresAt)
	return err
}

// ActivateMembership flips a pending, unexpired invite to active.
func (r *Repository) ActivateMembership(ctx context.Context, orgID, userID string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE organization_members
SET status = 'active', joined_at = now(), invite_expires_at = NULL, updated_at = now()
WHERE organization_id = $1 AND user_id = $2
  AND status = 'pending'
  AND (invite_expires_at IS NULL OR invite_expires_at > now())`,
		orgID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateMemberRole sets the member's role.
func (r *Repository) UpdateMemberRole(ctx context.Context, orgID, userID string, role authz.Role) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE organization_members
SET role = $3, updated_at = now()
WHERE organization_id = $1 AND user_id = $2`,
		orgID, userID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateMemberPermissions replaces the member's custom permission list.
func (r *Repository) UpdateMemberPermissions(ctx context.Context, orgID, userID string, specs []authz.GrantSpec) error {
	perms, err := marshalGrants(specs)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
UPDATE organization_members
SET custom_permissions = $3, updated_at = now()
WHERE organization_id = $1 AND user_id = $2`,
		orgID, userID, perms)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteMembership removes the membership row.
func (r *Repository) DeleteMembership(ctx context.Context, orgID, userID string) error {
	tag, err := r.pool.Exec(ctx, `
DELETE FROM organization_members
WHERE organization_id = $1 AND user_id = $2`,
		orgID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*Member, error) {
	var (
		m       Member
		rawPerm []byte
		expires *time.Time
		joined  *time.Time
	)
	err := row.Scan(&m.UserID, &m.OrganizationID, &m.Email, &m.Name, &m.Role,
		&rawPerm, &m.Status, &m.InvitedBy, &expires, &joined, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.InviteExpiresAt = expires
	m.JoinedAt = joined
	if err := unmarshalGrants(rawPerm, &m.CustomPermissions); err != nil {
		return nil, err
	}
	return &m, nil
}

func marshalGrants(specs []authz.GrantSpec) ([]byte, error) {
	if specs == nil {
		specs = []authz.GrantSpec{}
	}
	return json.Marshal(specs)
}

func unmarshalGrants(raw []byte, into *[]authz.GrantSpec) error {
	if len(raw) == 0 {
		*into = nil
		return nil
	}
	return json.Unmarshal(raw, into)
}
