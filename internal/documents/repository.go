package documents

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vellum-docs/vellum/internal/authz"
	"github.com/vellum-docs/vellum/internal/shared"
)

// Repository provides PostgreSQL backed persistence for documents and their
// shares. It is also the authz.DocumentSource collaborator of the access
// resolver. Shares live in dedicated tables keyed by (document_id, target):
// sharing with one user never rewrites another user's entry.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const documentColumns = `
id, owner_id, COALESCE(organization_id::text, ''), title, content, visibility,
created_at, updated_at`

// CreateDocument inserts a document.
func (r *Repository) CreateDocument(ctx context.Context, doc *Document) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO documents (id, owner_id, organization_id, title, content, visibility, created_at, updated_at)
VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, now(), now())`,
		doc.ID, doc.OwnerID, doc.OrganizationID, doc.Title, doc.Content, doc.Visibility)
	return err
}

// GetDocument fetches the stored record.
func (r *Repository) GetDocument(ctx context.Context, id string) (*Document, error) {
	q := `SELECT` + documentColumns + ` FROM documents WHERE id = $1`

	var doc Document
	err := r.pool.QueryRow(ctx, q, id).Scan(&doc.ID, &doc.OwnerID, &doc.OrganizationID,
		&doc.Title, &doc.Content, &doc.Visibility, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument persists title/content changes.
func (r *Repository) UpdateDocument(ctx context.Context, doc *Document) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE documents
SET title = $2, content = $3, updated_at = now()
WHERE id = $1`,
		doc.ID, doc.Title, doc.Content)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateVisibility sets the visibility level.
func (r *Repository) UpdateVisibility(ctx context.Context, id string, v authz.Visibility) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE documents SET visibility = $2, updated_at = now() WHERE id = $1`, id, v)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteDocument removes the document; share rows cascade.
func (r *Repository) DeleteDocument(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpsertUserShare creates or replaces the share entry for one user. Later
// shares overwrite earlier ones for the same user.
func (r *Repository) UpsertUserShare(ctx context.Context, docID string, share authz.UserShare) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO document_user_shares (document_id, user_id, actions, shared_by, shared_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (document_id, user_id)
DO UPDATE SET actions = EXCLUDED.actions, shared_by = EXCLUDED.shared_by, shared_at = now()`,
		docID, share.UserID, actionsToStrings(share.Actions), share.SharedBy)
	return err
}

// DeleteUserShare removes one user's share entry.
func (r *Repository) DeleteUserShare(ctx context.Context, docID, userID string) error {
	_, err := r.pool.Exec(ctx, `
DELETE FROM document_user_shares WHERE document_id = $1 AND user_id = $2`, docID, userID)
	return err
}

// UpsertOrgShare creates or replaces the share entry for one organization.
func (r *Repository) UpsertOrgShare(ctx context.Context, docID string, share authz.OrgShare) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO document_org_shares (document_id, organization_id, actions, shared_by, shared_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (document_id, organization_id)
DO UPDATE SET actions = EXCLUDED.actions, shared_by = EXCLUDED.shared_by, shared_at = now()`,
		docID, share.OrganizationID, actionsToStrings(share.Actions), share.SharedBy)
	return err
}

// DeleteOrgShare removes one organization's share entry.
func (r *Repository) DeleteOrgShare(ctx context.Context, docID, orgID string) error {
	_, err := r.pool.Exec(ctx, `
DELETE FROM document_org_shares WHERE document_id = $1 AND organization_id = $2`, docID, orgID)
	return err
}

// SetPublicShare enables or disables the public share row.
func (r *Repository) SetPublicShare(ctx context.Context, docID string, share authz.PublicShare) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO document_public_shares (document_id, enabled, actions, enabled_by, enabled_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (document_id)
DO UPDATE SET enabled = EXCLUDED.enabled, actions = EXCLUDED.actions,
              enabled_by = EXCLUDED.enabled_by, enabled_at = now()`,
		docID, share.Enabled, actionsToStrings(share.Actions), share.EnabledBy)
	return err
}

// LoadDocument assembles the evaluation view for the access resolver: the
// document row, the three share tables, and the legacy shared_with column.
func (r *Repository) LoadDocument(ctx context.Context, documentID string) (*authz.Document, error) {
	const q = `
SELECT id, owner_id, COALESCE(organization_id::text, ''), visibility, COALESCE(shared_with, '{}')
FROM documents
WHERE id = $1`

	var (
		doc    authz.Document
		legacy []string
	)
	err := r.pool.QueryRow(ctx, q, documentID).Scan(&doc.ID, &doc.OwnerID, &doc.OrganizationID, &doc.Visibility, &legacy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	doc.LegacySharedWith = legacy

	if err := r.loadShares(ctx, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *Repository) loadShares(ctx context.Context, doc *authz.Document) error {
	userRows, err := r.pool.Query(ctx, `
SELECT user_id, actions, shared_by, shared_at
FROM document_user_shares WHERE document_id = $1`, doc.ID)
	if err != nil {
		return err
	}
	defer userRows.Close()
	for userRows.Next() {
		var (
			share   authz.UserShare
			actions []string
		)
		if err := userRows.Scan(&share.UserID, &actions, &share.SharedBy, &share.SharedAt); err != nil {
			return err
		}
		share.Actions = stringsToActions(actions)
		doc.SharedWithUsers = append(doc.SharedWithUsers, share)
	}
	if err := userRows.Err(); err != nil {
		return err
	}

	orgRows, err := r.pool.Query(ctx, `
SELECT organization_id, actions, shared_by, shared_at
FROM document_org_shares WHERE document_id = $1
ORDER BY shared_at`, doc.ID)
	if err != nil {
		return err
	}
	defer orgRows.Close()
	for orgRows.Next() {
		var (
			share   authz.OrgShare
			actions []string
		)
		if err := orgRows.Scan(&share.OrganizationID, &actions, &share.SharedBy, &share.SharedAt); err != nil {
			return err
		}
		share.Actions = stringsToActions(actions)
		doc.SharedWithOrganizations = append(doc.SharedWithOrganizations, share)
	}
	if err := orgRows.Err(); err != nil {
		return err
	}

	var (
		public  authz.PublicShare
		actions []string
	)
	err = r.pool.QueryRow(ctx, `
SELECT enabled, actions, COALESCE(enabled_by::text, ''), enabled_at
FROM document_public_shares WHERE document_id = $1`, doc.ID).
		Scan(&public.Enabled, &actions, &public.EnabledBy, &public.EnabledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	public.Actions = stringsToActions(actions)
	doc.PublicShare = &public
	return nil
}

// GetSharingState returns the full sharing surface for the manage view.
func (r *Repository) GetSharingState(ctx context.Context, docID string) (*SharingState, error) {
	view, err := r.LoadDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	state := &SharingState{
		UserShares: view.SharedWithUsers,
		OrgShares:  view.SharedWithOrganizations,
		SharedWith: view.LegacySharedWith,
	}
	if view.PublicShare != nil {
		state.PublicShare = *view.PublicShare
	}
	return state, nil
}

// ListOrganizationDocuments returns documents belonging to one organization,
// newest first, unfiltered by permissions.
func (r *Repository) ListOrganizationDocuments(ctx context.Context, orgID string) ([]Document, error) {
	q := `SELECT` + documentColumns + `
FROM documents
WHERE organization_id = $1
ORDER BY updated_at DESC`

	return r.queryDocuments(ctx, q, orgID)
}

// ListAccessibleCandidates returns documents that could be visible to the
// user: their own, those in their organizations, and those shared with them.
// The permission filter prunes this superset.
func (r *Repository) ListAccessibleCandidates(ctx context.Context, userID string) ([]Document, error) {
	q := `SELECT DISTINCT` + documentColumns + `
FROM documents d
LEFT JOIN document_user_shares us ON us.document_id = d.id AND us.user_id = $1
LEFT JOIN document_org_shares os ON os.document_id = d.id
LEFT JOIN organization_members m ON m.user_id = $1 AND m.status = 'active'
 AND (m.organization_id = d.organization_id OR m.organization_id = os.organization_id)
WHERE d.owner_id = $1
   OR us.user_id IS NOT NULL
   OR m.user_id IS NOT NULL
   OR $1 = ANY(COALESCE(d.shared_with, '{}'))
ORDER BY updated_at DESC`

	return r.queryDocuments(ctx, q, userID)
}

// SearchByTitle returns documents whose normalized title matches the
// normalized query, scoped to one organization.
func (r *Repository) SearchByTitle(ctx context.Context, orgID, query string) ([]Document, error) {
	q := `SELECT` + documentColumns + `
FROM documents
WHERE organization_id = $1 AND lower(title) LIKE '%' || $2 || '%'
ORDER BY updated_at DESC`

	return r.queryDocuments(ctx, q, orgID, query)
}

func (r *Repository) queryDocuments(ctx context.Context, q string, args ...any) ([]Document, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.OwnerID, &doc.OrganizationID, &doc.Title,
			&doc.Content, &doc.Visibility, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func actionsToStrings(actions []authz.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}

func stringsToActions(raw []string) []authz.Action {
	out := make([]authz.Action, len(raw))
	for i, s := range raw {
		out[i] = authz.Action(s)
	}
	return out
}
