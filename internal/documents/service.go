package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/vellum-docs/vellum/internal/authz"
	"github.com/vellum-docs/vellum/internal/observability"
	"github.com/vellum-docs/vellum/internal/shared"
	"github.com/vellum-docs/vellum/internal/users"
	"github.com/vellum-docs/vellum/jobs"
)

// RepositoryPort defines data access methods for documents.
type RepositoryPort interface {
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	UpdateDocument(ctx context.Context, doc *Document) error
	UpdateVisibility(ctx context.Context, id string, v authz.Visibility) error
	DeleteDocument(ctx context.Context, id string) error
	UpsertUserShare(ctx context.Context, docID string, share authz.UserShare) error
	DeleteUserShare(ctx context.Context, docID, userID string) error
	UpsertOrgShare(ctx context.Context, docID string, share authz.OrgShare) error
	DeleteOrgShare(ctx context.Context, docID, orgID string) error
	SetPublicShare(ctx context.Context, docID string, share authz.PublicShare) error
	GetSharingState(ctx context.Context, docID string) (*SharingState, error)
	LoadDocument(ctx context.Context, documentID string) (*authz.Document, error)
	ListOrganizationDocuments(ctx context.Context, orgID string) ([]Document, error)
	ListAccessibleCandidates(ctx context.Context, userID string) ([]Document, error)
	SearchByTitle(ctx context.Context, orgID, query string) ([]Document, error)
}

// Directory resolves user records for share notifications.
type Directory interface {
	GetUser(ctx context.Context, id string) (*users.User, error)
}

// Notifier enqueues background notifications.
type Notifier interface {
	EnqueueShareNotify(ctx context.Context, payload jobs.ShareNotifyPayload) (*asynq.TaskInfo, error)
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles document business logic. Every document operation runs
// through the access resolver; the decision outcome is observed for metrics.
type Service struct {
	repo      RepositoryPort
	resolver  *authz.Resolver
	directory Directory
	notifier  Notifier
	audit     AuditRecorder
	metrics   *observability.Metrics
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, resolver *authz.Resolver, directory Directory, notifier Notifier, audit AuditRecorder, metrics *observability.Metrics) *Service {
	return &Service{
		repo:      repo,
		resolver:  resolver,
		directory: directory,
		notifier:  notifier,
		audit:     audit,
		metrics:   metrics,
	}
}

// Create stores a new document owned by the caller. An organization-scoped
// document requires create permission on documents in that organization; a
// personal document needs no grant at all.
func (s *Service) Create(ctx context.Context, actorID string, input CreateDocumentInput) (*Document, error) {
	visibility := authz.VisibilityPrivate
	if input.Visibility != "" {
		v, err := authz.ParseVisibility(input.Visibility)
		if err != nil {
			return nil, err
		}
		visibility = v
	}

	if input.OrganizationID != "" {
		gc := authz.GrantContext{OrganizationID: input.OrganizationID}
		if err := s.resolver.Authorize(ctx, actorID, authz.ActionCreate, authz.ResourceDocument, gc); err != nil {
			return nil, err
		}
	}

	doc := &Document{
		ID:             uuid.NewString(),
		OwnerID:        actorID,
		OrganizationID: input.OrganizationID,
		Title:          input.Title,
		Content:        input.Content,
		Visibility:     visibility,
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("documents: create: %w", err)
	}
	return s.repo.GetDocument(ctx, doc.ID)
}

// Get returns the document if the caller can read it.
func (s *Service) Get(ctx context.Context, actorID, docID string) (*Document, error) {
	if err := s.require(ctx, actorID, docID, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.GetDocument(ctx, docID)
}

// Update modifies title/content, requiring update permission.
func (s *Service) Update(ctx context.Context, actorID, docID string, input UpdateDocumentInput) (*Document, error) {
	if err := s.require(ctx, actorID, docID, authz.ActionUpdate); err != nil {
		return nil, err
	}
	doc, err := s.repo.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		doc.Title = *input.Title
	}
	if input.Content != nil {
		doc.Content = *input.Content
	}
	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		return nil, err
	}
	return s.repo.GetDocument(ctx, docID)
}

// UpdateVisibility changes the visibility level, requiring update permission.
func (s *Service) UpdateVisibility(ctx context.Context, actorID, docID string, input UpdateVisibilityInput) error {
	visibility, err := authz.ParseVisibility(input.Visibility)
	if err != nil {
		return err
	}
	if err := s.require(ctx, actorID, docID, authz.ActionUpdate); err != nil {
		return err
	}
	if err := s.repo.UpdateVisibility(ctx, docID, visibility); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "document.visibility_change", docID, map[string]any{"visibility": string(visibility)})
	return nil
}

// Delete removes the document, requiring delete permission.
func (s *Service) Delete(ctx context.Context, actorID, docID string) error {
	if err := s.require(ctx, actorID, docID, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.DeleteDocument(ctx, docID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "document.delete", docID, nil)
	return nil
}

// Export returns the document for download, requiring export permission.
func (s *Service) Export(ctx context.Context, actorID, docID string) (*Document, error) {
	if err := s.require(ctx, actorID, docID, authz.ActionExport); err != nil {
		return nil, err
	}
	return s.repo.GetDocument(ctx, docID)
}

// ShareWithUser grants actions on the document to one user. Sharing with the
// owner is a no-op: ownership already grants everything.
func (s *Service) ShareWithUser(ctx context.Context, actorID, docID string, input ShareUserInput) error {
	actions, err := parseActions(input.Actions)
	if err != nil {
		return err
	}
	if err := s.require(ctx, actorID, docID, authz.ActionShare); err != nil {
		return err
	}

	doc, err := s.repo.GetDocument(ctx, docID)
	if err != nil {
		return err
	}
	if input.UserID == doc.OwnerID {
		return nil
	}

	share := authz.UserShare{UserID: input.UserID, Actions: actions, SharedBy: actorID}
	if err := s.repo.UpsertUserShare(ctx, docID, share); err != nil {
		return err
	}

	if s.notifier != nil && s.directory != nil {
		if target, err := s.directory.GetUser(ctx, input.UserID); err == nil {
			_, _ = s.notifier.EnqueueShareNotify(ctx, jobs.ShareNotifyPayload{
				DocumentID:   docID,
				DocumentName: doc.Title,
				SharedBy:     actorID,
				TargetEmail:  target.Email,
				Actions:      input.Actions,
			})
		}
	}
	s.recordAudit(ctx, actorID, "document.share_user", docID, map[string]any{
		"user_id": input.UserID,
		"actions": input.Actions,
	})
	return nil
}

// UnshareUser removes one user's share entry.
func (s *Service) UnshareUser(ctx context.Context, actorID, docID, userID string) error {
	if err := s.require(ctx, actorID, docID, authz.ActionShare); err != nil {
		return err
	}
	if err := s.repo.DeleteUserShare(ctx, docID, userID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "document.unshare_user", docID, map[string]any{"user_id": userID})
	return nil
}

// ShareWithOrg grants actions on the document to every member of one
// organization.
func (s *Service) ShareWithOrg(ctx context.Context, actorID, docID string, input ShareOrgInput) error {
	actions, err := parseActions(input.Actions)
	if err != nil {
		return err
	}
	if err := s.require(ctx, actorID, docID, authz.ActionShare); err != nil {
		return err
	}

	share := authz.OrgShare{OrganizationID: input.OrganizationID, Actions: actions, SharedBy: actorID}
	if err := s.repo.UpsertOrgShare(ctx, docID, share); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "document.share_org", docID, map[string]any{
		"organization_id": input.OrganizationID,
		"actions":         input.Actions,
	})
	return nil
}

// UnshareOrg removes one organization's share entry.
func (s *Service) UnshareOrg(ctx context.Context, actorID, docID, orgID string) error {
	if err := s.require(ctx, actorID, docID, authz.ActionShare); err != nil {
		return err
	}
	if err := s.repo.DeleteOrgShare(ctx, docID, orgID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "document.unshare_org", docID, map[string]any{"organization_id": orgID})
	return nil
}

// SetPublicShare enables or disables the public share. Disabling clears no
// actions; the row keeps its last action set for re-enabling.
func (s *Service) SetPublicShare(ctx context.Context, actorID, docID string, input PublicShareInput) error {
	actions, err := parseActions(input.Actions)
	if err != nil {
		return err
	}
	if err := s.require(ctx, actorID, docID, authz.ActionShare); err != nil {
		return err
	}

	share := authz.PublicShare{Enabled: input.Enabled, Actions: actions, EnabledBy: actorID}
	if err := s.repo.SetPublicShare(ctx, docID, share); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "document.public_share", docID, map[string]any{
		"enabled": input.Enabled,
		"actions": input.Actions,
	})
	return nil
}

// GetSharingState returns the full sharing surface, requiring share
// permission.
func (s *Service) GetSharingState(ctx context.Context, actorID, docID string) (*SharingState, error) {
	if err := s.require(ctx, actorID, docID, authz.ActionShare); err != nil {
		return nil, err
	}
	return s.repo.GetSharingState(ctx, docID)
}

// ListMine returns every document the caller can read: their own, reachable
// organization documents, and documents shared with them. The candidate set
// is pruned by the same decision predicate as single-document access.
func (s *Service) ListMine(ctx context.Context, actorID string) ([]Document, error) {
	candidates, err := s.repo.ListAccessibleCandidates(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.filter(ctx, actorID, candidates, authz.ActionRead)
}

// ListOrganization returns the organization documents the caller can perform
// the given action on. Defaults to read.
func (s *Service) ListOrganization(ctx context.Context, actorID, orgID string, action authz.Action) ([]Document, error) {
	if action == "" {
		action = authz.ActionRead
	}
	candidates, err := s.repo.ListOrganizationDocuments(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return s.filter(ctx, actorID, candidates, action)
}

// Search finds readable organization documents by title. The query is
// unicode-normalized and case-folded before matching so "Straße" finds
// "STRASSE".
func (s *Service) Search(ctx context.Context, actorID string, input SearchInput) ([]Document, error) {
	action := authz.ActionRead
	if input.Action != "" {
		parsed, err := authz.ParseAction(input.Action)
		if err != nil {
			return nil, err
		}
		action = parsed
	}

	candidates, err := s.repo.SearchByTitle(ctx, input.OrganizationID, NormalizeQuery(input.Query))
	if err != nil {
		return nil, err
	}
	return s.filter(ctx, actorID, candidates, action)
}

// require runs the single-document decision and observes the outcome.
func (s *Service) require(ctx context.Context, actorID, docID string, action authz.Action) error {
	allowed, err := s.resolver.CanAccessDocument(ctx, actorID, docID, action)
	if err != nil {
		return err
	}
	s.metrics.ObserveAccessDecision(string(action), allowed)
	if !allowed {
		return &authz.ForbiddenError{Action: action, Resource: authz.ResourceDocument}
	}
	return nil
}

// filter prunes the stored candidates through the bulk permission filter,
// preserving order.
func (s *Service) filter(ctx context.Context, actorID string, candidates []Document, action authz.Action) ([]Document, error) {
	views := make([]*authz.Document, len(candidates))
	for i := range candidates {
		view, err := s.repo.LoadDocument(ctx, candidates[i].ID)
		if err != nil {
			return nil, err
		}
		views[i] = view
	}
	kept, err := s.resolver.FilterDocuments(ctx, actorID, views, action)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Document, len(candidates))
	for _, doc := range candidates {
		byID[doc.ID] = doc
	}
	out := make([]Document, 0, len(kept))
	for _, view := range kept {
		out = append(out, byID[view.ID])
	}
	return out, nil
}

var queryFolder = cases.Fold()

// NormalizeQuery prepares free text for matching: trim, NFKC normalization,
// case folding.
func NormalizeQuery(q string) string {
	return queryFolder.String(norm.NFKC.String(strings.TrimSpace(q)))
}

func parseActions(raw []string) ([]authz.Action, error) {
	actions := make([]authz.Action, 0, len(raw))
	for _, s := range raw {
		action, err := authz.ParseAction(s)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, docID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "document",
		EntityID: docID,
		Meta:     meta,
	})
}
