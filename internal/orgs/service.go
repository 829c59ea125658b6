package orgs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/vellum-docs/vellum/internal/authz"
	"github.com/vellum-docs/vellum/internal/shared"
	"github.com/vellum-docs/vellum/internal/users"
	"github.com/vellum-docs/vellum/jobs"
)

// RepositoryPort defines data access methods for organizations.
type RepositoryPort interface {
	CreateOrganization(ctx context.Context, org *Organization) error
	GetOrganization(ctx context.Context, id string) (*Organization, error)
	ListUserOrganizations(ctx context.Context, userID string) ([]Organization, error)
	LoadActiveMemberships(ctx context.Context, userID string) ([]authz.Membership, error)
	GetMember(ctx context.Context, orgID, userID string) (*Member, error)
	ListMembers(ctx context.Context, orgID string) ([]Member, error)
	CreateInvite(ctx context.Context, m *Member) error
	ActivateMembership(ctx context.Context, orgID, userID string) error
	UpdateMemberRole(ctx context.Context, orgID, userID string, role authz.Role) error
	UpdateMemberPermissions(ctx context.Context, orgID, userID string, specs []authz.GrantSpec) error
	DeleteMembership(ctx context.Context, orgID, userID string) error
}

// UserDirectory resolves invitees by email.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*users.User, error)
}

// Notifier enqueues background notifications.
type Notifier interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles organization business logic.
type Service struct {
	repo      RepositoryPort
	resolver  *authz.Resolver
	directory UserDirectory
	notifier  Notifier
	audit     AuditRecorder
	inviteTTL time.Duration
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, resolver *authz.Resolver, directory UserDirectory, notifier Notifier, audit AuditRecorder, inviteTTL time.Duration) *Service {
	return &Service{
		repo:      repo,
		resolver:  resolver,
		directory: directory,
		notifier:  notifier,
		audit:     audit,
		inviteTTL: inviteTTL,
	}
}

// CreateOrganization creates a workspace with the caller as its owner. The
// owner membership is created active in the same transaction.
func (s *Service) CreateOrganization(ctx context.Context, ownerID string, input CreateOrganizationInput) (*Organization, error) {
	slug := input.Slug
	if slug == "" {
		slug = slugify(input.Name)
	}
	org := &Organization{
		ID:      uuid.NewString(),
		Name:    input.Name,
		Slug:    slug,
		OwnerID: ownerID,
	}
	if err := s.repo.CreateOrganization(ctx, org); err != nil {
		return nil, fmt.Errorf("orgs: create organization: %w", err)
	}
	return s.repo.GetOrganization(ctx, org.ID)
}

// GetOrganization returns the organization, requiring read access.
func (s *Service) GetOrganization(ctx context.Context, actorID, orgID string) (*Organization, error) {
	gc := authz.GrantContext{OrganizationID: orgID}
	if err := s.resolver.Authorize(ctx, actorID, authz.ActionRead, authz.ResourceOrganization, gc); err != nil {
		return nil, err
	}
	return s.repo.GetOrganization(ctx, orgID)
}

// ListMine returns the organizations the caller belongs to.
func (s *Service) ListMine(ctx context.Context, actorID string) ([]Organization, error) {
	return s.repo.ListUserOrganizations(ctx, actorID)
}

// InviteMember creates a pending membership for the invitee and enqueues the
// invitation email. The invited role must rank below the actor's own and can
// never be owner.
func (s *Service) InviteMember(ctx context.Context, actorID, orgID string, input InviteMemberInput) (*Member, error) {
	role, err := authz.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}

	gc := authz.GrantContext{OrganizationID: orgID}
	if err := s.resolver.Authorize(ctx, actorID, authz.ActionInvite, authz.ResourceOrganization, gc); err != nil {
		return nil, err
	}

	actor, err := s.repo.GetMember(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}
	if role == authz.RoleOwner || authz.Rank(role) >= authz.Rank(actor.Role) {
		return nil, &authz.ForbiddenError{Action: authz.ActionInvite, Resource: authz.ResourceOrganization,
			Reason: "cannot invite at or above your own role"}
	}

	invitee, err := s.directory.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	expires := time.Now().Add(s.inviteTTL)
	member := &Member{
		UserID:          invitee.ID,
		OrganizationID:  orgID,
		Email:           invitee.Email,
		Name:            invitee.Name,
		Role:            role,
		Status:          authz.StatusPending,
		InvitedBy:       actorID,
		InviteExpiresAt: &expires,
	}
	if err := s.repo.CreateInvite(ctx, member); err != nil {
		return nil, fmt.Errorf("orgs: create invite: %w", err)
	}

	org, err := s.repo.GetOrganization(ctx, orgID)
	if err == nil && s.notifier != nil {
		_, _ = s.notifier.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
			To:      invitee.Email,
			Subject: fmt.Sprintf("You were invited to %s", org.Name),
			Body:    fmt.Sprintf("You have been invited as %s. The invitation expires %s.", role, expires.Format(time.RFC1123)),
		})
	}

	s.recordAudit(ctx, actorID, "member.invite", orgID, map[string]any{
		"user_id": invitee.ID,
		"role":    string(role),
	})
	return member, nil
}

// AcceptInvite activates the caller's pending membership. Expired invites
// surface as not found.
func (s *Service) AcceptInvite(ctx context.Context, userID, orgID string) error {
	if err := s.repo.ActivateMembership(ctx, orgID, userID); err != nil {
		return err
	}
	s.recordAudit(ctx, userID, "member.accept", orgID, nil)
	return nil
}

// UpdateMemberRole changes a member's role, enforcing the rank hierarchy.
func (s *Service) UpdateMemberRole(ctx context.Context, actorID, orgID, targetID string, input UpdateRoleInput) error {
	newRole, err := authz.ParseRole(input.Role)
	if err != nil {
		return err
	}

	gc := authz.GrantContext{OrganizationID: orgID}
	if err := s.resolver.Authorize(ctx, actorID, authz.ActionUpdate, authz.ResourceMember, gc); err != nil {
		return err
	}

	actor, err := s.repo.GetMember(ctx, orgID, actorID)
	if err != nil {
		return err
	}
	target, err := s.repo.GetMember(ctx, orgID, targetID)
	if err != nil {
		return err
	}
	if err := authz.AssertRoleChangeAllowed(actor.AsEvaluation(), target.AsEvaluation(), newRole); err != nil {
		return err
	}

	if err := s.repo.UpdateMemberRole(ctx, orgID, targetID, newRole); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "member.role_change", orgID, map[string]any{
		"user_id": targetID,
		"from":    string(target.Role),
		"to":      string(newRole),
	})
	return nil
}

// UpdateMemberPermissions replaces a member's custom permission list. Grants
// are additive on top of role defaults; every entry is validated before it
// reaches storage.
func (s *Service) UpdateMemberPermissions(ctx context.Context, actorID, orgID, targetID string, input UpdatePermissionsInput) error {
	specs := make([]authz.GrantSpec, 0, len(input.Permissions))
	for _, g := range input.Permissions {
		spec := authz.GrantSpec{Resource: authz.Resource(g.Resource)}
		for _, a := range g.Actions {
			spec.Actions = append(spec.Actions, authz.Action(a))
		}
		if err := spec.Validate(); err != nil {
			return err
		}
		specs = append(specs, spec)
	}

	gc := authz.GrantContext{OrganizationID: orgID}
	if err := s.resolver.Authorize(ctx, actorID, authz.ActionUpdate, authz.ResourceMember, gc); err != nil {
		return err
	}

	actor, err := s.repo.GetMember(ctx, orgID, actorID)
	if err != nil {
		return err
	}
	target, err := s.repo.GetMember(ctx, orgID, targetID)
	if err != nil {
		return err
	}
	// Same gate as role changes: only lower-ranked members can be granted to.
	if err := authz.AssertRemovalAllowed(actor.AsEvaluation(), target.AsEvaluation()); err != nil {
		return err
	}

	if err := s.repo.UpdateMemberPermissions(ctx, orgID, targetID, specs); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "member.permissions_change", orgID, map[string]any{
		"user_id": targetID,
		"grants":  len(specs),
	})
	return nil
}

// RemoveMember deletes a membership. Members may always remove themselves
// unless they are the owner; removing others requires outranking them.
func (s *Service) RemoveMember(ctx context.Context, actorID, orgID, targetID string) error {
	target, err := s.repo.GetMember(ctx, orgID, targetID)
	if err != nil {
		return err
	}

	if actorID == targetID {
		if target.Role == authz.RoleOwner {
			return &authz.ForbiddenError{Action: authz.ActionDelete, Resource: authz.ResourceMember,
				Reason: "the owner cannot leave their organization"}
		}
	} else {
		gc := authz.GrantContext{OrganizationID: orgID}
		if err := s.resolver.Authorize(ctx, actorID, authz.ActionDelete, authz.ResourceMember, gc); err != nil {
			return err
		}
		actor, err := s.repo.GetMember(ctx, orgID, actorID)
		if err != nil {
			return err
		}
		if err := authz.AssertRemovalAllowed(actor.AsEvaluation(), target.AsEvaluation()); err != nil {
			return err
		}
	}

	if err := s.repo.DeleteMembership(ctx, orgID, targetID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "member.remove", orgID, map[string]any{"user_id": targetID})
	return nil
}

// ListMembers returns memberships with their effective permission maps.
func (s *Service) ListMembers(ctx context.Context, actorID, orgID string) ([]MemberSummary, error) {
	gc := authz.GrantContext{OrganizationID: orgID}
	if err := s.resolver.Authorize(ctx, actorID, authz.ActionRead, authz.ResourceMember, gc); err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]MemberSummary, len(members))
	for i, m := range members {
		out[i] = MemberSummary{
			Member:      m,
			Permissions: authz.ResolveOrganizationPermissions(m.Role, m.CustomPermissions),
		}
	}
	return out, nil
}

// MyPermissions returns the caller's effective permission map in one
// organization.
func (s *Service) MyPermissions(ctx context.Context, userID, orgID string) (map[authz.Resource][]authz.Action, error) {
	member, err := s.repo.GetMember(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if !member.AsEvaluation().Active() {
		return nil, shared.ErrNotFound
	}
	return authz.ResolveOrganizationPermissions(member.Role, member.CustomPermissions), nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, orgID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "organization",
		EntityID: orgID,
		Meta:     meta,
	})
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		}
		return -1
	}, slug)
	return strings.Trim(slug, "-")
}
