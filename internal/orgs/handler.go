package orgs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vellum-docs/vellum/internal/platform/httpx"
	"github.com/vellum-docs/vellum/internal/shared"
)

// Handler manages organization endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers organization routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listMine)
	r.Post("/", h.create)
	r.Route("/{orgID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Get("/permissions", h.myPermissions)
		r.Post("/invites", h.invite)
		r.Post("/invites/accept", h.acceptInvite)
		r.Get("/members", h.listMembers)
		r.Put("/members/{userID}/role", h.updateRole)
		r.Put("/members/{userID}/permissions", h.updatePermissions)
		r.Delete("/members/{userID}", h.removeMember)
	})
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	organizations, err := h.service.ListMine(r.Context(), shared.CurrentUserID(r.Context()))
	if err != nil {
		h.logger.Error("list organizations failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"organizations": organizations})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateOrganizationInput
	if !h.decode(w, r, &input) {
		return
	}
	org, err := h.service.CreateOrganization(r.Context(), shared.CurrentUserID(r.Context()), input)
	if err != nil {
		h.logger.Error("create organization failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, org)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.GetOrganization(r.Context(), shared.CurrentUserID(r.Context()), chi.URLParam(r, "orgID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, org)
}

func (h *Handler) myPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.MyPermissions(r.Context(), shared.CurrentUserID(r.Context()), chi.URLParam(r, "orgID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *Handler) invite(w http.ResponseWriter, r *http.Request) {
	var input InviteMemberInput
	if !h.decode(w, r, &input) {
		return
	}
	member, err := h.service.InviteMember(r.Context(), shared.CurrentUserID(r.Context()), chi.URLParam(r, "orgID"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, member)
}

func (h *Handler) acceptInvite(w http.ResponseWriter, r *http.Request) {
	err := h.service.AcceptInvite(r.Context(), shared.CurrentUserID(r.Context()), chi.URLParam(r, "orgID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "active"})
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context(), shared.CurrentUserID(r.Context()), chi.URLParam(r, "orgID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"members": members})
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var input UpdateRoleInput
	if !h.decode(w, r, &input) {
		return
	}
	err := h.service.UpdateMemberRole(r.Context(), shared.CurrentUserID(r.Context()),
		chi.URLParam(r, "orgID"), chi.URLParam(r, "userID"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) updatePermissions(w http.ResponseWriter, r *http.Request) {
	var input UpdatePermissionsInput
	if !h.decode(w, r, &input) {
		return
	}
	err := h.service.UpdateMemberPermissions(r.Context(), shared.CurrentUserID(r.Context()),
		chi.URLParam(r, "orgID"), chi.URLParam(r, "userID"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveMember(r.Context(), shared.CurrentUserID(r.Context()),
		chi.URLParam(r, "orgID"), chi.URLParam(r, "userID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}
