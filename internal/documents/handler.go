package documents

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vellum-docs/vellum/internal/authz"
	"github.com/vellum-docs/vellum/internal/platform/httpx"
	"github.com/vellum-docs/vellum/internal/shared"
)

// Handler manages document endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers document routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listMine)
	r.Post("/", h.create)
	r.Get("/search", h.search)
	r.Route("/{docID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.remove)
		r.Put("/visibility", h.updateVisibility)
		r.Get("/export", h.export)
		r.Get("/shares", h.sharingState)
		r.Post("/shares/users", h.shareUser)
		r.Delete("/shares/users/{userID}", h.unshareUser)
		r.Post("/shares/organizations", h.shareOrg)
		r.Delete("/shares/organizations/{orgID}", h.unshareOrg)
		r.Put("/shares/public", h.setPublicShare)
	})
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	actorID := shared.CurrentUserID(r.Context())

	if orgID := r.URL.Query().Get("organization_id"); orgID != "" {
		action := authz.ActionRead
		if raw := r.URL.Query().Get("action"); raw != "" {
			parsed, err := authz.ParseAction(raw)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
				return
			}
			action = parsed
		}
		docs, err := h.service.ListOrganization(r.Context(), actorID, orgID, action)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"documents": docs})
		return
	}

	docs, err := h.service.ListMine(r.Context(), actorID)
	if err != nil {
		h.logger.Error("list documents failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	input := SearchInput{
		OrganizationID: r.URL.Query().Get("organization_id"),
		Query:          r.URL.Query().Get("q"),
		Action:         r.URL.Query().Get("action"),
	}
	docs, err := h.service.Search(r.Context(), shared.CurrentUserID(r.Context()), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateDocumentInput
	if !h.decode(w, r, &input) {
		return
	}
	doc, err := h.service.Create(r.Context(), shared.CurrentUserID(r.Context()), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Get(r.Context(), shared.CurrentUserID(r.Context()), chi.URLParam(r, "docID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var input UpdateDocumentInput
	if !h.decode(w, r, &input) {
		return
	}
	doc, err := h.service.Update(r.Context(), shared.CurrentUserID(r.Context()), chi.URLParam(r, "docID"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) updateVisibility(w http.ResponseWriter, r *http.Request) {
	var input UpdateVisibilityInput
	if !h.decode(w, r, &input) {
		return
	}
	err := h.service.UpdateVisibility(r.Context(), shared.CurrentUserID(r.Context()), chi.URLParam(r, "docID"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), shared.CurrentUserID(r.Context()), chi.URLParam(r, "docID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Export(r.Context(), shared.CurrentUserID(r.Context()), chi.URLParam(r, "docID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.ID+`.json"`)
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) sharingState(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.GetSharingState(r.Context(), shared.CurrentUserID(r.Context()), chi.URLParam(r, "docID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, state)
}

func (h *Handler) shareUser(w http.ResponseWriter, r *http.Request) {
	var input ShareUserInput
	if !h.decode(w, r, &input) {
		return
	}
	err := h.service.ShareWithUser(r.Context(), shared.CurrentUserID(r.Context()), chi.URLParam(r, "docID"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "shared"})
}

func (h *Handler) unshareUser(w http.ResponseWriter, r *http.Request) {
	err := h.service.UnshareUser(r.Context(), shared.CurrentUserID(r.Context()),
		chi.URLParam(r, "docID"), chi.URLParam(r, "userID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "unshared"})
}

func (h *Handler) shareOrg(w http.ResponseWriter, r *http.Request) {
	var input ShareOrgInput
	if !h.decode(w, r, &input) {
		return
	}
	err := h.service.ShareWithOrg(r.Context(), shared.CurrentUserID(r.Context()), chi.URLParam(r, "docID"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "shared"})
}

func (h *Handler) unshareOrg(w http.ResponseWriter, r *http.Request) {
	err := h.service.UnshareOrg(r.Context(), shared.CurrentUserID(r.Context()),
		chi.URLParam(r, "docID"), chi.URLParam(r, "orgID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "unshared"})
}

func (h *Handler) setPublicShare(w http.ResponseWriter, r *http.Request) {
	var input PublicShareInput
	if !h.decode(w, r, &input) {
		return
	}
	err := h.service.SetPublicShare(r.Context(), shared.CurrentUserID(r.Context()), chi.URLParam(r, "docID"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
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
