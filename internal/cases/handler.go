package cases

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gavelhq/gavel/internal/auth"
	"github.com/gavelhq/gavel/internal/shared"
)

// Handler wires the docket's HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers docket routes. Reads are open to the public role;
// filing requires an attorney, status changes a clerk.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.With(auth.RequireRole(shared.RoleAttorney)).Post("/", h.handleFile)
	r.With(auth.RequireRole(shared.RoleClerk)).Patch("/{id}/status", h.handleSetStatus)
}

type fileRequest struct {
	CaseNumber string `json:"case_number" validate:"required,max=64"`
	Title      string `json:"title" validate:"required,max=255"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=open sealed closed"`
}

type listResponse struct {
	Items      []Case `json:"items"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	authz := shared.AuthzFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	items, pg, err := h.service.List(r.Context(), authz, page, perPage)
	if err != nil {
		h.logger.Error("list cases", slog.String("court", authz.CourtID), slog.Any("error", err))
		shared.RespondError(w, http.StatusInternalServerError, err, "could not list cases")
		return
	}
	if items == nil {
		items = []Case{}
	}
	shared.RespondJSON(w, http.StatusOK, listResponse{
		Items:      items,
		Page:       pg.Page,
		PerPage:    pg.PerPage,
		Total:      pg.Total,
		TotalPages: pg.TotalPages,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	authz := shared.AuthzFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.RespondError(w, http.StatusNotFound, shared.ErrNotFound, "case not found")
		return
	}

	c, err := h.service.Get(r.Context(), authz, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.RespondError(w, http.StatusNotFound, err, "case not found")
			return
		}
		h.logger.Error("get case", slog.Int64("id", id), slog.Any("error", err))
		shared.RespondError(w, http.StatusInternalServerError, err, "could not load case")
		return
	}
	shared.RespondJSON(w, http.StatusOK, c)
}

func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	authz := shared.AuthzFromContext(r.Context())

	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, shared.ErrValidation, "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, shared.ErrValidation, "case_number and title are required")
		return
	}

	c, err := h.service.File(r.Context(), authz, req.CaseNumber, req.Title)
	if err != nil {
		h.logger.Error("file case", slog.String("court", authz.CourtID), slog.Any("error", err))
		shared.RespondError(w, http.StatusInternalServerError, err, "could not file case")
		return
	}
	shared.RespondJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	authz := shared.AuthzFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.RespondError(w, http.StatusNotFound, shared.ErrNotFound, "case not found")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, shared.ErrValidation, "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, shared.ErrValidation, "status must be open, sealed, or closed")
		return
	}

	c, err := h.service.SetStatus(r.Context(), authz, id, req.Status)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.RespondError(w, http.StatusNotFound, err, "case not found")
			return
		}
		h.logger.Error("set case status", slog.Int64("id", id), slog.Any("error", err))
		shared.RespondError(w, http.StatusInternalServerError, err, "could not update case")
		return
	}
	shared.RespondJSON(w, http.StatusOK, c)
}
