package employees

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/oriventa/clearance/internal/apperr"
	"github.com/oriventa/clearance/internal/platform/httpx"
	"github.com/oriventa/clearance/internal/shared"
)

// Handler serves the employee reference endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := parseListFilter(r)
	page := shared.ParsePageRequest(r)

	result, pagination, err := h.service.List(r.Context(), filter, page)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if result == nil {
		result = []Employee{}
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"employees":  result,
		"pagination": pagination,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid employee id", apperr.CodeValidation)
		return
	}

	emp, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, emp)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body", apperr.CodeValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error(), apperr.CodeValidation)
		return
	}

	emp, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, emp)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid employee id", apperr.CodeValidation)
		return
	}

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseListFilter(r *http.Request) ListFilter {
	q := r.URL.Query()
	var filter ListFilter
	strField := func(key string) *string {
		if v := q.Get(key); v != "" {
			return &v
		}
		return nil
	}
	filter.FirstName = strField("firstname")
	filter.LastName = strField("lastname")
	filter.Gender = strField("gender")
	filter.PersonalEmail = strField("personal_email")
	filter.PhoneNumber = strField("phone_number")
	filter.ProfessionalEmail = strField("professional_email")
	switch q.Get("deactivated") {
	case "true":
		t := true
		filter.Deactivated = &t
	case "false":
		f := false
		filter.Deactivated = &f
	}
	filter.SortDesc = q.Get("sort") == "desc"
	return filter
}
