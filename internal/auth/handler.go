package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/oriventa/clearance/internal/apperr"
	"github.com/oriventa/clearance/internal/platform/httpx"
)

// Handler serves the authentication endpoints.
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

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body", apperr.CodeValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error(), apperr.CodeValidation)
		return
	}

	pair, err := h.service.Login(r.Context(), req)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeInvalidCredentials {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized",
				apperr.MessageOf(err), apperr.CodeInvalidCredentials)
			return
		}
		httpx.RespondError(w, h.logger, err)
		return
	}

	httpx.JSON(w, http.StatusOK, pair)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body", apperr.CodeValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error(), apperr.CodeValidation)
		return
	}

	pair, err := h.service.Refresh(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}

	httpx.JSON(w, http.StatusOK, pair)
}
