package httpx

import (
	"log/slog"
	"net/http"

	"github.com/oriventa/clearance/internal/apperr"
)

// RespondError maps service errors to HTTP responses using RFC7807. Internal
// errors are logged with their wrapped cause and collapse to a generic body;
// everything else surfaces its message and machine code verbatim.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		Problem(w, http.StatusBadRequest, "Validation Failed", apperr.MessageOf(err), apperr.CodeOf(err))
	case apperr.KindNotFound:
		Problem(w, http.StatusNotFound, "Not Found", apperr.MessageOf(err), apperr.CodeOf(err))
	case apperr.KindConflict:
		Problem(w, http.StatusConflict, "Conflict", apperr.MessageOf(err), apperr.CodeOf(err))
	case apperr.KindForbidden:
		Problem(w, http.StatusForbidden, "Forbidden", apperr.MessageOf(err), apperr.CodeOf(err))
	default:
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("request failed", slog.Any("error", err))
		Problem(w, http.StatusInternalServerError, "Internal Error", "", apperr.CodeInternal)
	}
}
