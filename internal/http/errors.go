package http

import (
	"errors"
	"net/http"

	"billbook/internal/auth"
	"billbook/internal/core"
	applog "billbook/internal/log"
	"billbook/internal/storage"
)

// respondError maps service and storage errors onto the JSON error shape.
// Unexpected errors are logged and reported without detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		ValidationFailed(verr.Fields).Write(w)
	case errors.Is(err, core.ErrInvalidStatus):
		ValidationFailed(map[string]string{"status": "must be one of: paid, unpaid, pending"}).Write(w)
	case errors.Is(err, storage.ErrNotFound):
		NotFoundError("not found").Write(w)
	case errors.Is(err, storage.ErrDuplicate):
		ErrorResponse(http.StatusConflict, CodeConflict, "bill number already used", nil).Write(w)
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		UnauthorizedError(err.Error()).Write(w)
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeInternal)
		InternalServerError("internal error").Write(w)
	}
}

// respondBadBody reports an undecodable request body.
func respondBadBody(w http.ResponseWriter, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		ValidationFailed(verr.Fields).Write(w)
		return
	}
	if errors.Is(err, ErrBodyTooLarge) {
		ErrorResponse(http.StatusRequestEntityTooLarge, CodeBadRequest, err.Error(), nil).Write(w)
		return
	}
	BadRequestError("invalid request body").Write(w)
}
