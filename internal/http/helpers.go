package http

import (
	"errors"
	"net/http"

	"spendtrack/internal/core"
	applog "spendtrack/internal/log"
	"spendtrack/internal/services"
)

// validationErrs are the payload failures answered with 400 and their message
// verbatim.
var validationErrs = []error{
	core.ErrCategoryRequired,
	core.ErrAmountRequired,
	core.ErrAmountNegative,
	core.ErrDateRequired,
	core.ErrDateFormat,
	core.ErrDescriptionType,
}

func isValidationError(err error) bool {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// writeServiceError maps service-layer failures to the API's error taxonomy:
// 404 for missing records, 400 for payload problems, 500 for the rest.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrExpenseNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNoFields), errors.Is(err, services.ErrInvalidChart), isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		fields := applog.NewFields().WithError(err)
		fields[applog.FieldPath] = r.URL.Path
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// requireToken writes the standard missing-token error when token is empty.
func requireToken(w http.ResponseWriter, token string) bool {
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return false
	}
	return true
}
