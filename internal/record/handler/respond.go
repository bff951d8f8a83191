package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "attest/pkg/domain-errors"
)

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError translates coded domain errors into consistent JSON envelopes.
// Keeping the mapping here ensures every endpoint reports the same shapes.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := httpStatus(code)
	message := ""
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}
	writeJSON(w, status, errorEnvelope{Error: string(code), Message: message})
}

func httpStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation, dErrors.CodeMalformedGuess:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeInvariantViolation:
		return http.StatusConflict
	case dErrors.CodeLockedRecord:
		return http.StatusLocked
	case dErrors.CodeRoleMismatch:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
