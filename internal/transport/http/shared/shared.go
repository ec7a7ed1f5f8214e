// Package shared centralizes JSON envelope writing so every handler returns
// the same {success, ...} shape and domain errors map to consistent statuses.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "kycgate/pkg/domainerrors"
)

// WriteJSON writes a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a domain error into the failure envelope. Errors
// without a code render as a generic internal failure so storage details never
// leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := "internal error"
	if code != dErrors.CodeInternal {
		message = err.Error()
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]any{
		"success": false,
		"error":   string(code),
		"message": message,
	})
}
