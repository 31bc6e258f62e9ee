// Package response writes JSON bodies and errors for the HTTP layer.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/atinyakov/unidocs/internal/apperr"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes err as {"error": "..."} with its mapped status. Unknown
// errors become 500 without leaking their text.
func Error(w http.ResponseWriter, err error) {
	appErr := apperr.FromError(err)
	w.Header().Set("Cache-Control", "no-store")
	JSON(w, appErr.Status, appErr)
}
