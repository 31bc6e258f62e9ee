package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/unidocs/internal/apperr"
)

// pathID parses the {id} URL parameter. Non-numeric ids are answered
// like missing resources.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.ErrNotFound
	}
	return id, nil
}

// queryInt64 returns the integer query parameter key, or 0 when absent
// or malformed.
func queryInt64(r *http.Request, key string) int64 {
	v, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func queryInt(r *http.Request, key string) int {
	return int(queryInt64(r, key))
}
