// Package nav tracks the client's current location: a view path plus its
// query string. Commands navigate through it and the CLI prints the
// location when it changes.
package nav

import (
	"net/url"
	"sync"
)

// LoginPath is the login view.
const LoginPath = "/login"

// Navigator moves between views.
type Navigator interface {
	Navigate(path string)
	Path() string
}

// Router is an in-memory Navigator with query support.
type Router struct {
	mu      sync.Mutex
	path    string
	query   url.Values
	history []string
}

// NewRouter starts at location, e.g. "/search?type=cours".
func NewRouter(location string) *Router {
	r := &Router{}
	r.set(location)
	return r
}

func (r *Router) set(location string) {
	u, err := url.Parse(location)
	if err != nil || u.Path == "" {
		r.path = "/"
		r.query = url.Values{}
		return
	}
	r.path = u.Path
	r.query = u.Query()
}

// Navigate replaces the location and records it in the history.
func (r *Router) Navigate(location string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set(location)
	r.history = append(r.history, r.locationLocked())
}

// Path returns the current view path.
func (r *Router) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// Query returns a copy of the current query parameters.
func (r *Router) Query() url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(url.Values, len(r.query))
	for k, v := range r.query {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// ReplaceQuery swaps the query string without adding a history entry.
func (r *Router) ReplaceQuery(q url.Values) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.query = url.Values{}
	for k, v := range q {
		r.query[k] = append([]string(nil), v...)
	}
}

// Location returns path and query as one string.
func (r *Router) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locationLocked()
}

func (r *Router) locationLocked() string {
	if len(r.query) == 0 {
		return r.path
	}
	return r.path + "?" + r.query.Encode()
}

// History returns every location passed to Navigate, oldest first.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}
