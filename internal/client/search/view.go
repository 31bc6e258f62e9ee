// Package search holds the state of the browse/search view: filters read
// from and written to the location query, one fetch per change, and
// sequence numbers so a slow response never overwrites a newer one.
package search

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/atinyakov/unidocs/internal/client/api"
	"github.com/atinyakov/unidocs/internal/models"
)

// ErrStale is returned by a fetch that was superseded before it resolved.
var ErrStale = errors.New("search: superseded by a newer request")

// Fetcher is the part of the API client the view calls.
type Fetcher interface {
	Documents(ctx context.Context, q api.DocumentQuery) (*models.DocumentPage, error)
	Search(ctx context.Context, q api.SearchQuery) (*models.DocumentPage, error)
}

// Location is the query-string side of the navigator.
type Location interface {
	Query() url.Values
	ReplaceQuery(q url.Values)
}

// Filters are the user-editable criteria.
type Filters struct {
	Text          string
	Type          string
	InstitutionID int64
	Level         string
}

// FiltersFromQuery reads q, type, institution_id and level.
func FiltersFromQuery(q url.Values) Filters {
	id, _ := strconv.ParseInt(q.Get("institution_id"), 10, 64)
	if id < 0 {
		id = 0
	}
	return Filters{
		Text:          q.Get("q"),
		Type:          q.Get("type"),
		InstitutionID: id,
		Level:         q.Get("level"),
	}
}

// Values encodes the non-empty filters.
func (f Filters) Values() url.Values {
	v := url.Values{}
	if t := strings.TrimSpace(f.Text); t != "" {
		v.Set("q", t)
	}
	if f.Type != "" {
		v.Set("type", f.Type)
	}
	if f.InstitutionID > 0 {
		v.Set("institution_id", strconv.FormatInt(f.InstitutionID, 10))
	}
	if f.Level != "" {
		v.Set("level", f.Level)
	}
	return v
}

// PageFromQuery reads page, defaulting to 1.
func PageFromQuery(q url.Values) int {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// locationQuery encodes f and page. Page 1 is left implicit.
func locationQuery(f Filters, page int) url.Values {
	v := f.Values()
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	return v
}

// Snapshot is what the view renders.
type Snapshot struct {
	Filters Filters
	Page    int
	Results *models.DocumentPage
	Err     error
	Loading bool
}

// View is safe for concurrent use.
type View struct {
	fetcher  Fetcher
	location Location
	seq      atomic.Uint64

	mu      sync.Mutex
	filters Filters
	page    int
	results *models.DocumentPage
	err     error
	loading bool
}

// NewView reads the initial filters and page from location.
func NewView(fetcher Fetcher, location Location) *View {
	q := location.Query()
	return &View{
		fetcher:  fetcher,
		location: location,
		filters:  FiltersFromQuery(q),
		page:     PageFromQuery(q),
	}
}

// Snapshot returns the current state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Snapshot{
		Filters: v.filters,
		Page:    v.page,
		Results: v.results,
		Err:     v.err,
		Loading: v.loading,
	}
}

// DismissError hides the current error message.
func (v *View) DismissError() {
	v.mu.Lock()
	v.err = nil
	v.mu.Unlock()
}

// Update applies mutate to the filters and fetches page 1.
func (v *View) Update(ctx context.Context, mutate func(*Filters)) (*models.DocumentPage, error) {
	v.mu.Lock()
	f := v.filters
	mutate(&f)
	v.filters = f
	v.mu.Unlock()
	return v.fetch(ctx, f, 1, false)
}

// Load fetches the page and filters currently held by the view, as read
// from the location.
func (v *View) Load(ctx context.Context) (*models.DocumentPage, error) {
	v.mu.Lock()
	f, page := v.filters, v.page
	v.mu.Unlock()
	return v.fetch(ctx, f, page, false)
}

// Submit writes the non-empty filters to the location query and fetches
// page 1.
func (v *View) Submit(ctx context.Context) (*models.DocumentPage, error) {
	v.mu.Lock()
	f := v.filters
	v.mu.Unlock()
	v.location.ReplaceQuery(locationQuery(f, 1))
	return v.fetch(ctx, f, 1, false)
}

// GoTo fetches a 1-indexed page with the current filters and records the
// page the server answered with in the location query.
func (v *View) GoTo(ctx context.Context, page int) (*models.DocumentPage, error) {
	if page < 1 {
		page = 1
	}
	v.mu.Lock()
	f := v.filters
	v.mu.Unlock()
	return v.fetch(ctx, f, page, true)
}

func (v *View) fetch(ctx context.Context, f Filters, page int, syncLocation bool) (*models.DocumentPage, error) {
	seq := v.seq.Add(1)
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()

	var (
		res *models.DocumentPage
		err error
	)
	if text := strings.TrimSpace(f.Text); text != "" {
		res, err = v.fetcher.Search(ctx, api.SearchQuery{Text: text, Type: f.Type, Page: page})
	} else {
		res, err = v.fetcher.Documents(ctx, api.DocumentQuery{
			Type:          f.Type,
			InstitutionID: f.InstitutionID,
			Level:         f.Level,
			Page:          page,
		})
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq != v.seq.Load() {
		return nil, ErrStale
	}
	v.loading = false
	if err != nil {
		v.results = nil
		v.err = err
		return nil, err
	}
	v.results = res
	v.page = page
	if res != nil && res.Page > 0 {
		v.page = res.Page
	}
	v.err = nil
	if syncLocation {
		v.location.ReplaceQuery(locationQuery(f, v.page))
	}
	return res, nil
}
