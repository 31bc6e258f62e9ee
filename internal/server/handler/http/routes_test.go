package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/atinyakov/unidocs/internal/apperr"
	"github.com/atinyakov/unidocs/internal/models"
)

type fakeCatalog struct{}

func (fakeCatalog) ListInstitutions(ctx context.Context) ([]models.Institution, error) {
	return []models.Institution{{ID: 1, Code: "UCAD"}}, nil
}
func (fakeCatalog) GetInstitution(ctx context.Context, id int64) (*models.Institution, error) {
	return &models.Institution{ID: id, Programs: []models.Program{{ID: 2}}}, nil
}
func (fakeCatalog) ListPrograms(ctx context.Context, institutionID int64) ([]models.Program, error) {
	return []models.Program{{ID: 2, InstitutionID: institutionID}}, nil
}
func (fakeCatalog) GetProgram(ctx context.Context, id int64) (*models.Program, error) {
	return nil, apperr.ErrNotFound
}
func (fakeCatalog) ListSubjects(ctx context.Context, programID int64, level string) ([]models.Subject, error) {
	return []models.Subject{{ID: 3, ProgramID: programID, Level: level}}, nil
}
func (fakeCatalog) GetSubject(ctx context.Context, id int64) (*models.Subject, error) {
	return &models.Subject{ID: id}, nil
}

type fakeStats struct{}

func (fakeStats) Get(ctx context.Context) (*models.Stats, error) {
	return &models.Stats{Documents: 3}, nil
}

type tokenStub struct{}

func (tokenStub) ValidateToken(token string) (*models.Claims, error) {
	if token == "valid" {
		return &models.Claims{UserID: 1, Role: models.RoleStudent}, nil
	}
	return nil, apperr.Clone(apperr.ErrUnauthorized, "invalid token")
}

func newTestRouter() http.Handler {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	return NewRouter(Handlers{
		Auth:      &AuthHandler{AuthService: &fakeAuthService{meUser: &models.User{ID: 1}}},
		Catalog:   &CatalogHandler{CatalogService: fakeCatalog{}},
		Documents: &DocumentHandler{DocumentService: &fakeDocumentService{}, MaxUploadBytes: 1 << 20},
		Stats:     &StatsHandler{StatsService: fakeStats{}},
	}, tokenStub{}, metrics, nil, zap.NewNop())
}

func TestRouter(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		ctype  string
		want   int
		substr string
	}{
		{"health", http.MethodGet, "/health", "", "", "", http.StatusOK, `"ok"`},
		{"metrics", http.MethodGet, "/metrics", "", "", "", http.StatusOK, "# metrics"},
		{"institutions", http.MethodGet, "/api/institutions", "", "", "", http.StatusOK, "UCAD"},
		{"institution detail", http.MethodGet, "/api/institutions/1", "", "", "", http.StatusOK, `"programs"`},
		{"programs filter", http.MethodGet, "/api/programs?institution_id=5", "", "", "", http.StatusOK, `"institution_id":5`},
		{"program missing", http.MethodGet, "/api/programs/9", "", "", "", http.StatusNotFound, `"error"`},
		{"subjects filter", http.MethodGet, "/api/subjects?program_id=2&level=L2", "", "", "", http.StatusOK, `"level":"L2"`},
		{"documents", http.MethodGet, "/api/documents", "", "", "", http.StatusOK, `"documents"`},
		{"search without q", http.MethodGet, "/api/search", "", "", "", http.StatusBadRequest, "required"},
		{"stats", http.MethodGet, "/api/stats", "", "", "", http.StatusOK, `"documents":3`},
		{"me without token", http.MethodGet, "/api/auth/me", "", "", "", http.StatusUnauthorized, `"error"`},
		{"me with bad token", http.MethodGet, "/api/auth/me", "nope", "", "", http.StatusUnauthorized, "invalid token"},
		{"me with token", http.MethodGet, "/api/auth/me", "valid", "", "", http.StatusOK, `"id":1`},
		{"upload without token", http.MethodPost, "/api/documents", "", "x", "multipart/form-data; boundary=x", http.StatusUnauthorized, ""},
		{"delete without token", http.MethodDelete, "/api/documents/1", "", "", "", http.StatusUnauthorized, ""},
		{"rate needs json", http.MethodPost, "/api/documents/1/rate", "valid", "score=4", "text/plain", http.StatusUnsupportedMediaType, ""},
		{"login needs json", http.MethodPost, "/api/auth/login", "", "x", "text/plain", http.StatusUnsupportedMediaType, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.ctype != "" {
				req.Header.Set("Content-Type", tt.ctype)
			}
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.substr != "" {
				assert.Contains(t, rec.Body.String(), tt.substr)
			}
		})
	}
}
