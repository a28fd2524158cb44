package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"artwork-catalog/internal/analysis"
	adminapi "artwork-catalog/internal/api/admin"
	artworksapi "artwork-catalog/internal/api/artworks"
	authapi "artwork-catalog/internal/api/auth"
	marketplaceapi "artwork-catalog/internal/api/marketplace"
	usersapi "artwork-catalog/internal/api/users"
	"artwork-catalog/internal/app/http/middleware"
	"artwork-catalog/internal/domain/users"
	"artwork-catalog/internal/infra/blob"
	"artwork-catalog/internal/infra/llm/llmtest"
	"artwork-catalog/internal/infra/queue"
	"artwork-catalog/internal/infra/store"
	"artwork-catalog/internal/media"
	"artwork-catalog/internal/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const secret = "routes-test"

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.NewMemoryStore()
	blobs := blob.NewInlineStore()
	q := queue.NewMemoryQueue(1, 1, nil)
	t.Cleanup(func() { _ = q.Close() })
	p := pipeline.New(media.NewNormalizer(media.DefaultConfig()), blobs, st,
		analysis.NewAnalyzer(llmtest.New(), nil), q, pipeline.Config{}, nil)

	r := gin.New()
	RegisterRoutes(r, Handlers{
		Auth:        authapi.NewHandler(st, authapi.Options{Secret: secret}, nil),
		Users:       usersapi.NewHandler(st, st, nil),
		Artworks:    artworksapi.NewHandler(p, st, blobs, 0, nil),
		Marketplace: marketplaceapi.NewHandler(st, nil, nil),
		Admin:       adminapi.NewHandler(st, nil),
	}, secret)
	return r
}

func request(r *gin.Engine, method, path, role string) int {
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		token, _ := middleware.IssueToken(secret, 7, "x@example.com", role)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRoutes_Access(t *testing.T) {
	r := newEngine(t)

	tests := []struct {
		method, path, role string
		want               int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/gallery", "", http.StatusOK},
		{http.MethodGet, "/artworks", "", http.StatusUnauthorized},
		{http.MethodGet, "/artworks", users.RoleUser, http.StatusOK},
		{http.MethodGet, "/marketplace/listings", users.RoleUser, http.StatusOK},
		{http.MethodGet, "/admin/stats", users.RoleUser, http.StatusForbidden},
		{http.MethodGet, "/admin/stats", users.RoleAdmin, http.StatusOK},
		{http.MethodGet, "/me", users.RoleUser, http.StatusNotFound},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, request(r, tt.method, tt.path, tt.role), tt.method+" "+tt.path+" as "+tt.role)
	}
}
