package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"artwork-catalog/internal/app/http/middleware"
	"artwork-catalog/internal/domain/users"
	"artwork-catalog/internal/infra/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "admin-test"

func setup(t *testing.T) (*gin.Engine, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.NewMemoryStore()
	h := NewHandler(st, nil)

	r := gin.New()
	g := r.Group("/admin", middleware.AuthMiddleware(secret), middleware.RequireRole(users.RoleAdmin))
	g.GET("/stats", h.GetAdminStats)
	g.GET("/users", h.ListAllUsers)
	return r, st
}

func get(r *gin.Engine, path, role string) *httptest.ResponseRecorder {
	token, _ := middleware.IssueToken(secret, 1, "a@example.com", role)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	r, _ := setup(t)
	assert.Equal(t, http.StatusForbidden, get(r, "/admin/stats", users.RoleUser).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/admin/users", users.RoleUser).Code)
}

func TestGetAdminStats(t *testing.T) {
	r, st := setup(t)
	ctx := context.Background()

	recent := time.Now()
	ada := &users.User{Name: "Ada", Email: "ada@example.com", LastLoginAt: &recent}
	require.NoError(t, st.CreateUser(ctx, ada))
	bob := &users.User{Name: "Bob", Email: "bob@example.com"}
	require.NoError(t, st.CreateUser(ctx, bob))

	for _, price := range []int64{10000, 30000} {
		a, err := st.CreatePlaceholder(ctx, ada.ID, "img", "thumb")
		require.NoError(t, err)
		_, err = st.ApplyAnalysisResult(ctx, a.ID, nil, store.AnalysisUpdate{Title: "t", SuggestedPrice: price})
		require.NoError(t, err)
	}
	_, err := st.CreatePlaceholder(ctx, bob.ID, "img", "thumb")
	require.NoError(t, err)

	w := get(r, "/admin/stats", users.RoleAdmin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stats store.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.UserStats.TotalUsers)
	assert.Equal(t, int64(1), stats.UserStats.ActiveUsers)
	assert.Equal(t, int64(2), stats.UserStats.NewUsersToday)
	assert.Equal(t, int64(3), stats.ArtworkStats.TotalArtworks)
	assert.Equal(t, int64(3), stats.ArtworkStats.ArtworksToday)
	assert.Equal(t, int64(20000), stats.ArtworkStats.AvgPrice)
	require.NotEmpty(t, stats.UserAnalytics)
	assert.Equal(t, ada.ID, stats.UserAnalytics[0].UserID)
	assert.Equal(t, int64(40000), stats.UserAnalytics[0].TotalValue)
}

func TestListAllUsers(t *testing.T) {
	r, st := setup(t)
	require.NoError(t, st.CreateUser(context.Background(), &users.User{Name: "Ada", Email: "ada@example.com"}))

	w := get(r, "/admin/users", users.RoleAdmin)
	require.Equal(t, http.StatusOK, w.Code)
	var out []AdminUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "ada@example.com", out[0].Email)
	assert.Equal(t, users.RoleUser, out[0].Role)
}
