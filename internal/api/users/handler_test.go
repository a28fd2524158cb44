package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"artwork-catalog/internal/domain/artworks"
	"artwork-catalog/internal/domain/users"
	"artwork-catalog/internal/infra/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	st := store.NewMemoryStore()

	u := &users.User{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, st.CreateUser(ctx, u))

	done, err := st.CreatePlaceholder(ctx, u.ID, "img", "thumb")
	require.NoError(t, err)
	_, err = st.ApplyAnalysisResult(ctx, done.ID, nil, store.AnalysisUpdate{Title: "Done", SuggestedPrice: 25000})
	require.NoError(t, err)
	_, err = st.CreatePlaceholder(ctx, u.ID, "img2", "thumb2")
	require.NoError(t, err)

	h := NewHandler(st, st, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", u.ID); c.Next() })
	r.GET("/me", h.GetCurrentUser)
	r.PATCH("/me", h.UpdateCurrentUser)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var me MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "ada@example.com", me.User.Email)
	assert.False(t, me.User.HasPassword)
	assert.Equal(t, int64(2), me.Catalog.TotalArtworks)
	assert.Equal(t, int64(1), me.Catalog.Analyzed)
	assert.Equal(t, int64(1), me.Catalog.Analyzing)
	assert.Equal(t, int64(25000), me.Catalog.TotalValue)

	req := httptest.NewRequest(http.MethodPatch, "/me", bytes.NewBufferString(`{"lastname":"Lovelace"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", got.Lastname)
	assert.Equal(t, "Ada", got.Name)
}

func TestSummarize_IgnoresUnanalyzedValue(t *testing.T) {
	out := summarize([]artworks.Artwork{
		{AnalysisStatus: artworks.StatusFailed, SuggestedPrice: 999},
		{AnalysisStatus: artworks.StatusComplete, AnalysisComplete: true, SuggestedPrice: 100, MarketplaceListed: true, Visibility: artworks.VisibilityPublic},
	})
	assert.Equal(t, CatalogDTO{TotalArtworks: 2, Analyzed: 1, Failed: 1, Listed: 1, Public: 1, TotalValue: 100}, out)
}
