package artworks

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"artwork-catalog/internal/analysis"
	"artwork-catalog/internal/domain/artworks"
	"artwork-catalog/internal/domain/marketplace"
	"artwork-catalog/internal/infra/blob"
	"artwork-catalog/internal/infra/llm/llmtest"
	"artwork-catalog/internal/infra/queue"
	"artwork-catalog/internal/infra/store"
	"artwork-catalog/internal/media"
	"artwork-catalog/internal/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const analysisJSON = `{"title":"Harbor at Dusk","medium":"Watercolor","condition":"Excellent",
"suggestedPrice":420,"style":["Realism"],"themes":["Harbor"],"colors":["Blue"],"confidence":0.9}`

type fakeStorefront struct {
	mu        sync.Mutex
	withdrawn []string
	err       error
}

func (f *fakeStorefront) Withdraw(_ context.Context, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.withdrawn = append(f.withdrawn, externalID)
	return nil
}

type testServer struct {
	router     *gin.Engine
	store      *store.MemoryStore
	fake       *llmtest.Fake
	p          *pipeline.Pipeline
	storefront *fakeStorefront
}

func newTestServer(t *testing.T, maxBytes int64, replies ...llmtest.Reply) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := llmtest.New(replies...)
	fake.Default = llmtest.Reply{Text: analysisJSON}
	st := store.NewMemoryStore()
	blobs := blob.NewInlineStore()
	q := queue.NewMemoryQueue(8, 1, nil)
	p := pipeline.New(
		media.NewNormalizer(media.Config{MaxBytes: maxBytes}),
		blobs, st, analysis.NewAnalyzer(fake, nil), q,
		pipeline.Config{RetryBackoff: []time.Duration{time.Millisecond}},
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	storefront := &fakeStorefront{}
	h := NewHandler(p, st, blobs, maxBytes, nil).WithStorefront(st, storefront)
	r := gin.New()
	r.GET("/gallery", h.GalleryList)
	r.GET("/gallery/:id", h.GalleryGet)

	authed := r.Group("/", func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id == "2" {
			c.Set("user_id", uint(2))
		} else {
			c.Set("user_id", uint(1))
		}
		c.Next()
	})
	authed.POST("/artworks/upload", h.Upload)
	authed.GET("/artworks", h.List)
	authed.GET("/artworks/recent", h.Recent)
	authed.GET("/artworks/search", h.Search)
	authed.GET("/artworks/:id", h.Get)
	authed.PATCH("/artworks/:id", h.Update)
	authed.DELETE("/artworks/:id", h.Delete)
	authed.POST("/artworks/:id/analyze", h.Analyze)
	authed.POST("/artworks/:id/price", h.SuggestPrice)
	authed.GET("/artworks/:id/thumbnail", h.Thumbnail)

	return &testServer{router: r, store: st, fake: fake, p: p, storefront: storefront}
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func (s *testServer) do(t *testing.T, method, path string, body any, user ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(user) > 0 {
		req.Header.Set("X-Test-User", user[0])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(t *testing.T) ArtworkDTO {
	t.Helper()
	data := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegBytes(t, 64, 48))
	w := s.do(t, http.MethodPost, "/artworks/upload", UploadRequest{Image: data})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out ArtworkDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *testServer) waitComplete(t *testing.T, id string) {
	t.Helper()
	require.Eventually(t, func() bool {
		a, err := s.store.Get(context.Background(), id, nil)
		return err == nil && a.AnalysisStatus == artworks.StatusComplete && !s.p.InProgress(id)
	}, 5*time.Second, 5*time.Millisecond)
}

func TestUpload_JSONReturnsPlaceholderThenCompletes(t *testing.T) {
	s := newTestServer(t, 0)

	a := s.upload(t)
	assert.Equal(t, artworks.TitleAnalyzing, a.Title)
	assert.False(t, a.AnalysisComplete)
	assert.Contains(t, a.ImageURL, "data:image/jpeg;base64,")
	assert.Contains(t, a.ThumbnailURL, "data:image/jpeg;base64,")

	s.waitComplete(t, a.ID)

	w := s.do(t, http.MethodGet, "/artworks/"+a.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got ArtworkDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Harbor at Dusk", got.Title)
	assert.Equal(t, int64(42000), got.SuggestedPrice)
	assert.Equal(t, []string{"Realism", "Harbor", "Blue"}, []string(got.Tags))
	assert.False(t, got.InProgress)
}

func TestUpload_Multipart(t *testing.T) {
	s := newTestServer(t, 0)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "art.jpg")
	require.NoError(t, err)
	_, err = part.Write(jpegBytes(t, 32, 32))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/artworks/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestUpload_Rejections(t *testing.T) {
	s := newTestServer(t, 2048)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing image", map[string]string{}, http.StatusBadRequest},
		{"not an image", UploadRequest{Image: base64.StdEncoding.EncodeToString([]byte("hello")), ContentType: "text/plain"}, http.StatusBadRequest},
		{"too large", UploadRequest{Image: base64.StdEncoding.EncodeToString(jpegBytes(t, 300, 300)), ContentType: "image/jpeg"}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/artworks/upload", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}

	list, err := s.store.List(context.Background(), store.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "rejected uploads must not create records")
}

func TestGet_OtherOwnerIsNotFound(t *testing.T) {
	s := newTestServer(t, 0)
	a := s.upload(t)

	w := s.do(t, http.MethodGet, "/artworks/"+a.ID, nil, "2")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearch(t *testing.T) {
	s := newTestServer(t, 0)
	a := s.upload(t)
	s.waitComplete(t, a.ID)

	w := s.do(t, http.MethodGet, "/artworks/search?q=", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/artworks/search?q=harbor", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out []ArtworkDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, a.ID, out[0].ID)

	w = s.do(t, http.MethodGet, "/artworks/search?q=harbor", nil, "2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestUpdate(t *testing.T) {
	s := newTestServer(t, 0)
	a := s.upload(t)
	s.waitComplete(t, a.ID)

	w := s.do(t, http.MethodPatch, "/artworks/"+a.ID, map[string]any{"condition": "Mint"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, "/artworks/"+a.ID, map[string]any{"visibility": "everyone"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, "/artworks/"+a.ID, map[string]any{
		"title":          "Harbor, Evening",
		"suggestedPrice": 55000,
		"tags":           []string{"Seascape"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got ArtworkDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Harbor, Evening", got.Title)
	assert.Equal(t, int64(55000), got.SuggestedPrice)
	assert.Equal(t, []string{"Seascape"}, []string(got.Tags))
	assert.Equal(t, "Watercolor", got.Medium)
}

func TestAnalyze(t *testing.T) {
	release := make(chan struct{})
	s := newTestServer(t, 0, llmtest.Reply{Text: analysisJSON, Wait: release})
	a := s.upload(t)

	w := s.do(t, http.MethodPost, "/artworks/"+a.ID+"/analyze", nil)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	close(release)
	s.waitComplete(t, a.ID)

	w = s.do(t, http.MethodPost, "/artworks/"+a.ID+"/analyze", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Re-analysis started", resp.Message)
	assert.Equal(t, artworks.TitleReanalyzing, resp.Artwork.Title)

	s.waitComplete(t, a.ID)

	w = s.do(t, http.MethodPost, "/artworks/missing/analyze", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSuggestPrice(t *testing.T) {
	s := newTestServer(t, 0)
	a := s.upload(t)
	s.waitComplete(t, a.ID)
	s.fake.Push(llmtest.Reply{Text: `{"price": 1250.5}`})

	w := s.do(t, http.MethodPost, "/artworks/"+a.ID+"/price", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp PriceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(125050), resp.SuggestedPrice)
}

func TestThumbnail(t *testing.T) {
	s := newTestServer(t, 0)
	a := s.upload(t)

	w := s.do(t, http.MethodGet, "/artworks/"+a.ID+"/thumbnail", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, media.DefaultThumbnailSize, cfg.Width)
	assert.Equal(t, media.DefaultThumbnailSize, cfg.Height)
}

func TestGallery_OnlyPublicAnalyzed(t *testing.T) {
	s := newTestServer(t, 0)
	a := s.upload(t)
	s.waitComplete(t, a.ID)

	w := s.do(t, http.MethodGet, "/gallery/"+a.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPatch, "/artworks/"+a.ID, map[string]any{"visibility": "public"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/gallery", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out []ArtworkDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Nil(t, out[0].UserID)

	w = s.do(t, http.MethodGet, "/gallery/"+a.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDelete(t *testing.T) {
	s := newTestServer(t, 0)
	a := s.upload(t)
	s.waitComplete(t, a.ID)

	w := s.do(t, http.MethodDelete, "/artworks/"+a.ID, nil, "2")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/artworks/"+a.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/artworks/"+a.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (s *testServer) list(t *testing.T, artworkID string, platform string, externalID *string) *marketplace.Listing {
	t.Helper()
	l := &marketplace.Listing{
		ArtworkID:  artworkID,
		UserID:     1,
		Platform:   platform,
		Title:      "Harbor at Dusk",
		Price:      42000,
		Status:     marketplace.StatusActive,
		ExternalID: externalID,
	}
	require.NoError(t, s.store.CreateListing(context.Background(), l))
	return l
}

func TestDelete_WithdrawsPublishedListings(t *testing.T) {
	s := newTestServer(t, 0)
	a := s.upload(t)
	s.waitComplete(t, a.ID)
	link := "plink_123"
	s.list(t, a.ID, marketplace.PlatformWebsite, &link)
	s.list(t, a.ID, marketplace.PlatformEtsy, nil)

	w := s.do(t, http.MethodDelete, "/artworks/"+a.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, []string{"plink_123"}, s.storefront.withdrawn)
	left, err := s.store.ListingsForArtwork(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestDelete_KeepsArtworkWhenWithdrawFails(t *testing.T) {
	s := newTestServer(t, 0)
	a := s.upload(t)
	s.waitComplete(t, a.ID)
	link := "plink_456"
	s.list(t, a.ID, marketplace.PlatformWebsite, &link)
	s.storefront.err = errors.New("stripe unavailable")

	w := s.do(t, http.MethodDelete, "/artworks/"+a.ID, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = s.do(t, http.MethodGet, "/artworks/"+a.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	left, err := s.store.ListingsForArtwork(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}
