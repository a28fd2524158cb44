// Package artworks serves the artwork catalog: uploads, edits, search,
// AI helpers, image bytes and the public gallery.
package artworks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"artwork-catalog/internal/api/apierr"
	"artwork-catalog/internal/domain/artworks"
	"artwork-catalog/internal/infra/blob"
	"artwork-catalog/internal/infra/store"
	"artwork-catalog/internal/media"
	"artwork-catalog/internal/pipeline"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// base64 inflates by 4/3; the rest is room for JSON or multipart framing.
const bodyOverhead = 1 << 20

// Storefront takes a published listing off sale.
type Storefront interface {
	Withdraw(ctx context.Context, externalID string) error
}

type Handler struct {
	pipeline *pipeline.Pipeline
	records  store.Artworks
	blobs    blob.Store
	maxBytes int64
	log      *zap.Logger

	listings   store.Listings
	storefront Storefront
}

func NewHandler(p *pipeline.Pipeline, records store.Artworks, blobs blob.Store, maxBytes int64, log *zap.Logger) *Handler {
	if maxBytes <= 0 {
		maxBytes = media.DefaultMaxBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{pipeline: p, records: records, blobs: blobs, maxBytes: maxBytes, log: log}
}

// WithStorefront makes Delete withdraw the artwork's published listings
// before removing it. A nil storefront skips the withdrawal.
func (h *Handler) WithStorefront(listings store.Listings, s Storefront) *Handler {
	h.listings = listings
	h.storefront = s
	return h
}

func mustUserID(c *gin.Context) (uint, bool) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return userID, true
}

func (h *Handler) present(a *artworks.Artwork) *ArtworkDTO {
	return toArtworkDTO(a, "/artworks", h.pipeline.InProgress(a.ID))
}

func (h *Handler) presentAll(list []artworks.Artwork) []*ArtworkDTO {
	out := make([]*ArtworkDTO, 0, len(list))
	for i := range list {
		out = append(out, h.present(&list[i]))
	}
	return out
}

// POST /artworks/upload
func (h *Handler) Upload(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	upload, err := h.readUpload(c)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	a, err := h.pipeline.Ingest(c.Request.Context(), userID, upload)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, h.present(a))
}

// readUpload accepts a multipart "image" file or a JSON body with a base64 image.
func (h *Handler) readUpload(c *gin.Context) (media.Upload, error) {
	limit := h.maxBytes*4/3 + bodyOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("image")
		if err != nil {
			if tooLarge(err) {
				return media.Upload{}, &media.PayloadTooLargeError{Size: limit + 1, Limit: h.maxBytes}
			}
			return media.Upload{}, &media.InvalidInputError{Reason: "no image file provided"}
		}
		if fh.Size > h.maxBytes {
			return media.Upload{}, &media.PayloadTooLargeError{Size: fh.Size, Limit: h.maxBytes}
		}
		f, err := fh.Open()
		if err != nil {
			return media.Upload{}, &media.InvalidInputError{Reason: "unreadable image file", Err: err}
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return media.Upload{}, &media.InvalidInputError{Reason: "unreadable image file", Err: err}
		}
		return media.Upload{Data: data, ContentType: fh.Header.Get("Content-Type"), Size: fh.Size}, nil
	}

	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if tooLarge(err) {
			return media.Upload{}, &media.PayloadTooLargeError{Size: limit + 1, Limit: h.maxBytes}
		}
		return media.Upload{}, &media.InvalidInputError{Reason: "no image provided", Err: err}
	}
	return media.Upload{Base64: req.Image, ContentType: req.ContentType}, nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// GET /artworks?status=&visibility=
func (h *Handler) List(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	list, err := h.records.List(c.Request.Context(), store.ListFilter{
		OwnerID:    &userID,
		Status:     c.Query("status"),
		Visibility: c.Query("visibility"),
	})
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.presentAll(list))
}

// GET /artworks/recent?limit=6
func (h *Handler) Recent(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	limit := store.DefaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	list, err := h.records.Recent(c.Request.Context(), &userID, limit)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.presentAll(list))
}

// GET /artworks/search?q=
func (h *Handler) Search(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	}
	list, err := h.records.Search(c.Request.Context(), q, &userID)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.presentAll(list))
}

// GET /artworks/:id
func (h *Handler) Get(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	a, err := h.records.Get(c.Request.Context(), c.Param("id"), &userID)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.present(a))
}

// PATCH /artworks/:id
func (h *Handler) Update(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req UpdateArtworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Condition != nil && !artworks.ValidCondition(*req.Condition) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "condition must be one of Excellent, Good, Fair, Poor"})
		return
	}
	if req.Visibility != nil && !artworks.ValidVisibility(*req.Visibility) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "visibility must be public or private"})
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title cannot be empty"})
		return
	}

	a, err := h.records.Update(c.Request.Context(), c.Param("id"), &userID, store.ArtworkPatch{
		Title:            req.Title,
		Artist:           req.Artist,
		Medium:           req.Medium,
		Dimensions:       req.Dimensions,
		Year:             req.Year,
		Condition:        req.Condition,
		Description:      req.Description,
		Tags:             req.Tags,
		SuggestedPrice:   req.SuggestedPrice,
		Visibility:       req.Visibility,
		AdditionalImages: req.AdditionalImages,
	})
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.present(a))
}

// DELETE /artworks/:id
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	a, err := h.records.Get(ctx, id, &userID)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	if err := h.withdrawListings(ctx, id); err != nil {
		h.log.Error("listing not withdrawn, artwork kept", zap.String("artwork_id", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to withdraw marketplace listing"})
		return
	}
	if err := h.records.Delete(ctx, id, &userID); err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	for _, ref := range []string{a.ImageURL, a.ThumbnailURL} {
		if ref == "" {
			continue
		}
		if err := h.blobs.Delete(ctx, ref); err != nil && !errors.Is(err, blob.ErrNotFound) {
			h.log.Warn("blob not deleted", zap.String("artwork_id", id), zap.Error(err))
		}
	}
	c.Status(http.StatusNoContent)
}

// withdrawListings takes every published listing of the artwork off sale.
// The listing rows themselves go with the artwork.
func (h *Handler) withdrawListings(ctx context.Context, artworkID string) error {
	if h.listings == nil || h.storefront == nil {
		return nil
	}
	listed, err := h.listings.ListingsForArtwork(ctx, artworkID)
	if err != nil {
		return err
	}
	for _, l := range listed {
		if l.ExternalID == nil || *l.ExternalID == "" {
			continue
		}
		if err := h.storefront.Withdraw(ctx, *l.ExternalID); err != nil {
			return fmt.Errorf("withdraw listing %s: %w", l.ID, err)
		}
	}
	return nil
}

// POST /artworks/:id/analyze
func (h *Handler) Analyze(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	a, err := h.pipeline.Reanalyze(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusAccepted, AnalyzeResponse{Message: "Re-analysis started", Artwork: h.present(a)})
}

// POST /artworks/:id/description
func (h *Handler) GenerateDescription(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	a, err := h.pipeline.RegenerateDescription(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, DescriptionResponse{Description: a.Description, Artwork: h.present(a)})
}

// POST /artworks/:id/price
func (h *Handler) SuggestPrice(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	a, err := h.pipeline.SuggestPrice(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, PriceResponse{SuggestedPrice: a.SuggestedPrice, Artwork: h.present(a)})
}

// GET /artworks/:id/image
func (h *Handler) Image(c *gin.Context) { h.serveOwned(c, false) }

// GET /artworks/:id/thumbnail
func (h *Handler) Thumbnail(c *gin.Context) { h.serveOwned(c, true) }

func (h *Handler) serveOwned(c *gin.Context, thumb bool) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	a, err := h.records.Get(c.Request.Context(), c.Param("id"), &userID)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	h.serveBlob(c, a, thumb)
}

func (h *Handler) serveBlob(c *gin.Context, a *artworks.Artwork, thumb bool) {
	ref := a.ImageURL
	if thumb {
		ref = a.ThumbnailURL
	}
	data, contentType, err := h.blobs.Get(c.Request.Context(), ref)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) || errors.Is(err, blob.ErrInvalidRef) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
			return
		}
		apierr.Respond(c, h.log, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, contentType, data)
}
