package artworks

import (
	"net/http"

	"artwork-catalog/internal/api/apierr"
	"artwork-catalog/internal/domain/artworks"
	"artwork-catalog/internal/infra/store"

	"github.com/gin-gonic/gin"
)

// Gallery routes are public and only ever show analyzed, public artworks.

func visibleInGallery(a *artworks.Artwork) bool {
	return a.Visibility == artworks.VisibilityPublic && a.AnalysisStatus == artworks.StatusComplete
}

func toGalleryDTO(a *artworks.Artwork) *ArtworkDTO {
	dto := toArtworkDTO(a, "/gallery", false)
	dto.UserID = nil
	dto.AnalysisData = nil
	return dto
}

// GET /gallery
func (h *Handler) GalleryList(c *gin.Context) {
	list, err := h.records.List(c.Request.Context(), store.ListFilter{
		Status:       artworks.StatusComplete,
		Visibility:   artworks.VisibilityPublic,
		AnalyzedOnly: true,
	})
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	out := make([]*ArtworkDTO, 0, len(list))
	for i := range list {
		out = append(out, toGalleryDTO(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) galleryArtwork(c *gin.Context) (*artworks.Artwork, bool) {
	a, err := h.records.Get(c.Request.Context(), c.Param("id"), nil)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return nil, false
	}
	if !visibleInGallery(a) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Artwork not found"})
		return nil, false
	}
	return a, true
}

// GET /gallery/:id
func (h *Handler) GalleryGet(c *gin.Context) {
	if a, ok := h.galleryArtwork(c); ok {
		c.JSON(http.StatusOK, toGalleryDTO(a))
	}
}

// GET /gallery/:id/image
func (h *Handler) GalleryImage(c *gin.Context) {
	if a, ok := h.galleryArtwork(c); ok {
		h.serveBlob(c, a, false)
	}
}

// GET /gallery/:id/thumbnail
func (h *Handler) GalleryThumbnail(c *gin.Context) {
	if a, ok := h.galleryArtwork(c); ok {
		h.serveBlob(c, a, true)
	}
}
