package artworks

import (
	"strings"

	"artwork-catalog/internal/domain/artworks"
)

// ArtworkDTO is an artwork as clients see it. Image fields are always
// loadable URLs: data URLs pass through, stored objects are served by the API.
type ArtworkDTO struct {
	*artworks.Artwork
	InProgress bool `json:"inProgress"`
}

// toArtworkDTO rewrites non-inline blob references to routes under prefix
// ("/artworks" or "/gallery").
func toArtworkDTO(a *artworks.Artwork, prefix string, inProgress bool) *ArtworkDTO {
	if a == nil {
		return nil
	}
	cp := a.Clone()
	if cp.ImageURL != "" && !isInline(cp.ImageURL) {
		cp.ImageURL = prefix + "/" + cp.ID + "/image"
	}
	if cp.ThumbnailURL != "" && !isInline(cp.ThumbnailURL) {
		cp.ThumbnailURL = prefix + "/" + cp.ID + "/thumbnail"
	}
	return &ArtworkDTO{Artwork: cp, InProgress: inProgress}
}

func isInline(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}
