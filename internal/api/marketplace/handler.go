// Package marketplace records listings of analyzed artworks and publishes
// website listings through a storefront publisher.
package marketplace

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"artwork-catalog/internal/api/apierr"
	"artwork-catalog/internal/domain/artworks"
	"artwork-catalog/internal/domain/marketplace"
	"artwork-catalog/internal/infra/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher pushes website listings to a payment provider.
type Publisher interface {
	Publish(ctx context.Context, o marketplace.Offer) (*marketplace.Publication, error)
	Withdraw(ctx context.Context, externalID string) error
}

type Store interface {
	store.Artworks
	store.Listings
}

type Handler struct {
	store     Store
	publisher Publisher
	log       *zap.Logger
}

// NewHandler builds the handler; a nil publisher leaves website listings pending.
func NewHandler(s Store, publisher Publisher, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: s, publisher: publisher, log: log}
}

func mustUserID(c *gin.Context) (uint, bool) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return userID, true
}

// GET /marketplace/listings
func (h *Handler) List(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	list, err := h.store.ListListings(c.Request.Context(), userID)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /marketplace/listings
func (h *Handler) Create(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	platform, ok := marketplace.NormalizePlatform(strings.TrimSpace(req.Platform))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported platform"})
		return
	}

	ctx := c.Request.Context()
	art, err := h.store.Get(ctx, req.ArtworkID, &userID)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	if !art.AnalysisComplete {
		c.JSON(http.StatusConflict, gin.H{"error": "Artwork must finish analysis before it can be listed"})
		return
	}

	existing, err := h.store.ListingsForArtwork(ctx, art.ID)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	for _, l := range existing {
		if l.Platform == platform && l.Status != marketplace.StatusRemoved {
			c.JSON(http.StatusConflict, gin.H{"error": "Artwork is already listed on " + marketplace.PlatformName(platform)})
			return
		}
	}

	listing := buildListing(req, art, userID, platform)
	if listing.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A price is required"})
		return
	}

	if platform == marketplace.PlatformWebsite && h.publisher != nil {
		pub, err := h.publisher.Publish(ctx, marketplace.Offer{
			ListingID:   listing.ID,
			ArtworkID:   art.ID,
			Title:       listing.Title,
			Description: listing.Description,
			Price:       listing.Price,
			ImageURL:    art.ImageURL,
		})
		if err != nil {
			h.log.Error("publish listing failed", zap.String("artwork_id", art.ID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to publish listing"})
			return
		}
		listing.Status = pub.Status
		listing.ExternalID = &pub.ExternalID
		listing.ExternalURL = &pub.URL
	}

	if err := h.store.CreateListing(ctx, listing); err != nil {
		if listing.ExternalID != nil {
			if werr := h.publisher.Withdraw(context.WithoutCancel(ctx), *listing.ExternalID); werr != nil {
				h.log.Error("orphaned storefront listing",
					zap.String("artwork_id", art.ID),
					zap.String("external_id", *listing.ExternalID),
					zap.Error(werr))
			}
		}
		apierr.Respond(c, h.log, err)
		return
	}
	if err := h.store.SetMarketplace(ctx, art.ID, &userID, store.MarketplaceState{
		Listed:   true,
		Platform: &listing.Platform,
		Status:   &listing.Status,
	}); err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	h.log.Info("listing created",
		zap.String("listing_id", listing.ID),
		zap.String("artwork_id", art.ID),
		zap.String("platform", platform),
		zap.String("status", listing.Status))
	c.JSON(http.StatusCreated, listing)
}

func buildListing(req CreateListingRequest, art *artworks.Artwork, userID uint, platform string) *marketplace.Listing {
	l := &marketplace.Listing{
		ID:          uuid.NewString(),
		ArtworkID:   art.ID,
		UserID:      userID,
		Platform:    platform,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Price:       art.SuggestedPrice,
		Category:    req.Category,
		Tags:        req.Tags,
		Status:      marketplace.StatusPending,
	}
	if l.Title == "" {
		l.Title = art.Title
	}
	if l.Description == "" {
		l.Description = art.Description
	}
	if req.Price != nil {
		l.Price = *req.Price
	}
	if l.Tags == nil {
		l.Tags = append([]string(nil), art.Tags...)
	}
	return l
}

// DELETE /marketplace/listings/:id
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	listing, err := h.store.GetListing(ctx, c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		apierr.Respond(c, h.log, err)
		return
	}

	if listing.ExternalID != nil && h.publisher != nil {
		if err := h.publisher.Withdraw(ctx, *listing.ExternalID); err != nil {
			h.log.Warn("listing not withdrawn from storefront", zap.String("listing_id", listing.ID), zap.Error(err))
		}
	}
	if err := h.store.DeleteListing(ctx, listing.ID, userID); err != nil {
		apierr.Respond(c, h.log, err)
		return
	}

	remaining, err := h.store.ListingsForArtwork(ctx, listing.ArtworkID)
	if err != nil {
		apierr.Respond(c, h.log, err)
		return
	}
	state := store.MarketplaceState{}
	if len(remaining) > 0 {
		// newest remaining listing wins
		state = store.MarketplaceState{Listed: true, Platform: &remaining[0].Platform, Status: &remaining[0].Status}
	}
	if err := h.store.SetMarketplace(ctx, listing.ArtworkID, &userID, state); err != nil && !errors.Is(err, store.ErrNotFound) {
		apierr.Respond(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
