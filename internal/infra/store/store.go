// Package store persists artworks, users and marketplace listings.
//
// Every artwork lookup takes an optional owner. A nil owner is the system
// scope used by analysis workers; a non-nil owner restricts the query to that
// user's records and reports foreign records as ErrNotFound.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"artwork-catalog/internal/domain/artworks"
	"artwork-catalog/internal/domain/marketplace"
	"artwork-catalog/internal/domain/users"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
	// ErrAnalysisInProgress is returned by BeginAnalysis while another
	// analysis of the same artwork holds the record.
	ErrAnalysisInProgress = errors.New("analysis already in progress for this artwork")
)

// AnalysisUpdate is the descriptive payload written when analysis succeeds.
type AnalysisUpdate struct {
	Title          string
	Artist         *string
	Medium         string
	Year           *string
	Condition      string
	Description    string
	Tags           []string
	SuggestedPrice int64
	Payload        []byte
}

// AnalysisFailure is written when analysis fails; Kind is the error class.
type AnalysisFailure struct {
	Title       string
	Description string
	Kind        string
}

// ArtworkPatch is a direct user edit. Nil fields are left untouched.
type ArtworkPatch struct {
	Title            *string
	Artist           *string
	Medium           *string
	Dimensions       *string
	Year             *string
	Condition        *string
	Description      *string
	Tags             *[]string
	SuggestedPrice   *int64
	Visibility       *string
	AdditionalImages *[]string
}

// MarketplaceState mirrors an artwork's listings onto the record.
type MarketplaceState struct {
	Listed   bool
	Platform *string
	Status   *string
}

type ListFilter struct {
	OwnerID      *uint
	Status       string
	Visibility   string
	AnalyzedOnly bool
	Limit        int
	Offset       int
}

type Stats struct {
	UserStats     UserStats       `json:"userStats"`
	ArtworkStats  ArtworkStats    `json:"artworkStats"`
	UserAnalytics []UserAnalytics `json:"userAnalytics"`
}

type UserStats struct {
	TotalUsers    int64 `json:"totalUsers"`
	ActiveUsers   int64 `json:"activeUsers"`
	NewUsersToday int64 `json:"newUsersToday"`
}

type ArtworkStats struct {
	TotalArtworks int64 `json:"totalArtworks"`
	ArtworksToday int64 `json:"artworksToday"`
	// cents, over analyzed artworks
	AvgPrice int64 `json:"avgPrice"`
}

type UserAnalytics struct {
	UserID       uint   `json:"userId"`
	UserName     string `json:"userName"`
	Email        string `json:"email"`
	ArtworkCount int64  `json:"artworkCount"`
	TotalValue   int64  `json:"totalValue"`
}

type Artworks interface {
	CreatePlaceholder(ctx context.Context, ownerID uint, imageRef, thumbRef string) (*artworks.Artwork, error)
	// BeginAnalysis shows title as a placeholder, clears the description and
	// marks the record analyzing. It is a compare-and-set: a record already
	// analyzing and touched at or after staleBefore is left alone and
	// ErrAnalysisInProgress is returned.
	BeginAnalysis(ctx context.Context, id string, owner *uint, title string, staleBefore time.Time) (*artworks.Artwork, error)
	ApplyAnalysisResult(ctx context.Context, id string, owner *uint, u AnalysisUpdate) (*artworks.Artwork, error)
	ApplyAnalysisFailure(ctx context.Context, id string, owner *uint, f AnalysisFailure) error

	Get(ctx context.Context, id string, owner *uint) (*artworks.Artwork, error)
	List(ctx context.Context, f ListFilter) ([]artworks.Artwork, error)
	Recent(ctx context.Context, owner *uint, limit int) ([]artworks.Artwork, error)
	Search(ctx context.Context, query string, owner *uint) ([]artworks.Artwork, error)
	Update(ctx context.Context, id string, owner *uint, p ArtworkPatch) (*artworks.Artwork, error)
	SetMarketplace(ctx context.Context, id string, owner *uint, m MarketplaceState) error
	Delete(ctx context.Context, id string, owner *uint) error
}

type Users interface {
	CreateUser(ctx context.Context, u *users.User) error
	UserByID(ctx context.Context, id uint) (*users.User, error)
	UserByEmail(ctx context.Context, email string) (*users.User, error)
	UserByGoogleSub(ctx context.Context, sub string) (*users.User, error)
	SaveUser(ctx context.Context, u *users.User) error
	ListUsers(ctx context.Context) ([]users.User, error)
}

type Listings interface {
	CreateListing(ctx context.Context, l *marketplace.Listing) error
	ListListings(ctx context.Context, ownerID uint) ([]marketplace.Listing, error)
	GetListing(ctx context.Context, id string, ownerID uint) (*marketplace.Listing, error)
	DeleteListing(ctx context.Context, id string, ownerID uint) error
	ListingsForArtwork(ctx context.Context, artworkID string) ([]marketplace.Listing, error)
}

type Reports interface {
	// Stats counts "today" from dayStart and active users from activeSince.
	Stats(ctx context.Context, dayStart, activeSince time.Time) (*Stats, error)
}

// Store is everything the server persists.
type Store interface {
	Artworks
	Users
	Listings
	Reports
}

const DefaultRecentLimit = 6

// apply copies the set fields of p onto a.
func (p ArtworkPatch) apply(a *artworks.Artwork) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Artist != nil {
		a.Artist = emptyToNil(*p.Artist)
	}
	if p.Medium != nil {
		a.Medium = *p.Medium
	}
	if p.Dimensions != nil {
		a.Dimensions = *p.Dimensions
	}
	if p.Year != nil {
		a.Year = emptyToNil(*p.Year)
	}
	if p.Condition != nil {
		a.Condition = *p.Condition
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Tags != nil {
		a.Tags = nonNil(*p.Tags)
	}
	if p.SuggestedPrice != nil {
		a.SuggestedPrice = *p.SuggestedPrice
	}
	if p.Visibility != nil {
		a.Visibility = *p.Visibility
	}
	if p.AdditionalImages != nil {
		a.AdditionalImages = nonNil(*p.AdditionalImages)
	}
}

// columns is the gorm update map for p.
func (p ArtworkPatch) columns() map[string]any {
	var a artworks.Artwork
	p.apply(&a)
	cols := map[string]any{}
	if p.Title != nil {
		cols["title"] = a.Title
	}
	if p.Artist != nil {
		cols["artist"] = a.Artist
	}
	if p.Medium != nil {
		cols["medium"] = a.Medium
	}
	if p.Dimensions != nil {
		cols["dimensions"] = a.Dimensions
	}
	if p.Year != nil {
		cols["year"] = a.Year
	}
	if p.Condition != nil {
		cols["condition"] = a.Condition
	}
	if p.Description != nil {
		cols["description"] = a.Description
	}
	if p.Tags != nil {
		cols["tags"] = a.Tags
	}
	if p.SuggestedPrice != nil {
		cols["suggested_price"] = a.SuggestedPrice
	}
	if p.Visibility != nil {
		cols["visibility"] = a.Visibility
	}
	if p.AdditionalImages != nil {
		cols["additional_images"] = a.AdditionalImages
	}
	return cols
}

func emptyToNil(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func placeholder(ownerID uint, imageRef, thumbRef string) *artworks.Artwork {
	owner := ownerID
	return &artworks.Artwork{
		UserID:           &owner,
		Title:            artworks.TitleAnalyzing,
		Tags:             []string{},
		AdditionalImages: []string{},
		ImageURL:         imageRef,
		ThumbnailURL:     thumbRef,
		AnalysisStatus:   artworks.StatusPending,
		Visibility:       artworks.VisibilityPrivate,
	}
}

// clampRecent bounds the recent-artworks limit.
func clampRecent(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > 100 {
		return 100
	}
	return limit
}
