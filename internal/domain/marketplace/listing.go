package marketplace

import (
	"time"

	"github.com/lib/pq"
)

// Platforms a listing can target. Only PlatformWebsite is published automatically.
const (
	PlatformEtsy    = "etsy"
	PlatformSaatchi = "saatchi"
	PlatformEbay    = "ebay"
	PlatformWebsite = "website"
)

const (
	StatusActive  = "active"
	StatusPending = "pending"
	StatusRemoved = "removed"
)

var platformNames = map[string]string{
	PlatformEtsy:    "Etsy",
	PlatformSaatchi: "Saatchi Art",
	PlatformEbay:    "eBay",
	PlatformWebsite: "Your Website",
}

type Listing struct {
	ID        string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ArtworkID string `gorm:"type:uuid;not null;index" json:"artworkId"`
	UserID    uint   `gorm:"not null;index" json:"userId"`

	Platform    string         `gorm:"type:text;not null" json:"platform"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Price       int64          `gorm:"not null" json:"price"` // cents
	Category    string         `json:"category"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`
	Status      string         `gorm:"type:text;not null;default:'pending'" json:"status"`

	ExternalID  *string `json:"externalId,omitempty"`
	ExternalURL *string `json:"externalUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizePlatform maps an id or display name ("Saatchi Art") to a platform id.
func NormalizePlatform(p string) (string, bool) {
	for id, name := range platformNames {
		if p == id || p == name {
			return id, true
		}
	}
	return "", false
}

// PlatformName returns the display name for a platform id.
func PlatformName(id string) string {
	if name, ok := platformNames[id]; ok {
		return name
	}
	return id
}

// Offer is what gets published to an automated storefront.
type Offer struct {
	ListingID   string
	ArtworkID   string
	Title       string
	Description string
	Price       int64 // cents
	Currency    string
	ImageURL    string
}

// Publication identifies a published offer on the storefront.
type Publication struct {
	ExternalID string
	URL        string
	Status     string
}
