package artworks

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type Artwork struct {
	ID     string `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID *uint  `gorm:"index" json:"userId,omitempty"`

	Title       string  `gorm:"not null" json:"title"`
	Artist      *string `json:"artist"`
	Medium      string  `json:"medium"`
	Dimensions  string  `json:"dimensions"`
	Year        *string `json:"year"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`

	// style labels first, then themes, then colors
	Tags pq.StringArray `gorm:"type:text[]" json:"tags"`

	ImageURL         string         `gorm:"not null" json:"imageUrl"`
	ThumbnailURL     string         `json:"thumbnailUrl"`
	AdditionalImages pq.StringArray `gorm:"type:text[]" json:"additionalImages"`

	// cents
	SuggestedPrice    int64   `gorm:"not null;default:0" json:"suggestedPrice"`
	MarketplaceListed bool    `gorm:"not null;default:false" json:"marketplaceListed"`
	ListingPlatform   *string `json:"listingPlatform"`
	ListingStatus     *string `json:"listingStatus"`

	AnalysisComplete bool           `gorm:"column:ai_analysis_complete;not null;default:false" json:"aiAnalysisComplete"`
	AnalysisStatus   string         `gorm:"type:text;not null;default:'pending';index" json:"analysisStatus"`
	AnalysisError    *string        `json:"analysisError,omitempty"`
	AnalysisData     datatypes.JSON `gorm:"type:jsonb" json:"analysisData,omitempty"`

	Visibility string `gorm:"type:text;not null;default:'private';index" json:"visibility"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy so callers can hand records out without sharing slices.
func (a *Artwork) Clone() *Artwork {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Tags = cloneStrings(a.Tags)
	cp.AdditionalImages = cloneStrings(a.AdditionalImages)
	if a.AnalysisData != nil {
		cp.AnalysisData = append(datatypes.JSON(nil), a.AnalysisData...)
	}
	cp.UserID = clonePtr(a.UserID)
	cp.Artist = clonePtr(a.Artist)
	cp.Year = clonePtr(a.Year)
	cp.ListingPlatform = clonePtr(a.ListingPlatform)
	cp.ListingStatus = clonePtr(a.ListingStatus)
	cp.AnalysisError = clonePtr(a.AnalysisError)
	return &cp
}

// OwnedBy reports whether the artwork belongs to userID.
func (a *Artwork) OwnedBy(userID uint) bool {
	return a.UserID != nil && *a.UserID == userID
}

func cloneStrings(s pq.StringArray) pq.StringArray {
	if s == nil {
		return nil
	}
	out := make(pq.StringArray, len(s))
	copy(out, s)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
