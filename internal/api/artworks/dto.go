package artworks

// ---------- requests

// UploadRequest is the JSON form of an upload; Image is base64 or a data URL.
type UploadRequest struct {
	Image       string `json:"image" binding:"required"`
	ContentType string `json:"contentType"`
}

// UpdateArtworkRequest is a direct edit. Absent fields are left as they are;
// an empty artist or year clears it.
type UpdateArtworkRequest struct {
	Title            *string   `json:"title"`
	Artist           *string   `json:"artist"`
	Medium           *string   `json:"medium"`
	Dimensions       *string   `json:"dimensions"`
	Year             *string   `json:"year"`
	Condition        *string   `json:"condition"`
	Description      *string   `json:"description"`
	Tags             *[]string `json:"tags"`
	SuggestedPrice   *int64    `json:"suggestedPrice" binding:"omitempty,min=0"` // cents
	Visibility       *string   `json:"visibility"`
	AdditionalImages *[]string `json:"additionalImages"`
}

// ---------- responses

type AnalyzeResponse struct {
	Message string      `json:"message"`
	Artwork *ArtworkDTO `json:"artwork"`
}

type DescriptionResponse struct {
	Description string      `json:"description"`
	Artwork     *ArtworkDTO `json:"artwork"`
}

type PriceResponse struct {
	SuggestedPrice int64       `json:"suggestedPrice"` // cents
	Artwork        *ArtworkDTO `json:"artwork"`
}
