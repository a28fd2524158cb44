package marketplace

type CreateListingRequest struct {
	ArtworkID   string   `json:"artworkId" binding:"required"`
	Platform    string   `json:"platform" binding:"required"`
	Title       string   `json:"title" binding:"max=200"`
	Description string   `json:"description"`
	Price       *int64   `json:"price" binding:"omitempty,min=1"` // cents; defaults to the suggested price
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}
