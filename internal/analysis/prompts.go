package analysis

import (
	"fmt"
	"strings"

	"artwork-catalog/internal/infra/llm"
)

const appraiserSystem = "You are an expert art appraiser and cataloger. Analyze the artwork image and " +
	"provide detailed information in JSON format. Be professional and accurate in your assessment."

const writerSystem = "You are an expert art writer creating compelling descriptions for artwork listings. " +
	"Write engaging, professional descriptions that would appeal to collectors and art enthusiasts."

const marketSystem = "You are an art market expert. Provide realistic price estimates for artworks based " +
	"on current market conditions. Respond with JSON containing a price in USD."

func artworkSchema() llm.Schema {
	return llm.Schema{
		Name:        "ArtworkAnalysis",
		Description: "Analyze this artwork image and catalog it.",
		Fields: []llm.SchemaField{
			{Name: "title", Description: "a descriptive title for the artwork", Required: true},
			{Name: "artist", Type: `"string" | null`, Description: "artist name if recognizable, otherwise null"},
			{Name: "medium", Description: `artistic medium, e.g. "Oil on Canvas", "Acrylic", "Watercolor"`, Required: true},
			{Name: "estimatedYear", Type: `"string" | null`, Description: "estimated year or decade if determinable"},
			{Name: "condition", Type: `"Excellent" | "Good" | "Fair" | "Poor"`, Required: true},
			{Name: "style", Type: `["string"]`, Description: "art styles or movements"},
			{Name: "themes", Type: `["string"]`, Description: "themes or subjects depicted"},
			{Name: "colors", Type: `["string"]`, Description: "dominant colors"},
			{Name: "suggestedPrice", Type: "number", Description: "estimated market value in USD", Required: true},
			{Name: "description", Description: "professional description, 2-3 sentences", Required: true},
			{Name: "confidence", Type: "number", Description: "confidence in this analysis, 0 to 1"},
		},
	}
}

func analysisPrompt(existingDescription string) string {
	var instructions string
	if d := strings.TrimSpace(existingDescription); d != "" {
		instructions = "The owner previously described the work as follows; use it as context but judge the image yourself:\n\"\"\"\n" + d + "\n\"\"\""
	}
	return llm.BuildPrompt(artworkSchema(), instructions)
}

// DescriptionInput is the metadata used to write fresh listing prose.
type DescriptionInput struct {
	Title  string
	Medium string
	Style  []string
	Themes []string
	Colors []string
}

func descriptionPrompt(in DescriptionInput) string {
	return fmt.Sprintf(`Create a compelling artwork description for:
Title: %s
Medium: %s
Style: %s
Themes: %s
Colors: %s

Write 2-3 sentences that would be compelling for potential buyers.`,
		in.Title,
		orDefault(in.Medium, DefaultMedium),
		joinOr(in.Style, "Contemporary"),
		joinOr(in.Themes, "Abstract"),
		joinOr(in.Colors, "Various"),
	)
}

// PriceInput is the metadata used for a standalone price estimate.
type PriceInput struct {
	Medium     string
	Style      []string
	Dimensions string
	Artist     string
	Condition  string
}

func pricePrompt(in PriceInput) string {
	return fmt.Sprintf(`Estimate the market value for an artwork with these characteristics:
Medium: %s
Style: %s
Dimensions: %s
Artist: %s
Condition: %s

Provide a realistic market price estimate in JSON format: {"price": number}`,
		orDefault(in.Medium, DefaultMedium),
		joinOr(in.Style, "Contemporary"),
		orDefault(in.Dimensions, "Medium size"),
		orDefault(in.Artist, "Emerging/Unknown"),
		orDefault(in.Condition, DefaultCondition),
	)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func joinOr(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, ", ")
}
