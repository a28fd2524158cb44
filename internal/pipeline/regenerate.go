package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"artwork-catalog/internal/analysis"
	"artwork-catalog/internal/domain/artworks"
	"artwork-catalog/internal/infra/store"
)

// RegenerateDescription writes fresh prose for an artwork and saves it.
func (p *Pipeline) RegenerateDescription(ctx context.Context, id string, ownerID uint) (*artworks.Artwork, error) {
	a, err := p.records.Get(ctx, id, &ownerID)
	if err != nil {
		return nil, err
	}
	style, themes, colors := facets(a)

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.AnalysisTimeout)
	defer cancel()
	desc, err := p.invoker.RegenerateDescription(callCtx, analysis.DescriptionInput{
		Title:  a.Title,
		Medium: a.Medium,
		Style:  style,
		Themes: themes,
		Colors: colors,
	})
	if err != nil {
		return nil, err
	}

	updated, err := p.records.Update(ctx, id, &ownerID, store.ArtworkPatch{Description: &desc})
	if err != nil {
		return nil, fmt.Errorf("save description: %w", err)
	}
	return updated, nil
}

// SuggestPrice asks for a fresh price estimate and saves it in cents.
func (p *Pipeline) SuggestPrice(ctx context.Context, id string, ownerID uint) (*artworks.Artwork, error) {
	a, err := p.records.Get(ctx, id, &ownerID)
	if err != nil {
		return nil, err
	}
	style, _, _ := facets(a)
	artist := ""
	if a.Artist != nil {
		artist = *a.Artist
	}

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.AnalysisTimeout)
	defer cancel()
	cents, err := p.invoker.SuggestPrice(callCtx, analysis.PriceInput{
		Medium:     a.Medium,
		Style:      style,
		Dimensions: a.Dimensions,
		Artist:     artist,
		Condition:  a.Condition,
	})
	if err != nil {
		return nil, err
	}

	updated, err := p.records.Update(ctx, id, &ownerID, store.ArtworkPatch{SuggestedPrice: &cents})
	if err != nil {
		return nil, fmt.Errorf("save price: %w", err)
	}
	return updated, nil
}

// facets recovers style, themes and colors from the stored analysis payload.
// Without one, all tags are treated as style.
func facets(a *artworks.Artwork) (style, themes, colors []string) {
	if len(a.AnalysisData) > 0 {
		var r analysis.Result
		if err := json.Unmarshal(a.AnalysisData, &r); err == nil {
			return r.Style, r.Themes, r.Colors
		}
	}
	return []string(a.Tags), nil, nil
}
