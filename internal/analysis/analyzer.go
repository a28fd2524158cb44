// Package analysis asks the vision model to catalog an artwork and turns its
// answer into a Result with every field defaulted.
package analysis

import (
	"context"
	"strings"

	"artwork-catalog/internal/infra/llm"

	"go.uber.org/zap"
)

type Analyzer struct {
	client llm.Client
	log    *zap.Logger
}

func NewAnalyzer(client llm.Client, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{client: client, log: log}
}

// AnalyzeImage catalogs image. existingDescription, when set, is passed to
// the model as context.
func (a *Analyzer) AnalyzeImage(ctx context.Context, image []byte, mime, existingDescription string) (*Result, error) {
	raw, err := a.client.GenerateJSON(ctx, llm.Request{
		Tier:      llm.TierStandard,
		System:    appraiserSystem,
		Prompt:    analysisPrompt(existingDescription),
		Image:     image,
		ImageMIME: mime,
		MaxTokens: 1000,
	})
	if err != nil {
		return nil, wrap("vision call failed", err)
	}

	res, err := ParseResult(raw)
	if err != nil {
		a.log.Warn("unparseable analysis response", zap.Int("bytes", len(raw)), zap.Error(err))
		return nil, err
	}
	return res, nil
}

// RegenerateDescription writes new prose from existing metadata.
func (a *Analyzer) RegenerateDescription(ctx context.Context, in DescriptionInput) (string, error) {
	text, err := a.client.GenerateText(ctx, llm.Request{
		Tier:      llm.TierStandard,
		System:    writerSystem,
		Prompt:    descriptionPrompt(in),
		MaxTokens: 300,
	})
	if err != nil {
		return "", wrap("description call failed", err)
	}
	if text = strings.TrimSpace(text); text == "" {
		return FallbackDescription, nil
	}
	return text, nil
}

// SuggestPrice returns a price in cents. An answer without a usable price
// yields the default price rather than an error.
func (a *Analyzer) SuggestPrice(ctx context.Context, in PriceInput) (int64, error) {
	raw, err := a.client.GenerateJSON(ctx, llm.Request{
		Tier:      llm.TierLite,
		System:    marketSystem,
		Prompt:    pricePrompt(in),
		MaxTokens: 100,
	})
	if err != nil {
		return 0, wrap("price call failed", err)
	}
	price, ok := parsePrice(raw)
	if !ok {
		a.log.Warn("price response had no usable price, using default")
		price = DefaultPrice
	}
	return ToCents(price), nil
}
