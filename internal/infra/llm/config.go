// Package llm wraps the multimodal model used to describe artworks behind a
// small provider-neutral client.
package llm

// ModelTier selects a model by capability rather than by name.
type ModelTier string

const (
	// TierLite covers short text jobs such as price estimates.
	TierLite ModelTier = "lite"
	// TierStandard covers image analysis and description writing.
	TierStandard ModelTier = "standard"
	TierAdvanced ModelTier = "advanced"
)

type Config struct {
	Models      map[ModelTier]string
	Temperature float32
}

func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.3,
	}
}

// GetModel returns the model for tier, falling back to standard then lite.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of c with tier pointed at model.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := &Config{Models: make(map[ModelTier]string, len(c.Models)), Temperature: c.Temperature}
	for k, v := range c.Models {
		out.Models[k] = v
	}
	out.Models[tier] = model
	return out
}
