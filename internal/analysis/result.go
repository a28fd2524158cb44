package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultTitle     = "Untitled Artwork"
	DefaultMedium    = "Mixed Media"
	DefaultCondition = "Good"
	DefaultPrice     = 500.0
	// MaxPrice is the largest model price accepted, in whole units. Anything
	// above it is treated as unusable and replaced by DefaultPrice.
	MaxPrice           = 10_000_000.0
	DefaultDescription = "A unique artwork with distinctive characteristics."
	DefaultConfidence  = 0.7

	FallbackDescription = "A captivating artwork that demonstrates exceptional artistic skill and creative vision."
)

// Result is the model's assessment of one artwork. SuggestedPrice is in
// whole currency units; use PriceCents before persisting.
type Result struct {
	Title          string   `json:"title"`
	Artist         *string  `json:"artist"`
	Medium         string   `json:"medium"`
	EstimatedYear  *string  `json:"estimatedYear"`
	Condition      string   `json:"condition"`
	Style          []string `json:"style"`
	Themes         []string `json:"themes"`
	Colors         []string `json:"colors"`
	SuggestedPrice float64  `json:"suggestedPrice"`
	Description    string   `json:"description"`
	Confidence     float64  `json:"confidence"`
}

// ToCents converts whole currency units to the smallest unit. It is the only
// place prices are scaled. Input is clamped to [0, MaxPrice].
func ToCents(units float64) int64 {
	if math.IsNaN(units) || units <= 0 {
		return 0
	}
	return int64(math.Round(math.Min(units, MaxPrice) * 100))
}

func usablePrice(p float64) bool {
	return p >= 0 && p <= MaxPrice
}

func (r *Result) PriceCents() int64 {
	return ToCents(r.SuggestedPrice)
}

// Tags is style, then themes, then colors, with exact duplicates dropped.
func (r *Result) Tags() []string {
	out := make([]string, 0, len(r.Style)+len(r.Themes)+len(r.Colors))
	seen := map[string]bool{}
	for _, group := range [][]string{r.Style, r.Themes, r.Colors} {
		for _, t := range group {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// ParseResult maps a model response onto Result. Missing or mistyped fields
// take their defaults; only text without a JSON object is an error.
func ParseResult(raw string) (*Result, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	r := &Result{
		Title:          stringOr(fields["title"], DefaultTitle),
		Artist:         optionalString(fields["artist"]),
		Medium:         stringOr(fields["medium"], DefaultMedium),
		EstimatedYear:  optionalString(fields["estimatedYear"]),
		Condition:      condition(fields["condition"]),
		Style:          stringList(fields["style"]),
		Themes:         stringList(fields["themes"]),
		Colors:         stringList(fields["colors"]),
		SuggestedPrice: DefaultPrice,
		Description:    stringOr(fields["description"], DefaultDescription),
		Confidence:     DefaultConfidence,
	}
	if p, ok := number(fields["suggestedPrice"]); ok && usablePrice(p) {
		r.SuggestedPrice = p
	}
	if c, ok := number(fields["confidence"]); ok {
		r.Confidence = math.Min(1, math.Max(0, c))
	}
	return r, nil
}

// parsePrice reads {"price": n}; ok is false when no usable price is present.
func parsePrice(raw string) (float64, bool) {
	fields, err := decodeObject(raw)
	if err != nil {
		return 0, false
	}
	for _, key := range []string{"price", "suggestedPrice"} {
		if p, ok := number(fields[key]); ok && usablePrice(p) {
			return p, true
		}
	}
	return 0, false
}

func decodeObject(raw string) (map[string]any, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, &Error{Kind: KindParse, Reason: "model response contained no JSON object"}
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &fields); err != nil {
		return nil, &Error{Kind: KindParse, Reason: "model response was not valid JSON", Err: err}
	}
	return fields, nil
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return def
}

func optionalString(v any) *string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" && !strings.EqualFold(s, "null") {
			return &s
		}
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return &s
	}
	return nil
}

func condition(v any) string {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	for _, c := range []string{"Excellent", "Good", "Fair", "Poor"} {
		if strings.EqualFold(s, c) {
			return c
		}
	}
	return DefaultCondition
}

func stringList(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// number accepts JSON numbers and numeric strings such as "$1,200".
func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case string:
		s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(t))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
