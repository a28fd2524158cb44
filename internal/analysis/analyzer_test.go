package analysis

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"

	"artwork-catalog/internal/infra/llm"
	"artwork-catalog/internal/infra/llm/llmtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestParseResult_FullResponse(t *testing.T) {
	r, err := ParseResult(`{"title":"Sunset Study","artist":"J. Doe","medium":"Oil on Canvas",
		"estimatedYear":1998,"condition":"excellent","style":["Impressionism"],"themes":["Landscape"],
		"colors":["Orange","Blue"],"suggestedPrice":300,"description":"Warm dusk.","confidence":0.82}`)
	require.NoError(t, err)

	assert.Equal(t, "Sunset Study", r.Title)
	require.NotNil(t, r.Artist)
	assert.Equal(t, "J. Doe", *r.Artist)
	require.NotNil(t, r.EstimatedYear)
	assert.Equal(t, "1998", *r.EstimatedYear)
	assert.Equal(t, "Excellent", r.Condition)
	assert.Equal(t, []string{"Impressionism", "Landscape", "Orange", "Blue"}, r.Tags())
	assert.Equal(t, int64(30000), r.PriceCents())
	assert.InDelta(t, 0.82, r.Confidence, 1e-9)
}

func TestParseResult_Defaults(t *testing.T) {
	r, err := ParseResult(`{"title":"Only a title"}`)
	require.NoError(t, err)

	assert.Equal(t, "Only a title", r.Title)
	assert.Nil(t, r.Artist)
	assert.Nil(t, r.EstimatedYear)
	assert.Equal(t, DefaultMedium, r.Medium)
	assert.Equal(t, DefaultCondition, r.Condition)
	assert.Equal(t, []string{}, r.Style)
	assert.Equal(t, []string{}, r.Themes)
	assert.Equal(t, []string{}, r.Colors)
	assert.Equal(t, DefaultPrice, r.SuggestedPrice)
	assert.Equal(t, DefaultDescription, r.Description)
	assert.Equal(t, DefaultConfidence, r.Confidence)
	assert.Empty(t, r.Tags())
}

func TestParseResult_MistypedFields(t *testing.T) {
	r, err := ParseResult(`{"title":"  ","artist":null,"style":"Cubism","suggestedPrice":"$1,250.50",
		"confidence":4,"condition":"Mint","colors":["Red",7,""]}`)
	require.NoError(t, err)

	assert.Equal(t, DefaultTitle, r.Title)
	assert.Nil(t, r.Artist)
	assert.Empty(t, r.Style)
	assert.Equal(t, 1250.50, r.SuggestedPrice)
	assert.Equal(t, int64(125050), r.PriceCents())
	assert.Equal(t, 1.0, r.Confidence)
	assert.Equal(t, DefaultCondition, r.Condition)
	assert.Equal(t, []string{"Red"}, r.Colors)
}

func TestParseResult_NoJSON(t *testing.T) {
	_, err := ParseResult("I can't analyze this image.")
	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, KindParse, ae.Kind)
	assert.False(t, ae.Retryable())

	_, err = ParseResult(`{"title": }`)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, KindParse, ae.Kind)
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(15000), ToCents(150))
	assert.Equal(t, int64(1999), ToCents(19.99))
	assert.Equal(t, int64(0), ToCents(0))
	assert.Equal(t, int64(0), ToCents(-5))
	assert.Equal(t, int64(MaxPrice*100), ToCents(1e20))
	assert.Equal(t, int64(0), ToCents(math.NaN()))
}

func TestParseResult_OutOfRangePrice(t *testing.T) {
	for _, raw := range []string{
		`{"suggestedPrice": 1e20}`,
		`{"suggestedPrice": "1e300"}`,
		`{"suggestedPrice": -40}`,
	} {
		r, err := ParseResult(raw)
		require.NoError(t, err)
		assert.Equal(t, DefaultPrice, r.SuggestedPrice, raw)
		assert.Equal(t, int64(50000), r.PriceCents(), raw)
	}

	r, err := ParseResult(`{"suggestedPrice": 10000000}`)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000), r.PriceCents())
}

func TestAnalyzeImage_SendsImageAndContext(t *testing.T) {
	fake := llmtest.New(llmtest.Reply{Text: "```json\n{\"title\":\"Dusk\"}\n```"})
	a := NewAnalyzer(fake, nil)

	r, err := a.AnalyzeImage(context.Background(), []byte{1, 2, 3}, "image/jpeg", "my old notes")
	require.NoError(t, err)
	assert.Equal(t, "Dusk", r.Title)

	require.Len(t, fake.Requests, 1)
	req := fake.Requests[0]
	assert.Equal(t, []byte{1, 2, 3}, req.Image)
	assert.Equal(t, "image/jpeg", req.ImageMIME)
	assert.Contains(t, req.Prompt, "my old notes")
	assert.Contains(t, req.Prompt, `"suggestedPrice": number`)
}

func TestAnalyzeImage_ClassifiesTransportErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      ErrorKind
		retryable bool
	}{
		{"quota", &googleapi.Error{Code: http.StatusTooManyRequests}, KindRateLimited, true},
		{"auth", &googleapi.Error{Code: http.StatusUnauthorized}, KindAuthFailed, false},
		{"timeout", context.DeadlineExceeded, KindTimeout, true},
		{"other", errors.New("connection reset"), KindUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(llmtest.New(llmtest.Reply{Err: tt.err}), nil)
			_, err := a.AnalyzeImage(context.Background(), []byte{1}, "image/jpeg", "")

			var ae *Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.kind, ae.Kind)
			assert.Equal(t, tt.retryable, ae.Retryable())
		})
	}
}

func TestRegenerateDescription(t *testing.T) {
	fake := llmtest.New(llmtest.Reply{Text: "  A luminous study.  "}, llmtest.Reply{Text: ""})
	a := NewAnalyzer(fake, nil)

	d, err := a.RegenerateDescription(context.Background(), DescriptionInput{Title: "Dusk", Style: []string{"Tonalism"}})
	require.NoError(t, err)
	assert.Equal(t, "A luminous study.", d)
	assert.Contains(t, fake.Requests[0].Prompt, "Style: Tonalism")
	assert.Contains(t, fake.Requests[0].Prompt, "Themes: Abstract")

	d, err = a.RegenerateDescription(context.Background(), DescriptionInput{Title: "Dusk"})
	require.NoError(t, err)
	assert.Equal(t, FallbackDescription, d)
}

func TestSuggestPrice(t *testing.T) {
	fake := llmtest.New(
		llmtest.Reply{Text: `{"price": 150}`},
		llmtest.Reply{Text: `{"price": "n/a"}`},
		llmtest.Reply{Text: `{"price": 1e20}`},
		llmtest.Reply{Err: &llm.Error{Kind: llm.KindRateLimited, Err: errors.New("quota")}},
	)
	a := NewAnalyzer(fake, nil)
	ctx := context.Background()

	cents, err := a.SuggestPrice(ctx, PriceInput{Medium: "Oil"})
	require.NoError(t, err)
	assert.Equal(t, int64(15000), cents)
	assert.Contains(t, fake.Requests[0].Prompt, "Artist: Emerging/Unknown")

	cents, err = a.SuggestPrice(ctx, PriceInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(50000), cents)

	cents, err = a.SuggestPrice(ctx, PriceInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(50000), cents)

	_, err = a.SuggestPrice(ctx, PriceInput{})
	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, KindRateLimited, ae.Kind)
}
