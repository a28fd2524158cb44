package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

// SanitizeAndCleanInputMiddleware strips markup from every string in a JSON
// body, including strings inside arrays and nested objects. Keys in skip are
// passed through untouched at any depth, which is how image payloads avoid
// being rewritten. Numbers keep their original literal.
func SanitizeAndCleanInputMiddleware(skip ...string) gin.HandlerFunc {
	policy := bluemonday.StrictPolicy()
	skipped := map[string]bool{}
	for _, k := range skip {
		skipped[k] = true
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}
		if !strings.HasPrefix(c.ContentType(), "application/json") || c.Request.Body == nil {
			c.Next()
			return
		}

		buf, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
			return
		}
		if len(bytes.TrimSpace(buf)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(buf))
			c.Next()
			return
		}

		var body map[string]interface{}
		dec := json.NewDecoder(bytes.NewReader(buf))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Malformed JSON"})
			return
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Malformed JSON"})
			return
		}
		sanitizeObject(policy, skipped, body)

		newBody, err := json.Marshal(body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not process body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(newBody))
		c.Request.ContentLength = int64(len(newBody))
		c.Next()
	}
}

func sanitizeObject(policy *bluemonday.Policy, skipped map[string]bool, obj map[string]interface{}) {
	for k, v := range obj {
		if !skipped[k] {
			obj[k] = sanitizeValue(policy, skipped, v)
		}
	}
}

func sanitizeValue(policy *bluemonday.Policy, skipped map[string]bool, v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		// StrictPolicy escapes entities; undo that so "Artist's" stays readable.
		return html.UnescapeString(policy.Sanitize(t))
	case []interface{}:
		for i := range t {
			t[i] = sanitizeValue(policy, skipped, t[i])
		}
		return t
	case map[string]interface{}:
		sanitizeObject(policy, skipped, t)
		return t
	}
	return v
}
