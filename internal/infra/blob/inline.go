package blob

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// InlineStore keeps images inside the record itself as data: URLs.
// Put ignores the key; Delete is a no-op because nothing lives elsewhere.
type InlineStore struct{}

func NewInlineStore() *InlineStore { return &InlineStore{} }

func (InlineStore) Put(_ context.Context, _ string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (InlineStore) Get(_ context.Context, ref string) ([]byte, string, error) {
	return DecodeDataURL(ref)
}

func (InlineStore) Delete(context.Context, string) error { return nil }

// DecodeDataURL splits "data:<mime>;base64,<payload>" into bytes and mime.
func DecodeDataURL(ref string) ([]byte, string, error) {
	if !strings.HasPrefix(ref, "data:") {
		return nil, "", ErrInvalidRef
	}
	comma := strings.IndexByte(ref, ',')
	if comma < 0 {
		return nil, "", ErrInvalidRef
	}
	header := ref[len("data:"):comma]
	if !strings.HasSuffix(header, ";base64") {
		return nil, "", ErrInvalidRef
	}
	data, err := base64.StdEncoding.DecodeString(ref[comma+1:])
	if err != nil {
		return nil, "", fmt.Errorf("decode data url: %w", err)
	}
	return data, strings.TrimSuffix(header, ";base64"), nil
}
