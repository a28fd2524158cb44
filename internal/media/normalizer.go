// Package media validates uploaded artwork photos and produces the encoded
// copies the rest of the pipeline stores and analyzes.
package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxBytes         = 10 * 1024 * 1024
	DefaultMaxPixels        = 50_000_000
	DefaultMaxDimension     = 2048
	DefaultOriginalQuality  = 90
	DefaultThumbnailSize    = 400
	DefaultThumbnailQuality = 80
)

// Upload is one raw image as received from the client. Either Data or Base64
// is set; Base64 may be a bare payload or a data: URL.
type Upload struct {
	Data        []byte
	Base64      string
	ContentType string
	Size        int64
}

// Image is the normalized result: both payloads are JPEG.
type Image struct {
	Original      []byte
	Thumbnail     []byte
	ContentType   string
	Width         int
	Height        int
	ThumbWidth    int
	ThumbHeight   int
	SourceMIME    string
	OriginalBytes int64
}

type Config struct {
	MaxBytes int64
	// MaxPixels bounds width*height as read from the image header, before
	// any pixel data is decoded.
	MaxPixels        int64
	MaxDimension     int
	OriginalQuality  int
	ThumbnailSize    int
	ThumbnailQuality int
}

func DefaultConfig() Config {
	return Config{
		MaxBytes:         DefaultMaxBytes,
		MaxPixels:        DefaultMaxPixels,
		MaxDimension:     DefaultMaxDimension,
		OriginalQuality:  DefaultOriginalQuality,
		ThumbnailSize:    DefaultThumbnailSize,
		ThumbnailQuality: DefaultThumbnailQuality,
	}
}

type Normalizer struct {
	cfg Config
}

func NewNormalizer(cfg Config) *Normalizer {
	def := DefaultConfig()
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = def.MaxBytes
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = def.MaxPixels
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = def.MaxDimension
	}
	if cfg.OriginalQuality <= 0 || cfg.OriginalQuality > 100 {
		cfg.OriginalQuality = def.OriginalQuality
	}
	if cfg.ThumbnailSize <= 0 {
		cfg.ThumbnailSize = def.ThumbnailSize
	}
	if cfg.ThumbnailQuality <= 0 || cfg.ThumbnailQuality > 100 {
		cfg.ThumbnailQuality = def.ThumbnailQuality
	}
	return &Normalizer{cfg: cfg}
}

// MaxBytes is the upload ceiling, exposed so handlers can cap request bodies.
func (n *Normalizer) MaxBytes() int64 { return n.cfg.MaxBytes }

// Normalize validates u and returns a JPEG original (bounded to MaxDimension)
// and a square thumbnail of ThumbnailSize. It has no side effects.
func (n *Normalizer) Normalize(u Upload) (*Image, error) {
	declared := strings.ToLower(strings.TrimSpace(u.ContentType))

	data := u.Data
	if data == nil && u.Base64 != "" {
		mimeFromURL, payload, err := decodeBase64(u.Base64)
		if err != nil {
			return nil, err
		}
		if declared == "" {
			declared = mimeFromURL
		}
		data = payload
	}

	size := u.Size
	if size < int64(len(data)) {
		size = int64(len(data))
	}
	if size > n.cfg.MaxBytes {
		return nil, &PayloadTooLargeError{Size: size, Limit: n.cfg.MaxBytes}
	}
	if len(data) == 0 {
		return nil, &InvalidInputError{Reason: "no image data provided"}
	}

	if declared != "" && !strings.HasPrefix(declared, "image/") {
		return nil, &InvalidInputError{Reason: "only image files are allowed, got " + declared}
	}
	sniffed := mimetype.Detect(data)
	if !strings.HasPrefix(sniffed.String(), "image/") {
		return nil, &InvalidInputError{Reason: "content is not an image (" + sniffed.String() + ")"}
	}

	hdr, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &InvalidInputError{Reason: "could not decode image", Err: err}
	}
	if pixels := int64(hdr.Width) * int64(hdr.Height); pixels > n.cfg.MaxPixels {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("image is %dx%d, limit is %d pixels", hdr.Width, hdr.Height, n.cfg.MaxPixels)}
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &InvalidInputError{Reason: "could not decode image", Err: err}
	}

	original := src
	b := src.Bounds()
	if b.Dx() > n.cfg.MaxDimension || b.Dy() > n.cfg.MaxDimension {
		original = imaging.Fit(src, n.cfg.MaxDimension, n.cfg.MaxDimension, imaging.Lanczos)
	}
	origBytes, err := encodeJPEG(original, n.cfg.OriginalQuality)
	if err != nil {
		return nil, err
	}

	thumb := imaging.Fill(src, n.cfg.ThumbnailSize, n.cfg.ThumbnailSize, imaging.Center, imaging.Lanczos)
	thumbBytes, err := encodeJPEG(thumb, n.cfg.ThumbnailQuality)
	if err != nil {
		return nil, err
	}

	ob := original.Bounds()
	tb := thumb.Bounds()
	return &Image{
		Original:      origBytes,
		Thumbnail:     thumbBytes,
		ContentType:   "image/jpeg",
		Width:         ob.Dx(),
		Height:        ob.Dy(),
		ThumbWidth:    tb.Dx(),
		ThumbHeight:   tb.Dy(),
		SourceMIME:    sniffed.String(),
		OriginalBytes: size,
	}, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, &InvalidInputError{Reason: "could not encode image", Err: err}
	}
	return buf.Bytes(), nil
}

// decodeBase64 accepts "data:image/png;base64,AAAA" or a bare payload.
func decodeBase64(s string) (string, []byte, error) {
	s = strings.TrimSpace(s)
	mimeType := ""
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return "", nil, &InvalidInputError{Reason: "malformed data URL"}
		}
		header := s[len("data:"):comma]
		if !strings.HasSuffix(header, ";base64") {
			return "", nil, &InvalidInputError{Reason: "data URL is not base64 encoded"}
		}
		mimeType = strings.TrimSuffix(header, ";base64")
		s = s[comma+1:]
	}
	payload, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", nil, &InvalidInputError{Reason: "invalid base64 payload", Err: err}
	}
	return mimeType, payload, nil
}
