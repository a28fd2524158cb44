package media

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 255), G: 120, B: uint8(y % 255), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestNormalize_ProducesSquareThumbnail(t *testing.T) {
	n := NewNormalizer(DefaultConfig())
	img, err := n.Normalize(Upload{Data: makePNG(t, 800, 600), ContentType: "image/png"})
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.Equal(t, "image/png", img.SourceMIME)
	assert.Equal(t, 800, img.Width)
	assert.Equal(t, 600, img.Height)

	thumb := decodeJPEG(t, img.Thumbnail)
	assert.Equal(t, 400, thumb.Bounds().Dx())
	assert.Equal(t, 400, thumb.Bounds().Dy())
}

func TestNormalize_BoundsLargeOriginal(t *testing.T) {
	n := NewNormalizer(Config{MaxDimension: 500})
	img, err := n.Normalize(Upload{Data: makePNG(t, 1000, 250)})
	require.NoError(t, err)

	orig := decodeJPEG(t, img.Original)
	assert.Equal(t, 500, orig.Bounds().Dx())
	assert.Equal(t, 125, orig.Bounds().Dy())
}

func TestNormalize_AcceptsDataURL(t *testing.T) {
	raw := makePNG(t, 64, 64)
	n := NewNormalizer(DefaultConfig())
	img, err := n.Normalize(Upload{Base64: "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)})
	require.NoError(t, err)
	assert.NotEmpty(t, img.Original)
	assert.Equal(t, int64(len(raw)), img.OriginalBytes)
}

func TestNormalize_Rejections(t *testing.T) {
	n := NewNormalizer(Config{MaxBytes: 1024})
	small := []byte("plain text, definitely not a picture")

	cases := []struct {
		name   string
		upload Upload
	}{
		{"empty", Upload{}},
		{"non-image declared type", Upload{Data: small, ContentType: "application/pdf"}},
		{"non-image content", Upload{Data: small, ContentType: "image/png"}},
		{"bad base64", Upload{Base64: "data:image/png;base64,***"}},
		{"data url without base64", Upload{Base64: "data:image/png,abc"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := n.Normalize(tc.upload)
			var invalid *InvalidInputError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

// pngHeader is a PNG that stops after IHDR: enough for DecodeConfig and
// content sniffing, with no pixel data behind it.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // greyscale

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestNormalize_RejectsOversizedPixelCount(t *testing.T) {
	n := NewNormalizer(DefaultConfig())
	bomb := pngHeader(20000, 20000)
	require.Less(t, len(bomb), 64)

	_, err := n.Normalize(Upload{Data: bomb, ContentType: "image/png"})
	var invalid *InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "20000x20000")
}

func TestNormalize_PixelLimitIsConfigurable(t *testing.T) {
	n := NewNormalizer(Config{MaxPixels: 150 * 150})

	_, err := n.Normalize(Upload{Data: makePNG(t, 200, 200)})
	var invalid *InvalidInputError
	assert.ErrorAs(t, err, &invalid)

	_, err = n.Normalize(Upload{Data: makePNG(t, 150, 150)})
	assert.NoError(t, err)
}

func TestNormalize_TooLarge(t *testing.T) {
	n := NewNormalizer(Config{MaxBytes: 100})
	_, err := n.Normalize(Upload{Data: makePNG(t, 200, 200)})
	var tooLarge *PayloadTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, int64(100), tooLarge.Limit)

	_, err = n.Normalize(Upload{Data: []byte{1}, Size: 5000})
	assert.ErrorAs(t, err, &tooLarge)
}
