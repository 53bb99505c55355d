package images

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleToFit(t *testing.T) {
	cases := []struct {
		name       string
		w, h       int
		maxW, maxH int
		wantW      int
		wantH      int
	}{
		{"already fits", 100, 50, 320, 180, 100, 50},
		{"wide", 1920, 1080, 320, 180, 320, 180},
		{"tall", 1000, 2000, 400, 400, 200, 400},
		{"zero bounds clamp", 10, 10, 0, 0, 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := ScaleToFit(image.NewRGBA(image.Rect(0, 0, tc.w, tc.h)), tc.maxW, tc.maxH)
			assert.Equal(t, tc.wantW, out.Bounds().Dx())
			assert.Equal(t, tc.wantH, out.Bounds().Dy())
		})
	}
	assert.Nil(t, ScaleToFit(nil, 10, 10))
}

func TestEncodePNGRoundTrip(t *testing.T) {
	data := EncodePNG(Placeholder(4, 3))
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	assert.Nil(t, EncodePNG(nil))
}
