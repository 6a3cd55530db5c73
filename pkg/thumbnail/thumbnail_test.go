package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 100, G: 150, B: 200, A: 255}}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		wantWidth  int
		wantHeight int
	}{
		{name: "landscape", width: 800, height: 600, wantWidth: 100, wantHeight: 75},
		{name: "portrait", width: 600, height: 1200, wantWidth: 50, wantHeight: 100},
		{name: "smaller than box", width: 40, height: 30, wantWidth: 40, wantHeight: 30},
	}

	g := NewGenerator(100, 100)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.Generate(bytes.NewReader(encodePNG(t, tt.width, tt.height)))
			require.NoError(t, err)
			assert.Equal(t, "png", res.Format)
			assert.Equal(t, tt.width, res.Width)
			assert.Equal(t, tt.height, res.Height)

			thumb, err := imaging.Decode(bytes.NewReader(res.Thumbnail))
			require.NoError(t, err)
			assert.Equal(t, tt.wantWidth, thumb.Bounds().Dx())
			assert.Equal(t, tt.wantHeight, thumb.Bounds().Dy())
		})
	}
}

func TestGenerateRejectsNonImage(t *testing.T) {
	_, err := NewGenerator(0, 0).Generate(strings.NewReader("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
