package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

var ErrUnsupportedImage = errors.New("unsupported image")

// Image is a decoded upload together with its thumbnail.
type Image struct {
	Format    string // jpeg, png, gif, ...
	Width     int
	Height    int
	Thumbnail []byte // always JPEG
}

type Generator interface {
	Generate(r io.Reader) (*Image, error)
}

type generator struct {
	width  int
	height int
}

func NewGenerator(width, height int) Generator {
	if width <= 0 {
		width = 320
	}
	if height <= 0 {
		height = 320
	}
	return &generator{width: width, height: height}
}

func (g *generator) Generate(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %v", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	// receipts must stay readable, so fit instead of crop
	thumb := imaging.Fit(img, g.width, g.height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %v", err)
	}

	return &Image{
		Format:    format,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Thumbnail: buf.Bytes(),
	}, nil
}
