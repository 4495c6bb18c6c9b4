package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	// Overlay logos are often uploaded as WebP.
	_ "golang.org/x/image/webp"

	"github.com/aliskhannn/contentful-watermark/internal/model"
)

const (
	// Opacity applied to the overlay image.
	Opacity = 0.4
	// OffsetX and OffsetY place the overlay relative to the top-left corner of the source.
	OffsetX = 50
	OffsetY = 50

	jpegQuality = 95
)

// ErrImageProcessing is returned when an image cannot be fetched, decoded or encoded.
var ErrImageProcessing = errors.New("image processing failed")

// fetcher downloads the raw bytes behind a URL.
type fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Processor watermarks source images with a translucent overlay.
type Processor struct {
	fetcher fetcher
}

// New creates a new Processor that downloads images with the given fetcher.
func New(f fetcher) *Processor {
	return &Processor{fetcher: f}
}

// Composite fetches the source and overlay images, draws the overlay onto
// the source and encodes the result in the source's format.
func (p *Processor) Composite(ctx context.Context, sourceURL string, cfg model.WatermarkConfig) (model.CompositedImage, error) {
	// Load and decode the original image.
	srcData, err := p.fetcher.Fetch(ctx, NormalizeURL(sourceURL))
	if err != nil {
		return model.CompositedImage{}, fmt.Errorf("%w: failed to load source image: %w", ErrImageProcessing, err)
	}

	src, name, err := decode(srcData)
	if err != nil {
		return model.CompositedImage{}, fmt.Errorf("%w: failed to decode source image: %w", ErrImageProcessing, err)
	}

	format, err := imaging.FormatFromExtension(name)
	if err != nil {
		return model.CompositedImage{}, fmt.Errorf("%w: cannot encode %s: %w", ErrImageProcessing, name, err)
	}

	// Load and decode the watermark logo.
	markData, err := p.fetcher.Fetch(ctx, NormalizeURL(cfg.OverlayImageURL))
	if err != nil {
		return model.CompositedImage{}, fmt.Errorf("%w: failed to load overlay image: %w", ErrImageProcessing, err)
	}

	mark, _, err := decode(markData)
	if err != nil {
		return model.CompositedImage{}, fmt.Errorf("%w: failed to decode overlay image: %w", ErrImageProcessing, err)
	}

	out := composite(src, mark)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, out, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return model.CompositedImage{}, fmt.Errorf("%w: failed to encode watermarked image: %w", ErrImageProcessing, err)
	}

	return model.CompositedImage{
		Bytes:       buf.Bytes(),
		ContentType: contentType(format),
	}, nil
}

// composite draws mark at the fixed offset onto a copy of src.
func composite(src, mark image.Image) image.Image {
	dc := gg.NewContextForImage(src)
	dc.DrawImage(translucent(mark, Opacity), OffsetX, OffsetY)
	return dc.Image()
}

// translucent scales the alpha channel of img by opacity.
func translucent(img image.Image, opacity float64) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), color.NRGBA{})
	return imaging.Overlay(canvas, img, image.Pt(0, 0), opacity)
}

// decode returns the image together with the registered format name.
func decode(data []byte) (image.Image, string, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	return img, name, nil
}

func contentType(f imaging.Format) string {
	switch f {
	case imaging.JPEG:
		return "image/jpeg"
	case imaging.PNG:
		return "image/png"
	case imaging.GIF:
		return "image/gif"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.BMP:
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}

// NormalizeURL turns protocol-relative and scheme-less references into https URLs.
func NormalizeURL(raw string) string {
	switch {
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.Contains(raw, "://"):
		return raw
	default:
		return "https://" + raw
	}
}
