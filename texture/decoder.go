// Package texture provides the default texture-loader collaborator for the
// asset pipeline: it decodes a texture's raw encoded payload into a CPU
// image and enforces the configured maximum texture dimension by
// downscaling. The pipeline treats the produced *Handle as opaque.
package texture

import (
	"bytes"
	"fmt"
	"image"

	// Registered decoders for the payload formats assets carry.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"

	"github.com/Carmen-Shannon/oxy-assets/loader"
	"github.com/Carmen-Shannon/oxy-assets/scene"
)

// Handle is the decoded form of one texture.
type Handle struct {
	// Image is the decoded, possibly downscaled pixel data.
	Image image.Image

	// Width and Height are the final pixel dimensions.
	Width, Height int

	// Format is the detected source format name ("png", "jpeg", ...).
	Format string
}

// Decoder decodes texture payloads on the CPU. The zero value decodes with
// no size cap.
type Decoder struct {
	// MaxDimension caps width and height; larger images are downscaled
	// preserving aspect ratio. Zero disables the cap.
	MaxDimension int
}

var _ loader.TextureLoader = &Decoder{}

// NewDecoder creates a Decoder with the given dimension cap.
func NewDecoder(maxDimension int) *Decoder {
	return &Decoder{MaxDimension: maxDimension}
}

// Load implements loader.TextureLoader.
//
// Parameters:
//   - index: the texture's position in the scene's texture table
//   - t: the texture record carrying the encoded payload
//
// Returns:
//   - any: a *Handle with the decoded image
//   - error: when the payload is empty or undecodable
func (d *Decoder) Load(index int, t *scene.Texture) (any, error) {
	if len(t.Data) == 0 {
		return nil, fmt.Errorf("texture %d has no payload", index)
	}

	img, format, err := image.Decode(bytes.NewReader(t.Data))
	if err != nil {
		return nil, fmt.Errorf("decoding texture %d: %w", index, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if d.MaxDimension > 0 && (w > d.MaxDimension || h > d.MaxDimension) {
		img = downscale(img, d.MaxDimension)
		bounds = img.Bounds()
		w, h = bounds.Dx(), bounds.Dy()
	}

	return &Handle{Image: img, Width: w, Height: h, Format: format}, nil
}

// downscale resizes img so its larger side equals maxDim, preserving
// aspect ratio.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
