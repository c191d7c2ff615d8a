package render

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"
	"sync"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder

	"github.com/taigrr/lumen/pkg/math3d"
)

// Image is a decoded RGB image, row-major with 3 bytes per pixel.
// Images are never modified after decoding and are shared freely between
// rendering jobs.
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewImage creates a black image with the given dimensions.
func NewImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Pix: make([]uint8, width*height*3)}
}

// At returns the RGB value of pixel (x, y).
func (img *Image) At(x, y int) [3]uint8 {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		panic(fmt.Sprintf("render: texel (%d, %d) outside %dx%d image", x, y, img.Width, img.Height))
	}
	i := (y*img.Width + x) * 3
	return [3]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
}

// Set writes the RGB value of pixel (x, y). Only valid while building an
// image, before it is shared.
func (img *Image) Set(x, y int, c [3]uint8) {
	i := (y*img.Width + x) * 3
	img.Pix[i], img.Pix[i+1], img.Pix[i+2] = c[0], c[1], c[2]
}

// ToRGBA converts the image to a standard library RGBA image.
func (img *Image) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := range img.Width * img.Height {
		out.Pix[i*4] = img.Pix[i*3]
		out.Pix[i*4+1] = img.Pix[i*3+1]
		out.Pix[i*4+2] = img.Pix[i*3+2]
		out.Pix[i*4+3] = 255
	}
	return out
}

// ImageFrom converts any decoded image to an RGB Image.
func ImageFrom(src image.Image) *Image {
	bounds := src.Bounds()
	img := NewImage(bounds.Dx(), bounds.Dy())
	for y := range img.Height {
		for x := range img.Width {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA returns 16-bit values, scale to 8-bit
			img.Set(x, y, [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)})
		}
	}
	return img
}

// LoadImage decodes a PNG, JPEG, GIF, BMP or TIFF file.
func LoadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture %s: %w", path, err)
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("texture %s has no pixels", path)
	}
	return ImageFrom(src), nil
}

// texel maps a UV coordinate to pixel indices using the (dim-1) convention.
// UV components are clamped to [0, 1].
func texel(img *Image, u, v float64) (int, int) {
	x := int(math.Floor(math3d.Clamp01(u) * float64(img.Width-1)))
	y := int(math.Floor(math3d.Clamp01(v) * float64(img.Height-1)))
	return x, y
}

// Sample returns the nearest texel at (u, v).
func Sample(img *Image, u, v float64) [3]uint8 {
	x, y := texel(img, u, v)
	return img.At(x, y)
}

// SampleNormal decodes the tangent-space unit normal stored at (u, v).
func SampleNormal(img *Image, u, v float64) math3d.Vec3 {
	return DecodeNormal(Sample(img, u, v))
}

// SampleHeight returns the perceptual luma of the texel at (u, v) in [0, 255].
func SampleHeight(img *Image, u, v float64) float64 {
	c := Sample(img, u, v)
	return 0.30*float64(c[0]) + 0.59*float64(c[1]) + 0.11*float64(c[2])
}

// ParallaxOffset shifts uv along the tangent-space view direction by the
// sampled height times scale. The shifted coordinate is returned only when
// it stays inside [0, 1]; otherwise uv is returned unchanged.
func ParallaxOffset(img *Image, uv math3d.Vec2, viewTS math3d.Vec3, scale float64) math3d.Vec2 {
	if math.Abs(viewTS[2]) < 1e-6 {
		return uv
	}
	h := SampleHeight(img, uv[0], uv[1]) / 255
	p := math3d.V2(viewTS[0], viewTS[1]).Mul(h * scale / viewTS[2])
	shifted := uv.Sub(p)
	if shifted[0] < 0 || shifted[0] > 1 || shifted[1] < 0 || shifted[1] > 1 {
		return uv
	}
	return shifted
}

// TextureCache decodes every texture path at most once.
// A path that fails to decode is remembered as absent.
type TextureCache struct {
	mu     sync.Mutex
	images map[string]*Image
	log    *zap.Logger
}

// NewTextureCache creates an empty cache logging decode failures to log.
func NewTextureCache(log *zap.Logger) *TextureCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &TextureCache{images: make(map[string]*Image), log: log}
}

// Get returns the decoded image at path, or nil when path is empty or the
// file could not be decoded.
func (c *TextureCache) Get(path string) *Image {
	if path == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if img, ok := c.images[path]; ok {
		return img
	}
	img, err := LoadImage(path)
	if err != nil {
		c.log.Warn("texture unavailable, layer disabled", zap.String("path", path), zap.Error(err))
		img = nil
	}
	c.images[path] = img
	return img
}

// Put registers an already decoded image under path.
func (c *TextureCache) Put(path string, img *Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[path] = img
}
