// Package render rasterizes lumen scenes on the CPU and post-processes the
// result with screen-space reflections.
package render

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/taigrr/lumen/pkg/math3d"
)

// noWinner marks a pixel no triangle has claimed.
const noWinner = math.MaxUint32

// emptyDepth is the packed value of an unclaimed pixel: depth +Inf, no winner.
var emptyDepth = packDepth(float32(math.Inf(1)), noWinner)

// packDepth combines a non-negative depth and a triangle id so that an
// unsigned comparison orders by depth first and id second.
func packDepth(d float32, id uint32) uint64 {
	return uint64(math.Float32bits(d))<<32 | uint64(id)
}

func unpackDepth(v uint64) (float32, uint32) {
	return math.Float32frombits(uint32(v >> 32)), uint32(v)
}

// Framebuffer holds the color, encoded normal and depth of every pixel.
type Framebuffer struct {
	Width  int
	Height int
	Color  []uint8 // RGB, row-major
	Normal []uint8 // RGB-encoded world normals, row-major

	// depth is the only buffer written concurrently by visibility jobs.
	depth []atomic.Uint64
}

// NewFramebuffer creates a cleared framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{
		Width:  width,
		Height: height,
		Color:  make([]uint8, width*height*3),
		Normal: make([]uint8, width*height*3),
		depth:  make([]atomic.Uint64, width*height),
	}
	fb.Clear()
	return fb
}

// Clear resets color to black, normals to 255 and depth to empty.
func (fb *Framebuffer) Clear() {
	clear(fb.Color)
	for i := range fb.Normal {
		fb.Normal[i] = 255
	}
	for i := range fb.depth {
		fb.depth[i].Store(emptyDepth)
	}
}

// index returns the pixel index of (x, y). Coordinates outside the buffer
// are a programming error.
func (fb *Framebuffer) index(x, y int) int {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		panic(fmt.Sprintf("render: pixel (%d, %d) outside %dx%d framebuffer", x, y, fb.Width, fb.Height))
	}
	return y*fb.Width + x
}

// claim records triangle id at depth d for pixel i if it is nearer than the
// current winner. Equal depths resolve to the lower id.
func (fb *Framebuffer) claim(i int, d float32, id uint32) bool {
	candidate := packDepth(d, id)
	slot := &fb.depth[i]
	for {
		cur := slot.Load()
		if candidate >= cur {
			return false
		}
		if slot.CompareAndSwap(cur, candidate) {
			return true
		}
	}
}

// Depth returns the resolved depth of (x, y) and whether any triangle
// covers it.
func (fb *Framebuffer) Depth(x, y int) (float64, bool) {
	d, id := unpackDepth(fb.depth[fb.index(x, y)].Load())
	if id == noWinner {
		return 0, false
	}
	return float64(d), true
}

// winner returns the triangle id owning pixel i.
func (fb *Framebuffer) winner(i int) (uint32, bool) {
	_, id := unpackDepth(fb.depth[i].Load())
	return id, id != noWinner
}

// ColorAt returns the RGB color of (x, y).
func (fb *Framebuffer) ColorAt(x, y int) [3]uint8 {
	i := fb.index(x, y) * 3
	return [3]uint8{fb.Color[i], fb.Color[i+1], fb.Color[i+2]}
}

// SetColor sets the RGB color of (x, y).
func (fb *Framebuffer) SetColor(x, y int, c [3]uint8) {
	i := fb.index(x, y) * 3
	fb.Color[i], fb.Color[i+1], fb.Color[i+2] = c[0], c[1], c[2]
}

// NormalAt returns the decoded unit normal of (x, y).
func (fb *Framebuffer) NormalAt(x, y int) math3d.Vec3 {
	i := fb.index(x, y) * 3
	return DecodeNormal([3]uint8{fb.Normal[i], fb.Normal[i+1], fb.Normal[i+2]})
}

// SetNormal encodes n into the normal buffer at (x, y).
func (fb *Framebuffer) SetNormal(x, y int, n math3d.Vec3) {
	i := fb.index(x, y) * 3
	e := EncodeNormal(n)
	fb.Normal[i], fb.Normal[i+1], fb.Normal[i+2] = e[0], e[1], e[2]
}

// EncodeNormal maps each component of n from [-1, 1] to [0, 255].
func EncodeNormal(n math3d.Vec3) [3]uint8 {
	var out [3]uint8
	for k := range 3 {
		out[k] = uint8(math3d.Clamp01(n[k]*0.5+0.5) * 255)
	}
	return out
}

// DecodeNormal inverts EncodeNormal and renormalizes.
func DecodeNormal(c [3]uint8) math3d.Vec3 {
	return math3d.Normalize(math3d.V3(
		float64(c[0])/255*2-1,
		float64(c[1])/255*2-1,
		float64(c[2])/255*2-1,
	))
}

// DepthImage returns the contrast-enhanced depth visualization:
// byte(depth^10 * 255) per pixel, 255 where nothing was drawn.
func (fb *Framebuffer) DepthImage() []uint8 {
	out := make([]uint8, fb.Width*fb.Height)
	for i := range fb.depth {
		d, id := unpackDepth(fb.depth[i].Load())
		if id == noWinner {
			out[i] = 255
			continue
		}
		out[i] = uint8(math3d.Clamp01(math.Pow(float64(d), 10)) * 255)
	}
	return out
}

// ColorImage returns the color buffer as an Image sharing its pixels.
func (fb *Framebuffer) ColorImage() *Image {
	return &Image{Width: fb.Width, Height: fb.Height, Pix: fb.Color}
}

// NormalImage returns the encoded normal buffer as an Image sharing its pixels.
func (fb *Framebuffer) NormalImage() *Image {
	return &Image{Width: fb.Width, Height: fb.Height, Pix: fb.Normal}
}
