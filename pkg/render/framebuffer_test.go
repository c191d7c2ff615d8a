package render

import (
	"math"
	"sync"
	"testing"

	"github.com/taigrr/lumen/pkg/math3d"
)

func TestFramebufferClear(t *testing.T) {
	fb := NewFramebuffer(4, 3)
	fb.SetColor(1, 1, [3]uint8{10, 20, 30})
	fb.claim(fb.index(1, 1), 0.5, 7)
	fb.Clear()

	if c := fb.ColorAt(1, 1); c != [3]uint8{} {
		t.Errorf("color after clear = %v, want black", c)
	}
	for i, b := range fb.Normal {
		if b != 255 {
			t.Fatalf("normal byte %d = %d after clear, want 255", i, b)
		}
	}
	if _, ok := fb.Depth(1, 1); ok {
		t.Error("depth still set after clear")
	}
	if _, ok := fb.winner(fb.index(1, 1)); ok {
		t.Error("winner still set after clear")
	}
}

func TestClaimOrdering(t *testing.T) {
	tests := []struct {
		name   string
		claims []struct {
			d  float32
			id uint32
		}
		wantDepth float32
		wantID    uint32
	}{
		{
			name: "nearer wins",
			claims: []struct {
				d  float32
				id uint32
			}{{0.8, 1}, {0.3, 2}, {0.5, 3}},
			wantDepth: 0.3, wantID: 2,
		},
		{
			name: "tie goes to lower id",
			claims: []struct {
				d  float32
				id uint32
			}{{0.4, 9}, {0.4, 2}, {0.4, 5}},
			wantDepth: 0.4, wantID: 2,
		},
		{
			name: "zero depth",
			claims: []struct {
				d  float32
				id uint32
			}{{0.1, 0}, {0, 4}},
			wantDepth: 0, wantID: 4,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fb := NewFramebuffer(1, 1)
			for _, c := range tc.claims {
				fb.claim(0, c.d, c.id)
			}
			d, ok := fb.Depth(0, 0)
			if !ok || float32(d) != tc.wantDepth {
				t.Errorf("depth = %v (%v), want %v", d, ok, tc.wantDepth)
			}
			if id, _ := fb.winner(0); id != tc.wantID {
				t.Errorf("winner = %d, want %d", id, tc.wantID)
			}
		})
	}
}

func TestClaimConcurrent(t *testing.T) {
	fb := NewFramebuffer(1, 1)
	var wg sync.WaitGroup
	for id := range uint32(64) {
		wg.Go(func() {
			// Every claimant writes the same depth; only the id decides.
			fb.claim(0, 0.25, 100-id)
		})
	}
	wg.Wait()

	if id, ok := fb.winner(0); !ok || id != 37 {
		t.Errorf("winner = %d, want 37", id)
	}
}

func TestPackDepthOrdersByDepthThenID(t *testing.T) {
	if packDepth(0.2, 100) >= packDepth(0.3, 0) {
		t.Error("depth does not dominate id")
	}
	if packDepth(0.2, 1) >= packDepth(0.2, 2) {
		t.Error("lower id does not win ties")
	}
	if packDepth(1, 0) >= emptyDepth {
		t.Error("far plane does not beat an empty pixel")
	}
	d, id := unpackDepth(packDepth(0.75, 12))
	if d != 0.75 || id != 12 {
		t.Errorf("unpack = (%v, %d), want (0.75, 12)", d, id)
	}
}

func TestEncodeNormal(t *testing.T) {
	tests := []struct {
		name string
		n    math3d.Vec3
		want [3]uint8
	}{
		{"up", math3d.V3(0, 1, 0), [3]uint8{127, 255, 127}},
		{"toward viewer", math3d.V3(0, 0, 1), [3]uint8{127, 127, 255}},
		{"negative x", math3d.V3(-1, 0, 0), [3]uint8{0, 127, 127}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EncodeNormal(tc.n)
			if got != tc.want {
				t.Errorf("EncodeNormal(%v) = %v, want %v", tc.n, got, tc.want)
			}
			back := DecodeNormal(got)
			if back.Dot(tc.n) < 0.999 {
				t.Errorf("DecodeNormal(%v) = %v, far from %v", got, back, tc.n)
			}
		})
	}
}

func TestDepthImage(t *testing.T) {
	fb := NewFramebuffer(3, 1)
	fb.claim(0, 0, 0)
	fb.claim(1, 1, 0)

	img := fb.DepthImage()
	want := []uint8{0, 255, 255}
	for i := range want {
		if img[i] != want[i] {
			t.Errorf("pixel %d = %d, want %d", i, img[i], want[i])
		}
	}

	fb.claim(2, 0.9, 0)
	if got, want := fb.DepthImage()[2], uint8(math.Pow(0.9, 10)*255); got != want {
		t.Errorf("depth 0.9 byte = %d, want %d", got, want)
	}
}

func TestFramebufferIndexPanics(t *testing.T) {
	fb := NewFramebuffer(2, 2)
	defer func() {
		if recover() == nil {
			t.Error("out of range access did not panic")
		}
	}()
	fb.ColorAt(2, 0)
}
