package math3d

import (
	"math"
	"testing"
)

const eps = 1e-9

func vecApprox(a, b Vec3, tol float64) bool {
	return ApproxEqual(a[0], b[0], tol) && ApproxEqual(a[1], b[1], tol) && ApproxEqual(a[2], b[2], tol)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Vec3
		want Vec3
	}{
		{"unit x", V3(3, 0, 0), V3(1, 0, 0)},
		{"diagonal", V3(1, 1, 0), V3(1/math.Sqrt2, 1/math.Sqrt2, 0)},
		{"zero stays zero", V3(0, 0, 0), V3(0, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if !vecApprox(got, tt.want, eps) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestReflect(t *testing.T) {
	tests := []struct {
		name string
		v, n Vec3
		want Vec3
	}{
		{"straight down", V3(0, -1, 0), V3(0, 1, 0), V3(0, 1, 0)},
		{"glancing", V3(1, -1, 0), V3(0, 1, 0), V3(1, 1, 0)},
		{"parallel to surface", V3(1, 0, 0), V3(0, 1, 0), V3(1, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reflect(tt.v, tt.n)
			if !vecApprox(got, tt.want, eps) {
				t.Errorf("Reflect(%v, %v) = %v, want %v", tt.v, tt.n, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0.25, 0.25},
		{2, 1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEulerRotationOrder(t *testing.T) {
	// X by 90 degrees takes +Y to +Z, then Y by 90 degrees takes +Z to +X.
	r := EulerRotation(V3(math.Pi/2, math.Pi/2, 0))
	got := TransformPoint(r, V3(0, 1, 0))
	if !vecApprox(got, V3(1, 0, 0), 1e-9) {
		t.Errorf("EulerRotation applied to +Y = %v, want (1,0,0)", got)
	}
}

func TestWorldTranslates(t *testing.T) {
	w := World(V3(1, 2, 3), V3(0, 0, 0))
	got := TransformPoint(w, V3(1, 1, 1))
	if !vecApprox(got, V3(2, 3, 4), eps) {
		t.Errorf("World translate = %v, want (2,3,4)", got)
	}
}

func TestNormalMatrixRotationOnly(t *testing.T) {
	w := World(V3(5, -2, 1), V3(0, math.Pi/2, 0))
	nm := NormalMatrix(w)
	got := nm.Mul3x1(V3(1, 0, 0))
	// Rotating about Y by 90 degrees takes +X to -Z.
	if !vecApprox(got, V3(0, 0, -1), 1e-9) {
		t.Errorf("NormalMatrix * +X = %v, want (0,0,-1)", got)
	}
}

func TestProjectScreenRoundTrip(t *testing.T) {
	view := LookAt(V3(0, 0, 8), V3(0, 0, 0), Up())
	proj := Perspective(45, 16.0/9.0, 1, 100)
	pv := proj.Mul4(view)

	ndc, w := Project(pv, V3(0, 0, 0))
	if !ApproxEqual(w, 8, 1e-9) {
		t.Errorf("w = %v, want 8", w)
	}
	x, y := ToScreen(ndc, 1000, 563)
	if !ApproxEqual(x, 500, 1e-9) || !ApproxEqual(y, 281.5, 1e-9) {
		t.Errorf("ToScreen(origin) = (%v, %v), want (500, 281.5)", x, y)
	}

	back := TransformPoint(pv.Inv(), ndc)
	if !vecApprox(back, V3(0, 0, 0), 1e-9) {
		t.Errorf("unproject(project(origin)) = %v", back)
	}
}

func TestLinearizeDepth(t *testing.T) {
	near, far := 1.0, 100.0
	proj := Perspective(45, 1, near, far)
	for _, dist := range []float64{1, 2.5, 10, 99} {
		ndc, _ := Project(proj, V3(0, 0, -dist))
		got := LinearizeDepth(WindowDepth(ndc[2]), near, far)
		if !ApproxEqual(got, dist, 1e-6) {
			t.Errorf("LinearizeDepth at distance %v = %v", dist, got)
		}
	}
}

func TestLookAtDegenerateUp(t *testing.T) {
	m := LookAt(V3(0, 10, 0), V3(0, 0, 0), Up())
	for i, v := range m {
		if math.IsNaN(v) {
			t.Fatalf("LookAt straight down produced NaN at %d", i)
		}
	}
	got := TransformPoint(m, V3(0, 0, 0))
	if !vecApprox(got, V3(0, 0, -10), 1e-9) {
		t.Errorf("target in view space = %v, want (0,0,-10)", got)
	}
}
