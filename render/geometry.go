package render

import (
	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// boxFaces lists the corners of the six faces of the unit cube, wound
// clockwise when seen from outside.
var boxFaces = [6][4]mgl32.Vec3{
	{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}, // -z
	{{0, 0, 1}, {0, 1, 1}, {1, 1, 1}, {1, 0, 1}}, // +z
	{{0, 0, 0}, {0, 0, 1}, {1, 0, 1}, {1, 0, 0}}, // -y
	{{0, 1, 0}, {1, 1, 0}, {1, 1, 1}, {0, 1, 1}}, // +y
	{{0, 0, 0}, {0, 1, 0}, {0, 1, 1}, {0, 0, 1}}, // -x
	{{1, 0, 0}, {1, 0, 1}, {1, 1, 1}, {1, 1, 0}}, // +x
}

// boxQuads returns the quads of a box spanning [0, size], every face split
// into n by n quads. Four consecutive vertices form a quad.
func boxQuads(size mgl32.Vec3, n int) []mgl32.Vec3 {
	if n < 1 {
		n = 1
	}
	out := make([]mgl32.Vec3, 0, 6*4*n*n)
	for _, f := range boxFaces {
		a := mul3(f[0], size)
		u := mul3(f[1], size).Sub(a)
		v := mul3(f[3], size).Sub(a)
		at := func(i, j int) mgl32.Vec3 {
			return a.Add(u.Mul(float32(i) / float32(n))).Add(v.Mul(float32(j) / float32(n)))
		}
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				out = append(out, at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1))
			}
		}
	}
	return out
}

func mul3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// FrontFace returns the winding of front facing polygons of a box drawn
// with the given signed scale. A negative scale mirrors the box, which
// turns its winding around.
func FrontFace(aspect mgl32.Vec3) uint32 {
	sign := 1
	for _, v := range aspect {
		if v < 0 {
			sign = -sign
		}
	}
	if sign > 0 {
		return gl.CW
	}
	return gl.CCW
}
