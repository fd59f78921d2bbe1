// Package render draws volumes, images and meshes with OpenGL.
//
// All drawing happens on the thread that owns the OpenGL context. The
// renderers create their GPU resources at the first draw and can create
// them again after OnDestroyGl as they keep their host data.
package render

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/glutil"
)

// Camera is a view and projection matrix and the viewport they map onto.
type Camera struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	// Viewport is x, y, width and height in pixels.
	Viewport [4]int32
}

// Ortho2D returns a camera that maps the rectangle [left, right] x
// [bottom, top] of the z=0 plane onto a viewport of w by h pixels.
func Ortho2D(left, right, bottom, top float32, w, h int) Camera {
	return Camera{
		View:       mgl32.Ident4(),
		Projection: mgl32.Ortho(left, right, bottom, top, -1, 1),
		Viewport:   [4]int32{0, 0, int32(w), int32(h)},
	}
}

// Orbit describes a camera that looks at a point from a distance.
type Orbit struct {
	Center mgl32.Vec3
	// Distance from the center, in world units.
	Distance float32
	// Azimuth and Elevation are in degrees. An azimuth and elevation of 0
	// look along the negative z axis.
	Azimuth, Elevation float32
	// Fov is the vertical field of view in degrees. A field of view of 0
	// gives an orthographic projection showing Distance world units above
	// and below the center.
	Fov float32
}

// Camera returns the camera for a viewport of w by h pixels.
func (o Orbit) Camera(w, h int) Camera {
	aspect := float32(w) / float32(h)
	az := mgl32.DegToRad(o.Azimuth)
	el := mgl32.DegToRad(o.Elevation)
	dir := mgl32.Vec3{
		o.Distance * math32.Cos(el) * math32.Sin(az),
		o.Distance * math32.Sin(el),
		o.Distance * math32.Cos(el) * math32.Cos(az),
	}
	eye := o.Center.Add(dir)
	view := mgl32.LookAtV(eye, o.Center, mgl32.Vec3{0, 1, 0})

	near, far := o.Distance*0.01, o.Distance*100
	var proj mgl32.Mat4
	if o.Fov <= 0 {
		half := o.Distance
		proj = mgl32.Ortho(-half*aspect, half*aspect, -half, half, -far, far)
	} else {
		proj = mgl32.Perspective(mgl32.DegToRad(o.Fov), aspect, near, far)
	}
	return Camera{
		View:       view,
		Projection: proj,
		Viewport:   [4]int32{0, 0, int32(w), int32(h)},
	}
}

// project maps a point in eye space to window coordinates.
func (c Camera) project(eye mgl32.Vec4) mgl32.Vec2 {
	clip := c.Projection.Mul4x1(eye)
	ndc := clip.Vec3().Mul(1 / clip.W())
	return mgl32.Vec2{
		float32(c.Viewport[0]) + (ndc.X()+1)/2*float32(c.Viewport[2]),
		float32(c.Viewport[1]) + (ndc.Y()+1)/2*float32(c.Viewport[3]),
	}
}

// PixelsPerUnit returns the number of screen pixels one world unit spans
// at the world origin.
func (c Camera) PixelsPerUnit() float32 {
	origin := c.View.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	a := c.project(origin)
	b := c.project(origin.Add(mgl32.Vec4{1, 0, 0, 0}))
	return b.Sub(a).Len()
}

// Load sets the viewport and the fixed function matrices. The modelview
// matrix is set to the view matrix.
func (c Camera) Load() error {
	if !glutil.HasContext() {
		return volren.ErrNoGLContext
	}
	gl.Viewport(c.Viewport[0], c.Viewport[1], c.Viewport[2], c.Viewport[3])
	gl.MatrixMode(gl.PROJECTION)
	gl.LoadMatrixf(&c.Projection[0])
	gl.MatrixMode(gl.MODELVIEW)
	gl.LoadMatrixf(&c.View[0])
	return nil
}
