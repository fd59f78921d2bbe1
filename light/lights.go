package light

import (
	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/glutil"
)

// Lights is the flat list of lights of a scene.
type Lights struct {
	lights [MaxLights]*Light
}

// NewLights returns the lights of a new scene: light 0 is on and follows
// the camera, the others are off.
func NewLights() *Lights {
	ls := &Lights{}
	for i := range ls.lights {
		ls.lights[i] = New(i)
	}
	ls.lights[0].On()
	ls.SetCamLight(0)
	return ls
}

// Get returns light i.
func (ls *Lights) Get(i int) *Light {
	return ls.lights[i]
}

// SetCamLight makes light i the camera light. There is at most one; a
// negative i leaves the scene without one.
func (ls *Lights) SetCamLight(i int) {
	for k, l := range ls.lights {
		l.camLight = k == i
	}
}

// CamLight returns the camera light, nil if there is none.
func (ls *Lights) CamLight() *Light {
	for _, l := range ls.lights {
		if l.camLight {
			return l
		}
	}
	return nil
}

// Count returns the number of light slots the shaders have to look at: the
// highest index of a light that is on, plus one.
func (ls *Lights) Count() int {
	for i := MaxLights - 1; i >= 0; i-- {
		if ls.lights[i].on {
			return i + 1
		}
	}
	return 0
}

// Apply writes all lights to OpenGL. The camera light is positioned in eye
// space, the others in world space through the view matrix.
func (ls *Lights) Apply(view mgl32.Mat4) error {
	if !glutil.HasContext() {
		return volren.ErrNoGLContext
	}
	gl.MatrixMode(gl.MODELVIEW)
	gl.PushMatrix()
	defer gl.PopMatrix()
	for _, l := range ls.lights {
		if l.camLight {
			gl.LoadIdentity()
		} else {
			gl.LoadMatrixf(&view[0])
		}
		if err := l.Apply(); err != nil {
			return err
		}
	}
	return nil
}
