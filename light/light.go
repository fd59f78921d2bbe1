// Package light describes the OpenGL lights of a scene.
package light

import (
	"fmt"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/colors"
	"github.com/polyfloyd/volren/glutil"
)

// MaxLights is the number of light slots OpenGL guarantees.
const MaxLights = 8

// component is an ambient, diffuse or specular term: either a scale of the
// light colour or a colour of its own.
type component struct {
	scale float64
	color *colors.Color
}

func (c component) effective(base colors.Color) colors.Color {
	if c.color != nil {
		return *c.color
	}
	return base.Scale(c.scale)
}

func parseComponent(v any) (component, error) {
	switch t := v.(type) {
	case float64:
		return scaleComponent(t)
	case float32:
		return scaleComponent(float64(t))
	case int:
		return scaleComponent(float64(t))
	}
	c, err := colors.Parse(v)
	if err != nil {
		return component{}, err
	}
	return component{color: &c}, nil
}

func scaleComponent(s float64) (component, error) {
	if s < 0 || s > 1 {
		return component{}, fmt.Errorf("%w: scale %v is outside [0, 1]", volren.ErrInvalidColor, s)
	}
	return component{scale: s}, nil
}

// Light is one of the OpenGL light slots.
type Light struct {
	index    int
	on       bool
	camLight bool
	color    colors.Color
	ambient  component
	diffuse  component
	specular component
	position mgl32.Vec4
}

// New returns the light for slot index, switched off. Its default position
// is a direction towards the viewer.
func New(index int) *Light {
	if index < 0 || index >= MaxLights {
		panic(fmt.Sprintf("light: invalid index %d", index))
	}
	return &Light{
		index:    index,
		color:    colors.White,
		ambient:  component{scale: 0.2},
		diffuse:  component{scale: 1},
		specular: component{scale: 0.1},
		position: mgl32.Vec4{0, 0, 1, 0},
	}
}

func (l *Light) Index() int {
	return l.index
}

func (l *Light) On() {
	l.on = true
}

func (l *Light) Off() {
	l.on = false
}

func (l *Light) IsOn() bool {
	return l.on
}

func (l *Light) Color() colors.Color {
	return l.color
}

// SetColor sets the reference colour the ambient, diffuse and specular
// scales apply to. See colors.Parse for the accepted values.
func (l *Light) SetColor(v any) error {
	c, err := colors.Parse(v)
	if err != nil {
		return err
	}
	l.color = c
	return nil
}

// Ambient returns the effective ambient colour.
func (l *Light) Ambient() colors.Color {
	return l.ambient.effective(l.color)
}

// SetAmbient sets the ambient term to a scale of the light colour when v is
// a number and to a colour otherwise.
func (l *Light) SetAmbient(v any) error {
	c, err := parseComponent(v)
	if err != nil {
		return err
	}
	l.ambient = c
	return nil
}

func (l *Light) Diffuse() colors.Color {
	return l.diffuse.effective(l.color)
}

func (l *Light) SetDiffuse(v any) error {
	c, err := parseComponent(v)
	if err != nil {
		return err
	}
	l.diffuse = c
	return nil
}

func (l *Light) Specular() colors.Color {
	return l.specular.effective(l.color)
}

func (l *Light) SetSpecular(v any) error {
	c, err := parseComponent(v)
	if err != nil {
		return err
	}
	l.specular = c
	return nil
}

// Position returns the position, or the direction when w is 0.
func (l *Light) Position() mgl32.Vec4 {
	return l.position
}

func (l *Light) SetPosition(x, y, z, w float32) {
	l.position = mgl32.Vec4{x, y, z, w}
}

// IsDirectional reports whether the light is infinitely far away.
func (l *Light) IsDirectional() bool {
	return l.position.W() == 0
}

// IsCamLight reports whether the light moves along with the camera.
func (l *Light) IsCamLight() bool {
	return l.camLight
}

// glPosition is what Apply passes to OpenGL. A light that is off has no
// position, which the shaders treat as disabled.
func (l *Light) glPosition() mgl32.Vec4 {
	if !l.on {
		return mgl32.Vec4{}
	}
	return l.position
}

// Apply writes the light to its OpenGL slot. The position is transformed
// by the current modelview matrix.
func (l *Light) Apply() error {
	if !glutil.HasContext() {
		return volren.ErrNoGLContext
	}
	slot := uint32(gl.LIGHT0 + l.index)
	pos := l.glPosition()
	gl.Lightfv(slot, gl.POSITION, &pos[0])
	if !l.on {
		gl.Disable(slot)
		return nil
	}
	for _, c := range [...]struct {
		pname uint32
		color colors.Color
	}{
		{gl.AMBIENT, l.Ambient()},
		{gl.DIFFUSE, l.Diffuse()},
		{gl.SPECULAR, l.Specular()},
	} {
		rgba := c.color.RGBA32()
		gl.Lightfv(slot, c.pname, &rgba[0])
	}
	gl.Lightf(slot, gl.CONSTANT_ATTENUATION, 1)
	gl.Lightf(slot, gl.LINEAR_ATTENUATION, 0)
	gl.Lightf(slot, gl.QUADRATIC_ATTENUATION, 0)
	gl.Enable(slot)
	return nil
}
