package render

import (
	"fmt"

	"github.com/polyfloyd/volren/colors"
	"github.com/polyfloyd/volren/shader"
)

// Material describes how a lit surface reflects light. The colours are
// multiplied with the matching components of each light.
type Material struct {
	Ambient   colors.Color
	Diffuse   colors.Color
	Specular  colors.Color
	Shininess float32
}

// DefaultMaterial is a dull white.
func DefaultMaterial() Material {
	return Material{
		Ambient:   colors.White.Scale(0.7),
		Diffuse:   colors.White.Scale(0.7),
		Specular:  colors.White.Scale(0.3),
		Shininess: 50,
	}
}

func (m Material) validate() error {
	if m.Shininess < 0 || m.Shininess > 128 {
		return fmt.Errorf("shininess must be between 0 and 128, got %g", m.Shininess)
	}
	return nil
}

// registerMaterial sets the material uniforms as functions of *m so changes are
// picked up at the next draw.
func registerMaterial(s *shader.Shader, m *Material) {
	for name, get := range map[string]func() colors.Color{
		"ambient":  func() colors.Color { return m.Ambient },
		"diffuse":  func() colors.Color { return m.Diffuse },
		"specular": func() colors.Color { return m.Specular },
	} {
		get := get
		must(s.SetStaticUniform(name, func() shader.Uniform {
			c := get().RGBA32()
			return shader.Vec(c[:])
		}))
	}
	must(s.SetStaticUniform("shininess", func() shader.Uniform {
		return shader.Float(m.Shininess)
	}))
}
