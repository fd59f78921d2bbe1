package shader

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v2.1/gl"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/glutil"
)

type programState int

const (
	stateUninitialised programState = iota
	stateLinked
	stateFailed
)

// Program is a GLSL program of a vertex and a fragment stage.
//
// It is compiled lazily by Enable. A program whose source is rejected is
// not compiled again until the source changes; Enable keeps returning
// false in the meantime so the caller can fall back to the fixed function
// pipeline.
type Program struct {
	vertexSrc, fragmentSrc         string
	vertexOrigins, fragmentOrigins []Origin

	state    programState
	id       uint32
	uniforms map[string]ActiveUniform
	err      error
}

// SetVertexShader sets the vertex source. The origins, which may be nil,
// are used to attribute compile errors to parts.
func (p *Program) SetVertexShader(src string, origins []Origin) {
	if src == p.vertexSrc {
		return
	}
	p.DestroyGl()
	p.vertexSrc, p.vertexOrigins = src, origins
}

// SetFragmentShader sets the fragment source.
func (p *Program) SetFragmentShader(src string, origins []Origin) {
	if src == p.fragmentSrc {
		return
	}
	p.DestroyGl()
	p.fragmentSrc, p.fragmentOrigins = src, origins
}

// Usable reports whether the current context supports shaders.
func (p *Program) Usable() bool {
	return glutil.ShadersSupported()
}

// HasCode reports whether any stage has source.
func (p *Program) HasCode() bool {
	return p.vertexSrc != "" || p.fragmentSrc != ""
}

// IsCompiled reports whether the program is linked in the current context.
func (p *Program) IsCompiled() bool {
	return p.state == stateLinked && glutil.HasContext() && gl.IsProgram(p.id)
}

// Err returns the error of the last failed compilation, nil if there was
// none since the source last changed.
func (p *Program) Err() error {
	return p.err
}

// Enable compiles the program if needed and makes it current. When it can
// not be used no program is current afterwards.
func (p *Program) Enable() bool {
	if !glutil.HasContext() || !p.Usable() || !p.HasCode() {
		return false
	}
	switch p.state {
	case stateFailed:
		gl.UseProgram(0)
		return false
	case stateLinked:
		if !gl.IsProgram(p.id) {
			// Lost along with the context it was created in.
			p.forget()
			return p.Enable()
		}
	case stateUninitialised:
		if err := p.compile(); err != nil {
			p.state = stateFailed
			p.err = err
			volren.Logger().Error("shader program failed", "err", err)
			var ce *CompileError
			if errors.As(err, &ce) {
				for _, m := range ce.Markers() {
					volren.Logger().Debug("shader error", "stage", ce.Stage, "part", m.Part, "line", m.Line, "msg", m.Message)
				}
			}
			gl.UseProgram(0)
			return false
		}
		p.state = stateLinked
	}
	gl.UseProgram(p.id)
	return true
}

// Disable unbinds the program. The program stays linked.
func (p *Program) Disable() {
	if glutil.HasContext() && p.Usable() {
		gl.UseProgram(0)
	}
}

func (p *Program) compile() error {
	var vertex, fragment uint32
	var err error
	if p.vertexSrc != "" {
		if vertex, err = compileShader(StageVertex, p.vertexSrc, p.vertexOrigins); err != nil {
			return err
		}
		defer gl.DeleteShader(vertex)
	}
	if p.fragmentSrc != "" {
		if fragment, err = compileShader(StageFragment, p.fragmentSrc, p.fragmentOrigins); err != nil {
			return err
		}
		defer gl.DeleteShader(fragment)
	}
	id, err := linkProgram(vertex, fragment)
	if err != nil {
		return err
	}
	p.id = id
	p.uniforms = listUniforms(id)
	volren.Logger().Debug("shader program linked", "id", id, "uniforms", len(p.uniforms))
	return nil
}

// Uniforms returns the active uniforms, nil if the program is not linked.
func (p *Program) Uniforms() map[string]ActiveUniform {
	if p.state != stateLinked {
		return nil
	}
	out := make(map[string]ActiveUniform, len(p.uniforms))
	for k, v := range p.uniforms {
		out[k] = v
	}
	return out
}

// SetUniformf sets a float, vec2, vec3 or vec4 uniform of the current
// program. Uniforms that the linker removed are ignored, as is everything
// when the program is not linked.
func (p *Program) SetUniformf(name string, values ...float32) error {
	u, ok, err := p.lookup(name, true, len(values))
	if !ok || err != nil {
		return err
	}
	switch len(values) {
	case 1:
		gl.Uniform1f(u.Location, values[0])
	case 2:
		gl.Uniform2f(u.Location, values[0], values[1])
	case 3:
		gl.Uniform3f(u.Location, values[0], values[1], values[2])
	case 4:
		gl.Uniform4f(u.Location, values[0], values[1], values[2], values[3])
	}
	return nil
}

// SetUniformi sets an int, ivec, bool or sampler uniform.
func (p *Program) SetUniformi(name string, values ...int32) error {
	u, ok, err := p.lookup(name, false, len(values))
	if !ok || err != nil {
		return err
	}
	switch len(values) {
	case 1:
		gl.Uniform1i(u.Location, values[0])
	case 2:
		gl.Uniform2i(u.Location, values[0], values[1])
	case 3:
		gl.Uniform3i(u.Location, values[0], values[1], values[2])
	case 4:
		gl.Uniform4i(u.Location, values[0], values[1], values[2], values[3])
	}
	return nil
}

func (p *Program) lookup(name string, isFloat bool, n int) (ActiveUniform, bool, error) {
	if n < 1 || n > 4 {
		return ActiveUniform{}, false, fmt.Errorf("%w: %d components for %q", volren.ErrInvalidUniformValue, n, name)
	}
	if p.state != stateLinked || !glutil.HasContext() {
		return ActiveUniform{}, false, nil
	}
	u, ok := p.uniforms[name]
	if !ok {
		return ActiveUniform{}, false, nil
	}
	if !u.accepts(isFloat, n) {
		kind := "int"
		if isFloat {
			kind = "float"
		}
		return u, false, fmt.Errorf("%w: can not assign %d %s components to %v", volren.ErrInvalidUniformValue, n, kind, u)
	}
	return u, true, nil
}

// DestroyGl deletes the program. It is compiled again at the next Enable.
func (p *Program) DestroyGl() {
	if p.id != 0 && glutil.HasContext() && gl.IsProgram(p.id) {
		gl.DeleteProgram(p.id)
	}
	p.forget()
}

func (p *Program) forget() {
	p.id = 0
	p.uniforms = nil
	p.state = stateUninitialised
	p.err = nil
}
