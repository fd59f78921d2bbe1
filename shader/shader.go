package shader

import (
	"fmt"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/glutil"
)

type namedUniform struct {
	name  string
	value Uniform
}

// uniformList is a list of uniforms that keeps insertion order so texture
// units are assigned the same way at every draw.
type uniformList []namedUniform

func (l uniformList) get(name string) (Uniform, bool) {
	for _, u := range l {
		if u.name == name {
			return u.value, true
		}
	}
	return nil, false
}

func (l *uniformList) set(name string, v Uniform) {
	for i, u := range *l {
		if u.name == name {
			(*l)[i].value = v
			return
		}
	}
	*l = append(*l, namedUniform{name: name, value: v})
}

func (l *uniformList) remove(name string) {
	for i, u := range *l {
		if u.name == name {
			*l = append((*l)[:i], (*l)[i+1:]...)
			return
		}
	}
}

// Shader combines vertex and fragment Code with a Program and the uniforms
// to set on it.
//
// Static uniforms are set at every draw until they are removed. Pending
// uniforms are set at the next draw only. A draw is the sequence
// Enable, drawing the geometry, Disable; Draw wraps it.
type Shader struct {
	vertex, fragment *Code
	program          Program

	static  uniformList
	pending uniformList

	enabled  bool
	nextUnit int
	textures []Texture
}

// New creates a shader. Either code may be nil, in which case an empty
// Code is used.
func New(vertex, fragment *Code) *Shader {
	if vertex == nil {
		vertex = &Code{}
	}
	if fragment == nil {
		fragment = &Code{}
	}
	return &Shader{vertex: vertex, fragment: fragment}
}

func (s *Shader) Vertex() *Code {
	return s.vertex
}

func (s *Shader) Fragment() *Code {
	return s.fragment
}

func (s *Shader) Program() *Program {
	return &s.program
}

// SetUniform sets a uniform for the next draw only.
func (s *Shader) SetUniform(name string, v any) error {
	u, err := UniformOf(v)
	if err != nil {
		return fmt.Errorf("uniform %q: %w", name, err)
	}
	s.pending.set(name, u)
	return nil
}

// SetStaticUniform sets a uniform for every draw.
func (s *Shader) SetStaticUniform(name string, v any) error {
	u, err := UniformOf(v)
	if err != nil {
		return fmt.Errorf("uniform %q: %w", name, err)
	}
	s.static.set(name, u)
	return nil
}

func (s *Shader) RemoveStaticUniform(name string) {
	s.static.remove(name)
}

// StaticUniform returns the static uniform with the given name.
func (s *Shader) StaticUniform(name string) (Uniform, bool) {
	return s.static.get(name)
}

// sync pushes changed code into the program.
func (s *Shader) sync() {
	if s.vertex.IsDirty() || s.program.vertexSrc == "" {
		s.program.SetVertexShader(s.vertex.GetCode(), s.vertex.LineOrigins())
	}
	if s.fragment.IsDirty() || s.program.fragmentSrc == "" {
		s.program.SetFragmentShader(s.fragment.GetCode(), s.fragment.LineOrigins())
	}
}

// Enable compiles the program if needed, makes it current and applies the
// static and then the pending uniforms. It returns false when the program
// can not be used, in which case nothing is bound and the caller may fall
// back to EnableTextureOnly.
//
// Every successful Enable must be paired with a Disable. Enabling a
// shader that is already enabled fails with ErrNestedEnable.
func (s *Shader) Enable() (bool, error) {
	if s.enabled {
		return false, volren.ErrNestedEnable
	}
	if !glutil.HasContext() {
		return false, volren.ErrNoGLContext
	}
	s.sync()
	if !s.program.Enable() {
		return false, nil
	}
	s.enabled = true
	s.nextUnit = 0

	for _, list := range [...]uniformList{s.static, s.pending} {
		for _, u := range list {
			if err := s.apply(u.name, u.value); err != nil {
				s.Disable()
				return false, err
			}
		}
	}
	return true, nil
}

// EnableTextureOnly enables the textures of the named uniforms without a
// program, the n-th name on texture unit n. It is the fixed function
// fallback for when Enable returns false. Names that do not refer to a
// texture are skipped.
func (s *Shader) EnableTextureOnly(names ...string) error {
	if s.enabled {
		return volren.ErrNestedEnable
	}
	if !glutil.HasContext() {
		return volren.ErrNoGLContext
	}
	s.enabled = true
	for unit, name := range names {
		v, ok := s.pending.get(name)
		if !ok {
			if v, ok = s.static.get(name); !ok {
				continue
			}
		}
		v, err := resolve(v)
		if err != nil {
			s.Disable()
			return err
		}
		ref, ok := v.(TextureRef)
		if !ok {
			continue
		}
		if err := ref.Texture.Enable(unit); err != nil {
			s.Disable()
			return err
		}
		s.textures = append(s.textures, ref.Texture)
	}
	return nil
}

func (s *Shader) apply(name string, v Uniform) error {
	v, err := resolve(v)
	if err != nil {
		return fmt.Errorf("uniform %q: %w", name, err)
	}
	switch t := v.(type) {
	case Float:
		return s.program.SetUniformf(name, float32(t))
	case Int:
		return s.program.SetUniformi(name, int32(t))
	case Vec:
		return s.program.SetUniformf(name, t...)
	case IVec:
		return s.program.SetUniformi(name, t...)
	case TextureRef:
		unit := s.nextUnit
		if err := t.Texture.Enable(unit); err != nil {
			return fmt.Errorf("uniform %q: %w", name, err)
		}
		s.nextUnit++
		s.textures = append(s.textures, t.Texture)
		return s.program.SetUniformi(name, int32(unit))
	}
	return fmt.Errorf("%w: %T for %q", volren.ErrInvalidUniformValue, v, name)
}

// Disable unbinds the program and the textures enabled for the draw and
// clears the pending uniforms. It is safe to call when the shader is not
// enabled.
func (s *Shader) Disable() {
	for i := len(s.textures) - 1; i >= 0; i-- {
		s.textures[i].Disable()
	}
	s.textures = s.textures[:0]
	if s.enabled {
		s.program.Disable()
	}
	s.pending = s.pending[:0]
	s.enabled = false
	s.nextUnit = 0
}

// Draw runs draw between Enable and Disable. When the program can not be
// used, the textures of the fallback uniforms are enabled instead and draw
// is still called so it can render with the fixed function pipeline; with
// no fallback nothing is drawn. The shader is always disabled afterwards.
func (s *Shader) Draw(draw func(programmable bool) error, fallback ...string) error {
	ok, err := s.Enable()
	if err != nil {
		return err
	}
	defer s.Disable()
	if !ok {
		if len(fallback) == 0 {
			return nil
		}
		if err := s.EnableTextureOnly(fallback...); err != nil {
			return err
		}
	}
	return draw(ok)
}

// DestroyGl releases the program. It is compiled again at the next draw.
func (s *Shader) DestroyGl() {
	s.program.DestroyGl()
}
