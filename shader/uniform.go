package shader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/polyfloyd/volren"
)

// Uniform is a value that can be assigned to a GLSL uniform. It is one of
// Float, Int, Vec, IVec, TextureRef or Func.
type Uniform interface {
	isUniform()
}

// Float sets a float uniform.
type Float float32

// Int sets an int or bool uniform.
type Int int32

// Vec sets a vec2, vec3 or vec4 uniform.
type Vec []float32

// IVec sets an ivec2, ivec3 or ivec4 uniform.
type IVec []int32

// TextureRef binds a texture to a free texture unit and sets a sampler
// uniform to that unit.
type TextureRef struct {
	Texture Texture
}

// Func is evaluated at every draw. It must not return another Func.
type Func func() Uniform

func (Float) isUniform()      {}
func (Int) isUniform()        {}
func (Vec) isUniform()        {}
func (IVec) isUniform()       {}
func (TextureRef) isUniform() {}
func (Func) isUniform()       {}

// Texture is implemented by everything that can be bound to a texture
// unit.
type Texture interface {
	Enable(unit int) error
	Disable()
}

// UniformOf converts a host value into a Uniform:
//
//   - float32, float64: Float
//   - int, int32, bool: Int
//   - 2 to 4 floats as a slice, array or mgl32 vector: Vec
//   - 2 to 4 ints as a slice or array: IVec
//   - a Texture: TextureRef
//   - func() Uniform: Func
//
// Anything else fails with ErrInvalidUniformValue.
func UniformOf(v any) (Uniform, error) {
	var u Uniform
	switch t := v.(type) {
	case Uniform:
		u = t
	case float32:
		u = Float(t)
	case float64:
		u = Float(t)
	case int:
		u = Int(t)
	case int32:
		u = Int(t)
	case bool:
		if t {
			u = Int(1)
		} else {
			u = Int(0)
		}
	case []float32:
		u = Vec(append([]float32(nil), t...))
	case []float64:
		vec := make(Vec, len(t))
		for i, f := range t {
			vec[i] = float32(f)
		}
		u = vec
	case [2]float32:
		u = Vec(t[:])
	case [3]float32:
		u = Vec(t[:])
	case [4]float32:
		u = Vec(t[:])
	case mgl32.Vec2:
		u = Vec(t[:])
	case mgl32.Vec3:
		u = Vec(t[:])
	case mgl32.Vec4:
		u = Vec(t[:])
	case []int32:
		u = IVec(append([]int32(nil), t...))
	case []int:
		ivec := make(IVec, len(t))
		for i, n := range t {
			ivec[i] = int32(n)
		}
		u = ivec
	case [2]int32:
		u = IVec(t[:])
	case [3]int32:
		u = IVec(t[:])
	case [4]int32:
		u = IVec(t[:])
	case Texture:
		u = TextureRef{Texture: t}
	case func() Uniform:
		u = Func(t)
	default:
		return nil, fmt.Errorf("%w: %T", volren.ErrInvalidUniformValue, v)
	}
	if err := validate(u); err != nil {
		return nil, err
	}
	return u, nil
}

func validate(u Uniform) error {
	switch t := u.(type) {
	case Vec:
		if len(t) < 2 || len(t) > 4 {
			return fmt.Errorf("%w: vector of length %d", volren.ErrInvalidUniformValue, len(t))
		}
	case IVec:
		if len(t) < 2 || len(t) > 4 {
			return fmt.Errorf("%w: vector of length %d", volren.ErrInvalidUniformValue, len(t))
		}
	case TextureRef:
		if t.Texture == nil {
			return fmt.Errorf("%w: nil texture", volren.ErrInvalidUniformValue)
		}
	case Func:
		if t == nil {
			return fmt.Errorf("%w: nil func", volren.ErrInvalidUniformValue)
		}
	case nil:
		return fmt.Errorf("%w: nil", volren.ErrInvalidUniformValue)
	}
	return nil
}

// resolve evaluates a Func.
func resolve(u Uniform) (Uniform, error) {
	f, ok := u.(Func)
	if !ok {
		return u, nil
	}
	v := f()
	if _, ok := v.(Func); ok {
		return nil, fmt.Errorf("%w: func returned a func", volren.ErrInvalidUniformValue)
	}
	if err := validate(v); err != nil {
		return nil, err
	}
	return v, nil
}
