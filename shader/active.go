package shader

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v2.1/gl"
)

// ActiveUniform is a uniform the linker kept in a program.
type ActiveUniform struct {
	Name     string
	Type     uint32
	Location int32
}

// listUniforms returns the active uniforms of a linked program. Arrays are
// listed per element.
func listUniforms(program uint32) map[string]ActiveUniform {
	var numUniforms int32
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORMS, &numUniforms)
	var bufSize int32
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORM_MAX_LENGTH, &bufSize)

	uniforms := map[string]ActiveUniform{}
	for i := uint32(0); i < uint32(numUniforms); i++ {
		var length, size int32
		var typ uint32
		nameBuf := strings.Repeat("\x00", int(bufSize))
		gl.GetActiveUniform(program, i, bufSize, &length, &size, &typ, gl.Str(nameBuf))
		name := strings.SplitN(nameBuf, "\x00", 2)[0]
		if strings.HasPrefix(name, "gl_") {
			continue
		}

		if strings.HasSuffix(name, "[0]") {
			// A [0] suffix indicates that the uniform is an array. Load the
			// locations of all elements.
			baseName := strings.TrimSuffix(name, "[0]")
			for i := 0; i < int(size); i++ {
				elemName := fmt.Sprintf("%s[%d]", baseName, i)
				loc := gl.GetUniformLocation(program, gl.Str(elemName+"\x00"))
				if loc == -1 {
					break
				}
				uniforms[elemName] = ActiveUniform{
					Name:     elemName,
					Type:     typ,
					Location: loc,
				}
			}
		} else {
			uniforms[name] = ActiveUniform{
				Name:     name,
				Type:     typ,
				Location: gl.GetUniformLocation(program, gl.Str(name+"\x00")),
			}
		}
	}
	return uniforms
}

func (u ActiveUniform) TypeLiteral() string {
	switch u.Type {
	case gl.FLOAT:
		return "float"
	case gl.FLOAT_VEC2:
		return "vec2"
	case gl.FLOAT_VEC3:
		return "vec3"
	case gl.FLOAT_VEC4:
		return "vec4"
	case gl.INT:
		return "int"
	case gl.INT_VEC2:
		return "ivec2"
	case gl.INT_VEC3:
		return "ivec3"
	case gl.INT_VEC4:
		return "ivec4"
	case gl.BOOL:
		return "bool"
	case gl.BOOL_VEC2:
		return "bvec2"
	case gl.BOOL_VEC3:
		return "bvec3"
	case gl.BOOL_VEC4:
		return "bvec4"
	case gl.FLOAT_MAT2:
		return "mat2"
	case gl.FLOAT_MAT3:
		return "mat3"
	case gl.FLOAT_MAT4:
		return "mat4"
	case gl.SAMPLER_1D:
		return "sampler1D"
	case gl.SAMPLER_2D:
		return "sampler2D"
	case gl.SAMPLER_3D:
		return "sampler3D"
	case gl.SAMPLER_CUBE:
		return "samplerCube"
	case gl.SAMPLER_1D_SHADOW:
		return "sampler1DShadow"
	case gl.SAMPLER_2D_SHADOW:
		return "sampler2DShadow"
	}
	return "invalid"
}

// accepts reports whether n float (isFloat) or int components can be
// assigned to the uniform.
func (u ActiveUniform) accepts(isFloat bool, n int) bool {
	switch u.Type {
	case gl.FLOAT, gl.FLOAT_VEC2, gl.FLOAT_VEC3, gl.FLOAT_VEC4:
		return isFloat && n == u.components()
	case gl.INT, gl.INT_VEC2, gl.INT_VEC3, gl.INT_VEC4:
		return !isFloat && n == u.components()
	case gl.BOOL, gl.BOOL_VEC2, gl.BOOL_VEC3, gl.BOOL_VEC4:
		return n == u.components()
	case gl.SAMPLER_1D, gl.SAMPLER_2D, gl.SAMPLER_3D, gl.SAMPLER_CUBE,
		gl.SAMPLER_1D_SHADOW, gl.SAMPLER_2D_SHADOW:
		return !isFloat && n == 1
	}
	return false
}

func (u ActiveUniform) components() int {
	switch u.Type {
	case gl.FLOAT_VEC2, gl.INT_VEC2, gl.BOOL_VEC2:
		return 2
	case gl.FLOAT_VEC3, gl.INT_VEC3, gl.BOOL_VEC3:
		return 3
	case gl.FLOAT_VEC4, gl.INT_VEC4, gl.BOOL_VEC4:
		return 4
	}
	return 1
}

func (u ActiveUniform) String() string {
	return fmt.Sprintf("uniform %s %s (%x)", u.TypeLiteral(), u.Name, u.Location)
}
