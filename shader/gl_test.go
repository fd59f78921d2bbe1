package shader

import (
	"errors"
	"testing"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/internal/gltest"
	"github.com/polyfloyd/volren/ndarray"
	"github.com/polyfloyd/volren/texture"
)

const testVertex = `
void main() {
    gl_Position = ftransform();
}
`

const testFragment = `
uniform sampler2D texture;
uniform vec4 tint;
uniform float gain;
// --uniforms--

void main() {
    gl_FragColor = texture2D(texture, vec2(0.5)) * tint * gain;
}
`

func newTestTexture(t *testing.T) *texture.Object {
	a, err := ndarray.New([]uint8{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	tex := texture.New(2)
	require.NoError(t, tex.SetData(a))
	return tex
}

func TestGLFallback(t *testing.T) {
	gltest.Init(t, 1, 1)
	tex := newTestTexture(t)
	defer tex.Destroy()

	frag, err := NewCode(NewPart("broken", "1", testFragment+"\nthis is not glsl\n"))
	require.NoError(t, err)
	s := New(nil, frag)
	require.NoError(t, s.Vertex().Add(NewPart("vertex", "1", testVertex)))
	require.NoError(t, s.SetStaticUniform("texture", tex))

	ok, err := s.Enable()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, s.Program().IsCompiled())
	assert.True(t, errors.Is(s.Program().Err(), volren.ErrShaderCompile))

	require.NoError(t, s.EnableTextureOnly("texture"))
	var active, bound int32
	gl.GetIntegerv(gl.ACTIVE_TEXTURE, &active)
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &bound)
	assert.Equal(t, int32(gl.TEXTURE0), active)
	assert.Equal(t, int32(tex.ID()), bound)
	assert.NotZero(t, bound)
	s.Disable()

	// The failure sticks until the code changes.
	ok, err = s.Enable()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGLUniforms(t *testing.T) {
	gltest.Init(t, 1, 1)
	tex := newTestTexture(t)
	defer tex.Destroy()

	frag, err := NewCode(NewPart("fragment", "1", testFragment))
	require.NoError(t, err)
	s := New(nil, frag)
	require.NoError(t, s.Vertex().Add(NewPart("vertex", "1", testVertex)))
	defer s.DestroyGl()

	require.NoError(t, s.SetStaticUniform("texture", tex))
	require.NoError(t, s.SetStaticUniform("tint", []float32{1, 0.5, 0.25, 1}))
	require.NoError(t, s.SetUniform("gain", float32(2)))
	require.NoError(t, s.SetUniform("unused", 3))

	ok, err := s.Enable()
	require.NoError(t, err)
	require.True(t, ok, "%v", s.Program().Err())

	uniforms := s.Program().Uniforms()
	assert.Contains(t, uniforms, "tint")
	assert.Equal(t, "vec4", uniforms["tint"].TypeLiteral())
	assert.Equal(t, "sampler2D", uniforms["texture"].TypeLiteral())
	assert.NotContains(t, uniforms, "unused")

	var gain float32
	gl.GetUniformfv(s.Program().id, uniforms["gain"].Location, &gain)
	assert.Equal(t, float32(2), gain)

	_, err = s.Enable()
	assert.True(t, errors.Is(err, volren.ErrNestedEnable))
	s.Disable()

	// Pending uniforms are gone after a draw, an int does not fit a vec4.
	require.NoError(t, s.SetUniform("tint", 1))
	_, err = s.Enable()
	assert.True(t, errors.Is(err, volren.ErrInvalidUniformValue))
	assert.False(t, s.enabled)

	// Values are not coerced, an int does not fit a float.
	require.NoError(t, s.SetUniform("gain", 2))
	_, err = s.Enable()
	assert.True(t, errors.Is(err, volren.ErrInvalidUniformValue))
	assert.False(t, s.enabled)
}

func TestGLFailedEnableUnbinds(t *testing.T) {
	gltest.Init(t, 1, 1)
	newShader := func(name, fragment string) *Shader {
		frag, err := NewCode(NewPart(name, "1", fragment))
		require.NoError(t, err)
		s := New(nil, frag)
		require.NoError(t, s.Vertex().Add(NewPart("vertex", "1", testVertex)))
		return s
	}
	good := newShader("good", "void main() {\n    gl_FragColor = vec4(1.0);\n}\n")
	defer good.DestroyGl()
	broken := newShader("broken", "this is not glsl\n")
	defer broken.DestroyGl()

	current := func() int32 {
		var id int32
		gl.GetIntegerv(gl.CURRENT_PROGRAM, &id)
		return id
	}

	// Once when compiling fails and once more in the failed state.
	for i := 0; i < 2; i++ {
		ok, err := good.Enable()
		require.NoError(t, err)
		require.True(t, ok, "%v", good.Program().Err())
		require.NotZero(t, current())

		ok, err = broken.Enable()
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, current(), "attempt %d", i)
		good.Disable()
	}
}
