package texture

import (
	"errors"
	"testing"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/glutil"
	"github.com/polyfloyd/volren/internal/gltest"
	"github.com/polyfloyd/volren/ndarray"
)

func maxTextureSize(t *testing.T, ndim int) int {
	var n int32
	if ndim == 3 {
		gl.GetIntegerv(gl.MAX_3D_TEXTURE_SIZE, &n)
	} else {
		gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &n)
	}
	require.NotZero(t, n)
	return int(n)
}

// assertRoundTrip checks that the uploaded data maps back onto the host
// shape exactly.
func assertRoundTrip(t *testing.T, o *Object) {
	t.Helper()
	ext, corr := o.Extent(), o.Correction()
	for k, s := range o.Shape() {
		host := float64(o.Data().Shape[k])
		assert.InDelta(t, host, float64(s)*ext[k]*corr[k], 1e-9, "axis %d", k)
	}
}

func TestGLPadding(t *testing.T) {
	gltest.Init(t, 1, 1)
	defer glutil.OverrideNPOT(false)()

	o := New(2)
	defer o.Destroy()
	require.NoError(t, o.SetData(ndarray.Zeros(ndarray.Uint8, 3, 5)))
	require.NoError(t, o.Enable(0))
	o.Disable()

	assert.Equal(t, []int{4, 8}, o.Shape())
	assert.Equal(t, []float64{3, 5}, o.DataShape())
	assert.Equal(t, []float64{0.75, 0.625}, o.Extent())
	assert.Equal(t, []float64{1, 1}, o.Correction())
	assertRoundTrip(t, o)
}

func TestGLDownsample(t *testing.T) {
	gltest.Init(t, 1, 1)
	max := maxTextureSize(t, 3)

	o := New(3)
	defer o.Destroy()
	require.NoError(t, o.SetData(ndarray.Zeros(ndarray.Uint8, 4, 4, 2*max)))
	require.NoError(t, o.Enable(0))
	o.Disable()

	assert.Equal(t, []int{2, 2, max}, o.Shape())
	assert.Equal(t, []float64{2, 2, 2}, o.Correction())
	assert.Equal(t, []float64{1, 1, 1}, o.Extent())
	assertRoundTrip(t, o)
}

func TestGLDownsamplePadded(t *testing.T) {
	gltest.Init(t, 1, 1)
	defer glutil.OverrideNPOT(false)()
	max := maxTextureSize(t, 1)

	// Padded to twice the maximum, then halved: the GPU size stays a power
	// of two.
	width := 2*max - 3
	o := New(1)
	defer o.Destroy()
	require.NoError(t, o.SetData(ndarray.Zeros(ndarray.Uint8, width)))
	require.NoError(t, o.Enable(0))
	o.Disable()

	require.Equal(t, []int{max}, o.Shape())
	assert.True(t, ndarray.IsPow2(o.Shape()[0]))
	assert.Equal(t, []float64{float64(width) / 2}, o.DataShape())
	assert.Equal(t, []float64{2}, o.Correction())
	assertRoundTrip(t, o)
}

func TestGLOutOfMemory(t *testing.T) {
	gltest.Init(t, 1, 1)
	max := maxTextureSize(t, 3)

	// Still twice too large after the last halving.
	o := New(3)
	defer o.Destroy()
	require.NoError(t, o.SetData(ndarray.Zeros(ndarray.Uint8, 1, 1, max<<(MaxDownsamples+1))))
	err := o.Enable(0)
	assert.True(t, errors.Is(err, volren.ErrOutOfGPUMemory), "%v", err)
	assert.Zero(t, o.ID())
	assert.Nil(t, o.Shape())

	// The next Enable tries again.
	err = o.Enable(0)
	assert.True(t, errors.Is(err, volren.ErrOutOfGPUMemory), "%v", err)

	require.NoError(t, o.SetData(ndarray.Zeros(ndarray.Uint8, 2, 2, 2)))
	require.NoError(t, o.Enable(0))
	o.Disable()
	assert.NotZero(t, o.ID())
	assert.Equal(t, []int{2, 2, 2}, o.Shape())
}

func TestGLSameShapeKeepsID(t *testing.T) {
	gltest.Init(t, 1, 1)

	c := NewClim(2)
	defer c.Destroy()
	require.NoError(t, c.SetData(mustArray(t, []float32{0, 1, 2, 3}, 2, 2)))
	require.NoError(t, c.Enable(0))
	c.Disable()
	id := c.ID()
	require.NotZero(t, id)

	require.NoError(t, c.SetData(mustArray(t, []float32{3, 2, 1, 0}, 2, 2)))
	require.NoError(t, c.Enable(0))
	c.Disable()
	assert.Equal(t, id, c.ID())

	c.SetClim(1, 2)
	require.NoError(t, c.Enable(0))
	c.Disable()
	assert.Equal(t, id, c.ID())

	// A new shape needs a new texture.
	require.NoError(t, c.SetData(mustArray(t, []float32{0, 1, 2, 3, 4, 5}, 2, 3)))
	require.NoError(t, c.Enable(0))
	c.Disable()
	assert.Equal(t, []int{2, 3}, c.Shape())
	assert.True(t, gl.IsTexture(c.ID()))
}
