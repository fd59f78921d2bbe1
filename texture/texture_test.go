package texture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/colors"
	"github.com/polyfloyd/volren/ndarray"
)

func mustArray(t *testing.T, data any, shape ...int) *ndarray.Array {
	t.Helper()
	a, err := ndarray.New(data, shape...)
	require.NoError(t, err)
	return a
}

func TestCheckShape(t *testing.T) {
	cases := []struct {
		name  string
		ndim  int
		shape []int
		ok    bool
	}{
		{name: "2d scalar", ndim: 2, shape: []int{4, 5}, ok: true},
		{name: "2d rgb", ndim: 2, shape: []int{4, 5, 3}, ok: true},
		{name: "2d rgba", ndim: 2, shape: []int{4, 5, 4}, ok: true},
		{name: "2d one channel", ndim: 2, shape: []int{4, 5, 1}, ok: true},
		{name: "2d two channels", ndim: 2, shape: []int{4, 5, 2}},
		{name: "3d as 2d", ndim: 2, shape: []int{2, 4, 5, 3}},
		{name: "1d for 3d", ndim: 3, shape: []int{8}},
		{name: "3d", ndim: 3, shape: []int{2, 3, 4}, ok: true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			n := 1
			for _, s := range c.shape {
				n *= s
			}
			err := New(c.ndim).SetData(mustArray(t, make([]uint8, n), c.shape...))
			if c.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, volren.ErrInvalidShape), "got %v", err)
			}
		})
	}
}

func TestEnableWithoutContext(t *testing.T) {
	o := New(2)
	require.NoError(t, o.SetData(mustArray(t, []uint8{1, 2, 3, 4}, 2, 2)))
	assert.True(t, errors.Is(o.Enable(0), volren.ErrNoGLContext))
	assert.Nil(t, o.Shape())
	assert.Equal(t, []float64{1, 1}, o.Extent())
	o.Disable()
	o.Destroy()
	assert.Nil(t, o.Data())
}

func TestUnpackNormalization(t *testing.T) {
	a, b := unpackNormalization(ndarray.Uint8)
	assert.InDelta(t, 1.0/255, a, 1e-12)
	assert.Equal(t, 0.0, b)

	a, b = unpackNormalization(ndarray.Uint16)
	assert.InDelta(t, 1.0/65535, a, 1e-12)
	assert.Equal(t, 0.0, b)

	// Without a context the pre 4.2 rule for signed types applies.
	a, b = unpackNormalization(ndarray.Int8)
	assert.InDelta(t, 2.0/255, a, 1e-12)
	assert.InDelta(t, 1.0/255, b, 1e-12)

	a, b = unpackNormalization(ndarray.Float32)
	assert.Equal(t, 1.0, a)
	assert.Equal(t, 0.0, b)
}

func TestClimScaleBias(t *testing.T) {
	c := NewClim(2)
	require.NoError(t, c.SetData(mustArray(t, []float32{-20, 0, 40, 100}, 2, 2)))
	assert.Equal(t, -20.0, c.ClimRef().Min)
	assert.Equal(t, 100.0, c.ClimRef().Max)

	for _, w := range [][2]float64{{-20, 100}, {0, 50}, {10, 11}, {-20, -10}} {
		c.SetClim(w[1], w[0])
		scale, bias := c.ScaleBias()
		for _, v := range []float64{-20, -5, 0, 10, 33, 100} {
			want := (v - w[0]) / (w[1] - w[0])
			assert.InDelta(t, want, float64(float32(v)*scale+bias), 1e-5, "window %v value %v", w, v)
		}
	}
}

// TestClimTransferChain checks that the pixel transfer at upload followed by
// the scale and bias applied in the shader maps the current clim onto
// [0, 1], also after the clim changed since the upload.
func TestClimTransferChain(t *testing.T) {
	cases := []struct {
		name     string
		data     any
		dtype    ndarray.Dtype
		uploaded [2]float64
		current  [2]float64
		values   []float64
	}{
		{
			name:     "uint8 unchanged",
			data:     []uint8{0, 255},
			dtype:    ndarray.Uint8,
			uploaded: [2]float64{10, 200},
			current:  [2]float64{10, 200},
			values:   []float64{10, 50, 200},
		},
		{
			name:     "uint8 narrowed",
			data:     []uint8{0, 255},
			dtype:    ndarray.Uint8,
			uploaded: [2]float64{0, 255},
			current:  [2]float64{50, 100},
			values:   []float64{50, 75, 100},
		},
		{
			name:     "int16 shifted",
			data:     []int16{-1000, 1000},
			dtype:    ndarray.Int16,
			uploaded: [2]float64{-1000, 1000},
			current:  [2]float64{-500, 0},
			values:   []float64{-500, -250, 0},
		},
		{
			name:     "float32",
			data:     []float32{-1, 1},
			dtype:    ndarray.Float32,
			uploaded: [2]float64{-1, 1},
			current:  [2]float64{0, 0.5},
			values:   []float64{0, 0.25, 0.5},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tex := NewClim(1)
			require.NoError(t, tex.SetData(mustArray(t, c.data, 2)))
			tex.SetClim(c.uploaded[0], c.uploaded[1])
			transfer := tex.pixelTransfer(c.dtype)
			// Pretend the upload succeeded.
			tex.gpu = uploaded{shape: []int{2}, dataShape: []float64{2}, channels: 1, dtype: c.dtype}

			tex.SetClim(c.current[0], c.current[1])
			scale, bias := tex.TextureScaleBias()
			a, b := unpackNormalization(c.dtype)
			for _, v := range c.values {
				n := v*a + b
				stored := n*float64(transfer.scale[0]) + float64(transfer.bias[0])
				got := stored*float64(scale) + float64(bias)
				want := (v - c.current[0]) / (c.current[1] - c.current[0])
				assert.InDelta(t, want, got, 1e-4, "value %v", v)
			}
		})
	}
}

func TestClimSetClimSchedulesUpload(t *testing.T) {
	c := NewClim(1)
	require.NoError(t, c.SetData(mustArray(t, []float32{0, 1}, 2)))
	c.needsUpload = false
	c.SetClim(0, 1)
	assert.False(t, c.needsUpload)
	c.SetClim(0, 0.5)
	assert.True(t, c.needsUpload)
}

func TestColormapStops(t *testing.T) {
	c := NewColormap()
	err := c.SetMap([]Stop{
		{Pos: 0, Color: colors.Color{R: 1, A: 1}},
		{Pos: 1, Color: colors.Color{B: 1, A: 1}},
	})
	require.NoError(t, err)
	samples := c.Samples()
	for i, s := range samples {
		f := float32(i) / (ColormapSize - 1)
		assert.InDelta(t, 1-f, s[0], 1.0/255, "sample %d", i)
		assert.InDelta(t, 0, s[1], 1.0/255, "sample %d", i)
		assert.InDelta(t, f, s[2], 1.0/255, "sample %d", i)
		assert.InDelta(t, 1, s[3], 1.0/255, "sample %d", i)
	}
	assert.Equal(t, []int{ColormapSize, 4}, c.Data().Shape)
	assert.Equal(t, samples[0], c.At(0))
	assert.Equal(t, samples[ColormapSize-1], c.At(1))
	assert.Equal(t, samples[128], c.At(0.5))
}

func TestColormapForms(t *testing.T) {
	cases := map[string]any{
		"preset":  "hot",
		"tuples":  [][]float64{{0, 0, 0}, {1, 1, 1, 0.5}},
		"colors":  []colors.Color{colors.Black, colors.White},
		"nodes":   map[string][][2]float64{"r": {{0, 0}, {1, 1}}},
		"yaml":    Map{Colors: [][]float64{{0, 0, 0}, {1, 1, 1}}},
		"yamlmap": Map{Nodes: map[string][][]float64{"g": {{0, 1}, {1, 0}}}},
		"array":   mustArray(t, []float32{0, 0, 0, 1, 1, 1}, 2, 3),
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, NewColormap().SetMap(v))
		})
	}

	c := NewColormap()
	require.NoError(t, c.SetMap(map[string][][2]float64{"r": {{0, 0}, {1, 1}}}))
	last := c.Samples()[ColormapSize-1]
	assert.Equal(t, [4]float32{1, 0, 0, 1}, last)
}

func TestColormapInvalid(t *testing.T) {
	cases := map[string]struct {
		v   any
		err error
	}{
		"unknown type":    {v: 42, err: volren.ErrInvalidColor},
		"out of range":    {v: [][]float64{{0, 0, 2}}, err: volren.ErrInvalidColor},
		"two components":  {v: [][]float64{{0, 0}}, err: volren.ErrInvalidColor},
		"empty":           {v: [][]float64{}, err: volren.ErrInvalidColor},
		"unknown channel": {v: map[string][][2]float64{"x": {{0, 1}}}, err: volren.ErrInvalidColor},
		"bad shape":       {v: mustArray(t, []float32{0, 0}, 1, 2), err: volren.ErrInvalidShape},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			err := NewColormap().SetMap(c.v)
			assert.True(t, errors.Is(err, c.err), "got %v", err)
		})
	}
	assert.Error(t, NewColormap().SetMap("nonexistent"))
}

func TestPresets(t *testing.T) {
	names := Presets()
	assert.Contains(t, names, "gray")
	assert.Contains(t, names, "jet")
	assert.Contains(t, names, "viridis")
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, NewColormap().SetMap(name))
		})
	}
}
