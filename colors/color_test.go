package colors

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyfloyd/volren"
)

func TestParse(t *testing.T) {
	valid := map[string]struct {
		in  any
		out Color
	}{
		"name red":      {in: "r", out: Color{1, 0, 0, 1}},
		"name black":    {in: "k", out: Color{0, 0, 0, 1}},
		"name cyan":     {in: "c", out: Color{0, 1, 1, 1}},
		"scalar":        {in: 0.5, out: Color{0.5, 0.5, 0.5, 1}},
		"scalar int":    {in: 1, out: White},
		"tuple3":        {in: []float64{0.1, 0.2, 0.3}, out: Color{0.1, 0.2, 0.3, 1}},
		"tuple4":        {in: [4]float64{0.1, 0.2, 0.3, 0.4}, out: Color{0.1, 0.2, 0.3, 0.4}},
		"tuple float32": {in: []float32{0, 1, 0}, out: Color{0, 1, 0, 1}},
		"hex":           {in: "#ff0000", out: Color{1, 0, 0, 1}},
		"short hex":     {in: "#00f", out: Color{0, 0, 1, 1}},
		"color":         {in: Color{0, 0, 0, 0}, out: Color{0, 0, 0, 0}},
		"image color":   {in: color.RGBA{R: 255, A: 255}, out: Color{1, 0, 0, 1}},
	}
	for name, tc := range valid {
		t.Run(name, func(t *testing.T) {
			c, err := Parse(tc.in)
			require.NoError(t, err)
			assert.InDelta(t, tc.out.R, c.R, 1e-9)
			assert.InDelta(t, tc.out.G, c.G, 1e-9)
			assert.InDelta(t, tc.out.B, c.B, 1e-9)
			assert.InDelta(t, tc.out.A, c.A, 1e-9)
		})
	}

	invalid := []any{
		"x",
		"red",
		"#zzzzzz",
		1.5,
		-0.1,
		[]float64{0, 1},
		[]float64{0, 1, 2},
		[]float64{0, 0, 0, 0, 0},
		struct{}{},
		nil,
	}
	for _, in := range invalid {
		_, err := Parse(in)
		if !errors.Is(err, volren.ErrInvalidColor) {
			t.Errorf("expected ErrInvalidColor for %#v, got %v", in, err)
		}
	}
}

func TestParseRef(t *testing.T) {
	c, err := ParseRef(0.5, Color{1, 0.5, 0, 0.8})
	require.NoError(t, err)
	assert.Equal(t, Color{0.5, 0.25, 0, 0.8}, c)
}

func TestHex(t *testing.T) {
	assert.Equal(t, "#ff0000", Color{1, 0, 0, 1}.Hex())
	assert.Equal(t, [4]float32{1, 0, 0, 1}, Color{1, 0, 0, 1}.RGBA32())
}
