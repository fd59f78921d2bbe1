// Package colors parses the colour specifications accepted throughout
// volren into RGBA quadruples.
package colors

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/polyfloyd/volren"
)

// Color is an RGBA colour with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

var (
	White = Color{1, 1, 1, 1}
	Black = Color{0, 0, 0, 1}
)

var named = map[byte]Color{
	'r': {1, 0, 0, 1},
	'g': {0, 1, 0, 1},
	'b': {0, 0, 1, 1},
	'c': {0, 1, 1, 1},
	'm': {1, 0, 1, 1},
	'y': {1, 1, 0, 1},
	'k': {0, 0, 0, 1},
	'w': {1, 1, 1, 1},
}

// Parse parses v into a colour. A lone number is interpreted as a scale of
// white. See ParseRef for the accepted values.
func Parse(v any) (Color, error) {
	return ParseRef(v, White)
}

// ParseRef parses v into a colour. Accepted are:
//
//   - a float or int: ref with its RGB components scaled by the number
//   - a one character name out of "rgbcmykw"
//   - a hex string such as "#f80" or "#ff8800"
//   - a 3 or 4 tuple of floats as a slice or array
//   - a Color or an image/color.Color
//
// Everything else, as well as components outside [0, 1], fails with
// ErrInvalidColor.
func ParseRef(v any, ref Color) (Color, error) {
	switch c := v.(type) {
	case Color:
		return c.validate()
	case *Color:
		if c == nil {
			break
		}
		return c.validate()
	case float64:
		return ref.Scale(c).validate()
	case float32:
		return ref.Scale(float64(c)).validate()
	case int:
		return ref.Scale(float64(c)).validate()
	case string:
		return parseString(c)
	case []float64:
		return fromTuple(c)
	case []float32:
		t := make([]float64, len(c))
		for i, f := range c {
			t[i] = float64(f)
		}
		return fromTuple(t)
	case [3]float64:
		return fromTuple(c[:])
	case [4]float64:
		return fromTuple(c[:])
	case [3]float32:
		return fromTuple([]float64{float64(c[0]), float64(c[1]), float64(c[2])})
	case [4]float32:
		return fromTuple([]float64{float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3])})
	case color.Color:
		r, g, b, a := c.RGBA()
		if a == 0 {
			return Color{}, nil
		}
		// Undo the alpha premultiplication.
		return Color{
			R: float64(r) / float64(a),
			G: float64(g) / float64(a),
			B: float64(b) / float64(a),
			A: float64(a) / 0xffff,
		}, nil
	}
	return Color{}, fmt.Errorf("%w: can not interpret %#v", volren.ErrInvalidColor, v)
}

func parseString(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		if c, ok := named[s[0]]; ok {
			return c, nil
		}
		return Color{}, fmt.Errorf("%w: unknown color name %q", volren.ErrInvalidColor, s)
	}
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %v", volren.ErrInvalidColor, err)
		}
		return Color{R: c.R, G: c.G, B: c.B, A: 1}, nil
	}
	return Color{}, fmt.Errorf("%w: %q", volren.ErrInvalidColor, s)
}

func fromTuple(t []float64) (Color, error) {
	switch len(t) {
	case 3:
		return Color{t[0], t[1], t[2], 1}.validate()
	case 4:
		return Color{t[0], t[1], t[2], t[3]}.validate()
	}
	return Color{}, fmt.Errorf("%w: expected 3 or 4 components, got %d", volren.ErrInvalidColor, len(t))
}

func (c Color) validate() (Color, error) {
	for _, v := range [...]float64{c.R, c.G, c.B, c.A} {
		if v < 0 || v > 1 || v != v {
			return Color{}, fmt.Errorf("%w: component %v of %v is outside [0, 1]", volren.ErrInvalidColor, v, c)
		}
	}
	return c, nil
}

// Scale multiplies the RGB components by s. Alpha is kept.
func (c Color) Scale(s float64) Color {
	return Color{R: c.R * s, G: c.G * s, B: c.B * s, A: c.A}
}

// Mul multiplies the colours component wise.
func (c Color) Mul(o Color) Color {
	return Color{R: c.R * o.R, G: c.G * o.G, B: c.B * o.B, A: c.A * o.A}
}

// RGBA32 returns the components as float32, the layout expected by the GL
// light and material calls.
func (c Color) RGBA32() [4]float32 {
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
}

// Hex formats the RGB components as "#rrggbb".
func (c Color) Hex() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%.3g, %.3g, %.3g, %.3g)", c.R, c.G, c.B, c.A)
}
