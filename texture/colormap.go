package texture

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/chewxy/math32"
	"gopkg.in/yaml.v3"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/colors"
	"github.com/polyfloyd/volren/ndarray"
)

// ColormapSize is the number of samples in every colormap.
const ColormapSize = 256

// Stop is a colour at a position in [0, 1] along a colormap.
type Stop struct {
	Pos   float64
	Color colors.Color
}

// Map is the serialised form of a colormap: either a list of evenly spaced
// colours or per channel breakpoints.
type Map struct {
	Colors [][]float64            `yaml:"colors,omitempty"`
	Nodes  map[string][][]float64 `yaml:"nodes,omitempty"`
}

//go:embed colormaps.yaml
var presetsYAML []byte

var presets map[string]Map

func init() {
	if err := yaml.Unmarshal(presetsYAML, &presets); err != nil {
		panic(fmt.Sprintf("texture: invalid colormap presets: %v", err))
	}
}

// Presets returns the names of the built-in colormaps.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadColormapFile reads a Map from a YAML file.
func LoadColormapFile(filename string) (Map, error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return Map{}, err
	}
	var m Map
	if err := yaml.Unmarshal(buf, &m); err != nil {
		return Map{}, fmt.Errorf("error parsing colormap %q: %v", filename, err)
	}
	return m, nil
}

// Colormap is a 1D texture of 256 RGBA samples used to look up the colour of
// scalar data. It is sampled with nearest neighbour filtering.
type Colormap struct {
	*Object
	samples [ColormapSize][4]float32
}

// NewColormap creates a grayscale colormap.
func NewColormap() *Colormap {
	c := &Colormap{Object: New(1)}
	if err := c.SetMap("gray"); err != nil {
		panic(err)
	}
	return c
}

// SetMap replaces the colormap. Accepted are:
//
//   - the name of a preset
//   - [][]float64 or []colors.Color: evenly spaced colours of 3 or 4
//     components, linearly resampled
//   - []Stop: colours at positions
//   - map[string][][2]float64: per channel ("r", "g", "b", "a") lists of
//     (position, value) breakpoints, linearly interpolated
//   - Map, as decoded from YAML
//   - *ndarray.Array of shape (N, 3) or (N, 4)
func (c *Colormap) SetMap(v any) error {
	var samples [ColormapSize][4]float32
	var err error
	switch m := v.(type) {
	case string:
		p, ok := presets[strings.ToLower(m)]
		if !ok {
			return fmt.Errorf("unknown colormap %q", m)
		}
		return c.SetMap(p)
	case Map:
		if m.Nodes != nil {
			nodes := map[string][][2]float64{}
			for ch, list := range m.Nodes {
				for _, n := range list {
					if len(n) != 2 {
						return fmt.Errorf("%w: colormap node %v of channel %q is not a (position, value) pair", volren.ErrInvalidColor, n, ch)
					}
					nodes[ch] = append(nodes[ch], [2]float64{n[0], n[1]})
				}
			}
			samples, err = fromNodes(nodes)
		} else {
			samples, err = fromTuples(m.Colors)
		}
	case [][]float64:
		samples, err = fromTuples(m)
	case []colors.Color:
		tuples := make([][]float64, len(m))
		for i, col := range m {
			tuples[i] = []float64{col.R, col.G, col.B, col.A}
		}
		samples, err = fromTuples(tuples)
	case []Stop:
		samples, err = fromStops(m)
	case map[string][][2]float64:
		samples, err = fromNodes(m)
	case *ndarray.Array:
		if len(m.Shape) != 2 || (m.Shape[1] != 3 && m.Shape[1] != 4) {
			return fmt.Errorf("%w: colormap arrays must be Nx3 or Nx4, got %v", volren.ErrInvalidShape, m.Shape)
		}
		tuples := make([][]float64, m.Shape[0])
		for i := range tuples {
			tuples[i] = make([]float64, m.Shape[1])
			for j := range tuples[i] {
				tuples[i][j] = m.At(i*m.Shape[1] + j)
			}
		}
		samples, err = fromTuples(tuples)
	default:
		return fmt.Errorf("%w: can not make a colormap out of %T", volren.ErrInvalidColor, v)
	}
	if err != nil {
		return err
	}

	c.samples = samples
	flat := make([]float32, 0, ColormapSize*4)
	for _, s := range samples {
		flat = append(flat, s[:]...)
	}
	a, err := ndarray.New(flat, ColormapSize, 4)
	if err != nil {
		return err
	}
	return c.Object.SetData(a)
}

// Samples returns the lookup table.
func (c *Colormap) Samples() [ColormapSize][4]float32 {
	return c.samples
}

// At looks up the colour for t in [0, 1] the way the GPU does with nearest
// neighbour filtering.
func (c *Colormap) At(t float32) [4]float32 {
	i := int(math32.Floor(t * ColormapSize))
	if i < 0 {
		i = 0
	} else if i >= ColormapSize {
		i = ColormapSize - 1
	}
	return c.samples[i]
}

func fromTuples(tuples [][]float64) (out [ColormapSize][4]float32, err error) {
	if len(tuples) == 0 {
		return out, fmt.Errorf("%w: empty colormap", volren.ErrInvalidColor)
	}
	cols := make([][4]float64, len(tuples))
	for i, t := range tuples {
		col, err := colors.Parse(t)
		if err != nil {
			return out, err
		}
		cols[i] = [4]float64{col.R, col.G, col.B, col.A}
	}
	if len(cols) == 1 {
		for i := range out {
			out[i] = toFloat32(cols[0])
		}
		return out, nil
	}
	for i := range out {
		x := float64(i) / (ColormapSize - 1) * float64(len(cols)-1)
		k := int(x)
		if k >= len(cols)-1 {
			k = len(cols) - 2
		}
		f := x - float64(k)
		var s [4]float64
		for ch := range s {
			s[ch] = cols[k][ch]*(1-f) + cols[k+1][ch]*f
		}
		out[i] = toFloat32(s)
	}
	return out, nil
}

func fromStops(stops []Stop) (out [ColormapSize][4]float32, err error) {
	nodes := map[string][][2]float64{}
	for _, s := range stops {
		if _, err := colors.Parse(s.Color); err != nil {
			return out, err
		}
		nodes["r"] = append(nodes["r"], [2]float64{s.Pos, s.Color.R})
		nodes["g"] = append(nodes["g"], [2]float64{s.Pos, s.Color.G})
		nodes["b"] = append(nodes["b"], [2]float64{s.Pos, s.Color.B})
		nodes["a"] = append(nodes["a"], [2]float64{s.Pos, s.Color.A})
	}
	return fromNodes(nodes)
}

var channels = [...]string{"r", "g", "b", "a"}

func fromNodes(nodes map[string][][2]float64) (out [ColormapSize][4]float32, err error) {
	for name := range nodes {
		if name != "r" && name != "g" && name != "b" && name != "a" {
			return out, fmt.Errorf("%w: unknown colormap channel %q", volren.ErrInvalidColor, name)
		}
	}
	for ch, name := range channels {
		list := append([][2]float64(nil), nodes[name]...)
		if len(list) == 0 {
			// Missing colour channels are black, a missing alpha is opaque.
			def := 0.0
			if name == "a" {
				def = 1
			}
			list = [][2]float64{{0, def}}
		}
		for _, n := range list {
			if n[0] < 0 || n[0] > 1 || n[1] < 0 || n[1] > 1 {
				return out, fmt.Errorf("%w: colormap node %v of channel %q is outside [0, 1]", volren.ErrInvalidColor, n, name)
			}
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i][0] < list[j][0] })
		for i := range out {
			out[i][ch] = float32(interpolate(list, float64(i)/(ColormapSize-1)))
		}
	}
	return out, nil
}

// interpolate evaluates the piecewise linear function through nodes at t.
// Beyond the outer nodes the function is constant.
func interpolate(nodes [][2]float64, t float64) float64 {
	if t <= nodes[0][0] {
		return nodes[0][1]
	}
	for i := 1; i < len(nodes); i++ {
		a, b := nodes[i-1], nodes[i]
		if t <= b[0] {
			if b[0] == a[0] {
				return b[1]
			}
			f := (t - a[0]) / (b[0] - a[0])
			return a[1]*(1-f) + b[1]*f
		}
	}
	return nodes[len(nodes)-1][1]
}

func toFloat32(v [4]float64) [4]float32 {
	return [4]float32{float32(v[0]), float32(v[1]), float32(v[2]), float32(v[3])}
}
