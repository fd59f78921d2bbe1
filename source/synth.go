package source

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/chewxy/math32"

	"github.com/polyfloyd/volren/ndarray"
)

func init() {
	builders["synth"] = func(value, _ string) (*ndarray.Array, error) {
		match := synthValueRe.FindStringSubmatch(value)
		if match == nil {
			return nil, fmt.Errorf("could not parse synth value: %q (format: %s)", value, synthValueRe)
		}
		gen, ok := generators[match[1]]
		if !ok {
			return nil, fmt.Errorf("unknown generator %q, known generators: %v", match[1], Generators())
		}
		n := defaultSize
		if match[2] != "" {
			var err error
			if n, err = strconv.Atoi(match[2]); err != nil {
				return nil, err
			}
			if n < 1 {
				return nil, fmt.Errorf("synth size must be positive, got %d", n)
			}
		}
		return Synth(gen, n), nil
	}
}

const defaultSize = 64

var synthValueRe = regexp.MustCompile(`^(\w+)(?:;(\d+))?$`)

// A Generator returns the value at normalised coordinates in [-1, 1].
type Generator func(z, y, x float32) float32

var generators = map[string]Generator{
	"blob":     Blob,
	"sphere":   Sphere,
	"voxel":    nil,
	"gradient": Gradient,
}

// Generators returns the names of the built-in generators.
func Generators() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Synth evaluates gen on an n×n×n float32 grid. A nil generator produces a
// single bright voxel in the middle of an empty volume.
func Synth(gen Generator, n int) *ndarray.Array {
	a := ndarray.Zeros(ndarray.Float32, n, n, n)
	data := a.Data.([]float32)
	if gen == nil {
		data[(n/2*n+n/2)*n+n/2] = 1
		return a
	}
	coord := func(i int) float32 {
		if n == 1 {
			return 0
		}
		return float32(i)/float32(n-1)*2 - 1
	}
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				data[(z*n+y)*n+x] = gen(coord(z), coord(y), coord(x))
			}
		}
	}
	return a
}

// Blob is a sum of three gaussian blobs.
func Blob(z, y, x float32) float32 {
	blobs := [...]struct{ z, y, x, s, w float32 }{
		{0, 0, 0, 0.35, 1},
		{0.4, -0.3, 0.35, 0.2, 0.8},
		{-0.45, 0.4, -0.3, 0.25, 0.6},
	}
	var v float32
	for _, b := range blobs {
		d2 := sq(z-b.z) + sq(y-b.y) + sq(x-b.x)
		v += b.w * math32.Exp(-d2/(2*b.s*b.s))
	}
	return v
}

// Sphere falls off linearly from 1 in the centre to 0 at the unit sphere.
func Sphere(z, y, x float32) float32 {
	return math32.Max(0, 1-math32.Sqrt(sq(z)+sq(y)+sq(x)))
}

// Gradient rises linearly from 0 to 1 along x.
func Gradient(_, _, x float32) float32 {
	return (x + 1) / 2
}

func sq(v float32) float32 {
	return v * v
}
