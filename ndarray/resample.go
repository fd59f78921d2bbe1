package ndarray

import (
	"fmt"
	"reflect"

	"github.com/polyfloyd/volren"
)

// NextPow2 returns the smallest power of two that is >= n.
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Pad returns a copy of a enlarged to shape. The new elements are zero and
// the original data occupies the lowest indices of every axis.
func (a *Array) Pad(shape []int) (*Array, error) {
	if len(shape) != len(a.Shape) {
		return nil, fmt.Errorf("%w: can not pad %v to %v", volren.ErrInvalidShape, a.Shape, shape)
	}
	same := true
	for k := range shape {
		if shape[k] < a.Shape[k] {
			return nil, fmt.Errorf("%w: can not pad %v to %v", volren.ErrInvalidShape, a.Shape, shape)
		}
		same = same && shape[k] == a.Shape[k]
	}
	if same {
		return a, nil
	}

	out := Zeros(a.Dtype(), shape...)
	src := reflect.ValueOf(a.Data)
	dst := reflect.ValueOf(out.Data)
	last := len(shape) - 1
	rowLen := a.Shape[last]

	// Copy one row of the innermost axis at a time.
	idx := make([]int, len(shape))
	for srcOff := 0; srcOff < a.Len(); srcOff += rowLen {
		dstOff := 0
		for k := 0; k < last; k++ {
			dstOff = dstOff*shape[k] + idx[k]
		}
		dstOff *= shape[last]
		reflect.Copy(dst.Slice(dstOff, dstOff+rowLen), src.Slice(srcOff, srcOff+rowLen))

		for k := last - 1; k >= 0; k-- {
			idx[k]++
			if idx[k] < a.Shape[k] {
				break
			}
			idx[k] = 0
		}
	}
	out.Sampling, out.Origin = a.Sampling, a.Origin
	return out, nil
}

// PadPow2 pads the first spatial axes of a to powers of two. A trailing
// channel axis is left alone.
func (a *Array) PadPow2(spatial int) (*Array, error) {
	shape := append([]int(nil), a.Shape...)
	for k := 0; k < spatial && k < len(shape); k++ {
		shape[k] = NextPow2(shape[k])
	}
	return a.Pad(shape)
}

// downsampleKernel is a 2 sample box filter convolved with a [1/4 1/2 1/4]
// smoothing kernel. Output sample i is centered between input samples 2i
// and 2i+1.
var downsampleKernel = [4]float64{1.0 / 8, 3.0 / 8, 3.0 / 8, 1.0 / 8}

// Downsample halves the size of each of the first spatial axes, rounding
// down. Axes of size 1 are kept. The result has the widened element type
// of a, integers are rounded.
func (a *Array) Downsample(spatial int) *Array {
	src := a.Widen()
	vals := src.Float64s()
	shape := append([]int(nil), src.Shape...)
	for k := 0; k < spatial && k < len(shape); k++ {
		vals, shape = downsampleAxis(vals, shape, k)
	}
	out := Zeros(src.Dtype(), shape...)
	for i, v := range vals {
		out.Set(i, v)
	}
	out.Sampling = scaleSampling(a.Sampling, a.Shape, shape, spatial)
	out.Origin = a.Origin
	return out
}

func downsampleAxis(vals []float64, shape []int, axis int) ([]float64, []int) {
	n := shape[axis]
	if n < 2 {
		return vals, shape
	}
	m := n / 2
	outer, inner := 1, 1
	for k := 0; k < axis; k++ {
		outer *= shape[k]
	}
	for k := axis + 1; k < len(shape); k++ {
		inner *= shape[k]
	}

	out := make([]float64, outer*m*inner)
	for o := 0; o < outer; o++ {
		for i := 0; i < m; i++ {
			for j := 0; j < inner; j++ {
				var sum float64
				for t, w := range downsampleKernel {
					s := 2*i - 1 + t
					if s < 0 {
						s = 0
					} else if s >= n {
						s = n - 1
					}
					sum += w * vals[(o*n+s)*inner+j]
				}
				out[(o*m+i)*inner+j] = sum
			}
		}
	}
	newShape := append([]int(nil), shape...)
	newShape[axis] = m
	return out, newShape
}

func scaleSampling(sampling []float64, from, to []int, spatial int) []float64 {
	if sampling == nil {
		return nil
	}
	out := append([]float64(nil), sampling...)
	for k := 0; k < spatial && k < len(out); k++ {
		out[k] *= float64(from[k]) / float64(to[k])
	}
	return out
}
