// Package ndarray implements the host side N-D arrays that are uploaded to
// GPU textures.
//
// An Array is a flat, row-major slice plus a shape. The last axis varies
// fastest, which matches the x-fastest layout glTexImage expects when the
// shape is ordered (depth, height, width, channels).
package ndarray

import (
	"fmt"
	"math"
	"reflect"

	"github.com/x448/float16"

	"github.com/polyfloyd/volren"
)

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

type Array struct {
	Shape []int
	// Data is a slice of one of the types enumerated by Dtype.
	Data any

	// Sampling and Origin describe the world placement of the spatial axes:
	// element i along axis k is located at Origin[k] + i*Sampling[k]. Both
	// may be nil, meaning unit sampling and a zero origin.
	Sampling []float64
	Origin   []float64
}

// New wraps data in an Array of the given shape. The length of data must
// equal the product of the shape.
func New(data any, shape ...int) (*Array, error) {
	dt := dtypeOf(data)
	if dt == Invalid {
		return nil, fmt.Errorf("%w: %T", volren.ErrUnsupportedDtype, data)
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("%w: empty shape", volren.ErrInvalidShape)
	}
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, fmt.Errorf("%w: %v", volren.ErrInvalidShape, shape)
		}
		n *= s
	}
	if l := reflect.ValueOf(data).Len(); l != n {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, got %d", volren.ErrInvalidShape, shape, n, l)
	}
	return &Array{
		Shape: append([]int(nil), shape...),
		Data:  data,
	}, nil
}

// Zeros allocates an array filled with zeros.
func Zeros(dt Dtype, shape ...int) *Array {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return &Array{
		Shape: append([]int(nil), shape...),
		Data:  makeSlice(dt, n),
	}
}

// FromFloat64s converts vals to the given element type. Integer types are
// rounded and clamped to their limits.
func FromFloat64s(dt Dtype, vals []float64, shape ...int) (*Array, error) {
	a := Zeros(dt, shape...)
	if a.Len() != len(vals) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, got %d", volren.ErrInvalidShape, shape, a.Len(), len(vals))
	}
	for i, v := range vals {
		a.Set(i, v)
	}
	return a, nil
}

func (a *Array) Dtype() Dtype {
	return dtypeOf(a.Data)
}

func (a *Array) NDim() int {
	return len(a.Shape)
}

// Len returns the number of elements.
func (a *Array) Len() int {
	n := 1
	for _, s := range a.Shape {
		n *= s
	}
	return n
}

// Channels returns the number of channels of an array that has spatial
// dimensions, i.e. 1 when there is no trailing channel axis.
func (a *Array) Channels(spatial int) int {
	if len(a.Shape) > spatial {
		return a.Shape[spatial]
	}
	return 1
}

// At returns element i of the flat data.
func (a *Array) At(i int) float64 {
	switch d := a.Data.(type) {
	case []uint8:
		return float64(d[i])
	case []int8:
		return float64(d[i])
	case []uint16:
		return float64(d[i])
	case []int16:
		return float64(d[i])
	case []uint32:
		return float64(d[i])
	case []int32:
		return float64(d[i])
	case []uint64:
		return float64(d[i])
	case []int64:
		return float64(d[i])
	case []float16.Float16:
		return float64(d[i].Float32())
	case []float32:
		return float64(d[i])
	case []float64:
		return d[i]
	case []bool:
		if d[i] {
			return 1
		}
		return 0
	}
	panic(fmt.Sprintf("ndarray: unsupported data %T", a.Data))
}

// Set stores v as element i, rounding and clamping for integer types.
func (a *Array) Set(i int, v float64) {
	dt := a.Dtype()
	if dt.IsInteger() {
		lo, hi := dt.Limits()
		v = math.Max(lo, math.Min(hi, math.Round(v)))
	}
	switch d := a.Data.(type) {
	case []uint8:
		d[i] = uint8(v)
	case []int8:
		d[i] = int8(v)
	case []uint16:
		d[i] = uint16(v)
	case []int16:
		d[i] = int16(v)
	case []uint32:
		d[i] = uint32(v)
	case []int32:
		d[i] = int32(v)
	case []uint64:
		d[i] = uint64(v)
	case []int64:
		d[i] = int64(v)
	case []float16.Float16:
		d[i] = float16.Fromfloat32(float32(v))
	case []float32:
		d[i] = float32(v)
	case []float64:
		d[i] = v
	case []bool:
		d[i] = v != 0
	default:
		panic(fmt.Sprintf("ndarray: unsupported data %T", a.Data))
	}
}

// Float64s returns a copy of all elements as float64.
func (a *Array) Float64s() []float64 {
	out := make([]float64, a.Len())
	for i := range out {
		out[i] = a.At(i)
	}
	return out
}

// MinMax returns the smallest and largest element. NaNs are ignored.
func (a *Array) MinMax() (min, max float64) {
	switch d := a.Data.(type) {
	case []uint8:
		return minMax(d)
	case []int8:
		return minMax(d)
	case []uint16:
		return minMax(d)
	case []int16:
		return minMax(d)
	case []uint32:
		return minMax(d)
	case []int32:
		return minMax(d)
	case []uint64:
		return minMax(d)
	case []int64:
		return minMax(d)
	case []float32:
		return minMax(d)
	case []float64:
		return minMax(d)
	}
	min, max = posInf, negInf
	for i, n := 0, a.Len(); i < n; i++ {
		v := a.At(i)
		if v != v {
			continue
		}
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return min, max
}

type number interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~uint64 | ~int64 | ~float32 | ~float64
}

func minMax[T number](s []T) (float64, float64) {
	min, max := posInf, negInf
	for _, e := range s {
		v := float64(e)
		if v != v {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Widen converts element types that can not be uploaded directly: 64 bit
// integers and floats and float16 become float32, bools become uint8. Other
// arrays are returned as is.
func (a *Array) Widen() *Array {
	var data any
	switch d := a.Data.(type) {
	case []uint64:
		data = toFloat32(d)
	case []int64:
		data = toFloat32(d)
	case []float64:
		data = toFloat32(d)
	case []float16.Float16:
		f := make([]float32, len(d))
		for i, h := range d {
			f[i] = h.Float32()
		}
		data = f
	case []bool:
		u := make([]uint8, len(d))
		for i, b := range d {
			if b {
				u[i] = 1
			}
		}
		data = u
	default:
		return a
	}
	return a.withData(data, a.Shape)
}

func toFloat32[T number](s []T) []float32 {
	out := make([]float32, len(s))
	for i, v := range s {
		out[i] = float32(v)
	}
	return out
}

// Slice returns element i along the first axis. The returned array shares
// its memory with a.
func (a *Array) Slice(i int) (*Array, error) {
	if len(a.Shape) < 2 || i < 0 || i >= a.Shape[0] {
		return nil, fmt.Errorf("%w: can not take slice %d of %v", volren.ErrInvalidShape, i, a.Shape)
	}
	stride := a.Len() / a.Shape[0]
	data := reflect.ValueOf(a.Data).Slice(i*stride, (i+1)*stride).Interface()
	sub := &Array{Shape: append([]int(nil), a.Shape[1:]...), Data: data}
	if len(a.Sampling) > 1 {
		sub.Sampling = append([]float64(nil), a.Sampling[1:]...)
	}
	if len(a.Origin) > 1 {
		sub.Origin = append([]float64(nil), a.Origin[1:]...)
	}
	return sub, nil
}

// SamplingAt returns the sampling of spatial axis k, 1 if unset.
func (a *Array) SamplingAt(k int) float64 {
	if k < len(a.Sampling) && a.Sampling[k] != 0 {
		return a.Sampling[k]
	}
	return 1
}

// OriginAt returns the origin of spatial axis k, 0 if unset.
func (a *Array) OriginAt(k int) float64 {
	if k < len(a.Origin) {
		return a.Origin[k]
	}
	return 0
}

func (a *Array) withData(data any, shape []int) *Array {
	return &Array{
		Shape:    append([]int(nil), shape...),
		Data:     data,
		Sampling: a.Sampling,
		Origin:   a.Origin,
	}
}

func (a *Array) String() string {
	return fmt.Sprintf("ndarray(%v, %v)", a.Shape, a.Dtype())
}
