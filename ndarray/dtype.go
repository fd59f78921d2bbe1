package ndarray

import (
	"fmt"

	"github.com/x448/float16"
)

// Dtype identifies the element type of an Array.
type Dtype int

const (
	Invalid Dtype = iota
	Uint8
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Uint64
	Int64
	Float16
	Float32
	Float64
	Bool
)

var dtypeNames = [...]string{
	Invalid: "invalid",
	Uint8:   "uint8",
	Int8:    "int8",
	Uint16:  "uint16",
	Int16:   "int16",
	Uint32:  "uint32",
	Int32:   "int32",
	Uint64:  "uint64",
	Int64:   "int64",
	Float16: "float16",
	Float32: "float32",
	Float64: "float64",
	Bool:    "bool",
}

func (d Dtype) String() string {
	if d < 0 || int(d) >= len(dtypeNames) {
		return fmt.Sprintf("Dtype(%d)", int(d))
	}
	return dtypeNames[d]
}

// ParseDtype is the inverse of Dtype.String.
func ParseDtype(s string) (Dtype, error) {
	for d, name := range dtypeNames {
		if name == s && Dtype(d) != Invalid {
			return Dtype(d), nil
		}
	}
	return Invalid, fmt.Errorf("unknown dtype %q", s)
}

// Bits returns the width of one element in bits.
func (d Dtype) Bits() int {
	switch d {
	case Uint8, Int8, Bool:
		return 8
	case Uint16, Int16, Float16:
		return 16
	case Uint32, Int32, Float32:
		return 32
	case Uint64, Int64, Float64:
		return 64
	}
	return 0
}

func (d Dtype) IsInteger() bool {
	switch d {
	case Uint8, Int8, Uint16, Int16, Uint32, Int32, Uint64, Int64:
		return true
	}
	return false
}

func (d Dtype) IsSigned() bool {
	switch d {
	case Int8, Int16, Int32, Int64:
		return true
	}
	return false
}

// Limits returns the representable range of integer types and ±Inf for
// floats.
func (d Dtype) Limits() (lo, hi float64) {
	switch d {
	case Bool:
		return 0, 1
	case Uint8, Uint16, Uint32, Uint64:
		return 0, float64(uint64(1)<<uint(d.Bits()) - 1)
	case Int8, Int16, Int32, Int64:
		h := float64(uint64(1)<<uint(d.Bits()-1)) - 1
		return -h - 1, h
	}
	return negInf, posInf
}

func dtypeOf(data any) Dtype {
	switch data.(type) {
	case []uint8:
		return Uint8
	case []int8:
		return Int8
	case []uint16:
		return Uint16
	case []int16:
		return Int16
	case []uint32:
		return Uint32
	case []int32:
		return Int32
	case []uint64:
		return Uint64
	case []int64:
		return Int64
	case []float16.Float16:
		return Float16
	case []float32:
		return Float32
	case []float64:
		return Float64
	case []bool:
		return Bool
	}
	return Invalid
}

// makeSlice allocates a zeroed slice of n elements of the given type.
func makeSlice(d Dtype, n int) any {
	switch d {
	case Uint8:
		return make([]uint8, n)
	case Int8:
		return make([]int8, n)
	case Uint16:
		return make([]uint16, n)
	case Int16:
		return make([]int16, n)
	case Uint32:
		return make([]uint32, n)
	case Int32:
		return make([]int32, n)
	case Uint64:
		return make([]uint64, n)
	case Int64:
		return make([]int64, n)
	case Float16:
		return make([]float16.Float16, n)
	case Float32:
		return make([]float32, n)
	case Float64:
		return make([]float64, n)
	case Bool:
		return make([]bool, n)
	}
	return nil
}
