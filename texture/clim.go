package texture

import (
	"math"

	"github.com/polyfloyd/volren/clim"
	"github.com/polyfloyd/volren/ndarray"
)

// Clim is a texture holding visualised data. Next to the data it tracks the
// data range (ClimRef) and the window of it that is mapped onto the
// colormap (Clim).
//
// At upload the clim window is mapped into [0, 1] by the pixel transfer
// stage, so data that is quantised to 8 bits on the GPU uses the full
// range. Changing the clim therefore schedules a new upload.
type Clim struct {
	*Object

	climRef  clim.Range
	clim     clim.Range
	uploaded clim.Range
}

func NewClim(ndim int) *Clim {
	c := &Clim{Object: New(ndim)}
	c.Object.transfer = c.pixelTransfer
	return c
}

// SetData sets the data and resets both ClimRef and Clim to the range of
// the data.
func (c *Clim) SetData(a *ndarray.Array) error {
	if err := c.Object.SetData(a); err != nil {
		return err
	}
	min, max := a.MinMax()
	if math.IsInf(min, 0) || math.IsInf(max, 0) || min > max {
		min, max = 0, 1
	}
	c.climRef = clim.New(min, max)
	c.clim = c.climRef
	return nil
}

// ClimRef returns the range of the data, fixed when the data was set.
func (c *Clim) ClimRef() clim.Range {
	return c.climRef
}

func (c *Clim) Clim() clim.Range {
	return c.clim
}

// SetClim sets the window of the data that is mapped onto [0, 1].
func (c *Clim) SetClim(min, max float64) {
	r := clim.New(min, max)
	if r == c.clim {
		return
	}
	c.clim = r
	c.MarkDirty()
}

func span(r clim.Range) float64 {
	if s := r.Range(); s != 0 {
		return s
	}
	return 1
}

// ScaleBias returns scale and bias such that v*scale + bias maps a data
// value v in the clim window onto [0, 1].
func (c *Clim) ScaleBias() (scale, bias float32) {
	s := span(c.clim)
	return float32(1 / s), float32(-c.clim.Min / s)
}

// TextureScaleBias returns the scale and bias to apply to values sampled
// from the texture. It is the identity when the texture was uploaded with
// the current clim, and compensates for the difference otherwise.
func (c *Clim) TextureScaleBias() (scale, bias float32) {
	if c.Shape() == nil {
		return 1, 0
	}
	s := span(c.clim)
	return float32(span(c.uploaded) / s), float32((c.uploaded.Min - c.clim.Min) / s)
}

func (c *Clim) pixelTransfer(dt ndarray.Dtype) pixelTransfer {
	c.uploaded = c.clim
	a, b := unpackNormalization(dt)
	s := span(c.clim)
	scale := 1 / (a * s)
	bias := -(b/a + c.clim.Min) / s

	t := pixelTransfer{
		scale: [4]float32{float32(scale), float32(scale), float32(scale), 1},
		bias:  [4]float32{float32(bias), float32(bias), float32(bias), 0},
	}
	if dt.IsSigned() {
		st := signedTransfer()
		t.scale[3], t.bias[3] = st.scale[3], st.bias[3]
	}
	return t
}
