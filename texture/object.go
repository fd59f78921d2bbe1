// Package texture manages the GPU textures volren samples from: generic 1, 2
// and 3 dimensional textures, textures carrying contrast limits and 1D
// colormaps.
package texture

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/go-gl/gl/v2.1/gl"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/glutil"
	"github.com/polyfloyd/volren/ndarray"
)

// MaxDownsamples is the number of times an array is halved before an
// upload is given up on.
const MaxDownsamples = 8

var targets = [...]struct{ target, proxy uint32 }{
	1: {gl.TEXTURE_1D, gl.PROXY_TEXTURE_1D},
	2: {gl.TEXTURE_2D, gl.PROXY_TEXTURE_2D},
	3: {gl.TEXTURE_3D, gl.PROXY_TEXTURE_3D},
}

// pixelTransfer holds the GL_{RED,GREEN,BLUE,ALPHA}_{SCALE,BIAS} values
// applied while unpacking texture data.
type pixelTransfer struct {
	scale, bias [4]float32
}

var identityTransfer = pixelTransfer{scale: [4]float32{1, 1, 1, 1}}

// Object is a GPU texture of 1, 2 or 3 dimensions. It keeps a reference to
// the host array it was given so it can upload it again after the GL
// resources have been lost.
type Object struct {
	ndim        int
	interpolate bool

	data        *ndarray.Array
	needsUpload bool

	id       uint32
	unit     int
	gpu      uploaded
	transfer func(ndarray.Dtype) pixelTransfer

	warnedPadding, warnedDownsample bool
}

// uploaded describes what is currently in GPU memory.
type uploaded struct {
	// shape is the spatial shape of the texture, including padding.
	shape []int
	// dataShape is the extent of the data in the texture in texels, which
	// is smaller than the host shape after down-sampling. It is fractional
	// when padded data was halved.
	dataShape []float64
	channels  int
	dtype     ndarray.Dtype
}

// New creates an empty texture of ndim dimensions.
func New(ndim int) *Object {
	if ndim < 1 || ndim > 3 {
		panic(fmt.Sprintf("texture: invalid number of dimensions: %d", ndim))
	}
	return &Object{
		ndim: ndim,
		unit: -1,
	}
}

func (o *Object) NDim() int {
	return o.ndim
}

// ID returns the GL texture name, 0 if nothing is uploaded.
func (o *Object) ID() uint32 {
	return o.id
}

// Data returns the host array.
func (o *Object) Data() *ndarray.Array {
	return o.data
}

// SetData validates the shape of a and schedules it for upload at the next
// Enable. Accepted shapes are the ndim spatial axes optionally followed by a
// channel axis of 1, 3 or 4.
func (o *Object) SetData(a *ndarray.Array) error {
	if err := checkShape(a, o.ndim); err != nil {
		return err
	}
	o.data = a
	o.needsUpload = true
	return nil
}

func checkShape(a *ndarray.Array, ndim int) error {
	if a == nil {
		return fmt.Errorf("%w: no data", volren.ErrInvalidShape)
	}
	if a.Dtype() == ndarray.Invalid {
		return fmt.Errorf("%w: %T", volren.ErrUnsupportedDtype, a.Data)
	}
	switch len(a.Shape) {
	case ndim:
	case ndim + 1:
		switch a.Shape[ndim] {
		case 1, 3, 4:
		default:
			return fmt.Errorf("%w: %d channels in %v", volren.ErrInvalidShape, a.Shape[ndim], a.Shape)
		}
	default:
		return fmt.Errorf("%w: %v is not a valid shape for a %dD texture", volren.ErrInvalidShape, a.Shape, ndim)
	}
	for _, s := range a.Shape {
		if s <= 0 {
			return fmt.Errorf("%w: %v", volren.ErrInvalidShape, a.Shape)
		}
	}
	return nil
}

// SetInterpolate selects linear (true) or nearest neighbour filtering.
func (o *Object) SetInterpolate(interpolate bool) {
	if o.interpolate != interpolate {
		o.interpolate = interpolate
		o.needsUpload = true
	}
}

func (o *Object) Interpolate() bool {
	return o.interpolate
}

// MarkDirty schedules the host data to be uploaded again.
func (o *Object) MarkDirty() {
	o.needsUpload = true
}

// Shape returns the spatial shape of the texture in GPU memory, nil if
// nothing has been uploaded.
func (o *Object) Shape() []int {
	return o.gpu.shape
}

// Extent returns per spatial axis the fraction of the texture that holds
// data. It is less than 1 only for padded textures.
func (o *Object) Extent() []float64 {
	ext := make([]float64, o.ndim)
	for k := range ext {
		ext[k] = 1
		if o.gpu.shape != nil {
			ext[k] = o.gpu.dataShape[k] / float64(o.gpu.shape[k])
		}
	}
	return ext
}

// Correction returns per spatial axis the ratio between the host size and
// the size of the data on the GPU, which is not 1 after down-sampling.
func (o *Object) Correction() []float64 {
	c := make([]float64, o.ndim)
	for k := range c {
		c[k] = 1
		if o.gpu.shape != nil && o.data != nil {
			c[k] = float64(o.data.Shape[k]) / o.gpu.dataShape[k]
		}
	}
	return c
}

// DataShape returns the extent of the data as uploaded in texels, i.e.
// after down-sampling but without padding.
func (o *Object) DataShape() []float64 {
	return o.gpu.dataShape
}

// Enable uploads the host data if needed and binds the texture to the given
// texture unit. Nothing is bound for a negative unit.
func (o *Object) Enable(unit int) error {
	if !glutil.HasContext() {
		return volren.ErrNoGLContext
	}
	if o.id != 0 && !gl.IsTexture(o.id) {
		// The context was recreated underneath us.
		o.id = 0
		o.gpu = uploaded{}
	}
	if unit >= 0 {
		// Uploading binds the texture too, do it on the unit it is going to
		// end up on so other units are left alone.
		gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	}
	if o.data != nil && (o.needsUpload || o.id == 0) {
		if err := o.upload(); err != nil {
			return err
		}
	}
	if unit < 0 || o.id == 0 {
		return nil
	}
	t := targets[o.ndim].target
	gl.BindTexture(t, o.id)
	// Only needed for the fixed function pipeline, harmless for shaders.
	gl.Enable(t)
	o.unit = unit
	return nil
}

// Disable unbinds the texture. It is safe to call when the texture is not
// bound.
func (o *Object) Disable() {
	if o.unit < 0 || !glutil.HasContext() {
		o.unit = -1
		return
	}
	t := targets[o.ndim].target
	gl.ActiveTexture(gl.TEXTURE0 + uint32(o.unit))
	gl.BindTexture(t, 0)
	gl.Disable(t)
	gl.ActiveTexture(gl.TEXTURE0)
	o.unit = -1
}

// DestroyGl releases the GPU resources. The host data is kept and uploaded
// again at the next Enable.
func (o *Object) DestroyGl() {
	if o.id != 0 && glutil.HasContext() {
		gl.DeleteTextures(1, &o.id)
	}
	o.id = 0
	o.unit = -1
	o.gpu = uploaded{}
	o.needsUpload = true
}

// Destroy releases the GPU resources and the host data.
func (o *Object) Destroy() {
	o.DestroyGl()
	o.data = nil
}

func (o *Object) upload() error {
	a := o.data.Widen()
	format, err := formatOf(a, o.ndim)
	if err != nil {
		return err
	}

	// Pad before halving so a padded axis stays a power of two.
	dataShape := make([]float64, o.ndim)
	for k := range dataShape {
		dataShape[k] = float64(a.Shape[k])
	}
	padded := false
	if !glutil.NPOTSupported() {
		p, err := a.PadPow2(o.ndim)
		if err != nil {
			return err
		}
		padded = p.Len() != a.Len()
		if padded && !o.warnedPadding {
			volren.Logger().Warn("non-power-of-two textures are not supported, padded with zeros", "shape", a.Shape, "to", p.Shape)
			o.warnedPadding = true
		}
		a = p
	}

	downsampled := 0
	for !o.fits(a, format) {
		if downsampled == MaxDownsamples {
			o.DestroyGl()
			return fmt.Errorf("%w: %v does not fit, even after down-sampling %d times", volren.ErrOutOfGPUMemory, o.data, downsampled)
		}
		half := a.Downsample(o.ndim)
		for k := range dataShape {
			dataShape[k] *= float64(half.Shape[k]) / float64(a.Shape[k])
		}
		a = half
		downsampled++
	}
	if downsampled > 0 && !o.warnedDownsample {
		volren.Logger().Warn("texture is too large, down-sampled", "shape", o.data.Shape, "to", a.Shape, "factor", 1<<downsampled)
		o.warnedDownsample = true
	}

	next := uploaded{
		shape:     append([]int(nil), a.Shape[:o.ndim]...),
		dataShape: dataShape,
		channels:  a.Channels(o.ndim),
		dtype:     a.Dtype(),
	}

	transfer := identityTransfer
	if o.transfer != nil {
		transfer = o.transfer(next.dtype)
	} else if next.dtype.IsSigned() {
		transfer = signedTransfer()
	}
	setPixelTransfer(transfer)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	t := targets[o.ndim].target
	if o.id != 0 && o.gpu.sameAs(next) {
		gl.BindTexture(t, o.id)
		subImage(t, a, format)
	} else {
		if o.id != 0 {
			gl.DeleteTextures(1, &o.id)
		}
		gl.GenTextures(1, &o.id)
		gl.BindTexture(t, o.id)
		texImage(t, a, format)
	}

	filter := int32(gl.NEAREST)
	if o.interpolate {
		filter = gl.LINEAR
	}
	gl.TexParameteri(t, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(t, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(t, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	if o.ndim > 1 {
		gl.TexParameteri(t, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}
	if o.ndim > 2 {
		gl.TexParameteri(t, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	}
	gl.BindTexture(t, 0)
	setPixelTransfer(identityTransfer)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)

	o.gpu = next
	o.needsUpload = false
	volren.Logger().Debug("texture uploaded", "id", o.id, "shape", next.shape, "channels", next.channels, "dtype", next.dtype)
	return glutil.CheckError("texture upload")
}

func (u uploaded) sameAs(o uploaded) bool {
	if len(u.shape) != len(o.shape) || u.channels != o.channels || u.dtype != o.dtype {
		return false
	}
	for k := range u.shape {
		if u.shape[k] != o.shape[k] || u.dataShape[k] != o.dataShape[k] {
			return false
		}
	}
	return true
}

// fits asks the driver through a proxy texture whether a can be stored.
func (o *Object) fits(a *ndarray.Array, format texFormat) bool {
	proxy := targets[o.ndim].proxy
	texImage(proxy, a, format)
	var width int32
	gl.GetTexLevelParameteriv(proxy, 0, gl.TEXTURE_WIDTH, &width)
	return width != 0
}

type texFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

func formatOf(a *ndarray.Array, ndim int) (texFormat, error) {
	var f texFormat
	switch a.Channels(ndim) {
	case 1:
		f.internal, f.format = gl.LUMINANCE8, gl.LUMINANCE
	case 3:
		f.internal, f.format = gl.RGB, gl.RGB
	case 4:
		f.internal, f.format = gl.RGBA, gl.RGBA
	default:
		return f, fmt.Errorf("%w: %v", volren.ErrInvalidShape, a.Shape)
	}
	switch a.Dtype() {
	case ndarray.Uint8:
		f.xtype = gl.UNSIGNED_BYTE
	case ndarray.Int8:
		f.xtype = gl.BYTE
	case ndarray.Uint16:
		f.xtype = gl.UNSIGNED_SHORT
	case ndarray.Int16:
		f.xtype = gl.SHORT
	case ndarray.Uint32:
		f.xtype = gl.UNSIGNED_INT
	case ndarray.Int32:
		f.xtype = gl.INT
	case ndarray.Float32:
		f.xtype = gl.FLOAT
	default:
		return f, fmt.Errorf("%w: %v", volren.ErrUnsupportedDtype, a.Dtype())
	}
	return f, nil
}

// spatialSize returns width, height and depth, the x-fastest order GL
// wants, from an array with (depth, height, width) ordered axes.
func spatialSize(a *ndarray.Array, ndim int) (w, h, d int32) {
	h, d = 1, 1
	w = int32(a.Shape[ndim-1])
	if ndim > 1 {
		h = int32(a.Shape[ndim-2])
	}
	if ndim > 2 {
		d = int32(a.Shape[0])
	}
	return
}

func texImage(target uint32, a *ndarray.Array, f texFormat) {
	var pixels unsafe.Pointer
	switch target {
	case gl.PROXY_TEXTURE_1D, gl.PROXY_TEXTURE_2D, gl.PROXY_TEXTURE_3D:
	default:
		pixels = gl.Ptr(a.Data)
	}
	w, h, d := spatialSize(a, ndimOf(target))
	switch ndimOf(target) {
	case 1:
		gl.TexImage1D(
			target,     // target
			0,          // level
			f.internal, // internalFormat
			w,          // width
			0,          // border
			f.format,   // format
			f.xtype,    // type
			pixels,     // data
		)
	case 2:
		gl.TexImage2D(target, 0, f.internal, w, h, 0, f.format, f.xtype, pixels)
	case 3:
		gl.TexImage3D(target, 0, f.internal, w, h, d, 0, f.format, f.xtype, pixels)
	}
}

func subImage(target uint32, a *ndarray.Array, f texFormat) {
	w, h, d := spatialSize(a, ndimOf(target))
	switch ndimOf(target) {
	case 1:
		gl.TexSubImage1D(target, 0, 0, w, f.format, f.xtype, gl.Ptr(a.Data))
	case 2:
		gl.TexSubImage2D(target, 0, 0, 0, w, h, f.format, f.xtype, gl.Ptr(a.Data))
	case 3:
		gl.TexSubImage3D(target, 0, 0, 0, 0, w, h, d, f.format, f.xtype, gl.Ptr(a.Data))
	}
}

func ndimOf(target uint32) int {
	switch target {
	case gl.TEXTURE_1D, gl.PROXY_TEXTURE_1D:
		return 1
	case gl.TEXTURE_2D, gl.PROXY_TEXTURE_2D:
		return 2
	}
	return 3
}

func setPixelTransfer(t pixelTransfer) {
	gl.PixelTransferf(gl.RED_SCALE, t.scale[0])
	gl.PixelTransferf(gl.GREEN_SCALE, t.scale[1])
	gl.PixelTransferf(gl.BLUE_SCALE, t.scale[2])
	gl.PixelTransferf(gl.ALPHA_SCALE, t.scale[3])
	gl.PixelTransferf(gl.RED_BIAS, t.bias[0])
	gl.PixelTransferf(gl.GREEN_BIAS, t.bias[1])
	gl.PixelTransferf(gl.BLUE_BIAS, t.bias[2])
	gl.PixelTransferf(gl.ALPHA_BIAS, t.bias[3])
}

// unpackNormalization returns a and b such that GL converts a component c
// of type dt to c*a + b while unpacking pixels. Floats pass unchanged.
func unpackNormalization(dt ndarray.Dtype) (a, b float64) {
	if !dt.IsInteger() {
		return 1, 0
	}
	bits := float64(dt.Bits())
	if !dt.IsSigned() {
		return 1 / (math.Exp2(bits) - 1), 0
	}
	if glutil.AtLeast(4, 2) {
		return 1 / (math.Exp2(bits-1) - 1), 0
	}
	return 2 / (math.Exp2(bits) - 1), 1 / (math.Exp2(bits) - 1)
}

// signedTransfer maps the [-1, 1] range of normalized signed integers to
// [0, 1].
func signedTransfer() pixelTransfer {
	return pixelTransfer{
		scale: [4]float32{0.5, 0.5, 0.5, 0.5},
		bias:  [4]float32{0.5, 0.5, 0.5, 0.5},
	}
}
