package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/polyfloyd/volren/clim"
	"github.com/polyfloyd/volren/ndarray"
	"github.com/polyfloyd/volren/shader"
	"github.com/polyfloyd/volren/shaderlib"
	"github.com/polyfloyd/volren/texture"
)

// Trafos places data in the world: a voxel with index (x, y, z) is centred
// at Translate + Scale*(x, y, z).
type Trafos struct {
	Translate mgl32.Vec3
	Scale     mgl32.Vec3
}

// Matrix returns the trafos as a model matrix.
func (t Trafos) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Translate.X(), t.Translate.Y(), t.Translate.Z()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// trafosOf derives the trafos from the sampling and origin of the spatial
// axes of a. Spatial axes are ordered (depth,) height, width while the
// trafos are ordered x, y, z.
func trafosOf(a *ndarray.Array, ndim int) Trafos {
	t := Trafos{Scale: mgl32.Vec3{1, 1, 1}}
	for i := 0; i < ndim; i++ {
		k := ndim - 1 - i
		t.Scale[i] = float32(a.SamplingAt(k))
		t.Translate[i] = float32(a.OriginAt(k))
	}
	return t
}

// colorMode picks the colour part for data with the given number of
// channels.
type colorMode int

const (
	colorScalar colorMode = iota
	colorScalarNoCmap
	colorRGB
	colorRGBA
)

// textureRenderer holds what the 2D and 3D renderers have in common: a
// texture with contrast limits, a colormap and a shader.
type textureRenderer struct {
	ndim   int
	lib    *shaderlib.Library
	shader *shader.Shader

	tex      *texture.Clim
	colormap *texture.Colormap
	// ownsColormap is false when the colormap is shared with another
	// renderer. A shared colormap is not destroyed with this renderer.
	ownsColormap bool
	useColormap  bool

	trafos Trafos
}

func newTextureRenderer(ndim int, lib *shaderlib.Library) textureRenderer {
	if lib == nil {
		lib = shaderlib.New()
	}
	r := textureRenderer{
		ndim:         ndim,
		lib:          lib,
		shader:       shader.New(nil, nil),
		tex:          texture.NewClim(ndim),
		colormap:     texture.NewColormap(),
		ownsColormap: true,
		useColormap:  true,
		trafos:       Trafos{Scale: mgl32.Vec3{1, 1, 1}},
	}
	return r
}

// staticUniforms registers the uniforms both renderers share. The texture
// must come first: it is uploaded when applied, and the other uniforms
// depend on what was uploaded.
func (r *textureRenderer) staticUniforms() {
	must(r.shader.SetStaticUniform("texture", shader.Texture(r.tex)))
	must(r.shader.SetStaticUniform("colormap", func() shader.Uniform {
		return shader.TextureRef{Texture: r.colormap}
	}))
	must(r.shader.SetStaticUniform("scaleBias", func() shader.Uniform {
		s, b := r.tex.TextureScaleBias()
		return shader.Vec{s, b}
	}))
	must(r.shader.SetStaticUniform("shape", func() shader.Uniform {
		return shader.Vec(reversed(intsToFloat32(r.tex.Shape()), r.ndim))
	}))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// reversed returns the first n values of s in reverse order, with missing
// values set to 1.
func reversed(s []float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = 1
		if k := n - 1 - i; k < len(s) {
			out[i] = s[k]
		}
	}
	return out
}

func intsToFloat32(s []int) []float32 {
	out := make([]float32, len(s))
	for i, v := range s {
		out[i] = float32(v)
	}
	return out
}

func floatsToFloat32(s []float64) []float32 {
	out := make([]float32, len(s))
	for i, v := range s {
		out[i] = float32(v)
	}
	return out
}

// SetData sets the data to visualise. The contrast limits are reset to the
// range of the data and the trafos are taken from its sampling and origin.
func (r *textureRenderer) SetData(a *ndarray.Array) error {
	if err := r.tex.SetData(a); err != nil {
		return err
	}
	r.trafos = trafosOf(a, r.ndim)
	return nil
}

// Data returns the data, nil if none was set.
func (r *textureRenderer) Data() *ndarray.Array {
	return r.tex.Data()
}

func (r *textureRenderer) channels() int {
	if a := r.tex.Data(); a != nil {
		return a.Channels(r.ndim)
	}
	return 1
}

func (r *textureRenderer) colorMode() colorMode {
	switch r.channels() {
	case 3:
		return colorRGB
	case 4:
		return colorRGBA
	}
	if !r.useColormap {
		return colorScalarNoCmap
	}
	return colorScalar
}

// SetClim sets the window of the data that is mapped onto the colormap.
func (r *textureRenderer) SetClim(min, max float64) {
	r.tex.SetClim(min, max)
}

func (r *textureRenderer) Clim() clim.Range {
	return r.tex.Clim()
}

// ClimRef returns the range of the data.
func (r *textureRenderer) ClimRef() clim.Range {
	return r.tex.ClimRef()
}

// SetColormap sets the colormap from anything texture.Colormap.SetMap
// accepts. A nil value disables the colormap, scalar data is then shown
// in grey. A shared colormap is replaced by a colormap of its own.
func (r *textureRenderer) SetColormap(v any) error {
	if v == nil {
		r.useColormap = false
		return nil
	}
	cmap := r.colormap
	if !r.ownsColormap {
		cmap = texture.NewColormap()
	}
	if err := cmap.SetMap(v); err != nil {
		return err
	}
	r.colormap = cmap
	r.ownsColormap = true
	r.useColormap = true
	return nil
}

// ShareColormap makes the renderer use the colormap of another renderer.
func (r *textureRenderer) ShareColormap(c *texture.Colormap) {
	if r.ownsColormap && r.colormap != c {
		r.colormap.Destroy()
	}
	r.colormap = c
	r.ownsColormap = false
	r.useColormap = true
}

func (r *textureRenderer) Colormap() *texture.Colormap {
	return r.colormap
}

// SetInterpolate selects linear (true) or nearest (false) sampling.
func (r *textureRenderer) SetInterpolate(interpolate bool) {
	r.tex.SetInterpolate(interpolate)
}

// Refresh uploads the data again at the next draw. Call it after
// modifying the data in place.
func (r *textureRenderer) Refresh() {
	r.tex.MarkDirty()
}

func (r *textureRenderer) Trafos() Trafos {
	return r.trafos
}

// SetTrafos overrides the trafos derived from the data.
func (r *textureRenderer) SetTrafos(t Trafos) {
	r.trafos = t
}

// BoundingBox returns the world coordinates of the corners of the data,
// i.e. half a voxel beyond the outermost voxel centres.
func (r *textureRenderer) BoundingBox() (min, max mgl32.Vec3) {
	a := r.tex.Data()
	if a == nil {
		return
	}
	for i := 0; i < 3; i++ {
		if i >= r.ndim {
			min[i], max[i] = r.trafos.Translate[i], r.trafos.Translate[i]
			continue
		}
		n := float32(a.Shape[r.ndim-1-i])
		lo := r.trafos.Translate[i] - 0.5*r.trafos.Scale[i]
		hi := r.trafos.Translate[i] + (n-0.5)*r.trafos.Scale[i]
		if lo > hi {
			lo, hi = hi, lo
		}
		min[i], max[i] = lo, hi
	}
	return min, max
}

// Shader gives access to the shader, for adding or replacing parts.
func (r *textureRenderer) Shader() *shader.Shader {
	return r.shader
}

// setPart adds the part from the library or replaces the part that is in
// the way.
func (r *textureRenderer) setPart(code *shader.Code, old, name string) error {
	p, err := r.lib.Get(name)
	if err != nil {
		return err
	}
	return swapPart(code, old, p)
}

// swapPart replaces the part named old with p, keeping its position, or
// adds p when old is absent.
func swapPart(code *shader.Code, old string, p shader.Part) error {
	if old == p.Name() {
		return code.AddOrReplace(p)
	}
	if code.Has(old) {
		if code.Has(p.Name()) {
			return code.Remove(old)
		}
		if err := code.Add(p, shader.After(old)); err != nil {
			return err
		}
		return code.Remove(old)
	}
	return code.AddOrReplace(p)
}

// OnDestroyGl is called when the context is lost. The GPU resources are
// forgotten and created again at the next draw.
func (r *textureRenderer) OnDestroyGl() {
	r.tex.DestroyGl()
	if r.ownsColormap {
		r.colormap.DestroyGl()
	}
	r.shader.DestroyGl()
}

// Destroy releases the GPU resources and the data.
func (r *textureRenderer) Destroy() {
	r.tex.Destroy()
	if r.ownsColormap {
		r.colormap.Destroy()
	}
	r.shader.DestroyGl()
}
