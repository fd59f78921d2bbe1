package render

import (
	"fmt"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/glutil"
	"github.com/polyfloyd/volren/light"
	"github.com/polyfloyd/volren/ndarray"
	"github.com/polyfloyd/volren/shader"
	"github.com/polyfloyd/volren/shaderlib"
)

// Texture3D draws a volume by casting a ray through it for every fragment
// of its front facing sides.
type Texture3D struct {
	textureRenderer

	lights *light.Lights

	style         Style
	stepRatio     float32
	isoThreshold  float64
	maxIsoSamples int
	material      Material
	subdivision   int

	colorPart, stylePart string
	warnedNoShaders      bool
}

// NewTexture3D creates a volume renderer using the parts of lib, lit by
// lights. A nil library means the built-in parts, nil lights the default
// lights.
func NewTexture3D(lib *shaderlib.Library, lights *light.Lights) *Texture3D {
	if lights == nil {
		lights = light.NewLights()
	}
	r := &Texture3D{
		textureRenderer: newTextureRenderer(3, lib),
		lights:          lights,
		style:           MIP,
		stepRatio:       1,
		maxIsoSamples:   4,
		material:        DefaultMaterial(),
		subdivision:     1,
	}
	must(r.shader.Vertex().Add(r.lib.MustGet(shaderlib.Base3DVertex)))
	must(r.shader.Fragment().Add(r.lib.MustGet(shaderlib.Base3DFragment)))

	r.staticUniforms()
	must(r.shader.SetStaticUniform("extent", func() shader.Uniform {
		return shader.Vec(reversed(floatsToFloat32(r.tex.Extent()), 3))
	}))
	must(r.shader.SetStaticUniform("stepRatio", func() shader.Uniform {
		return shader.Float(r.stepRatio)
	}))
	must(r.shader.SetStaticUniform("th", func() shader.Uniform {
		scale, bias := r.tex.ScaleBias()
		return shader.Float(float32(r.isoThreshold)*scale + bias)
	}))
	must(r.shader.SetStaticUniform("maxIsoSamples", func() shader.Uniform {
		return shader.Int(r.maxIsoSamples)
	}))
	registerMaterial(r.shader, &r.material)
	return r
}

// SetData sets the volume. Its shape is (depth, height, width) optionally
// followed by a channel axis.
func (r *Texture3D) SetData(a *ndarray.Array) error {
	return r.textureRenderer.SetData(a)
}

func (r *Texture3D) Style() Style {
	return r.style
}

func (r *Texture3D) SetStyle(s Style) error {
	if s < MIP || s > LitRay {
		return fmt.Errorf("invalid render style %v", s)
	}
	r.style = s
	return nil
}

// SetStepRatio sets the ray step relative to the voxel size. Values above
// 1 take more samples.
func (r *Texture3D) SetStepRatio(ratio float32) error {
	if ratio <= 0 {
		return fmt.Errorf("step ratio must be positive, got %g", ratio)
	}
	r.stepRatio = ratio
	return nil
}

func (r *Texture3D) StepRatio() float32 {
	return r.stepRatio
}

// SetIsoThreshold sets the data value at which the iso style finds the
// surface.
func (r *Texture3D) SetIsoThreshold(th float64) {
	r.isoThreshold = th
}

func (r *Texture3D) IsoThreshold() float64 {
	return r.isoThreshold
}

// SetMaxIsoSamples sets how many samples beyond the surface the iso style
// averages.
func (r *Texture3D) SetMaxIsoSamples(n int) error {
	if n < 0 {
		return fmt.Errorf("max iso samples must not be negative, got %d", n)
	}
	r.maxIsoSamples = n
	return nil
}

func (r *Texture3D) SetMaterial(m Material) error {
	if err := m.validate(); err != nil {
		return err
	}
	r.material = m
	return nil
}

func (r *Texture3D) Material() Material {
	return r.material
}

// SetSubdivision splits every side of the bounding box in n by n quads,
// which reduces the error of interpolating the rays linearly under a
// perspective projection.
func (r *Texture3D) SetSubdivision(n int) error {
	if n < 1 {
		return fmt.Errorf("subdivision must be at least 1, got %d", n)
	}
	r.subdivision = n
	return nil
}

func (r *Texture3D) Lights() *light.Lights {
	return r.lights
}

func (r *Texture3D) updateParts() error {
	vert, frag := r.shader.Vertex(), r.shader.Fragment()

	var color string
	switch r.colorMode() {
	case colorScalar:
		color = shaderlib.Color3DScalar
	case colorScalarNoCmap:
		color = shaderlib.Color3DScalarNoCmap
	case colorRGB:
		color = shaderlib.Color3DRGB
	case colorRGBA:
		color = shaderlib.Color3DRGBA
	}
	if err := r.setPart(frag, r.stylePart, r.style.part()); err != nil {
		return err
	}
	r.stylePart = r.style.part()
	if err := r.setPart(frag, r.colorPart, color); err != nil {
		return err
	}
	r.colorPart = color

	// calculateColor calls applyLighting, litvoxel has to be added first
	// for its function to end up below.
	for _, name := range []string{shaderlib.LitVoxel, shaderlib.Lighting} {
		switch {
		case r.style.Lit() && !frag.Has(name):
			if err := frag.Add(r.lib.MustGet(name)); err != nil {
				return err
			}
		case !r.style.Lit() && frag.Has(name):
			if err := frag.Remove(name); err != nil {
				return err
			}
		}
	}

	n := shaderlib.LightCount(r.lights.Count())
	if err := vert.AddOrReplace(n); err != nil {
		return err
	}
	return frag.AddOrReplace(n)
}

// modelMatrix maps the box spanning the data on the GPU, in texels, onto
// the world.
func (r *Texture3D) modelMatrix() (mgl32.Mat4, mgl32.Vec3) {
	corr := reversed(floatsToFloat32(r.tex.Correction()), 3)
	scale := mul3(r.trafos.Scale, mgl32.Vec3{corr[0], corr[1], corr[2]})
	t := r.trafos.Translate.Sub(r.trafos.Scale.Mul(0.5))
	m := mgl32.Translate3D(t.X(), t.Y(), t.Z()).Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
	return m, scale
}

// Draw casts the rays through the volume. The depth of every fragment is
// that of the sample that determined its colour. Nothing is drawn when
// shaders are not supported.
func (r *Texture3D) Draw(cam Camera) error {
	if r.tex.Data() == nil {
		return nil
	}
	if !glutil.HasContext() {
		return volren.ErrNoGLContext
	}
	if !glutil.ShadersSupported() {
		if !r.warnedNoShaders {
			volren.Logger().Warn("volumes can not be drawn without shaders")
			r.warnedNoShaders = true
		}
		return nil
	}
	if err := r.updateParts(); err != nil {
		return err
	}
	if err := cam.Load(); err != nil {
		return err
	}
	if err := r.lights.Apply(cam.View); err != nil {
		return err
	}

	gl.PushAttrib(gl.ENABLE_BIT | gl.POLYGON_BIT)
	defer gl.PopAttrib()
	gl.MatrixMode(gl.MODELVIEW)
	gl.PushMatrix()
	defer gl.PopMatrix()

	return r.shader.Draw(func(bool) error {
		// The texture is uploaded by now, the model matrix depends on the
		// shape it ended up with.
		ds := r.tex.DataShape()
		size := mgl32.Vec3{float32(ds[2]), float32(ds[1]), float32(ds[0])}
		m, scale := r.modelMatrix()
		gl.MultMatrixf(&m[0])

		gl.Enable(gl.DEPTH_TEST)
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
		gl.FrontFace(FrontFace(scale))

		gl.Begin(gl.QUADS)
		for _, v := range boxQuads(size, r.subdivision) {
			gl.Vertex3f(v.X(), v.Y(), v.Z())
		}
		gl.End()
		return glutil.CheckError("draw volume")
	})
}
