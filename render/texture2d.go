package render

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v2.1/gl"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/glutil"
	"github.com/polyfloyd/volren/ndarray"
	"github.com/polyfloyd/volren/shaderlib"
)

// MaxAA is the largest half size of the anti-aliasing kernel.
const MaxAA = 3

// Texture2D draws an image: a 2D array of scalars, RGB or RGBA values.
type Texture2D struct {
	textureRenderer

	aa        int
	colorPart string
}

// NewTexture2D creates an image renderer using the parts of lib. A nil
// library means the built-in parts.
func NewTexture2D(lib *shaderlib.Library) *Texture2D {
	r := &Texture2D{textureRenderer: newTextureRenderer(2, lib)}
	vert := r.shader.Vertex()
	frag := r.shader.Fragment()
	must(vert.Add(r.lib.MustGet(shaderlib.Base2DVertex)))
	must(frag.Add(r.lib.MustGet(shaderlib.Base2DFragment)))
	must(frag.Add(shaderlib.AASteps(0)))
	r.staticUniforms()
	return r
}

// SetData sets the image. Its shape is (height, width) optionally followed
// by a channel axis.
func (r *Texture2D) SetData(a *ndarray.Array) error {
	return r.textureRenderer.SetData(a)
}

// SetAA sets the half size of the anti-aliasing kernel, 0 to disable it.
func (r *Texture2D) SetAA(n int) error {
	if n < 0 || n > MaxAA {
		return fmt.Errorf("anti-aliasing must be between 0 and %d, got %d", MaxAA, n)
	}
	if err := r.shader.Fragment().AddOrReplace(shaderlib.AASteps(n)); err != nil {
		return err
	}
	r.aa = n
	return nil
}

func (r *Texture2D) AA() int {
	return r.aa
}

// AAKernel returns the weights at distance 0 to 3 of a Gaussian kernel for
// the given number of data pixels per screen pixel. The weights are
// normalised over the full 7 tap kernel. When every data pixel spans at
// least a screen pixel only the centre tap remains.
func AAKernel(ratio float32) [4]float32 {
	sigma := ratio / 2
	if ratio <= 1 || sigma < 0.1 {
		return [4]float32{1, 0, 0, 0}
	}
	var k [4]float32
	total := float32(0)
	for d := range k {
		k[d] = math32.Exp(-float32(d*d) / (2 * sigma * sigma))
		if d == 0 {
			total += k[d]
		} else {
			total += 2 * k[d]
		}
	}
	for d := range k {
		k[d] /= total
	}
	return k
}

// dataPixelsPerScreenPixel returns how many data pixels are squeezed into
// one screen pixel horizontally.
func (r *Texture2D) dataPixelsPerScreenPixel(cam Camera) float32 {
	ppu := cam.PixelsPerUnit() * math32.Abs(r.trafos.Scale.X())
	if ppu <= 0 || math32.IsNaN(ppu) || math32.IsInf(ppu, 0) {
		return 1
	}
	return 1 / ppu
}

func (r *Texture2D) updateColorPart() error {
	var name string
	switch r.colorMode() {
	case colorScalar:
		name = shaderlib.Color2DScalar
	case colorScalarNoCmap:
		name = shaderlib.Color2DScalarNoCmap
	default:
		name = shaderlib.Color2DRGB
	}
	if name == r.colorPart {
		return nil
	}
	if err := r.setPart(r.shader.Fragment(), r.colorPart, name); err != nil {
		return err
	}
	r.colorPart = name
	return nil
}

// Draw draws the image with the camera. Without shaders the image is drawn
// with the fixed function pipeline, without colormap or anti-aliasing.
func (r *Texture2D) Draw(cam Camera) error {
	a := r.tex.Data()
	if a == nil {
		return nil
	}
	if err := r.updateColorPart(); err != nil {
		return err
	}
	if err := cam.Load(); err != nil {
		return err
	}
	if err := r.shader.SetUniform("aakernel", AAKernel(r.dataPixelsPerScreenPixel(cam))); err != nil {
		return err
	}

	gl.MatrixMode(gl.MODELVIEW)
	gl.PushMatrix()
	defer gl.PopMatrix()
	m := r.trafos.Matrix()
	gl.MultMatrixf(&m[0])

	w, h := float32(a.Shape[1]), float32(a.Shape[0])
	err := r.shader.Draw(func(programmable bool) error {
		ext := r.tex.Extent()
		ex, ey := float32(ext[1]), float32(ext[0])
		if !programmable {
			gl.Color4f(1, 1, 1, 1)
		}
		gl.Begin(gl.QUADS)
		gl.TexCoord2f(0, 0)
		gl.Vertex2f(-0.5, -0.5)
		gl.TexCoord2f(ex, 0)
		gl.Vertex2f(w-0.5, -0.5)
		gl.TexCoord2f(ex, ey)
		gl.Vertex2f(w-0.5, h-0.5)
		gl.TexCoord2f(0, ey)
		gl.Vertex2f(-0.5, h-0.5)
		gl.End()
		return glutil.CheckError("draw image")
	}, "texture")
	if err == nil && !r.shader.Program().IsCompiled() && r.shader.Program().Usable() {
		volren.Logger().Debug("image drawn without shader", "err", r.shader.Program().Err())
	}
	return err
}
