package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyfloyd/volren/internal/gltest"
	"github.com/polyfloyd/volren/shader"
	"github.com/polyfloyd/volren/shaderlib"
)

// pixel returns the pixel at window coordinates (x, y), with y pointing
// up as in OpenGL.
func pixel(img image.Image, x, y int) color.RGBA {
	return img.At(x, img.Bounds().Dy()-1-y).(color.RGBA)
}

func renderFrame(t *testing.T, w, h int, draw func() error) image.Image {
	t.Helper()
	target, err := NewTarget(w, h)
	require.NoError(t, err)
	defer target.Close()
	img, err := target.Render(draw)
	require.NoError(t, err)
	return img
}

func checkerImage(t *testing.T) *Texture2D {
	r := NewTexture2D(nil)
	require.NoError(t, r.SetData(mustArray(t, []float32{0, 1, 1, 0}, 2, 2)))
	r.SetClim(0, 1)
	require.NoError(t, r.SetColormap("gray"))
	r.SetInterpolate(true)
	return r
}

func TestGLImageCentrePixel(t *testing.T) {
	gltest.Init(t, 3, 3)
	r := checkerImage(t)
	defer r.Destroy()

	cam := Ortho2D(-0.5, 1.5, -0.5, 1.5, 3, 3)
	img := renderFrame(t, 3, 3, func() error { return r.Draw(cam) })
	assert.InDelta(t, 128, int(pixel(img, 1, 1).R), 3)
	// The corners are close to the data values.
	assert.Less(t, int(pixel(img, 0, 0).R), 64)
	assert.Greater(t, int(pixel(img, 2, 0).R), 192)
}

func TestGLImageAntiAliased(t *testing.T) {
	gltest.Init(t, 1, 1)
	r := checkerImage(t)
	defer r.Destroy()
	require.NoError(t, r.SetAA(2))

	cam := Ortho2D(-0.5, 1.5, -0.5, 1.5, 1, 1)
	img := renderFrame(t, 1, 1, func() error { return r.Draw(cam) })
	assert.InDelta(t, 128, int(pixel(img, 0, 0).R), 3)
}

func TestGLImageContextLoss(t *testing.T) {
	gltest.Init(t, 3, 3)
	r := checkerImage(t)
	defer r.Destroy()

	cam := Ortho2D(-0.5, 1.5, -0.5, 1.5, 3, 3)
	draw := func() error { return r.Draw(cam) }
	before := renderFrame(t, 3, 3, draw)
	r.OnDestroyGl()
	assert.Zero(t, r.tex.ID())
	after := renderFrame(t, 3, 3, draw)
	assert.NotZero(t, r.tex.ID())

	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, pixel(before, x, y), pixel(after, x, y), "pixel %d,%d", x, y)
		}
	}
}

// boxCamera looks down the z axis at a volume of n voxels along every axis
// with one pixel per voxel.
func boxCamera(n int) Camera {
	half := float32(n) / 2
	return Camera{
		View:       mgl32.Ident4(),
		Projection: mgl32.Ortho(-0.5, float32(n)-0.5, -0.5, float32(n)-0.5, -10*half, 10*half),
		Viewport:   [4]int32{0, 0, int32(n), int32(n)},
	}
}

func TestGLVolumeMIP(t *testing.T) {
	gltest.Init(t, 4, 4)
	data := make([]float32, 64)
	data[2*16+2*4+2] = 1

	r := NewTexture3D(nil, nil)
	defer r.Destroy()
	require.NoError(t, r.SetData(mustArray(t, data, 4, 4, 4)))
	r.SetClim(0, 1)
	require.NoError(t, r.SetColormap("gray"))

	img := renderFrame(t, 4, 4, func() error { return r.Draw(boxCamera(4)) })
	require.True(t, r.Shader().Program().IsCompiled(), "%v", r.Shader().Program().Err())

	hit := pixel(img, 2, 2)
	assert.Equal(t, [3]uint8{255, 255, 255}, [3]uint8{hit.R, hit.G, hit.B})
	for _, p := range [][2]int{{0, 0}, {0, 2}, {3, 3}, {2, 0}} {
		miss := pixel(img, p[0], p[1])
		assert.Equal(t, [3]uint8{0, 0, 0}, [3]uint8{miss.R, miss.G, miss.B}, "pixel %v", p)
	}
}

func TestGLVolumeStyles(t *testing.T) {
	gltest.Init(t, 4, 4)
	data := make([]float32, 64)
	for i := range data {
		data[i] = float32(i % 4)
	}
	// Subtests run on other goroutines, away from the thread that holds
	// the context.
	for _, style := range []Style{MIP, Ray, Iso, EdgeRay, LitRay} {
		r := NewTexture3D(nil, nil)
		require.NoError(t, r.SetData(mustArray(t, data, 4, 4, 4)))
		require.NoError(t, r.SetStyle(style))
		r.SetIsoThreshold(1.5)

		renderFrame(t, 4, 4, func() error { return r.Draw(boxCamera(4)) })
		assert.True(t, r.Shader().Program().IsCompiled(), "%v: %v", style, r.Shader().Program().Err())
		r.Destroy()
	}
}

// stepsLibrary replaces the MIP part with one that outputs the number of
// ray steps in the red channel.
func stepsLibrary() *shaderlib.Library {
	lib := shaderlib.New()
	lib.Set(shader.NewPart(shaderlib.StyleMIP, "steps", `
		>> --post-loop--
		fragColor = vec4(float(n) / 255.0, 0.0, 0.0, 1.0);
	`))
	return lib
}

func TestGLRaySteps(t *testing.T) {
	gltest.Init(t, 4, 4)
	for _, c := range []struct {
		stepRatio float32
		steps     int
	}{
		// |ray| = 0.58 / 4 / stepRatio
		{1, 7},
		{2, 14},
	} {
		r := NewTexture3D(stepsLibrary(), nil)
		require.NoError(t, r.SetData(mustArray(t, make([]float32, 64), 4, 4, 4)))
		require.NoError(t, r.SetStepRatio(c.stepRatio))

		img := renderFrame(t, 4, 4, func() error { return r.Draw(boxCamera(4)) })
		require.True(t, r.Shader().Program().IsCompiled(), "%v", r.Shader().Program().Err())
		assert.InDelta(t, c.steps, int(pixel(img, 1, 2).R), 1, "step ratio %v", c.stepRatio)
		r.Destroy()
	}
}

func TestGLRayStepsOutside(t *testing.T) {
	gltest.Init(t, 4, 4)
	r := NewTexture3D(stepsLibrary(), nil)
	defer r.Destroy()
	require.NoError(t, r.SetData(mustArray(t, make([]float32, 64), 4, 4, 4)))
	require.NoError(t, r.Shader().Fragment().Add(shader.NewPart("outside", "1", `
		>> int n = calculateSteps(edgeLoc);
		int n = calculateSteps(edgeLoc + vec3(2.0));
	`)))

	img := renderFrame(t, 4, 4, func() error { return r.Draw(boxCamera(4)) })
	require.True(t, r.Shader().Program().IsCompiled(), "%v", r.Shader().Program().Err())
	assert.Equal(t, uint8(0), pixel(img, 1, 2).R)
}

func TestGLMeshFaceColor(t *testing.T) {
	gltest.Init(t, 2, 2)
	m := NewMesh(nil, nil)
	defer m.Destroy()
	require.NoError(t, m.SetGeometry(square, []uint32{0, 1, 2, 3}, 4))
	require.NoError(t, m.SetFaceColor("r"))
	m.SetLit(false)

	cam := Ortho2D(-1, 1, -1, 1, 2, 2)
	img := renderFrame(t, 2, 2, func() error { return m.Draw(cam) })
	p := pixel(img, 0, 1)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{p.R, p.G, p.B})
}

func TestGLMeshLightOff(t *testing.T) {
	gltest.Init(t, 2, 2)
	m := NewMesh(nil, nil)
	defer m.Destroy()
	require.NoError(t, m.SetGeometry(square, []uint32{0, 1, 2, 3}, 4))
	cam := Ortho2D(-1, 1, -1, 1, 2, 2)

	// ambient 0.2*0.7 + diffuse 1*0.7 + specular 0.1*0.3
	const lit = 0.87 * 255
	img := renderFrame(t, 2, 2, func() error { return m.Draw(cam) })
	require.True(t, m.Shader().Program().IsCompiled(), "%v", m.Shader().Program().Err())
	assert.InDelta(t, lit, int(pixel(img, 1, 1).R), 4)

	// A light that is off adds nothing, although GL still holds the
	// colours it was given by the first draw.
	lights := m.lights
	lights.Get(0).Off()
	lights.Get(1).On()
	img = renderFrame(t, 2, 2, func() error { return m.Draw(cam) })
	assert.InDelta(t, lit, int(pixel(img, 1, 1).R), 4)
}
