package shaderlib

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/shader"
)

func compose(t *testing.T, lib *Library, names ...string) string {
	t.Helper()
	code := &shader.Code{}
	for _, name := range names {
		require.NoError(t, code.Add(lib.MustGet(name)))
	}
	return code.GetCode()
}

func TestBuiltinParts(t *testing.T) {
	lib := New()
	for _, name := range []string{
		Base2DVertex, Base2DFragment, Base3DVertex, Base3DFragment,
		Color2DScalarNoCmap, Color2DScalar, Color2DRGB,
		Color3DScalarNoCmap, Color3DScalar, Color3DRGB, Color3DRGBA,
		StyleMIP, StyleRay, StyleIso, StyleEdgeRay, StyleLitRay,
		LitVoxel, Lighting,
		MeshBaseVertex, MeshBaseFragment, MeshAlbeidoPlain, MeshAlbeidoVertex,
		MeshAlbeidoColormap, MeshLightUnlit, MeshLightPhong, MeshFinalColor,
	} {
		p, err := lib.Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, BuiltinVersion, p.Version())
		assert.NotEmpty(t, p.Code())
	}
	_, err := lib.Get("nope")
	assert.True(t, errors.Is(err, volren.ErrUnknownPart))
	assert.Contains(t, lib.Names(), StyleMIP)
}

func TestComposeVolumeStyles(t *testing.T) {
	lib := New()
	for _, style := range []string{StyleMIP, StyleRay, StyleIso, StyleEdgeRay, StyleLitRay} {
		t.Run(style, func(t *testing.T) {
			names := []string{Base3DFragment, style, Color3DScalar}
			if style == StyleIso || style == StyleLitRay {
				names = append(names, LitVoxel, Lighting)
			}
			src := compose(t, lib, names...)
			for _, slot := range []string{"--pre-loop--", "--in-loop--", "--post-loop--", "--color1-to-val--", "--color1-to-color2--"} {
				assert.NotContains(t, src, slot)
			}
			assert.Contains(t, src, "uniform sampler1D colormap;")
			assert.Contains(t, src, "texture1D(colormap, val)")
			assert.Equal(t, 1, strings.Count(src, "// --uniforms--"))
			if style == StyleIso || style == StyleLitRay {
				// Functions are inserted above the ones added before them.
				assert.Less(t, strings.Index(src, "vec4 applyLighting("), strings.Index(src, "vec4 calculateColor("))
				assert.Contains(t, src, "N = (2.0 * sel - 1.0) * N;")
			}
		})
	}
}

func TestComposeMIP(t *testing.T) {
	src := compose(t, New(), Base3DFragment, StyleMIP, Color3DScalar)
	assert.Contains(t, src, "\n            maxcolor1 = mix(maxcolor1, color1, better);\n")
	assert.Contains(t, src, "\n    iter_depth = float(maxi);\n")
	assert.NotContains(t, src, "calculateColor")
}

func TestAASteps(t *testing.T) {
	lib := New()
	for _, n := range []int{0, 1, 2, 3} {
		code := &shader.Code{}
		require.NoError(t, code.Add(lib.MustGet(Base2DFragment)))
		require.NoError(t, code.Add(AASteps(n)))
		require.NoError(t, code.Add(lib.MustGet(Color2DScalar)))
		src := code.GetCode()
		if n != 0 {
			assert.NotContains(t, src, "int sze = 0;")
		}
		assert.Contains(t, src, "    int sze = "+string(rune('0'+n))+";\n")
	}
}

func TestLightCount(t *testing.T) {
	lib := New()
	for _, base := range []string{Base3DVertex, Base3DFragment, MeshBaseVertex, MeshBaseFragment} {
		code := &shader.Code{}
		require.NoError(t, code.Add(lib.MustGet(base)))
		require.NoError(t, code.Add(LightCount(3)))
		src := code.GetCode()
		assert.Contains(t, src, "const int nlights = 3;", base)
		assert.NotContains(t, src, "const int nlights = 1;", base)
	}
	assert.Equal(t, "1", LightCount(0).Version())
}

func TestComposeMesh(t *testing.T) {
	lib := New()
	vert := compose(t, lib, MeshBaseVertex, MeshAlbeidoColormap)
	assert.Contains(t, vert, "    vertexValue = gl_MultiTexCoord0.x;\n")
	assert.Contains(t, vert, "varying float vertexValue;")

	frag := compose(t, lib, MeshBaseFragment, MeshAlbeidoColormap, MeshLightPhong, Lighting, MeshFinalColor)
	for _, slot := range []string{"--albeido--", "--light--", "--final-color--"} {
		assert.NotContains(t, frag, slot)
	}
	assert.Contains(t, frag, "litColor = applyLighting(albeido, normal);")
	assert.Contains(t, frag, "uniform float opacity;")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	common := filepath.Join(dir, "common.inc")
	require.NoError(t, os.WriteFile(common, []byte("float twice(float v) { return 2.0 * v; }\n"), 0o644))
	mip := filepath.Join(dir, "mip.glsl")
	require.NoError(t, os.WriteFile(mip, []byte(`#pragma use "common.inc"
>> --in-loop--
maxval = max(maxval, twice(1.0));
`), 0o644))

	lib := New()
	require.NoError(t, lib.LoadDir(dir))
	p := lib.MustGet(StyleMIP)
	assert.NotEqual(t, BuiltinVersion, p.Version())
	assert.Contains(t, p.Code(), "float twice(float v)")
	assert.NotContains(t, p.Code(), "#pragma use")
	require.Len(t, p.Sections(), 1)
	assert.Equal(t, []string{"maxval = max(maxval, twice(1.0));"}, p.Sections()[0].Replacement)

	files := lib.Files()
	assert.Len(t, files, 2)
	assert.Contains(t, files, mip)
	assert.Contains(t, files, common)

	// Other parts are left alone.
	assert.Equal(t, BuiltinVersion, lib.MustGet(StyleRay).Version())
}

func TestIncludesCycle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.glsl")
	b := filepath.Join(dir, "b.glsl")
	require.NoError(t, os.WriteFile(a, []byte("#pragma use \"b.glsl\"\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("#pragma use \"a.glsl\"\n"), 0o644))
	sources, err := Includes(a)
	require.NoError(t, err)
	assert.Equal(t, []SourceFile{{Filename: b}, {Filename: a}}, sources)
}
