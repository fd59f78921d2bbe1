package render

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/colors"
	"github.com/polyfloyd/volren/shaderlib"
)

var square = []mgl32.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}}

func TestMeshGeometry(t *testing.T) {
	m := NewMesh(nil, nil)
	assert.True(t, errors.Is(m.SetGeometry(square, []uint32{0, 1}, 2), volren.ErrInvalidShape))
	assert.True(t, errors.Is(m.SetGeometry(square, []uint32{0, 1, 2, 3, 0}, 4), volren.ErrInvalidShape))
	assert.True(t, errors.Is(m.SetGeometry(square, []uint32{0, 1, 4}, 3), volren.ErrInvalidShape))
	require.NoError(t, m.SetGeometry(square, []uint32{0, 1, 2, 0, 2, 3}, 3))

	assert.True(t, errors.Is(m.SetValues([]float32{1}), volren.ErrInvalidShape))
	assert.True(t, errors.Is(m.SetColors([]colors.Color{colors.White}), volren.ErrInvalidShape))
	assert.True(t, errors.Is(m.SetNormals([]mgl32.Vec3{{0, 0, 1}}), volren.ErrInvalidShape))

	require.NoError(t, m.SetValues([]float32{3, 1, 4, 2}))
	assert.Equal(t, 1.0, m.Clim().Min)
	assert.Equal(t, 4.0, m.Clim().Max)

	min, max := m.BoundingBox()
	assert.Equal(t, mgl32.Vec3{-1, -1, 0}, min)
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, max)

	assert.Error(t, m.SetOpacity(1.5))
	assert.Error(t, m.SetEdgeWidth(0))
	assert.Error(t, m.SetFaceColor("not a color"))
	require.NoError(t, m.SetEdgeColor("k"))
	require.NoError(t, m.SetEdgeColor(nil))
}

func TestVertexNormals(t *testing.T) {
	// Two faces folded along the y axis.
	vertices := []mgl32.Vec3{{0, 0, 0}, {0, 1, 0}, {-1, 0, 0}, {0, 0, 1}}
	faces := []uint32{0, 2, 1, 0, 3, 1}
	n := vertexNormals(vertices, faces, 3)

	assert.InDelta(t, 0, n[2].Sub(mgl32.Vec3{0, 0, -1}).Len(), 1e-6)
	assert.InDelta(t, 0, n[3].Sub(mgl32.Vec3{-1, 0, 0}).Len(), 1e-6)
	shared := mgl32.Vec3{-1, 0, -1}.Normalize()
	assert.InDelta(t, 0, n[0].Sub(shared).Len(), 1e-6)
	assert.InDelta(t, 0, n[1].Sub(shared).Len(), 1e-6)
}

func TestMeshCorners(t *testing.T) {
	m := NewMesh(nil, nil)
	require.NoError(t, m.SetGeometry(square, []uint32{0, 1, 2, 3}, 4))

	pos, nrm, val, col := m.corners()
	assert.Len(t, pos, 12)
	assert.Len(t, nrm, 12)
	assert.Nil(t, val)
	assert.Nil(t, col)
	for i := 0; i < len(nrm); i += 3 {
		assert.Equal(t, []float32{0, 0, 1}, nrm[i:i+3])
	}

	require.NoError(t, m.SetColors([]colors.Color{colors.White, colors.Black, colors.White, colors.Black}))
	_, _, val, col = m.corners()
	assert.Nil(t, val)
	assert.Equal(t, []float32{0, 0, 0, 1}, col[4:8])

	require.NoError(t, m.SetValues([]float32{0, 1, 2, 3}))
	_, _, val, col = m.corners()
	assert.Equal(t, []float32{0, 1, 2, 3}, val)
	assert.Nil(t, col)
}

func TestMeshFlatNormals(t *testing.T) {
	vertices := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	m := NewMesh(nil, nil)
	require.NoError(t, m.SetGeometry(vertices, []uint32{0, 1, 2, 0, 1, 3}, 3))
	m.SetShading(ShadingFlat)

	_, nrm, _, _ := m.corners()
	require.Len(t, nrm, 18)
	for i := 0; i < 9; i += 3 {
		assert.Equal(t, []float32{0, 0, 1}, nrm[i:i+3])
	}
	for i := 9; i < 18; i += 3 {
		assert.Equal(t, []float32{0, -1, 0}, nrm[i:i+3])
	}
}

func TestMeshParts(t *testing.T) {
	m := NewMesh(nil, nil)
	require.NoError(t, m.SetGeometry(square, []uint32{0, 1, 2, 3}, 4))
	require.NoError(t, m.updateParts())
	frag := m.Shader().Fragment()
	assert.True(t, frag.Has(shaderlib.MeshAlbeidoPlain))
	assert.True(t, frag.Has(shaderlib.MeshLightPhong))
	assert.True(t, frag.Has(shaderlib.Lighting))
	assert.True(t, m.Shader().Vertex().Has(shaderlib.MeshAlbeidoPlain))

	require.NoError(t, m.SetValues([]float32{0, 1, 2, 3}))
	m.SetLit(false)
	require.NoError(t, m.updateParts())
	assert.Equal(t, []string{
		shaderlib.MeshBaseFragment,
		shaderlib.MeshFinalColor,
		shaderlib.MeshAlbeidoColormap,
		shaderlib.MeshLightUnlit,
		"light-count",
	}, partNames(frag))
	assert.Contains(t, m.Shader().Vertex().GetCode(), "vertexValue = gl_MultiTexCoord0.x;")
	assert.Contains(t, frag.GetCode(), "albeido = texture1D(colormap, vertexValue * scaleBias[0] + scaleBias[1]);")
}
