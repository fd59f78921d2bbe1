package render

import (
	"fmt"
	"math"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/clim"
	"github.com/polyfloyd/volren/colors"
	"github.com/polyfloyd/volren/glutil"
	"github.com/polyfloyd/volren/light"
	"github.com/polyfloyd/volren/shader"
	"github.com/polyfloyd/volren/shaderlib"
	"github.com/polyfloyd/volren/texture"
)

// Shading selects how normals are interpolated over the faces of a mesh.
type Shading int

const (
	// ShadingFlat gives every face the normal of its plane.
	ShadingFlat Shading = iota
	// ShadingSmooth interpolates the vertex normals.
	ShadingSmooth
)

func (s Shading) String() string {
	if s == ShadingFlat {
		return "flat"
	}
	return "smooth"
}

// Mesh draws a surface of triangles or quads. The faces are coloured with
// a single colour, a colour per vertex or a value per vertex mapped through
// a colormap.
type Mesh struct {
	lib    *shaderlib.Library
	lights *light.Lights
	shader *shader.Shader

	vertices        []mgl32.Vec3
	faces           []uint32
	verticesPerFace int
	normals         []mgl32.Vec3
	values          []float32
	colors          []colors.Color

	clim         clim.Range
	colormap     *texture.Colormap
	ownsColormap bool

	faceColor colors.Color
	edgeColor *colors.Color
	edgeWidth float32
	opacity   float32
	shading   Shading
	lit       bool
	material  Material
	trafos    Trafos

	buffers meshBuffers
	parts   [2]string
}

// meshBuffers holds the vertex buffer objects. Faces are expanded so every
// corner has its own vertex, which is what flat shading needs.
type meshBuffers struct {
	// position, normal, value and colour
	ids   [4]uint32
	count int32
	dirty bool
}

// NewMesh creates a mesh renderer using the parts of lib, lit by lights. A
// nil library means the built-in parts, nil lights the default lights.
func NewMesh(lib *shaderlib.Library, lights *light.Lights) *Mesh {
	if lib == nil {
		lib = shaderlib.New()
	}
	if lights == nil {
		lights = light.NewLights()
	}
	m := &Mesh{
		lib:             lib,
		lights:          lights,
		shader:          shader.New(nil, nil),
		verticesPerFace: 3,
		colormap:        texture.NewColormap(),
		ownsColormap:    true,
		faceColor:       colors.White,
		edgeWidth:       1,
		opacity:         1,
		shading:         ShadingSmooth,
		lit:             true,
		material:        DefaultMaterial(),
		trafos:          Trafos{Scale: mgl32.Vec3{1, 1, 1}},
	}
	must(m.shader.Vertex().Add(lib.MustGet(shaderlib.MeshBaseVertex)))
	must(m.shader.Fragment().Add(lib.MustGet(shaderlib.MeshBaseFragment)))
	must(m.shader.Fragment().Add(lib.MustGet(shaderlib.MeshFinalColor)))

	must(m.shader.SetStaticUniform("colormap", func() shader.Uniform {
		return shader.TextureRef{Texture: m.colormap}
	}))
	must(m.shader.SetStaticUniform("scaleBias", func() shader.Uniform {
		s := m.clim.Range()
		if s == 0 {
			s = 1
		}
		return shader.Vec{float32(1 / s), float32(-m.clim.Min / s)}
	}))
	must(m.shader.SetStaticUniform("faceColor", func() shader.Uniform {
		c := m.faceColor.RGBA32()
		return shader.Vec(c[:])
	}))
	must(m.shader.SetStaticUniform("opacity", func() shader.Uniform {
		return shader.Float(m.opacity)
	}))
	registerMaterial(m.shader, &m.material)
	return m
}

// SetGeometry sets the vertices and the faces, verticesPerFace (3 or 4)
// indices per face. Normals, values and colours are reset.
func (m *Mesh) SetGeometry(vertices []mgl32.Vec3, faces []uint32, verticesPerFace int) error {
	if verticesPerFace != 3 && verticesPerFace != 4 {
		return fmt.Errorf("%w: faces must have 3 or 4 vertices, got %d", volren.ErrInvalidShape, verticesPerFace)
	}
	if len(faces)%verticesPerFace != 0 {
		return fmt.Errorf("%w: %d indices do not form faces of %d vertices", volren.ErrInvalidShape, len(faces), verticesPerFace)
	}
	for _, i := range faces {
		if int(i) >= len(vertices) {
			return fmt.Errorf("%w: face refers to vertex %d of %d", volren.ErrInvalidShape, i, len(vertices))
		}
	}
	m.vertices = vertices
	m.faces = faces
	m.verticesPerFace = verticesPerFace
	m.normals = nil
	m.values = nil
	m.colors = nil
	m.buffers.dirty = true
	return nil
}

// SetNormals sets a normal per vertex for smooth shading. Without normals
// they are computed from the faces.
func (m *Mesh) SetNormals(normals []mgl32.Vec3) error {
	if normals != nil && len(normals) != len(m.vertices) {
		return fmt.Errorf("%w: %d normals for %d vertices", volren.ErrInvalidShape, len(normals), len(m.vertices))
	}
	m.normals = normals
	m.buffers.dirty = true
	return nil
}

// SetValues sets a value per vertex that is mapped through the colormap.
// The contrast limits are reset to the range of the values.
func (m *Mesh) SetValues(values []float32) error {
	if values != nil && len(values) != len(m.vertices) {
		return fmt.Errorf("%w: %d values for %d vertices", volren.ErrInvalidShape, len(values), len(m.vertices))
	}
	m.values = values
	m.colors = nil
	if len(values) > 0 {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range values {
			lo = math.Min(lo, float64(v))
			hi = math.Max(hi, float64(v))
		}
		m.clim = clim.New(lo, hi)
	}
	m.buffers.dirty = true
	return nil
}

// SetColors sets a colour per vertex.
func (m *Mesh) SetColors(cs []colors.Color) error {
	if cs != nil && len(cs) != len(m.vertices) {
		return fmt.Errorf("%w: %d colors for %d vertices", volren.ErrInvalidShape, len(cs), len(m.vertices))
	}
	m.colors = cs
	m.values = nil
	m.buffers.dirty = true
	return nil
}

// SetFaceColor sets the colour used without values or vertex colours.
func (m *Mesh) SetFaceColor(v any) error {
	c, err := colors.Parse(v)
	if err != nil {
		return err
	}
	m.faceColor = c
	return nil
}

// SetEdgeColor draws the edges of the faces in the given colour. A nil
// value hides them.
func (m *Mesh) SetEdgeColor(v any) error {
	if v == nil {
		m.edgeColor = nil
		return nil
	}
	c, err := colors.Parse(v)
	if err != nil {
		return err
	}
	m.edgeColor = &c
	return nil
}

func (m *Mesh) SetEdgeWidth(w float32) error {
	if w <= 0 {
		return fmt.Errorf("edge width must be positive, got %g", w)
	}
	m.edgeWidth = w
	return nil
}

func (m *Mesh) SetOpacity(a float32) error {
	if a < 0 || a > 1 {
		return fmt.Errorf("opacity must be between 0 and 1, got %g", a)
	}
	m.opacity = a
	return nil
}

func (m *Mesh) SetShading(s Shading) {
	if s != m.shading {
		m.shading = s
		m.buffers.dirty = true
	}
}

// SetLit selects whether the faces are lit.
func (m *Mesh) SetLit(lit bool) {
	m.lit = lit
}

func (m *Mesh) SetMaterial(mat Material) error {
	if err := mat.validate(); err != nil {
		return err
	}
	m.material = mat
	return nil
}

func (m *Mesh) SetClim(min, max float64) {
	m.clim = clim.New(min, max)
}

func (m *Mesh) Clim() clim.Range {
	return m.clim
}

// SetColormap sets the colormap from anything texture.Colormap.SetMap
// accepts. A shared colormap is replaced by a colormap of its own.
func (m *Mesh) SetColormap(v any) error {
	cmap := m.colormap
	if !m.ownsColormap {
		cmap = texture.NewColormap()
	}
	if err := cmap.SetMap(v); err != nil {
		return err
	}
	m.colormap = cmap
	m.ownsColormap = true
	return nil
}

// ShareColormap makes the mesh use the colormap of another renderer.
func (m *Mesh) ShareColormap(c *texture.Colormap) {
	if m.ownsColormap && m.colormap != c {
		m.colormap.Destroy()
	}
	m.colormap = c
	m.ownsColormap = false
}

func (m *Mesh) Colormap() *texture.Colormap {
	return m.colormap
}

func (m *Mesh) Trafos() Trafos {
	return m.trafos
}

func (m *Mesh) SetTrafos(t Trafos) {
	m.trafos = t
}

// BoundingBox returns the world coordinates of the corners of the box
// around the vertices.
func (m *Mesh) BoundingBox() (min, max mgl32.Vec3) {
	if len(m.vertices) == 0 {
		return
	}
	mat := m.trafos.Matrix()
	for i, v := range m.vertices {
		w := mgl32.TransformCoordinate(v, mat)
		if i == 0 {
			min, max = w, w
			continue
		}
		for k := 0; k < 3; k++ {
			min[k] = float32(math.Min(float64(min[k]), float64(w[k])))
			max[k] = float32(math.Max(float64(max[k]), float64(w[k])))
		}
	}
	return min, max
}

func (m *Mesh) Shader() *shader.Shader {
	return m.shader
}

func faceNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	if l := n.Len(); l > 0 {
		return n.Mul(1 / l)
	}
	return n
}

// vertexNormals averages the normals of the faces around every vertex,
// weighted by the face area.
func vertexNormals(vertices []mgl32.Vec3, faces []uint32, perFace int) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(vertices))
	for f := 0; f+perFace <= len(faces); f += perFace {
		a, b, c := vertices[faces[f]], vertices[faces[f+1]], vertices[faces[f+2]]
		n := b.Sub(a).Cross(c.Sub(a))
		for _, i := range faces[f : f+perFace] {
			out[i] = out[i].Add(n)
		}
	}
	for i, n := range out {
		if l := n.Len(); l > 0 {
			out[i] = n.Mul(1 / l)
		}
	}
	return out
}

// corners expands the faces into flat per corner arrays. The value and
// colour arrays are nil when the mesh has no values or colours.
func (m *Mesh) corners() (pos, nrm, val, col []float32) {
	smooth := m.normals
	if m.shading == ShadingSmooth && smooth == nil {
		smooth = vertexNormals(m.vertices, m.faces, m.verticesPerFace)
	}
	n := len(m.faces)
	pos = make([]float32, 0, 3*n)
	nrm = make([]float32, 0, 3*n)
	if m.values != nil {
		val = make([]float32, 0, n)
	}
	if m.colors != nil {
		col = make([]float32, 0, 4*n)
	}
	for f := 0; f+m.verticesPerFace <= n; f += m.verticesPerFace {
		face := m.faces[f : f+m.verticesPerFace]
		flat := faceNormal(m.vertices[face[0]], m.vertices[face[1]], m.vertices[face[2]])
		for _, i := range face {
			v := m.vertices[i]
			pos = append(pos, v[:]...)
			if m.shading == ShadingSmooth {
				nrm = append(nrm, smooth[i][:]...)
			} else {
				nrm = append(nrm, flat[:]...)
			}
			if val != nil {
				val = append(val, m.values[i])
			}
			if col != nil {
				c := m.colors[i].RGBA32()
				col = append(col, c[:]...)
			}
		}
	}
	return pos, nrm, val, col
}

func (m *Mesh) upload() error {
	b := &m.buffers
	if b.ids[0] != 0 && !gl.IsBuffer(b.ids[0]) {
		b.ids = [4]uint32{}
	}
	if b.ids[0] != 0 && !b.dirty {
		return nil
	}
	if b.ids[0] == 0 {
		gl.GenBuffers(int32(len(b.ids)), &b.ids[0])
	}
	pos, nrm, val, col := m.corners()
	for i, data := range [][]float32{pos, nrm, val, col} {
		gl.BindBuffer(gl.ARRAY_BUFFER, b.ids[i])
		if len(data) == 0 {
			gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.STATIC_DRAW)
			continue
		}
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	b.count = int32(len(pos) / 3)
	b.dirty = false
	volren.Logger().Debug("mesh uploaded", "corners", b.count)
	return glutil.CheckError("mesh upload")
}

func (m *Mesh) bindArrays() {
	b := &m.buffers
	gl.BindBuffer(gl.ARRAY_BUFFER, b.ids[0])
	gl.VertexPointer(3, gl.FLOAT, 0, nil)
	gl.EnableClientState(gl.VERTEX_ARRAY)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.ids[1])
	gl.NormalPointer(gl.FLOAT, 0, nil)
	gl.EnableClientState(gl.NORMAL_ARRAY)
	if m.values != nil {
		gl.BindBuffer(gl.ARRAY_BUFFER, b.ids[2])
		gl.TexCoordPointer(1, gl.FLOAT, 0, nil)
		gl.EnableClientState(gl.TEXTURE_COORD_ARRAY)
	}
	if m.colors != nil {
		gl.BindBuffer(gl.ARRAY_BUFFER, b.ids[3])
		gl.ColorPointer(4, gl.FLOAT, 0, nil)
		gl.EnableClientState(gl.COLOR_ARRAY)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func unbindArrays() {
	gl.DisableClientState(gl.VERTEX_ARRAY)
	gl.DisableClientState(gl.NORMAL_ARRAY)
	gl.DisableClientState(gl.TEXTURE_COORD_ARRAY)
	gl.DisableClientState(gl.COLOR_ARRAY)
}

func (m *Mesh) updateParts() error {
	albeido := shaderlib.MeshAlbeidoPlain
	switch {
	case m.values != nil:
		albeido = shaderlib.MeshAlbeidoColormap
	case m.colors != nil:
		albeido = shaderlib.MeshAlbeidoVertex
	}
	lit := shaderlib.MeshLightUnlit
	if m.lit {
		lit = shaderlib.MeshLightPhong
	}
	vert, frag := m.shader.Vertex(), m.shader.Fragment()
	if albeido != m.parts[0] {
		p := m.lib.MustGet(albeido)
		if err := swapPart(vert, m.parts[0], p); err != nil {
			return err
		}
		if err := swapPart(frag, m.parts[0], p); err != nil {
			return err
		}
		m.parts[0] = albeido
	}
	if lit != m.parts[1] {
		if err := swapPart(frag, m.parts[1], m.lib.MustGet(lit)); err != nil {
			return err
		}
		m.parts[1] = lit
	}
	switch {
	case m.lit && !frag.Has(shaderlib.Lighting):
		if err := frag.Add(m.lib.MustGet(shaderlib.Lighting)); err != nil {
			return err
		}
	case !m.lit && frag.Has(shaderlib.Lighting):
		if err := frag.Remove(shaderlib.Lighting); err != nil {
			return err
		}
	}
	n := shaderlib.LightCount(m.lights.Count())
	if err := vert.AddOrReplace(n); err != nil {
		return err
	}
	return frag.AddOrReplace(n)
}

func (m *Mesh) mode() uint32 {
	if m.verticesPerFace == 4 {
		return gl.QUADS
	}
	return gl.TRIANGLES
}

// Draw draws the faces and then the edges. Without shaders the faces are
// drawn with the fixed function pipeline in the face or vertex colours.
func (m *Mesh) Draw(cam Camera) error {
	if len(m.faces) == 0 {
		return nil
	}
	if !glutil.HasContext() {
		return volren.ErrNoGLContext
	}
	if err := m.updateParts(); err != nil {
		return err
	}
	if err := cam.Load(); err != nil {
		return err
	}
	if err := m.lights.Apply(cam.View); err != nil {
		return err
	}
	if err := m.upload(); err != nil {
		return err
	}

	gl.PushAttrib(gl.ENABLE_BIT | gl.POLYGON_BIT | gl.LINE_BIT | gl.CURRENT_BIT | gl.LIGHTING_BIT)
	defer gl.PopAttrib()
	gl.MatrixMode(gl.MODELVIEW)
	gl.PushMatrix()
	defer gl.PopMatrix()
	mat := m.trafos.Matrix()
	gl.MultMatrixf(&mat[0])

	m.bindArrays()
	defer unbindArrays()
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.POLYGON_OFFSET_FILL)
	gl.PolygonOffset(1, 1)

	ok, err := m.shader.Enable()
	if err != nil {
		return err
	}
	if ok {
		gl.DrawArrays(m.mode(), 0, m.buffers.count)
		m.shader.Disable()
	} else {
		m.drawFixed()
	}
	gl.Disable(gl.POLYGON_OFFSET_FILL)

	if m.edgeColor != nil {
		gl.Disable(gl.LIGHTING)
		gl.DisableClientState(gl.COLOR_ARRAY)
		c := m.edgeColor.RGBA32()
		gl.Color4f(c[0], c[1], c[2], c[3])
		gl.LineWidth(m.edgeWidth)
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		gl.DrawArrays(m.mode(), 0, m.buffers.count)
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	return glutil.CheckError("draw mesh")
}

func (m *Mesh) drawFixed() {
	c := m.faceColor.RGBA32()
	c[3] *= m.opacity
	gl.Color4f(c[0], c[1], c[2], c[3])
	if m.lit {
		gl.Enable(gl.LIGHTING)
		gl.Enable(gl.COLOR_MATERIAL)
		gl.ColorMaterial(gl.FRONT_AND_BACK, gl.AMBIENT_AND_DIFFUSE)
		spec := m.material.Specular.RGBA32()
		gl.Materialfv(gl.FRONT_AND_BACK, gl.SPECULAR, &spec[0])
		gl.Materialf(gl.FRONT_AND_BACK, gl.SHININESS, m.material.Shininess)
	}
	if m.shading == ShadingFlat {
		gl.ShadeModel(gl.FLAT)
	}
	gl.DrawArrays(m.mode(), 0, m.buffers.count)
	gl.ShadeModel(gl.SMOOTH)
}

// OnDestroyGl forgets the GPU resources after the context was lost.
func (m *Mesh) OnDestroyGl() {
	if m.buffers.ids[0] != 0 && glutil.HasContext() && gl.IsBuffer(m.buffers.ids[0]) {
		gl.DeleteBuffers(int32(len(m.buffers.ids)), &m.buffers.ids[0])
	}
	m.buffers = meshBuffers{dirty: true}
	if m.ownsColormap {
		m.colormap.DestroyGl()
	}
	m.shader.DestroyGl()
}

// Destroy releases the GPU resources and the geometry.
func (m *Mesh) Destroy() {
	m.OnDestroyGl()
	if m.ownsColormap {
		m.colormap.Destroy()
	}
	m.vertices, m.faces, m.normals, m.values, m.colors = nil, nil, nil, nil, nil
}
