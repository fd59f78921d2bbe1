// Package shaderlib holds the GLSL parts the renderers are composed of.
//
// The built-in parts are embedded. A directory of *.glsl files can be
// loaded on top of them to override parts by name, which together with
// Files allows editing shaders while the program runs.
package shaderlib

import (
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/shader"
)

//go:embed parts/*.glsl
var builtin embed.FS

// BuiltinVersion is the version of all embedded parts.
const BuiltinVersion = "1"

// Names of the parts that are referred to from code.
const (
	Base2DVertex   = "2d-base-vertex"
	Base2DFragment = "2d-base-fragment"
	Base3DVertex   = "3d-base-vertex"
	Base3DFragment = "3d-base-fragment"

	Color2DScalarNoCmap = "2d-color-scalar-nocmap"
	Color2DScalar       = "2d-color-scalar"
	Color2DRGB          = "2d-color-rgb"
	Color3DScalarNoCmap = "3d-color-scalar-nocmap"
	Color3DScalar       = "3d-color-scalar"
	Color3DRGB          = "3d-color-rgb"
	Color3DRGBA         = "3d-color-rgba"

	StyleMIP     = "mip"
	StyleRay     = "ray"
	StyleIso     = "iso"
	StyleEdgeRay = "edgeray"
	StyleLitRay  = "litray"

	LitVoxel = "litvoxel"
	Lighting = "lighting"

	MeshBaseVertex      = "mesh-base-vertex"
	MeshBaseFragment    = "mesh-base-fragment"
	MeshAlbeidoPlain    = "mesh-albeido-plain"
	MeshAlbeidoVertex   = "mesh-albeido-vertex"
	MeshAlbeidoColormap = "mesh-albeido-colormap"
	MeshLightUnlit      = "mesh-light-unlit"
	MeshLightPhong      = "mesh-light-phong"
	MeshFinalColor      = "mesh-final-color"

	aaStepsName    = "aa-steps"
	lightCountName = "light-count"
)

// Library is a set of parts by name.
type Library struct {
	parts map[string]shader.Part
	files []string
}

// New returns a library holding the built-in parts.
func New() *Library {
	l := &Library{parts: map[string]shader.Part{}}
	entries, err := builtin.ReadDir("parts")
	if err != nil {
		panic(err)
	}
	for _, e := range entries {
		buf, err := builtin.ReadFile(path.Join("parts", e.Name()))
		if err != nil {
			panic(err)
		}
		name := strings.TrimSuffix(e.Name(), ".glsl")
		l.parts[name] = shader.NewPart(name, BuiltinVersion, string(buf))
	}
	return l
}

// Get returns the named part.
func (l *Library) Get(name string) (shader.Part, error) {
	p, ok := l.parts[name]
	if !ok {
		return shader.Part{}, fmt.Errorf("%w: %q is not in the library", volren.ErrUnknownPart, name)
	}
	return p, nil
}

// MustGet is like Get but panics when the part does not exist. It is meant
// for the names declared in this package.
func (l *Library) MustGet(name string) shader.Part {
	p, err := l.Get(name)
	if err != nil {
		panic(err)
	}
	return p
}

// Set adds or overrides a part.
func (l *Library) Set(p shader.Part) {
	l.parts[p.Name()] = p
}

// Names returns the names of all parts, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.parts))
	for name := range l.parts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDir loads every *.glsl file in dir as a part named after the file,
// replacing parts of the same name. Files may include other files with
//
//	#pragma use "file.glsl"
//
// whose contents are put in front of the including file.
func (l *Library) LoadDir(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.glsl"))
	if err != nil {
		return err
	}
	var files []string
	loaded := map[string]shader.Part{}
	for _, filename := range matches {
		sources, err := Includes(filename)
		if err != nil {
			return err
		}
		var code strings.Builder
		for _, src := range sources {
			buf, err := src.Contents()
			if err != nil {
				return err
			}
			code.WriteString(stripIncludes(string(buf)))
			code.WriteString("\n")
			files = append(files, src.Filename)
		}
		info, err := os.Stat(filename)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(filename), ".glsl")
		version := "file@" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
		loaded[name] = shader.NewPart(name, version, code.String())
	}
	for name, p := range loaded {
		l.parts[name] = p
		volren.Logger().Debug("loaded shader part", "name", name, "version", p.Version())
	}
	l.files = dedupe(append(l.files, files...))
	return nil
}

// Files returns the files parts were loaded from, including the files they
// include.
func (l *Library) Files() []string {
	return append([]string(nil), l.files...)
}

// AASteps returns the part that fixes the half size of the anti-aliasing
// kernel of the 2D fragment shader. It is not a uniform as some drivers
// only accept loops with constant bounds.
func AASteps(n int) shader.Part {
	return shader.NewPart(aaStepsName, strconv.Itoa(n), fmt.Sprintf(">> int sze = 0;\nint sze = %d;", n))
}

// LightCount returns the part that sets the number of lights the lit
// shaders loop over. It applies to both the vertex and fragment stage.
func LightCount(n int) shader.Part {
	if n < 1 {
		n = 1
	}
	return shader.NewPart(lightCountName, strconv.Itoa(n), fmt.Sprintf(">> const int nlights = 1;\nconst int nlights = %d;", n))
}

func dedupe(s []string) []string {
	seen := map[string]bool{}
	out := s[:0]
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
