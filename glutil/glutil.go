// Package glutil tracks the OpenGL context the rest of volren draws into.
//
// The go-gl bindings panic when called before their entry points are
// loaded, so every GPU operation checks HasContext first and fails with
// volren.ErrNoGLContext instead.
package glutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-gl/gl/v2.1/gl"

	"github.com/polyfloyd/volren"
)

type context struct {
	current      bool
	major, minor int
	glsl         [2]int
	vendor       string
	renderer     string
	extensions   map[string]bool
	npotOverride *bool
}

var cur context

// Init loads the GL entry points for the context that is current on the
// calling thread and records its version and extensions.
func Init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("%w: %v", volren.ErrNoGLContext, err)
	}
	verStr := gl.GetString(gl.VERSION)
	if verStr == nil {
		return fmt.Errorf("%w: glGetString returned nothing", volren.ErrNoGLContext)
	}

	c := context{current: true, extensions: map[string]bool{}}
	var ok bool
	if c.major, c.minor, ok = ParseVersion(gl.GoStr(verStr)); !ok {
		return fmt.Errorf("%w: unparsable version %q", volren.ErrNoGLContext, gl.GoStr(verStr))
	}
	if c.major >= 2 {
		if s := gl.GetString(gl.SHADING_LANGUAGE_VERSION); s != nil {
			c.glsl[0], c.glsl[1], _ = ParseVersion(gl.GoStr(s))
		}
	}
	if s := gl.GetString(gl.VENDOR); s != nil {
		c.vendor = gl.GoStr(s)
	}
	if s := gl.GetString(gl.RENDERER); s != nil {
		c.renderer = gl.GoStr(s)
	}
	if s := gl.GetString(gl.EXTENSIONS); s != nil {
		for _, ext := range strings.Fields(gl.GoStr(s)) {
			c.extensions[ext] = true
		}
	}
	c.npotOverride = cur.npotOverride
	cur = c

	volren.Logger().Info("OpenGL context",
		"version", fmt.Sprintf("%d.%d", c.major, c.minor),
		"glsl", fmt.Sprintf("%d.%d", c.glsl[0], c.glsl[1]),
		"vendor", c.vendor,
		"renderer", c.renderer,
	)
	return nil
}

// Release marks the context as gone. Subsequent GPU operations fail with
// ErrNoGLContext until Init is called again.
func Release() {
	cur = context{npotOverride: cur.npotOverride}
}

func HasContext() bool {
	return cur.current
}

// Version returns the OpenGL version of the current context.
func Version() (major, minor int) {
	return cur.major, cur.minor
}

// AtLeast reports whether the current context implements at least the given
// version.
func AtLeast(major, minor int) bool {
	return cur.current && (cur.major > major || cur.major == major && cur.minor >= minor)
}

// GLSLVersion returns the shading language version, 0.0 if there is none.
func GLSLVersion() (major, minor int) {
	return cur.glsl[0], cur.glsl[1]
}

func HasExtension(name string) bool {
	return cur.extensions[name]
}

// ShadersSupported reports whether GLSL programs can be used.
func ShadersSupported() bool {
	return AtLeast(2, 0) || HasExtension("GL_ARB_shader_objects")
}

// NPOTSupported reports whether textures may have sizes that are not a
// power of two.
func NPOTSupported() bool {
	if cur.npotOverride != nil {
		return *cur.npotOverride
	}
	return AtLeast(2, 0) || HasExtension("GL_ARB_texture_non_power_of_two")
}

// OverrideNPOT forces NPOTSupported to return supported until the returned
// function is called. It exists to exercise the padding path on drivers
// that do not need it.
func OverrideNPOT(supported bool) (restore func()) {
	prev := cur.npotOverride
	cur.npotOverride = &supported
	return func() { cur.npotOverride = prev }
}

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)`)

// ParseVersion extracts "major.minor" from a GL or GLSL version string such
// as "4.6 (Compatibility Profile) Mesa 23.0.4" or "OpenGL ES 3.2".
func ParseVersion(s string) (major, minor int, ok bool) {
	m := versionRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	major, _ = strconv.Atoi(m[1])
	minor, _ = strconv.Atoi(m[2])
	return major, minor, true
}

// CheckError drains the GL error queue and returns the errors as one error
// value, nil if there were none.
func CheckError(op string) error {
	if !cur.current {
		return nil
	}
	var errs []string
	for i := 0; i < 16; i++ {
		code := gl.GetError()
		if code == gl.NO_ERROR {
			break
		}
		errs = append(errs, ErrorString(code))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("OpenGL error during %s: %s", op, strings.Join(errs, ", "))
}

func ErrorString(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "invalid enum"
	case gl.INVALID_VALUE:
		return "invalid value"
	case gl.INVALID_OPERATION:
		return "invalid operation"
	case gl.STACK_OVERFLOW:
		return "stack overflow"
	case gl.STACK_UNDERFLOW:
		return "stack underflow"
	case gl.OUT_OF_MEMORY:
		return "out of memory"
	}
	return fmt.Sprintf("error 0x%x", code)
}
