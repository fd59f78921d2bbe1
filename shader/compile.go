package shader

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-gl/gl/v2.1/gl"

	"github.com/polyfloyd/volren"
)

type Stage string

const (
	StageVertex   Stage = "vert"
	StageFragment Stage = "frag"
)

func (stage Stage) glEnum() (uint32, error) {
	switch stage {
	case StageVertex:
		return gl.VERTEX_SHADER, nil
	case StageFragment:
		return gl.FRAGMENT_SHADER, nil
	}
	return 0, fmt.Errorf("invalid pipeline stage: %q", stage)
}

func (stage Stage) String() string {
	switch stage {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	}
	return string(stage)
}

func compileShader(stage Stage, src string, origins []Origin) (uint32, error) {
	glStage, err := stage.glEnum()
	if err != nil {
		return 0, err
	}

	shader := gl.CreateShader(glStage)
	csources, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, &CompileError{
			Stage:   stage,
			Log:     strings.TrimRight(log, "\x00"),
			source:  src,
			origins: origins,
		}
	}
	return shader, nil
}

func linkProgram(vertex, fragment uint32) (uint32, error) {
	program := gl.CreateProgram()
	for _, sh := range [...]uint32{vertex, fragment} {
		if sh != 0 {
			gl.AttachShader(program, sh)
		}
	}
	gl.LinkProgram(program)

	var linkErr error
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(log))
		linkErr = &LinkError{Log: strings.TrimRight(log, "\x00")}
	}

	for _, sh := range [...]uint32{vertex, fragment} {
		if sh != 0 {
			gl.DetachShader(program, sh)
		}
	}
	if linkErr != nil {
		gl.DeleteProgram(program)
		return 0, linkErr
	}
	return program, nil
}

// CompileError is returned when the driver rejects the source of a stage.
type CompileError struct {
	Stage Stage
	Log   string

	source  string
	origins []Origin
}

func (err *CompileError) Error() string {
	return fmt.Sprintf("error compiling %s shader:\n%s", err.Stage, err.Log)
}

func (err *CompileError) Unwrap() error {
	return volren.ErrShaderCompile
}

// Marker is a diagnostic from the info log, resolved to the part that
// produced the offending line.
type Marker struct {
	Line    int
	Column  int
	Message string
	// Part is the name of the part owning the line, empty if unknown.
	Part string
	// Text is the offending line of source.
	Text string
}

var markerRes = []*regexp.Regexp{
	// Mesa: "0:12(5): error: `a' undeclared"
	regexp.MustCompile(`^\d+:(\d+)\((\d+)\):\s*(.*)$`),
	// NVIDIA: "0(12) : error C1008: undefined variable "a""
	regexp.MustCompile(`^\d+\((\d+)\)()\s*:\s*(.*)$`),
	// AMD and Intel on Windows: "ERROR: 0:12: 'a' : undeclared identifier"
	regexp.MustCompile(`^(?:ERROR|WARNING):\s*\d+:(\d+):()\s*(.*)$`),
}

// Markers parses the info log. Lines that are not understood are skipped.
func (err *CompileError) Markers() []Marker {
	var markers []Marker
	for _, line := range strings.Split(err.Log, "\n") {
		line = strings.TrimSpace(line)
		for _, re := range markerRes {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			mk := Marker{Message: m[3]}
			mk.Line, _ = strconv.Atoi(m[1])
			mk.Column, _ = strconv.Atoi(m[2])
			if i := mk.Line - 1; i >= 0 && i < len(err.origins) {
				mk.Part = err.origins[i].Part
				mk.Text = err.origins[i].Text
			}
			markers = append(markers, mk)
			break
		}
	}
	return markers
}

// PrettyPrint writes the markers along with the source lines they point
// at. The raw log is written when it could not be parsed.
func (err *CompileError) PrettyPrint(out io.Writer) {
	markers := err.Markers()
	if len(markers) == 0 {
		fmt.Fprintln(out, err.Error())
		return
	}
	fmt.Fprintf(out, "error compiling %s shader:\n", err.Stage)
	for _, m := range markers {
		fmt.Fprintf(out, "%s:%d: %s\n", m.Part, m.Line, m.Message)
		if m.Text != "" {
			fmt.Fprintf(out, "\t%s\n", m.Text)
			if m.Column > 0 && m.Column <= len(m.Text) {
				fmt.Fprintf(out, "\t%s^\n", strings.Repeat(" ", m.Column-1))
			}
		}
	}
}

// LinkError is returned when the compiled stages do not link.
type LinkError struct {
	Log string
}

func (err *LinkError) Error() string {
	return "error linking program:\n" + err.Log
}

func (err *LinkError) Unwrap() error {
	return volren.ErrShaderLink
}
