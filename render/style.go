package render

import (
	"fmt"
	"strings"

	"github.com/polyfloyd/volren/shaderlib"
)

// Style selects how rays through a volume are turned into a colour.
type Style int

const (
	// MIP shows the maximum value along the ray.
	MIP Style = iota
	// Ray composites the colours along the ray front to back.
	Ray
	// Iso shows the lit surface where the data crosses a threshold.
	Iso
	// EdgeRay is Ray weighted by the gradient magnitude.
	EdgeRay
	// LitRay is Ray with lighting applied to every sample.
	LitRay
)

var styleNames = [...]string{
	MIP:     "mip",
	Ray:     "ray",
	Iso:     "iso",
	EdgeRay: "edgeray",
	LitRay:  "litray",
}

func (s Style) String() string {
	if s < 0 || int(s) >= len(styleNames) {
		return fmt.Sprintf("Style(%d)", int(s))
	}
	return styleNames[s]
}

// ParseStyle parses the name of a style, case insensitively.
func ParseStyle(name string) (Style, error) {
	for i, n := range styleNames {
		if strings.EqualFold(n, name) {
			return Style(i), nil
		}
	}
	return 0, fmt.Errorf("unknown render style %q, valid styles are: %s", name, strings.Join(styleNames[:], ", "))
}

func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Style) UnmarshalText(text []byte) error {
	v, err := ParseStyle(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Lit reports whether the style needs the lighting parts.
func (s Style) Lit() bool {
	return s == Iso || s == LitRay
}

func (s Style) part() string {
	switch s {
	case Ray:
		return shaderlib.StyleRay
	case Iso:
		return shaderlib.StyleIso
	case EdgeRay:
		return shaderlib.StyleEdgeRay
	case LitRay:
		return shaderlib.StyleLitRay
	}
	return shaderlib.StyleMIP
}
