// Package shader composes GLSL source from named parts and manages the
// programs compiled from it.
//
// A part is a piece of GLSL. The first part of a Code is taken as is; every
// following part consists of sections that each start with one or more
// header lines of the form
//
//	>> needle
//
// The lines up to the next header are the replacement. Every line of the
// source composed so far that contains the needle is replaced by the
// replacement, indented like the replaced line. Consecutive headers form a
// needle that spans multiple lines, which matches a run of lines that
// contain the needle lines in order. Needles that match nothing are
// ignored, which is what allows a base part to offer slots such as
// "// --uniforms--" that nobody has to fill.
//
// A part that wants to keep a slot available for parts after it includes
// the slot line in its replacement.
package shader

import (
	"strings"
	"unicode"
)

const headerPrefix = ">>"

// Part is a named and versioned piece of GLSL. Parts are immutable.
type Part struct {
	name     string
	version  string
	code     string
	sections []Section
}

// Section is one needle and the lines it is replaced with.
type Section struct {
	Needle      []string
	Replacement []string
}

// NewPart creates a part. The code is dedented: leading and trailing blank
// lines are removed as is the indentation shared by all lines.
func NewPart(name, version, code string) Part {
	p := Part{
		name:    name,
		version: version,
		code:    Dedent(code),
	}
	p.sections = parseSections(p.code)
	return p
}

func (p Part) Name() string {
	return p.name
}

func (p Part) Version() string {
	return p.version
}

// Code returns the dedented source of the part.
func (p Part) Code() string {
	return p.code
}

// Sections returns the sections of the part in the order they appear.
func (p Part) Sections() []Section {
	out := make([]Section, len(p.sections))
	for i, s := range p.sections {
		out[i] = Section{
			Needle:      append([]string(nil), s.Needle...),
			Replacement: append([]string(nil), s.Replacement...),
		}
	}
	return out
}

// Equal reports whether both parts have the same name, version and code.
func (p Part) Equal(o Part) bool {
	return p.name == o.name && p.version == o.version && p.code == o.code
}

func (p Part) String() string {
	return p.name + " (" + p.version + ")"
}

func parseSections(code string) []Section {
	var sections []Section
	var cur *Section
	var body []string
	inHeader := false
	flush := func() {
		if cur == nil {
			return
		}
		cur.Replacement = splitLines(Dedent(strings.Join(body, "\n")))
		sections = append(sections, *cur)
		cur, body = nil, nil
	}

	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, headerPrefix) {
			needle := strings.TrimSpace(strings.TrimPrefix(trimmed, headerPrefix))
			if !inHeader {
				flush()
				cur = &Section{}
				inHeader = true
			}
			if needle != "" {
				cur.Needle = append(cur.Needle, needle)
			}
			continue
		}
		inHeader = false
		if cur != nil {
			body = append(body, line)
		}
	}
	flush()

	// A header without any text matches nothing sensible.
	out := sections[:0]
	for _, s := range sections {
		if len(s.Needle) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// apply replaces every match of the needle in lines. The owner of the
// inserted lines is recorded in the parallel owners slice.
func (s Section) apply(lines, owners []string, owner string) ([]string, []string) {
	n := len(s.Needle)
	outLines := make([]string, 0, len(lines))
	outOwners := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		if i+n <= len(lines) && s.matches(lines[i:i+n]) {
			indent := leadingSpace(lines[i])
			for _, r := range s.Replacement {
				if r != "" {
					r = indent + r
				}
				outLines = append(outLines, r)
				outOwners = append(outOwners, owner)
			}
			i += n
			continue
		}
		outLines = append(outLines, lines[i])
		outOwners = append(outOwners, owners[i])
		i++
	}
	return outLines, outOwners
}

func (s Section) matches(lines []string) bool {
	for i, needle := range s.Needle {
		if !strings.Contains(lines[i], needle) {
			return false
		}
	}
	return true
}

// Dedent removes leading and trailing blank lines and the longest
// whitespace prefix common to all non-blank lines.
func Dedent(code string) string {
	lines := strings.Split(strings.ReplaceAll(code, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ws := leadingSpace(line)
		if first {
			prefix, first = ws, false
			continue
		}
		prefix = commonPrefix(prefix, ws)
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
		} else {
			lines[i] = strings.TrimPrefix(line, prefix)
		}
	}
	return strings.Join(lines, "\n")
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeftFunc(s, unicode.IsSpace))]
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
