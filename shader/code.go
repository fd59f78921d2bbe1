package shader

import (
	"fmt"
	"strings"

	"github.com/polyfloyd/volren"
)

// Origin records which part produced a line of composed source.
type Origin struct {
	Part string
	Text string
}

// Code is an ordered list of parts that is composed into one GLSL source.
// The composed source is cached until the list changes.
type Code struct {
	parts   []Part
	dirty   bool
	source  string
	origins []Origin
}

// NewCode creates a Code from the given parts, in order.
func NewCode(parts ...Part) (*Code, error) {
	c := &Code{}
	for _, p := range parts {
		if err := c.Add(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Position selects where Add inserts a part.
type Position struct {
	before, after string
}

// Before inserts a part directly before the named one.
func Before(name string) Position {
	return Position{before: name}
}

// After inserts a part directly after the named one.
func After(name string) Position {
	return Position{after: name}
}

// Add inserts a part, at the end unless a position is given. Names must
// be unique.
func (c *Code) Add(p Part, pos ...Position) error {
	if c.index(p.name) >= 0 {
		return fmt.Errorf("%w: %q", volren.ErrDuplicatePart, p.name)
	}
	at := len(c.parts)
	for _, ps := range pos {
		switch {
		case ps.before != "":
			i := c.index(ps.before)
			if i < 0 {
				return fmt.Errorf("%w: can not insert before %q", volren.ErrUnknownPart, ps.before)
			}
			at = i
		case ps.after != "":
			i := c.index(ps.after)
			if i < 0 {
				return fmt.Errorf("%w: can not insert after %q", volren.ErrUnknownPart, ps.after)
			}
			at = i + 1
		}
	}
	c.parts = append(c.parts, Part{})
	copy(c.parts[at+1:], c.parts[at:])
	c.parts[at] = p
	c.dirty = true
	return nil
}

// Replace substitutes the part with the same name.
func (c *Code) Replace(p Part) error {
	i := c.index(p.name)
	if i < 0 {
		return fmt.Errorf("%w: %q", volren.ErrUnknownPart, p.name)
	}
	c.parts[i] = p
	c.dirty = true
	return nil
}

// AddOrReplace replaces the part with the same name or appends p if there
// is none. Replacing a part with an identical one leaves the code clean.
func (c *Code) AddOrReplace(p Part, pos ...Position) error {
	i := c.index(p.name)
	if i < 0 {
		return c.Add(p, pos...)
	}
	if c.parts[i].Equal(p) {
		return nil
	}
	return c.Replace(p)
}

// Remove removes the named part.
func (c *Code) Remove(name string) error {
	i := c.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", volren.ErrUnknownPart, name)
	}
	c.parts = append(c.parts[:i], c.parts[i+1:]...)
	c.dirty = true
	return nil
}

func (c *Code) Has(name string) bool {
	return c.index(name) >= 0
}

// Part returns the named part.
func (c *Code) Part(name string) (Part, bool) {
	i := c.index(name)
	if i < 0 {
		return Part{}, false
	}
	return c.parts[i], true
}

// Clear removes all parts.
func (c *Code) Clear() {
	if len(c.parts) > 0 {
		c.parts = nil
		c.dirty = true
	}
}

// Parts returns a copy of the part list.
func (c *Code) Parts() []Part {
	return append([]Part(nil), c.parts...)
}

// IsDirty reports whether the part list changed since the code was last
// composed.
func (c *Code) IsDirty() bool {
	return c.dirty
}

// GetCode returns the composed source, composing it first if needed.
func (c *Code) GetCode() string {
	if c.dirty {
		c.compose()
	}
	return c.source
}

// LineOrigins returns per line of the composed source the part that
// produced it.
func (c *Code) LineOrigins() []Origin {
	c.GetCode()
	return append([]Origin(nil), c.origins...)
}

// ShowCode returns the composed source annotated with line numbers and
// the part owning each line. With a part name only the lines of that part
// are listed.
func (c *Code) ShowCode(part string) string {
	origins := c.LineOrigins()
	width := 0
	for _, o := range origins {
		if len(o.Part) > width {
			width = len(o.Part)
		}
	}
	var b strings.Builder
	for i, o := range origins {
		if part != "" && o.Part != part {
			continue
		}
		fmt.Fprintf(&b, "%4d %-*s | %s\n", i+1, width, o.Part, o.Text)
	}
	return b.String()
}

func (c *Code) compose() {
	c.dirty = false
	if len(c.parts) == 0 {
		c.source, c.origins = "", nil
		return
	}

	base := c.parts[0]
	lines := strings.Split(base.code, "\n")
	owners := make([]string, len(lines))
	for i := range owners {
		owners[i] = base.name
	}
	for _, p := range c.parts[1:] {
		for _, s := range p.sections {
			lines, owners = s.apply(lines, owners, p.name)
		}
	}

	c.source = strings.Join(lines, "\n") + "\n"
	c.origins = make([]Origin, len(lines))
	for i := range lines {
		c.origins[i] = Origin{Part: owners[i], Text: lines[i]}
	}
}

func (c *Code) index(name string) int {
	for i, p := range c.parts {
		if p.name == name {
			return i
		}
	}
	return -1
}
