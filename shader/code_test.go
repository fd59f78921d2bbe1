package shader

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyfloyd/volren"
)

const testBase = `
	uniform float a;
	// --uniforms--

	void main() {
	    float v = a;
	    // --in-loop--
	    gl_FragColor = vec4(v);
	}
`

func TestDedent(t *testing.T) {
	got := Dedent("\n\n\t\tfoo\n\t\t  bar\n\n\t\tbaz\n\t\n")
	assert.Equal(t, "foo\n  bar\n\nbaz", got)
	assert.Equal(t, "", Dedent("\n \n"))
}

func TestParseSections(t *testing.T) {
	p := NewPart("p", "1", `
		ignored
		>> --uniforms--
		// --uniforms--
		uniform float b;
		>> first
		>> second
		    x = 1;

		>>
		nothing
	`)
	sections := p.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, []string{"--uniforms--"}, sections[0].Needle)
	assert.Equal(t, []string{"// --uniforms--", "uniform float b;"}, sections[0].Replacement)
	assert.Equal(t, []string{"first", "second"}, sections[1].Needle)
	assert.Equal(t, []string{"x = 1;"}, sections[1].Replacement)
}

func TestCompose(t *testing.T) {
	code, err := NewCode(
		NewPart("base", "1", testBase),
		NewPart("uniforms", "1", `
			>> --uniforms--
			// --uniforms--
			uniform float b;
		`),
		NewPart("loop", "1", `
			>> --in-loop--
			v += b;
			if (v > 1.0) {
			    v = 1.0;
			}
		`),
	)
	require.NoError(t, err)
	want := strings.Join([]string{
		"uniform float a;",
		"// --uniforms--",
		"uniform float b;",
		"",
		"void main() {",
		"    float v = a;",
		"    v += b;",
		"    if (v > 1.0) {",
		"        v = 1.0;",
		"    }",
		"    gl_FragColor = vec4(v);",
		"}",
	}, "\n") + "\n"
	assert.Equal(t, want, code.GetCode())
	assert.False(t, code.IsDirty())

	origins := code.LineOrigins()
	require.Len(t, origins, 12)
	assert.Equal(t, Origin{Part: "base", Text: "uniform float a;"}, origins[0])
	assert.Equal(t, "uniforms", origins[1].Part)
	assert.Equal(t, "uniforms", origins[2].Part)
	assert.Equal(t, "loop", origins[6].Part)
	assert.Equal(t, "loop", origins[9].Part)
	assert.Equal(t, "base", origins[10].Part)
}

func TestComposeIndentation(t *testing.T) {
	for _, indent := range []string{"", "  ", "\t\t", "        "} {
		base := NewPart("base", "1", "void f() {\n"+indent+"foo\n}")
		repl := NewPart("repl", "1", ">> foo\nif (x) {\n    y();\n}")
		code, err := NewCode(base, repl)
		require.NoError(t, err)
		lines := strings.Split(code.GetCode(), "\n")
		assert.Equal(t, indent+"if (x) {", lines[1])
		assert.Equal(t, indent+"    y();", lines[2])
		assert.Equal(t, indent+"}", lines[3])
	}
}

func TestComposeMultiLineNeedle(t *testing.T) {
	base := NewPart("base", "1", `
		a();
		b();
		a();
		c();
	`)
	repl := NewPart("repl", "1", `
		>> a();
		>> c();
		d();
	`)
	code, err := NewCode(base, repl)
	require.NoError(t, err)
	assert.Equal(t, "a();\nb();\nd();\n", code.GetCode())
}

func TestComposeReplacesEveryOccurrence(t *testing.T) {
	base := NewPart("base", "1", "x foo;\ny;\n  foo z;")
	repl := NewPart("repl", "1", ">> foo\nbar;")
	code, err := NewCode(base, repl)
	require.NoError(t, err)
	assert.Equal(t, "bar;\ny;\n  bar;\n", code.GetCode())
}

func TestComposeUnmatchedNeedle(t *testing.T) {
	base := NewPart("base", "1", testBase)
	code, err := NewCode(base, NewPart("x", "1", ">> --nowhere--\nboom;"))
	require.NoError(t, err)
	only, err := NewCode(base)
	require.NoError(t, err)
	assert.Equal(t, only.GetCode(), code.GetCode())
}

func TestComposeIdempotent(t *testing.T) {
	parts := []Part{
		NewPart("base", "1", testBase),
		NewPart("u", "1", ">> --uniforms--\n// --uniforms--\nuniform int n;"),
		NewPart("v", "2", ">> --uniforms--\nuniform int m;\n>> --in-loop--\nv *= 2.0;"),
	}
	a, err := NewCode(parts...)
	require.NoError(t, err)
	b, err := NewCode(parts...)
	require.NoError(t, err)
	first := a.GetCode()
	assert.Equal(t, first, b.GetCode())

	require.NoError(t, a.Remove("u"))
	require.NoError(t, a.Add(parts[1], Before("v")))
	assert.True(t, a.IsDirty())
	assert.Equal(t, first, a.GetCode())
}

func TestCodeEditing(t *testing.T) {
	code, err := NewCode(NewPart("a", "1", "a"), NewPart("c", "1", ""))
	require.NoError(t, err)

	require.NoError(t, code.Add(NewPart("b", "1", ""), After("a")))
	require.NoError(t, code.Add(NewPart("z", "1", ""), Before("a")))
	var names []string
	for _, p := range code.Parts() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"z", "a", "b", "c"}, names)

	err = code.Add(NewPart("b", "2", ""))
	assert.True(t, errors.Is(err, volren.ErrDuplicatePart))
	err = code.Add(NewPart("y", "1", ""), After("nope"))
	assert.True(t, errors.Is(err, volren.ErrUnknownPart))
	err = code.Replace(NewPart("nope", "1", ""))
	assert.True(t, errors.Is(err, volren.ErrUnknownPart))
	assert.True(t, errors.Is(code.Remove("nope"), volren.ErrUnknownPart))

	code.GetCode()
	require.NoError(t, code.AddOrReplace(NewPart("b", "1", "")))
	assert.False(t, code.IsDirty())
	require.NoError(t, code.AddOrReplace(NewPart("b", "2", "")))
	assert.True(t, code.IsDirty())
	p, ok := code.Part("b")
	require.True(t, ok)
	assert.Equal(t, "2", p.Version())

	require.NoError(t, code.AddOrReplace(NewPart("d", "1", "")))
	assert.True(t, code.Has("d"))
	require.NoError(t, code.Remove("d"))
	assert.False(t, code.Has("d"))

	code.Clear()
	assert.Empty(t, code.Parts())
	assert.Equal(t, "", code.GetCode())
}

func TestShowCode(t *testing.T) {
	code, err := NewCode(
		NewPart("base", "1", testBase),
		NewPart("loop", "1", ">> --in-loop--\nv += 1.0;"),
	)
	require.NoError(t, err)
	all := code.ShowCode("")
	assert.Contains(t, all, "   1 base | uniform float a;")
	assert.Contains(t, all, "   6 loop |     v += 1.0;")

	only := code.ShowCode("loop")
	assert.Equal(t, "   6 loop |     v += 1.0;\n", only)
}

// TestReplaceStylePart swaps one part out of three and checks that only the
// lines of that part change.
func TestReplaceStylePart(t *testing.T) {
	base := NewPart("base", "1", `
		uniform sampler1D colormap;
		// --uniforms--
		// --functions--
		void main() {
		    // --pre-loop--
		    for (int i = 0; i < n; i++) {
		        // --in-loop--
		    }
		    // --post-loop--
		}
	`)
	mip := NewPart("style", "1", `
		>> --pre-loop--
		float maxval = -1.0;
		>> --in-loop--
		maxval = max(maxval, sample(i));
		>> --post-loop--
		gl_FragColor = texture1D(colormap, maxval);
	`)
	ray := NewPart("style", "2", `
		>> --pre-loop--
		vec4 color3 = vec4(0.0);
		float a = 0.0;
		>> --in-loop--
		color3 += lookup(i);
		>> --post-loop--
		gl_FragColor = color3;
	`)
	color := NewPart("color", "1", `
		>> --functions--
		// --functions--
		vec4 lookup(int i) { return texture1D(colormap, sample(i)); }
	`)

	code, err := NewCode(base, mip, color)
	require.NoError(t, err)
	before := code.LineOrigins()
	require.NoError(t, code.Replace(ray))
	after := code.LineOrigins()

	without := func(origins []Origin) []Origin {
		var out []Origin
		for _, o := range origins {
			if o.Part != "style" {
				out = append(out, o)
			}
		}
		return out
	}
	assert.Equal(t, without(before), without(after))
	assert.NotEqual(t, before, after)
}
