// Package source opens the volumes the volren command renders. A source is
// described as "kind:value", for example "synth:blob;64" or
// "raw:~/head.raw;64x256x256;uint16".
package source

import (
	"fmt"
	"sort"
	"strings"

	"github.com/polyfloyd/volren/ndarray"
)

// A builder creates an array from the value part of a description. Relative
// paths in the value are resolved against pwd.
type builder func(value, pwd string) (*ndarray.Array, error)

var builders = map[string]builder{}

// Kinds returns the names of the known source kinds.
func Kinds() []string {
	kinds := make([]string, 0, len(builders))
	for k := range builders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Open creates the array described by desc.
func Open(desc, pwd string) (*ndarray.Array, error) {
	kind, value, ok := strings.Cut(desc, ":")
	if !ok {
		return nil, fmt.Errorf("could not parse source %q (format: kind:value)", desc)
	}
	b, ok := builders[kind]
	if !ok {
		return nil, fmt.Errorf("unknown source kind %q, known kinds: %s", kind, strings.Join(Kinds(), ", "))
	}
	a, err := b(value, pwd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", desc, err)
	}
	return a, nil
}
