// Package encode writes rendered frames to files and terminals.
package encode

import (
	"fmt"
	"image"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Formats holds the formats by the name they are selected with.
var Formats = map[string]Format{
	"ansi":   &AnsiDisplay{},
	"gif":    GIFFormat{},
	"jpg":    stillFormat{exts: []string{"jpg", "jpeg"}, encode: encodeJPEG},
	"png":    stillFormat{exts: []string{"png"}, encode: encodePNG},
	"rgb24":  RawFormat{Channels: 3},
	"rgba32": RawFormat{Channels: 4},
}

type Format interface {
	// Extensions returns all file extensions excluding '.' that this format is
	// commonly encoded into.
	Extensions() []string

	// Encode encodes a single image to the specfied io.Writer.
	Encode(w io.Writer, img image.Image) error

	// EncodeAnimation encodes a series of successive images to the specified
	// io.Writer.
	//
	// The function should consume all images from the stream until it closes.
	// The interval parameter is the time between two images.
	EncodeAnimation(w io.Writer, stream <-chan image.Image, interval time.Duration) error
}

// Names returns the names of the formats, sorted.
func Names() []string {
	names := make([]string, 0, len(Formats))
	for name := range Formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named format.
func Lookup(name string) (Format, error) {
	f, ok := Formats[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q, valid formats are: %s", name, strings.Join(Names(), ", "))
	}
	return f, nil
}

// DetectFormat picks the format from the extension of filename.
func DetectFormat(filename string) (Format, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return nil, false
	}
	for _, name := range Names() {
		f := Formats[name]
		for _, e := range f.Extensions() {
			if e == ext {
				return f, true
			}
		}
	}
	return nil, false
}

// single feeds one image to an animation encoder.
func single(img image.Image) <-chan image.Image {
	stream := make(chan image.Image, 1)
	stream <- img
	close(stream)
	return stream
}
