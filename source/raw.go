package source

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/polyfloyd/volren/ndarray"
)

func init() {
	builders["raw"] = func(value, pwd string) (*ndarray.Array, error) {
		match := rawValueRe.FindStringSubmatch(value)
		if match == nil {
			return nil, fmt.Errorf("could not parse raw value: %q (format: %s)", value, rawValueRe)
		}
		filename, err := ResolvePath(pwd, match[1])
		if err != nil {
			return nil, err
		}
		var shape []int
		for _, s := range strings.Split(match[2], "x") {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, err
			}
			if n < 1 {
				return nil, fmt.Errorf("raw shape must be positive, got %s", match[2])
			}
			shape = append(shape, n)
		}
		dt, err := ndarray.ParseDtype(match[3])
		if err != nil {
			return nil, err
		}
		return ReadRaw(filename, dt, shape...)
	}
}

var rawValueRe = regexp.MustCompile(`^([^;]+);(\d+(?:x\d+)*);(\w+)$`)

// ResolvePath expands a leading ~ and makes path absolute relative to pwd.
func ResolvePath(pwd, path string) (string, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		return filepath.Join(pwd, path), nil
	}
	return path, nil
}

// ReadRaw reads a headerless little endian array. The file must hold
// exactly the number of elements in shape.
func ReadRaw(filename string, dt ndarray.Dtype, shape ...int) (*ndarray.Array, error) {
	fd, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	info, err := fd.Stat()
	if err != nil {
		return nil, err
	}

	a := ndarray.Zeros(dt, shape...)
	if want := int64(a.Len() * dt.Bits() / 8); info.Size() != want {
		return nil, fmt.Errorf("%s is %d bytes, shape %v of %s requires %d", filename, info.Size(), shape, dt, want)
	}
	if err := binary.Read(bufio.NewReader(fd), binary.LittleEndian, a.Data); err != nil {
		return nil, err
	}
	return a, nil
}
