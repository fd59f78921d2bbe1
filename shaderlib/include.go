package shaderlib

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
)

var ppIncludeRe = regexp.MustCompile(`(?im)^#pragma\s+use\s+"([^"]+)"\s*$`)

type SourceFile struct {
	Filename string
}

func (s SourceFile) Contents() ([]byte, error) {
	fd, err := os.Open(s.Filename)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	return io.ReadAll(fd)
}

// Includes recursively resolves dependencies in the specified files.
//
// The argument files are included in the returned list, after the files
// they depend on.
func Includes(filenames ...string) ([]SourceFile, error) {
	return processRecursive(filenames, []SourceFile{}, nil)
}

// processRecursive appends filenames and their includes to sources.
// Parents holds the files that are being processed further up the stack.
func processRecursive(filenames []string, sources, parents []SourceFile) ([]SourceFile, error) {
	for _, filename := range filenames {
		absFilename, err := filepath.Abs(filename)
		if err != nil {
			return nil, err
		}
		currentFile := SourceFile{Filename: absFilename}
		shaderSource, err := currentFile.Contents()
		if err != nil {
			return nil, err
		}

		// The current file takes part in the recursion check but is only
		// appended after everything it includes.
		checkset := append(append([]SourceFile(nil), sources...), parents...)
		checkset = append(checkset, currentFile)

		includeMatches := ppIncludeRe.FindAllSubmatch(shaderSource, -1)
		includes := make([]string, 0, len(includeMatches))
	outer:
		for _, submatch := range includeMatches {
			includedFile := string(submatch[1])
			if !filepath.IsAbs(includedFile) {
				includedFile = filepath.Join(filepath.Dir(absFilename), includedFile)
			} else {
				includedFile = filepath.Clean(includedFile)
			}

			// Files that are already included are skipped, which also stops
			// include cycles.
			for _, inc := range checkset {
				if inc.Filename == includedFile {
					continue outer
				}
			}
			includes = append(includes, includedFile)
		}

		sources, err = processRecursive(includes, sources, append(parents, currentFile))
		if err != nil {
			return nil, err
		}
		sources = append(sources, currentFile)
	}
	return sources, nil
}

func stripIncludes(src string) string {
	return ppIncludeRe.ReplaceAllString(src, "")
}
