package volren

import "errors"

var (
	// ErrNoGLContext is returned by any operation that needs the GPU while
	// no OpenGL context is current.
	ErrNoGLContext = errors.New("no current OpenGL context")

	ErrInvalidShape        = errors.New("invalid shape")
	ErrUnsupportedDtype    = errors.New("unsupported element type")
	ErrInvalidColor        = errors.New("invalid color")
	ErrInvalidUniformValue = errors.New("invalid uniform value")
	ErrDuplicatePart       = errors.New("duplicate shader part")
	ErrUnknownPart         = errors.New("unknown shader part")

	// ErrOutOfGPUMemory is returned when a texture could not be uploaded,
	// even after down-sampling it 8 times.
	ErrOutOfGPUMemory = errors.New("out of GPU memory")

	ErrShaderCompile = errors.New("shader compilation failed")
	ErrShaderLink    = errors.New("shader linking failed")

	// ErrNestedEnable is returned when a shader is enabled while it is
	// already enabled.
	ErrNestedEnable = errors.New("shader is already enabled")
)
