// Package volren renders 2D images, 3D volumes and polygonal meshes through
// a GLSL pipeline whose source is composed at runtime from named parts.
//
// The root package only holds what every sub-package shares: the logger and
// the error kinds. The rendering types live in the sub-packages:
//
//	clim       contrast limit ranges
//	colors     colour parsing
//	ndarray    host side N-D arrays
//	texture    GPU textures, clim textures and colormaps
//	shader     shader parts, code composition, programs and uniforms
//	shaderlib  the standard shader parts
//	light      scene lights
//	render     2D, 3D and mesh renderers
//	encode     image and animation encoders
//	egl        headless OpenGL contexts
//	config     TOML render settings of the volren command
//	source     synthetic and raw volumes for the volren command
//
// All GL calls must be made from the goroutine that owns the current
// context. Lock it to its thread with runtime.LockOSThread.
package volren
