package render

import (
	"context"
	"image"
	"image/color"

	"github.com/go-gl/gl/v2.1/gl"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/glutil"
)

// Flip wraps an image and flips it upside down.
type Flip struct {
	image.Image
}

func (flip *Flip) At(x, y int) color.Color {
	h := flip.Bounds().Dy()
	return flip.Image.At(x, h-y-1)
}

// Target reads frames back from the framebuffer of the current context.
// The pixels are transferred into a ring of pixel buffer objects so a
// frame can be drawn while the previous ones are still being read.
type Target struct {
	w, h           int
	curTargetIndex int
	pbos           [3]uint32
	background     [4]float32
}

// NewTarget creates a target for a framebuffer of w by h pixels.
func NewTarget(w, h int) (*Target, error) {
	if !glutil.HasContext() {
		return nil, volren.ErrNoGLContext
	}
	t := &Target{w: w, h: h}
	gl.GenBuffers(int32(len(t.pbos)), &t.pbos[0])
	for _, pbo := range t.pbos {
		gl.BindBuffer(gl.PIXEL_PACK_BUFFER, pbo)
		gl.BufferData(gl.PIXEL_PACK_BUFFER, w*h*4, nil, gl.STREAM_READ)
	}
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	if err := glutil.CheckError("create target"); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

func (t *Target) Size() (w, h int) {
	return t.w, t.h
}

// SetBackground sets the colour the framebuffer is cleared to.
func (t *Target) SetBackground(c [4]float32) {
	t.background = c
}

func (t *Target) NumBuffers() int {
	return len(t.pbos)
}

// Draw clears the framebuffer, draws the scene and starts the transfer of
// the result. The returned handle gives access to the image until
// NumBuffers more frames have been drawn.
func (t *Target) Draw(draw func() error) (int, error) {
	t.curTargetIndex = (t.curTargetIndex + 1) % len(t.pbos)
	c := t.background
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if err := draw(); err != nil {
		return 0, err
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 4)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, t.pbos[t.curTargetIndex])
	gl.ReadPixels(0, 0, int32(t.w), int32(t.h), gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	return t.curTargetIndex, glutil.CheckError("read pixels")
}

// Image waits for the transfer of a frame to complete and returns it, top
// row first.
func (t *Target) Image(handle int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, t.w, t.h))
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, t.pbos[handle])
	gl.GetBufferSubData(gl.PIXEL_PACK_BUFFER, 0, t.w*t.h*4, gl.Ptr(&img.Pix[0]))
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	return &Flip{Image: img}
}

// Render draws one frame and returns it.
func (t *Target) Render(draw func() error) (image.Image, error) {
	handle, err := t.Draw(draw)
	if err != nil {
		return nil, err
	}
	return t.Image(handle), nil
}

// Animate draws n frames, passing the frame number to draw, and sends the
// images to stream in order. Up to NumBuffers frames are in flight before
// the first image is read back.
func (t *Target) Animate(ctx context.Context, n int, draw func(frame int) error, stream chan<- image.Image) error {
	buffer := make(chan int, t.NumBuffers())
	send := func(handle int) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case stream <- t.Image(handle):
			return nil
		}
	}
	for frame := 0; frame < n; frame++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		handle, err := t.Draw(func() error { return draw(frame) })
		if err != nil {
			return err
		}
		buffer <- handle
		if len(buffer) != cap(buffer) {
			// Give the first renders time to complete.
			continue
		}
		if err := send(<-buffer); err != nil {
			return err
		}
	}
	for len(buffer) > 0 {
		if err := send(<-buffer); err != nil {
			return err
		}
	}
	return nil
}

func (t *Target) Close() error {
	if glutil.HasContext() && t.pbos[0] != 0 {
		gl.DeleteBuffers(int32(len(t.pbos)), &t.pbos[0])
	}
	t.pbos = [3]uint32{}
	return nil
}
