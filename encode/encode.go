package encode

import (
	"bytes"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"time"

	"github.com/polyfloyd/volren"
)

func encodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
}

// stillFormat is a format for single images. Animations are written as
// consecutive images.
type stillFormat struct {
	exts   []string
	encode func(io.Writer, image.Image) error
}

func (f stillFormat) Extensions() []string {
	return f.exts
}

func (f stillFormat) Encode(w io.Writer, img image.Image) error {
	return f.encode(w, img)
}

func (f stillFormat) EncodeAnimation(w io.Writer, stream <-chan image.Image, interval time.Duration) error {
	for img := range stream {
		if err := f.Encode(w, img); err != nil {
			return err
		}
	}
	return nil
}

// RawFormat writes the pixels without a header, 8 bits per channel, top
// row first. Channels is 3 (RGB) or 4 (RGBA).
type RawFormat struct {
	Channels int
}

func (f RawFormat) Extensions() []string {
	return []string{}
}

func toRGBA(img image.Image) *image.RGBA {
	if i, ok := img.(*image.RGBA); ok && i.Rect.Min == (image.Point{}) {
		return i
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func (f RawFormat) Encode(w io.Writer, img image.Image) error {
	rgba := toRGBA(img)
	if f.Channels == 4 {
		_, err := w.Write(rgba.Pix)
		return err
	}
	buf := make([]byte, 0, len(rgba.Pix)/4*3)
	for i := 0; i < len(rgba.Pix); i += 4 {
		buf = append(buf, rgba.Pix[i:i+3]...)
	}
	_, err := w.Write(buf)
	return err
}

func (f RawFormat) EncodeAnimation(w io.Writer, stream <-chan image.Image, interval time.Duration) error {
	for img := range stream {
		if err := f.Encode(w, img); err != nil {
			return err
		}
	}
	return nil
}

// GIFFormat writes a looping animation. Frames are dithered onto the Plan 9
// palette, which keeps smooth gradients of volume renderings smooth.
type GIFFormat struct{}

func (f GIFFormat) Extensions() []string {
	return []string{"gif"}
}

func (f GIFFormat) Encode(w io.Writer, img image.Image) error {
	return f.EncodeAnimation(w, single(img), 0)
}

func (f GIFFormat) EncodeAnimation(w io.Writer, stream <-chan image.Image, interval time.Duration) error {
	anim := &gif.GIF{}
	delay := int(interval / (time.Second / 100))
	for img := range stream {
		frame := image.NewPaletted(img.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(frame, img.Bounds(), img, img.Bounds().Min)
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
		anim.Disposal = append(anim.Disposal, gif.DisposalBackground)
	}
	if len(anim.Image) == 0 {
		return fmt.Errorf("no frames to encode")
	}
	return gif.EncodeAll(w, anim)
}

// AnsiDisplay draws frames on a terminal that supports 24 bit colour.
type AnsiDisplay struct {
	initDone bool
}

func (f *AnsiDisplay) Extensions() []string {
	return []string{}
}

func (f *AnsiDisplay) Encode(w io.Writer, img image.Image) error {
	return f.EncodeAnimation(w, single(img), 0)
}

func (f *AnsiDisplay) EncodeAnimation(w io.Writer, stream <-chan image.Image, interval time.Duration) error {
	lastFrame := time.Now()
	for img := range stream {
		b := img.Bounds()
		// Frames are written in one go, which avoids tearing.
		var buf bytes.Buffer
		if !f.initDone {
			// Clear the screen and any previous frame with it.
			buf.WriteString("\x1b[3J\x1b[H\x1b[2J")
			f.initDone = true
		} else {
			// Move the cursor to the top-left of the screen.
			buf.WriteString("\x1b[1;1H")
		}

		// The Upper Half Block character shows two pixels: the top one in
		// the foreground colour and the bottom one in the background
		// colour.
		for y := b.Min.Y; y < b.Max.Y; y += 2 {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				fmt.Fprintf(&buf, "\x1b[38;2;%d;%d;%dm", r>>8, g>>8, bl>>8)
				if y+1 < b.Max.Y {
					r, g, bl, _ := img.At(x, y+1).RGBA()
					fmt.Fprintf(&buf, "\x1b[48;2;%d;%d;%dm", r>>8, g>>8, bl>>8)
				} else {
					buf.WriteString("\x1b[48;2;0;0;0m")
				}
				buf.WriteString("▀")
			}
			// Reset to the default background color and jump to the next line.
			buf.WriteString("\x1b[0m\n")
		}
		if _, err := io.Copy(w, &buf); err != nil {
			return err
		}

		if interval > 0 {
			time.Sleep(interval - time.Since(lastFrame))
		}
		lastFrame = time.Now()
	}
	volren.Logger().Debug("ansi display done")
	return nil
}
