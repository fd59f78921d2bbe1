package main

import (
	"context"
	"time"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/glutil"
)

// window shows a scene onscreen. The scene orbits when frames is larger
// than 1. The arrow keys rotate the view and scrolling zooms.
type window struct {
	width, height int
	interval      time.Duration
	frames        int

	watch   bool
	watched []string
}

func (win window) run(ctx context.Context, build func() (*scene, error)) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.DepthBits, 24)
	w, err := glfw.CreateWindow(win.width, win.height, "volren", nil, nil)
	if err != nil {
		return err
	}
	defer w.Destroy()
	w.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := glutil.Init(); err != nil {
		return err
	}
	defer glutil.Release()

	sc, err := build()
	if err != nil {
		return err
	}
	defer func() { sc.destroy() }()

	var reload *reloader
	var changed <-chan struct{}
	if win.watch {
		if reload, err = newReloader(ctx); err != nil {
			return err
		}
		defer reload.Close()
		reload.watch(append(sc.files(), win.watched...))
		changed = reload.changed
	}

	var azimuth, elevation float32
	zoom := float32(1)
	w.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Release {
			return
		}
		switch key {
		case glfw.KeyLeft:
			azimuth -= 5
		case glfw.KeyRight:
			azimuth += 5
		case glfw.KeyUp:
			elevation += 5
		case glfw.KeyDown:
			elevation -= 5
		case glfw.KeyEscape, glfw.KeyQ:
			w.SetShouldClose(true)
		}
	})
	w.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		zoom *= 1 + float32(yoff)*0.1
		zoom = max(zoom, 0.05)
	})

	start := time.Now()
	for !w.ShouldClose() && ctx.Err() == nil {
		select {
		case <-changed:
			next, err := build()
			if err != nil {
				volren.Logger().Error("reloading", "err", err)
				// Keep watching the broken files for a fix.
				reload.watch(reload.files)
				break
			}
			sc.destroy()
			sc = next
			reload.watch(append(sc.files(), win.watched...))
			volren.Logger().Info("reloaded")
		default:
		}

		frame := int(time.Since(start) / win.interval)
		if win.frames > 0 {
			frame %= win.frames
		}
		sc.azimuth, sc.elevation, sc.zoom = azimuth, elevation, zoom

		fw, fh := w.GetFramebufferSize()
		bg := sc.cfg.BackgroundColor()
		gl.ClearColor(bg[0], bg[1], bg[2], bg[3])
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		if err := sc.draw(fw, fh, frame, win.frames); err != nil {
			return err
		}
		w.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}
