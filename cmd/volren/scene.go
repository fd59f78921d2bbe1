package main

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/polyfloyd/volren/config"
	"github.com/polyfloyd/volren/ndarray"
	"github.com/polyfloyd/volren/render"
	"github.com/polyfloyd/volren/shaderlib"
)

// scene is a configured renderer for one volume, either drawn in 3D or as
// its middle slice.
type scene struct {
	cfg config.Config
	lib *shaderlib.Library
	vol *render.Texture3D
	img *render.Texture2D

	// Offsets set interactively, in degrees.
	azimuth, elevation float32
	zoom               float32
}

func newScene(cfg config.Config, data *ndarray.Array, slice bool, partsDir string) (*scene, error) {
	lib := shaderlib.New()
	if partsDir != "" {
		if err := lib.LoadDir(partsDir); err != nil {
			return nil, err
		}
	}
	sc := &scene{cfg: cfg, lib: lib, zoom: 1}

	if slice {
		if data.NDim() < 3 {
			return nil, fmt.Errorf("can not take a slice of a %d dimensional array", data.NDim())
		}
		mid, err := data.Slice(data.Shape[0] / 2)
		if err != nil {
			return nil, err
		}
		sc.img = render.NewTexture2D(lib)
		if err := sc.img.SetData(mid); err != nil {
			return nil, err
		}
		if err := cfg.ApplyImage(sc.img); err != nil {
			return nil, err
		}
		return sc, nil
	}

	sc.vol = render.NewTexture3D(lib, nil)
	if err := sc.vol.SetData(data); err != nil {
		return nil, err
	}
	if err := cfg.ApplyVolume(sc.vol); err != nil {
		return nil, err
	}
	return sc, nil
}

// files returns the files the shaders of the scene were loaded from.
func (sc *scene) files() []string {
	return sc.lib.Files()
}

func (sc *scene) boundingBox() (mgl32.Vec3, mgl32.Vec3) {
	if sc.img != nil {
		return sc.img.BoundingBox()
	}
	return sc.vol.BoundingBox()
}

// camera returns the camera for frame out of n frames of a full orbit.
func (sc *scene) camera(w, h, frame, n int) render.Camera {
	min, max := sc.boundingBox()
	if sc.img != nil {
		return fitOrtho(min, max, w, h, sc.zoom)
	}
	cfg := sc.cfg
	cfg.Camera.Zoom *= sc.zoom
	o := cfg.Orbit(min, max)
	o.Azimuth += sc.azimuth
	o.Elevation = mgl32.Clamp(o.Elevation+sc.elevation, -89, 89)
	if n > 1 {
		o.Azimuth += 360 * float32(frame) / float32(n)
	}
	return o.Camera(w, h)
}

func (sc *scene) draw(w, h, frame, n int) error {
	cam := sc.camera(w, h, frame, n)
	if sc.img != nil {
		return sc.img.Draw(cam)
	}
	return sc.vol.Draw(cam)
}

func (sc *scene) destroy() {
	if sc.img != nil {
		sc.img.Destroy()
	}
	if sc.vol != nil {
		sc.vol.Destroy()
	}
}

// fitOrtho returns a camera showing the rectangle [min, max] without
// distortion. The first row of the image is at the top.
func fitOrtho(min, max mgl32.Vec3, w, h int, zoom float32) render.Camera {
	cx, cy := (min.X()+max.X())/2, (min.Y()+max.Y())/2
	hw, hh := (max.X()-min.X())/2, (max.Y()-min.Y())/2
	aspect := float32(w) / float32(h)
	if hw < hh*aspect {
		hw = hh * aspect
	} else {
		hh = hw / aspect
	}
	hw, hh = hw/zoom, hh/zoom
	return render.Ortho2D(cx-hw, cx+hw, cy+hh, cy-hh, w, h)
}
