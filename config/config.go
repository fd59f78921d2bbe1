// Package config reads the render settings of the volren command from a
// TOML file.
//
// An example:
//
//	style = "iso"
//	iso_threshold = 0.4
//	colormap = "viridis"
//	clim = [0.0, 1.0]
//
//	[camera]
//	azimuth = 30.0
//	elevation = 20.0
//
//	[[lights]]
//	index = 1
//	on = true
//	color = "#ffeecc"
//	position = [1.0, 1.0, 1.0, 0.0]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/polyfloyd/volren/colors"
	"github.com/polyfloyd/volren/light"
	"github.com/polyfloyd/volren/render"
	"github.com/polyfloyd/volren/texture"
)

type Config struct {
	Style        render.Style `toml:"style"`
	StepRatio    float32      `toml:"step_ratio"`
	IsoThreshold float64      `toml:"iso_threshold"`
	// Clim is the window of the data mapped onto the colormap. Empty means
	// the full range of the data.
	Clim []float64 `toml:"clim"`
	// Colormap is the name of a preset or a YAML colormap file.
	Colormap    string `toml:"colormap"`
	Interpolate bool   `toml:"interpolate"`
	AA          int    `toml:"aa"`
	Subdivision int    `toml:"subdivision"`
	Background  string `toml:"background"`

	Camera   Camera    `toml:"camera"`
	Material *Material `toml:"material"`
	Lights   []Light   `toml:"lights"`
}

type Camera struct {
	Azimuth   float32 `toml:"azimuth"`
	Elevation float32 `toml:"elevation"`
	// Fov is the vertical field of view in degrees, 0 for an orthographic
	// projection.
	Fov float32 `toml:"fov"`
	// Zoom scales the view, 1 fits the data.
	Zoom float32 `toml:"zoom"`
}

// Material scales white for each term.
type Material struct {
	Ambient   float64 `toml:"ambient"`
	Diffuse   float64 `toml:"diffuse"`
	Specular  float64 `toml:"specular"`
	Shininess float32 `toml:"shininess"`
}

type Light struct {
	Index    int         `toml:"index"`
	On       bool        `toml:"on"`
	CamLight bool        `toml:"cam_light"`
	Color    string      `toml:"color"`
	Ambient  *float64    `toml:"ambient"`
	Diffuse  *float64    `toml:"diffuse"`
	Specular *float64    `toml:"specular"`
	Position *[4]float32 `toml:"position"`
}

// Default returns the settings used for everything a file leaves out.
func Default() Config {
	return Config{
		Style:       render.MIP,
		StepRatio:   1,
		Colormap:    "gray",
		Interpolate: true,
		Subdivision: 1,
		Background:  "k",
		Camera:      Camera{Azimuth: 30, Elevation: 20, Zoom: 1},
	}
}

// Load reads a config file on top of the defaults. Unknown keys are an
// error.
func Load(filename string) (Config, error) {
	filename, err := homedir.Expand(filename)
	if err != nil {
		return Config{}, err
	}
	buf, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, err
	}
	c, err := Parse(buf)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}
	// Colormap files are relative to the config.
	if isColormapFile(c.Colormap) && !filepath.IsAbs(c.Colormap) && !strings.HasPrefix(c.Colormap, "~") {
		c.Colormap = filepath.Join(filepath.Dir(filename), c.Colormap)
	}
	return c, nil
}

// Parse decodes a TOML document on top of the defaults.
func Parse(buf []byte) (Config, error) {
	c := Default()
	dec := toml.NewDecoder(bytes.NewReader(buf))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Config{}, fmt.Errorf("line %d, column %d: %v", row, col, derr)
		}
		return Config{}, err
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if len(c.Clim) != 0 && len(c.Clim) != 2 {
		return fmt.Errorf("clim must have 2 values, got %d", len(c.Clim))
	}
	if c.StepRatio <= 0 {
		return fmt.Errorf("step_ratio must be positive, got %g", c.StepRatio)
	}
	if c.AA < 0 || c.AA > render.MaxAA {
		return fmt.Errorf("aa must be between 0 and %d, got %d", render.MaxAA, c.AA)
	}
	if c.Camera.Zoom <= 0 {
		return fmt.Errorf("camera zoom must be positive, got %g", c.Camera.Zoom)
	}
	if _, err := colors.Parse(c.Background); err != nil {
		return fmt.Errorf("background: %w", err)
	}
	for _, l := range c.Lights {
		if l.Index < 0 || l.Index >= light.MaxLights {
			return fmt.Errorf("light index must be between 0 and %d, got %d", light.MaxLights-1, l.Index)
		}
	}
	return nil
}

func isColormapFile(s string) bool {
	ext := strings.ToLower(filepath.Ext(s))
	return ext == ".yaml" || ext == ".yml"
}

// ColormapValue returns what to pass to SetColormap: the contents of a
// colormap file or the name of a preset.
func (c Config) ColormapValue() (any, error) {
	if !isColormapFile(c.Colormap) {
		return c.Colormap, nil
	}
	filename, err := homedir.Expand(c.Colormap)
	if err != nil {
		return nil, err
	}
	return texture.LoadColormapFile(filename)
}

// BackgroundColor returns the parsed background colour.
func (c Config) BackgroundColor() [4]float32 {
	bg, err := colors.Parse(c.Background)
	if err != nil {
		return colors.Black.RGBA32()
	}
	return bg.RGBA32()
}

// renderer is what Texture2D and Texture3D have in common.
type renderer interface {
	SetClim(min, max float64)
	SetColormap(v any) error
	SetInterpolate(bool)
}

func (c Config) applyCommon(r renderer) error {
	if len(c.Clim) == 2 {
		r.SetClim(c.Clim[0], c.Clim[1])
	}
	cmap, err := c.ColormapValue()
	if err != nil {
		return err
	}
	if err := r.SetColormap(cmap); err != nil {
		return err
	}
	r.SetInterpolate(c.Interpolate)
	return nil
}

// ApplyImage configures an image renderer. The data must be set first so
// the clim is not reset afterwards.
func (c Config) ApplyImage(r *render.Texture2D) error {
	if err := c.applyCommon(r); err != nil {
		return err
	}
	return r.SetAA(c.AA)
}

// ApplyVolume configures a volume renderer. The data must be set first so
// the clim is not reset afterwards.
func (c Config) ApplyVolume(r *render.Texture3D) error {
	if err := c.applyCommon(r); err != nil {
		return err
	}
	if err := r.SetStyle(c.Style); err != nil {
		return err
	}
	if err := r.SetStepRatio(c.StepRatio); err != nil {
		return err
	}
	r.SetIsoThreshold(c.IsoThreshold)
	if err := r.SetSubdivision(c.Subdivision); err != nil {
		return err
	}
	if c.Material != nil {
		m := render.Material{
			Ambient:   colors.White.Scale(c.Material.Ambient),
			Diffuse:   colors.White.Scale(c.Material.Diffuse),
			Specular:  colors.White.Scale(c.Material.Specular),
			Shininess: c.Material.Shininess,
		}
		if err := r.SetMaterial(m); err != nil {
			return err
		}
	}
	return c.ApplyLights(r.Lights())
}

// ApplyLights configures the lights listed in the file. Lights that are not
// listed keep their settings.
func (c Config) ApplyLights(ls *light.Lights) error {
	for _, lc := range c.Lights {
		l := ls.Get(lc.Index)
		if lc.On {
			l.On()
		} else {
			l.Off()
		}
		if lc.CamLight {
			ls.SetCamLight(lc.Index)
		} else if l.IsCamLight() {
			ls.SetCamLight(-1)
		}
		if lc.Color != "" {
			if err := l.SetColor(lc.Color); err != nil {
				return fmt.Errorf("light %d: %w", lc.Index, err)
			}
		}
		for _, t := range [...]struct {
			v   *float64
			set func(any) error
		}{
			{lc.Ambient, l.SetAmbient},
			{lc.Diffuse, l.SetDiffuse},
			{lc.Specular, l.SetSpecular},
		} {
			if t.v == nil {
				continue
			}
			if err := t.set(*t.v); err != nil {
				return fmt.Errorf("light %d: %w", lc.Index, err)
			}
		}
		if p := lc.Position; p != nil {
			l.SetPosition(p[0], p[1], p[2], p[3])
		}
	}
	return nil
}

// Orbit returns the camera looking at the box [min, max] from the
// configured angles.
func (c Config) Orbit(min, max mgl32.Vec3) render.Orbit {
	center := min.Add(max).Mul(0.5)
	radius := max.Sub(min).Len() / 2
	if radius == 0 {
		radius = 1
	}
	o := render.Orbit{
		Center:    center,
		Distance:  radius / c.Camera.Zoom,
		Azimuth:   c.Camera.Azimuth,
		Elevation: c.Camera.Elevation,
		Fov:       c.Camera.Fov,
	}
	if o.Fov > 0 {
		// Move back so the bounding sphere fits the field of view.
		half := mgl32.DegToRad(o.Fov) / 2
		o.Distance = radius / math32.Sin(half) / c.Camera.Zoom
	}
	return o
}
