package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/polyfloyd/volren"
	"github.com/polyfloyd/volren/config"
	"github.com/polyfloyd/volren/egl"
	"github.com/polyfloyd/volren/encode"
	"github.com/polyfloyd/volren/glutil"
	"github.com/polyfloyd/volren/render"
	"github.com/polyfloyd/volren/source"
)

const windowFormat = "window"

func main() {
	log.SetOutput(os.Stderr)
	// Lock this goroutine to the current thread. This is required because
	// OpenGL contexts are bounds to threads.
	runtime.LockOSThread()

	input := flag.String("i", "synth:blob", "The volume to render. One of synth:NAME[;SIZE] ("+strings.Join(source.Generators(), ", ")+") or raw:FILE;DxHxW;DTYPE")
	configFile := flag.String("c", "", "A TOML file with render settings")
	style := flag.String("style", "", "The render style: mip, ray, iso, edgeray or litray. Overrides the config")
	cmap := flag.String("cmap", "", "A colormap preset or a YAML colormap file. Overrides the config")
	climFlag := flag.String("clim", "", "The data range mapped onto the colormap as MIN,MAX. Overrides the config")
	geometry := flag.String("g", "512x512", "The geometry of the rendered image in WIDTHxHEIGHT format")
	outputFile := flag.String("o", "-", "The file to write the rendered image to")
	outputFormat := flag.String("ofmt", "", "The encoding format to use to output the image. Valid values are: "+strings.Join(append(encode.Names(), windowFormat), ", "))
	numFrames := flag.Uint("n", 1, "The number of frames of a full orbit around the volume")
	framerate := flag.Float64("f", 25, "The number of frames per second of an animation")
	slice := flag.Bool("2d", false, "Render the middle slice of the volume as an image")
	partsDir := flag.String("parts", "", "A directory of *.glsl files overriding shader parts by name")
	watch := flag.Bool("w", false, "Reload the config and shader parts when they change. Requires -ofmt "+windowFormat)
	verbose := flag.Bool("v", false, "Show verbose output about rendering")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	volren.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	width, height, err := parseGeometry(*geometry)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *framerate <= 0 {
		log.Fatalf("-f must be positive")
	}
	if *numFrames == 0 {
		log.Fatalf("-n must be at least 1")
	}
	interval := time.Duration(float64(time.Second) / *framerate)

	overrides := func(cfg *config.Config) error {
		if *style != "" {
			if err := cfg.Style.UnmarshalText([]byte(*style)); err != nil {
				return err
			}
		}
		if *cmap != "" {
			cfg.Colormap = *cmap
		}
		if *climFlag != "" {
			min, max, err := parseClim(*climFlag)
			if err != nil {
				return err
			}
			cfg.Clim = []float64{min, max}
		}
		return cfg.Validate()
	}
	loadConfig := func() (config.Config, error) {
		cfg := config.Default()
		if *configFile != "" {
			var err error
			if cfg, err = config.Load(*configFile); err != nil {
				return cfg, err
			}
		}
		return cfg, overrides(&cfg)
	}

	pwd, err := os.Getwd()
	if err != nil {
		log.Fatalf("%v", err)
	}
	data, err := source.Open(*input, pwd)
	if err != nil {
		log.Fatalf("%v", err)
	}
	volren.Logger().Debug("opened source", "source", *input, "array", data)

	build := func() (*scene, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		return newScene(cfg, data, *slice, *partsDir)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		<-sig
		signal.Stop(sig)
		cancel()
	}()

	// Rendering to an onscreen window is a separate path.
	if *outputFormat == windowFormat {
		var watched []string
		if *watch && *configFile != "" {
			watched = append(watched, *configFile)
		}
		win := window{
			width:    width,
			height:   height,
			interval: interval,
			frames:   int(*numFrames),
			watch:    *watch,
			watched:  watched,
		}
		if err := win.run(ctx, build); err != nil {
			log.Fatal(err)
		}
		return
	}
	if *watch {
		log.Fatalf("-w requires -ofmt %s", windowFormat)
	}

	var format encode.Format
	if *outputFormat != "" {
		if format, err = encode.Lookup(*outputFormat); err != nil {
			log.Fatalf("%v", err)
		}
	} else {
		var ok bool
		if format, ok = encode.DetectFormat(*outputFile); !ok {
			log.Fatalf("Unable to detect output format. Please set the -ofmt flag")
		}
	}

	pbuf, err := egl.NewPbuffer(uint(width), uint(height))
	if err != nil {
		log.Fatalf("Could not create an OpenGL context: %v", err)
	}
	defer pbuf.Destroy()
	if err := glutil.Init(); err != nil {
		log.Fatalf("Could not initialize OpenGL: %v", err)
	}
	defer glutil.Release()
	major, minor := glutil.Version()
	volren.Logger().Debug("initialized OpenGL", "major", major, "minor", minor)

	sc, err := build()
	if err != nil {
		log.Fatal(err)
	}
	defer sc.destroy()

	outWriter, err := openWriter(*outputFile)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer outWriter.Close()

	if err := renderOffscreen(ctx, sc, width, height, int(*numFrames), interval, format, outWriter); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}

// renderOffscreen draws n frames in the current context and encodes them.
func renderOffscreen(ctx context.Context, sc *scene, width, height, n int, interval time.Duration, format encode.Format, w io.Writer) error {
	target, err := render.NewTarget(width, height)
	if err != nil {
		return err
	}
	defer target.Close()
	target.SetBackground(sc.cfg.BackgroundColor())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stream := make(chan image.Image, 1)
	encoded := make(chan error, 1)
	go func() {
		err := format.EncodeAnimation(w, stream, interval)
		if err != nil {
			// Stop rendering frames nobody reads.
			cancel()
		}
		encoded <- err
	}()

	start := time.Now()
	err = target.Animate(ctx, n, func(frame int) error {
		return sc.draw(width, height, frame, n)
	}, stream)
	close(stream)
	if encErr := <-encoded; encErr != nil {
		return encErr
	}
	if err != nil {
		return err
	}
	volren.Logger().Debug("rendered", "frames", n, "elapsed", time.Since(start))
	return nil
}

var geometryRe = regexp.MustCompile(`^(\d+)x(\d+)$`)

func parseGeometry(geom string) (int, int, error) {
	matches := geometryRe.FindStringSubmatch(geom)
	if matches == nil {
		return 0, 0, fmt.Errorf("invalid geometry: %q", geom)
	}
	w, _ := strconv.ParseUint(matches[1], 10, 32)
	h, _ := strconv.ParseUint(matches[2], 10, 32)
	if w == 0 || h == 0 {
		return 0, 0, fmt.Errorf("no geometry dimension can be 0, got (%d, %d)", w, h)
	}
	return int(w), int(h), nil
}

func parseClim(s string) (float64, float64, error) {
	lo, hi, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid clim: %q (format: MIN,MAX)", s)
	}
	min, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clim: %w", err)
	}
	max, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clim: %w", err)
	}
	return min, max, nil
}

func openWriter(filename string) (io.WriteCloser, error) {
	if filename == "-" {
		return nopCloseWriter{Writer: os.Stdout}, nil
	}
	return os.Create(filename)
}

type nopCloseWriter struct {
	io.Writer
}

func (nopCloseWriter) Close() error {
	return nil
}
