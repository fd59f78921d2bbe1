package egl

// Pbuffer is an OpenGL context that renders to an offscreen surface.
type Pbuffer struct {
	display Display
	context Context
}

// NewPbuffer sets up a width by height pixel buffer on the default display
// and makes its context current on the calling thread.
func NewPbuffer(width, height uint) (*Pbuffer, error) {
	display, err := GetDisplay(DefaultDisplay)
	if err != nil {
		return nil, err
	}
	surface, err := display.CreateSurface(width, height)
	if err != nil {
		display.Destroy()
		return nil, err
	}
	if err := display.BindAPI(OpenGLAPI); err != nil {
		display.Destroy()
		return nil, err
	}
	context, err := display.CreateContext(surface)
	if err != nil {
		display.Destroy()
		return nil, err
	}
	if err := context.MakeCurrent(); err != nil {
		context.Destroy()
		display.Destroy()
		return nil, err
	}
	return &Pbuffer{display: display, context: context}, nil
}

func (p *Pbuffer) Destroy() {
	p.context.Destroy()
	p.display.Destroy()
}
