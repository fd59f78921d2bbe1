// Package gltest sets up a headless OpenGL context for tests.
package gltest

import (
	"runtime"
	"testing"

	"github.com/polyfloyd/volren/egl"
	"github.com/polyfloyd/volren/glutil"
)

// Init makes a w by h pixel buffer context current on the thread of the
// test. The test is skipped when no context can be created. The context is
// destroyed when the test ends.
func Init(t testing.TB, w, h int) {
	t.Helper()
	runtime.LockOSThread()

	pbuf, err := egl.NewPbuffer(uint(w), uint(h))
	if err != nil {
		runtime.UnlockOSThread()
		t.Skipf("no EGL context: %v", err)
	}
	if err := glutil.Init(); err != nil {
		pbuf.Destroy()
		runtime.UnlockOSThread()
		t.Skipf("no OpenGL: %v", err)
	}

	t.Cleanup(func() {
		glutil.Release()
		pbuf.Destroy()
		runtime.UnlockOSThread()
	})
}
