package main

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/polyfloyd/volren"
)

// reloader signals when one of the watched files changes. Bursts of events
// are collapsed into one signal.
type reloader struct {
	watcher *fsnotify.Watcher
	files   []string
	changed chan struct{}
}

func newReloader(ctx context.Context) (*reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	r := &reloader{
		watcher: watcher,
		changed: make(chan struct{}, 1),
	}
	go r.run(ctx)
	return r, nil
}

// watch replaces the set of watched files. Files are added again even if
// they were watched before, as editors that save by renaming drop the
// watch.
func (r *reloader) watch(files []string) {
	for _, f := range r.files {
		r.watcher.Remove(f)
	}
	r.files = append([]string(nil), files...)
	for _, f := range r.files {
		if err := r.watcher.Add(f); err != nil {
			volren.Logger().Warn("can not watch file", "file", f, "err", err)
		}
	}
}

func (r *reloader) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			t := time.NewTimer(time.Millisecond * 20)
		outer:
			for {
				select {
				case <-r.watcher.Events:
				case <-t.C:
					break outer
				}
			}
			select {
			case r.changed <- struct{}{}:
			default:
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			volren.Logger().Warn("watching files", "err", err)
		}
	}
}

func (r *reloader) Close() error {
	return r.watcher.Close()
}
