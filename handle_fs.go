package uvw

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// FsEventHandle watches filesystem paths and republishes changes on the
// loop as FsEvent. Watcher errors surface as ErrorEvent. Paths are
// normalized to absolute form, and the handle counts as active while at
// least one path is watched.
type FsEventHandle struct {
	Resource[FsEventHandle]

	watcher *fsnotify.Watcher
	paths   map[string]struct{}
	quit    chan struct{}
}

// NewFsEvent creates a filesystem watcher handle attached to l.
func NewFsEvent(l *Loop) (*FsEventHandle, error) {
	if l.isClosed() {
		return nil, ErrLoopClosed
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fs watcher")
	}

	h := &FsEventHandle{
		watcher: w,
		paths:   make(map[string]struct{}),
		quit:    make(chan struct{}),
	}
	h.Resource = newResource(l, h)
	h.teardown = func() {
		close(h.quit)
		if err := h.watcher.Close(); err != nil {
			h.loop.logger.Errorf("close fs watcher: %s", err)
		}
	}
	l.attach(h)

	go h.forward(w, h.quit)
	return h, nil
}

// Watch adds path to the watched set. Watching a path twice fails with
// ErrAlreadyWatching.
func (h *FsEventHandle) Watch(path string) error {
	if h.closing {
		return ErrHandleClosed
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve %q", path)
	}
	if _, ok := h.paths[abs]; ok {
		return ErrAlreadyWatching
	}
	if err := h.watcher.Add(abs); err != nil {
		return errors.Wrapf(err, "watch %q", abs)
	}
	h.paths[abs] = struct{}{}
	h.markActive(true)
	return nil
}

// Unwatch removes path from the watched set. Removing an unwatched path
// fails with ErrNotWatching.
func (h *FsEventHandle) Unwatch(path string) error {
	if h.closing {
		return ErrHandleClosed
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve %q", path)
	}
	if _, ok := h.paths[abs]; !ok {
		return ErrNotWatching
	}
	if err := h.watcher.Remove(abs); err != nil {
		return errors.Wrapf(err, "unwatch %q", abs)
	}
	delete(h.paths, abs)
	if len(h.paths) == 0 {
		h.markActive(false)
	}
	return nil
}

// Stop removes every watched path without closing the handle.
func (h *FsEventHandle) Stop() error {
	if h.closing {
		return ErrHandleClosed
	}
	for path := range h.paths {
		if err := h.watcher.Remove(path); err != nil {
			h.loop.logger.WithField("path", path).Errorf("unwatch: %s", err)
		}
		delete(h.paths, path)
	}
	h.markActive(false)
	return nil
}

// forward pumps watcher deliveries to the loop until teardown. The
// posted publishes re-check the handle state on the loop goroutine.
func (h *FsEventHandle) forward(w *fsnotify.Watcher, quit chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			h.loop.Post(func() {
				if h.closing {
					return
				}
				Publish(h.Emitter, FsEvent{Path: ev.Name, Op: fsOpFromNotify(ev.Op)})
			})
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			h.loop.Post(func() {
				if h.closing {
					return
				}
				Publish(h.Emitter, ErrorEvent{Err: errors.Wrap(err, "fs watch")})
			})
		}
	}
}

func fsOpFromNotify(op fsnotify.Op) FsOp {
	var out FsOp
	if op.Has(fsnotify.Create) {
		out |= FsCreate
	}
	if op.Has(fsnotify.Write) {
		out |= FsWrite
	}
	if op.Has(fsnotify.Remove) {
		out |= FsRemove
	}
	if op.Has(fsnotify.Rename) {
		out |= FsRename
	}
	if op.Has(fsnotify.Chmod) {
		out |= FsChmod
	}
	return out
}
