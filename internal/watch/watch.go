package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"orderview/internal/debounce"
)

// File calls fn after file has been written, created or renamed into place and
// then left alone for wait. It blocks until ctx is done.
//
// The parent directory is watched rather than the file itself, so editors that
// replace the file atomically keep being observed.
func File(ctx context.Context, log zerolog.Logger, file string, wait time.Duration, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer w.Close()

	abs, err := filepath.Abs(file)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", file)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}

	d := debounce.New(wait, fn)
	defer d.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				log.Debug().Str("file", abs).Str("op", ev.Op.String()).Msg("export file changed")
				d.Trigger()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Str("file", abs).Msg("watch error")
		}
	}
}
