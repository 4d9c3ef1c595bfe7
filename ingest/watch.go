package ingest

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// Watcher runs the pipeline once for every file that lands in the
// upload directory. Runs are independent: two simultaneous uploads race
// last-write-wins on the stats singleton.
type Watcher struct {
	Dir      string
	Pipeline *Pipeline
}

func NewWatcher(dir string, pipeline *Pipeline) *Watcher {
	return &Watcher{Dir: dir, Pipeline: pipeline}
}

// Watch blocks until ctx is cancelled, dispatching one pipeline run per
// created file.
func (w *Watcher) Watch(ctx context.Context) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.Dir); err != nil {
		return err
	}
	log.Printf("ingest: watching %s", w.Dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			go w.process(ctx, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("ingest: watch error: %v", err)
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	// The Create event fires as soon as the file exists, often before
	// the uploader has written the body. Poll until the size holds
	// still across one interval. A writer that stalls longer than the
	// whole window still gets read short.
	var last int64 = -1
	for i := 0; i < 20; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.Size() == last {
			break
		}
		last = info.Size()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("ingest: read %s: %v", path, err)
		return
	}

	run := uuid.NewString()[:8]
	name := filepath.Base(path)
	log.Printf("ingest[%s]: processing file: %s", run, name)
	if err := w.Pipeline.Run(ctx, name, data); err != nil {
		log.Printf("ingest[%s]: %s: %v", run, name, err)
	}
}
