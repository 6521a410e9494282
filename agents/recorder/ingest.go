package recorder

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// IngestWatcher monitors a drop directory for recording files and feeds them
// into the pipeline.
type IngestWatcher struct {
	dir     string
	watcher *fsnotify.Watcher
	handler func(ctx context.Context, path string) error
}

func NewIngestWatcher(dir string, handler func(ctx context.Context, path string) error) (*IngestWatcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ingest directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &IngestWatcher{
		dir:     dir,
		watcher: watcher,
		handler: handler,
	}, nil
}

// Start processes create events until ctx is cancelled. Files are handled one
// at a time; the pipeline rejects overlapping runs anyway.
func (w *IngestWatcher) Start(ctx context.Context) error {
	log.Printf("Ingest watcher started, monitoring: %s", w.dir)
	log.Println("Supported formats: .wav, .webm, .mp3, .m4a, .ogg")

	for {
		select {
		case <-ctx.Done():
			log.Println("Ingest watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if _, ok := mimeForFile(event.Name); !ok {
				continue
			}

			log.Printf("New recording detected: %s", event.Name)

			// Small delay to ensure the file is fully written
			time.Sleep(500 * time.Millisecond)

			if err := w.handler(ctx, event.Name); err != nil {
				log.Printf("Failed to ingest %s: %v", event.Name, err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

// Stop closes the underlying watcher.
func (w *IngestWatcher) Stop() error {
	return w.watcher.Close()
}
