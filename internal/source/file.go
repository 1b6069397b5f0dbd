package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/theirongolddev/fincast/internal/model"
)

// FileSource reads the prediction log from a JSON file on disk, the same
// user_data.json the prediction backend writes.
type FileSource struct {
	path string
	mu   sync.Mutex // serializes Append
}

// NewFileSource creates a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file this source reads.
func (s *FileSource) Path() string { return s.path }

// Fetch reads and decodes the file. A missing file is an empty log.
func (s *FileSource) Fetch(ctx context.Context) (*model.PredictionLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindFetch, Origin: s.path, Err: err}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &model.PredictionLog{}, nil
		}
		return nil, &Error{Kind: KindFetch, Origin: s.path, Err: err}
	}
	return decodeLog(s.path, data)
}

// Append adds p to the end of the log and rewrites the file atomically.
func (s *FileSource) Append(ctx context.Context, p model.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Fetch(ctx)
	if err != nil {
		return err
	}
	current.Predictions = append(current.Predictions, p)

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return fmt.Errorf("source: encoding log: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("source: creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".user_data-*.json")
	if err != nil {
		return fmt.Errorf("source: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("source: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("source: closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("source: replacing %s: %w", s.path, err)
	}
	return nil
}

// Watch signals on the returned channel whenever the log file is written or
// replaced. The channel is closed when ctx is done.
func (s *FileSource) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("source: creating watcher: %w", err)
	}

	// Watch the directory so atomic renames are seen.
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("source: watching %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		defer func() { _ = w.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case out <- struct{}{}:
				default: // a signal is already pending
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("source: watch %s: %v", s.path, err)
			}
		}
	}()

	return out, nil
}
