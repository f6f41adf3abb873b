package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LocalSink writes CSV files into a directory and prunes files older than the
// retention window on each store.
type LocalSink struct {
	dir       string
	retention time.Duration
}

func NewLocalSink(dir string, retention time.Duration) (*LocalSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &LocalSink{dir: dir, retention: retention}, nil
}

func (s *LocalSink) Name() string {
	return "local"
}

func (s *LocalSink) Store(_ context.Context, filename string, data []byte) (string, error) {
	s.sweep()
	path := filepath.Join(s.dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

// sweep removes expired CSV files. Failures are ignored; the next store
// retries.
func (s *LocalSink) sweep() {
	if s.retention <= 0 {
		return
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-s.retention)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".csv" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(s.dir, entry.Name()))
		}
	}
}
