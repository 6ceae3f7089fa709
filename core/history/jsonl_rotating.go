package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingJSONLStore is a JSONLStore whose file is rotated by size. Rotated
// backups stay readable so version numbering survives rotation.
type RotatingJSONLStore struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
	path   string
}

// NewRotatingJSONLStore creates a store with rotation options in megabytes and days.
func NewRotatingJSONLStore(path string, maxSizeMB, maxBackups, maxAgeDays int) (*RotatingJSONLStore, error) {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &RotatingJSONLStore{logger: lj, path: path}, nil
}

func (s *RotatingJSONLStore) Commit(ctx context.Context, v Version) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, err := s.read()
	if err != nil {
		return Version{}, err
	}
	v = stamp(v, prev)
	b, err := json.Marshal(v)
	if err != nil {
		return Version{}, err
	}
	// A single Write keeps a record from being split across files.
	if _, err := s.logger.Write(append(b, '\n')); err != nil {
		return Version{}, err
	}
	return v, nil
}

func (s *RotatingJSONLStore) Latest(ctx context.Context, week string) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs, err := s.read()
	if err != nil {
		return Version{}, err
	}
	return latestOf(vs, week)
}

func (s *RotatingJSONLStore) List(ctx context.Context, week string) ([]Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs, err := s.read()
	if err != nil {
		return nil, err
	}
	return selectVersions(vs, week), nil
}

// read loads the active file and its backups.
func (s *RotatingJSONLStore) read() ([]Version, error) {
	ext := filepath.Ext(s.path)
	base := s.path[:len(s.path)-len(ext)]
	backups, err := filepath.Glob(base + "-*" + ext)
	if err != nil {
		return nil, err
	}
	return readVersions(append(backups, s.path)...)
}

// Close closes the underlying writer.
func (s *RotatingJSONLStore) Close() error {
	return s.logger.Close()
}
