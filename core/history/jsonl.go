package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
)

// JSONLStore appends one JSON encoded version per line to a file.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path}, nil
}

func (s *JSONLStore) Commit(ctx context.Context, v Version) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, err := readVersions(s.path)
	if err != nil {
		return Version{}, err
	}
	v = stamp(v, prev)
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return Version{}, err
	}
	defer func() { _ = f.Close() }()
	if err := json.NewEncoder(f).Encode(v); err != nil {
		return Version{}, err
	}
	return v, nil
}

func (s *JSONLStore) Latest(ctx context.Context, week string) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs, err := readVersions(s.path)
	if err != nil {
		return Version{}, err
	}
	return latestOf(vs, week)
}

func (s *JSONLStore) List(ctx context.Context, week string) ([]Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs, err := readVersions(s.path)
	if err != nil {
		return nil, err
	}
	return selectVersions(vs, week), nil
}

func (s *JSONLStore) Close() error { return nil }

// readVersions decodes every file in order. Undecodable lines and missing
// files are skipped.
func readVersions(paths ...string) ([]Version, error) {
	var out []Version
	for _, p := range paths {
		f, err := os.Open(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			var v Version
			if err := json.Unmarshal(scanner.Bytes(), &v); err != nil {
				continue
			}
			out = append(out, v)
		}
		err = scanner.Err()
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
