package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ritzau/dataflows/pkg/model"
	"github.com/ritzau/dataflows/pkg/scene"
)

// nextFile records the next id to assign so deleted ids are never reused
const nextFile = ".next"

// FileStore keeps one <id>.json file per scene in a directory. Files can be
// edited by hand; the server watches the directory for that.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scene directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the scene directory
func (s *FileStore) Dir() string {
	return s.dir
}

// IDFromPath returns the scene id of a scene file path such as "dir/12.json"
func IDFromPath(path string) (int, bool) {
	base := filepath.Base(path)
	if filepath.Ext(base) != ".json" {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSuffix(base, ".json"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *FileStore) path(id int) string {
	return filepath.Join(s.dir, strconv.Itoa(id)+".json")
}

func (s *FileStore) Fetch(ctx context.Context, id int) (*scene.Scene, error) {
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("scene %d: %w", id, model.ErrSceneNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read scene %d: %w", id, err)
	}
	return decode(data, id)
}

func (s *FileStore) FetchAll(ctx context.Context) ([]*scene.Scene, error) {
	ids, err := s.ids()
	if err != nil {
		return nil, err
	}
	out := make([]*scene.Scene, 0, len(ids))
	for _, id := range ids {
		sc, err := s.Fetch(ctx, id)
		if errors.Is(err, model.ErrSceneNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// ids lists the scene ids present in the directory, sorted
func (s *FileStore) ids() ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}
	var ids []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := IDFromPath(e.Name()); ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *FileStore) Save(ctx context.Context, sc *scene.Scene, isNew bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := sc.ID
	if isNew {
		next, err := s.nextID()
		if err != nil {
			return 0, err
		}
		id = next
		if err := s.write(filepath.Join(s.dir, nextFile), []byte(strconv.Itoa(id+1)+"\n")); err != nil {
			return 0, err
		}
	} else if _, err := os.Stat(s.path(id)); errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("update scene %d: %w", id, model.ErrSceneNotFound)
	}

	payload, err := encode(sc, id)
	if err != nil {
		return 0, err
	}
	if err := s.write(s.path(id), payload); err != nil {
		return 0, err
	}
	return id, nil
}

// nextID is the larger of the recorded high-water mark and one past the
// highest scene file, so hand-copied files are never overwritten
func (s *FileStore) nextID() (int, error) {
	ids, err := s.ids()
	if err != nil {
		return 0, err
	}
	next := 1
	if len(ids) > 0 {
		next = ids[len(ids)-1] + 1
	}

	data, err := os.ReadFile(filepath.Join(s.dir, nextFile))
	if errors.Is(err, fs.ErrNotExist) {
		return next, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read id counter: %w", err)
	}
	recorded, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("corrupt id counter %s: %w", nextFile, err)
	}
	return max(next, recorded), nil
}

// write replaces a file atomically via a temp file and rename
func (s *FileStore) write(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".scene-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete scene %d: %w", id, model.ErrSceneNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete scene %d: %w", id, err)
	}
	return nil
}
