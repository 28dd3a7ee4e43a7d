package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ritzau/dataflows/pkg/model"
	"github.com/ritzau/dataflows/pkg/scene"
)

// MemoryStore keeps scenes in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	scenes map[int]*scene.Scene
	nextID int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scenes: make(map[int]*scene.Scene),
		nextID: 1,
	}
}

func (m *MemoryStore) Fetch(ctx context.Context, id int) (*scene.Scene, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.scenes[id]
	if !ok {
		return nil, fmt.Errorf("scene %d: %w", id, model.ErrSceneNotFound)
	}
	return clone(s, id), nil
}

func (m *MemoryStore) FetchAll(ctx context.Context) ([]*scene.Scene, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*scene.Scene, 0, len(m.scenes))
	for id, s := range m.scenes {
		out = append(out, clone(s, id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *scene.Scene, isNew bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := s.ID
	if isNew {
		id = m.nextID
		m.nextID++
	} else if _, ok := m.scenes[id]; !ok {
		return 0, fmt.Errorf("update scene %d: %w", id, model.ErrSceneNotFound)
	}

	m.scenes[id] = clone(s, id)
	return id, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.scenes[id]; !ok {
		return fmt.Errorf("delete scene %d: %w", id, model.ErrSceneNotFound)
	}
	delete(m.scenes, id)
	return nil
}
