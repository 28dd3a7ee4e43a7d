// Package store persists scenes by id.
//
// Every backend assigns ids on first save, starting at 1. The id of a
// scene passed to Save is ignored for new scenes and selects the scene to
// overwrite otherwise.
package store

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/ritzau/dataflows/pkg/scene"
)

// SceneStore saves and loads scenes
type SceneStore interface {
	// Fetch returns the scene with the given id, or ErrSceneNotFound
	Fetch(ctx context.Context, id int) (*scene.Scene, error)

	// FetchAll returns every scene ordered by id
	FetchAll(ctx context.Context) ([]*scene.Scene, error)

	// Save stores s. New scenes get a fresh id; updates require s.ID to
	// exist. The id the scene was stored under is returned.
	Save(ctx context.Context, s *scene.Scene, isNew bool) (int, error)

	// Delete removes a scene, or returns ErrSceneNotFound
	Delete(ctx context.Context, id int) error
}

// Kind names a backend
type Kind string

const (
	KindMemory Kind = "memory"
	KindSQLite Kind = "sqlite"
	KindRedis  Kind = "redis"
	KindFile   Kind = "file"
)

// ParseKind converts a backend name, case-insensitively
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	switch k {
	case KindMemory, KindSQLite, KindRedis, KindFile:
		return k, nil
	}
	return "", fmt.Errorf("unknown store %q (want memory, sqlite, redis or file)", name)
}

// Close releases the resources held by a store, if any
func Close(s SceneStore) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// clone copies a scene so stored values are never shared with callers
func clone(s *scene.Scene, id int) *scene.Scene {
	return &scene.Scene{
		ID:      id,
		Name:    s.Name,
		Devices: nonNil(slices.Clone(s.Devices)),
		Cords:   nonNil(slices.Clone(s.Cords)),
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return make([]T, 0)
	}
	return items
}

// decode parses a stored payload and stamps it with its id
func decode(payload []byte, id int) (*scene.Scene, error) {
	s, err := scene.Deserialize(payload)
	if err != nil {
		return nil, fmt.Errorf("stored scene %d is corrupt: %w", id, err)
	}
	return clone(s, id), nil
}

// encode marshals a scene for storage under id
func encode(s *scene.Scene, id int) ([]byte, error) {
	return clone(s, id).Marshal()
}
