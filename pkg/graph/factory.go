package graph

import (
	"fmt"

	"github.com/ritzau/dataflows/pkg/model"
)

// Factory creates and destroys the representations behind pawns
type Factory interface {
	// NewDevice instantiates a device of a placeable type
	NewDevice(t model.DeviceType, id int, pos model.Position) (*DevicePawn, error)

	// NewCord instantiates the connector between two devices
	NewCord(a, b *DevicePawn) *CordPawn

	// Destroy releases a pawn. Destroying an unknown pawn is a no-op.
	Destroy(p Pawn)
}

// SceneFactory is the default Factory. It names devices per type
// ("PC0", "Router0", "PC1", ...) and keeps track of live pawns.
type SceneFactory struct {
	counters map[model.DeviceType]int
	live     map[Pawn]struct{}
}

// NewSceneFactory creates a factory with fresh name counters
func NewSceneFactory() *SceneFactory {
	return &SceneFactory{
		counters: make(map[model.DeviceType]int),
		live:     make(map[Pawn]struct{}),
	}
}

func (f *SceneFactory) NewDevice(t model.DeviceType, id int, pos model.Position) (*DevicePawn, error) {
	if !t.Placeable() {
		return nil, fmt.Errorf("%w: %q", model.ErrUnrecognizedType, string(t))
	}

	n := f.counters[t]
	f.counters[t] = n + 1

	d := &DevicePawn{
		ID:       id,
		Name:     fmt.Sprintf("%s%d", t.Label(), n),
		Type:     t,
		Position: pos,
	}
	f.live[d] = struct{}{}
	return d, nil
}

func (f *SceneFactory) NewCord(a, b *DevicePawn) *CordPawn {
	c := &CordPawn{Endpoints: [2]*DevicePawn{a, b}}
	c.Midpoint = model.Midpoint(a.Position, b.Position)

	delta := b.Position.Sub(a.Position)
	c.Length = delta.Length()
	if c.Length > 0 {
		c.Direction = model.Position{
			X: delta.X / c.Length,
			Y: delta.Y / c.Length,
			Z: delta.Z / c.Length,
		}
	}

	f.live[c] = struct{}{}
	return c
}

func (f *SceneFactory) Destroy(p Pawn) {
	delete(f.live, p)
}

// Live returns the number of pawns created and not yet destroyed
func (f *SceneFactory) Live() int {
	return len(f.live)
}

// Alive reports whether p was created by this factory and not destroyed
func (f *SceneFactory) Alive(p Pawn) bool {
	_, ok := f.live[p]
	return ok
}
