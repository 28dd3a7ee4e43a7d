// Package scene converts topology graphs to and from the JSON wire form
// exchanged with scene stores:
//
//	{
//	  "id": 3,
//	  "name": "office",
//	  "devices": [{"scene_device_id": 0, "name": "PC0", "type": "PC", "x": 0, "y": 0, "z": 0}],
//	  "cords":   [{"device_1": 0, "device_2": 1}]
//	}
//
// The id is envelope metadata assigned by the store; 0 means the scene has
// not been saved yet.
package scene

import (
	"encoding/json"
	"fmt"

	"github.com/ritzau/dataflows/pkg/graph"
	"github.com/ritzau/dataflows/pkg/logging"
	"github.com/ritzau/dataflows/pkg/model"
)

// NoID is the id of a scene that has not been saved
const NoID = 0

// Scene is the serialized form of a FlowGraph
type Scene struct {
	ID      int      `json:"id,omitempty"`
	Name    string   `json:"name"`
	Devices []Device `json:"devices"`
	Cords   []Cord   `json:"cords"`
}

// Device is one placed device
type Device struct {
	SceneDeviceID int     `json:"scene_device_id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Z             float64 `json:"z"`
}

// Position returns the device placement
func (d Device) Position() model.Position {
	return model.Position{X: d.X, Y: d.Y, Z: d.Z}
}

// Cord is one link, with Device1 <= Device2
type Cord struct {
	Device1 int `json:"device_1"`
	Device2 int `json:"device_2"`
}

// Pair returns the canonical pair of the cord
func (c Cord) Pair() model.Pair {
	return model.NewPair(c.Device1, c.Device2)
}

// Serialize snapshots a graph. Devices come out sorted by id and cords by pair.
func Serialize(g *graph.FlowGraph) *Scene {
	s := &Scene{
		ID:      g.ID,
		Name:    g.Name,
		Devices: make([]Device, 0),
		Cords:   make([]Cord, 0),
	}

	for _, d := range g.Devices() {
		s.Devices = append(s.Devices, Device{
			SceneDeviceID: d.ID,
			Name:          d.Name,
			Type:          d.Type.String(),
			X:             d.Position.X,
			Y:             d.Position.Y,
			Z:             d.Position.Z,
		})
	}

	for _, p := range g.Cords() {
		if p.Lo <= p.Hi {
			s.Cords = append(s.Cords, Cord{Device1: p.Lo, Device2: p.Hi})
		}
	}

	return s
}

// Marshal encodes the scene as JSON
func (s *Scene) Marshal() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scene: %w", err)
	}
	return data, nil
}

// Deserialize decodes a single scene, id included
func Deserialize(payload []byte) (*Scene, error) {
	var s Scene
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidScene, err)
	}
	logging.Trace("deserialized scene", "sceneID", s.ID, "devices", len(s.Devices), "cords", len(s.Cords))
	return &s, nil
}

// DeserializeList decodes a JSON array of scenes
func DeserializeList(payload []byte) ([]*Scene, error) {
	var scenes []*Scene
	if err := json.Unmarshal(payload, &scenes); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidScene, err)
	}
	if scenes == nil {
		scenes = make([]*Scene, 0)
	}
	return scenes, nil
}

// Validate checks that the scene can be replayed onto an empty graph
func (s *Scene) Validate() error {
	return s.validate(func(int) bool { return false })
}

// validate checks device types, duplicate device ids and cord endpoints.
// Cord endpoints may refer to devices in the payload or to ids for which
// known returns true.
func (s *Scene) validate(known func(id int) bool) error {
	ids := make(map[int]bool, len(s.Devices))
	for _, d := range s.Devices {
		if _, err := model.ParseDeviceType(d.Type); err != nil {
			return fmt.Errorf("device %d: %w", d.SceneDeviceID, err)
		}
		if ids[d.SceneDeviceID] {
			return fmt.Errorf("%w: duplicate device id %d", model.ErrInvalidScene, d.SceneDeviceID)
		}
		ids[d.SceneDeviceID] = true
	}

	for _, c := range s.Cords {
		if c.Device1 == c.Device2 {
			return fmt.Errorf("%w: cord %d-%d: %v", model.ErrInvalidScene, c.Device1, c.Device2, model.ErrSelfLink)
		}
		for _, id := range []int{c.Device1, c.Device2} {
			if !ids[id] && !known(id) {
				return fmt.Errorf("%w: cord %d-%d references unknown device %d",
					model.ErrInvalidScene, c.Device1, c.Device2, id)
			}
		}
	}
	return nil
}

// UpdateFlowGraph replays the scene onto g: every device first, then every
// cord, in payload order. Saved device names are restored.
//
// Nothing happens while g is unanchored; call it again once an anchor is set.
// The whole payload is validated before g is touched, so a rejected scene
// leaves g unchanged.
func (s *Scene) UpdateFlowGraph(g *graph.FlowGraph) error {
	if !g.Anchored() {
		logging.Debug("skipping scene replay on unanchored graph", "sceneID", s.ID)
		return nil
	}

	known := func(id int) bool {
		_, ok := g.Device(id)
		return ok
	}
	if err := s.validate(known); err != nil {
		return fmt.Errorf("replay scene %d: %w", s.ID, err)
	}

	g.ID = s.ID
	g.Name = s.Name

	for _, d := range s.Devices {
		t, _ := model.ParseDeviceType(d.Type)
		if _, err := g.AddDevice(t, d.SceneDeviceID, d.Position()); err != nil {
			return fmt.Errorf("replay scene %d: %w", s.ID, err)
		}
		if d.Name != "" {
			if err := g.Rename(d.SceneDeviceID, d.Name); err != nil {
				return fmt.Errorf("replay scene %d: %w", s.ID, err)
			}
		}
	}

	for _, c := range s.Cords {
		if _, err := g.AddLink(c.Device1, c.Device2); err != nil {
			return fmt.Errorf("replay scene %d: %w", s.ID, err)
		}
	}

	logging.Debug("replayed scene", "sceneID", s.ID, "devices", len(s.Devices), "cords", len(s.Cords))
	return nil
}

// Load creates a fresh graph rooted at anchor and replays the scene onto it
func Load(s *Scene, anchor *graph.Anchor, opts ...graph.Option) (*graph.FlowGraph, error) {
	opts = append(opts, graph.WithAnchor(anchor))
	g := graph.New(opts...)
	if err := s.UpdateFlowGraph(g); err != nil {
		return nil, err
	}
	return g, nil
}

// MaxDeviceID returns the highest device id in the scene, or -1
func (s *Scene) MaxDeviceID() int {
	highest := -1
	for _, d := range s.Devices {
		if d.SceneDeviceID > highest {
			highest = d.SceneDeviceID
		}
	}
	return highest
}
