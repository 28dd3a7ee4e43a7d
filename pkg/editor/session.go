// Package editor is the editing session that drives a FlowGraph from user
// input: taps on planes and pawns, a placement mode, selection, and saving
// to or loading from a scene store.
//
// A Session is not safe for concurrent use; it is the single actor that
// mutates its graph.
package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/ritzau/dataflows/pkg/graph"
	"github.com/ritzau/dataflows/pkg/logging"
	"github.com/ritzau/dataflows/pkg/model"
	"github.com/ritzau/dataflows/pkg/scene"
	"github.com/ritzau/dataflows/pkg/store"
)

// Session edits one scene at a time
type Session struct {
	graph    *graph.FlowGraph
	opts     []graph.Option
	store    store.SceneStore
	notifier graph.Notifier

	mode      model.DeviceType
	nextID    int
	selection Selection

	// pending is a loaded scene waiting for an anchor
	pending *scene.Scene
}

// NewSession starts an empty, unanchored session. Extra graph options
// (a custom factory, say) apply to every graph the session creates.
func NewSession(st store.SceneStore, n graph.Notifier, opts ...graph.Option) *Session {
	s := &Session{
		store:    st,
		notifier: n,
		mode:     model.DevicePC,
		opts:     append([]graph.Option{graph.WithNotifier(n)}, opts...),
	}
	s.graph = graph.New(s.opts...)
	return s
}

// Graph returns the graph being edited
func (s *Session) Graph() *graph.FlowGraph {
	return s.graph
}

// Mode returns what the next tap on a plane places
func (s *Session) Mode() model.DeviceType {
	return s.mode
}

// SetMode changes the placement mode. LINK makes taps on devices link them.
func (s *Session) SetMode(m model.DeviceType) error {
	if !m.Placeable() && m != model.DeviceLink {
		return fmt.Errorf("mode %q: %w", string(m), model.ErrUnrecognizedType)
	}
	s.mode = m
	logging.Debug("mode changed", "mode", m.String())
	return nil
}

// Selection returns the current selection
func (s *Session) Selection() Selection {
	return s.selection
}

// NextID returns the id the next placed device gets
func (s *Session) NextID() int {
	return s.nextID
}

// TapPlane handles a tap on a detected plane at pose. The first tap
// anchors the scene there and replays any pending scene. Later taps place
// a device of the current mode and select it.
func (s *Session) TapPlane(pose model.Position) (*graph.DevicePawn, error) {
	if !s.graph.Anchored() {
		s.graph.SetAnchor(graph.NewAnchor(pose))
		s.notifier.Notify("Scene anchored")
		return nil, s.replayPending()
	}

	if s.mode == model.DeviceLink {
		s.notifier.Notify("Tap two devices to link them")
		return nil, nil
	}

	d, err := s.graph.AddDevice(s.mode, s.nextID, pose)
	if err != nil {
		s.notifier.Notify(fmt.Sprintf("Could not place %s", s.mode.Label()))
		return nil, err
	}
	s.nextID++
	s.selection.Select(d)
	return d, nil
}

// TapPawn handles a tap on something already placed. Picking the same
// pawn twice reports it. In LINK mode, picking a second device links it to
// the previously picked one.
func (s *Session) TapPawn(p graph.Pawn) (*graph.CordPawn, error) {
	if s.selection.Select(p) {
		s.notifier.Notify(describe(p))
		return nil, nil
	}
	if s.mode != model.DeviceLink {
		return nil, nil
	}

	prev, cur, ok := s.selection.devices()
	if !ok {
		return nil, nil
	}
	// pawns picked before a Load belong to a graph that is gone
	id1, ok1 := s.graph.GetDeviceID(prev)
	id2, ok2 := s.graph.GetDeviceID(cur)
	if !ok1 || !ok2 {
		s.notifier.Notify("That device is no longer in the scene")
		return nil, fmt.Errorf("link %s and %s: %w", prev.Name, cur.Name, model.ErrNotFound)
	}
	cord, err := s.graph.AddLink(id1, id2)
	if err != nil {
		s.notifier.Notify(fmt.Sprintf("Cannot link %s and %s", prev.Name, cur.Name))
		return nil, err
	}
	s.notifier.Notify(fmt.Sprintf("Linked %s and %s", prev.Name, cur.Name))
	return cord, nil
}

// describe is the message shown when a pawn is picked twice
func describe(p graph.Pawn) string {
	switch v := p.(type) {
	case *graph.DevicePawn:
		return fmt.Sprintf("Picked the %s %s (id %d)!", v.Type.Label(), v.Name, v.ID)
	case *graph.CordPawn:
		return fmt.Sprintf("Picked the cord %s-%s!", v.Endpoints[0].Name, v.Endpoints[1].Name)
	}
	return "Picked something!"
}

// Unfocus clears the focus
func (s *Session) Unfocus() {
	s.selection.Unfocus()
}

// DeleteSelected removes the focused pawn. It returns false if nothing was
// focused or the pawn was already gone.
func (s *Session) DeleteSelected() bool {
	p := s.selection.Focused
	if p == nil {
		return false
	}

	// cords die with their device; keep the selection from pointing at them
	var attached []graph.Pawn
	if d, ok := p.(*graph.DevicePawn); ok {
		for _, n := range s.graph.Neighbors(d.ID) {
			if c, ok := s.graph.Cord(d.ID, n); ok {
				attached = append(attached, c)
			}
		}
	}

	if !s.graph.DeleteObject(p) {
		return false
	}
	s.selection.forget(p)
	for _, c := range attached {
		s.selection.forget(c)
	}
	return true
}

// Rename changes the name of the focused device
func (s *Session) Rename(name string) error {
	d, ok := s.selection.Focused.(*graph.DevicePawn)
	if !ok || d == nil {
		return fmt.Errorf("rename: no device selected: %w", model.ErrPrecondition)
	}
	return s.graph.Rename(d.ID, name)
}

// SetName names the scene
func (s *Session) SetName(name string) {
	s.graph.Name = name
}

// Save stores the scene. A scene without an id is created and gets the id
// the store assigns; otherwise the stored scene is replaced. A loaded scene
// cannot be saved until it has been placed.
func (s *Session) Save(ctx context.Context) error {
	if s.pending != nil {
		s.notifier.Notify("Tap on a plane to place the scene before saving")
		return fmt.Errorf("save scene %d: not placed yet: %w", s.pending.ID, model.ErrPrecondition)
	}

	sc := scene.Serialize(s.graph)
	isNew := sc.ID == scene.NoID

	id, err := s.store.Save(ctx, sc, isNew)
	if err != nil {
		s.notifier.Notify("Failed to save the scene")
		logging.WarnContext(ctx, "save failed", "sceneID", sc.ID, "error", err)
		return saveError(err)
	}

	s.graph.ID = id
	s.notifier.Notify(fmt.Sprintf("Saved scene %d", id))
	logging.InfoContext(ctx, "saved scene", "sceneID", id, "new", isNew, "devices", len(sc.Devices), "cords", len(sc.Cords))
	return nil
}

// saveError keeps domain errors intact and reports everything else as a
// network failure
func saveError(err error) error {
	if errors.Is(err, model.ErrSceneNotFound) || errors.Is(err, model.ErrInvalidScene) || errors.Is(err, model.ErrNetwork) {
		return fmt.Errorf("save scene: %w", err)
	}
	return fmt.Errorf("save scene: %w: %v", model.ErrNetwork, err)
}

// Load fetches a scene and makes it the one being edited. If the session
// is anchored the scene is replayed immediately, otherwise on the first
// tap on a plane.
func (s *Session) Load(ctx context.Context, id int) error {
	sc, err := s.store.Fetch(ctx, id)
	if err != nil {
		s.notifier.Notify(fmt.Sprintf("Failed to load scene %d", id))
		return fmt.Errorf("load scene %d: %w", id, err)
	}
	if err := sc.Validate(); err != nil {
		s.notifier.Notify(fmt.Sprintf("Scene %d is invalid", id))
		return fmt.Errorf("load scene %d: %w", id, err)
	}

	opts := s.opts
	if a := s.graph.Anchor(); a != nil {
		opts = append(append([]graph.Option{}, opts...), graph.WithAnchor(a))
	}
	s.graph = graph.New(opts...)
	s.selection.Clear()
	s.pending = sc
	s.nextID = sc.MaxDeviceID() + 1

	if !s.graph.Anchored() {
		s.notifier.Notify("Tap on a plane to place the scene")
		return nil
	}
	return s.replayPending()
}

func (s *Session) replayPending() error {
	if s.pending == nil {
		return nil
	}
	sc := s.pending
	if err := sc.UpdateFlowGraph(s.graph); err != nil {
		s.notifier.Notify("Failed to restore the scene")
		return err
	}
	s.pending = nil
	devices, cords := s.graph.Len()
	logging.Debug("restored scene", "sceneID", sc.ID, "devices", devices, "cords", cords)
	return nil
}
