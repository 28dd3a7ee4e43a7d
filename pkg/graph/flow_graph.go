package graph

import (
	"fmt"
	"sort"

	"github.com/ritzau/dataflows/pkg/logging"
	"github.com/ritzau/dataflows/pkg/model"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// FlowGraph is a network topology: devices keyed by caller supplied ids and
// undirected cords between them.
//
// The device registry, the adjacency index and the cord store are only ever
// mutated through the methods below, which keep them consistent:
//   - a device is in the registry iff its id is a node of the adjacency index
//   - a cord (a,b) is stored iff a and b are adjacent
//
// A FlowGraph is not safe for concurrent use.
type FlowGraph struct {
	// ID is the scene id assigned by a store, 0 while unsaved
	ID int
	// Name is the scene name
	Name string

	anchor   *Anchor
	factory  Factory
	notifier Notifier

	devices map[int]*DevicePawn
	cords   map[model.Pair]*CordPawn
	adj     *simple.UndirectedGraph
}

// Option configures a FlowGraph
type Option func(*FlowGraph)

// WithFactory sets the pawn factory (defaults to a new SceneFactory)
func WithFactory(f Factory) Option {
	return func(g *FlowGraph) { g.factory = f }
}

// WithNotifier sets where user-facing messages go (defaults to nowhere)
func WithNotifier(n Notifier) Option {
	return func(g *FlowGraph) { g.notifier = n }
}

// WithAnchor roots the graph at creation time
func WithAnchor(a *Anchor) Option {
	return func(g *FlowGraph) { g.anchor = a }
}

// New creates an empty, unanchored graph
func New(opts ...Option) *FlowGraph {
	g := &FlowGraph{
		factory:  NewSceneFactory(),
		notifier: nopNotifier{},
		devices:  make(map[int]*DevicePawn),
		cords:    make(map[model.Pair]*CordPawn),
		adj:      simple.NewUndirectedGraph(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetAnchor roots the graph. Devices and cords can only be added once anchored.
func (g *FlowGraph) SetAnchor(a *Anchor) {
	g.anchor = a
}

// Anchor returns the anchor, or nil
func (g *FlowGraph) Anchor() *Anchor {
	return g.anchor
}

// Anchored returns true once an anchor is set
func (g *FlowGraph) Anchored() bool {
	return g.anchor != nil
}

// Factory returns the pawn factory in use
func (g *FlowGraph) Factory() Factory {
	return g.factory
}

// AddDevice places a device with the given id.
// Re-using an id replaces the previous device and drops its cords.
func (g *FlowGraph) AddDevice(t model.DeviceType, id int, pos model.Position) (*DevicePawn, error) {
	if g.anchor == nil {
		g.notifier.Notify("Tap on a plane to anchor the scene first")
		return nil, fmt.Errorf("add device %d: %w", id, model.ErrPrecondition)
	}
	if !t.Placeable() {
		return nil, fmt.Errorf("add device %d: %w: %q", id, model.ErrUnrecognizedType, string(t))
	}

	d, err := g.factory.NewDevice(t, id, pos)
	if err != nil {
		return nil, fmt.Errorf("add device %d: %w", id, err)
	}

	if old, exists := g.devices[id]; exists {
		logging.Warn("replacing device with duplicate id", "id", id, "old", old.Name)
		g.removeDevice(id)
		g.factory.Destroy(old)
	}

	g.devices[id] = d
	g.adj.AddNode(simple.Node(int64(id)))

	logging.Debug("created device", "id", id, "type", string(t), "name", d.Name)
	return d, nil
}

// AddLink joins two devices and returns the cord.
// The pair is unordered: AddLink(a, b) and AddLink(b, a) share one cord, and
// asking for an existing cord returns it unchanged.
func (g *FlowGraph) AddLink(id1, id2 int) (*CordPawn, error) {
	if g.anchor == nil {
		return nil, fmt.Errorf("add link %d-%d: %w", id1, id2, model.ErrPrecondition)
	}
	if id1 == id2 {
		return nil, fmt.Errorf("add link %d-%d: %w", id1, id2, model.ErrSelfLink)
	}

	key := model.NewPair(id1, id2)
	if cord, exists := g.cords[key]; exists {
		return cord, nil
	}

	first, ok := g.devices[key.Lo]
	if !ok {
		return nil, fmt.Errorf("add link %v: device %d: %w", key, key.Lo, model.ErrNotFound)
	}
	second, ok := g.devices[key.Hi]
	if !ok {
		return nil, fmt.Errorf("add link %v: device %d: %w", key, key.Hi, model.ErrNotFound)
	}

	cord := g.factory.NewCord(first, second)
	g.adj.SetEdge(simple.Edge{F: simple.Node(int64(key.Lo)), T: simple.Node(int64(key.Hi))})
	g.cords[key] = cord

	logging.Debug("created link", "pair", key.String())
	return cord, nil
}

// DeleteDevice removes a device and every cord attached to it.
// The device pawn itself is left to the caller (see DeleteObject).
func (g *FlowGraph) DeleteDevice(id int) error {
	if _, exists := g.devices[id]; !exists {
		return fmt.Errorf("delete device %d: %w", id, model.ErrNotFound)
	}
	g.removeDevice(id)
	logging.Debug("deleted device", "id", id)
	return nil
}

// removeDevice drops id from all three stores. id must exist.
func (g *FlowGraph) removeDevice(id int) {
	for _, n := range g.Neighbors(id) {
		key := model.NewPair(id, n)
		if cord, ok := g.cords[key]; ok {
			delete(g.cords, key)
			g.factory.Destroy(cord)
		}
	}
	// RemoveNode also drops the incident edges
	g.adj.RemoveNode(int64(id))
	delete(g.devices, id)
}

// DeleteObject removes whatever the pawn refers to: a device (with its
// cords) or a single cord. Pawns this graph does not know are ignored.
// It returns true if something was removed.
func (g *FlowGraph) DeleteObject(p Pawn) bool {
	if id, ok := g.GetDeviceID(p); ok {
		if err := g.DeleteDevice(id); err != nil {
			return false
		}
		g.factory.Destroy(p)
		return true
	}

	cord, ok := p.(*CordPawn)
	if !ok || cord == nil {
		return false
	}

	id1, ok1 := g.GetDeviceID(cord.Endpoints[0])
	id2, ok2 := g.GetDeviceID(cord.Endpoints[1])
	if !ok1 || !ok2 {
		return false
	}

	key := model.NewPair(id1, id2)
	if g.cords[key] != cord {
		return false
	}

	g.adj.RemoveEdge(int64(key.Lo), int64(key.Hi))
	delete(g.cords, key)
	g.factory.Destroy(cord)

	logging.Debug("deleted link", "pair", key.String())
	return true
}

// GetDeviceID returns the id of a device pawn owned by this graph.
// It reports false for nil, cords, and pawns of other graphs.
func (g *FlowGraph) GetDeviceID(p Pawn) (int, bool) {
	d, ok := p.(*DevicePawn)
	if !ok || d == nil {
		return 0, false
	}
	if g.devices[d.ID] != d {
		return 0, false
	}
	return d.ID, true
}

// Rename changes the display name of a device
func (g *FlowGraph) Rename(id int, name string) error {
	d, ok := g.devices[id]
	if !ok {
		return fmt.Errorf("rename device %d: %w", id, model.ErrNotFound)
	}
	d.Name = name
	return nil
}

// Device returns a device by id
func (g *FlowGraph) Device(id int) (*DevicePawn, bool) {
	d, ok := g.devices[id]
	return d, ok
}

// Cord returns the cord between two devices, in either order
func (g *FlowGraph) Cord(id1, id2 int) (*CordPawn, bool) {
	c, ok := g.cords[model.NewPair(id1, id2)]
	return c, ok
}

// HasLink reports whether two devices are joined
func (g *FlowGraph) HasLink(id1, id2 int) bool {
	_, ok := g.cords[model.NewPair(id1, id2)]
	return ok
}

// Devices returns all devices sorted by id
func (g *FlowGraph) Devices() []*DevicePawn {
	devices := make([]*DevicePawn, 0, len(g.devices))
	for _, d := range g.devices {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices
}

// Cords returns the canonical pairs of all cords, sorted
func (g *FlowGraph) Cords() []model.Pair {
	pairs := make([]model.Pair, 0, len(g.cords))
	for key := range g.cords {
		pairs = append(pairs, key)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Less(pairs[j]) })
	return pairs
}

// Neighbors returns the ids joined to id, sorted. Unknown ids have none.
func (g *FlowGraph) Neighbors(id int) []int {
	if g.adj.Node(int64(id)) == nil {
		return nil
	}
	nodes := gonum.NodesOf(g.adj.From(int64(id)))
	ids := make([]int, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, int(n.ID()))
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of devices and cords
func (g *FlowGraph) Len() (devices, cords int) {
	return len(g.devices), len(g.cords)
}

// MaxID returns the highest device id, or -1 for an empty graph
func (g *FlowGraph) MaxID() int {
	highest := -1
	for id := range g.devices {
		if id > highest {
			highest = id
		}
	}
	return highest
}

// CheckInvariants verifies that the registry, the adjacency index and the
// cord store agree with each other
func (g *FlowGraph) CheckInvariants() error {
	if n := g.adj.Nodes().Len(); n != len(g.devices) {
		return fmt.Errorf("adjacency has %d nodes, registry has %d devices", n, len(g.devices))
	}
	for id, d := range g.devices {
		if d.ID != id {
			return fmt.Errorf("device keyed %d carries id %d", id, d.ID)
		}
		if g.adj.Node(int64(id)) == nil {
			return fmt.Errorf("device %d missing from adjacency", id)
		}
	}

	if n := g.adj.Edges().Len(); n != len(g.cords) {
		return fmt.Errorf("adjacency has %d edges, cord store has %d cords", n, len(g.cords))
	}
	for key, cord := range g.cords {
		if key.Lo >= key.Hi {
			return fmt.Errorf("cord key %v is not canonical", key)
		}
		if !g.adj.HasEdgeBetween(int64(key.Lo), int64(key.Hi)) {
			return fmt.Errorf("cord %v missing from adjacency", key)
		}
		if cord.Pair() != key {
			return fmt.Errorf("cord keyed %v joins %v", key, cord.Pair())
		}
	}
	return nil
}
