package graph

import (
	"fmt"
	"math"
	"sort"

	"github.com/ritzau/dataflows/pkg/model"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Path returns the device ids on a shortest hop path from one device to
// another, both ends included. It returns nil if the devices are not connected.
func (g *FlowGraph) Path(from, to int) ([]int, error) {
	if _, ok := g.devices[from]; !ok {
		return nil, fmt.Errorf("path from %d: %w", from, model.ErrNotFound)
	}
	if _, ok := g.devices[to]; !ok {
		return nil, fmt.Errorf("path to %d: %w", to, model.ErrNotFound)
	}

	shortest := path.DijkstraFrom(simple.Node(int64(from)), g.adj)
	nodes, weight := shortest.To(int64(to))
	if math.IsInf(weight, 1) || len(nodes) == 0 {
		return nil, nil
	}
	return nodeIDs(nodes), nil
}

// Components returns the connected groups of devices. Each group is sorted,
// and groups are ordered by their smallest id.
func (g *FlowGraph) Components() [][]int {
	var groups [][]int
	for _, cc := range topo.ConnectedComponents(g.adj) {
		ids := nodeIDs(cc)
		sort.Ints(ids)
		groups = append(groups, ids)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

// Loops returns a cycle basis of the topology. Every loop is a set of
// devices that stay connected if any single cord between them is cut;
// in a switched network these are the candidates for broadcast storms.
func (g *FlowGraph) Loops() [][]int {
	var loops [][]int
	for _, cycle := range topo.UndirectedCyclesIn(g.adj) {
		// cycles come back closed, with the first node repeated at the end
		if n := len(cycle); n > 1 && cycle[0].ID() == cycle[n-1].ID() {
			cycle = cycle[:n-1]
		}
		ids := nodeIDs(cycle)
		sort.Ints(ids)
		loops = append(loops, ids)
	}
	sort.Slice(loops, func(i, j int) bool {
		a, b := loops[i], loops[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
	return loops
}

// Degree returns the number of cords attached to a device
func (g *FlowGraph) Degree(id int) int {
	if g.adj.Node(int64(id)) == nil {
		return 0
	}
	return g.adj.From(int64(id)).Len()
}

func nodeIDs(nodes []gonum.Node) []int {
	ids := make([]int, len(nodes))
	for i, n := range nodes {
		ids[i] = int(n.ID())
	}
	return ids
}

// Route is the answer to a path query between two devices
type Route struct {
	From      int   `json:"from"`
	To        int   `json:"to"`
	Reachable bool  `json:"reachable"`
	Devices   []int `json:"devices"`
}

// Hops returns the number of cords on the route, or -1 if unreachable
func (r Route) Hops() int {
	if !r.Reachable {
		return -1
	}
	return len(r.Devices) - 1
}

// Route wraps Path for callers that report the result
func (g *FlowGraph) Route(from, to int) (Route, error) {
	devices, err := g.Path(from, to)
	if err != nil {
		return Route{}, err
	}
	r := Route{From: from, To: to, Reachable: devices != nil, Devices: devices}
	if r.Devices == nil {
		r.Devices = []int{}
	}
	return r, nil
}

// Summary describes the shape of a topology
type Summary struct {
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	Devices    int            `json:"devices"`
	Cords      int            `json:"cords"`
	Types      map[string]int `json:"types"`
	Components [][]int        `json:"components"`
	Loops      [][]int        `json:"loops"`
}

// Summarize counts devices per type and collects components and loops
func (g *FlowGraph) Summarize() Summary {
	devices, cords := g.Len()
	s := Summary{
		ID:         g.ID,
		Name:       g.Name,
		Devices:    devices,
		Cords:      cords,
		Types:      make(map[string]int),
		Components: g.Components(),
		Loops:      g.Loops(),
	}
	for _, d := range g.devices {
		s.Types[d.Type.String()]++
	}
	if s.Components == nil {
		s.Components = [][]int{}
	}
	if s.Loops == nil {
		s.Loops = [][]int{}
	}
	return s
}
