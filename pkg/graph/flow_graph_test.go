package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ritzau/dataflows/pkg/model"
)

func newAnchoredGraph(t *testing.T) (*FlowGraph, *SceneFactory) {
	t.Helper()
	f := NewSceneFactory()
	g := New(WithFactory(f), WithAnchor(NewAnchor(model.Position{})))
	return g, f
}

func mustAddDevice(t *testing.T, g *FlowGraph, typ model.DeviceType, id int, pos model.Position) *DevicePawn {
	t.Helper()
	d, err := g.AddDevice(typ, id, pos)
	if err != nil {
		t.Fatalf("AddDevice(%s, %d) error = %v", typ, id, err)
	}
	return d
}

func mustAddLink(t *testing.T, g *FlowGraph, a, b int) *CordPawn {
	t.Helper()
	c, err := g.AddLink(a, b)
	if err != nil {
		t.Fatalf("AddLink(%d, %d) error = %v", a, b, err)
	}
	return c
}

func checkInvariants(t *testing.T, g *FlowGraph) {
	t.Helper()
	if err := g.CheckInvariants(); err != nil {
		t.Fatalf("invariants broken: %v", err)
	}
}

func TestNewFlowGraph(t *testing.T) {
	g := New()
	if g == nil {
		t.Fatal("New() returned nil")
	}
	if g.Anchored() {
		t.Error("New graph should not be anchored")
	}
	if d, c := g.Len(); d != 0 || c != 0 {
		t.Errorf("New graph should be empty, got %d devices and %d cords", d, c)
	}
	checkInvariants(t, g)
}

func TestAddDeviceRequiresAnchor(t *testing.T) {
	var messages []string
	g := New(WithNotifier(NotifierFunc(func(msg string) {
		messages = append(messages, msg)
	})))

	d, err := g.AddDevice(model.DevicePC, 0, model.Position{})
	if !errors.Is(err, model.ErrPrecondition) {
		t.Fatalf("Expected ErrPrecondition, got %v", err)
	}
	if d != nil {
		t.Error("No pawn should be returned for an unanchored graph")
	}
	if len(messages) != 1 {
		t.Errorf("Expected one notification, got %v", messages)
	}

	if _, err := g.AddLink(0, 1); !errors.Is(err, model.ErrPrecondition) {
		t.Errorf("AddLink on unanchored graph: expected ErrPrecondition, got %v", err)
	}

	g.SetAnchor(NewAnchor(model.Position{}))
	if _, err := g.AddDevice(model.DevicePC, 0, model.Position{}); err != nil {
		t.Errorf("AddDevice after anchoring failed: %v", err)
	}
}

func TestAddDevice(t *testing.T) {
	g, f := newAnchoredGraph(t)

	pos := model.Position{X: 1, Y: 2, Z: 3}
	d := mustAddDevice(t, g, model.DeviceRouter, 4, pos)

	if d.ID != 4 || d.Type != model.DeviceRouter || d.Position != pos {
		t.Errorf("Unexpected device %+v", d)
	}
	if d.Name != "Router0" {
		t.Errorf("Expected name Router0, got %s", d.Name)
	}
	if got, ok := g.Device(4); !ok || got != d {
		t.Error("Device(4) should return the added pawn")
	}
	if n := g.Neighbors(4); len(n) != 0 {
		t.Errorf("New device should have no neighbours, got %v", n)
	}
	if f.Live() != 1 {
		t.Errorf("Expected 1 live pawn, got %d", f.Live())
	}
	checkInvariants(t, g)
}

func TestAddDeviceNamesPerType(t *testing.T) {
	g, _ := newAnchoredGraph(t)

	names := []string{
		mustAddDevice(t, g, model.DevicePC, 0, model.Position{}).Name,
		mustAddDevice(t, g, model.DevicePC, 1, model.Position{}).Name,
		mustAddDevice(t, g, model.DeviceSwitch, 2, model.Position{}).Name,
		mustAddDevice(t, g, model.DeviceServer, 3, model.Position{}).Name,
	}
	want := []string{"PC0", "PC1", "Switch0", "Server0"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Names = %v, want %v", names, want)
	}
}

func TestAddDeviceRejectsUnrecognizedType(t *testing.T) {
	g, f := newAnchoredGraph(t)

	for _, typ := range []model.DeviceType{model.DeviceLink, "PRINTER", ""} {
		if _, err := g.AddDevice(typ, 0, model.Position{}); !errors.Is(err, model.ErrUnrecognizedType) {
			t.Errorf("AddDevice(%q) error = %v, want ErrUnrecognizedType", typ, err)
		}
	}
	if d, _ := g.Len(); d != 0 {
		t.Errorf("Rejected devices must not be stored, got %d", d)
	}
	if f.Live() != 0 {
		t.Errorf("Rejected devices must not be instantiated, got %d live", f.Live())
	}
}

func TestAddDeviceDuplicateIDReplaces(t *testing.T) {
	g, f := newAnchoredGraph(t)

	mustAddDevice(t, g, model.DevicePC, 0, model.Position{})
	mustAddDevice(t, g, model.DevicePC, 1, model.Position{})
	mustAddLink(t, g, 0, 1)

	replacement := mustAddDevice(t, g, model.DeviceServer, 0, model.Position{X: 5})

	if got, _ := g.Device(0); got != replacement {
		t.Error("Duplicate id should replace the stored device")
	}
	if g.HasLink(0, 1) {
		t.Error("Cords of the replaced device should be dropped")
	}
	if n := g.Neighbors(1); len(n) != 0 {
		t.Errorf("Neighbour of replaced device should have no neighbours, got %v", n)
	}
	if f.Live() != 2 {
		t.Errorf("Expected 2 live pawns after replacement, got %d", f.Live())
	}
	checkInvariants(t, g)
}

func TestAddLinkSymmetry(t *testing.T) {
	for _, order := range [][2]int{{3, 8}, {8, 3}} {
		g, _ := newAnchoredGraph(t)
		mustAddDevice(t, g, model.DevicePC, 3, model.Position{})
		mustAddDevice(t, g, model.DeviceRouter, 8, model.Position{X: 1})

		mustAddLink(t, g, order[0], order[1])

		if !reflect.DeepEqual(g.Neighbors(3), []int{8}) {
			t.Errorf("AddLink%v: neighbours of 3 = %v", order, g.Neighbors(3))
		}
		if !reflect.DeepEqual(g.Neighbors(8), []int{3}) {
			t.Errorf("AddLink%v: neighbours of 8 = %v", order, g.Neighbors(8))
		}
		if !reflect.DeepEqual(g.Cords(), []model.Pair{{Lo: 3, Hi: 8}}) {
			t.Errorf("AddLink%v: cords = %v", order, g.Cords())
		}
		checkInvariants(t, g)
	}
}

func TestAddLinkIdempotent(t *testing.T) {
	g, f := newAnchoredGraph(t)
	mustAddDevice(t, g, model.DevicePC, 0, model.Position{})
	mustAddDevice(t, g, model.DeviceRouter, 1, model.Position{X: 1})

	first := mustAddLink(t, g, 0, 1)
	second := mustAddLink(t, g, 0, 1)
	reversed := mustAddLink(t, g, 1, 0)

	if first != second || first != reversed {
		t.Error("Repeated AddLink should return the same cord")
	}
	if _, c := g.Len(); c != 1 {
		t.Errorf("Expected exactly 1 cord, got %d", c)
	}
	if !reflect.DeepEqual(g.Neighbors(0), []int{1}) {
		t.Errorf("Adjacency should not hold duplicates, got %v", g.Neighbors(0))
	}
	if f.Live() != 3 {
		t.Errorf("Expected 3 live pawns (2 devices, 1 cord), got %d", f.Live())
	}
	checkInvariants(t, g)
}

func TestAddLinkGeometry(t *testing.T) {
	g, _ := newAnchoredGraph(t)
	mustAddDevice(t, g, model.DevicePC, 0, model.Position{X: 0, Y: 0, Z: 0})
	mustAddDevice(t, g, model.DeviceRouter, 1, model.Position{X: 0, Y: 0, Z: 4})

	c := mustAddLink(t, g, 1, 0)

	if c.Length != 4 {
		t.Errorf("Length = %g, want 4", c.Length)
	}
	if c.Midpoint != (model.Position{Z: 2}) {
		t.Errorf("Midpoint = %v, want (0, 0, 2)", c.Midpoint)
	}
	if c.Direction != (model.Position{Z: 1}) {
		t.Errorf("Direction = %v, want (0, 0, 1)", c.Direction)
	}
	if c.Endpoints[0].ID != 0 || c.Endpoints[1].ID != 1 {
		t.Errorf("Endpoints should be ordered lo, hi; got %d, %d", c.Endpoints[0].ID, c.Endpoints[1].ID)
	}
}

func TestAddLinkErrors(t *testing.T) {
	g, _ := newAnchoredGraph(t)
	mustAddDevice(t, g, model.DevicePC, 0, model.Position{})

	if _, err := g.AddLink(0, 0); !errors.Is(err, model.ErrSelfLink) {
		t.Errorf("Self link: expected ErrSelfLink, got %v", err)
	}
	if _, err := g.AddLink(0, 9); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Missing endpoint: expected ErrNotFound, got %v", err)
	}
	if _, err := g.AddLink(9, 0); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Missing endpoint (reversed): expected ErrNotFound, got %v", err)
	}
	if n := g.Neighbors(0); len(n) != 0 {
		t.Errorf("Failed links must not touch adjacency, got %v", n)
	}
	checkInvariants(t, g)
}

func TestDeleteDeviceCascades(t *testing.T) {
	g, f := newAnchoredGraph(t)
	for id := 0; id < 4; id++ {
		mustAddDevice(t, g, model.DevicePC, id, model.Position{X: float64(id)})
	}
	mustAddLink(t, g, 0, 1)
	mustAddLink(t, g, 0, 2)
	mustAddLink(t, g, 1, 2)
	mustAddLink(t, g, 2, 3)

	if err := g.DeleteDevice(0); err != nil {
		t.Fatalf("DeleteDevice(0) error = %v", err)
	}

	if _, ok := g.Device(0); ok {
		t.Error("Device 0 should be gone")
	}
	if g.HasLink(0, 1) || g.HasLink(0, 2) {
		t.Error("Cords of device 0 should be gone")
	}
	if !reflect.DeepEqual(g.Neighbors(1), []int{2}) {
		t.Errorf("Neighbours of 1 = %v, want [2]", g.Neighbors(1))
	}
	if !reflect.DeepEqual(g.Neighbors(2), []int{1, 3}) {
		t.Errorf("Neighbours of 2 = %v, want [1 3]", g.Neighbors(2))
	}
	// the device pawn stays alive until DeleteObject, the two cords are destroyed
	if f.Live() != 4+2 {
		t.Errorf("Expected 6 live pawns, got %d", f.Live())
	}
	checkInvariants(t, g)
}

func TestDeleteDeviceNotFound(t *testing.T) {
	g, _ := newAnchoredGraph(t)
	mustAddDevice(t, g, model.DevicePC, 0, model.Position{})
	mustAddDevice(t, g, model.DevicePC, 1, model.Position{})
	mustAddLink(t, g, 0, 1)

	if err := g.DeleteDevice(42); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	if !g.HasLink(0, 1) || !reflect.DeepEqual(g.Neighbors(0), []int{1}) {
		t.Error("Deleting a missing id must not touch other entries")
	}
	checkInvariants(t, g)
}

func TestConcreteScenario(t *testing.T) {
	g, _ := newAnchoredGraph(t)
	mustAddDevice(t, g, model.DevicePC, 0, model.Position{X: 0, Y: 0, Z: 0})
	mustAddDevice(t, g, model.DeviceRouter, 1, model.Position{X: 1, Y: 0, Z: 0})
	mustAddLink(t, g, 0, 1)

	if !reflect.DeepEqual(g.Cords(), []model.Pair{{Lo: 0, Hi: 1}}) {
		t.Fatalf("Cords = %v, want [(0,1)]", g.Cords())
	}

	if err := g.DeleteDevice(0); err != nil {
		t.Fatalf("DeleteDevice(0) error = %v", err)
	}
	if len(g.Cords()) != 0 {
		t.Errorf("Cord store should be empty, got %v", g.Cords())
	}
	if n := g.Neighbors(1); len(n) != 0 {
		t.Errorf("Neighbours of 1 should be empty, got %v", n)
	}
	checkInvariants(t, g)
}

func TestDeleteObjectDevice(t *testing.T) {
	g, f := newAnchoredGraph(t)
	d0 := mustAddDevice(t, g, model.DevicePC, 0, model.Position{})
	mustAddDevice(t, g, model.DevicePC, 1, model.Position{})
	mustAddLink(t, g, 0, 1)

	if !g.DeleteObject(d0) {
		t.Fatal("DeleteObject(device) should report a removal")
	}
	if f.Alive(d0) {
		t.Error("Deleted device pawn should be destroyed")
	}
	if d, c := g.Len(); d != 1 || c != 0 {
		t.Errorf("Expected 1 device and 0 cords, got %d and %d", d, c)
	}
	checkInvariants(t, g)
}

func TestDeleteObjectCordAsymmetricIDs(t *testing.T) {
	// Regression: the cord key must be (min(id1,id2), max(id1,id2)), not
	// computed from a single endpoint.
	g, f := newAnchoredGraph(t)
	mustAddDevice(t, g, model.DevicePC, 2, model.Position{})
	mustAddDevice(t, g, model.DevicePC, 7, model.Position{})
	mustAddDevice(t, g, model.DevicePC, 5, model.Position{})
	cord := mustAddLink(t, g, 7, 2)
	mustAddLink(t, g, 5, 7)

	// swap endpoints so the first endpoint holds the larger id
	cord.Endpoints[0], cord.Endpoints[1] = cord.Endpoints[1], cord.Endpoints[0]

	if !g.DeleteObject(cord) {
		t.Fatal("DeleteObject(cord) should report a removal")
	}
	if g.HasLink(2, 7) {
		t.Error("Cord (2,7) should be gone")
	}
	if !g.HasLink(5, 7) {
		t.Error("Unrelated cord (5,7) must survive")
	}
	if len(g.Neighbors(2)) != 0 {
		t.Errorf("Neighbours of 2 should be empty, got %v", g.Neighbors(2))
	}
	if !reflect.DeepEqual(g.Neighbors(7), []int{5}) {
		t.Errorf("Neighbours of 7 = %v, want [5]", g.Neighbors(7))
	}
	if f.Alive(cord) {
		t.Error("Deleted cord should be destroyed")
	}
	checkInvariants(t, g)
}

func TestDeleteObjectIgnoresUnknownPawns(t *testing.T) {
	g, _ := newAnchoredGraph(t)
	mustAddDevice(t, g, model.DevicePC, 0, model.Position{})
	mustAddDevice(t, g, model.DevicePC, 1, model.Position{})
	mustAddLink(t, g, 0, 1)

	other, _ := newAnchoredGraph(t)
	foreignDevice := mustAddDevice(t, other, model.DevicePC, 0, model.Position{})
	mustAddDevice(t, other, model.DevicePC, 1, model.Position{})
	foreignCord := mustAddLink(t, other, 0, 1)

	var nilDevice *DevicePawn
	for _, p := range []Pawn{nil, nilDevice, foreignDevice, foreignCord} {
		if g.DeleteObject(p) {
			t.Errorf("DeleteObject(%T) should be a no-op", p)
		}
	}
	if d, c := g.Len(); d != 2 || c != 1 {
		t.Errorf("Graph changed: %d devices, %d cords", d, c)
	}
	checkInvariants(t, g)
}

func TestGetDeviceID(t *testing.T) {
	g, _ := newAnchoredGraph(t)
	d := mustAddDevice(t, g, model.DeviceSwitch, 11, model.Position{})
	mustAddDevice(t, g, model.DevicePC, 12, model.Position{})
	c := mustAddLink(t, g, 11, 12)

	if id, ok := g.GetDeviceID(d); !ok || id != 11 {
		t.Errorf("GetDeviceID(device) = %d, %v; want 11, true", id, ok)
	}
	if _, ok := g.GetDeviceID(c); ok {
		t.Error("GetDeviceID(cord) should report false")
	}
	if _, ok := g.GetDeviceID(nil); ok {
		t.Error("GetDeviceID(nil) should report false")
	}
	if _, ok := g.GetDeviceID(&DevicePawn{ID: 11}); ok {
		t.Error("GetDeviceID(foreign) should report false")
	}
}

func TestRename(t *testing.T) {
	g, _ := newAnchoredGraph(t)
	mustAddDevice(t, g, model.DevicePC, 0, model.Position{})

	if err := g.Rename(0, "reception"); err != nil {
		t.Fatalf("Rename error = %v", err)
	}
	if d, _ := g.Device(0); d.Name != "reception" {
		t.Errorf("Name = %s, want reception", d.Name)
	}
	if err := g.Rename(1, "x"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Rename missing: expected ErrNotFound, got %v", err)
	}
}

func TestMaxID(t *testing.T) {
	g, _ := newAnchoredGraph(t)
	if g.MaxID() != -1 {
		t.Errorf("Empty graph MaxID = %d, want -1", g.MaxID())
	}
	mustAddDevice(t, g, model.DevicePC, 3, model.Position{})
	mustAddDevice(t, g, model.DevicePC, 10, model.Position{})
	mustAddDevice(t, g, model.DevicePC, 6, model.Position{})
	if g.MaxID() != 10 {
		t.Errorf("MaxID = %d, want 10", g.MaxID())
	}
}
