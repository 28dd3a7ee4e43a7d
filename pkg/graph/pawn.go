package graph

import (
	"github.com/ritzau/dataflows/pkg/model"
)

// Pawn is the opaque handle the UI layer holds for anything placed in a scene.
// It is either a *DevicePawn or a *CordPawn.
type Pawn interface {
	pawn()
}

// DevicePawn is the placed representation of a device
type DevicePawn struct {
	ID       int
	Name     string
	Type     model.DeviceType
	Position model.Position
}

func (*DevicePawn) pawn() {}

// CordPawn is the connector drawn between two devices.
// The geometry is computed once by the factory from the endpoint positions.
type CordPawn struct {
	Endpoints [2]*DevicePawn
	Midpoint  model.Position
	Direction model.Position // unit vector from Endpoints[0] to Endpoints[1]
	Length    float64
}

func (*CordPawn) pawn() {}

// Pair returns the canonical id pair of the cord's endpoints
func (c *CordPawn) Pair() model.Pair {
	return model.NewPair(c.Endpoints[0].ID, c.Endpoints[1].ID)
}
