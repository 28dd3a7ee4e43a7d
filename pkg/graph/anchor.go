package graph

import (
	"github.com/google/uuid"
	"github.com/ritzau/dataflows/pkg/model"
)

// Anchor is the spatial reference a graph is rooted on
type Anchor struct {
	ID   string
	Pose model.Position
}

// NewAnchor creates an anchor with a fresh identity at pose
func NewAnchor(pose model.Position) *Anchor {
	return &Anchor{ID: uuid.New().String(), Pose: pose}
}
