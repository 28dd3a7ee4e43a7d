package model

import (
	"fmt"
	"math"
)

// Position is a point in the anchored coordinate frame
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns p - q
func (p Position) Sub(q Position) Position {
	return Position{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Length returns the euclidean norm of p seen as a vector
func (p Position) Length() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Midpoint returns the point halfway between p and q
func Midpoint(p, q Position) Position {
	return Position{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2, Z: (p.Z + q.Z) / 2}
}

func (p Position) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// Pair is an unordered pair of device ids stored as (min, max).
// Always build it with NewPair so both orders map to the same key.
type Pair struct {
	Lo int `json:"device_1"`
	Hi int `json:"device_2"`
}

// NewPair canonicalizes (a, b) as (min(a,b), max(a,b))
func NewPair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Lo: a, Hi: b}
}

// Other returns the endpoint that is not id, and false if id is not an endpoint
func (p Pair) Other(id int) (int, bool) {
	switch id {
	case p.Lo:
		return p.Hi, true
	case p.Hi:
		return p.Lo, true
	}
	return 0, false
}

// Less orders pairs by Lo, then Hi
func (p Pair) Less(q Pair) bool {
	if p.Lo != q.Lo {
		return p.Lo < q.Lo
	}
	return p.Hi < q.Hi
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d,%d)", p.Lo, p.Hi)
}
