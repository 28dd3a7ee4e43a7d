package model

import "errors"

var (
	// ErrPrecondition is returned when a graph operation needs an anchor that is not set
	ErrPrecondition = errors.New("graph is not anchored")

	// ErrNotFound is returned when a device id is not in the registry
	ErrNotFound = errors.New("device not found")

	// ErrSceneNotFound is returned by scene stores for unknown scene ids
	ErrSceneNotFound = errors.New("scene not found")

	// ErrUnrecognizedType is returned for device types outside PC, ROUTER, SWITCH and SERVER
	ErrUnrecognizedType = errors.New("unrecognized device type")

	// ErrSelfLink is returned when a link would join a device to itself
	ErrSelfLink = errors.New("cannot link a device to itself")

	// ErrInvalidScene is returned when a serialized scene fails validation
	ErrInvalidScene = errors.New("invalid scene")

	// ErrNetwork is returned when a save or load request fails in transport
	ErrNetwork = errors.New("network error")
)
