package model

import (
	"fmt"
	"strings"
)

// DeviceType represents the kind of device placed in a scene
type DeviceType string

const (
	DevicePC     DeviceType = "PC"
	DeviceRouter DeviceType = "ROUTER"
	DeviceSwitch DeviceType = "SWITCH"
	DeviceServer DeviceType = "SERVER"

	// DeviceLink is the placement mode used while joining two devices.
	// It is never stored in a graph.
	DeviceLink DeviceType = "LINK"
)

// DeviceTypes lists the kinds that can be stored in a graph, in display order
var DeviceTypes = []DeviceType{DevicePC, DeviceRouter, DeviceSwitch, DeviceServer}

// Placeable returns true if devices of this type can be stored in a graph
func (t DeviceType) Placeable() bool {
	switch t {
	case DevicePC, DeviceRouter, DeviceSwitch, DeviceServer:
		return true
	}
	return false
}

// Label returns the prefix used for display names (e.g. "Router" for "Router0")
func (t DeviceType) Label() string {
	switch t {
	case DevicePC:
		return "PC"
	case DeviceRouter:
		return "Router"
	case DeviceSwitch:
		return "Switch"
	case DeviceServer:
		return "Server"
	case DeviceLink:
		return "Link"
	}
	return string(t)
}

func (t DeviceType) String() string {
	return string(t)
}

// ParseDeviceType maps a wire name to a placeable device type.
// Matching ignores case and surrounding whitespace; anything else, LINK
// included, is rejected with ErrUnrecognizedType.
func ParseDeviceType(s string) (DeviceType, error) {
	t := DeviceType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Placeable() {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedType, s)
	}
	return t, nil
}

// ParseMode maps a name to an editing mode, which is any placeable type or LINK
func ParseMode(s string) (DeviceType, error) {
	t := DeviceType(strings.ToUpper(strings.TrimSpace(s)))
	if t == DeviceLink || t.Placeable() {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnrecognizedType, s)
}
