package model

import (
	"errors"
	"testing"
)

func TestNewPair(t *testing.T) {
	tests := []struct {
		a, b int
		want Pair
	}{
		{0, 1, Pair{Lo: 0, Hi: 1}},
		{1, 0, Pair{Lo: 0, Hi: 1}},
		{7, 3, Pair{Lo: 3, Hi: 7}},
		{-2, 5, Pair{Lo: -2, Hi: 5}},
		{4, 4, Pair{Lo: 4, Hi: 4}},
	}

	for _, tt := range tests {
		if got := NewPair(tt.a, tt.b); got != tt.want {
			t.Errorf("NewPair(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if NewPair(tt.a, tt.b) != NewPair(tt.b, tt.a) {
			t.Errorf("NewPair(%d, %d) differs from NewPair(%d, %d)", tt.a, tt.b, tt.b, tt.a)
		}
	}
}

func TestPairOther(t *testing.T) {
	p := NewPair(9, 2)

	if other, ok := p.Other(2); !ok || other != 9 {
		t.Errorf("Other(2) = %d, %v; want 9, true", other, ok)
	}
	if other, ok := p.Other(9); !ok || other != 2 {
		t.Errorf("Other(9) = %d, %v; want 2, true", other, ok)
	}
	if _, ok := p.Other(5); ok {
		t.Error("Other(5) should report false for a non-endpoint")
	}
}

func TestParseDeviceType(t *testing.T) {
	tests := []struct {
		in      string
		want    DeviceType
		wantErr bool
	}{
		{"PC", DevicePC, false},
		{"router", DeviceRouter, false},
		{" Switch ", DeviceSwitch, false},
		{"SERVER", DeviceServer, false},
		{"LINK", "", true},
		{"PRINTER", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDeviceType(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnrecognizedType) {
				t.Errorf("ParseDeviceType(%q) error = %v, want ErrUnrecognizedType", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDeviceType(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseDeviceType(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseModeAcceptsLink(t *testing.T) {
	mode, err := ParseMode("link")
	if err != nil {
		t.Fatalf("ParseMode(link) error = %v", err)
	}
	if mode != DeviceLink {
		t.Errorf("Expected LINK, got %s", mode)
	}
	if mode.Placeable() {
		t.Error("LINK must not be placeable")
	}
}

func TestMidpointAndLength(t *testing.T) {
	a := Position{X: 0, Y: 0, Z: 0}
	b := Position{X: 2, Y: 0, Z: 0}

	mid := Midpoint(a, b)
	if mid != (Position{X: 1}) {
		t.Errorf("Midpoint = %v, want (1, 0, 0)", mid)
	}

	if l := b.Sub(a).Length(); l != 2 {
		t.Errorf("Length = %g, want 2", l)
	}
}
