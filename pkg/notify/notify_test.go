package notify

import (
	"reflect"
	"testing"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	if r.Last() != "" {
		t.Errorf("Empty recorder Last() = %q", r.Last())
	}

	r.Notify("first")
	r.Notify("second")

	if !reflect.DeepEqual(r.Messages(), []string{"first", "second"}) {
		t.Errorf("Messages = %v", r.Messages())
	}
	if r.Last() != "second" {
		t.Errorf("Last = %q, want second", r.Last())
	}

	r.Reset()
	if len(r.Messages()) != 0 {
		t.Errorf("Reset should clear messages, got %v", r.Messages())
	}
}

func TestTee(t *testing.T) {
	var a, b Recorder
	Tee{&a, &b, Log{Component: "test"}}.Notify("saved")

	if a.Last() != "saved" || b.Last() != "saved" {
		t.Errorf("Tee did not reach every sink: %q, %q", a.Last(), b.Last())
	}
}
