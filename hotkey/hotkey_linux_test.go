//go:build linux

package hotkey

import (
	"encoding/binary"
	"testing"
)

func key(code uint16, value int32) inputEvent {
	return inputEvent{typ: evKey, code: code, value: value}
}

func TestChordEdges(t *testing.T) {
	var c chord
	steps := []struct {
		ev       inputEvent
		down, up bool
	}{
		{key(keySpace, 1), false, false}, // no modifiers
		{key(keySpace, 0), false, false},
		{key(keyLCtrl, 1), false, false},
		{key(keyRShift, 1), false, false},
		{key(keySpace, 1), true, false},
		{key(keySpace, 2), false, false}, // autorepeat
		{key(keySpace, 1), false, false}, // already active
		{key(keyLCtrl, 0), false, false},
		{key(keySpace, 0), false, true}, // release counts even after Ctrl is up
		{key(keySpace, 0), false, false},
	}
	for i, s := range steps {
		down, up := c.feed(s.ev)
		if down != s.down || up != s.up {
			t.Fatalf("step %d: feed(%+v) = %v, %v; want %v, %v", i, s.ev, down, up, s.down, s.up)
		}
	}
}

func TestChordIgnoresNonKeyEvents(t *testing.T) {
	c := chord{ctrl: true, shift: true}
	if down, _ := c.feed(inputEvent{typ: 0, code: keySpace, value: 1}); down {
		t.Error("sync event triggered the combo")
	}
}

func TestDecodeEvents(t *testing.T) {
	buf := make([]byte, inputEventSize*2+5)
	binary.LittleEndian.PutUint16(buf[16:], evKey)
	binary.LittleEndian.PutUint16(buf[18:], keySpace)
	binary.LittleEndian.PutUint32(buf[20:], 1)
	binary.LittleEndian.PutUint16(buf[inputEventSize+18:], keyLCtrl)

	events := decodeEvents(buf)
	if len(events) != 2 {
		t.Fatalf("decoded %d events, want 2", len(events))
	}
	if events[0] != key(keySpace, 1) {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].typ != 0 || events[1].code != keyLCtrl {
		t.Errorf("events[1] = %+v", events[1])
	}
}
