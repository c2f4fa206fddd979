package audio

import (
	"bytes"
	"strings"
	"testing"
)

func TestPickerKeys(t *testing.T) {
	p := &picker{devices: []DeviceInfo{{Name: "a"}, {Name: "b"}, {Name: "c"}}}
	steps := []struct {
		key    string
		want   pickResult
		cursor int
	}{
		{"k", pickContinue, 0},
		{"j", pickContinue, 1},
		{"\x1b[B", pickContinue, 2},
		{"j", pickContinue, 2},
		{"\x1b[A", pickContinue, 1},
		{"x", pickContinue, 1},
		{"\r", pickChosen, 1},
	}
	for i, s := range steps {
		if got := p.key([]byte(s.key)); got != s.want || p.cursor != s.cursor {
			t.Fatalf("step %d %q: result %d cursor %d, want %d cursor %d", i, s.key, got, p.cursor, s.want, s.cursor)
		}
	}
	for _, k := range []string{"q", "\x03"} {
		if got := p.key([]byte(k)); got != pickAborted {
			t.Errorf("key %q = %d, want aborted", k, got)
		}
	}
}

func TestPickerRender(t *testing.T) {
	p := &picker{devices: []DeviceInfo{{Name: "Built-in"}, {Name: "AirPods"}}, cursor: 1}
	var buf bytes.Buffer
	p.render(&buf)
	out := buf.String()
	if got := strings.Count(out, "\r\n"); got != p.height() {
		t.Errorf("rendered %d lines, want %d", got, p.height())
	}
	if !strings.Contains(out, "bluetooth") {
		t.Error("bluetooth device not tagged")
	}
	if !strings.Contains(out, "▶ AirPods") {
		t.Errorf("cursor not on AirPods: %q", out)
	}
}

func TestFindDevice(t *testing.T) {
	ctx := NewFakeContextPCM(nil, false)
	d, err := FindDevice(ctx, "fake")
	if err != nil || d == nil || d.ID != "fake" {
		t.Errorf("FindDevice(fake) = %v, %v", d, err)
	}
	if d, err := FindDevice(ctx, "missing"); d != nil || err != nil {
		t.Errorf("FindDevice(missing) = %v, %v", d, err)
	}
}
