//go:build linux

package beep

import (
	"errors"
	"testing"

	"github.com/jfreymuth/pulse"
)

func TestCursorReadsThenEnds(t *testing.T) {
	c := &cursor{samples: []int16{1, 2, 3, 4, 5}}
	buf := make([]int16, 3)
	if n, err := c.read(buf); n != 3 || err != nil {
		t.Fatalf("first read = %d, %v", n, err)
	}
	if n, err := c.read(buf); n != 2 || err != nil || buf[1] != 5 {
		t.Fatalf("second read = %d, %v, %v", n, err, buf)
	}
	if _, err := c.read(buf); !errors.Is(err, pulse.EndOfData) {
		t.Errorf("read past end err = %v, want EndOfData", err)
	}
}
