package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var ErrSelectionAborted = errors.New("device selection aborted")

var (
	pickCursor = color.New(color.FgCyan, color.Bold)
	pickWarn   = color.New(color.FgYellow)
)

// picker is the cursor state of the device list, separate from the terminal.
type picker struct {
	devices []DeviceInfo
	cursor  int
}

type pickResult int

const (
	pickContinue pickResult = iota
	pickChosen
	pickAborted
)

// key applies one read from a raw terminal.
func (p *picker) key(b []byte) pickResult {
	switch {
	case len(b) == 1 && b[0] == '\r':
		return pickChosen
	case len(b) == 1 && (b[0] == 3 || b[0] == 'q'):
		return pickAborted
	case len(b) == 1 && b[0] == 'j', string(b) == "\x1b[B":
		p.cursor = min(p.cursor+1, len(p.devices)-1)
	case len(b) == 1 && b[0] == 'k', string(b) == "\x1b[A":
		p.cursor = max(p.cursor-1, 0)
	}
	return pickContinue
}

func (p *picker) render(w io.Writer) {
	fmt.Fprint(w, "\r\x1b[J")
	fmt.Fprint(w, "Microphone for voice input (↑/↓ or j/k, Enter to confirm, q to cancel):\r\n\r\n")
	for i, d := range p.devices {
		tag := ""
		if IsBluetooth(d.Name) {
			tag = pickWarn.Sprint(" [bluetooth: lower quality]")
		}
		if i == p.cursor {
			fmt.Fprintf(w, "  %s%s\r\n", pickCursor.Sprint("▶ "+d.Name), tag)
		} else {
			fmt.Fprintf(w, "    %s%s\r\n", d.Name, tag)
		}
	}
}

// height is the number of lines render writes.
func (p *picker) height() int { return len(p.devices) + 2 }

// SelectDevice runs an arrow-key picker on the terminal. With a single
// device it returns that device without prompting.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	switch len(devices) {
	case 0:
		return nil, ErrNoDevice
	case 1:
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	p := &picker{devices: devices}
	p.render(os.Stdout)
	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		switch p.key(buf[:n]) {
		case pickChosen:
			fmt.Print("\r\n")
			return &devices[p.cursor], nil
		case pickAborted:
			fmt.Print("\r\n")
			return nil, ErrSelectionAborted
		}
		fmt.Printf("\x1b[%dA", p.height())
		p.render(os.Stdout)
	}
}
