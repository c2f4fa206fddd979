// Package hotkey listens for the global Ctrl+Shift+Space shortcut.
package hotkey

const Combo = "Ctrl+Shift+Space"

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// signal delivers a non-blocking edge; a pending one absorbs the next.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
