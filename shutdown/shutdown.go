// Package shutdown turns OS termination signals into a callback.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
)

// Watch runs fn once on the first termination signal. The returned stop
// function unregisters the handler without calling fn.
func Watch(fn func()) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			fn()
		case <-done:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}
