//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

// The OS hotkey API must own the main thread on macOS.
func init() { runtime.LockOSThread() }

func main() {
	initCrashLog()
	mainthread.Init(run)
}
