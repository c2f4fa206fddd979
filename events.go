package main

import (
	"tint/pill"
	"tint/task"
	"tint/theme"
	"tint/ticker"
)

// EventSink abstracts the display layer so both the Bubble Tea TUI
// and the headless test driver receive the same events.
type EventSink interface {
	PillChanged(s pill.State)
	TaskEvent(e task.Event, entries []task.Entry)
	StatusChanged(s ticker.State)
	TranscriptChanged(line string)
	ThemeApplied(t theme.Theme)
	Notice(text string)
}

type nopSink struct{}

func (nopSink) PillChanged(pill.State)             {}
func (nopSink) TaskEvent(task.Event, []task.Entry) {}
func (nopSink) StatusChanged(ticker.State)         {}
func (nopSink) TranscriptChanged(string)           {}
func (nopSink) ThemeApplied(theme.Theme)           {}
func (nopSink) Notice(string)                      {}
