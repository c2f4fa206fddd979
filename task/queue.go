package task

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"tint/theme"
)

// ErrClosed discards inputs submitted after Close.
var ErrClosed = errors.New("queue closed")

// Queue tracks submitted inputs while the resolver turns each one into a
// theme. Resolutions run concurrently and complete in any order; the list
// keeps submission order.
type Queue struct {
	resolver theme.Resolver
	observer func(Event)
	newID    func() ID
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	tasks  []*Task
	closed bool
}

type Option func(*Queue)

// WithObserver registers fn to receive lifecycle events. It is called
// without the queue lock held.
func WithObserver(fn func(Event)) Option {
	return func(q *Queue) { q.observer = fn }
}

func WithIDFunc(fn func() ID) Option {
	return func(q *Queue) { q.newID = fn }
}

func WithNow(fn func() time.Time) Option {
	return func(q *Queue) { q.now = fn }
}

func New(resolver theme.Resolver, opts ...Option) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		resolver: resolver,
		newID:    func() ID { return ID(uuid.NewString()) },
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Submit enqueues input and starts resolving it in the background. It
// never blocks on the resolver.
func (q *Queue) Submit(input string, kind Kind) ID {
	t := &Task{
		ID:          q.newID(),
		Kind:        kind,
		Input:       input,
		Status:      StatusProcessing,
		SubmittedAt: q.now(),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.notify(Event{Type: EventDiscarded, Task: *t, Err: ErrClosed})
		return t.ID
	}
	q.tasks = append(q.tasks, t)
	snap := *t
	q.wg.Add(1)
	q.mu.Unlock()

	q.notify(Event{Type: EventSubmitted, Task: snap})

	go func() {
		defer q.wg.Done()
		result, err := q.resolve(snap)
		if err != nil {
			q.ResolutionFailed(snap.ID, err)
			return
		}
		q.Resolved(snap.ID, result)
	}()
	return snap.ID
}

func (q *Queue) resolve(t Task) (result theme.Theme, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("resolver panic: %v\n%s", r, debug.Stack())
		}
	}()
	return q.resolver.Resolve(q.ctx, theme.Request{
		ID:    string(t.ID),
		Input: t.Input,
		Voice: t.Kind == KindVoice,
	})
}

// Resolved marks a processing task ready. A result for a task that is gone
// or already ready is ignored.
func (q *Queue) Resolved(id ID, result theme.Theme) bool {
	q.mu.Lock()
	i := q.index(id)
	if i < 0 || q.tasks[i].Status != StatusProcessing {
		q.mu.Unlock()
		return false
	}
	t := q.tasks[i]
	t.Status = StatusReady
	t.Result = result
	t.ReadyAt = q.now()
	snap := *t
	q.mu.Unlock()

	q.notify(Event{Type: EventReady, Task: snap})
	return true
}

// ResolutionFailed drops a processing task. There is no visible failed state.
func (q *Queue) ResolutionFailed(id ID, err error) bool {
	q.mu.Lock()
	i := q.index(id)
	if i < 0 || q.tasks[i].Status != StatusProcessing {
		q.mu.Unlock()
		return false
	}
	snap := *q.tasks[i]
	q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
	q.mu.Unlock()

	q.notify(Event{Type: EventDiscarded, Task: snap, Err: err})
	return true
}

// Reveal removes a ready task and hands back its result. Processing or
// unknown IDs return false and leave the queue untouched.
func (q *Queue) Reveal(id ID) (theme.Theme, bool) {
	q.mu.Lock()
	i := q.index(id)
	if i < 0 || q.tasks[i].Status != StatusReady {
		q.mu.Unlock()
		return theme.Theme{}, false
	}
	snap := *q.tasks[i]
	q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
	q.mu.Unlock()

	q.notify(Event{Type: EventRevealed, Task: snap})
	return snap.Result, true
}

func (q *Queue) List() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	entries := make([]Entry, len(q.tasks))
	for i, t := range q.tasks {
		entries[i] = Entry{
			ID:     t.ID,
			Kind:   t.Kind,
			Status: t.Status,
			Label:  Label(t.Status, t.Kind),
		}
	}
	return entries
}

func (q *Queue) Get(id ID) (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i := q.index(id); i >= 0 {
		return *q.tasks[i], true
	}
	return Task{}, false
}

// FirstReady returns the earliest submitted ready task.
func (q *Queue) FirstReady() (ID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.tasks {
		if t.Status == StatusReady {
			return t.ID, true
		}
	}
	return "", false
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Wait blocks until no resolution is running.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Close cancels outstanding resolutions and waits for them to finish.
// Their tasks are discarded like any other failure. Later submissions are
// discarded with ErrClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cancel()
	q.wg.Wait()
}

func (q *Queue) index(id ID) int {
	for i, t := range q.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (q *Queue) notify(e Event) {
	if q.observer != nil {
		q.observer(e)
	}
}
