package assistant

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"oort/log"
)

// Task is a blocking unit of work run off the refresh goroutine. Its
// return value is delivered on the dispatcher's event channel.
type Task func(ctx context.Context) Event

// Dispatcher runs tasks on detached goroutines. Dispatch never blocks the
// caller and no result flows back through it; completion is only visible
// through Events.
type Dispatcher struct {
	ctx    context.Context
	events chan Event
	wg     sync.WaitGroup

	mu         sync.Mutex
	dispatched map[string]int
	inflight   map[string]int
}

func NewDispatcher(ctx context.Context, buffer int) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	return &Dispatcher{
		ctx:        ctx,
		events:     make(chan Event, buffer),
		dispatched: make(map[string]int),
		inflight:   make(map[string]int),
	}
}

func (d *Dispatcher) Events() <-chan Event { return d.events }

func (d *Dispatcher) Dispatch(name string, task Task) {
	d.mu.Lock()
	d.dispatched[name]++
	d.inflight[name]++
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ev := d.run(name, task)
		d.mu.Lock()
		d.inflight[name]--
		d.mu.Unlock()
		d.deliver(ev)
	}()
}

func (d *Dispatcher) run(name string, task Task) (ev Event) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%s task panicked: %v", name, r)
			stack := debug.Stack()
			log.Stack(err, stack)
			ev = TaskFailed{Name: name, Err: err, Stack: stack}
		}
	}()
	ev = task(d.ctx)
	if ev == nil {
		ev = TaskDone{Name: name}
	}
	return ev
}

func (d *Dispatcher) deliver(ev Event) {
	select {
	case d.events <- ev:
	case <-d.ctx.Done():
	}
}

// Dispatched reports how many tasks of the given kind were ever started.
func (d *Dispatcher) Dispatched(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dispatched[name]
}

func (d *Dispatcher) Inflight(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inflight[name]
}

// Wait blocks until every dispatched task has returned and its event was
// delivered or dropped on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
