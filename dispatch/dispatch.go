// Package dispatch serializes peripheral events onto a single consumer.
//
// Peripherals run as Workers, each on its own goroutine, and report what
// they observe by posting Events. The Dispatcher pops events one at a time
// and invokes their callbacks, so business logic never runs concurrently
// with itself.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval bounds how long Run waits on an empty queue before
// checking its context again.
const DefaultPollInterval = time.Second

// Callback is business logic invoked on the dispatcher goroutine.
// source is the configured name of the peripheral that posted the event.
type Callback func(source, value string) error

// Event is one queued callback invocation.
type Event struct {
	Callback Callback
	Source   string
	Value    string

	shutdown bool
}

// Shutdown is the sentinel that ends Run when popped.
var Shutdown = Event{shutdown: true}

// IsShutdown reports whether e is the shutdown sentinel.
func (e Event) IsShutdown() bool { return e.shutdown }

// Sink accepts events from peripherals. Post must not block.
type Sink interface {
	Post(Event)
}

// Worker is a peripheral loop. Step is called repeatedly for the life of
// the dispatcher; it may block, and should return when ctx is done.
type Worker interface {
	Name() string
	Step(ctx context.Context) error
}

// Dispatcher runs every callback on one goroutine, in the order posted,
// while its workers feed it from their own goroutines.
type Dispatcher struct {
	log     zerolog.Logger
	queue   *Queue
	workers []Worker
	poll    time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.poll = d }
}

// New returns an idle Dispatcher. Nothing runs until Run.
func New(log zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log:   log,
		queue: NewQueue(),
		poll:  DefaultPollInterval,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Register adds a worker to be started by Run.
func (d *Dispatcher) Register(w Worker) {
	d.workers = append(d.workers, w)
}

// Workers returns the registered workers.
func (d *Dispatcher) Workers() []Worker {
	return append([]Worker(nil), d.workers...)
}

// Post implements Sink.
func (d *Dispatcher) Post(e Event) {
	d.queue.Push(e)
}

// Shutdown queues the shutdown sentinel behind any pending events.
func (d *Dispatcher) Shutdown() {
	d.queue.Push(Shutdown)
}

// Run starts every registered worker and then executes queued callbacks
// until the shutdown sentinel is popped or ctx is done. Workers are
// signalled to stop through their context when Run returns but are not
// waited for.
func (d *Dispatcher) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, w := range d.workers {
		go d.runWorker(ctx, w)
	}
	d.log.Info().Int("workers", len(d.workers)).Msg("dispatcher running")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, ok := d.queue.Pop(d.poll)
		if !ok {
			continue
		}
		if e.shutdown {
			d.log.Info().Msg("dispatcher shutdown")
			return nil
		}
		if err := d.invoke(e); err != nil {
			ev := d.log.Error().Err(err).
				Str("source", e.Source).
				Str("value", e.Value).
				Str("callback", funcName(e.Callback))
			var pe *PanicError
			if errors.As(err, &pe) {
				ev = ev.Bytes("stack", pe.Stack)
			}
			ev.Msg("callback failed")
		}
	}
}

// PanicError is a recovered panic from a callback or worker step.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

func (d *Dispatcher) invoke(e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	if e.Callback == nil {
		return fmt.Errorf("event has no callback")
	}
	return e.Callback(e.Source, e.Value)
}

func (d *Dispatcher) runWorker(ctx context.Context, w Worker) {
	log := d.log.With().Str("worker", w.Name()).Logger()
	for ctx.Err() == nil {
		err := step(ctx, w)
		if err == nil || ctx.Err() != nil {
			continue
		}
		ev := log.Error().Err(err)
		var pe *PanicError
		if errors.As(err, &pe) {
			ev = ev.Bytes("stack", pe.Stack)
		}
		ev.Msg("step failed, retrying")
	}
}

func step(ctx context.Context, w Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return w.Step(ctx)
}

func funcName(cb Callback) string {
	if cb == nil {
		return "<nil>"
	}
	if f := runtime.FuncForPC(reflect.ValueOf(cb).Pointer()); f != nil {
		return f.Name()
	}
	return "<unknown>"
}
