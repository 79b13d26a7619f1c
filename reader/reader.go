// Package reader decodes badge reads from the supported reader hardware
// and turns them into dispatcher events.
package reader

import (
	"context"

	"github.com/rs/zerolog"

	"authbox/dispatch"
)

// Reader is implemented by every badge reader.
type Reader interface {
	// Read blocks until a badge is read or ctx is done. An empty string
	// with a nil error means nothing usable was read.
	Read(ctx context.Context) (string, error)

	// Close releases any resources held by the reader.
	Close() error
}

// Worker runs a Reader under the dispatcher, posting each badge to cb
// with the worker's name as the event source.
type Worker struct {
	name string
	r    Reader
	sink dispatch.Sink
	cb   dispatch.Callback
	log  zerolog.Logger
}

func NewWorker(name string, r Reader, sink dispatch.Sink, cb dispatch.Callback, log zerolog.Logger) *Worker {
	return &Worker{name: name, r: r, sink: sink, cb: cb, log: log}
}

func (w *Worker) Name() string { return w.name }

// Reader returns the wrapped reader.
func (w *Worker) Reader() Reader { return w.r }

func (w *Worker) Step(ctx context.Context) error {
	badge, err := w.r.Read(ctx)
	if err != nil {
		return err
	}
	if badge == "" {
		return nil
	}
	w.log.Info().Str("badge", badge).Msg("badge read")
	w.sink.Post(dispatch.Event{Callback: w.cb, Source: w.name, Value: badge})
	return nil
}
