// internal/notification/sink.go

package notification

import (
	"context"
	"errors"
)

// Sink delivers a notification through one channel
type Sink interface {
	Notify(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Notify(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Discard drops every event. Used when no channel is configured.
var Discard Sink = SinkFunc(func(context.Context, Event) error { return nil })

type namedSink struct {
	name string
	sink Sink
}

// Multi fans an event out to every channel. One failing channel does not stop the others.
type Multi struct {
	sinks []namedSink
}

func NewMulti() *Multi {
	return &Multi{}
}

// Add registers a channel under a name used in metrics and logs
func (m *Multi) Add(name string, sink Sink) *Multi {
	if sink != nil {
		m.sinks = append(m.sinks, namedSink{name: name, sink: sink})
	}
	return m
}

// Len reports how many channels are registered
func (m *Multi) Len() int {
	return len(m.sinks)
}

func (m *Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.sink.Notify(ctx, event); err != nil {
			recordDelivery(s.name, statusFailed)
			errs = append(errs, &DeliveryError{Sink: s.name, Err: err})
			continue
		}
		recordDelivery(s.name, statusDelivered)
	}
	return errors.Join(errs...)
}

// DeliveryError tags a failure with the channel that produced it
type DeliveryError struct {
	Sink string
	Err  error
}

func (e *DeliveryError) Error() string {
	return e.Sink + ": " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
