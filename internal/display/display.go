// Package display defines where decoded device notifications end up.
package display

import (
	"errors"

	"go.uber.org/multierr"
)

// ErrUnknownSink is returned when a sink name is not recognised.
var ErrUnknownSink = errors.New("unknown sink")

// Notification is one decoded device identifier and message pair.
type Notification struct {
	DeviceID string `json:"device_id"`
	Message  string `json:"message"`
}

// Sink presents a notification to someone.
type Sink interface {
	Display(n Notification) error
}

// Func adapts a plain function to a Sink.
type Func func(n Notification) error

// Display calls f(n).
func (f Func) Display(n Notification) error {
	return f(n)
}

// Discard drops every notification.
var Discard Sink = Func(func(Notification) error { return nil })

// Multi forwards each notification to every sink in order. A failing sink
// does not stop the others; all errors are combined.
type Multi []Sink

// Display implements Sink.
func (m Multi) Display(n Notification) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Display(n))
	}
	return err
}
