// Package bridge turns raw device notifications handed over by a foreign
// caller into calls on a display.Sink.
//
// A Bridge holds no per-call state and starts no goroutines: every call runs
// to completion on the caller's thread. Input memory is copied out at entry
// and never referenced after Notify returns.
package bridge

import (
	"errors"
	"unsafe"

	"devdisplay/internal/cstr"
	"devdisplay/internal/display"

	"go.uber.org/zap"
)

// Bridge forwards decoded notifications to a sink.
type Bridge struct {
	sink  display.Sink
	log   *zap.Logger
	limit int
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger used for input and sink warnings.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

// WithMaxLength caps how many bytes are scanned per input string.
func WithMaxLength(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.limit = n
		}
	}
}

// New creates a Bridge that displays through sink. A nil sink discards.
func New(sink display.Sink, opts ...Option) *Bridge {
	if sink == nil {
		sink = display.Discard
	}
	b := &Bridge{
		sink:  sink,
		log:   zap.NewNop(),
		limit: cstr.DefaultLimit,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Notify reads two NUL-terminated strings from caller-owned memory and
// displays them. It never fails: nil pointers read as empty text, overlong
// input is truncated at the configured limit, invalid UTF-8 is replaced and
// sink errors are logged.
func (b *Bridge) Notify(deviceID, message unsafe.Pointer) {
	id, err := cstr.Copy(deviceID, b.limit)
	b.inputWarning("device_id", err)
	msg, err := cstr.Copy(message, b.limit)
	b.inputWarning("message", err)

	b.NotifyBytes(id, msg)
}

// NotifyBytes displays raw, possibly malformed, text.
func (b *Bridge) NotifyBytes(deviceID, message []byte) {
	b.display(display.Notification{
		DeviceID: cstr.Decode(deviceID),
		Message:  cstr.Decode(message),
	})
}

// NotifyString displays already decoded text. Invalid UTF-8 is still replaced.
func (b *Bridge) NotifyString(deviceID, message string) {
	b.NotifyBytes([]byte(deviceID), []byte(message))
}

// Sync flushes buffered log entries.
func (b *Bridge) Sync() error {
	return b.log.Sync()
}

func (b *Bridge) display(n display.Notification) {
	if err := b.sink.Display(n); err != nil {
		b.log.Warn("display failed",
			zap.String("device_id", n.DeviceID),
			zap.Error(err),
		)
		return
	}
	b.log.Debug("displayed notification", zap.String("device_id", n.DeviceID))
}

func (b *Bridge) inputWarning(field string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, cstr.ErrNilPointer):
		b.log.Warn("nil pointer, using empty text", zap.String("field", field))
	case errors.Is(err, cstr.ErrUnterminated):
		b.log.Warn("input truncated", zap.String("field", field), zap.Int("limit", b.limit))
	default:
		b.log.Warn("input read failed", zap.String("field", field), zap.Error(err))
	}
}
