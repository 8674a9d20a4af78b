package bridge

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
	"unsafe"

	"devdisplay/internal/config"
	"devdisplay/internal/display"
	"devdisplay/internal/output"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// cbuf returns a NUL-terminated copy of s the way a C caller would hand it over.
func cbuf(s string) []byte {
	return append([]byte(s), 0)
}

func ptr(b []byte) unsafe.Pointer {
	return unsafe.Pointer(&b[0])
}

type recorder struct {
	got []display.Notification
}

func (r *recorder) Display(n display.Notification) error {
	r.got = append(r.got, n)
	return nil
}

func consoleBridge(opts ...Option) (*Bridge, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(output.NewConsole(&buf), opts...), &buf
}

func TestNotifyConsoleLine(t *testing.T) {
	b, buf := consoleBridge()

	b.Notify(ptr(cbuf("dev-42")), ptr(cbuf("battery low")))

	assert.Equal(t, "[DISPLAY] device dev-42 message: battery low\n", buf.String())
}

func TestNotifyEmptyDevice(t *testing.T) {
	b, buf := consoleBridge()

	b.Notify(ptr(cbuf("")), ptr(cbuf("ping")))

	assert.Equal(t, "[DISPLAY] device  message: ping\n", buf.String())
}

func TestNotifyVerbatim(t *testing.T) {
	tests := []struct{ id, msg string }{
		{"solo", "tests"},
		{"sensor/7", "温度 23.5°C"},
		{"a b", "  spaced  "},
	}

	for _, tt := range tests {
		rec := &recorder{}
		New(rec).Notify(ptr(cbuf(tt.id)), ptr(cbuf(tt.msg)))

		require.Len(t, rec.got, 1)
		assert.Equal(t, tt.id, rec.got[0].DeviceID)
		assert.Equal(t, tt.msg, rec.got[0].Message)
	}
}

func TestNotifyInvalidUTF8(t *testing.T) {
	b, buf := consoleBridge()

	b.Notify(ptr([]byte("dev\xff\x00")), ptr([]byte("caf\xc3\x00")))

	out := buf.String()
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "[DISPLAY] device dev� message: caf�\n", out)
}

func TestNotifyIdempotent(t *testing.T) {
	b, buf := consoleBridge()
	id, msg := cbuf("dev-42"), cbuf("battery low")

	b.Notify(ptr(id), ptr(msg))
	b.Notify(ptr(id), ptr(msg))

	lines := strings.SplitAfter(buf.String(), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, lines[0], lines[1])
	assert.Empty(t, lines[2])
}

func TestNotifyDoesNotRetainOrMutateInput(t *testing.T) {
	rec := &recorder{}
	b := New(rec)
	id, msg := cbuf("dev-42"), cbuf("battery low")
	idOrig, msgOrig := append([]byte(nil), id...), append([]byte(nil), msg...)

	b.Notify(ptr(id), ptr(msg))

	assert.Equal(t, idOrig, id)
	assert.Equal(t, msgOrig, msg)

	for i := range id {
		id[i] = 0xAA
	}
	for i := range msg {
		msg[i] = 0xAA
	}
	require.Len(t, rec.got, 1)
	assert.Equal(t, "dev-42", rec.got[0].DeviceID)
	assert.Equal(t, "battery low", rec.got[0].Message)
}

func TestNotifyNilPointers(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	b, buf := consoleBridge(WithLogger(zap.New(core)))

	b.Notify(nil, ptr(cbuf("ping")))
	b.Notify(ptr(cbuf("dev-1")), nil)

	assert.Equal(t,
		"[DISPLAY] device  message: ping\n"+
			"[DISPLAY] device dev-1 message: \n",
		buf.String())
	assert.Equal(t, 2, logs.FilterMessage("nil pointer, using empty text").Len())
}

func TestNotifyTruncatesAtLimit(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rec := &recorder{}
	b := New(rec, WithMaxLength(4), WithLogger(zap.New(core)))

	// No terminator within the first four bytes.
	b.Notify(ptr([]byte("device-long\x00")), ptr(cbuf("ok")))

	require.Len(t, rec.got, 1)
	assert.Equal(t, "devi", rec.got[0].DeviceID)
	assert.Equal(t, "ok", rec.got[0].Message)

	entries := logs.FilterMessage("input truncated").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "device_id", entries[0].ContextMap()["field"])
}

func TestNotifyAtLimitIsNotTruncated(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rec := &recorder{}
	b := New(rec, WithMaxLength(6), WithLogger(zap.New(core)))

	b.Notify(ptr(cbuf("dev-42")), ptr(cbuf("ok")))

	require.Len(t, rec.got, 1)
	assert.Equal(t, "dev-42", rec.got[0].DeviceID)
	assert.Zero(t, logs.Len())
}

func TestNotifySwallowsSinkError(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sink := display.Func(func(display.Notification) error {
		return errors.New("stdout closed")
	})
	b := New(sink, WithLogger(zap.New(core)))

	assert.NotPanics(t, func() {
		b.Notify(ptr(cbuf("dev-42")), ptr(cbuf("battery low")))
	})
	require.Equal(t, 1, logs.FilterMessage("display failed").Len())
}

func TestNewNilSinkDiscards(t *testing.T) {
	b := New(nil)
	assert.NotPanics(t, func() {
		b.NotifyString("dev-42", "battery low")
	})
}

func TestNotifyString(t *testing.T) {
	rec := &recorder{}
	New(rec).NotifyString("dev-42", "bad \xfe byte")

	require.Len(t, rec.got, 1)
	assert.Equal(t, "bad � byte", rec.got[0].Message)
}

func TestSinkFor(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Sinks = []string{"console", "json", "discard"}

	sink, err := SinkFor(cfg, &buf)
	require.NoError(t, err)
	require.IsType(t, display.Multi{}, sink)

	New(sink).NotifyString("dev-42", "battery low")

	assert.Equal(t,
		"[DISPLAY] device dev-42 message: battery low\n"+
			`{"device_id":"dev-42","message":"battery low"}`+"\n",
		buf.String())
}

func TestSinkForSingle(t *testing.T) {
	sink, err := SinkFor(config.Default(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.IsType(t, &output.Console{}, sink)
}

func TestSinkForUnknown(t *testing.T) {
	cfg := config.Default()
	cfg.Sinks = []string{"popup"}

	_, err := SinkFor(cfg, &bytes.Buffer{})
	assert.ErrorIs(t, err, display.ErrUnknownSink)
}

func TestFromConfigRejectsInvalid(t *testing.T) {
	cfg := config.Default()
	cfg.MaxLength = 0

	_, err := FromConfig(cfg)
	assert.Error(t, err)
}

func TestDefaultFallsBack(t *testing.T) {
	t.Setenv(config.EnvPath, "/nonexistent/devdisplay.toml")

	b := Default()
	require.NotNil(t, b)
	assert.IsType(t, &output.Console{}, b.sink)
	assert.Equal(t, config.Default().MaxLength, b.limit)
}
