// Command devdisplay is built as a C shared library that device services call
// to show a message for a device:
//
//	go build -buildmode=c-shared -o libdevdisplay.so ./cmd/devdisplay
//
// C callers declare
//
//	void show_device_info(const char *device_id, const char *message);
//
// Both strings stay owned by the caller and only need to live for the
// duration of the call. Set DEVDISPLAY_CONFIG to a .toml or .yaml file to
// change the sink; by default one line is printed to stdout.
package main

import "C"

import (
	"sync"
	"unsafe"

	"devdisplay/internal/bridge"
)

var (
	once sync.Once
	inst *bridge.Bridge
)

func instance() *bridge.Bridge {
	once.Do(func() {
		inst = bridge.Default()
	})
	return inst
}

//export show_device_info
func show_device_info(deviceID *C.char, message *C.char) {
	instance().Notify(unsafe.Pointer(deviceID), unsafe.Pointer(message))
}

//export devdisplay_flush
func devdisplay_flush() {
	// Sync on stderr returns EINVAL on some platforms; nothing to report to C.
	_ = instance().Sync()
}

func main() {}
