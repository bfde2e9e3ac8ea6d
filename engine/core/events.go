package core

import (
	"sync"
)

// EventContext carries a small payload alongside an event code.
type EventContext struct {
	Data struct {
		I32 [4]int32
		U32 [4]uint32
		F32 [4]float32
		F64 [4]float64
		U16 [8]uint16
	}
	// Payload holds anything that does not fit the fixed arrays, e.g. a reloaded *Config.
	Payload interface{}
}

// System internal event codes. Applications should use codes beyond MAX_EVENT_CODE.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Keyboard key pressed.
	//  key := KeyCode(data.Data.U16[0])
	EVENT_CODE_KEY_PRESSED SystemEventCode = 0x02

	// Keyboard key released.
	//  key := KeyCode(data.Data.U16[0])
	EVENT_CODE_KEY_RELEASED SystemEventCode = 0x03

	// Cursor moved, position in window coordinates followed by the delta since the last move.
	//  x, y := data.Data.F64[0], data.Data.F64[1]
	//  dx, dy := data.Data.F64[2], data.Data.F64[3]
	EVENT_CODE_MOUSE_MOVED SystemEventCode = 0x06

	// Framebuffer resized.
	//  width, height := data.Data.U32[0], data.Data.U32[1]
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	// Configuration file changed on disk.
	//  cfg := data.Payload.(*Config)
	EVENT_CODE_CONFIG_RELOADED SystemEventCode = 0x09

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

const MAX_MESSAGE_CODES = 16384

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listener interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type eventSystemState struct {
	mu         sync.RWMutex
	registered map[SystemEventCode][]registeredEvent
}

var eventState *eventSystemState

func EventInitialize() bool {
	if eventState != nil {
		return false
	}
	eventState = &eventSystemState{
		registered: make(map[SystemEventCode][]registeredEvent),
	}
	return true
}

func EventShutdown() error {
	if eventState == nil {
		return nil
	}
	eventState.mu.Lock()
	eventState.registered = nil
	eventState.mu.Unlock()
	eventState = nil
	return nil
}

// EventRegister listens for events with the given code. A listener can only be
// registered once per code; duplicates return false.
func EventRegister(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if eventState == nil || code < 0 || code >= MAX_MESSAGE_CODES || onEvent == nil {
		return false
	}
	eventState.mu.Lock()
	defer eventState.mu.Unlock()

	for _, e := range eventState.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	eventState.registered[code] = append(eventState.registered[code], registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// EventUnregister stops the listener from receiving the code. Returns false if it was not registered.
func EventUnregister(code SystemEventCode, listener interface{}) bool {
	if eventState == nil {
		return false
	}
	eventState.mu.Lock()
	defer eventState.mu.Unlock()

	events := eventState.registered[code]
	for i, e := range events {
		if e.listener == listener {
			eventState.registered[code] = append(events[:i:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// EventFire hands the event to every listener in registration order until one reports it handled.
func EventFire(code SystemEventCode, sender interface{}, context EventContext) bool {
	if eventState == nil {
		return false
	}
	eventState.mu.RLock()
	events := eventState.registered[code]
	eventState.mu.RUnlock()

	// listeners may register more handlers while being called, so iterate over the snapshot
	for _, e := range events {
		if e.callback(code, sender, e.listener, context) {
			return true
		}
	}
	return false
}
