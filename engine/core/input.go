package core

// Key code definitions. Values follow the virtual key table so they fit in an event's U16 slot.
type KeyCode uint16

const (
	KEY_UNKNOWN  KeyCode = 0x00
	KEY_TAB      KeyCode = 0x09
	KEY_ENTER    KeyCode = 0x0D
	KEY_ESCAPE   KeyCode = 0x1B
	KEY_SPACE    KeyCode = 0x20
	KEY_LEFT     KeyCode = 0x25
	KEY_UP       KeyCode = 0x26
	KEY_RIGHT    KeyCode = 0x27
	KEY_DOWN     KeyCode = 0x28
	KEY_A        KeyCode = 0x41
	KEY_C        KeyCode = 0x43
	KEY_D        KeyCode = 0x44
	KEY_E        KeyCode = 0x45
	KEY_Q        KeyCode = 0x51
	KEY_S        KeyCode = 0x53
	KEY_W        KeyCode = 0x57
	KEY_F1       KeyCode = 0x70
	KEY_LSHIFT   KeyCode = 0xA0
	KEY_RSHIFT   KeyCode = 0xA1
	KEY_LCONTROL KeyCode = 0xA2
	KEY_RCONTROL KeyCode = 0xA3

	KEYS_MAX_KEYS KeyCode = 0x100
)

type MouseState struct {
	X float64
	Y float64
	// set once the first position has been seen, so the first move does not produce a jump
	Valid bool
}

type KeyboardState struct {
	Keys [KEYS_MAX_KEYS]bool
}

// InputState holds current and previous keyboard and mouse states.
// It is only touched from the thread that pumps window messages.
type InputState struct {
	KeyboardCurrent  KeyboardState
	KeyboardPrevious KeyboardState
	MouseCurrent     MouseState
	MousePrevious    MouseState
}

var inputState *InputState

func InputInitialize() error {
	inputState = &InputState{}
	LogInfo("Input subsystem initialized.")
	return nil
}

func InputShutdown() error {
	inputState = nil
	return nil
}

// InputUpdate rolls the current state into the previous one. Call once per frame.
func InputUpdate() {
	if inputState == nil {
		return
	}
	inputState.KeyboardPrevious = inputState.KeyboardCurrent
	inputState.MousePrevious = inputState.MouseCurrent
}

func InputIsKeyDown(key KeyCode) bool {
	if inputState == nil || key >= KEYS_MAX_KEYS {
		return false
	}
	return inputState.KeyboardCurrent.Keys[key]
}

func InputWasKeyDown(key KeyCode) bool {
	if inputState == nil || key >= KEYS_MAX_KEYS {
		return false
	}
	return inputState.KeyboardPrevious.Keys[key]
}

// InputProcessKey records the key state and fires a pressed or released event when it changed.
func InputProcessKey(key KeyCode, pressed bool) {
	if inputState == nil || key >= KEYS_MAX_KEYS {
		return
	}
	if inputState.KeyboardCurrent.Keys[key] == pressed {
		return
	}
	inputState.KeyboardCurrent.Keys[key] = pressed

	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}
	var ctx EventContext
	ctx.Data.U16[0] = uint16(key)
	EventFire(code, nil, ctx)
}

func InputGetMousePosition() (float64, float64) {
	if inputState == nil {
		return 0, 0
	}
	return inputState.MouseCurrent.X, inputState.MouseCurrent.Y
}

// InputProcessMouseMove records the cursor position and fires a moved event carrying the delta.
func InputProcessMouseMove(x, y float64) {
	if inputState == nil {
		return
	}
	m := &inputState.MouseCurrent
	if m.Valid && m.X == x && m.Y == y {
		return
	}
	var dx, dy float64
	if m.Valid {
		dx, dy = x-m.X, y-m.Y
	}
	m.X, m.Y, m.Valid = x, y, true

	var ctx EventContext
	ctx.Data.F64[0], ctx.Data.F64[1] = x, y
	ctx.Data.F64[2], ctx.Data.F64[3] = dx, dy
	EventFire(EVENT_CODE_MOUSE_MOVED, nil, ctx)
}
