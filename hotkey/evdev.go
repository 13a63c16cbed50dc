package hotkey

import "encoding/binary"

// Linux input_event on 64-bit: 16 bytes timeval, u16 type, u16 code, s32 value.
const inputEventSize = 24

const (
	evKey = 1

	keyRelease = 0
	keyPress   = 1

	keyLCtrl  = 29
	keyRCtrl  = 97
	keyLShift = 42
	keyRShift = 54
	keySpace  = 57
)

type inputEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

// decodeEvents parses every complete event in buf; a trailing partial
// event is ignored.
func decodeEvents(buf []byte) []inputEvent {
	events := make([]inputEvent, 0, len(buf)/inputEventSize)
	for i := 0; i+inputEventSize <= len(buf); i += inputEventSize {
		events = append(events, inputEvent{
			Type:  binary.LittleEndian.Uint16(buf[i+16:]),
			Code:  binary.LittleEndian.Uint16(buf[i+18:]),
			Value: int32(binary.LittleEndian.Uint32(buf[i+20:])),
		})
	}
	return events
}

// comboTracker follows modifier state for one keyboard and reports the
// edges of Ctrl+Shift+Space. Autorepeat (value 2) keeps modifiers held.
type comboTracker struct {
	ctrl, shift, active bool
}

func (c *comboTracker) feed(ev inputEvent) (down, up bool) {
	if ev.Type != evKey {
		return false, false
	}
	pressed := ev.Value == keyPress
	released := ev.Value == keyRelease

	switch ev.Code {
	case keyLCtrl, keyRCtrl:
		c.ctrl = pressed || (!released && c.ctrl)
	case keyLShift, keyRShift:
		c.shift = pressed || (!released && c.shift)
	case keySpace:
		if pressed && !c.active && c.ctrl && c.shift {
			c.active = true
			return true, false
		}
		if released && c.active {
			c.active = false
			return false, true
		}
	}
	return false, false
}
