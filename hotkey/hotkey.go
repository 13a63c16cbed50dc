// Package hotkey reports presses of the global Ctrl+Shift+Space combo.
package hotkey

// Combo is the key combination every backend listens for.
const Combo = "Ctrl+Shift+Space"

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// notify delivers without blocking; a pending edge already says the same.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
