package permissions

import (
	"errors"
	"fmt"
)

// Status mirrors the platform's authorization states
type Status int

const (
	NotDetermined Status = iota
	Restricted
	Denied
	Authorized
)

func (s Status) String() string {
	switch s {
	case NotDetermined:
		return "not determined"
	case Restricted:
		return "restricted"
	case Denied:
		return "denied"
	case Authorized:
		return "authorized"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

var (
	ErrMicrophone = errors.New("microphone permission not granted")
	ErrInputHook  = errors.New("accessibility permission not granted")
)

// Platform hooks, replaced per OS
var (
	microphoneStatus  = func() Status { return Authorized }
	requestMicrophone = func() {}
	inputHookTrusted  = func() bool { return true }
)

// Ensure checks that capture can start, prompting the OS for access when it
// has not been decided yet. withHotkey also requires the accessibility
// grant the global input hook needs.
func Ensure(withHotkey bool) error {
	switch st := microphoneStatus(); st {
	case Authorized:
	case NotDetermined:
		requestMicrophone()
		return fmt.Errorf("%w: approve the prompt and restart", ErrMicrophone)
	default:
		return fmt.Errorf("%w: %s", ErrMicrophone, st)
	}

	if withHotkey && !inputHookTrusted() {
		return fmt.Errorf("%w: enable it in System Settings > Privacy & Security > Accessibility", ErrInputHook)
	}
	return nil
}
