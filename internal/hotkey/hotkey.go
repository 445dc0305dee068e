package hotkey

import (
	"fmt"
	"strings"
	"sync"
	"time"

	hook "github.com/robotn/gohook"
	"github.com/rs/zerolog"
)

// repeatGuard swallows auto-repeat KeyDown events while a chord is held
const repeatGuard = 300 * time.Millisecond

// Manager defines the interface for global hotkey management
type Manager interface {
	Register(accel string, callback func()) error
	Start()
	Close() error
}

type hookManager struct {
	log zerolog.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	done    chan struct{}
}

// New creates a hotkey manager backed by a global input hook
func New(log zerolog.Logger) Manager {
	return &hookManager{
		log:  log,
		done: make(chan struct{}),
	}
}

// Register binds callback to accel, e.g. "Alt+Shift+V". Bindings must be
// registered before Start.
func (m *hookManager) Register(accel string, callback func()) error {
	keys, err := ParseAccel(accel)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("register %q: hook already started", accel)
	}

	fire := debounce(callback, repeatGuard, time.Now)
	hook.Register(hook.KeyDown, keys, func(hook.Event) {
		fire()
	})
	m.log.Info().Str("hotkey", accel).Msg("Registered global hotkey")
	return nil
}

// Start begins processing input events in the background
func (m *hookManager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.closed {
		return
	}
	m.started = true

	events := hook.Start()
	go func() {
		defer close(m.done)
		<-hook.Process(events)
	}()
}

func (m *hookManager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	started := m.started
	m.mu.Unlock()

	if started {
		hook.End()
		select {
		case <-m.done:
		case <-time.After(time.Second):
			m.log.Warn().Msg("Input hook did not stop in time")
		}
	}
	return nil
}

var modifiers = map[string]string{
	"alt":     "alt",
	"option":  "alt",
	"ctrl":    "ctrl",
	"control": "ctrl",
	"shift":   "shift",
	"cmd":     "cmd",
	"command": "cmd",
	"super":   "cmd",
}

// ParseAccel turns "Alt+Shift+V" into the lower-case key names the hook
// expects. Exactly one non-modifier key is required, and it comes last.
func ParseAccel(accel string) ([]string, error) {
	parts := strings.Split(accel, "+")
	keys := make([]string, 0, len(parts))
	var key string

	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			return nil, fmt.Errorf("invalid hotkey %q: empty key", accel)
		}
		if mod, ok := modifiers[p]; ok {
			keys = append(keys, mod)
			continue
		}
		if key != "" {
			return nil, fmt.Errorf("invalid hotkey %q: more than one key", accel)
		}
		key = p
	}

	if key == "" {
		return nil, fmt.Errorf("invalid hotkey %q: no key", accel)
	}
	return append(keys, key), nil
}

// debounce returns a function that calls fn at most once per interval
func debounce(fn func(), interval time.Duration, now func() time.Time) func() {
	var (
		mu   sync.Mutex
		last time.Time
	)
	return func() {
		mu.Lock()
		t := now()
		if !last.IsZero() && t.Sub(last) < interval {
			mu.Unlock()
			return
		}
		last = t
		mu.Unlock()
		fn()
	}
}
