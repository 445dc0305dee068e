package overlay

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrChannelOutOfRange is returned when binding a sink to a channel the
// controller was not sized for.
var ErrChannelOutOfRange = errors.New("channel out of range")

// VolumeSink receives the most recent level for one channel. SetVolume is
// only ever called from the goroutine that runs Pump.
type VolumeSink interface {
	SetVolume(level int)
}

// VolumeSinkFunc adapts a function to VolumeSink
type VolumeSinkFunc func(level int)

func (f VolumeSinkFunc) SetVolume(level int) { f(level) }

type binding struct {
	sink VolumeSink
}

// Controller relays per-channel levels from the capture callback to the
// sinks bound for each channel. Dispatch runs on the audio thread and only
// posts into the mailbox; Pump runs on the UI thread and applies them.
type Controller struct {
	mailbox *Mailbox
	sinks   []atomic.Pointer[binding]
}

// NewController returns a controller for the given channel count
func NewController(channels int) *Controller {
	mb := NewMailbox(channels)
	return &Controller{
		mailbox: mb,
		sinks:   make([]atomic.Pointer[binding], mb.Channels()),
	}
}

// Register binds sink to ch, replacing any previous binding. A nil sink
// unbinds the channel.
func (c *Controller) Register(ch int, sink VolumeSink) error {
	if ch < 0 || ch >= len(c.sinks) {
		return fmt.Errorf("register channel %d of %d: %w", ch, len(c.sinks), ErrChannelOutOfRange)
	}
	if sink == nil {
		c.sinks[ch].Store(nil)
		return nil
	}
	c.sinks[ch].Store(&binding{sink: sink})
	return nil
}

// Dispatch queues level for ch. It does nothing when no sink is bound to ch
// or ch is out of range. Safe to call from the real-time callback.
func (c *Controller) Dispatch(ch, level int) {
	if ch < 0 || ch >= len(c.sinks) || c.sinks[ch].Load() == nil {
		return
	}
	c.mailbox.Post(ch, level)
}

// Pump applies every pending level to its sink and returns how many were
// applied.
func (c *Controller) Pump() int {
	applied := 0
	for ch := range c.sinks {
		b := c.sinks[ch].Load()
		if b == nil {
			continue
		}
		level, ok := c.mailbox.Take(ch)
		if !ok {
			continue
		}
		b.sink.SetVolume(level)
		applied++
	}
	return applied
}

// Channels returns the number of channels the controller serves
func (c *Controller) Channels() int {
	return len(c.sinks)
}

// Coalesced reports how many levels were replaced before Pump saw them
func (c *Controller) Coalesced() uint64 {
	return c.mailbox.Coalesced()
}
