package overlay

import "sync/atomic"

const pendingBit = uint64(1) << 32

// Mailbox hands levels from the audio thread to the UI thread. It holds at
// most one pending value per channel; posting over an unconsumed value
// replaces it. Neither side ever blocks.
type Mailbox struct {
	slots     []atomic.Uint64
	coalesced atomic.Uint64
}

// NewMailbox returns a mailbox with one slot per channel
func NewMailbox(channels int) *Mailbox {
	if channels < 0 {
		channels = 0
	}
	return &Mailbox{slots: make([]atomic.Uint64, channels)}
}

// Post stores level as the pending value for ch. It reports false if ch has
// no slot.
func (m *Mailbox) Post(ch, level int) bool {
	if ch < 0 || ch >= len(m.slots) {
		return false
	}
	if level < 0 {
		level = 0
	}
	prev := m.slots[ch].Swap(pendingBit | uint64(uint32(level)))
	if prev&pendingBit != 0 {
		m.coalesced.Add(1)
	}
	return true
}

// Take removes and returns the pending value for ch, if any
func (m *Mailbox) Take(ch int) (int, bool) {
	if ch < 0 || ch >= len(m.slots) {
		return 0, false
	}
	v := m.slots[ch].Swap(0)
	if v&pendingBit == 0 {
		return 0, false
	}
	return int(uint32(v)), true
}

// Channels returns the number of slots
func (m *Mailbox) Channels() int {
	return len(m.slots)
}

// Coalesced counts values that were overwritten before the UI consumed them
func (m *Mailbox) Coalesced() uint64 {
	return m.coalesced.Load()
}
