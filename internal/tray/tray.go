package tray

import (
	"fmt"
	"sync/atomic"

	"github.com/atotto/clipboard"
	"github.com/getlantern/systray"
	"github.com/rs/zerolog"
)

// Controls is what the tray menu can act on
type Controls interface {
	DeviceName() string
	Visible() bool
	SetVisible(v bool)
	Quit()
}

type UI struct {
	ctl     Controls
	version string
	commit  string
	log     zerolog.Logger
	copy    func(string) error

	// Set by onReady on the tray thread, read by SyncVisible from the hotkey
	mVisible atomic.Pointer[systray.MenuItem]
}

func New(ctl Controls, version, commit string, log zerolog.Logger) *UI {
	return &UI{
		ctl:     ctl,
		version: version,
		commit:  commit,
		log:     log,
		copy:    clipboard.WriteAll,
	}
}

// Quit removes the tray icon
func (u *UI) Quit() {
	systray.Quit()
}

func (u *UI) onReady() {
	u.updateStatus(u.ctl.Visible())
	systray.SetTooltip("Microphone level overlay")

	mDevice := systray.AddMenuItem(deviceLabel(u.ctl.DeviceName()), "Capture device")
	mDevice.Disable()
	systray.AddSeparator()

	mVisible := systray.AddMenuItemCheckbox("Show Overlay", "Show or hide the level bars", u.ctl.Visible())
	u.mVisible.Store(mVisible)
	mCopy := systray.AddMenuItem("Copy Device Name", "Copy the capture device name to the clipboard")

	systray.AddSeparator()
	mAbout := systray.AddMenuItem("About", "About volume-overlay")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	go u.handleEvents(mVisible, mCopy, mAbout, mQuit)
}

func (u *UI) handleEvents(mVisible, mCopy, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-mVisible.ClickedCh:
			u.toggleVisible()
		case <-mCopy.ClickedCh:
			u.copyDevice()
		case <-mAbout.ClickedCh:
			u.log.Info().Str("version", u.version).Str("commit", u.commit).Msg("volume-overlay")
		case <-mQuit.ClickedCh:
			u.ctl.Quit()
			return
		}
	}
}

func (u *UI) toggleVisible() bool {
	v := !u.ctl.Visible()
	u.ctl.SetVisible(v)
	u.SyncVisible(v)
	u.log.Info().Bool("visible", v).Msg("Toggled overlay")
	return v
}

// SyncVisible reflects a visibility change made elsewhere, e.g. by hotkey
func (u *UI) SyncVisible(v bool) {
	item := u.mVisible.Load()
	if item == nil {
		return
	}
	if v {
		item.Check()
	} else {
		item.Uncheck()
	}
	u.updateStatus(v)
}

func (u *UI) copyDevice() {
	name := u.ctl.DeviceName()
	if err := u.copy(name); err != nil {
		u.log.Error().Err(err).Msg("Failed to copy device name")
		return
	}
	u.log.Info().Str("device", name).Msg("Copied device name")
}

func (u *UI) onExit() {}

func (u *UI) updateStatus(visible bool) {
	systray.SetTitle(statusTitle(visible))
}

// statusTitle returns the tray title for the overlay state
func statusTitle(visible bool) string {
	if visible {
		return "🎤 🟢"
	}
	return "🎤 ⚪️"
}

func deviceLabel(name string) string {
	if name == "" {
		return "Mic: (none)"
	}
	return fmt.Sprintf("Mic: %s", name)
}
