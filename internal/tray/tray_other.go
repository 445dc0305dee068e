//go:build !linux

package tray

import "github.com/getlantern/systray"

// Register sets up the tray without running its loop; the overlay window
// owns the main loop and the native menu runs on it.
func (u *UI) Register() {
	systray.Register(u.onReady, u.onExit)
}
