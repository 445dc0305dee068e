//go:build linux

package tray

import (
	"runtime"

	"github.com/getlantern/systray"
)

// Register starts the tray on its own locked OS thread. On linux the menu
// is driven by gtk_main, which systray.Run owns, while the overlay window
// keeps the main thread.
func (u *UI) Register() {
	go func() {
		runtime.LockOSThread()
		systray.Run(u.onReady, u.onExit)
	}()
}
