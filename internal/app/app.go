package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/petems/volume-overlay/internal/audio"
	"github.com/petems/volume-overlay/internal/config"
	"github.com/petems/volume-overlay/internal/devices"
	"github.com/petems/volume-overlay/internal/hotkey"
	"github.com/petems/volume-overlay/internal/meter"
	"github.com/petems/volume-overlay/internal/overlay"
	"github.com/rs/zerolog"
)

// Session is an open capture stream
type Session interface {
	Close() error
	Stats() audio.Stats
}

// Window renders the sinks and owns the UI loop
type Window interface {
	Sinks() []overlay.VolumeSink
	Run(ctx context.Context) error
	Visible() bool
	SetVisible(v bool)
	ToggleVisible() bool
}

// StatusUpdater is the tray (or anything else) mirroring overlay state
type StatusUpdater interface {
	Register()
	SyncVisible(v bool)
	Quit()
}

type (
	ListFunc   func() ([]audio.Device, error)
	OpenFunc   func(dev audio.Device, handler audio.BlockHandler, opts ...audio.Option) (Session, error)
	WindowFunc func(pump *overlay.Controller) Window
)

type Config struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Selector devices.Selector

	ListDevices ListFunc
	OpenSession OpenFunc
	NewWindow   WindowFunc

	Hotkeys       hotkey.Manager // Optional - can be nil
	StatusUpdater StatusUpdater  // Optional - can be nil
}

// App is the application context: it chooses the device, wires capture to
// the overlay and runs until the window loop ends.
type App struct {
	cfg      *config.Config
	log      zerolog.Logger
	selector devices.Selector
	list     ListFunc
	open     OpenFunc
	window   WindowFunc
	hotkeys  hotkey.Manager

	mu     sync.Mutex
	status StatusUpdater
	device audio.Device
	win    Window
	cancel context.CancelFunc
}

func New(cfg Config) *App {
	a := &App{
		cfg:      cfg.Config,
		log:      cfg.Logger,
		selector: cfg.Selector,
		list:     cfg.ListDevices,
		open:     cfg.OpenSession,
		window:   cfg.NewWindow,
		hotkeys:  cfg.Hotkeys,
		status:   cfg.StatusUpdater,
	}
	if a.list == nil {
		a.list = audio.ListDevices
	}
	if a.open == nil {
		a.open = func(dev audio.Device, h audio.BlockHandler, opts ...audio.Option) (Session, error) {
			return audio.Open(dev, h, opts...)
		}
	}
	return a
}

// SetStatusUpdater sets the tray reference (for circular dependency resolution)
func (a *App) SetStatusUpdater(s StatusUpdater) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = s
}

// Run blocks until ctx is cancelled, Quit is called or the window closes.
// Device selection and stream open failures are returned; errors while
// capturing are logged and never end the run.
func (a *App) Run(ctx context.Context) error {
	if a.window == nil {
		return errors.New("app: no window factory")
	}

	dev, err := a.chooseDevice()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctrl := overlay.NewController(a.cfg.Audio.Channels)
	win := a.window(ctrl)
	for ch, sink := range win.Sinks() {
		if ch >= ctrl.Channels() {
			break
		}
		if err := ctrl.Register(ch, sink); err != nil {
			return err
		}
	}

	a.mu.Lock()
	a.device = dev
	a.win = win
	a.cancel = cancel
	status := a.status
	a.mu.Unlock()

	est := meter.Estimator{Gain: a.cfg.Meter.Gain, Ceiling: a.cfg.Meter.Ceiling}
	session, err := a.open(dev, audio.MeterHandler(est, ctrl),
		audio.WithChannels(a.cfg.Audio.Channels),
		audio.WithSampleRate(a.cfg.Audio.SampleRate),
		audio.WithBlockSize(a.cfg.Audio.BlockSize),
		audio.WithLogger(a.log),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			a.log.Error().Err(err).Msg("Failed to close audio session")
		}
		st := session.Stats()
		a.log.Info().
			Uint64("blocks", st.Blocks).
			Uint64("coalesced", ctrl.Coalesced()).
			Msg("Capture finished")
	}()

	a.startHotkeys()
	if a.hotkeys != nil {
		defer a.hotkeys.Close()
	}

	if status != nil {
		status.Register()
		defer status.Quit()
	}

	a.log.Info().Str("device", dev.Name).Msg("Overlay running")
	if err := win.Run(ctx); err != nil {
		return fmt.Errorf("overlay window: %w", err)
	}
	a.log.Info().Msg("Shutting down...")
	return nil
}

func (a *App) chooseDevice() (audio.Device, error) {
	list, err := a.list()
	if err != nil {
		return audio.Device{}, fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}

	dev, prompted, err := devices.Choose(list, a.cfg.Audio.Device, a.cfg.Audio.DeviceIndex, a.selector)
	if errors.Is(err, devices.ErrNoDeviceSelected) {
		return audio.Device{}, err
	}
	if err != nil {
		return audio.Device{}, fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}

	if prompted {
		if err := a.cfg.RememberDevice(dev.Name, dev.Index); err != nil {
			a.log.Warn().Err(err).Msg("Failed to remember device")
		}
	}
	a.log.Info().Int("index", dev.Index).Str("device", dev.Name).Msg("Selected input device")
	return dev, nil
}

func (a *App) startHotkeys() {
	if a.hotkeys == nil || a.cfg.Hotkey.Toggle == "" {
		return
	}
	err := a.hotkeys.Register(a.cfg.Hotkey.Toggle, func() {
		a.ToggleVisible()
	})
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to register hotkey")
		return
	}
	a.hotkeys.Start()
}

// Controls used by the tray

func (a *App) DeviceName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.device.Name
}

func (a *App) Visible() bool {
	a.mu.Lock()
	win := a.win
	a.mu.Unlock()
	return win != nil && win.Visible()
}

func (a *App) SetVisible(v bool) {
	a.mu.Lock()
	win := a.win
	a.mu.Unlock()
	if win != nil {
		win.SetVisible(v)
	}
}

// ToggleVisible flips overlay visibility and tells the status updater
func (a *App) ToggleVisible() {
	a.mu.Lock()
	win, status := a.win, a.status
	a.mu.Unlock()
	if win == nil {
		return
	}
	v := win.ToggleVisible()
	if status != nil {
		status.SyncVisible(v)
	}
	a.log.Debug().Bool("visible", v).Msg("Toggled overlay")
}

// Quit ends Run
func (a *App) Quit() {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
