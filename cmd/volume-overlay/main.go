package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/petems/volume-overlay/internal/app"
	"github.com/petems/volume-overlay/internal/audio"
	"github.com/petems/volume-overlay/internal/config"
	"github.com/petems/volume-overlay/internal/devices"
	"github.com/petems/volume-overlay/internal/hotkey"
	"github.com/petems/volume-overlay/internal/logging"
	"github.com/petems/volume-overlay/internal/overlay"
	"github.com/petems/volume-overlay/internal/permissions"
	"github.com/petems/volume-overlay/internal/render"
	"github.com/petems/volume-overlay/internal/tray"
	"github.com/spf13/cobra"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

var (
	cfgFile  string
	device   string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "volume-overlay",
	Short:         "Show microphone levels as click-through bars on screen",
	Long:          `volume-overlay captures a stereo input device and draws the left and right channel levels as translucent, always-on-top bars at the screen edges.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOverlay(cmd.Context())
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listDevices()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("volume-overlay %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.json in the user config dir)")
	rootCmd.Flags().StringVar(&device, "device", "", "input device index or name (skips the prompt)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runOverlay(ctx context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if device != "" {
		cfg.Audio.Device = device
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logging.NewWithLevel(cfg.LogLevel)

	// macOS requires explicit microphone approval before capture works
	if err := permissions.Ensure(cfg.Hotkey.Toggle != ""); err != nil {
		if errors.Is(err, permissions.ErrMicrophone) {
			return err
		}
		log.Warn().Err(err).Msg("Global hotkey disabled")
		cfg.Hotkey.Toggle = ""
	}

	if err := audio.Initialize(); err != nil {
		return fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}
	defer audio.Terminate()

	var keys hotkey.Manager
	if cfg.Hotkey.Toggle != "" {
		keys = hotkey.New(log)
	}

	application := app.New(app.Config{
		Config:   cfg,
		Logger:   log,
		Selector: devices.Prompt{In: os.Stdin, Out: os.Stdout},
		NewWindow: func(ctrl *overlay.Controller) app.Window {
			return render.New(render.Options{
				BarWidth:  cfg.Overlay.BarWidth,
				BarHeight: cfg.Overlay.BarHeight,
				Ceiling:   cfg.Meter.Ceiling,
				TPS:       cfg.Overlay.TPS,
				Opacity:   cfg.Overlay.Opacity,
			}, ctrl, log)
		},
		Hotkeys: keys,
	})

	if cfg.Tray.Enabled {
		// App reference resolved after construction
		application.SetStatusUpdater(tray.New(application, Version, Commit, log))
	}

	log.Info().Str("version", Version).Msg("volume-overlay starting...")

	// The overlay window MUST run on the main thread
	return application.Run(ctx)
}

func listDevices() error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	list, err := audio.ListDevices()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No input devices found")
		return nil
	}
	fmt.Print(devices.Format(list))
	return nil
}
