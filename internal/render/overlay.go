package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/petems/volume-overlay/internal/overlay"
	"github.com/petems/volume-overlay/internal/render/panel"
	"github.com/rs/zerolog"
)

const (
	fallbackScreenW = 1920
	fallbackScreenH = 1080
	borderWidth     = 2
)

var (
	borderColor = color.RGBA{128, 128, 128, 255}
	fillColor   = color.NRGBA{0, 200, 120, 255}
)

// Pumper applies pending levels to the bars. It is called once per tick on
// the ebiten goroutine.
type Pumper interface {
	Pump() int
}

// ClickThrough toggles whether the overlay lets mouse input reach the
// windows underneath it.
type ClickThrough interface {
	SetClickThrough(enabled bool)
}

type windowPassthrough struct{}

func (windowPassthrough) SetClickThrough(enabled bool) {
	ebiten.SetWindowMousePassthrough(enabled)
}

type Options struct {
	BarWidth  int
	BarHeight int
	Ceiling   int
	TPS       int
	Opacity   float64

	// ScreenWidth and ScreenHeight override the monitor size when non-zero
	ScreenWidth  int
	ScreenHeight int
}

// Overlay is a transparent, undecorated, always-on-top window showing one
// bar per channel at the screen edges.
type Overlay struct {
	opts  Options
	pump  Pumper
	log   zerolog.Logger
	click ClickThrough

	bars    []*panel.Bar
	size    image.Point
	top     int
	visible atomic.Bool
	ctx     context.Context
}

// New lays out the left and right bars. Register Sinks() with the
// controller before calling Run.
func New(opts Options, pump Pumper, log zerolog.Logger) *Overlay {
	screenW, screenH := opts.ScreenWidth, opts.ScreenHeight
	if screenW == 0 || screenH == 0 {
		screenW, screenH = monitorSize()
	}

	size, top, left, right := panel.Place(screenW, screenH, opts.BarWidth, opts.BarHeight)
	o := &Overlay{
		opts:  opts,
		pump:  pump,
		log:   log,
		click: windowPassthrough{},
		bars:  []*panel.Bar{panel.NewBar(left, opts.Ceiling), panel.NewBar(right, opts.Ceiling)},
		size:  size,
		top:   top,
		ctx:   context.Background(),
	}
	o.visible.Store(true)
	return o
}

func monitorSize() (int, int) {
	if m := ebiten.Monitor(); m != nil {
		if w, h := m.Size(); w > 0 && h > 0 {
			return w, h
		}
	}
	return fallbackScreenW, fallbackScreenH
}

// Bars returns the left and right bars, in channel order
func (o *Overlay) Bars() []*panel.Bar {
	return o.bars
}

// Sinks returns the bars as volume sinks, in channel order
func (o *Overlay) Sinks() []overlay.VolumeSink {
	sinks := make([]overlay.VolumeSink, len(o.bars))
	for i, b := range o.bars {
		sinks[i] = b
	}
	return sinks
}

// SetVisible shows or hides the bars. Capture is unaffected. Safe to call
// from any goroutine.
func (o *Overlay) SetVisible(v bool) {
	o.visible.Store(v)
}

func (o *Overlay) Visible() bool {
	return o.visible.Load()
}

// ToggleVisible flips visibility and returns the new state
func (o *Overlay) ToggleVisible() bool {
	for {
		cur := o.visible.Load()
		if o.visible.CompareAndSwap(cur, !cur) {
			return !cur
		}
	}
}

// Run opens the window and blocks until ctx is cancelled or the window is
// closed. It must be called from the main goroutine.
func (o *Overlay) Run(ctx context.Context) error {
	o.ctx = ctx

	ebiten.SetWindowTitle("volume-overlay")
	ebiten.SetWindowDecorated(false)
	ebiten.SetWindowFloating(true)
	ebiten.SetWindowSize(o.size.X, o.size.Y)
	ebiten.SetWindowPosition(0, o.top)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetTPS(o.opts.TPS)
	o.click.SetClickThrough(true)

	o.log.Debug().
		Int("width", o.size.X).
		Int("height", o.size.Y).
		Int("top", o.top).
		Msg("Opening overlay window")

	err := ebiten.RunGameWithOptions(o, &ebiten.RunGameOptions{
		ScreenTransparent: true,
		SkipTaskbar:       true,
		InitUnfocused:     true,
	})
	if err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	return nil
}

// Update drains pending levels into the bars
func (o *Overlay) Update() error {
	if o.ctx.Err() != nil {
		return ebiten.Termination
	}
	o.pump.Pump()
	return nil
}

func (o *Overlay) Draw(screen *ebiten.Image) {
	if !o.Visible() {
		return
	}
	bg := color.NRGBA{0, 0, 0, uint8(255 * o.opts.Opacity)}
	fill := fillColor
	fill.A = uint8(255 * o.opts.Opacity)

	for _, b := range o.bars {
		track := b.Track()
		drawRect(screen, track, bg)
		if f := b.Fill(); !f.Empty() {
			drawRect(screen, f, fill)
		}
		vector.StrokeRect(screen,
			float32(track.Min.X), float32(track.Min.Y),
			float32(track.Dx()), float32(track.Dy()),
			borderWidth, borderColor, false)
	}
}

func (o *Overlay) Layout(_, _ int) (int, int) {
	return o.size.X, o.size.Y
}

func drawRect(dst *ebiten.Image, r image.Rectangle, clr color.Color) {
	vector.DrawFilledRect(dst,
		float32(r.Min.X), float32(r.Min.Y),
		float32(r.Dx()), float32(r.Dy()),
		clr, false)
}
