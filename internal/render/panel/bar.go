// Package panel holds the geometry of the overlay meters.
package panel

import "image"

// Bar is one channel's meter. It implements overlay.VolumeSink and keeps
// only the last applied level. It is owned by the ebiten goroutine.
type Bar struct {
	// Bounds is the panel in window coordinates
	Bounds  image.Rectangle
	ceiling int
	level   int
}

// NewBar returns an empty bar occupying bounds
func NewBar(bounds image.Rectangle, ceiling int) *Bar {
	if ceiling <= 0 {
		ceiling = 100
	}
	return &Bar{Bounds: bounds, ceiling: ceiling}
}

// SetVolume replaces the displayed level, clamped to [0, ceiling]
func (b *Bar) SetVolume(level int) {
	switch {
	case level < 0:
		level = 0
	case level > b.ceiling:
		level = b.ceiling
	}
	b.level = level
}

func (b *Bar) Level() int {
	return b.level
}

// Track is the meter area inside the panel: half the panel's width and two
// thirds of its height, centered horizontally.
func (b *Bar) Track() image.Rectangle {
	w, h := b.Bounds.Dx(), b.Bounds.Dy()
	origin := b.Bounds.Min.Add(image.Pt(w/4, h/6))
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w/2, h*2/3))}
}

// Fill is the part of the track covered by the current level, growing
// upwards from the bottom.
func (b *Bar) Fill() image.Rectangle {
	track := b.Track()
	height := track.Dy() * b.level / b.ceiling
	return image.Rect(track.Min.X, track.Max.Y-height, track.Max.X, track.Max.Y)
}

// Place lays out a left and right panel across a window as wide as the
// screen. It returns the window size, its vertical position on screen and
// the two panels.
func Place(screenW, screenH, barW, barH int) (size image.Point, top int, left, right image.Rectangle) {
	if screenW < 2*barW {
		screenW = 2 * barW
	}
	size = image.Pt(screenW, barH)
	top = (screenH - barH) / 2
	if top < 0 {
		top = 0
	}
	left = image.Rect(0, 0, barW, barH)
	right = image.Rect(screenW-barW, 0, screenW, barH)
	return size, top, left, right
}
