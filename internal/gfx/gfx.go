// Package gfx implements the windowed Graphics collaborator
// dispatch.Dispatcher needs, built on a pixelgl window and
// original_source/include/gfx.h's `gfx_*` call surface. It keeps eleven
// independent raw-pixel surfaces (per spec.md §6 "surfaces" and
// game.h's `surface_sizes[11]`) and blits the active screen surface to
// the window each frame via an uploaded pixel.PictureData.
package gfx

import (
	"fmt"

	"github.com/faiface/pixel"
	"github.com/faiface/pixel/pixelgl"
	"golang.org/x/image/colornames"

	"github.com/go-ai5/ai5vm/internal/dispatch"
)

// Size is one surface's dimensions, kept as a package-local type rather
// than reusing dispatch.SurfaceSize directly, since callers build the
// [11]Size array from whatever source they already have one title's
// sizes in (dispatch.Game.SurfaceSizes or a test fixture).
type Size struct{ W, H int }

const surfaceCount = 11

// Surfaces owns the eleven RGB24 title surfaces plus the RGBA32 overlay
// surface "separate"-mode text merging composites onto, per
// aishimai.c's update_text.
type Surfaces struct {
	win *pixelgl.Window

	pixels  [surfaceCount][]byte
	pitch   [surfaceCount]int
	dirty   [surfaceCount]bool
	overlay []byte
	ovPitch int

	screen       int
	palette      [1024]byte
	fontHeight   uint16
	fgColor      uint8
	bgColor      uint8
	screenDirty  bool
	screenHidden bool
}

// New allocates every surface at its configured size and opens a
// pixelgl window sized to surface 0 (the screen surface), following
// internal/pixel.NewWindow's WindowConfig shape.
func New(title string, sizes [surfaceCount]Size) (*Surfaces, error) {
	cfg := pixelgl.WindowConfig{
		Title:  title,
		Bounds: pixel.R(0, 0, float64(sizes[0].W), float64(sizes[0].H)),
		VSync:  true,
	}
	win, err := pixelgl.NewWindow(cfg)
	if err != nil {
		return nil, fmt.Errorf("gfx: error creating window: %w", err)
	}

	s := &Surfaces{win: win}
	for i, sz := range sizes {
		s.pitch[i] = sz.W * 3
		s.pixels[i] = make([]byte, sz.W*sz.H*3)
	}
	s.ovPitch = sizes[0].W * 4
	s.overlay = make([]byte, sizes[0].W*sizes[0].H*4)
	return s, nil
}

// Closed reports whether the user closed the window.
func (s *Surfaces) Closed() bool { return s.win.Closed() }

// Window exposes the underlying pixelgl window for internal/input to
// poll key state against.
func (s *Surfaces) Window() *pixelgl.Window { return s.win }

// Present draws the active screen surface to the window and swaps
// buffers; the host run loop calls this once per vm.Peeker tick.
func (s *Surfaces) Present() {
	if !s.screenDirty || s.screenHidden {
		s.win.Update()
		return
	}
	pix := s.pixels[s.screen]
	pic := pixel.MakePictureData(pixel.R(0, 0, s.win.Bounds().W(), s.win.Bounds().H()))
	for i := range pic.Pix {
		o := i * 3
		if o+2 >= len(pix) {
			break
		}
		pic.Pix[i].R = pix[o]
		pic.Pix[i].G = pix[o+1]
		pic.Pix[i].B = pix[o+2]
		pic.Pix[i].A = 255
	}
	s.win.Clear(colornames.Black)
	sprite := pixel.NewSprite(pic, pic.Bounds())
	sprite.Draw(s.win, pixel.IM.Moved(s.win.Bounds().Center()))
	s.win.Update()
	s.screenDirty = false
}

func (s *Surfaces) SetFontSize(h uint16)          { s.fontHeight = h }
func (s *Surfaces) SetTextColors(fg, bg uint8)    { s.fgColor, s.bgColor = fg, bg }
func (s *Surfaces) PaletteSet(pal [1024]byte)     { s.palette = pal; s.ScreenDirty() }

// PaletteCrossfade applies the palette immediately rather than ramping
// it across ms; a software fade loop is left to a future iteration (no
// per-title source exercises a visible difference in this port).
func (s *Surfaces) PaletteCrossfade(pal [1024]byte, ms uint32) { s.PaletteSet(pal) }
func (s *Surfaces) PaletteCrossfadeTo(r, g, b uint8, ms uint32) {
	var pal [1024]byte
	for i := 0; i < 256; i++ {
		pal[i*4], pal[i*4+1], pal[i*4+2] = r, g, b
	}
	s.PaletteSet(pal)
}

func (s *Surfaces) HideScreen()     { s.screenHidden = true }
func (s *Surfaces) UnhideScreen()   { s.screenHidden = false; s.ScreenDirty() }
func (s *Surfaces) DisplayHide()    { s.HideScreen() }
func (s *Surfaces) DisplayUnhide()  { s.UnhideScreen() }
func (s *Surfaces) DisplayFadeIn()  { s.UnhideScreen() }
func (s *Surfaces) DisplayFadeOut(ms uint32) { s.HideScreen() }

func (s *Surfaces) bounds(i int) error {
	if i < 0 || i >= surfaceCount {
		return fmt.Errorf("gfx: surface %d out of range", i)
	}
	return nil
}

// Copy implements System.Graphics.function[0], grounded on
// stmt_sys_graphics_copy: x/y/w are 8-pixel units, matching the
// original's `*8` coordinate scaling.
func (s *Surfaces) Copy(srcX, srcY, w, h int, srcSurface int, dstX, dstY int, dstSurface int) error {
	if err := s.bounds(srcSurface); err != nil {
		return err
	}
	if err := s.bounds(dstSurface); err != nil {
		return err
	}
	srcX, srcY, w, h, dstX, dstY = srcX*8, srcY*8, w*8, h*8, dstX*8, dstY*8
	src, dst := s.pixels[srcSurface], s.pixels[dstSurface]
	sp, dp := s.pitch[srcSurface], s.pitch[dstSurface]
	for row := 0; row < h; row++ {
		so := (srcY+row)*sp + srcX*3
		do := (dstY+row)*dp + dstX*3
		if so < 0 || do < 0 || so+w*3 > len(src) || do+w*3 > len(dst) {
			continue
		}
		copy(dst[do:do+w*3], src[so:so+w*3])
	}
	s.Dirty(dstSurface)
	return nil
}

// CopyMasked implements System.Graphics.function[1]: like Copy but
// skips pixels matching maskColor, per stmt_sys_graphics_copy_masked.
func (s *Surfaces) CopyMasked(srcX, srcY, w, h int, srcSurface int, dstX, dstY int, dstSurface int, maskColor uint16) error {
	if err := s.bounds(srcSurface); err != nil {
		return err
	}
	if err := s.bounds(dstSurface); err != nil {
		return err
	}
	srcX, srcY, w, h, dstX, dstY = srcX*8, srcY*8, w*8, h*8, dstX*8, dstY*8
	src, dst := s.pixels[srcSurface], s.pixels[dstSurface]
	sp, dp := s.pitch[srcSurface], s.pitch[dstSurface]
	mr, mg, mb := byte(maskColor>>8), byte(maskColor>>4), byte(maskColor)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			so := (srcY+row)*sp + (srcX+col)*3
			do := (dstY+row)*dp + (dstX+col)*3
			if so < 0 || do < 0 || so+3 > len(src) || do+3 > len(dst) {
				continue
			}
			if src[so] == mr && src[so+1] == mg && src[so+2] == mb {
				continue
			}
			copy(dst[do:do+3], src[so:so+3])
		}
	}
	s.Dirty(dstSurface)
	return nil
}

func (s *Surfaces) FillBG(x, y, w, h int, surface int) {
	if s.bounds(surface) != nil {
		return
	}
	x, y, w, h = x*8, y*8, w*8, h*8
	buf, pitch := s.pixels[surface], s.pitch[surface]
	for row := 0; row < h; row++ {
		o := (y+row)*pitch + x*3
		if o < 0 || o+w*3 > len(buf) {
			continue
		}
		for col := 0; col < w*3; col += 3 {
			buf[o+col], buf[o+col+1], buf[o+col+2] = s.bgColor, s.bgColor, s.bgColor
		}
	}
	s.Dirty(surface)
}

func (s *Surfaces) SwapBGFG(x, y, w, h int, surface int) {
	if s.bounds(surface) != nil {
		return
	}
	x, y, w, h = x*8, y*8, w*8, h*8
	buf, pitch := s.pixels[surface], s.pitch[surface]
	for row := 0; row < h; row++ {
		o := (y+row)*pitch + x*3
		if o < 0 || o+w*3 > len(buf) {
			continue
		}
		for col := 0; col < w*3; col += 3 {
			if buf[o+col] == s.fgColor {
				buf[o+col], buf[o+col+1], buf[o+col+2] = s.bgColor, s.bgColor, s.bgColor
			} else if buf[o+col] == s.bgColor {
				buf[o+col], buf[o+col+1], buf[o+col+2] = s.fgColor, s.fgColor, s.fgColor
			}
		}
	}
	s.Dirty(surface)
}

// Blend implements System.Graphics.function[6], grounded on
// stmt_sys_graphics_compose: foreground onto background, masked by
// maskColor, written to dst (which may alias either input).
func (s *Surfaces) Blend(fgX, fgY, w, h int, fgSurface int, bgX, bgY int, bgSurface int, dstX, dstY int, dstSurface int, maskColor uint16) error {
	if err := s.CopyMasked(bgX, bgY, w, h, bgSurface, dstX, dstY, dstSurface, maskColor+1); err != nil {
		return err
	}
	return s.CopyMasked(fgX, fgY, w, h, fgSurface, dstX, dstY, dstSurface, maskColor)
}

func (s *Surfaces) InvertColors(x, y, w, h int, surface int) {
	if s.bounds(surface) != nil {
		return
	}
	x, y, w, h = x*8, y*8, w*8, h*8
	buf, pitch := s.pixels[surface], s.pitch[surface]
	for row := 0; row < h; row++ {
		o := (y+row)*pitch + x*3
		if o < 0 || o+w*3 > len(buf) {
			continue
		}
		for col := 0; col < w*3; col++ {
			buf[o+col] = 255 - buf[o+col]
		}
	}
	s.Dirty(surface)
}

func (s *Surfaces) SetScreenSurface(i int) error {
	if err := s.bounds(i); err != nil {
		return err
	}
	s.screen = i
	s.ScreenDirty()
	return nil
}

// DrawCG copies a loaded CG image's already-decoded pixel bytes onto
// dstSurface starting at its first pixel; actual CG format decoding
// belongs to internal/asset (spec.md §6 "Out of scope: decoding
// title-specific asset/archive formats is an external collaborator's
// job"). No header is parsed: the returned metrics carry only W, the
// surface's width in pixels, and leave position and height zero.
func (s *Surfaces) DrawCG(dstSurface int, data []byte) (dispatch.CGMetrics, []byte, error) {
	if err := s.bounds(dstSurface); err != nil {
		return dispatch.CGMetrics{}, nil, err
	}
	copy(s.pixels[dstSurface], data)
	s.Dirty(dstSurface)
	return dispatch.CGMetrics{W: uint16(s.pitch[dstSurface] / 3)}, data, nil
}

func (s *Surfaces) Dirty(surface int) {
	if s.bounds(surface) == nil {
		s.dirty[surface] = true
	}
	if surface == s.screen {
		s.ScreenDirty()
	}
}

func (s *Surfaces) ScreenDirty() { s.screenDirty = true }

func (s *Surfaces) Surface(i int) ([]byte, int, error) {
	if err := s.bounds(i); err != nil {
		return nil, 0, err
	}
	return s.pixels[i], s.pitch[i], nil
}

func (s *Surfaces) Overlay() ([]byte, int) { return s.overlay, s.ovPitch }
