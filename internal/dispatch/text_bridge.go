package dispatch

import (
	"github.com/go-ai5/ai5vm/internal/mes"
	"github.com/go-ai5/ai5vm/internal/text"
)

// This file adapts AI Shimai's text_TXT override onto internal/text,
// sourcing font tables/masks/color planes from file_data at the var32
// offsets aishimai.c's ai_shimai_TXT and render_text_select use.

func layoutFromSysvars(vm *mes.VM) (text.Layout, uint16, error) {
	var l text.Layout
	var err error
	if l.StartX, err = vm.Mem.SystemVar16Get(mes.SysVar16TextStartX); err != nil {
		return l, 0, err
	}
	if l.EndX, err = vm.Mem.SystemVar16Get(mes.SysVar16TextEndX); err != nil {
		return l, 0, err
	}
	if l.CharSpace, err = vm.Mem.SystemVar16Get(mes.SysVar16CharSpace); err != nil {
		return l, 0, err
	}
	if l.LineSpace, err = vm.Mem.SystemVar16Get(mes.SysVar16LineSpace); err != nil {
		return l, 0, err
	}
	if l.CursorX, err = vm.Mem.SystemVar16Get(mes.SysVar16TextCursorX); err != nil {
		return l, 0, err
	}
	if l.CursorY, err = vm.Mem.SystemVar16Get(mes.SysVar16TextCursorY); err != nil {
		return l, 0, err
	}
	dst, err := vm.Mem.SystemVar16Get(mes.SysVar16DstSurface)
	if err != nil {
		return l, 0, err
	}
	return l, dst, nil
}

func saveLayout(vm *mes.VM, l text.Layout) error {
	if err := vm.Mem.SystemVar16Set(mes.SysVar16TextCursorX, l.CursorX); err != nil {
		return err
	}
	return vm.Mem.SystemVar16Set(mes.SysVar16TextCursorY, l.CursorY)
}

func fontTable(vm *mes.VM, var32No uint32) ([]byte, error) {
	off, err := vm.Mem.Var32Get(var32No)
	if err != nil {
		return nil, err
	}
	fd := vm.Mem.FileData()
	if int(off) > len(fd) {
		return nil, vmFatalf("text: font data offset out of range")
	}
	return fd[off:], nil
}

func vmFatalf(msg string) error { return &textError{msg} }

type textError struct{ msg string }

func (e *textError) Error() string { return e.msg }

// renderDefaultFont implements ai_shimai_TXT's default (non-SELECT)
// path: a 28x28 glyph set in three possible blend modes.
func renderDefaultFont(d *Dispatcher, vm *mes.VM, s string, merged, redscale bool) error {
	layout, dstSurface, err := layoutFromSysvars(vm)
	if err != nil {
		return err
	}
	tbl, err := fontTable(vm, 0)
	if err != nil {
		return err
	}
	msk, err := fontTable(vm, 1)
	if err != nil {
		return err
	}
	fnt, err := fontTable(vm, 2)
	if err != nil {
		return err
	}

	surface := int(dstSurface)
	mode := text.ModeSeparate
	if redscale {
		mode = text.ModeRedscale
		surface = int(dstSurface)
	} else if merged {
		mode = text.ModeMerged
		surface = int(dstSurface)
	} else {
		surface = 7
	}

	pixels, pitch, err := d.Graphics.Surface(surface)
	if err != nil {
		return err
	}
	f := text.Font{CharW: 28, CharH: 28, Table: tbl, Mask: msk, Data: fnt}
	text.Render(pixels, pitch, text.DecodeUTF16LE([]byte(s)), f, mode, &layout)
	d.Graphics.Dirty(surface)
	return saveLayout(vm, layout)
}

// renderSelectFont implements render_text_select: one of three larger
// glyph sets (SELECT1/2/3), always rendered in merged mode with an
// embedded palette.
func renderSelectFont(d *Dispatcher, vm *mes.VM, s string, sel uint8) error {
	if sel < 1 || sel > 3 {
		return vmFatalf("text: invalid SELECT font index")
	}
	layout, dstSurface, err := layoutFromSysvars(vm)
	if err != nil {
		return err
	}
	charSize := 47
	if sel == 2 {
		charSize = 49
	}
	base := uint32(sel-1) * 3
	tbl, err := fontTable(vm, 3)
	if err != nil {
		return err
	}
	pal, err := fontTable(vm, 4+base)
	if err != nil {
		return err
	}
	msk, err := fontTable(vm, 5+base)
	if err != nil {
		return err
	}
	fnt, err := fontTable(vm, 6+base)
	if err != nil {
		return err
	}

	pixels, pitch, err := d.Graphics.Surface(int(dstSurface))
	if err != nil {
		return err
	}
	f := text.Font{CharW: charSize, CharH: charSize, Table: tbl, Mask: msk, Data: fnt, Palette: pal}
	text.Render(pixels, pitch, text.DecodeUTF16LE([]byte(s)), f, text.ModeMerged, &layout)
	d.Graphics.Dirty(int(dstSurface))
	return saveLayout(vm, layout)
}

// DefaultText adapts a Dispatcher to mes.TextRenderer for titles with
// no CustomTXT override (game.h's `custom_TXT == NULL` case): it falls
// back to the separate-mode default font path, the same one
// ai_shimai_TXT itself falls through to when none of var4[2002]/
// var4[2017]/var4[2018]'s font-select/merge/redscale bits are set.
type DefaultText struct{ D *Dispatcher }

func (t DefaultText) DrawText(vm *mes.VM, text string) error {
	return renderDefaultFont(t.D, vm, text, false, false)
}

// mergeTextOverlay implements update_text: merges surface 7's
// "separate"-mode color+mask planes onto the overlay surface.
func mergeTextOverlay(d *Dispatcher) error {
	src, srcPitch, err := d.Graphics.Surface(7)
	if err != nil {
		return err
	}
	dst, dstPitch := d.Graphics.Overlay()
	text.MergeOverlay(src, srcPitch, dst, dstPitch)
	d.Graphics.ScreenDirty()
	return nil
}
