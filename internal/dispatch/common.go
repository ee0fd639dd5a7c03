package dispatch

import (
	"fmt"
	"time"

	"github.com/go-ai5/ai5vm/internal/mes"
)

// This file holds the SYS/UTIL handlers shared across titles before a
// title overrides them, grounded on the non-custom `stmt_sys_*`
// functions in original_source/src/vm.c (as opposed to aishimai.c's
// `ai_shimai_sys_*` overrides, which live in aishimai.go).

// sysSetFontSize is System.function[0], grounded on
// stmt_sys_set_font_size: the font height comes from sys_var16[FONT_HEIGHT],
// not from a parameter.
func sysSetFontSize(d *Dispatcher, vm *mes.VM, params *mes.ParamList) error {
	h, err := vm.Mem.SystemVar16Get(mes.SysVar16FontHeight)
	if err != nil {
		return err
	}
	d.Graphics.SetFontSize(h)
	return nil
}

// sysFile is System.function[7], grounded on stmt_sys_file: sub-function
// 0 reads a data file into file_data at an offset.
func sysFile(d *Dispatcher, vm *mes.VM, params *mes.ParamList) error {
	fn, err := params.Expr(0)
	if err != nil {
		return err
	}
	switch fn {
	case 0:
		name, err := params.Str(1)
		if err != nil {
			return err
		}
		off, err := params.Expr(2)
		if err != nil {
			return err
		}
		data, err := d.Asset.LoadData(name)
		if err != nil {
			return fmt.Errorf("dispatch: System.File.read %q: %w", name, err)
		}
		fd := vm.Mem.FileData()
		if int(off)+len(data) > len(fd) {
			return fmt.Errorf("dispatch: System.File.read %q: exceeds file_data region", name)
		}
		copy(fd[off:], data)
		return nil
	default:
		return fmt.Errorf("dispatch: System.File.function[%d] not implemented", fn)
	}
}

// sysWait is System.function[11], grounded on stmt_sys_wait: with no
// argument (or argument 0) it blocks until Activate; with a nonzero
// argument it waits up to that many milliseconds, bailing early on Shift.
func sysWait(d *Dispatcher, vm *mes.VM, params *mes.ParamList) error {
	if params.Len() == 0 {
		for d.Input.KeyWait() != InputActivate {
		}
		return nil
	}
	ticks, err := params.Expr(0)
	if err != nil {
		return err
	}
	if ticks == 0 {
		for d.Input.KeyWait() != InputActivate {
		}
		return nil
	}
	for i := uint32(0); i < ticks && !d.Input.Down(InputShift); i++ {
		time.Sleep(time.Millisecond)
	}
	d.Input.Clear()
	return nil
}

// sysSetTextColorsDirect is System.function[12], grounded on
// stmt_sys_set_text_colors: a packed byte encodes (bg<<4)|fg as 4-bit
// palette indices.
func sysSetTextColorsDirect(d *Dispatcher, vm *mes.VM, params *mes.ParamList) error {
	colors, err := params.Expr(0)
	if err != nil {
		return err
	}
	d.Graphics.SetTextColors(uint8(colors&0xf), uint8((colors>>4)&0xf))
	return nil
}

// sysFarcall is System.function[13], grounded on stmt_sys_farcall: jumps
// within file_data and returns, wired directly to mes.VM.FarCall.
func sysFarcall(d *Dispatcher, vm *mes.VM, params *mes.ParamList) error {
	addr, err := params.Expr(0)
	if err != nil {
		return err
	}
	return vm.FarCall(addr)
}

// sysGetCursorSegment is System.function[14], grounded on
// stmt_sys_check_cursor_pos: scans a table of (id, top_left, bot_right)
// entries in file_data starting at the given offset, writing the id of
// the entry containing (x, y) into var16[18], or 0xffff if none match
// before the 0xffff terminator (0 if the scan runs off the end of
// file_data without finding one).
func sysGetCursorSegment(d *Dispatcher, vm *mes.VM, params *mes.ParamList) error {
	x, err := params.Expr(0)
	if err != nil {
		return err
	}
	y, err := params.Expr(1)
	if err != nil {
		return err
	}
	off, err := params.Expr(2)
	if err != nil {
		return err
	}
	fd := vm.Mem.FileData()
	a := int(off)
	for a+10 <= len(fd) {
		id := le16(fd, a)
		if id == 0xffff {
			return vm.Mem.Var16Set(18, 0xffff)
		}
		left, top := le16(fd, a+2), le16(fd, a+4)
		right, bot := le16(fd, a+6), le16(fd, a+8)
		if uint16(x) >= left && uint16(x) <= right && uint16(y) >= top && uint16(y) <= bot {
			return vm.Mem.Var16Set(18, id)
		}
		a += 10
	}
	return vm.Mem.Var16Set(18, 0)
}

func le16(b []byte, off int) uint16 {
	return uint16(b[off]) | uint16(b[off+1])<<8
}

// sysMenuGetNo is System.function[15], grounded on stmt_sys's
// `case 15: menu_get_no(...)`: records the menu-entry number the player
// most recently selected into var16[18], the general return-value cell.
func sysMenuGetNo(d *Dispatcher, vm *mes.VM, params *mes.ParamList) error {
	no, err := params.Expr(0)
	if err != nil {
		return err
	}
	return vm.Mem.Var16Set(18, uint16(no))
}

// sysCheckInput is System.function[18], grounded on stmt_sys_check_input:
// var32[18] becomes `value && is_down(input)`.
func sysCheckInput(d *Dispatcher, vm *mes.VM, params *mes.ParamList) error {
	input, err := params.Expr(0)
	if err != nil {
		return err
	}
	value, err := params.Expr(1)
	if err != nil {
		return err
	}
	down := d.Input.Down(InputCode(input))
	result := uint32(0)
	if value != 0 && down {
		result = 1
	}
	return vm.Mem.Var32Set(18, result)
}

// sysStrlen is System.function[21], supplemented per SPEC_FULL.md item 7:
// present in game_ai_shimai's table but unmentioned by spec.md's
// distillation. Writes the byte length of a string parameter into the
// general return-value cell.
func sysStrlen(d *Dispatcher, vm *mes.VM, params *mes.ParamList) error {
	s, err := params.Str(0)
	if err != nil {
		return err
	}
	return vm.Mem.Var16Set(18, uint16(len(s)))
}

// sysDisplayNumber is System.function[1]. original_source's
// sys_display_number wasn't part of the retrieved snapshot; this body
// evaluates its integer parameter and discards it, drawing nothing and
// leaving the text cursor unchanged.
func sysDisplayNumber(d *Dispatcher, vm *mes.VM, params *mes.ParamList) error {
	n, err := params.Expr(0)
	if err != nil {
		return err
	}
	_ = n
	return nil
}

// defaultSys is the SYS slot assignment shared by every title before an
// override replaces it, per the per-title `.sys` literal in
// original_source/src/aishimai.c (slots 0, 1, 7, 11, 12, 13, 14, 15, 18,
// 21 are unmodified there; the rest are title-specific). UTIL tables
// have no equivalent shared baseline: every retrieved `.util` literal
// sets its own handful of slots directly.
func defaultSys() map[uint32]SysFunc {
	return map[uint32]SysFunc{
		0:  sysSetFontSize,
		1:  sysDisplayNumber,
		7:  sysFile,
		11: sysWait,
		12: sysSetTextColorsDirect,
		13: sysFarcall,
		14: sysGetCursorSegment,
		15: sysMenuGetNo,
		18: sysCheckInput,
		21: sysStrlen,
	}
}
