package dispatch

import (
	"fmt"

	"github.com/go-ai5/ai5vm/internal/mes"
)

// Dispatcher implements mes.Dispatcher for one loaded title, routing
// SYS/UTIL statements to the title's Game table and external
// collaborators, per spec.md §4.3 and §6.
type Dispatcher struct {
	Game *Game

	Graphics Graphics
	Audio    Audio
	Cursor   Cursor
	Anim     Anim
	Save     Save
	Asset    Asset
	Input    Input
}

// New builds a Dispatcher for the named title, per spec.md §6's "Title
// registry".
func New(title string, gfx Graphics, audio Audio, cursor Cursor, anim Anim, save Save, asset Asset, input Input) (*Dispatcher, error) {
	g, ok := Lookup(title)
	if !ok {
		return nil, fmt.Errorf("dispatch: unknown title %q", title)
	}
	return &Dispatcher{
		Game:     g,
		Graphics: gfx,
		Audio:    audio,
		Cursor:   cursor,
		Anim:     anim,
		Save:     save,
		Asset:    asset,
		Input:    input,
	}, nil
}

// Sys looks up the handler registered at Game.Sys[group] and calls it,
// per original_source's vm_exec_statement -> stmt_sys -> game->sys[no].
// An unregistered group is fatal, matching the original's
// `VM_ERROR("System.function[%d] not implemented", no)`.
func (d *Dispatcher) Sys(vm *mes.VM, group uint32, params *mes.ParamList) error {
	fn, ok := d.Game.Sys[group]
	if !ok {
		return fmt.Errorf("dispatch: %s: System.function[%d] not implemented", d.Game.Name, group)
	}
	return fn(d, vm, params)
}

// Util reads the sub-function number from params[0] and looks it up in
// Game.Util, per original_source's stmt_util.
func (d *Dispatcher) Util(vm *mes.VM, params *mes.ParamList) error {
	no, err := params.Expr(0)
	if err != nil {
		return err
	}
	fn, ok := d.Game.Util[no]
	if !ok {
		return fmt.Errorf("dispatch: %s: Util.function[%d] not implemented", d.Game.Name, no)
	}
	return fn(d, vm, params)
}

// CustomTXT delegates to the title's custom_TXT override, if any, per
// game.h's `custom_TXT` function pointer.
func (d *Dispatcher) CustomTXT(vm *mes.VM, text string) (bool, error) {
	if d.Game.CustomTXT == nil {
		return false, nil
	}
	ok, err := d.Game.CustomTXT(d, vm, text)
	return ok, err
}

// MenuExec runs the menu item selected by the player, per spec.md §4.2's
// MENUS statement: the menu-entry tables record one (selector number,
// deferred body address) pair per MENUI, and MENUS blocks for input,
// then resolves the player's selection -- left by a SYS.check_cursor_pos
// -style hit test in var16[18], the engine's general return-value cell
// per SPEC_FULL.md's System.function[21] (strlen) item -- to a body
// address and FarCalls it.
//
// original_source's menu_exec itself wasn't part of the retrieved
// source, so this is generalized from stmt_sys_check_cursor_pos's
// array-scan-and-match shape (original_source/src/vm.c) rather than
// transcribed.
func (d *Dispatcher) MenuExec(vm *mes.VM) error {
	if d.Input.KeyWait() != InputActivate {
		return nil
	}
	selected, err := vm.Mem.Var16Get(18)
	if err != nil {
		return err
	}
	n := vm.Mem.MenuEntryCount()
	for i := uint32(0); i < n; i++ {
		no, err := vm.Mem.MenuEntryNumberGet(i)
		if err != nil {
			return err
		}
		if no != selected {
			continue
		}
		addr, err := vm.Mem.MenuEntryAddressGet(i)
		if err != nil {
			return err
		}
		if addr == 0 {
			return nil
		}
		return vm.FarCall(addr)
	}
	return nil
}
