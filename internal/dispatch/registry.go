package dispatch

import (
	"fmt"

	"github.com/go-ai5/ai5vm/internal/mes"
)

// Boot ties a registered title's Game table to a freshly allocated
// mes.VM and Dispatcher, per spec.md §6 "Title registry": selecting a
// title determines memory sizing, the SYS/UTIL tables, and which
// collaborators the dispatcher is built against, all from one name.
// game.go's Lookup/register stay the raw map underneath; Boot is the
// convenience a cmd/ entry point actually calls.
type Boot struct {
	VM         *mes.VM
	Dispatcher *Dispatcher
}

// NewBoot allocates memory sized per the title's Var4Size/Mem16Size,
// constructs the VM, wires it to a title-specific Dispatcher built from
// the given collaborators, and runs the title's MemInit hook if any,
// mirroring original_source's startup sequence of mem_init followed by
// vm_init.
func NewBoot(title string, dialect *mes.Dialect, gfx Graphics, audio Audio, cursor Cursor, anim Anim, save Save, asset Asset, input Input) (*Boot, error) {
	g, ok := Lookup(title)
	if !ok {
		return nil, fmt.Errorf("dispatch: unknown title %q", title)
	}

	mem := mes.NewMemory(g.Var4Size, g.Mem16Size, 0)
	vm := mes.NewVM(mem, dialect)
	vm.CallSavesProcedures = g.CallSavesProcedures

	d := &Dispatcher{
		Game:     g,
		Graphics: gfx,
		Audio:    audio,
		Cursor:   cursor,
		Anim:     anim,
		Save:     save,
		Asset:    asset,
		Input:    input,
	}
	vm.Dispatcher = d
	vm.Assets = assetLoader{d}

	if g.MemInit != nil {
		g.MemInit(d)
	}

	return &Boot{VM: vm, Dispatcher: d}, nil
}

// assetLoader adapts the Asset collaborator to mes.AssetLoader, per
// spec.md §6's "core consumes [assets] through narrow interfaces."
type assetLoader struct{ d *Dispatcher }

func (a assetLoader) LoadMES(name string) ([]byte, error) {
	return a.d.Asset.LoadData(name)
}
