// Package dispatch implements the per-title SYS/UTIL function-pointer
// tables described in spec.md §4.3 and grounded directly on
// original_source/include/game.h's `struct game` and
// original_source/src/aishimai.c's `game_ai_shimai` literal.
package dispatch

import "github.com/go-ai5/ai5vm/internal/mes"

// GameFlag indexes a title's flags table, per game.h's enum game_flag.
// AI Shimai's literal also indexes FlagAnimEnable/FlagVoiceEnable, which
// aren't in the retrieved enum, so the set here is a superset generalized
// across the represented titles rather than a literal transcription.
type GameFlag int

const (
	FlagReflector GameFlag = iota
	FlagMenuReturn
	FlagReturn
	FlagLog
	FlagLoadPalette
	FlagStrlen
	FlagAnimEnable
	FlagVoiceEnable
)

// SurfaceSize is one entry of game.h's `surface_sizes[]` array.
type SurfaceSize struct{ W, H uint16 }

// SysFunc and UtilFunc are one title's handler for a given SYS group or
// UTIL sub-function, per game.h's `sys[GAME_MAX_SYS]`/`util[GAME_MAX_UTIL]`
// function-pointer arrays.
type SysFunc func(d *Dispatcher, vm *mes.VM, params *mes.ParamList) error
type UtilFunc func(d *Dispatcher, vm *mes.VM, params *mes.ParamList) error

// Game holds one title's static configuration and dispatch tables,
// grounded on game.h's `struct game`. Sys/Util are maps rather than
// fixed arrays since only a handful of slots are ever populated per
// title and a sparse table reads more naturally in Go.
type Game struct {
	Name string

	SurfaceSizes        [11]SurfaceSize
	Bpp                 int
	XMult               int
	UseEffectArc        bool
	PersistentVolume    bool
	CallSavesProcedures bool
	Var4Size            uint32
	Mem16Size           uint32

	MemInit    func(d *Dispatcher)
	MemRestore func(d *Dispatcher)

	// CustomTXT overrides the default bitmap text renderer entirely, per
	// game.h's `custom_TXT` and spec.md §4.5's "text rendering is an
	// external collaborator, but a title may override it wholesale."
	CustomTXT func(d *Dispatcher, vm *mes.VM, text string) (bool, error)

	Sys   map[uint32]SysFunc
	Util  map[uint32]UtilFunc
	Flags map[GameFlag]uint16
}

// registry maps the title names named in spec.md §1 to their Game
// tables, mirroring game.h's `extern struct game game_isaku;` etc. plus
// AI Shimai, which game.h's retrieved snapshot doesn't declare but
// aishimai.c fully implements.
var registry = map[string]*Game{}

func register(g *Game) { registry[g.Name] = g }

// Lookup returns the named title's Game table, per spec.md §6's "Title
// registry".
func Lookup(name string) (*Game, bool) {
	g, ok := registry[name]
	return g, ok
}

// Names lists every registered title in map iteration order, which is
// unspecified and may differ between calls.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
