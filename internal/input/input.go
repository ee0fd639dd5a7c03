// Package input implements the key/button-state Input collaborator,
// built on pixelgl's JustPressed/JustReleased key-state queries and
// keyed by the seven logical buttons original_source/include/input.h's
// `enum input` names.
package input

import (
	"github.com/faiface/pixel/pixelgl"

	"github.com/go-ai5/ai5vm/internal/dispatch"
)

// State polls a pixelgl window's key state and tracks which logical
// buttons are currently held, keyed by dispatch.InputCode.
type State struct {
	win    *pixelgl.Window
	keymap map[dispatch.InputCode]pixelgl.Button
	down   map[dispatch.InputCode]bool
}

func defaultKeymap() map[dispatch.InputCode]pixelgl.Button {
	return map[dispatch.InputCode]pixelgl.Button{
		dispatch.InputUp:       pixelgl.KeyUp,
		dispatch.InputDown:     pixelgl.KeyDown,
		dispatch.InputLeft:     pixelgl.KeyLeft,
		dispatch.InputRight:    pixelgl.KeyRight,
		dispatch.InputActivate: pixelgl.KeyEnter,
		dispatch.InputCancel:   pixelgl.KeyEscape,
		dispatch.InputShift:    pixelgl.KeyLeftShift,
	}
}

func New(win *pixelgl.Window) *State {
	return &State{win: win, keymap: defaultKeymap(), down: map[dispatch.InputCode]bool{}}
}

// Poll refreshes the held-button set; the host run loop calls this
// once per vm.Peeker tick.
func (s *State) Poll() {
	for code, key := range s.keymap {
		s.down[code] = s.win.Pressed(key)
	}
}

// Down implements dispatch.Input, grounded on stmt_sys_check_input's
// `is_down(input)`.
func (s *State) Down(code dispatch.InputCode) bool { return s.down[code] }

// KeyWait blocks, polling the window each iteration, until Activate or
// Cancel is newly pressed, grounded on stmt_sys_wait's no-argument form.
func (s *State) KeyWait() dispatch.InputCode {
	for {
		s.win.UpdateInput()
		s.Poll()
		if s.win.JustPressed(pixelgl.KeyEnter) {
			return dispatch.InputActivate
		}
		if s.win.JustPressed(pixelgl.KeyEscape) {
			return dispatch.InputCancel
		}
	}
}

// Clear implements stmt_sys_wait's post-wait input clear.
func (s *State) Clear() {
	for k := range s.down {
		s.down[k] = false
	}
}
