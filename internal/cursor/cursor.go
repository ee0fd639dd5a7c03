// Package cursor implements the mouse-cursor Cursor collaborator,
// grounded on ai_shimai_sys_cursor's case 0-8 selector (the only
// cursor-handling source this spec retrieved) and spec.md §6's "Out of
// scope: cursor sprite decoding is an external collaborator's job" --
// this package owns position/visibility state and which sprite index
// is loaded, not the sprite pixels themselves.
package cursor

// Sprite is a decoded cursor image, supplied by internal/asset.
type Sprite struct {
	Pixels []byte
	W, H   int
}

// Loader resolves a cursor sprite index to its decoded pixels, per
// ai_shimai_sys_cursor's `cursor_load(no)`.
type Loader interface {
	LoadCursor(index uint32) (Sprite, error)
}

// Mouse tracks cursor visibility, position, and the currently loaded
// sprite; a host render loop reads Pos/Visible/Current each frame.
type Mouse struct {
	loader  Loader
	visible bool
	x, y    uint16
	index   uint32
	current Sprite
}

func New(loader Loader) *Mouse { return &Mouse{loader: loader} }

func (m *Mouse) Show()              { m.visible = true }
func (m *Mouse) Hide()              { m.visible = false }
func (m *Mouse) Visible() bool      { return m.visible }
func (m *Mouse) Pos() (x, y uint16) { return m.x, m.y }
func (m *Mouse) SetPos(x, y uint16) { m.x, m.y = x, y }
func (m *Mouse) Current() Sprite    { return m.current }

// Load implements `cursor_load`; ai_shimai_sys_cursor case 4 calls it
// with its parameter plus 15.
func (m *Mouse) Load(index uint32) error {
	sp, err := m.loader.LoadCursor(index)
	if err != nil {
		return err
	}
	m.index, m.current = index, sp
	return nil
}

// Reload implements `cursor_reload`: reloads the last-loaded sprite,
// e.g. after a palette change invalidates decoded pixels. No SYS
// handler in this port calls it.
func (m *Mouse) Reload() {
	if sp, err := m.loader.LoadCursor(m.index); err == nil {
		m.current = sp
	}
}

// Unload implements `cursor_unload`. No SYS handler in this port calls
// it.
func (m *Mouse) Unload() {
	m.current = Sprite{}
}
