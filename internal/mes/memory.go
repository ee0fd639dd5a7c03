package mes

import "encoding/binary"

// Bank sizes fixed by spec.md §3. var4_size and file_data size are
// title-dependent and passed to NewMemory (dispatch.NewBoot takes them
// from the title's Game table).
const (
	MESNameSize      = 13
	Var16Count       = 26
	SystemVar16Count = 24
	Var32Count       = 26
	SystemVar32Count = 26
	PaletteSize      = 256 * 4

	// DefaultFileDataSize matches spec.md §3's "typical 1 MiB" scratch
	// region for MES bytecode, CG bytes, palettes, glyph tables and
	// asset blobs.
	DefaultFileDataSize = 1 << 20

	// DefaultMenuEntries bounds the menu_entry_addresses/_numbers
	// arrays. spec.md names the arrays but not a count; original_source
	// didn't retrieve menu.c, so this is a documented implementation
	// choice sized generously against titles with large scene menus.
	DefaultMenuEntries = 64
)

// System var16 indices named in spec.md / original_source. Titles may
// use additional indices not named here; those are still readable via
// SystemVar16Get/Set.
const (
	SysVar16Flags       = 2
	SysVar16TextStartX  = 5
	SysVar16TextStartY  = 6
	SysVar16TextEndX    = 7
	SysVar16TextEndY    = 8
	SysVar16FontWidth   = 9
	SysVar16FontHeight  = 10
	SysVar16CharSpace   = 11
	SysVar16LineSpace   = 12
	SysVar16MaskColor   = 13
	SysVar16TextCursorX = 14
	SysVar16TextCursorY = 15
	SysVar16DstSurface  = 16
	SysVar16CGX         = 17
	SysVar16CGY         = 18
	SysVar16CGW         = 19
	SysVar16CGH         = 20
)

// System var32 indices named in spec.md §3.
const (
	SysVar32Memory              = 0
	SysVar32FileData            = 1
	SysVar32MenuEntryAddresses  = 2
	SysVar32MenuEntryNumbers    = 3
	SysVar32MapOffset           = 4
	SysVar32CGOffset            = 5
	SysVar32DataOffset          = 6
	SysVar32PaletteOffset       = 7
)

// VM flag bits living in system_var16[FLAGS], per spec.md §3.
const (
	FlagReturn uint16 = 0x10
	FlagLog    uint16 = 0x80
)

// layout records the byte offsets of every bank within Raw. NewMemory
// computes it once; nothing recomputes it afterwards, since the offsets
// never change for the lifetime of a Memory.
type layout struct {
	var4Offset       uint32
	var4Size         uint32
	sysVar16PtrSlot  uint32 // 4-byte bookkeeping cell, see original_source ai_shimai_mem_restore
	var16Offset      uint32
	sysVar16Offset   uint32
	var32Offset      uint32
	sysVar32Offset   uint32
	fileDataOffset   uint32
	fileDataSize     uint32
	menuAddrOffset   uint32
	menuNumOffset    uint32
	menuEntries      uint32
	paletteOffset    uint32
}

// Memory is the VM's single contiguous backing buffer with typed
// overlay views, per spec.md §3.
type Memory struct {
	Raw []byte
	l   layout
}

// NewMemory allocates the backing buffer and derives bank offsets from
// var4Size and fileDataSize, following the byte arithmetic in
// original_source/src/aishimai.c's ai_shimai_mem_init: name slot, then
// var4, then a 4-byte bookkeeping slot, var16, system_var16, var32,
// system_var32, file_data, menu tables, palette, in that order.
func NewMemory(var4Size, fileDataSize, menuEntries uint32) *Memory {
	if fileDataSize == 0 {
		fileDataSize = DefaultFileDataSize
	}
	if menuEntries == 0 {
		menuEntries = DefaultMenuEntries
	}

	l := layout{}
	off := uint32(MESNameSize)
	l.var4Offset = off
	l.var4Size = var4Size
	off += (var4Size + 1) / 2

	l.sysVar16PtrSlot = off
	off += 4

	l.var16Offset = off
	off += Var16Count * 2

	l.sysVar16Offset = off
	off += SystemVar16Count * 2

	l.var32Offset = off
	off += Var32Count * 4

	l.sysVar32Offset = off
	off += SystemVar32Count * 4

	l.fileDataOffset = off
	l.fileDataSize = fileDataSize
	off += fileDataSize

	l.menuAddrOffset = off
	l.menuEntries = menuEntries
	off += menuEntries * 4

	l.menuNumOffset = off
	off += menuEntries * 2

	l.paletteOffset = off
	off += PaletteSize

	return &Memory{Raw: make([]byte, off), l: l}
}

// FileDataOffset returns the offset of the file_data region, used by
// the VM to seat the instruction pointer's code base and by FARCALL's
// bounds check (spec.md §3 invariants).
func (m *Memory) FileDataOffset() uint32 { return m.l.fileDataOffset }
func (m *Memory) FileDataSize() uint32   { return m.l.fileDataSize }

// FileData returns the file_data scratch region.
func (m *Memory) FileData() []byte {
	return m.Raw[m.l.fileDataOffset : m.l.fileDataOffset+m.l.fileDataSize]
}

// InFileData reports whether addr lies within the file_data region,
// the bound FARCALL targets must satisfy (spec.md §3 invariants,
// original_source farcall_addr_valid).
func (m *Memory) InFileData(addr uint32) bool {
	return addr >= m.l.fileDataOffset && addr < m.l.fileDataOffset+m.l.fileDataSize
}

// MESName returns the 13-byte MES name slot.
func (m *Memory) MESName() []byte {
	return m.Raw[:MESNameSize]
}

// SetMESName writes name into the MES name slot, NUL-terminated and
// uppercased on load per spec.md §3, mirroring vm_load_mes.
func (m *Memory) SetMESName(name string) {
	slot := m.MESName()
	for i := range slot {
		slot[i] = 0
	}
	n := len(name)
	if n > MESNameSize-1 {
		n = MESNameSize - 1
	}
	for i := 0; i < n; i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		slot[i] = c
	}
}

// Var4Get reads a packed 4-bit cell. Cells are stored two to a byte,
// low nibble first.
func (m *Memory) Var4Get(i uint32) (uint8, error) {
	if i >= m.l.var4Size {
		return 0, newBoundsError("var4", i, m.l.var4Size)
	}
	b := m.Raw[m.l.var4Offset+i/2]
	if i%2 == 0 {
		return b & 0xf, nil
	}
	return b >> 4, nil
}

// Var4Set writes a packed 4-bit cell, masking to the low 4 bits per
// spec.md §4.2 ("SETRBC ... writes nibbles").
func (m *Memory) Var4Set(i uint32, v uint8) error {
	if i >= m.l.var4Size {
		return newBoundsError("var4", i, m.l.var4Size)
	}
	idx := m.l.var4Offset + i/2
	v &= 0xf
	if i%2 == 0 {
		m.Raw[idx] = (m.Raw[idx] &^ 0x0f) | v
	} else {
		m.Raw[idx] = (m.Raw[idx] &^ 0xf0) | (v << 4)
	}
	return nil
}

// Var4Size reports the title-configured length of the var4 bank.
func (m *Memory) Var4Size() uint32 { return m.l.var4Size }

func (m *Memory) bank16(base uint32, count uint32, i uint32) (uint32, error) {
	if i >= count {
		return 0, newBoundsError("u16 bank", i, count)
	}
	return base + i*2, nil
}

func (m *Memory) bank32(base uint32, count uint32, i uint32) (uint32, error) {
	if i >= count {
		return 0, newBoundsError("u32 bank", i, count)
	}
	return base + i*4, nil
}

// Var16Get/Var16Set access the 26-cell user word-variable bank.
func (m *Memory) Var16Get(i uint32) (uint16, error) {
	off, err := m.bank16(m.l.var16Offset, Var16Count, i)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.Raw[off:]), nil
}

func (m *Memory) Var16Set(i uint32, v uint16) error {
	off, err := m.bank16(m.l.var16Offset, Var16Count, i)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.Raw[off:], v)
	return nil
}

// SystemVar16Get/Set access the 24-cell engine-reserved register bank.
func (m *Memory) SystemVar16Get(i uint32) (uint16, error) {
	off, err := m.bank16(m.l.sysVar16Offset, SystemVar16Count, i)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.Raw[off:]), nil
}

func (m *Memory) SystemVar16Set(i uint32, v uint16) error {
	off, err := m.bank16(m.l.sysVar16Offset, SystemVar16Count, i)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.Raw[off:], v)
	return nil
}

// Var32Get/Set access the 26-cell user double-word variable bank,
// typically holding offsets into Raw (spec.md §3).
func (m *Memory) Var32Get(i uint32) (uint32, error) {
	off, err := m.bank32(m.l.var32Offset, Var32Count, i)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.Raw[off:]), nil
}

func (m *Memory) Var32Set(i uint32, v uint32) error {
	off, err := m.bank32(m.l.var32Offset, Var32Count, i)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.Raw[off:], v)
	return nil
}

// SystemVar32Get/Set access the 26-cell engine-reserved pointer bank.
func (m *Memory) SystemVar32Get(i uint32) (uint32, error) {
	off, err := m.bank32(m.l.sysVar32Offset, SystemVar32Count, i)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.Raw[off:]), nil
}

func (m *Memory) SystemVar32Set(i uint32, v uint32) error {
	off, err := m.bank32(m.l.sysVar32Offset, SystemVar32Count, i)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.Raw[off:], v)
	return nil
}

// Flag helpers mirror vm_flag_is_on/on/off in original_source/include/vm.h.
func (m *Memory) FlagIsOn(flag uint16) bool {
	v, _ := m.SystemVar16Get(SysVar16Flags)
	return v&flag == flag
}

func (m *Memory) FlagOn(flag uint16) {
	v, _ := m.SystemVar16Get(SysVar16Flags)
	_ = m.SystemVar16Set(SysVar16Flags, v|flag)
}

func (m *Memory) FlagOff(flag uint16) {
	v, _ := m.SystemVar16Get(SysVar16Flags)
	_ = m.SystemVar16Set(SysVar16Flags, v&^flag)
}

// --- raw typed access into the flat buffer, used by array-opcode
// indirection (spec.md §3 "Indirection rule") ---

func (m *Memory) checkRange(offset, size uint32) error {
	if uint64(offset)+uint64(size) > uint64(len(m.Raw)) {
		return newBoundsError("raw memory", offset, uint32(len(m.Raw)))
	}
	return nil
}

func (m *Memory) ReadU8(offset uint32) (uint8, error) {
	if err := m.checkRange(offset, 1); err != nil {
		return 0, err
	}
	return m.Raw[offset], nil
}

func (m *Memory) WriteU8(offset uint32, v uint8) error {
	if err := m.checkRange(offset, 1); err != nil {
		return err
	}
	m.Raw[offset] = v
	return nil
}

func (m *Memory) ReadU16(offset uint32) (uint16, error) {
	if err := m.checkRange(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.Raw[offset:]), nil
}

func (m *Memory) WriteU16(offset uint32, v uint16) error {
	if err := m.checkRange(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.Raw[offset:], v)
	return nil
}

func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	if err := m.checkRange(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.Raw[offset:]), nil
}

func (m *Memory) WriteU32(offset uint32, v uint32) error {
	if err := m.checkRange(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.Raw[offset:], v)
	return nil
}

// MenuEntryAddress/Number access menu_entry_addresses/_numbers, written
// by MENUI (spec.md §4.2) and read by the menu collaborator.
func (m *Memory) MenuEntryAddressSet(i uint32, addr uint32) error {
	if i >= m.l.menuEntries {
		return newBoundsError("menu_entry_addresses", i, m.l.menuEntries)
	}
	binary.LittleEndian.PutUint32(m.Raw[m.l.menuAddrOffset+i*4:], addr)
	return nil
}

func (m *Memory) MenuEntryAddressGet(i uint32) (uint32, error) {
	if i >= m.l.menuEntries {
		return 0, newBoundsError("menu_entry_addresses", i, m.l.menuEntries)
	}
	return binary.LittleEndian.Uint32(m.Raw[m.l.menuAddrOffset+i*4:]), nil
}

func (m *Memory) MenuEntryNumberSet(i uint32, no uint16) error {
	if i >= m.l.menuEntries {
		return newBoundsError("menu_entry_numbers", i, m.l.menuEntries)
	}
	binary.LittleEndian.PutUint16(m.Raw[m.l.menuNumOffset+i*2:], no)
	return nil
}

func (m *Memory) MenuEntryNumberGet(i uint32) (uint16, error) {
	if i >= m.l.menuEntries {
		return 0, newBoundsError("menu_entry_numbers", i, m.l.menuEntries)
	}
	return binary.LittleEndian.Uint16(m.Raw[m.l.menuNumOffset+i*2:]), nil
}

func (m *Memory) MenuEntryCount() uint32 { return m.l.menuEntries }

// Palette returns the 256x4-byte palette region.
func (m *Memory) Palette() []byte {
	return m.Raw[m.l.paletteOffset : m.l.paletteOffset+PaletteSize]
}

// SysVar16PtrSlotSet mirrors ai_shimai_mem_restore's
// mem_set_sysvar16_ptr call: a 4-byte bookkeeping cell recording the
// offset of the system_var16 bank. Bytecode doesn't index it directly
// (it's not one of the five banks array opcodes resolve against); it
// exists purely for save/restore parity with the original.
func (m *Memory) SysVar16PtrSlotSet(v uint32) {
	binary.LittleEndian.PutUint32(m.Raw[m.l.sysVar16PtrSlot:], v)
}

func (m *Memory) SysVar16Offset() uint32 { return m.l.sysVar16Offset }

// SysVar32Offset returns the absolute offset of the system_var32 bank,
// used as the array-opcode indirection base when a SETAD var index is
// zero (spec.md §3 "Indirection rule").
func (m *Memory) SysVar32Offset() uint32 { return m.l.sysVar32Offset }
