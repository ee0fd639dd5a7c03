package mes

// Peeker is the cooperative yield point the VM calls once per statement
// from Exec, per spec.md §4.6 / §5; the SYS/UTIL wait handlers do not
// call it. Implementations
// bind it to the host event loop (input polling, animation ticking,
// frame flush) — see original_source/src/vm.c's vm_peek.
type Peeker interface {
	Peek(vm *VM) error
}

// TextRenderer draws TXT/STR statement text, per spec.md §4.5.
type TextRenderer interface {
	DrawText(vm *VM, text string) error
}

// Dispatcher resolves the per-title SYS/UTIL opcode groups and the
// interactive menu loop, per spec.md §4.3. dispatch.Dispatcher
// implements this for one title's dispatch.Game.
type Dispatcher interface {
	Sys(vm *VM, group uint32, params *ParamList) error
	Util(vm *VM, params *ParamList) error
	MenuExec(vm *VM) error
	// CustomTXT lets a title fully replace TXT rendering (original_source
	// aishimai.c's custom_TXT function pointer). ok is false when the
	// title has no override, in which case the VM falls back to
	// TextRenderer.
	CustomTXT(vm *VM, text string) (ok bool, err error)
}

// AssetLoader resolves a MES filename to its compiled bytecode, the one
// asset operation the VM core itself needs (GOTO/CALL), per spec.md §6
// "Out of scope ... core consumes" and original_source's asset_mes_load.
type AssetLoader interface {
	LoadMES(name string) ([]byte, error)
}

// VM is the bytecode virtual machine state, per spec.md §3 "VM state".
//
// ip is kept as a single absolute offset into Mem.Raw rather than
// spec.md's literal (code_base_offset, cursor) pair: in this engine the
// two only ever matter combined (vm.ip.code[vm.ip.ptr]), code_base is
// always either the file_data region or, transiently during FARCALL, an
// address *within* file_data that is restored before anything else
// observes it, so a single absolute address carries the same
// information with a trivial buffer-bounds check.
type VM struct {
	Mem        *Memory
	Dialect    *Dialect
	Dispatcher Dispatcher
	Assets     AssetLoader
	Text       TextRenderer
	Peeker     Peeker

	// CallSavesProcedures mirrors the booting title's
	// dispatch.Game.CallSavesProcedures (spec.md §3): when false, CALL
	// does not snapshot or restore the procedure table across the nested
	// MES it runs, so PROCD definitions made by a callee stay visible to
	// the caller after the call returns.
	CallSavesProcedures bool

	ip           uint32
	stk          stack
	calls        callStack
	procs        [MaxProcedures]procEntry
	scopeCounter uint
}

type procEntry struct {
	ip     uint32
	defined bool
}

// NewVM constructs a VM seated at the start of the file_data region,
// mirroring original_source's vm_init (vm.ip.code = memory.file_data).
func NewVM(mem *Memory, dialect *Dialect) *VM {
	return &VM{
		Mem:     mem,
		Dialect: dialect,
		ip:      mem.FileDataOffset(),
	}
}

// IP returns the current absolute instruction pointer, for diagnostics
// and tests.
func (vm *VM) IP() uint32 { return vm.ip }

// ScopeCounter reports vm_exec nesting depth (spec.md §3, §8 invariant 3).
func (vm *VM) ScopeCounter() uint { return vm.scopeCounter }

// StackDepth reports the current expression-stack pointer (spec.md §8
// invariant 1).
func (vm *VM) StackDepth() uint16 { return vm.stk.depth() }

// CallDepth reports MES call-stack depth.
func (vm *VM) CallDepth() int { return vm.calls.depth() }

// ProcedureDefined reports whether procedure slot no was assigned by a
// PROCD statement and, if so, its entry point.
func (vm *VM) ProcedureDefined(no int) (uint32, bool) {
	if no < 0 || no >= MaxProcedures {
		return 0, false
	}
	e := vm.procs[no]
	return e.ip, e.defined
}

func (vm *VM) fatal(op, detail string) error {
	return &VMError{Op: op, Detail: detail, IP: vm.ip, MESName: string(vm.Mem.MESName())}
}

func (vm *VM) checkIP(ip uint32) error {
	if ip >= uint32(len(vm.Mem.Raw)) {
		return vm.fatal("ip", "instruction pointer out of range")
	}
	return nil
}

func (vm *VM) readByte() (byte, error) {
	if err := vm.checkIP(vm.ip); err != nil {
		return 0, err
	}
	b := vm.Mem.Raw[vm.ip]
	vm.ip++
	return b, nil
}

func (vm *VM) peekByte() (byte, error) {
	if err := vm.checkIP(vm.ip); err != nil {
		return 0, err
	}
	return vm.Mem.Raw[vm.ip], nil
}

func (vm *VM) rewindByte() {
	vm.ip--
}

func (vm *VM) readWord() (uint16, error) {
	if err := vm.checkIP(vm.ip + 1); err != nil {
		return 0, err
	}
	v, err := vm.Mem.ReadU16(vm.ip)
	if err != nil {
		return 0, vm.fatal("ip", err.Error())
	}
	vm.ip += 2
	return v, nil
}

func (vm *VM) readDword() (uint32, error) {
	if err := vm.checkIP(vm.ip + 3); err != nil {
		return 0, err
	}
	v, err := vm.Mem.ReadU32(vm.ip)
	if err != nil {
		return 0, vm.fatal("ip", err.Error())
	}
	vm.ip += 4
	return v, nil
}

// peekDword reads the dword at ip without advancing. JMP does not use
// it: execJmp reads the target with readDword and then overwrites ip.
func (vm *VM) peekDword() (uint32, error) {
	if err := vm.checkIP(vm.ip + 3); err != nil {
		return 0, err
	}
	return vm.Mem.ReadU32(vm.ip)
}

// LoadMES loads name into the file_data region and reseats the MES
// name slot, mirroring original_source's vm_load_mes.
func (vm *VM) LoadMES(name string) error {
	if vm.Assets == nil {
		return vm.fatal("load_mes", "no asset loader configured")
	}
	data, err := vm.Assets.LoadMES(name)
	if err != nil {
		return vm.fatal("load_mes", err.Error())
	}
	fd := vm.Mem.FileData()
	if len(data) > len(fd) {
		return vm.fatal("load_mes", "MES file exceeds file_data region")
	}
	copy(fd, data)
	vm.Mem.SetMESName(name)
	return nil
}

// peek invokes the cooperative yield point, per spec.md §4.6.
func (vm *VM) peek() error {
	if vm.Peeker == nil {
		return nil
	}
	return vm.Peeker.Peek(vm)
}

// Exec runs statements until END unwinds the current scope or the
// RETURN flag unwinds all the way out, per spec.md §4.6's vm_exec
// pseudocode.
func (vm *VM) Exec() error {
	vm.scopeCounter++
	defer func() { vm.scopeCounter-- }()

	for {
		if vm.Mem.FlagIsOn(FlagReturn) {
			if vm.scopeCounter != 1 {
				break
			}
			vm.Mem.FlagOff(FlagReturn)
			vm.ip = vm.Mem.FileDataOffset()
		}

		cont, err := vm.execStatement()
		if err != nil {
			return withContext(err, vm.ip, string(vm.Mem.MESName()))
		}
		if !cont {
			break
		}

		if err := vm.peek(); err != nil {
			return withContext(err, vm.ip, string(vm.Mem.MESName()))
		}
	}
	return nil
}
