package mes

// execStatement decodes and runs exactly one statement at the current
// ip, per spec.md §4.2 and original_source/src/vm.c's
// vm_exec_statement. It reports whether the caller's Exec loop should
// continue: false only on END. GOTO/CALL/PROCD report true; unwinding
// on the RETURN flag is done by Exec's own loop check.
func (vm *VM) execStatement() (bool, error) {
	op, err := vm.readByte()
	if err != nil {
		return false, err
	}
	kind := vm.Dialect.StmtKind(op)

	switch kind {
	case StmtEnd:
		return false, nil

	case StmtInvalid:
		// Salvage path: rewind and treat the byte as the start of a text
		// run, per spec.md §4.2's description of unrecognized opcodes.
		vm.rewindByte()
		return vm.execTxt()

	case StmtTxt:
		return vm.execTxt()

	case StmtStr:
		return vm.execStr()

	case StmtSetrbc:
		return vm.execSetrbc()

	case StmtSetv:
		return vm.execSetv()

	case StmtSetrbe:
		return vm.execSetrbe()

	case StmtSetrd:
		return vm.execSetrd()

	case StmtSetac:
		return vm.execSetac()

	case StmtSetaAt:
		return vm.execSetaAt()

	case StmtSetad:
		return vm.execSetad()

	case StmtSetaw:
		return vm.execSetaw()

	case StmtSetab:
		return vm.execSetab()

	case StmtJz:
		return vm.execJz()

	case StmtJmp:
		return vm.execJmp()

	case StmtSys:
		return vm.execSys()

	case StmtGoto:
		return vm.execGoto()

	case StmtCall:
		return vm.execCall()

	case StmtMenui:
		return vm.execMenui()

	case StmtProc:
		return vm.execProc()

	case StmtUtil:
		return vm.execUtil()

	case StmtLine:
		return vm.execLine()

	case StmtProcd:
		return vm.execProcd()

	case StmtMenus:
		return vm.execMenus()
	}

	return false, &VMError{Op: "stmt", Detail: "unknown statement opcode"}
}

// execTxt renders a NUL-terminated text run, deferring to the title's
// CustomTXT hook first, per spec.md §4.5 and original_source's
// custom_TXT function-pointer dispatch.
func (vm *VM) execTxt() (bool, error) {
	text, err := vm.readCString(1 << 16)
	if err != nil {
		return false, err
	}
	if vm.Dispatcher != nil {
		ok, err := vm.Dispatcher.CustomTXT(vm, text)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	if vm.Text != nil {
		if err := vm.Text.DrawText(vm, text); err != nil {
			return false, err
		}
	}
	return true, nil
}

// execStr reads a NUL-terminated byte string embedded in the bytecode
// (at most StringParamSize bytes) and forwards it through the same text
// path as TXT, per spec.md §4.5.
func (vm *VM) execStr() (bool, error) {
	text, err := vm.readCString(StringParamSize)
	if err != nil {
		return false, err
	}
	if vm.Dispatcher != nil {
		ok, err := vm.Dispatcher.CustomTXT(vm, text)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	if vm.Text != nil {
		if err := vm.Text.DrawText(vm, text); err != nil {
			return false, err
		}
	}
	return true, nil
}

// setLoop runs set(i) repeatedly, incrementing i after each call, for
// as long as the continuation byte following each value expression is
// nonzero. SETRBC/SETV/SETRBE/SETRD all share this "pack consecutive
// cells in one statement" shape (original_source's stmt_setrbc et al.,
// each a `do { ... } while (vm_read_byte());` loop).
func (vm *VM) setLoop(i uint32, set func(i uint32) error) (bool, error) {
	for {
		if err := set(i); err != nil {
			return false, err
		}
		i++
		cont, err := vm.readByte()
		if err != nil {
			return false, err
		}
		if cont == 0 {
			break
		}
	}
	return true, nil
}

// execSetrbc sets consecutive var4 nibble cells starting at a 16-bit
// index: SETRBC start_index(word), expr [, expr ...].
func (vm *VM) execSetrbc() (bool, error) {
	start, err := vm.readWord()
	if err != nil {
		return false, err
	}
	return vm.setLoop(uint32(start), func(i uint32) error {
		v, err := vm.eval()
		if err != nil {
			return err
		}
		return vm.Mem.Var4Set(i, uint8(v)&0xf)
	})
}

// execSetv sets consecutive var16 cells starting at a byte index:
// SETV start_index(byte), expr [, expr ...].
func (vm *VM) execSetv() (bool, error) {
	start, err := vm.readByte()
	if err != nil {
		return false, err
	}
	return vm.setLoop(uint32(start), func(i uint32) error {
		v, err := vm.eval()
		if err != nil {
			return err
		}
		return vm.Mem.Var16Set(i, uint16(v))
	})
}

// execSetrbe sets consecutive var4 nibble cells starting at an
// expression-computed index: SETRBE start_expr, expr [, expr ...].
func (vm *VM) execSetrbe() (bool, error) {
	start, err := vm.eval()
	if err != nil {
		return false, err
	}
	return vm.setLoop(start, func(i uint32) error {
		v, err := vm.eval()
		if err != nil {
			return err
		}
		return vm.Mem.Var4Set(i, uint8(v)&0xf)
	})
}

// execSetrd sets consecutive var32 cells starting at a byte index:
// SETRD start_index(byte), expr [, expr ...].
func (vm *VM) execSetrd() (bool, error) {
	start, err := vm.readByte()
	if err != nil {
		return false, err
	}
	return vm.setLoop(uint32(start), func(i uint32) error {
		v, err := vm.eval()
		if err != nil {
			return err
		}
		return vm.Mem.Var32Set(i, v)
	})
}

// execSetac writes consecutive bytes starting at var4[var]+offset, per
// original_source's stmt_setac: SETAC offset_expr, var_index, expr [, expr ...].
//
// The base comes from the var4 (nibble) bank rather than var16/var32 --
// preserved exactly as original_source has it, however inconsistent
// that looks next to SETAW/SETAB/SETAD below.
func (vm *VM) execSetac() (bool, error) {
	off, err := vm.eval()
	if err != nil {
		return false, err
	}
	varNo, err := vm.readByte()
	if err != nil {
		return false, err
	}
	base, err := vm.Mem.Var4Get(uint32(varNo))
	if err != nil {
		return false, err
	}
	addr := uint32(base) + off
	return vm.setLoop(addr, func(a uint32) error {
		v, err := vm.eval()
		if err != nil {
			return err
		}
		return vm.Mem.WriteU8(a, uint8(v))
	})
}

// execSetaAt writes consecutive 16-bit cells starting at an
// offset into the system_var16 bank (var==0) or var16[var-1]
// (var!=0), per original_source's stmt_seta_at: SET_A_AT offset_expr,
// var_index, expr [, expr ...].
func (vm *VM) execSetaAt() (bool, error) {
	off, err := vm.eval()
	if err != nil {
		return false, err
	}
	varNo, err := vm.readByte()
	if err != nil {
		return false, err
	}
	var base uint32
	if varNo == 0 {
		base = vm.Mem.SysVar16Offset()
	} else {
		v, err := vm.Mem.Var16Get(uint32(varNo) - 1)
		if err != nil {
			return false, err
		}
		base = uint32(v)
	}
	addr := base + off*2
	return vm.setaAtLoop(addr, func(a uint32) error {
		v, err := vm.eval()
		if err != nil {
			return err
		}
		if err := vm.Mem.WriteU16(a, uint16(v)); err != nil {
			return err
		}
		return nil
	})
}

// setaAtLoop advances by one 16-bit element per iteration; setLoop
// increments its index by 1 each call, so here the index IS the byte
// address and must be advanced by 2, not 1. setaAtLoop is setLoop's
// 2-byte-stride counterpart, used by SET_A_AT and SETAW.
func (vm *VM) setaAtLoop(addr uint32, write func(a uint32) error) (bool, error) {
	for {
		if err := write(addr); err != nil {
			return false, err
		}
		addr += 2
		cont, err := vm.readByte()
		if err != nil {
			return false, err
		}
		if cont == 0 {
			break
		}
	}
	return true, nil
}

// execSetad writes consecutive 32-bit cells starting at an offset into
// the system_var32 bank (var==0) or var32[var-1] (var!=0), per
// original_source's stmt_setad: SETAD offset_expr, var_index, expr [, expr ...].
func (vm *VM) execSetad() (bool, error) {
	off, err := vm.eval()
	if err != nil {
		return false, err
	}
	varNo, err := vm.readByte()
	if err != nil {
		return false, err
	}
	var base uint32
	if varNo == 0 {
		base = vm.Mem.SysVar32Offset()
	} else {
		v, err := vm.Mem.Var32Get(uint32(varNo) - 1)
		if err != nil {
			return false, err
		}
		base = v
	}
	addr := base + off*4
	return vm.setad32Loop(addr)
}

func (vm *VM) setad32Loop(addr uint32) (bool, error) {
	for {
		v, err := vm.eval()
		if err != nil {
			return false, err
		}
		if err := vm.Mem.WriteU32(addr, v); err != nil {
			return false, err
		}
		addr += 4
		cont, err := vm.readByte()
		if err != nil {
			return false, err
		}
		if cont == 0 {
			break
		}
	}
	return true, nil
}

// execSetaw writes consecutive 16-bit cells starting at var32[var-1],
// per original_source's stmt_setaw: SETAW offset_expr, var_index, expr
// [, expr ...]. Unlike SET_A_AT there is no var==0 fallback: var-1 is
// taken unconditionally, matching original_source exactly (var==0
// underflows the index, which surfaces here as a bounds error).
func (vm *VM) execSetaw() (bool, error) {
	off, err := vm.eval()
	if err != nil {
		return false, err
	}
	varNo, err := vm.readByte()
	if err != nil {
		return false, err
	}
	base, err := vm.Mem.Var32Get(uint32(varNo) - 1)
	if err != nil {
		return false, err
	}
	addr := base + off*2
	return vm.setaAtLoop(addr, func(a uint32) error {
		v, err := vm.eval()
		if err != nil {
			return err
		}
		return vm.Mem.WriteU16(a, uint16(v))
	})
}

// execSetab writes consecutive bytes starting at var32[var-1], per
// original_source's stmt_setab: SETAB offset_expr, var_index, expr
// [, expr ...]. Same unconditional var-1 as SETAW.
func (vm *VM) execSetab() (bool, error) {
	off, err := vm.eval()
	if err != nil {
		return false, err
	}
	varNo, err := vm.readByte()
	if err != nil {
		return false, err
	}
	base, err := vm.Mem.Var32Get(uint32(varNo) - 1)
	if err != nil {
		return false, err
	}
	addr := base + off
	return vm.setLoop(addr, func(a uint32) error {
		v, err := vm.eval()
		if err != nil {
			return err
		}
		return vm.Mem.WriteU8(a, uint8(v))
	})
}

// execJz evaluates a condition and jumps to the dword target that
// follows unless the condition is exactly 1, per original_source's
// stmt_jz ("if (val == 1) return;"). In practice conditions are 0/1,
// so this reads as "jump if false" -- but anything other than 1 also
// jumps, which this mirrors rather than special-casing on zero.
func (vm *VM) execJz() (bool, error) {
	cond, err := vm.eval()
	if err != nil {
		return false, err
	}
	target, err := vm.readDword()
	if err != nil {
		return false, err
	}
	if cond != 1 {
		if err := vm.checkIP(target); err != nil {
			return false, err
		}
		vm.ip = target
	}
	return true, nil
}

// execJmp reads the dword target that follows and jumps to it
// unconditionally.
func (vm *VM) execJmp() (bool, error) {
	target, err := vm.readDword()
	if err != nil {
		return false, err
	}
	if err := vm.checkIP(target); err != nil {
		return false, err
	}
	vm.ip = target
	return true, nil
}

// execSys evaluates the sub-function group selector as a full
// expression, reads the parameter list that follows, and forwards to
// the title's Dispatcher, per original_source's stmt_sys (`no =
// vm_eval(); read_params(&params);`).
func (vm *VM) execSys() (bool, error) {
	group, err := vm.eval()
	if err != nil {
		return false, err
	}
	params, err := vm.readParams()
	if err != nil {
		return false, err
	}
	if vm.Dispatcher == nil {
		return false, &VMError{Op: "sys", Detail: "no dispatcher configured"}
	}
	if err := vm.Dispatcher.Sys(vm, group, params); err != nil {
		return false, err
	}
	return true, nil
}

// execUtil reads a parameter list and forwards it whole to the title's
// Dispatcher -- unlike SYS, UTIL has no separate selector expression;
// the sub-function number is params[0] (original_source's stmt_util).
func (vm *VM) execUtil() (bool, error) {
	params, err := vm.readParams()
	if err != nil {
		return false, err
	}
	if vm.Dispatcher == nil {
		return false, &VMError{Op: "util", Detail: "no dispatcher configured"}
	}
	if err := vm.Dispatcher.Util(vm, params); err != nil {
		return false, err
	}
	return true, nil
}

// execGoto loads a new MES file and turns on the RETURN flag, per
// original_source's stmt_goto. It does not itself unwind anything --
// it returns true (continue), and the RETURN flag is what causes every
// enclosing Exec frame to unwind on its next loop iteration, per
// spec.md §4.3's "nested CALL -> GOTO unwinds the whole call stack".
func (vm *VM) execGoto() (bool, error) {
	params, err := vm.readParams()
	if err != nil {
		return false, err
	}
	name, err := params.Str(0)
	if err != nil {
		return false, err
	}
	if err := vm.LoadMES(name); err != nil {
		return false, err
	}
	vm.Mem.FlagOn(FlagReturn)
	return true, nil
}

// execCall pushes the current (ip, MES name, and -- when the title's
// CallSavesProcedures is set -- procedure table) onto the MES call
// stack, loads the target MES, and runs it as a nested Exec scope, per
// original_source's stmt_call. A title with CallSavesProcedures false
// (spec.md §3) leaves the procedure table alone across CALL, so a
// PROCD a callee defines stays visible to the caller once it returns.
//
// Restoration after the nested Exec returns is conditional on the
// RETURN flag: if it's still on, a GOTO inside the callee (or deeper)
// is propagating an unwind past this frame, so the caller's ip/MES/
// procedures are deliberately NOT restored -- the freshly-loaded MES
// from that GOTO is left in place and the flag keeps unwinding outward
// until the outermost Exec clears it. Only a normal END-terminated
// call restores the caller's state.
func (vm *VM) execCall() (bool, error) {
	params, err := vm.readParams()
	if err != nil {
		return false, err
	}
	name, err := params.Str(0)
	if err != nil {
		return false, err
	}

	frame := mesCallFrame{
		ip:              vm.ip,
		mesName:         string(vm.Mem.MESName()),
		savesProcedures: vm.CallSavesProcedures,
	}
	if vm.CallSavesProcedures {
		frame.procedures = vm.procs
	}
	if err := vm.calls.push(frame); err != nil {
		return false, err
	}

	vm.ip = vm.Mem.FileDataOffset()
	if err := vm.LoadMES(name); err != nil {
		return false, err
	}

	if err := vm.Exec(); err != nil {
		return false, err
	}

	restored, err := vm.calls.pop()
	if err != nil {
		return false, err
	}
	if !vm.Mem.FlagIsOn(FlagReturn) {
		vm.ip = restored.ip
		if restored.savesProcedures {
			vm.procs = restored.procedures
		}
		if err := vm.LoadMES(restored.mesName); err != nil {
			return false, err
		}
	}
	return true, nil
}

// execMenui records a menu entry (selector number, deferred body
// address) and jumps past the entry's body, per original_source's
// stmt_menui: the body between here and the dword target is the menu
// item's statements, executed later when that item is selected rather
// than inline now.
func (vm *VM) execMenui() (bool, error) {
	params, err := vm.readParams()
	if err != nil {
		return false, err
	}
	no, err := params.Expr(0)
	if err != nil {
		return false, err
	}
	target, err := vm.readDword()
	if err != nil {
		return false, err
	}
	body := vm.ip

	n := vm.Mem.MenuEntryCount()
	var i uint32
	for ; i < n; i++ {
		if addr, _ := vm.Mem.MenuEntryAddressGet(i); addr == 0 {
			break
		}
	}
	if err := vm.Mem.MenuEntryAddressSet(i, body); err != nil {
		return false, err
	}
	if err := vm.Mem.MenuEntryNumberSet(i, uint16(no)); err != nil {
		return false, err
	}
	if err := vm.checkIP(target); err != nil {
		return false, err
	}
	vm.ip = target
	return true, nil
}

// execProc reads a parameter list, calls CallProcedure with params[0],
// per original_source's stmt_proc.
func (vm *VM) execProc() (bool, error) {
	params, err := vm.readParams()
	if err != nil {
		return false, err
	}
	no, err := params.Expr(0)
	if err != nil {
		return false, err
	}
	return true, vm.CallProcedure(no)
}

// CallProcedure runs the procedure in slot no as a nested scope,
// returning to the caller's ip afterward. Exposed so the title
// Dispatcher can invoke procedures directly (e.g. Util.wait_until's
// procedures 110/111), per original_source's vm_call_procedure.
func (vm *VM) CallProcedure(no uint32) error {
	if no >= MaxProcedures {
		return vm.fatal("proc", "invalid procedure number")
	}
	entry, ok := vm.ProcedureDefined(int(no))
	if !ok {
		return vm.fatal("proc", "called undefined procedure slot")
	}
	saved := vm.ip
	vm.ip = entry
	if err := vm.Exec(); err != nil {
		return err
	}
	vm.ip = saved
	return nil
}

// execProcd records the entry point for procedure slot no (the byte
// right after the dword skip target, per original_source's stmt_procd:
// `vm.procedures[i].ptr += 4` happens before the dword is even read),
// then jumps past the procedure body without running it inline.
func (vm *VM) execProcd() (bool, error) {
	no, err := vm.eval()
	if err != nil {
		return false, err
	}
	if no >= MaxProcedures {
		return false, &VMError{Op: "procd", Detail: "procedure slot out of range"}
	}
	skipTo, err := vm.readDword()
	if err != nil {
		return false, err
	}
	vm.procs[no] = procEntry{ip: vm.ip, defined: true}
	if err := vm.checkIP(skipTo); err != nil {
		return false, err
	}
	vm.ip = skipTo
	return true, nil
}

// execLine reads one byte; if it's zero, the text cursor wraps to a
// new line (start_x, cursor_y + line_space), otherwise nothing happens,
// per original_source's stmt_line.
func (vm *VM) execLine() (bool, error) {
	b, err := vm.readByte()
	if err != nil {
		return false, err
	}
	if b != 0 {
		return true, nil
	}
	startX, err := vm.Mem.SystemVar16Get(SysVar16TextStartX)
	if err != nil {
		return false, err
	}
	lineSpace, err := vm.Mem.SystemVar16Get(SysVar16LineSpace)
	if err != nil {
		return false, err
	}
	cursorY, err := vm.Mem.SystemVar16Get(SysVar16TextCursorY)
	if err != nil {
		return false, err
	}
	if err := vm.Mem.SystemVar16Set(SysVar16TextCursorX, startX); err != nil {
		return false, err
	}
	if err := vm.Mem.SystemVar16Set(SysVar16TextCursorY, cursorY+lineSpace); err != nil {
		return false, err
	}
	return true, nil
}

// execMenus enters the interactive menu loop and blocks until the
// title's Dispatcher resolves a selection, per spec.md §4.3 / §5.
func (vm *VM) execMenus() (bool, error) {
	if vm.Dispatcher == nil {
		return false, &VMError{Op: "menus", Detail: "no dispatcher configured"}
	}
	if err := vm.Dispatcher.MenuExec(vm); err != nil {
		return false, err
	}
	return true, nil
}
