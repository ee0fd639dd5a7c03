package mes

import "math/rand"

// eval drives the stack-machine expression evaluator, per spec.md §4.1
// and original_source/src/vm.c's vm_eval. It reads and executes operand
// and operator opcodes until an END opcode (ExprEnd) is reached, then
// pops and returns the single remaining value — it is fatal for the
// stack to hold anything other than exactly one value at that point.
func (vm *VM) eval() (uint32, error) {
	for {
		op, err := vm.readByte()
		if err != nil {
			return 0, err
		}
		kind := vm.Dialect.ExprKind(op)

		switch kind {
		case ExprEnd:
			v, err := vm.stk.pop()
			if err != nil {
				return 0, err
			}
			if vm.stk.depth() != 0 {
				return 0, &VMError{Op: "eval", Detail: "expression left extra values on the stack"}
			}
			return v, nil

		case ExprImm:
			// Immediate values below 0x80 are encoded directly in the
			// opcode byte itself, per spec.md §4.1.
			if err := vm.stk.push(uint32(op)); err != nil {
				return 0, err
			}

		case ExprImm16:
			v, err := vm.readWord()
			if err != nil {
				return 0, err
			}
			if err := vm.stk.push(uint32(v)); err != nil {
				return 0, err
			}

		case ExprImm32:
			v, err := vm.readDword()
			if err != nil {
				return 0, err
			}
			if err := vm.stk.push(v); err != nil {
				return 0, err
			}

		case ExprVar:
			i, err := vm.readByte()
			if err != nil {
				return 0, err
			}
			v, err := vm.Mem.Var16Get(uint32(i))
			if err != nil {
				return 0, err
			}
			if err := vm.stk.push(uint32(v)); err != nil {
				return 0, err
			}

		case ExprVar32:
			i, err := vm.readByte()
			if err != nil {
				return 0, err
			}
			v, err := vm.Mem.Var32Get(uint32(i))
			if err != nil {
				return 0, err
			}
			if err := vm.stk.push(v); err != nil {
				return 0, err
			}

		case ExprReg16:
			i, err := vm.readWord()
			if err != nil {
				return 0, err
			}
			v, err := vm.Mem.Var4Get(uint32(i))
			if err != nil {
				return 0, err
			}
			if err := vm.stk.push(uint32(v)); err != nil {
				return 0, err
			}

		case ExprReg8:
			i, err := vm.stk.pop()
			if err != nil {
				return 0, err
			}
			v, err := vm.Mem.Var4Get(i)
			if err != nil {
				return 0, err
			}
			if err := vm.stk.push(uint32(v)); err != nil {
				return 0, err
			}

		case ExprArray16Get16:
			v, err := vm.arrayGet16(true, 2)
			if err != nil {
				return 0, err
			}
			if err := vm.stk.push(v); err != nil {
				return 0, err
			}

		case ExprArray16Get8:
			v, err := vm.arrayGet16(false, 1)
			if err != nil {
				return 0, err
			}
			if err := vm.stk.push(v); err != nil {
				return 0, err
			}

		case ExprArray32Get32:
			v, err := vm.arrayGet32(true, 4)
			if err != nil {
				return 0, err
			}
			if err := vm.stk.push(v); err != nil {
				return 0, err
			}

		case ExprArray32Get16:
			v, err := vm.arrayGet32(false, 2)
			if err != nil {
				return 0, err
			}
			if err := vm.stk.push(v); err != nil {
				return 0, err
			}

		case ExprArray32Get8:
			v, err := vm.arrayGet32(false, 1)
			if err != nil {
				return 0, err
			}
			if err := vm.stk.push(v); err != nil {
				return 0, err
			}

		case ExprRand:
			var hi uint32
			if vm.Dialect.RandImmediate {
				w, err := vm.readWord()
				if err != nil {
					return 0, err
				}
				hi = uint32(w)
			} else {
				r, err := vm.stk.pop()
				if err != nil {
					return 0, err
				}
				hi = r
			}
			var v uint32
			if hi == 0 {
				v = 0
			} else {
				v = uint32(rand.Intn(int(hi)))
			}
			if err := vm.stk.push(v); err != nil {
				return 0, err
			}

		case ExprPlus, ExprMinus, ExprMul, ExprDiv, ExprMod,
			ExprAnd, ExprOr, ExprBitAnd, ExprBitOr, ExprBitXor,
			ExprLT, ExprGT, ExprLTE, ExprGTE, ExprEQ, ExprNEQ:
			rhs, err := vm.stk.pop()
			if err != nil {
				return 0, err
			}
			lhs, err := vm.stk.pop()
			if err != nil {
				return 0, err
			}
			v, err := applyBinOp(kind, lhs, rhs)
			if err != nil {
				return 0, err
			}
			if err := vm.stk.push(v); err != nil {
				return 0, err
			}

		default:
			return 0, &VMError{Op: "eval", Detail: "unknown expression opcode"}
		}
	}
}

func applyBinOp(kind ExprKind, lhs, rhs uint32) (uint32, error) {
	switch kind {
	case ExprPlus:
		return lhs + rhs, nil
	case ExprMinus:
		return lhs - rhs, nil
	case ExprMul:
		return lhs * rhs, nil
	case ExprDiv:
		if rhs == 0 {
			return 0, &VMError{Op: "eval", Detail: "division by zero"}
		}
		return lhs / rhs, nil
	case ExprMod:
		if rhs == 0 {
			return 0, &VMError{Op: "eval", Detail: "modulo by zero"}
		}
		return lhs % rhs, nil
	case ExprAnd:
		return boolU32(lhs != 0 && rhs != 0), nil
	case ExprOr:
		return boolU32(lhs != 0 || rhs != 0), nil
	case ExprBitAnd:
		return lhs & rhs, nil
	case ExprBitOr:
		return lhs | rhs, nil
	case ExprBitXor:
		return lhs ^ rhs, nil
	case ExprLT:
		return boolU32(lhs < rhs), nil
	case ExprGT:
		return boolU32(lhs > rhs), nil
	case ExprLTE:
		return boolU32(lhs <= rhs), nil
	case ExprGTE:
		return boolU32(lhs >= rhs), nil
	case ExprEQ:
		return boolU32(lhs == rhs), nil
	case ExprNEQ:
		return boolU32(lhs != rhs), nil
	}
	return 0, &VMError{Op: "eval", Detail: "unsupported binary operator"}
}

func boolU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// arrayGet16 resolves a var16-indirected array read, per spec.md §3's
// "Indirection rule": the array starts at the offset held in
// var16[var-1], or at the system_var16 bank itself when var is 0. Only
// ARRAY16_GET16 has the var==0 fallback; ARRAY16_GET8 always takes
// var16[var-1], matching original_source/src/vm.c's
// stmt_array16_get16/get8 exactly — including the asymmetry.
func (vm *VM) arrayGet16(checkZero bool, width uint32) (uint32, error) {
	varNo, err := vm.readByte()
	if err != nil {
		return 0, err
	}
	idx, err := vm.stk.pop()
	if err != nil {
		return 0, err
	}

	var base uint32
	if checkZero && varNo == 0 {
		base = vm.Mem.SysVar16Offset()
	} else {
		v, err := vm.Mem.Var16Get(uint32(varNo) - 1)
		if err != nil {
			return 0, err
		}
		base = uint32(v)
	}
	addr := base + idx*width
	if width == 2 {
		v, err := vm.Mem.ReadU16(addr)
		return uint32(v), err
	}
	v, err := vm.Mem.ReadU8(addr)
	return uint32(v), err
}

// arrayGet32 resolves a var32-indirected array read: the array starts
// at the offset held in var32[var-1], or at the system_var32 bank
// itself when var is 0. Only ARRAY32_GET32 has the var==0 fallback;
// GET16/GET8 always take var32[var-1] — again preserved asymmetrically
// per original_source.
func (vm *VM) arrayGet32(checkZero bool, width uint32) (uint32, error) {
	varNo, err := vm.readByte()
	if err != nil {
		return 0, err
	}
	idx, err := vm.stk.pop()
	if err != nil {
		return 0, err
	}

	var base uint32
	if checkZero && varNo == 0 {
		base = vm.Mem.SysVar32Offset()
	} else {
		v, err := vm.Mem.Var32Get(uint32(varNo) - 1)
		if err != nil {
			return 0, err
		}
		base = v
	}
	addr := base + idx*width
	switch width {
	case 4:
		v, err := vm.Mem.ReadU32(addr)
		return v, err
	case 2:
		v, err := vm.Mem.ReadU16(addr)
		return uint32(v), err
	default:
		v, err := vm.Mem.ReadU8(addr)
		return uint32(v), err
	}
}
