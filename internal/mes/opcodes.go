package mes

// ExprKind identifies the operation encoded by an expression opcode byte,
// mirroring the MES_EXPR_* enumeration driving vm_eval in the original
// engine (original_source/src/vm.c).
type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprImm
	ExprImm16
	ExprImm32
	ExprVar
	ExprVar32
	ExprReg16
	ExprReg8
	ExprArray16Get16
	ExprArray16Get8
	ExprArray32Get32
	ExprArray32Get16
	ExprArray32Get8
	ExprPlus
	ExprMinus
	ExprMul
	ExprDiv
	ExprMod
	ExprRand
	ExprAnd
	ExprOr
	ExprBitAnd
	ExprBitOr
	ExprBitXor
	ExprLT
	ExprGT
	ExprLTE
	ExprGTE
	ExprEQ
	ExprNEQ
	ExprEnd
)

// StmtKind identifies the statement encoded by a statement opcode byte,
// mirroring MES_STMT_* and the switch in vm_exec_statement.
type StmtKind uint8

const (
	StmtInvalid StmtKind = iota
	StmtEnd
	StmtTxt
	StmtStr
	StmtSetrbc
	StmtSetv
	StmtSetrbe
	StmtSetrd
	StmtSetac
	StmtSetaAt
	StmtSetad
	StmtSetaw
	StmtSetab
	StmtJz
	StmtJmp
	StmtSys
	StmtGoto
	StmtCall
	StmtMenui
	StmtProc
	StmtUtil
	StmtLine
	StmtProcd
	StmtMenus
)

// Dialect is the pair of opcode-byte translation tables a title's MES
// compiler used. spec.md treats the exact byte encoding as belonging to
// the out-of-scope assembler/disassembler toolchain (§1), and no title's
// table survived into original_source/ (only vm.c/aishimai.c and three
// headers were retrieved) -- so DefaultDialect below is a single,
// internally-consistent table good enough to drive the VM against MES
// bytecode produced by a matching encoder, with per-title overrides
// possible by constructing a different Dialect.
type Dialect struct {
	expr [256]ExprKind
	stmt [256]StmtKind

	// RandImmediate selects the GAME_DOUKYUUSEI variant of RAND: a 16-bit
	// immediate range read from the bytecode stream instead of a range
	// popped off the expression stack. spec.md §4.1 documents the popped
	// range as the default; this is false in DefaultDialect and only set
	// by a title's own Dialect when it needs the exception.
	RandImmediate bool
}

// ExprKind translates a raw expression opcode byte. Bytes in [0,0x7f]
// that aren't otherwise assigned fall through to ExprImm, since
// spec.md §4.1 says "immediate small values ... encoded as themselves".
func (d *Dialect) ExprKind(op byte) ExprKind {
	if k := d.expr[op]; k != ExprInvalid {
		return k
	}
	if op <= 0x7f {
		return ExprImm
	}
	return ExprInvalid
}

// StmtKind translates a raw statement opcode byte. Bytes with no
// explicit assignment are MES_STMT_INVALID (handled by the VM as a
// rewind-and-treat-as-text salvage path, per spec.md §4.2).
func (d *Dialect) StmtKind(op byte) StmtKind {
	if k := d.stmt[op]; k != StmtInvalid {
		return k
	}
	return StmtInvalid
}

// DefaultDialect returns the shared opcode translation table used when a
// title doesn't need its own. Opcode values above 0x7f are operators and
// statement selectors; assignments below are chosen to keep IMM's
// "encoded as itself" property intact for 0x00-0x7f.
func DefaultDialect() *Dialect {
	d := &Dialect{}

	d.expr[0x80] = ExprVar
	d.expr[0x81] = ExprVar32
	d.expr[0x82] = ExprReg16
	d.expr[0x83] = ExprReg8
	d.expr[0x84] = ExprArray16Get16
	d.expr[0x85] = ExprArray16Get8
	d.expr[0x86] = ExprArray32Get32
	d.expr[0x87] = ExprArray32Get16
	d.expr[0x88] = ExprArray32Get8
	d.expr[0x89] = ExprImm16
	d.expr[0x8a] = ExprImm32
	d.expr[0x90] = ExprPlus
	d.expr[0x91] = ExprMinus
	d.expr[0x92] = ExprMul
	d.expr[0x93] = ExprDiv
	d.expr[0x94] = ExprMod
	d.expr[0x95] = ExprRand
	d.expr[0x96] = ExprAnd
	d.expr[0x97] = ExprOr
	d.expr[0x98] = ExprBitAnd
	d.expr[0x99] = ExprBitOr
	d.expr[0x9a] = ExprBitXor
	d.expr[0x9b] = ExprLT
	d.expr[0x9c] = ExprGT
	d.expr[0x9d] = ExprLTE
	d.expr[0x9e] = ExprGTE
	d.expr[0x9f] = ExprEQ
	d.expr[0xa0] = ExprNEQ
	d.expr[0xff] = ExprEnd

	d.stmt[0x00] = StmtEnd
	d.stmt[0x01] = StmtTxt
	d.stmt[0x02] = StmtStr
	d.stmt[0x03] = StmtSetrbc
	d.stmt[0x04] = StmtSetv
	d.stmt[0x05] = StmtSetrbe
	d.stmt[0x06] = StmtSetrd
	d.stmt[0x07] = StmtSetac
	d.stmt[0x08] = StmtSetaAt
	d.stmt[0x09] = StmtSetad
	d.stmt[0x0a] = StmtSetaw
	d.stmt[0x0b] = StmtSetab
	d.stmt[0x0c] = StmtJz
	d.stmt[0x0d] = StmtJmp
	d.stmt[0x0e] = StmtSys
	d.stmt[0x0f] = StmtGoto
	d.stmt[0x10] = StmtCall
	d.stmt[0x11] = StmtMenui
	d.stmt[0x12] = StmtProc
	d.stmt[0x13] = StmtUtil
	d.stmt[0x14] = StmtLine
	d.stmt[0x15] = StmtProcd
	d.stmt[0x16] = StmtMenus

	return d
}
