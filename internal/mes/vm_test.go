package mes

import (
	"fmt"
	"testing"
)

func newTestVM(t *testing.T) *VM {
	t.Helper()
	mem := NewMemory(64, 4096, 8)
	vm := NewVM(mem, DefaultDialect())
	return vm
}

// writeCode copies a statement/expression byte program into file_data
// starting at offset 0 and seats ip there.
func writeCode(vm *VM, code []byte) {
	copy(vm.Mem.FileData(), code)
	vm.ip = vm.Mem.FileDataOffset()
}

func TestEvalSum(t *testing.T) {
	vm := newTestVM(t)
	// push 3, push 4, +, END
	code := []byte{0x03, 0x04, 0x90, 0xff}
	writeCode(vm, code)
	v, err := vm.eval()
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v != 7 {
		t.Fatalf("want 7, got %d", v)
	}
	if vm.StackDepth() != 0 {
		t.Fatalf("want empty stack after eval, got depth %d", vm.StackDepth())
	}
}

func TestEvalComparison(t *testing.T) {
	vm := newTestVM(t)
	// push 5, push 5, ==, END
	code := []byte{0x05, 0x05, 0x9f, 0xff}
	writeCode(vm, code)
	v, err := vm.eval()
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v != 1 {
		t.Fatalf("want 1 (true), got %d", v)
	}
}

func TestJzTaken(t *testing.T) {
	vm := newTestVM(t)
	// JZ with condition 0 (push 0, END), target = file_data+20, then STMT_END, then at offset 20: STMT_END
	base := vm.Mem.FileDataOffset()
	code := make([]byte, 32)
	code[0] = byte(StmtJz_opcodeForTest())
	code[1] = 0x00 // push imm 0
	code[2] = 0xff // END
	target := base + 20
	code[3] = byte(target)
	code[4] = byte(target >> 8)
	code[5] = byte(target >> 16)
	code[6] = byte(target >> 24)
	code[7] = 0x00 // would-be STMT_END if fallen through (not taken)
	code[20] = 0x00 // STMT_END at jump target
	writeCode(vm, code)

	cont, err := vm.execStatement() // the JZ itself: evaluates and jumps
	if err != nil {
		t.Fatalf("execStatement (jz): %v", err)
	}
	if !cont {
		t.Fatalf("want jz statement itself to report continue")
	}
	if vm.IP() != target {
		t.Fatalf("want ip at jump target %#x, got %#x", target, vm.IP())
	}

	cont, err = vm.execStatement() // the END the jump landed on
	if err != nil {
		t.Fatalf("execStatement (end): %v", err)
	}
	if cont {
		t.Fatalf("want statement loop to stop at END")
	}
}

func TestJzNotTaken(t *testing.T) {
	vm := newTestVM(t)
	base := vm.Mem.FileDataOffset()
	code := make([]byte, 32)
	code[0] = byte(StmtJz_opcodeForTest())
	code[1] = 0x01 // push imm 1 (exactly 1 => not taken)
	code[2] = 0xff // END
	target := base + 20
	code[3] = byte(target)
	code[4] = byte(target >> 8)
	code[5] = byte(target >> 16)
	code[6] = byte(target >> 24)
	code[7] = 0x00 // STMT_END right after the jz, since not taken
	writeCode(vm, code)

	cont, err := vm.execStatement() // the JZ itself: condition is nonzero, no jump
	if err != nil {
		t.Fatalf("execStatement (jz): %v", err)
	}
	if !cont {
		t.Fatalf("want jz statement itself to report continue")
	}
	if vm.IP() != base+7 {
		t.Fatalf("want ip just past the dword target, got %#x want %#x", vm.IP(), base+7)
	}

	cont, err = vm.execStatement() // the inline END
	if err != nil {
		t.Fatalf("execStatement (end): %v", err)
	}
	if cont {
		t.Fatalf("want statement loop to stop at END")
	}
}

func TestSetrbcNibbles(t *testing.T) {
	vm := newTestVM(t)
	// SETRBC start_index=3 (word), expr(push 9, END), continue; expr(push 5, END), stop
	code := []byte{
		byte(StmtSetrbc_opcodeForTest()), 0x03, 0x00,
		0x09, 0xff, 0x01, // value for cell 3, continue
		0x05, 0xff, 0x00, // value for cell 4, stop
	}
	writeCode(vm, code)
	if _, err := vm.execStatement(); err != nil {
		t.Fatalf("execStatement: %v", err)
	}
	v, err := vm.Mem.Var4Get(3)
	if err != nil {
		t.Fatalf("Var4Get: %v", err)
	}
	if v != 9 {
		t.Fatalf("want nibble 9, got %d", v)
	}
	v2, err := vm.Mem.Var4Get(4)
	if err != nil {
		t.Fatalf("Var4Get: %v", err)
	}
	if v2 != 5 {
		t.Fatalf("want nibble 5 at cell 4, got %d", v2)
	}
}

func TestProcdThenProc(t *testing.T) {
	vm := newTestVM(t)
	base := vm.Mem.FileDataOffset()
	code := make([]byte, 64)
	// PROCD: slot index is a full expression (push imm 0, END), then a
	// skip-to dword; the procedure's entry point is recorded as the
	// position right after that dword.
	code[0] = byte(StmtProcd_opcodeForTest())
	code[1] = 0x00 // expr: push imm 0
	code[2] = 0xff // expr: END
	skipTo := base + 16
	code[3] = byte(skipTo)
	code[4] = byte(skipTo >> 8)
	code[5] = byte(skipTo >> 16)
	code[6] = byte(skipTo >> 24)
	// body, starting at offset 7 (right after the dword)
	code[7] = byte(StmtSetv_opcodeForTest())
	code[8] = 0x00  // SETV start index byte
	code[9] = 42    // imm
	code[10] = 0xff // end of expr
	code[11] = 0x00 // SETV loop continuation byte: stop after one cell
	code[12] = 0x00 // END (body's own scope terminator)
	// padding up to offset 16
	// PROC: a parameter list with one expression param (slot 0).
	code[16] = byte(StmtProc_opcodeForTest())
	code[17] = byte(ParamExpression)
	code[18] = 0x00 // expr: push imm 0
	code[19] = 0xff // expr: END
	code[20] = 0x00 // terminate parameter list
	code[21] = 0x00 // END after PROC returns
	writeCode(vm, code)

	// PROCD statement.
	if cont, err := vm.execStatement(); err != nil || !cont {
		t.Fatalf("procd: cont=%v err=%v", cont, err)
	}
	if vm.IP() != skipTo {
		t.Fatalf("want ip at skip target %#x, got %#x", skipTo, vm.IP())
	}

	// PROC statement at skipTo.
	if cont, err := vm.execStatement(); err != nil || !cont {
		t.Fatalf("proc: cont=%v err=%v", cont, err)
	}
	v, err := vm.Mem.Var16Get(0)
	if err != nil {
		t.Fatalf("Var16Get: %v", err)
	}
	if v != 42 {
		t.Fatalf("want var16[0]=42, got %d", v)
	}
}

func TestFarcallBoundsFatal(t *testing.T) {
	vm := newTestVM(t)
	if err := vm.FarCall(0); err == nil {
		t.Fatalf("want error targeting outside file_data, got nil")
	}
}

func TestScopeCounterInvariant(t *testing.T) {
	vm := newTestVM(t)
	writeCode(vm, []byte{0x00}) // STMT_END immediately
	if vm.ScopeCounter() != 0 {
		t.Fatalf("want scope counter 0 before Exec, got %d", vm.ScopeCounter())
	}
	if err := vm.Exec(); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if vm.ScopeCounter() != 0 {
		t.Fatalf("want scope counter back to 0 after Exec returns, got %d", vm.ScopeCounter())
	}
}

func TestExprReg16ReadsVar4ByWordIndex(t *testing.T) {
	// A dedicated, larger var4 bank: index 300 doesn't fit in the single
	// byte REG16 used to read, so this also proves the 16-bit-word read.
	mem := NewMemory(512, 4096, 8)
	vm := NewVM(mem, DefaultDialect())
	if err := vm.Mem.Var4Set(300, 9); err != nil {
		t.Fatalf("Var4Set: %v", err)
	}
	// REG16, word index 300 (low byte, high byte), END.
	code := []byte{0x82, 0x2c, 0x01, 0xff}
	writeCode(vm, code)
	v, err := vm.eval()
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v != 9 {
		t.Fatalf("want var4[300]=9 via REG16, got %d", v)
	}
}

func TestExprReg8PopsIndexFromStack(t *testing.T) {
	vm := newTestVM(t)
	if err := vm.Mem.Var4Set(7, 3); err != nil {
		t.Fatalf("Var4Set: %v", err)
	}
	// push imm 7, REG8, END.
	code := []byte{0x07, 0x83, 0xff}
	writeCode(vm, code)
	v, err := vm.eval()
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v != 3 {
		t.Fatalf("want var4[7]=3 via REG8 popping its index, got %d", v)
	}
	if vm.StackDepth() != 0 {
		t.Fatalf("want REG8 to consume the popped index, got stack depth %d", vm.StackDepth())
	}
}

func TestExprRandPopsRangeByDefault(t *testing.T) {
	vm := newTestVM(t)
	// push imm 1, RAND, END -- a range of 1 always yields 0.
	code := []byte{0x01, 0x95, 0xff}
	writeCode(vm, code)
	v, err := vm.eval()
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v != 0 {
		t.Fatalf("want RAND(1)=0, got %d", v)
	}
}

func TestExprRandImmediateVariant(t *testing.T) {
	vm := newTestVM(t)
	vm.Dialect.RandImmediate = true
	// RAND, 16-bit immediate range of 1 (low byte, high byte), END.
	code := []byte{0x95, 0x01, 0x00, 0xff}
	writeCode(vm, code)
	v, err := vm.eval()
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v != 0 {
		t.Fatalf("want RAND(1)=0 under the immediate variant, got %d", v)
	}
}

func TestExprArray16Get16PopsIndexFromStack(t *testing.T) {
	vm := newTestVM(t)
	base := vm.Mem.FileDataOffset() + 256
	if err := vm.Mem.Var16Set(4, uint16(base)); err != nil {
		t.Fatalf("Var16Set: %v", err)
	}
	if err := vm.Mem.WriteU16(base+2*3, 4321); err != nil {
		t.Fatalf("WriteU16: %v", err)
	}
	// push imm 3 (the index), ARRAY16_GET16, var 5 (names var16[4]), END.
	code := []byte{0x03, 0x84, 0x05, 0xff}
	writeCode(vm, code)
	v, err := vm.eval()
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v != 4321 {
		t.Fatalf("want 4321 read via a stack-popped index, got %d", v)
	}
}

func TestCallSavesProceduresGating(t *testing.T) {
	for _, saves := range []bool{false, true} {
		t.Run(fmt.Sprintf("saves=%v", saves), func(t *testing.T) {
			vm := newTestVM(t)
			vm.CallSavesProcedures = saves

			outerKey := string(vm.Mem.MESName())
			nestedBase := vm.Mem.FileDataOffset()
			// PROCD slot 0 (expr push imm 0, END), skip-to dword pointing
			// right past itself, body is just an END.
			skipTo := nestedBase + 7
			nested := []byte{
				byte(StmtProcd_opcodeForTest()), 0x00, 0xff,
				byte(skipTo), byte(skipTo >> 8), byte(skipTo >> 16), byte(skipTo >> 24),
				0x00,
			}

			outer := make([]byte, 16)
			outer[0] = byte(StmtCall_opcodeForTest())
			outer[1] = byte(ParamString)
			outer[2] = 'n'
			outer[3] = 0x00 // end of string
			outer[4] = 0x00 // end of param list
			outer[5] = 0x00 // END, once CALL returns

			vm.Assets = fakeLoader{
				"n":     nested,
				outerKey: outer,
			}

			vm.procs[0] = procEntry{ip: 999, defined: true}
			writeCode(vm, outer)

			if err := vm.Exec(); err != nil {
				t.Fatalf("Exec: %v", err)
			}

			entry, defined := vm.ProcedureDefined(0)
			if !defined {
				t.Fatalf("want procedure slot 0 still defined")
			}
			if saves {
				if entry != 999 {
					t.Fatalf("CallSavesProcedures=true: want the caller's procedure table restored (ip=999), got %d", entry)
				}
			} else {
				if entry != skipTo {
					t.Fatalf("CallSavesProcedures=false: want the callee's PROCD to stay visible (ip=%d), got %d", skipTo, entry)
				}
			}
		})
	}
}

type fakeLoader map[string][]byte

func (f fakeLoader) LoadMES(name string) ([]byte, error) {
	data, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("fakeLoader: no MES named %q", name)
	}
	return data, nil
}

// The opcode-value helpers below avoid hard-coding DefaultDialect's byte
// assignments twice; they read them back out of the table so the tests
// stay correct if the table is ever renumbered.
func StmtJz_opcodeForTest() byte     { return findStmtOpcode(StmtJz) }
func StmtSetrbc_opcodeForTest() byte { return findStmtOpcode(StmtSetrbc) }
func StmtSetv_opcodeForTest() byte   { return findStmtOpcode(StmtSetv) }
func StmtProcd_opcodeForTest() byte  { return findStmtOpcode(StmtProcd) }
func StmtProc_opcodeForTest() byte   { return findStmtOpcode(StmtProc) }
func StmtCall_opcodeForTest() byte   { return findStmtOpcode(StmtCall) }

func findStmtOpcode(k StmtKind) byte {
	d := DefaultDialect()
	for i := 0; i < 256; i++ {
		if d.stmt[byte(i)] == k {
			return byte(i)
		}
	}
	return 0
}
