package mes

// MaxProcedures and MaxMesCallDepth are the procedure table and MES
// call-stack bounds from spec.md §3 / original_source/include/vm.h.
const (
	MaxProcedures   = 150
	MaxMesCallDepth = 128
)

// mesCallFrame is pushed by CALL and popped on return, saving enough
// state to restore the caller per spec.md §3 ("mes_call_stack") and
// original_source's struct vm_mes_call.
//
// ip stores an absolute offset into the owning Memory.Raw (see vm.go's
// doc comment on VM.ip for why a bare offset stands in for spec.md's
// (code_base_offset, cursor) pair). procedures is only populated when
// the title's VM.CallSavesProcedures is true; savesProcedures records
// which behavior this particular frame was pushed under, so pop can't
// restore a table CALL never saved.
type mesCallFrame struct {
	ip              uint32
	mesName         string
	procedures      [MaxProcedures]procEntry
	savesProcedures bool
}

// callStack is the bounded CALL-statement frame stack.
type callStack struct {
	frames [MaxMesCallDepth]mesCallFrame
	sp     int
}

func (c *callStack) push(frame mesCallFrame) error {
	if c.sp >= MaxMesCallDepth {
		return &VMError{Op: "call", Detail: "mes call stack overflow"}
	}
	c.frames[c.sp] = frame
	c.sp++
	return nil
}

func (c *callStack) pop() (mesCallFrame, error) {
	if c.sp == 0 {
		return mesCallFrame{}, &VMError{Op: "call", Detail: "mes call stack underflow"}
	}
	c.sp--
	return c.frames[c.sp], nil
}

func (c *callStack) depth() int { return c.sp }
