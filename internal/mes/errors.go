package mes

import "fmt"

// VMError is a fatal VM error per spec.md §7: it aborts vm_exec cleanly
// and carries enough context to "dump ip and current MES name", mirroring
// vm_print_state in original_source/src/vm.c.
type VMError struct {
	Op      string
	Detail  string
	IP      uint32
	MESName string
}

func (e *VMError) Error() string {
	return fmt.Sprintf("ai5vm: fatal: %s: %s (ip=%#x mes=%q)", e.Op, e.Detail, e.IP, e.MESName)
}

func newBoundsError(what string, index, limit uint32) error {
	return &VMError{Op: "bounds", Detail: fmt.Sprintf("%s index %d out of range [0,%d)", what, index, limit)}
}

// withContext stamps ip/mes name onto a VMError right before it
// propagates out of vm_exec, so callers don't need to thread that
// context through every statement/expr helper.
func withContext(err error, ip uint32, mesName string) error {
	if err == nil {
		return nil
	}
	if ve, ok := err.(*VMError); ok {
		ve.IP = ip
		ve.MESName = mesName
		return ve
	}
	return &VMError{Op: "error", Detail: err.Error(), IP: ip, MESName: mesName}
}
