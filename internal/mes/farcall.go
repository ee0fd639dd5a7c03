package mes

// FarCall jumps to addr within the current MES's file_data region and
// runs it as a nested scope, returning to the caller's ip afterward. It
// is exposed for the title Dispatcher to call from a SYS sub-function,
// per spec.md §4.3's "FARCALL bounds restricted to the file_data
// region" and original_source's stmt_sys_farcall.
//
// Unlike CALL, FarCall never loads a different MES file or touches the
// procedure table: it is a same-file jump-and-return, so the bounds
// check is against file_data rather than the whole buffer.
func (vm *VM) FarCall(addr uint32) error {
	if !vm.Mem.InFileData(addr) {
		return vm.fatal("farcall", "target address outside file_data region")
	}
	saved := vm.ip
	vm.ip = addr
	if err := vm.Exec(); err != nil {
		return err
	}
	vm.ip = saved
	return nil
}
