package dispatch

import (
	"testing"

	"github.com/go-ai5/ai5vm/internal/mes"
)

// fakeInput is a minimal Input fake for the input-gated handlers under
// test (sysCheckInput, MenuExec): Down reports the keys in downs and
// KeyWait returns key, both fixed for the test's duration.
type fakeInput struct {
	downs map[InputCode]bool
	key   InputCode
}

func (f *fakeInput) Down(code InputCode) bool { return f.downs[code] }
func (f *fakeInput) KeyWait() InputCode        { return f.key }
func (f *fakeInput) Clear()                    {}

func newTestVM(t *testing.T) *mes.VM {
	t.Helper()
	mem := mes.NewMemory(256, 0, 0)
	return mes.NewVM(mem, mes.DefaultDialect())
}

func exprParams(vals ...uint32) *mes.ParamList {
	pl := &mes.ParamList{}
	for _, v := range vals {
		pl.Params = append(pl.Params, mes.Param{Type: mes.ParamExpression, Val: v})
	}
	return pl
}

func TestSysStrlenWritesByteLength(t *testing.T) {
	vm := newTestVM(t)
	params := &mes.ParamList{Params: []mes.Param{{Type: mes.ParamString, Str: "konnichiwa"}}}
	if err := sysStrlen(nil, vm, params); err != nil {
		t.Fatalf("sysStrlen: %v", err)
	}
	got, err := vm.Mem.Var16Get(18)
	if err != nil {
		t.Fatalf("Var16Get: %v", err)
	}
	if got != uint16(len("konnichiwa")) {
		t.Errorf("var16[18] = %d, want %d", got, len("konnichiwa"))
	}
}

func TestSysMenuGetNoWritesReturnCell(t *testing.T) {
	vm := newTestVM(t)
	if err := sysMenuGetNo(nil, vm, exprParams(7)); err != nil {
		t.Fatalf("sysMenuGetNo: %v", err)
	}
	got, err := vm.Mem.Var16Get(18)
	if err != nil {
		t.Fatalf("Var16Get: %v", err)
	}
	if got != 7 {
		t.Errorf("var16[18] = %d, want 7", got)
	}
}

func TestSysCheckInputCombinesValueAndDown(t *testing.T) {
	vm := newTestVM(t)
	d := &Dispatcher{Input: &fakeInput{downs: map[InputCode]bool{InputActivate: true}}}

	if err := sysCheckInput(d, vm, exprParams(uint32(InputActivate), 1)); err != nil {
		t.Fatalf("sysCheckInput: %v", err)
	}
	got, err := vm.Mem.Var32Get(18)
	if err != nil {
		t.Fatalf("Var32Get: %v", err)
	}
	if got != 1 {
		t.Errorf("var32[18] = %d, want 1 (value!=0 && down)", got)
	}

	if err := sysCheckInput(d, vm, exprParams(uint32(InputCancel), 1)); err != nil {
		t.Fatalf("sysCheckInput: %v", err)
	}
	got, err = vm.Mem.Var32Get(18)
	if err != nil {
		t.Fatalf("Var32Get: %v", err)
	}
	if got != 0 {
		t.Errorf("var32[18] = %d, want 0 (InputCancel not down)", got)
	}
}

func TestAnimStreamIndexPairing(t *testing.T) {
	params := exprParams(3, 7)
	got, err := animStreamIndex(params, 0)
	if err != nil {
		t.Fatalf("animStreamIndex: %v", err)
	}
	if got != 37 {
		t.Errorf("animStreamIndex(3,7) = %d, want 37", got)
	}
}

func TestSaveSlotNameRange(t *testing.T) {
	cases := []struct {
		no      uint32
		want    string
		wantErr bool
	}{
		{0, "FLAG00", false},
		{7, "FLAG07", false},
		{99, "FLAG99", false},
		{100, "", true},
	}
	for _, c := range cases {
		got, err := saveSlotName(c.no)
		if c.wantErr {
			if err == nil {
				t.Errorf("saveSlotName(%d): expected error, got %q", c.no, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("saveSlotName(%d): unexpected error: %v", c.no, err)
			continue
		}
		if got != c.want {
			t.Errorf("saveSlotName(%d) = %q, want %q", c.no, got, c.want)
		}
	}
}

func TestLookupKnownTitles(t *testing.T) {
	for _, name := range []string{"ai-shimai", "isaku", "shangrlia", "yuno"} {
		g, ok := Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q): not registered", name)
			continue
		}
		if g.Name != name {
			t.Errorf("Lookup(%q).Name = %q", name, g.Name)
		}
		if _, ok := g.Sys[11]; !ok {
			t.Errorf("Lookup(%q): missing shared System.function[11] (wait)", name)
		}
	}
}

func TestMenuExecRunsSelectedEntryOnly(t *testing.T) {
	vm := newTestVM(t)
	if err := vm.Mem.Var16Set(18, 2); err != nil {
		t.Fatalf("Var16Set: %v", err)
	}
	if vm.Mem.MenuEntryCount() == 0 {
		t.Skip("no menu entries allocated in this memory layout")
	}
	if err := vm.Mem.MenuEntryNumberSet(0, 1); err != nil {
		t.Fatalf("MenuEntryNumberSet: %v", err)
	}
	if err := vm.Mem.MenuEntryNumberSet(1, 2); err != nil {
		t.Fatalf("MenuEntryNumberSet: %v", err)
	}
	// Entry 0 (number 1) points outside file_data, so FarCalling it would
	// fail; entry 1 (number 2, the selected one) has no body.
	if err := vm.Mem.MenuEntryAddressSet(0, 1); err != nil {
		t.Fatalf("MenuEntryAddressSet: %v", err)
	}
	if err := vm.Mem.MenuEntryAddressSet(1, 0); err != nil {
		t.Fatalf("MenuEntryAddressSet: %v", err)
	}

	d := &Dispatcher{Input: &fakeInput{key: InputActivate}}
	if err := d.MenuExec(vm); err != nil {
		t.Fatalf("MenuExec: %v", err)
	}
}

func TestMenuExecIgnoresNonActivate(t *testing.T) {
	vm := newTestVM(t)
	d := &Dispatcher{Input: &fakeInput{key: InputCancel}}
	if err := d.MenuExec(vm); err != nil {
		t.Fatalf("MenuExec: %v", err)
	}
}
