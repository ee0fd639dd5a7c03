package mes

// ParamType distinguishes the two kinds of parameter-list entries, per
// spec.md §4.4.
type ParamType uint8

const (
	ParamExpression ParamType = 1
	ParamString     ParamType = 2
)

// MaxParams and StringParamSize bound a parameter list, per spec.md §4.4
// and original_source/src/vm.c's MAX_PARAMS/STRING_PARAM_SIZE.
const (
	MaxParams       = 30
	StringParamSize = 64
)

// Param is one decoded parameter-list entry.
type Param struct {
	Type ParamType
	Val  uint32
	Str  string
}

// ParamList is a decoded, tag-terminated variadic parameter list.
type ParamList struct {
	Params []Param
}

// Expr returns params[i].Val, and is fatal if the parameter is missing
// or not an expression, per spec.md §4.3's "Missing/typed-wrong
// parameters are fatal."
func (p *ParamList) Expr(i int) (uint32, error) {
	if i >= len(p.Params) {
		return 0, &VMError{Op: "params", Detail: "too few parameters"}
	}
	if p.Params[i].Type != ParamExpression {
		return 0, &VMError{Op: "params", Detail: "expected expression parameter"}
	}
	return p.Params[i].Val, nil
}

// Str returns params[i].Str, fatal under the same conditions as Expr.
func (p *ParamList) Str(i int) (string, error) {
	if i >= len(p.Params) {
		return "", &VMError{Op: "params", Detail: "too few parameters"}
	}
	if p.Params[i].Type != ParamString {
		return "", &VMError{Op: "params", Detail: "expected string parameter"}
	}
	return p.Params[i].Str, nil
}

// Len reports how many parameters were decoded, used by handlers that
// vary behavior on optional trailing parameters (e.g. SYS[9] palette
// crossfade, per original_source's stmt_sys_palette_crossfade1/2).
func (p *ParamList) Len() int { return len(p.Params) }

// readParams decodes a variadic, NUL-terminated parameter list starting
// at the VM's current instruction pointer, per spec.md §4.4 and
// original_source/src/vm.c's read_params/read_string_param.
func (vm *VM) readParams() (*ParamList, error) {
	list := &ParamList{}
	for {
		b, err := vm.readByte()
		if err != nil {
			return nil, err
		}
		if b == 0 {
			break
		}
		if len(list.Params) >= MaxParams {
			return nil, &VMError{Op: "params", Detail: "too many parameters"}
		}
		switch ParamType(b) {
		case ParamExpression:
			v, err := vm.eval()
			if err != nil {
				return nil, err
			}
			list.Params = append(list.Params, Param{Type: ParamExpression, Val: v})
		case ParamString:
			s, err := vm.readCString(StringParamSize)
			if err != nil {
				return nil, err
			}
			list.Params = append(list.Params, Param{Type: ParamString, Str: s})
		default:
			return nil, &VMError{Op: "params", Detail: "invalid parameter tag"}
		}
	}
	return list, nil
}

// readCString reads bytes until a NUL terminator, fatal if it would
// overflow maxLen (original_source's STRING_PARAM_SIZE check).
func (vm *VM) readCString(maxLen int) (string, error) {
	buf := make([]byte, 0, maxLen)
	for {
		c, err := vm.readByte()
		if err != nil {
			return "", err
		}
		if c == 0 {
			break
		}
		if len(buf) >= maxLen-1 {
			return "", &VMError{Op: "params", Detail: "string parameter overflowed buffer"}
		}
		buf = append(buf, c)
	}
	return string(buf), nil
}
