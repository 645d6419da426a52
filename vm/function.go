package vm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// BuiltinTag identifies which, if any, interpreter-provided behavior a
// Function runs. BuiltinNone marks a user-defined function.
type BuiltinTag int

const (
	BuiltinNone BuiltinTag = iota
	BuiltinPrint
	BuiltinPrintLn
	BuiltinReadLn
	BuiltinToBool
	BuiltinToStr
	BuiltinToInt
	BuiltinTrim
	BuiltinLen
	BuiltinPush
	BuiltinPop
)

// Function is a callable record: a variadic flag, a declared minimum
// arity, a built-in tag, and — for user-defined functions — a decoded
// instruction body. Per the Open Question resolved in SPEC_FULL.md §9,
// user-defined bodies are never recursively interpreted; only the call
// protocol's arity check and argument bookkeeping apply to them.
type Function struct {
	Varargs bool
	Arity   int
	Builtin BuiltinTag
	Body    []Instruction
}

// NewBuiltin constructs a Function backed by an interpreter-provided tag.
func NewBuiltin(varargs bool, arity int, tag BuiltinTag) *Function {
	return &Function{Varargs: varargs, Arity: arity, Builtin: tag}
}

// NewUserDefined constructs a Function from a decoded instruction body.
func NewUserDefined(varargs bool, arity int, body []Instruction) *Function {
	return &Function{Varargs: varargs, Arity: arity, Builtin: BuiltinNone, Body: body}
}

func (f *Function) String() string {
	variance := "constant"
	if f.Varargs {
		variance = "varargs"
	}
	origin := "user-defined"
	if f.Builtin != BuiltinNone {
		origin = "built-in"
	}
	return fmt.Sprintf("<function %s arity=%d %s>", variance, f.Arity, origin)
}

// optionalArgs maps a keyed optional argument's big-integer key, rendered
// in base 10, to the value it was given.
type optionalArgs map[string]Value

// call implements the call protocol of spec.md §4.3: an arity check,
// followed by dispatch on the built-in tag.
func (it *Interpreter) call(fn *Function, args []Value, optionals optionalArgs) (*Value, error) {
	if len(args) < fn.Arity || (len(args) > fn.Arity && !fn.Varargs) {
		return nil, errors.Wrapf(ErrInvalidArgumentCount, "expected %d, got %d", fn.Arity, len(args))
	}

	switch fn.Builtin {
	case BuiltinNone:
		return nil, nil

	case BuiltinPrint, BuiltinPrintLn:
		sep := " "
		if v, ok := optionals["0"]; ok && v.Kind == KindString {
			sep = v.Str
		}
		for i, arg := range args {
			if i > 0 {
				it.stdout.WriteString(sep)
			}
			it.stdout.WriteString(arg.Display())
		}
		if fn.Builtin == BuiltinPrintLn {
			it.stdout.WriteByte('\n')
		}
		return nil, it.stdout.Flush()

	case BuiltinReadLn:
		line, err := it.stdin.ReadString('\n')
		if err != nil && line == "" {
			return nil, errors.Wrap(err, "reading a line from stdin")
		}
		v := NewString(line)
		return &v, nil

	case BuiltinToBool:
		b, err := args[0].ToBool()
		if err != nil {
			return nil, err
		}
		v := NewBool(b)
		return &v, nil

	case BuiltinToStr:
		v := NewString(args[0].Display())
		return &v, nil

	case BuiltinToInt:
		n, err := args[0].ToInt()
		if err != nil {
			return nil, err
		}
		v := NewInt(n)
		return &v, nil

	case BuiltinTrim:
		if args[0].Kind != KindString {
			return nil, errors.Wrap(ErrInvalidArgumentType, "trim requires a string")
		}
		v := NewString(strings.TrimSpace(args[0].Str))
		return &v, nil

	case BuiltinLen:
		switch args[0].Kind {
		case KindString:
			v := NewInt(big.NewInt(int64(len([]byte(args[0].Str)))))
			return &v, nil
		case KindArray:
			v := NewInt(big.NewInt(int64(len(args[0].Array))))
			return &v, nil
		default:
			return nil, errors.Wrap(ErrInvalidArgumentType, "len requires a string or array")
		}

	case BuiltinPush:
		return it.callPush(args[0], args[1])

	case BuiltinPop:
		return it.callPop(args[0])
	}

	return nil, nil
}

func (it *Interpreter) callPush(container, elem Value) (*Value, error) {
	switch container.Kind {
	case KindArray:
		next := make([]Value, len(container.Array), len(container.Array)+1)
		copy(next, container.Array)
		next = append(next, elem)
		v := NewArray(next)
		return &v, nil
	case KindString:
		switch elem.Kind {
		case KindString:
			v := NewString(container.Str + elem.Str)
			return &v, nil
		case KindInt:
			b, err := elem.ToByte()
			if err != nil {
				return nil, err
			}
			v := NewString(container.Str + string([]byte{b}))
			return &v, nil
		default:
			return nil, errors.Wrap(ErrInvalidArgumentType, "pushing onto a string requires a string or integer")
		}
	default:
		return nil, errors.Wrap(ErrInvalidArgumentType, "push requires an array or string")
	}
}

func (it *Interpreter) callPop(container Value) (*Value, error) {
	switch container.Kind {
	case KindArray:
		if len(container.Array) == 0 {
			return nil, errors.Wrap(ErrInvalidArgumentType, "pop from an empty array")
		}
		last := container.Array[len(container.Array)-1]
		rest := append([]Value{}, container.Array[:len(container.Array)-1]...)
		v := NewArray([]Value{last, NewArray(rest)})
		return &v, nil
	case KindString:
		bytes := []byte(container.Str)
		if len(bytes) == 0 {
			return nil, errors.Wrap(ErrInvalidArgumentType, "pop from an empty string")
		}
		last := bytes[len(bytes)-1]
		rest := string(bytes[:len(bytes)-1])
		v := NewArray([]Value{NewInt(big.NewInt(int64(last))), NewString(rest)})
		return &v, nil
	default:
		return nil, errors.Wrap(ErrInvalidArgumentType, "pop requires an array or string")
	}
}
