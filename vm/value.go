package vm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindString
	KindArray
	KindFunction
)

// Value is the tagged datum the interpreter operates on: a boolean, an
// arbitrary-precision integer, a UTF-8 string, a heterogeneous array, or a
// function. Arrays and functions aside, Values are immutable; arithmetic
// and coercions always produce a new Value.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   *big.Int
	Str   string
	Array []Value
	Fn    *Function
}

func NewBool(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func NewInt(n *big.Int) Value  { return Value{Kind: KindInt, Int: n} }
func NewString(s string) Value { return Value{Kind: KindString, Str: s} }
func NewArray(a []Value) Value { return Value{Kind: KindArray, Array: a} }
func NewFunction(f *Function) Value {
	return Value{Kind: KindFunction, Fn: f}
}

// Display renders a Value the way Print/PrintLn/ToStr do.
func (v Value) Display() string {
	switch v.Kind {
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return v.Int.String()
	case KindString:
		return v.Str
	case KindArray:
		parts := make([]string, len(v.Array))
		for i, elem := range v.Array {
			parts[i] = elem.Display()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindFunction:
		return v.Fn.String()
	default:
		return ""
	}
}

// ToInt coerces a Value to an Integer per spec.md §3: Boolean -> {0,1},
// Integer unchanged, String -> parsed decimal (fatal on failure), Array
// and Function are undefined.
func (v Value) ToInt() (*big.Int, error) {
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	case KindInt:
		return v.Int, nil
	case KindString:
		n, ok := new(big.Int).SetString(strings.TrimSpace(v.Str), 10)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidArgumentType, "cannot parse %q as an integer", v.Str)
		}
		return n, nil
	default:
		return nil, errors.Wrap(ErrInvalidArgumentType, "value has no integer representation")
	}
}

// ToBool coerces a Value to a Boolean per spec.md §3.
func (v Value) ToBool() (bool, error) {
	switch v.Kind {
	case KindBool:
		return v.Bool, nil
	case KindInt:
		return v.Int.Sign() != 0, nil
	case KindString:
		return len(v.Str) != 0, nil
	case KindArray:
		return len(v.Array) != 0, nil
	default:
		return false, errors.Wrap(ErrInvalidArgumentType, "value has no boolean representation")
	}
}

// ToByte coerces an Integer Value to a single byte, used when pushing an
// integer onto a string via the Push built-in.
func (v Value) ToByte() (byte, error) {
	if v.Kind != KindInt {
		return 0, errors.Wrap(ErrInvalidArgumentType, "value is not an integer")
	}
	if !v.Int.IsUint64() || v.Int.Uint64() > 255 {
		return 0, errors.Wrapf(ErrByteOverflow, "%s does not fit in a byte", v.Int.String())
	}
	return byte(v.Int.Uint64()), nil
}

// Compare implements the partial ordering of spec.md §3: same-tag
// Booleans, Integers, Strings, and Arrays compare naturally (Arrays
// lexicographically); any other combination is undefined.
func (v Value) Compare(other Value) (int, bool) {
	if v.Kind != other.Kind {
		return 0, false
	}
	switch v.Kind {
	case KindBool:
		return compareBool(v.Bool, other.Bool), true
	case KindInt:
		return v.Int.Cmp(other.Int), true
	case KindString:
		return strings.Compare(v.Str, other.Str), true
	case KindArray:
		return compareArrays(v.Array, other.Array)
	default:
		return 0, false
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a && b:
		return -1
	default:
		return 1
	}
}

func compareArrays(a, b []Value) (int, bool) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		c, ok := a[i].Compare(b[i])
		if !ok {
			return 0, false
		}
		if c != 0 {
			return c, true
		}
	}
	switch {
	case len(a) < len(b):
		return -1, true
	case len(a) > len(b):
		return 1, true
	default:
		return 0, true
	}
}
