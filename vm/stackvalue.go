package vm

import (
	"math/big"

	"github.com/pkg/errors"
)

// StackKind tags which of the three StackValue variants is held.
type StackKind int

const (
	StackPlain StackKind = iota
	StackArgument
	StackOptional
)

// StackValue is a cell on the evaluation stack: a plain value, a value
// explicitly marked as a positional call argument, or a keyed optional
// call argument. The value of a StackPlain or StackArgument cell may be
// stored into Memory; a StackOptional cell may not.
type StackValue struct {
	Kind  StackKind
	Value Value
	Key   *big.Int // set only when Kind == StackOptional
}

func Plain(v Value) StackValue    { return StackValue{Kind: StackPlain, Value: v} }
func Argument(v Value) StackValue { return StackValue{Kind: StackArgument, Value: v} }
func Optional(key *big.Int, v Value) StackValue {
	return StackValue{Kind: StackOptional, Value: v, Key: key}
}

// AsPlainOrArgument extracts the Value, failing if s is a keyed optional
// argument. Most opcodes that consume a stack cell require this.
func (s StackValue) AsPlainOrArgument() (Value, error) {
	if s.Kind == StackOptional {
		return Value{}, errors.Wrap(ErrWrongStackValueKind, "expected a plain value or argument, got a keyed optional")
	}
	return s.Value, nil
}

// AsPlain extracts the Value, failing unless s is a plain (unmarked)
// value. mark-argument requires this.
func (s StackValue) AsPlain() (Value, error) {
	if s.Kind != StackPlain {
		return Value{}, errors.Wrap(ErrWrongStackValueKind, "expected a plain value")
	}
	return s.Value, nil
}

// PartialCmp compares two stack cells. Cells of differing kinds (a plain
// value against an argument, say) are undefined, matching the source's
// StackValue::partial_cmp, which only compares like variants.
func (s StackValue) PartialCmp(other StackValue) (int, bool) {
	if s.Kind != other.Kind {
		return 0, false
	}
	return s.Value.Compare(other.Value)
}
