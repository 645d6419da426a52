package vm

import (
	"math/big"
	"testing"
)

func TestStackValue_AsPlain(t *testing.T) {
	v, err := Plain(NewBool(true)).AsPlain()
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, v.Bool == true, "expected true")

	_, err = Argument(NewBool(true)).AsPlain()
	assert(t, err != nil, "expected error converting Argument via AsPlain")
}

func TestStackValue_AsPlainOrArgument(t *testing.T) {
	_, err := Plain(NewBool(true)).AsPlainOrArgument()
	assert(t, err == nil, "unexpected error: %v", err)

	_, err = Argument(NewBool(true)).AsPlainOrArgument()
	assert(t, err == nil, "unexpected error: %v", err)

	_, err = Optional(big.NewInt(0), NewBool(true)).AsPlainOrArgument()
	assert(t, err != nil, "expected error converting Optional via AsPlainOrArgument")
}

func TestStackValue_PartialCmpRequiresSameKind(t *testing.T) {
	_, ok := Plain(NewInt(big.NewInt(1))).PartialCmp(Argument(NewInt(big.NewInt(1))))
	assert(t, !ok, "expected mismatched stack kinds to be incomparable")

	cmp, ok := Plain(NewInt(big.NewInt(1))).PartialCmp(Plain(NewInt(big.NewInt(2))))
	assert(t, ok, "expected comparable plain values")
	assert(t, cmp < 0, "expected 1 < 2")
}
