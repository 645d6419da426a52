package vm

import (
	"errors"
	"math/big"
	"testing"
)

func TestParse_EmptyProgram(t *testing.T) {
	instrs, err := Parse("/")
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, len(instrs) == 0, "expected zero instructions, got %d", len(instrs))
}

func TestParse_RequiresLeadingSlash(t *testing.T) {
	_, err := Parse("not-a-path")
	assert(t, err == ErrNotNoop, "expected ErrNotNoop, got %v", err)
}

func TestParse_UnfinishedInstruction(t *testing.T) {
	_, err := Parse("/.")
	assert(t, errors.Is(err, ErrUnfinishedInstruction), "expected ErrUnfinishedInstruction, got %v", err)
}

func TestParse_NopThenDup(t *testing.T) {
	instrs, err := Parse(program(opDup()))
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, len(instrs) == 1, "expected 1 instruction, got %d", len(instrs))
	assert(t, instrs[0].Len() == 1, "expected length 1, got %d", instrs[0].Len())
	assert(t, instrs[0].Bool() == false, "expected bit0 false (dup)")
}

func TestInstruction_UintBijection(t *testing.T) {
	for _, n := range []int64{0, 1, 2, 3, 42, 255, 256, 1023} {
		instrs, err := Parse(program(encodeImmediate(n)))
		assert(t, err == nil, "unexpected error for %d: %v", n, err)
		assert(t, len(instrs) == 1, "expected 1 instruction for %d", n)
		got := instrs[0].Uint()
		assert(t, got.Cmp(big.NewInt(n)) == 0, "expected %d, got %s", n, got.String())
	}
}

func TestInstruction_Byte(t *testing.T) {
	for _, b := range []byte{0x00, 0x01, 0x68, 0x69, 0xFF} {
		instrs, err := Parse(program(encodeInstr(bitsOfByte(b)...)))
		assert(t, err == nil, "unexpected error: %v", err)
		got, err := instrs[0].Byte()
		assert(t, err == nil, "unexpected error converting to byte: %v", err)
		assert(t, got == b, "expected %#x, got %#x", b, got)
	}
}

func TestInstruction_ByteRequiresEightBits(t *testing.T) {
	instrs, err := Parse(program(opDup()))
	assert(t, err == nil, "unexpected error: %v", err)
	_, err = instrs[0].Byte()
	assert(t, errors.Is(err, ErrInvalidInstruction), "expected ErrInvalidInstruction, got %v", err)
}
