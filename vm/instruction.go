package vm

import (
	"math/big"

	"github.com/pkg/errors"
)

// Instruction is one decoded bit-sequence, read from a single /-delimited
// segment of the program path. Bits are immutable once parsed.
type Instruction struct {
	bits []bool
}

// Len reports how many bits this instruction carries.
func (i Instruction) Len() int { return len(i.bits) }

// Bit returns the value of the bit at index, where bit 0 is the first
// `.`/`..` token read for this instruction.
func (i Instruction) Bit(index int) bool { return i.bits[index] }

// Uint interprets the bits little-endian: bit i is the coefficient of 2^i.
func (i Instruction) Uint() *big.Int {
	result := new(big.Int)
	for idx, bit := range i.bits {
		if bit {
			result.SetBit(result, idx, 1)
		}
	}
	return result
}

// Bool reports bit 0, used wherever a single-bit instruction selects
// between two outcomes.
func (i Instruction) Bool() bool {
	return i.bits[0]
}

// Byte interprets an 8-bit instruction MSB-first (bit 0 is the most
// significant bit), the convention used for the bytes of a pushed string.
func (i Instruction) Byte() (byte, error) {
	if i.Len() != 8 {
		return 0, errors.Wrap(ErrInvalidInstruction, "byte conversion requires an 8-bit instruction")
	}
	var result byte
	for idx, bit := range i.bits {
		if bit {
			result |= 1 << uint(7-idx)
		}
	}
	return result, nil
}

// parseOutcome distinguishes the two non-error results of reading one
// instruction from the program text.
type parseOutcome int

const (
	outcomeInstruction parseOutcome = iota
	outcomeStopped
)

// Parse decodes a full program path into its instruction list. The path
// must begin with '/', which is consumed as the no-op start marker and not
// itself emitted as an Instruction.
func Parse(path string) ([]Instruction, error) {
	chars := []rune(path)
	if len(chars) == 0 || chars[0] != '/' {
		return nil, ErrNotNoop
	}

	pos := 1
	var instructions []Instruction
	for {
		instr, outcome, err := parseOneInstruction(chars, &pos)
		if err != nil {
			return nil, errors.Wrapf(err, "at offset %d", pos)
		}
		if outcome == outcomeStopped {
			break
		}
		instructions = append(instructions, instr)
	}
	return instructions, nil
}

// parseOneInstruction reads one /-terminated instruction starting at
// *pos, advancing *pos past everything it consumes. It mirrors the
// tokenizer state machine in spec.md §4.1: a scratch run of 1 or 2 dots
// commits to a bit on the next '/'; an empty run at a '/' completes the
// instruction (with no bits committed, that is a zero-length nop
// instruction); any other character with nothing committed this call ends
// the program.
func parseOneInstruction(chars []rune, pos *int) (Instruction, parseOutcome, error) {
	if *pos >= len(chars) {
		return Instruction{}, outcomeStopped, nil
	}

	var instr Instruction
	partLen := 0

	for *pos < len(chars) {
		c := chars[*pos]
		switch {
		case partLen == 0 && c == '/':
			*pos++
			return instr, outcomeInstruction, nil
		case (partLen == 0 || partLen == 1) && c == '.':
			partLen++
			*pos++
		case (partLen == 1 || partLen == 2) && c == '/':
			instr.bits = append(instr.bits, partLen == 2)
			partLen = 0
			*pos++
		default:
			if instr.Len() == 0 {
				return Instruction{}, outcomeStopped, nil
			}
			return Instruction{}, outcomeInstruction, ErrUnfinishedInstruction
		}
	}

	if partLen != 0 {
		return Instruction{}, outcomeInstruction, ErrUnfinishedInstruction
	}
	return instr, outcomeInstruction, nil
}
