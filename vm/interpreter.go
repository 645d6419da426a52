package vm

import (
	"bufio"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

// Interpreter is the dispatch loop: it owns the instruction list, the
// evaluation stack, Memory, and the program counter, and drives execution
// to completion or to the first fatal error.
type Interpreter struct {
	instructions []Instruction
	stack        []StackValue
	memory       *Memory
	ptr          int

	stdout *bufio.Writer
	stdin  *bufio.Reader

	// Trace, when non-nil, receives one line per executed instruction
	// before dispatch. Set by main.go under -trace; never read by the
	// engine's own control flow.
	Trace func(ptr int, instr Instruction)
}

// NewInterpreter builds an Interpreter over a decoded instruction list,
// reading from in and writing to out.
func NewInterpreter(instructions []Instruction, in io.Reader, out io.Writer) *Interpreter {
	return &Interpreter{
		instructions: instructions,
		memory:       NewMemory(),
		stdin:        bufio.NewReader(in),
		stdout:       bufio.NewWriter(out),
	}
}

// Memory exposes the interpreter's variable store, primarily for debug
// dumps.
func (it *Interpreter) Memory() *Memory { return it.memory }

// Ptr reports the current program counter, primarily for debug dumps.
func (it *Interpreter) Ptr() int { return it.ptr }

// Stack returns the evaluation stack itself (top last, not a copy),
// primarily for debug dumps.
func (it *Interpreter) Stack() []StackValue { return it.stack }

// Run drives the dispatch loop to completion, returning the first fatal
// error encountered, if any. On return, whether successful or not, stdout
// is flushed.
func (it *Interpreter) Run() error {
	defer it.stdout.Flush()
	for it.ptr < len(it.instructions) {
		instr := it.instructions[it.ptr]
		if it.Trace != nil {
			it.Trace(it.ptr, instr)
		}
		if err := it.step(instr); err != nil {
			return errors.Wrapf(err, "at instruction %d", it.ptr)
		}
	}
	return nil
}

func (it *Interpreter) fetchImmediate() (Instruction, error) {
	if it.ptr+1 >= len(it.instructions) {
		return Instruction{}, errors.Wrap(ErrInvalidInstruction, "missing immediate at end of program")
	}
	it.ptr++
	return it.instructions[it.ptr], nil
}

func (it *Interpreter) push(sv StackValue) { it.stack = append(it.stack, sv) }
func (it *Interpreter) stackLen() int      { return len(it.stack) }

func (it *Interpreter) pop() (StackValue, error) {
	if len(it.stack) == 0 {
		return StackValue{}, ErrStackUnderflow
	}
	sv := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]
	return sv, nil
}

func (it *Interpreter) peek() (StackValue, error) {
	if len(it.stack) == 0 {
		return StackValue{}, ErrStackUnderflow
	}
	return it.stack[len(it.stack)-1], nil
}

// step executes one instruction, dispatching on (length, bit pattern) per
// the dispatch table, and advances ptr unless the instruction jumped.
func (it *Interpreter) step(instr Instruction) error {
	jumped := false
	var err error

	switch instr.Len() {
	case 0:
		// nop

	case 1:
		err = it.execLen1(instr)

	case 2:
		err = it.execLen2(instr)

	case 3:
		jumped, err = it.execLen3(instr)

	case 4:
		jumped, err = it.execLen4(instr)

	case 5:
		err = it.execLen5(instr)

	default:
		err = errors.Wrapf(ErrInvalidInstruction, "unsupported instruction length %d", instr.Len())
	}

	if err != nil {
		return err
	}
	if !jumped {
		it.ptr++
	}
	return nil
}

func (it *Interpreter) execLen1(instr Instruction) error {
	if !instr.Bool() {
		top, err := it.peek()
		if err != nil {
			return err
		}
		it.push(top)
		return nil
	}
	_, err := it.pop()
	return err
}

func (it *Interpreter) execLen2(instr Instruction) error {
	b0, b1 := instr.Bit(0), instr.Bit(1)
	switch {
	case !b0 && !b1:
		return it.opPushInteger()
	case !b0 && b1:
		return it.opPopToVariable()
	case b0 && !b1:
		return it.opPushVariable()
	default:
		return it.opPushString()
	}
}

func (it *Interpreter) opPushInteger() error {
	sign, err := it.fetchImmediate()
	if err != nil {
		return errors.Wrap(err, "push-integer sign")
	}
	magnitude, err := it.fetchImmediate()
	if err != nil {
		return errors.Wrap(err, "push-integer magnitude")
	}
	n := new(big.Int).Set(magnitude.Uint())
	if !sign.Bool() {
		n.Neg(n)
	}
	it.push(Plain(NewInt(n)))
	return nil
}

func (it *Interpreter) opPopToVariable() error {
	index, err := it.fetchImmediate()
	if err != nil {
		return errors.Wrap(err, "pop-to-variable index")
	}
	sv, err := it.pop()
	if err != nil {
		return err
	}
	v, err := sv.AsPlainOrArgument()
	if err != nil {
		return err
	}
	it.memory.Set(index.Uint(), v)
	return nil
}

func (it *Interpreter) opPushVariable() error {
	index, err := it.fetchImmediate()
	if err != nil {
		return errors.Wrap(err, "push-variable index")
	}
	v, ok := it.memory.Get(index.Uint())
	if !ok {
		return errors.Wrapf(ErrInvalidInstruction, "read of unset variable %s", index.Uint())
	}
	it.push(Plain(v))
	return nil
}

func (it *Interpreter) opPushString() error {
	lengthInstr, err := it.fetchImmediate()
	if err != nil {
		return errors.Wrap(err, "push-string length")
	}
	length := lengthInstr.Uint().Int64()
	runes := make([]rune, 0, length)
	for i := int64(0); i < length; i++ {
		byteInstr, err := it.fetchImmediate()
		if err != nil {
			return errors.Wrap(err, "push-string byte")
		}
		b, err := byteInstr.Byte()
		if err != nil {
			return err
		}
		runes = append(runes, rune(b))
	}
	it.push(Plain(NewString(string(runes))))
	return nil
}

func (it *Interpreter) execLen3(instr Instruction) (bool, error) {
	b0, b1, b2 := instr.Bit(0), instr.Bit(1), instr.Bit(2)
	switch {
	case !b0 && !b1 && !b2:
		return false, ErrUnimplemented
	case !b0 && !b1 && b2:
		return false, it.opCall()
	case !b0 && b1 && !b2:
		return false, it.opMarkArgument()
	case !b0 && b1 && b2:
		return false, it.opMarkOptional()
	case b0 && !b1 && !b2:
		return true, it.opJump()
	default:
		return false, it.opCompare(b1, b2)
	}
}

func (it *Interpreter) opCall() error {
	var args []Value
	optionals := optionalArgs{}
	var fn *Function

	for {
		sv, err := it.pop()
		if err != nil {
			return err
		}
		switch sv.Kind {
		case StackPlain:
			if sv.Value.Kind == KindFunction {
				fn = sv.Value.Fn
				goto assembled
			}
			args = append([]Value{sv.Value}, args...)
		case StackArgument:
			args = append([]Value{sv.Value}, args...)
		case StackOptional:
			optionals[sv.Key.String()] = sv.Value
		}
	}

assembled:
	result, err := it.call(fn, args, optionals)
	if err != nil {
		return err
	}
	if result != nil {
		it.push(Plain(*result))
	}
	return nil
}

func (it *Interpreter) opMarkArgument() error {
	sv, err := it.pop()
	if err != nil {
		return err
	}
	v, err := sv.AsPlain()
	if err != nil {
		return err
	}
	it.push(Argument(v))
	return nil
}

func (it *Interpreter) opMarkOptional() error {
	key, err := it.fetchImmediate()
	if err != nil {
		return errors.Wrap(err, "mark-optional key")
	}
	sv, err := it.pop()
	if err != nil {
		return err
	}
	v, err := sv.AsPlainOrArgument()
	if err != nil {
		return err
	}
	it.push(Optional(key.Uint(), v))
	return nil
}

func (it *Interpreter) opJump() error {
	target, err := it.fetchImmediate()
	if err != nil {
		return errors.Wrap(err, "jump target")
	}
	it.ptr = int(target.Uint().Int64())
	return nil
}

// opCompare implements the length-3 (1,b1,b2) comparison opcodes: (0,1)
// selects Less, (1,0) selects Equal, (1,1) selects Greater.
func (it *Interpreter) opCompare(b1, b2 bool) error {
	v1sv, err := it.pop()
	if err != nil {
		return err
	}
	v2sv, err := it.pop()
	if err != nil {
		return err
	}
	cmp, ok := v1sv.PartialCmp(v2sv)
	if !ok {
		return errors.Wrap(ErrUndefinedComparison, "compare")
	}
	var want int
	switch {
	case !b1 && b2:
		want = -1
	case b1 && !b2:
		want = 0
	default:
		want = 1
	}
	it.push(Plain(NewBool(cmp == want)))
	return nil
}

func (it *Interpreter) execLen4(instr Instruction) (bool, error) {
	b0, b1, b2, b3 := instr.Bit(0), instr.Bit(1), instr.Bit(2), instr.Bit(3)
	switch {
	case !b0 && !b1 && !b2 && !b3:
		return false, it.opIndex()
	case !b0 && !b1 && !b2 && b3:
		return false, it.opRemoveVariable()
	case !b0 && !b1 && b2:
		return it.opCondJump(b3)
	case !b0 && b1 && !b2:
		it.push(Plain(NewBool(b3)))
		return false, nil
	case !b0 && b1 && b2 && !b3:
		it.push(Plain(NewArray(nil)))
		return false, nil
	case !b0 && b1 && b2 && b3:
		return false, it.opSpread()
	case b0 && b1 && b2:
		return false, it.opUnary(b3)
	default:
		return false, it.opArithmetic(b1, b2, b3)
	}
}

func (it *Interpreter) opIndex() error {
	indexSV, err := it.pop()
	if err != nil {
		return err
	}
	index, err := indexSV.AsPlainOrArgument()
	if err != nil {
		return err
	}
	containerSV, err := it.peek()
	if err != nil {
		return err
	}
	container, err := containerSV.AsPlainOrArgument()
	if err != nil {
		return err
	}
	n, err := index.ToInt()
	if err != nil {
		return err
	}
	i := int(n.Int64())

	switch container.Kind {
	case KindArray:
		if i < 0 || i >= len(container.Array) {
			return errors.Wrapf(ErrIndexOutOfRange, "index %d into array of length %d", i, len(container.Array))
		}
		it.push(Plain(container.Array[i]))
		return nil
	case KindString:
		runes := []rune(container.Str)
		if i < 0 || i >= len(runes) {
			return errors.Wrapf(ErrIndexOutOfRange, "index %d into string of length %d", i, len(runes))
		}
		it.push(Plain(NewInt(big.NewInt(int64(runes[i])))))
		return nil
	default:
		return errors.Wrap(ErrInvalidArgumentType, "index requires an array or string")
	}
}

func (it *Interpreter) opRemoveVariable() error {
	index, err := it.fetchImmediate()
	if err != nil {
		return errors.Wrap(err, "remove-variable index")
	}
	it.memory.Remove(index.Uint())
	return nil
}

func (it *Interpreter) opCondJump(want bool) (bool, error) {
	target, err := it.fetchImmediate()
	if err != nil {
		return false, errors.Wrap(err, "conditional jump target")
	}
	sv, err := it.pop()
	if err != nil {
		return false, err
	}
	v, err := sv.AsPlainOrArgument()
	if err != nil {
		return false, err
	}
	cond, err := v.ToBool()
	if err != nil {
		return false, err
	}
	if cond == want {
		it.ptr = int(target.Uint().Int64())
		return true, nil
	}
	return false, nil
}

func (it *Interpreter) opSpread() error {
	sv, err := it.pop()
	if err != nil {
		return err
	}
	v, err := sv.AsPlainOrArgument()
	if err != nil {
		return err
	}
	if v.Kind != KindArray {
		return errors.Wrap(ErrInvalidArgumentType, "spread requires an array")
	}
	for i := len(v.Array) - 1; i >= 0; i-- {
		it.push(Plain(v.Array[i]))
	}
	return nil
}

func (it *Interpreter) opUnary(bitwiseNot bool) error {
	sv, err := it.pop()
	if err != nil {
		return err
	}
	v, err := sv.AsPlainOrArgument()
	if err != nil {
		return err
	}
	switch v.Kind {
	case KindBool:
		if !bitwiseNot {
			n := int64(0)
			if v.Bool {
				n = -1
			}
			it.push(Plain(NewInt(big.NewInt(n))))
			return nil
		}
		it.push(Plain(NewBool(!v.Bool)))
		return nil
	case KindInt:
		result := new(big.Int)
		if bitwiseNot {
			result.Not(v.Int)
		} else {
			result.Neg(v.Int)
		}
		it.push(Plain(NewInt(result)))
		return nil
	default:
		return errors.Wrap(ErrInvalidArgumentType, "unary operator requires a boolean or integer")
	}
}

func (it *Interpreter) opArithmetic(b1, b2, b3 bool) error {
	v1sv, err := it.pop()
	if err != nil {
		return err
	}
	v2sv, err := it.pop()
	if err != nil {
		return err
	}
	v1, err := it.coerceArithmeticOperand(v1sv)
	if err != nil {
		return err
	}
	v2, err := it.coerceArithmeticOperand(v2sv)
	if err != nil {
		return err
	}

	result := new(big.Int)
	switch {
	case !b1 && !b2 && !b3:
		result.Add(v2, v1)
	case !b1 && !b2 && b3:
		result.Sub(v2, v1)
	case !b1 && b2 && !b3:
		result.Mul(v2, v1)
	case !b1 && b2 && b3:
		if v1.Sign() == 0 {
			return ErrDivisionByZero
		}
		result.Quo(v2, v1)
	case b1 && !b2 && !b3:
		if v1.Sign() == 0 {
			return ErrDivisionByZero
		}
		result.Rem(v2, v1)
	default:
		if v1.Sign() < 0 {
			return ErrNegativeExponent
		}
		result.Exp(v2, v1, nil)
	}
	it.push(Plain(NewInt(result)))
	return nil
}

func (it *Interpreter) coerceArithmeticOperand(sv StackValue) (*big.Int, error) {
	v, err := sv.AsPlainOrArgument()
	if err != nil {
		return nil, err
	}
	switch v.Kind {
	case KindInt:
		return v.Int, nil
	case KindBool:
		if v.Bool {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	default:
		return nil, errors.Wrap(ErrInvalidArgumentType, "arithmetic operand must be a boolean or integer")
	}
}

func (it *Interpreter) execLen5(instr Instruction) error {
	b0, b1, b2, b3, b4 := instr.Bit(0), instr.Bit(1), instr.Bit(2), instr.Bit(3), instr.Bit(4)
	if b0 || b1 || b2 || b3 || b4 {
		return errors.Wrap(ErrInvalidInstruction, "unrecognized 5-bit instruction")
	}
	return it.opSwap()
}

func (it *Interpreter) opSwap() error {
	aInstr, err := it.fetchImmediate()
	if err != nil {
		return errors.Wrap(err, "swap offset a")
	}
	bInstr, err := it.fetchImmediate()
	if err != nil {
		return errors.Wrap(err, "swap offset b")
	}
	a := int(aInstr.Uint().Int64())
	b := int(bInstr.Uint().Int64())
	top := it.stackLen() - 1
	ia, ib := top-a, top-b
	if ia < 0 || ia >= it.stackLen() || ib < 0 || ib >= it.stackLen() {
		return errors.Wrap(ErrIndexOutOfRange, "swap offset out of range")
	}
	it.stack[ia], it.stack[ib] = it.stack[ib], it.stack[ia]
	return nil
}
