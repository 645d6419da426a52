package vm

import "errors"

// Sentinel errors. Every fatal condition the interpreter can hit reduces to
// one of these; callers compare with errors.Is because call sites wrap them
// with pkg/errors to attach positional context before they propagate.
var (
	// Syntax errors, raised while parsing the program text into Instructions.
	ErrNotNoop               = errors.New("program does not start with /")
	ErrUnfinishedInstruction = errors.New("instruction left unfinished at end of input")

	// Runtime errors, raised while executing the decoded instruction list.
	ErrInvalidInstruction  = errors.New("invalid instruction")
	ErrUnimplemented       = errors.New("unimplemented opcode")
	ErrStackUnderflow      = errors.New("stack underflow")
	ErrUndefinedComparison = errors.New("comparison is undefined between these values")
	ErrDivisionByZero      = errors.New("division by zero")
	ErrNegativeExponent    = errors.New("negative exponent")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrByteOverflow        = errors.New("value does not fit in a byte")
	ErrWrongStackValueKind = errors.New("stack value is not usable here")

	// Call errors.
	ErrInvalidArgumentCount = errors.New("invalid number of arguments")
	ErrInvalidArgumentType  = errors.New("invalid argument type for built-in")
)
