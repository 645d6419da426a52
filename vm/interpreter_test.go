package vm

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/renstrom/dedent"
	"github.com/sergi/go-diff/diffmatchpatch"
)

var reLineStart = regexp.MustCompile(`(?m)^`)

func diff(want, got string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(want, got, false)
	pretty := dmp.DiffPrettyText(diffs)
	return reLineStart.ReplaceAllLiteralString(pretty, "\t")
}

func runProgram(t *testing.T, path string) (string, error) {
	t.Helper()
	instrs, err := Parse(path)
	assert(t, err == nil, "unexpected parse error: %v", err)

	var out bytes.Buffer
	it := NewInterpreter(instrs, strings.NewReader(""), &out)
	runErr := it.Run()
	return out.String(), runErr
}

func assertStdout(t *testing.T, path, want string) {
	t.Helper()
	got, err := runProgram(t, path)
	assert(t, err == nil, "unexpected run error: %v", err)
	if got != want {
		t.Errorf("wrong stdout:\n%s", diff(want, got))
	}
}

func TestScenario_EmptyProgram(t *testing.T) {
	instrs, err := Parse("/")
	assert(t, err == nil, "unexpected error: %v", err)

	var out bytes.Buffer
	it := NewInterpreter(instrs, strings.NewReader(""), &out)
	assert(t, it.Run() == nil, "expected clean termination on empty program")
	assert(t, out.String() == "", "expected no output, got %q", out.String())
}

func TestScenario_PushIntegerThenCallPrintLn(t *testing.T) {
	// Function must sit below its arguments: opCall pops from the top of
	// the stack until it finds the Function.
	p := program(
		opPushVariable(1), // PrintLn
		opPushInt(1),
		opMarkArgument(),
		opCall(),
	)
	assertStdout(t, p, "1\n")
}

func TestScenario_PushStringThenCallPrintLn(t *testing.T) {
	p := program(
		opPushVariable(1),
		opPushString("hi"),
		opMarkArgument(),
		opCall(),
	)
	assertStdout(t, p, "hi\n")
}

func TestScenario_Addition(t *testing.T) {
	p := program(
		opPushVariable(1),
		opPushInt(3),
		opPushInt(4),
		opArithmetic(false, false, false), // +
		opMarkArgument(),
		opCall(),
	)
	assertStdout(t, p, "7\n")
}

func TestScenario_EqualComparison(t *testing.T) {
	p := program(
		opPushVariable(1),
		opPushInt(5),
		opPushInt(5),
		opCompare(true, false), // (1,0) -> Equal
		opMarkArgument(),
		opCall(),
	)
	assertStdout(t, p, "true\n")
}

func TestScenario_SpreadEmptyArrayThenCallUnderflows(t *testing.T) {
	// Spreading an empty array leaves nothing on the stack; attempting a
	// call (which must pop at least the callee) is a fatal underflow.
	p := program(
		opPushEmptyArray(),
		opSpread(),
		opCall(),
	)
	_, err := runProgram(t, p)
	assert(t, errors.Is(err, ErrStackUnderflow), "expected stack underflow, got %v", err)
}

func TestInvariant_DupIncreasesPopDecreasesStack(t *testing.T) {
	instrs, err := Parse(program(opPushInt(9), opDup(), opPop1(), opPop1()))
	assert(t, err == nil, "unexpected parse error: %v", err)

	var out bytes.Buffer
	it := NewInterpreter(instrs, strings.NewReader(""), &out)
	assert(t, it.Run() == nil, "unexpected run error")
	assert(t, it.stackLen() == 0, "expected empty stack after dup+pop+pop, got %d", it.stackLen())
}

func TestInvariant_VariableRoundTrip(t *testing.T) {
	p := program(
		opPushInt(11),
		opPopToVariable(50),
		opPushVariable(1),
		opPushVariable(50),
		opMarkArgument(),
		opCall(),
	)
	assertStdout(t, p, "11\n")
}

func TestInvariant_ConditionalJumpSkipsOnMismatch(t *testing.T) {
	// push false, jump-if-true to an unreachable label; falls through to
	// PrintLn("skipped") instead.
	p := program(
		opPushBool(false),
		opCondJump(true, 99),
		opPushVariable(1),
		opPushString("skipped"),
		opMarkArgument(),
		opCall(),
	)
	assertStdout(t, p, "skipped\n")
}

func TestScenario_MultipleCallsProduceMultipleLines(t *testing.T) {
	p := program(
		opPushVariable(1),
		opPushInt(1),
		opCall(),
		opPushVariable(1),
		opPushInt(2),
		opCall(),
	)
	want := dedent.Dedent(`
		1
		2
	`)[1:]
	assertStdout(t, p, want)
}

func TestCall_FunctionPassedAsArgumentIsNotMistakenForCallee(t *testing.T) {
	// ToStr, marked as an Argument, must be passed through to PrintLn
	// rather than being invoked itself: opCall's callee search only
	// stops on a Plain function.
	p := program(
		opPushVariable(1), // PrintLn
		opPushVariable(5), // ToStr
		opMarkArgument(),
		opCall(),
	)
	assertStdout(t, p, "<function constant arity=1 built-in>\n")
}

func TestUnary_BooleanNegateProducesInteger(t *testing.T) {
	p := program(
		opPushVariable(1),
		opPushBool(true),
		opUnary(false), // negate
		opMarkArgument(),
		opCall(),
	)
	assertStdout(t, p, "-1\n")
}

func TestUnary_BooleanNotProducesBoolean(t *testing.T) {
	p := program(
		opPushVariable(1),
		opPushBool(true),
		opUnary(true), // logical not
		opMarkArgument(),
		opCall(),
	)
	assertStdout(t, p, "false\n")
}

func TestSwap(t *testing.T) {
	// Without the swap, stack is [PrintLn, 1, 2]; discarding the top (2)
	// and calling would print 1. The swap exchanges the top two values
	// first, so discarding the (now) top prints 2 instead.
	p := program(
		opPushVariable(1),
		opPushInt(1),
		opPushInt(2),
		opSwap(0, 1),
		opPop1(),
		opCall(),
	)
	assertStdout(t, p, "2\n")
}
