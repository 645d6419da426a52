package vm

import (
	"fmt"
	"io"
	"sort"

	"github.com/kr/pretty"
)

// DumpState writes a readable snapshot of the interpreter's stack,
// program counter, and memory to w, the way the teacher's
// printCurrentState reports a breakpoint — except here there is no
// interactive REPL to drive it, only a post-mortem dump after a fatal
// error under -debug.
func DumpState(w io.Writer, it *Interpreter) {
	fmt.Fprintf(w, "ptr: %d / %d\n", it.Ptr(), len(it.instructions))
	fmt.Fprintf(w, "stack (top last):\n")
	for _, sv := range it.Stack() {
		fmt.Fprintf(w, "  %# v\n", pretty.Formatter(sv))
	}
	fmt.Fprintf(w, "memory:\n")
	for _, index := range sortedMemoryIndices(it.memory) {
		v := it.memory.values[index]
		fmt.Fprintf(w, "  [%s] = %# v\n", index, pretty.Formatter(v))
	}
}

func sortedMemoryIndices(m *Memory) []string {
	indices := make([]string, 0, len(m.values))
	for k := range m.values {
		indices = append(indices, k)
	}
	sort.Strings(indices)
	return indices
}

// TraceLine formats one line of -trace output: the program counter and a
// short summary of the instruction about to execute, grounded on the
// teacher's formatInstructionStr helper.
func TraceLine(ptr int, instr Instruction) string {
	return fmt.Sprintf("%d: len=%d bits=%v", ptr, instr.Len(), instr.bits)
}
