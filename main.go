package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/pkg/errors"

	"pathvm/vm"
)

var (
	debugFlag = flag.Bool("debug", false, "dump interpreter state after a fatal error")
	traceFlag = flag.Bool("trace", false, "print one line per executed instruction")
)

// programPath returns the path-encoded program text. Per spec, that's
// argv[0] everywhere except Windows, where argv[0] is the resolved
// executable path rather than the invoking command line and argv[1]
// carries the encoded program instead.
func programPath() string {
	if runtime.GOOS == "windows" {
		if len(os.Args) > 1 {
			return os.Args[1]
		}
		return ""
	}
	return os.Args[0]
}

func main() {
	flag.Parse()

	path := programPath()
	instructions, err := vm.Parse(path)
	if err != nil {
		report(err)
		os.Exit(1)
	}

	interp := vm.NewInterpreter(instructions, os.Stdin, os.Stdout)
	if *traceFlag {
		interp.Trace = func(ptr int, instr vm.Instruction) {
			fmt.Fprintln(os.Stderr, vm.TraceLine(ptr, instr))
		}
	}

	if err := interp.Run(); err != nil {
		report(err)
		if *debugFlag {
			vm.DumpState(os.Stderr, interp)
		}
		os.Exit(1)
	}
}

func report(err error) {
	fmt.Fprintln(os.Stderr, errors.Cause(err))
}
