package vm

import "math/big"

// Memory is the integer-indexed variable store. It is preloaded at
// process start with the built-in function bindings listed in spec.md §6;
// afterwards Set overwrites, Get returns the bound value, and Remove
// deletes.
type Memory struct {
	values map[string]Value
}

// NewMemory builds a Memory preloaded with the built-in bindings.
func NewMemory() *Memory {
	m := &Memory{values: make(map[string]Value)}
	for index, fn := range builtinBindings() {
		m.Set(index, NewFunction(fn))
	}
	return m
}

func (m *Memory) Get(index *big.Int) (Value, bool) {
	v, ok := m.values[index.String()]
	return v, ok
}

func (m *Memory) Set(index *big.Int, v Value) {
	m.values[index.String()] = v
}

func (m *Memory) Remove(index *big.Int) {
	delete(m.values, index.String())
}

// builtinBindings returns the fixed Memory indices preloaded at startup.
// Index 2 is intentionally left unbound (reserved for a future blocking
// single-character Read).
func builtinBindings() map[*big.Int]*Function {
	return map[*big.Int]*Function{
		big.NewInt(0):  NewBuiltin(true, 0, BuiltinPrint),
		big.NewInt(1):  NewBuiltin(true, 0, BuiltinPrintLn),
		big.NewInt(3):  NewBuiltin(false, 0, BuiltinReadLn),
		big.NewInt(4):  NewBuiltin(false, 1, BuiltinToBool),
		big.NewInt(5):  NewBuiltin(false, 1, BuiltinToStr),
		big.NewInt(6):  NewBuiltin(false, 1, BuiltinToInt),
		big.NewInt(7):  NewBuiltin(false, 1, BuiltinTrim),
		big.NewInt(8):  NewBuiltin(false, 1, BuiltinLen),
		big.NewInt(9):  NewBuiltin(false, 2, BuiltinPush),
		big.NewInt(10): NewBuiltin(false, 1, BuiltinPop),
	}
}
