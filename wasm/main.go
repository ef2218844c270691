//go:build wasm

package main

import "syscall/js"

// exports maps global JS names to their Go implementations.
var exports = map[string]func(js.Value, []js.Value) interface{}{
	"MagusNewScanner":           newScanner,
	"MagusScan":                 scan,
	"MagusScanBatch":            scanBatch,
	"MagusCloseScanner":         closeScanner,
	"MagusGetBuiltinSignatures": getBuiltinSignatures,
}

func main() {
	for name, fn := range exports {
		js.Global().Set(name, js.FuncOf(fn))
	}

	// Block forever; the runtime must stay resident for JS callers.
	select {}
}
