//go:build wasm

package main

import (
	"encoding/base64"
	"encoding/json"
	"sync"
	"syscall/js"

	"github.com/praetorian-inc/magus/pkg/catalog"
	"github.com/praetorian-inc/magus/pkg/scanner"
)

// registry hands out integer handles for scanner cores so JS callers
// never hold Go pointers across the boundary.
type registry struct {
	mu     sync.RWMutex
	cores  map[int]*scanner.Core
	nextID int
}

func (r *registry) add(core *scanner.Core) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.cores[id] = core
	return id
}

func (r *registry) get(handle int) (*scanner.Core, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	core, ok := r.cores[handle]
	return core, ok
}

func (r *registry) remove(handle int) (*scanner.Core, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	core, ok := r.cores[handle]
	if ok {
		delete(r.cores, handle)
	}
	return core, ok
}

var reg = registry{cores: make(map[int]*scanner.Core)}

// fail wraps an error message in the shape the JS side expects.
func fail(msg string) map[string]interface{} {
	return map[string]interface{}{"error": msg}
}

// asJSON marshals a result for the string boundary.
func asJSON(v interface{}) interface{} {
	out, err := json.Marshal(v)
	if err != nil {
		return fail("failed to marshal results: " + err.Error())
	}
	return string(out)
}

// newScanner creates a scanner from definition text.
// JS: MagusNewScanner(magicText) -> {handle} or {error}
// Pass "builtin" (or "") for the built-in definitions.
func newScanner(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("magicText argument required")
	}

	core, err := scanner.NewCore(args[0].String(), scanner.NoopLogger{})
	if err != nil {
		return fail("failed to create scanner: " + err.Error())
	}

	return map[string]interface{}{"handle": reg.add(core)}
}

// scan scans a single base64-encoded buffer. Base64 keeps arbitrary
// binary content intact across the JS string boundary.
// JS: MagusScan(handle, contentB64, source, bound?) -> JSON result or {error}
func scan(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return fail("handle and content arguments required")
	}

	content, err := base64.StdEncoding.DecodeString(args[1].String())
	if err != nil {
		return fail("content must be base64: " + err.Error())
	}

	source := ""
	if len(args) > 2 {
		source = args[2].String()
	}
	bound := len(content)
	if len(args) > 3 && args[3].Int() > 0 {
		bound = args[3].Int()
	}

	core, ok := reg.get(args[0].Int())
	if !ok {
		return fail("invalid scanner handle")
	}

	result, err := core.ScanBounded(content, source, bound)
	if err != nil {
		return fail("scan failed: " + err.Error())
	}
	return asJSON(result)
}

// scanBatch scans multiple content items. Item content is base64 in the
// JSON encoding, so items survive the string boundary unchanged.
// JS: MagusScanBatch(handle, itemsJSON) -> JSON results or {error}
func scanBatch(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return fail("handle and itemsJSON arguments required")
	}

	var items []scanner.ContentItem
	if err := json.Unmarshal([]byte(args[1].String()), &items); err != nil {
		return fail("failed to parse items JSON: " + err.Error())
	}

	core, ok := reg.get(args[0].Int())
	if !ok {
		return fail("invalid scanner handle")
	}

	batchResult, err := core.ScanBatch(items)
	if err != nil {
		return fail("batch scan failed: " + err.Error())
	}
	return asJSON(batchResult)
}

// closeScanner releases a scanner's resources.
// JS: MagusCloseScanner(handle)
func closeScanner(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("handle argument required")
	}

	core, ok := reg.remove(args[0].Int())
	if !ok {
		return fail("invalid scanner handle")
	}

	core.Close()
	return nil
}

// getBuiltinSignatures returns the built-in definition text.
// JS: MagusGetBuiltinSignatures() -> definition text
func getBuiltinSignatures(this js.Value, args []js.Value) interface{} {
	session := catalog.New()
	if err := session.LoadBuiltin(); err != nil {
		return fail("failed to load builtin definitions: " + err.Error())
	}

	return string(session.Stream())
}
