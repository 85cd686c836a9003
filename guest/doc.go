// Package guest attaches a stack gauge to the shadow stack of a
// WebAssembly guest running under wazero.
//
// Clang and Rust wasm guests keep their call frames on a shadow stack in
// linear memory, below the address held by the __stack_pointer global at
// instantiation time. That region behaves exactly like a hardware stack:
// it grows downward, its bounds are fixed at link time, and overrunning it
// silently corrupts adjacent data. A Probe paints it with the sentinel
// pattern and scans it from the deep end, the same way native does for a
// hardware stack.
//
// Painting must precede the guest's entry point. Instantiate the module
// with start functions deferred, attach and paint, then invoke the export:
//
//	cfg := wazero.NewModuleConfig().WithStartFunctions()
//	mod, _ := r.InstantiateWithConfig(ctx, wasmBytes, cfg)
//
//	probe, err := guest.Attach(mod, guest.WithStackSize(64*1024))
//	if err != nil { ... }
//	probe.Paint()
//
//	mod.ExportedFunction("_start").Call(ctx)
//	unused, _ := probe.Unused()
package guest
