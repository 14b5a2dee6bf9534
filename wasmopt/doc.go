// Package wasmopt post-processes compiled WebAssembly modules.
//
// The optimizer works at section granularity: it parses a module into its
// raw sections, drops custom sections the codegen profile marks as
// unnecessary (debug names, DWARF data, producer metadata), and re-encodes
// the result with minimal LEB128 size prefixes. Function bodies are never
// rewritten, so an optimized module always computes exactly what the input
// module computed.
//
//	m, err := wasmopt.Parse(data)
//	if err != nil {
//	    return err
//	}
//	m.Optimize(wasmopt.Profile{ShrinkLevel: 1, OptimizationLevel: 3})
//	out := m.Encode()
//
// The profile is an explicit argument of Optimize. Nothing in this package
// holds process-wide state, and Parse/Optimize/Encode are deterministic for
// identical inputs.
package wasmopt
