// Package serialization reads and writes optimizer state files.
//
// State files use the SafeTensors layout so that they can be inspected with
// standard tooling:
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON object, space padded to a multiple of 8 bytes]
//	  [Tensor data: float64 little-endian values, back to back]
//
// The header maps each tensor name to its dtype, shape and byte range in the
// data section. The reserved "__metadata__" entry holds string metadata; the
// writer records the format name and a SHA-256 checksum of the data section
// there, and the reader verifies it.
//
// Example usage:
//
//	tensors := map[string][]float64{"rule.mean_square": ms}
//	meta := map[string]string{"rule": "rmsprop"}
//	if err := serialization.WriteFile("state.safetensors", tensors, meta); err != nil {
//	    return err
//	}
//
//	f, err := serialization.ReadFile("state.safetensors", serialization.ReaderOptions{})
//	if err != nil {
//	    return err
//	}
//	ms, ok := f.Tensor("rule.mean_square")
package serialization
