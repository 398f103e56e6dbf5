// Package serialization implements the .flint binary format for saving and
// loading model weights and training checkpoints.
//
// A .flint file starts with a 64-byte fixed header carrying the magic bytes,
// format version, flags, sizes and a SHA-256 checksum of the tensor data.
// A JSON header describing the stored tensors follows, then the raw tensor
// data aligned to a 64-byte boundary.
//
// Example:
//
//	err := serialization.SaveStateDict("model.flint", model.StateDict(), "Sequential")
//	...
//	stateDict, header, err := serialization.LoadStateDict("model.flint", tensor.CPU)
//	err = model.LoadStateDict(stateDict)
package serialization
