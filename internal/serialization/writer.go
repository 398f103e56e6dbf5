package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/flintml/flint/internal/tensor"
)

const flintVersion = "0.1.0" // Current Flint version

// Writer writes models in .flint format.
//
// The on-disk layout is:
//
//	0x00-0x03  magic bytes "FLNT"
//	0x04-0x07  format version (uint32, little-endian)
//	0x08-0x0B  flags (uint32, little-endian)
//	0x0C-0x0F  reserved
//	0x10-0x17  JSON header size (uint64, little-endian)
//	0x18-0x1F  tensor data size (uint64, little-endian)
//	0x20-0x3F  SHA-256 checksum of the tensor data
//	0x40-...   JSON header, then padding to 64-byte alignment, then tensor data
type Writer struct {
	file   *os.File
	closed bool
}

// NewWriter creates a new .flint file writer.
func NewWriter(path string) (*Writer, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &Writer{
		file:   file,
		closed: false,
	}, nil
}

// WriteStateDict writes a state dictionary to the .flint file.
//
// The state dictionary is a map from parameter names to tensors. Tensors are
// written in sorted name order so the output is deterministic.
func (w *Writer) WriteStateDict(stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	header := Header{
		FormatVersion: FormatVersion,
		FlintVersion:  flintVersion,
		ModelType:     modelType,
		CreatedAt:     time.Now().UTC(),
		Metadata:      metadata,
	}
	return w.WriteStateDictWithHeader(stateDict, header)
}

// WriteStateDictWithHeader writes a state dictionary with a custom header.
//
// This allows setting CheckpointMeta and other header fields.
func (w *Writer) WriteStateDictWithHeader(stateDict map[string]*tensor.RawTensor, header Header) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	// Sort tensor names so offsets and checksum are reproducible.
	tensorOrder := make([]string, 0, len(stateDict))
	for name := range stateDict {
		tensorOrder = append(tensorOrder, name)
	}
	sort.Strings(tensorOrder)

	// Calculate tensor offsets and concatenate the data section.
	var currentOffset int64
	header.Tensors = make([]TensorMeta, 0, len(stateDict))
	var tensorData []byte

	for _, name := range tensorOrder {
		raw := stateDict[name]
		size := int64(raw.NumElements() * raw.DType().Size())

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: currentOffset,
			Size:   size,
		})

		currentOffset += size
		tensorData = append(tensorData, raw.Data()...)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	checksum := ComputeChecksum(tensorData)

	// Build the fixed header.
	fixedHeader := make([]byte, FixedHeaderSize)
	copy(fixedHeader[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixedHeader[4:8], uint32(FormatVersion))

	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if header.CheckpointMeta != nil {
		flags |= FlagHasOptimizer
	}
	binary.LittleEndian.PutUint32(fixedHeader[8:12], flags)

	binary.LittleEndian.PutUint64(fixedHeader[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixedHeader[24:32], uint64(len(tensorData)))
	copy(fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := w.file.Write(fixedHeader); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}

	if _, err := w.file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// Pad so tensor data starts at a 64-byte boundary.
	currentPos := int64(FixedHeaderSize) + int64(len(headerJSON))
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	if padding > 0 {
		paddingBytes := make([]byte, padding)
		if _, err := w.file.Write(paddingBytes); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := w.file.Write(tensorData); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	return nil
}

// Close closes the writer and the underlying file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// SaveStateDict is a convenience helper that writes a state dictionary to path
// in a single call.
func SaveStateDict(path string, stateDict map[string]*tensor.RawTensor, modelType string) error {
	writer, err := NewWriter(path)
	if err != nil {
		return err
	}
	defer func() { _ = writer.Close() }()

	return writer.WriteStateDict(stateDict, modelType, nil)
}

// SaveCheckpoint writes a model state dictionary together with optimizer state
// and training metadata. Optimizer tensors are stored under an "optimizer."
// name prefix so they never collide with model parameters.
func SaveCheckpoint(path string, modelState, optimizerState map[string]*tensor.RawTensor, modelType string, meta CheckpointMeta) error {
	combined := make(map[string]*tensor.RawTensor, len(modelState)+len(optimizerState))
	for name, raw := range modelState {
		combined[name] = raw
	}
	for name, raw := range optimizerState {
		combined["optimizer."+name] = raw
	}

	header := Header{
		FormatVersion:  FormatVersion,
		FlintVersion:   flintVersion,
		ModelType:      modelType,
		CreatedAt:      time.Now().UTC(),
		CheckpointMeta: &meta,
	}

	writer, err := NewWriter(path)
	if err != nil {
		return err
	}
	defer func() { _ = writer.Close() }()

	return writer.WriteStateDictWithHeader(combined, header)
}
