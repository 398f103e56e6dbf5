package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/flintml/flint/internal/tensor"
)

// Reader reads models from .flint format.
type Reader struct {
	file       *os.File
	header     Header
	flags      uint32
	dataOffset int64 // Offset where tensor data starts
	dataSize   int64 // Size of the data section
	checksum   [32]byte
	closed     bool
}

// ReaderOptions configures the behavior of Reader.
type ReaderOptions struct {
	SkipChecksumValidation bool // Skip checksum validation (faster but less safe)
}

// NewReader creates a new .flint file reader and validates the data checksum.
func NewReader(path string) (*Reader, error) {
	return NewReaderWithOptions(path, ReaderOptions{})
}

// NewReaderWithOptions creates a new .flint file reader with custom options.
func NewReaderWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	reader := &Reader{
		file:   file,
		closed: false,
	}

	if err := reader.parseHeader(opts); err != nil {
		_ = file.Close() // Best effort close on error
		return nil, err
	}

	return reader, nil
}

// parseHeader reads and parses the .flint file header.
func (r *Reader) parseHeader(opts ReaderOptions) error {
	fixedHeader := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r.file, fixedHeader); err != nil {
		return fmt.Errorf("failed to read fixed header: %w", err)
	}

	if string(fixedHeader[0:4]) != MagicBytes {
		return ErrInvalidMagic
	}

	version := binary.LittleEndian.Uint32(fixedHeader[4:8])
	if version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	r.flags = binary.LittleEndian.Uint32(fixedHeader[8:12])

	headerSize := binary.LittleEndian.Uint64(fixedHeader[16:24])
	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	r.dataSize = int64(binary.LittleEndian.Uint64(fixedHeader[24:32]))
	copy(r.checksum[:], fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize])

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r.file, headerBytes); err != nil {
		return fmt.Errorf("failed to read header JSON: %w", err)
	}
	if err := json.Unmarshal(headerBytes, &r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}

	// Tensor data starts at the next 64-byte boundary.
	currentPos := int64(FixedHeaderSize) + int64(headerSize)
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	r.dataOffset = currentPos + padding

	for _, meta := range r.header.Tensors {
		if meta.Offset < 0 || meta.Size < 0 || meta.Offset+meta.Size > r.dataSize {
			return fmt.Errorf("%w: tensor %q", ErrOutOfBounds, meta.Name)
		}
	}

	if !opts.SkipChecksumValidation {
		tensorData := make([]byte, r.dataSize)
		if _, err := r.file.Seek(r.dataOffset, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek to tensor data: %w", err)
		}
		if _, err := io.ReadFull(r.file, tensorData); err != nil {
			return fmt.Errorf("failed to read tensor data for checksum: %w", err)
		}
		if err := ValidateChecksum(ComputeChecksum(tensorData), r.checksum); err != nil {
			return err
		}
	}

	return nil
}

// Header returns the file header.
func (r *Reader) Header() Header {
	return r.header
}

// Metadata returns the metadata map from the header.
func (r *Reader) Metadata() map[string]string {
	return r.header.Metadata
}

// CheckpointMeta returns the checkpoint metadata, or nil if this file is not
// a training checkpoint.
func (r *Reader) CheckpointMeta() *CheckpointMeta {
	return r.header.CheckpointMeta
}

// TensorNames returns a list of all tensor names in the file.
func (r *Reader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// TensorInfo returns information about a specific tensor.
func (r *Reader) TensorInfo(name string) (*TensorMeta, error) {
	for _, meta := range r.header.Tensors {
		if meta.Name == name {
			return &meta, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
}

// LoadTensor loads a single tensor from the file.
func (r *Reader) LoadTensor(name string, device tensor.Device) (*tensor.RawTensor, error) {
	if r.closed {
		return nil, fmt.Errorf("reader is closed")
	}

	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	dtype, ok := stringToDtype(meta.DType)
	if !ok {
		return nil, fmt.Errorf("unsupported dtype: %s", meta.DType)
	}

	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape for tensor %s: %w", name, err)
	}

	if _, err := r.file.Seek(r.dataOffset+meta.Offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to tensor data: %w", err)
	}

	raw, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		return nil, fmt.Errorf("failed to create tensor: %w", err)
	}
	if _, err := io.ReadFull(r.file, raw.Data()); err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	return raw, nil
}

// ReadStateDict reads all tensors into a state dictionary.
func (r *Reader) ReadStateDict(device tensor.Device) (map[string]*tensor.RawTensor, error) {
	if r.closed {
		return nil, fmt.Errorf("reader is closed")
	}

	stateDict := make(map[string]*tensor.RawTensor)
	for _, meta := range r.header.Tensors {
		raw, err := r.LoadTensor(meta.Name, device)
		if err != nil {
			return nil, fmt.Errorf("failed to load tensor %s: %w", meta.Name, err)
		}
		stateDict[meta.Name] = raw
	}

	return stateDict, nil
}

// Close closes the reader and the underlying file.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// LoadStateDict is a convenience helper that reads a state dictionary from
// path in a single call.
func LoadStateDict(path string, device tensor.Device) (map[string]*tensor.RawTensor, Header, error) {
	reader, err := NewReader(path)
	if err != nil {
		return nil, Header{}, err
	}
	defer func() { _ = reader.Close() }()

	stateDict, err := reader.ReadStateDict(device)
	if err != nil {
		return nil, Header{}, err
	}
	return stateDict, reader.Header(), nil
}

// LoadCheckpoint reads a checkpoint written by SaveCheckpoint, splitting the
// stored tensors back into model and optimizer state dictionaries.
func LoadCheckpoint(path string, device tensor.Device) (modelState, optimizerState map[string]*tensor.RawTensor, meta *CheckpointMeta, err error) {
	reader, err := NewReader(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer func() { _ = reader.Close() }()

	all, err := reader.ReadStateDict(device)
	if err != nil {
		return nil, nil, nil, err
	}

	modelState = make(map[string]*tensor.RawTensor)
	optimizerState = make(map[string]*tensor.RawTensor)
	for name, raw := range all {
		if rest, ok := strings.CutPrefix(name, "optimizer."); ok {
			optimizerState[rest] = raw
		} else {
			modelState[name] = raw
		}
	}

	return modelState, optimizerState, reader.CheckpointMeta(), nil
}
