package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
)

// ReaderOptions configures how a state file is read.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level, strict by default
}

// File is a parsed state file held in memory.
type File struct {
	Metadata map[string]string
	Tensors  map[string]TensorMeta
	data     []byte
}

// Names returns the tensor names in sorted order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Tensors))
	for name := range f.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tensor decodes the named tensor. The second result is false if the file
// has no tensor with that name.
func (f *File) Tensor(name string) ([]float64, bool) {
	meta, ok := f.Tensors[name]
	if !ok {
		return nil, false
	}
	raw := f.data[meta.DataOffsets[0]:meta.DataOffsets[1]]
	values := make([]float64, len(raw)/float64Size)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*float64Size:]))
	}
	return values, true
}

// StateDict decodes every tensor.
func (f *File) StateDict() map[string][]float64 {
	out := make(map[string][]float64, len(f.Tensors))
	for name := range f.Tensors {
		out[name], _ = f.Tensor(name)
	}
	return out
}

// Read parses a state file from r.
//
//nolint:gocyclo,cyclop // Sequential parse and validation steps
func Read(r io.Reader, opts ReaderOptions) (*File, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	f := &File{
		Metadata: map[string]string{},
		Tensors:  make(map[string]TensorMeta, len(raw)),
	}
	if m, ok := raw[MetadataKey]; ok {
		if err := json.Unmarshal(m, &f.Metadata); err != nil {
			return nil, fmt.Errorf("failed to parse metadata: %w", err)
		}
		delete(raw, MetadataKey)
	}
	if format, ok := f.Metadata[MetaFormat]; ok && format != FormatName {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	metas := make([]TensorMeta, 0, len(raw))
	for name, m := range raw {
		var meta TensorMeta
		if err := json.Unmarshal(m, &meta); err != nil {
			return nil, fmt.Errorf("failed to parse tensor %q: %w", name, err)
		}
		meta.Name = name
		f.Tensors[name] = meta
		metas = append(metas, meta)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	f.data = data

	if err := ValidateHeader(metas, int64(len(data)), opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	// Bounds are always enforced so Tensor never slices past the data.
	if opts.ValidationLevel != ValidationStrict {
		if err := checkBounds(metas, int64(len(data))); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
	}

	if !opts.SkipChecksumValidation {
		if err := f.verifyChecksum(opts.ValidationLevel); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ReadFile parses the state file at path.
func ReadFile(path string, opts ReaderOptions) (*File, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for state loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	f, err := Read(bufio.NewReader(file), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func (f *File) verifyChecksum(level ValidationLevel) error {
	stored, ok := f.Metadata[MetaChecksum]
	if !ok {
		if level == ValidationStrict {
			return ErrChecksumMissing
		}
		return nil
	}
	want, err := ParseChecksum(stored)
	if err != nil {
		return err
	}
	return ValidateChecksum(ComputeChecksum(f.data), want)
}
