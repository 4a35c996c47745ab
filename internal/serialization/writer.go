package serialization

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
)

// Writer writes state files to an underlying io.Writer.
type Writer struct {
	w io.Writer
}

// NewWriter creates a writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteStateDict writes tensors and metadata as one state file.
//
// Tensors are laid out in name order. The format name, format version and
// data checksum are added to metadata; caller entries with those keys are
// overwritten.
func (w *Writer) WriteStateDict(tensors map[string][]float64, metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > MaxTensorCount {
		return fmt.Errorf("%w: got %d, max %d", ErrTooManyTensors, len(names), MaxTensorCount)
	}

	// Data section
	var data bytes.Buffer
	header := make(map[string]any, len(names)+1)
	buf := make([]byte, float64Size)
	for _, name := range names {
		values := tensors[name]
		begin := int64(data.Len())
		for _, v := range values {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			data.Write(buf)
		}
		header[name] = TensorMeta{
			Name:        name,
			DType:       DTypeFloat64,
			Shape:       []int64{int64(len(values))},
			DataOffsets: [2]int64{begin, int64(data.Len())},
		}
	}

	meta := make(map[string]string, len(metadata)+3)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[MetaFormat] = FormatName
	meta[MetaFormatVersion] = FormatVersion
	meta[MetaChecksum] = FormatChecksum(ComputeChecksum(data.Bytes()))
	header[MetadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if pad := len(headerJSON) % HeaderAlignment; pad != 0 {
		headerJSON = append(headerJSON, bytes.Repeat([]byte{' '}, HeaderAlignment-pad)...)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	if err := binary.Write(w.w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.w.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// WriteFile writes a state file to path, replacing any existing file.
func WriteFile(path string, tensors map[string][]float64, metadata map[string]string) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for state saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	bw := bufio.NewWriter(file)
	if err := NewWriter(bw).WriteStateDict(tensors, metadata); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush file: %w", err)
	}
	return nil
}
