package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Limits applied to untrusted state files.
const (
	MaxHeaderSize    = 100 * 1024 * 1024
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

// ValidationLevel controls how much of a header is checked on read.
type ValidationLevel int

const (
	// ValidationStrict runs every check and requires a checksum (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names, dtypes and shapes but skips the overlap scan.
	ValidationNormal
	// ValidationNone trusts the header. Byte ranges are still bounds checked.
	ValidationNone
)

func invalid(kind, tensor string, sentinel error, format string, args ...any) *ValidationError {
	return &ValidationError{Type: kind, Tensor: tensor, Details: fmt.Sprintf(format, args...), Err: sentinel}
}

func checkCount(n int) error {
	if n > MaxTensorCount {
		return invalid("too_many_tensors", "", ErrTooManyTensors, "got %d, max %d", n, MaxTensorCount)
	}
	return nil
}

// checkRange rejects byte ranges that are inverted, negative, not a whole
// number of elements or past the end of the data section.
func checkRange(t TensorMeta, dataSize int64) error {
	begin, end := t.DataOffsets[0], t.DataOffsets[1]
	if begin < 0 || end < begin || (end-begin)%float64Size != 0 {
		return invalid("negative_offset", t.Name, ErrNegativeOffset, "data_offsets=[%d, %d]", begin, end)
	}
	if end > dataSize {
		return invalid("out_of_bounds", t.Name, ErrOutOfBounds, "end %d > data_size %d", end, dataSize)
	}
	return nil
}

func checkBounds(metas []TensorMeta, dataSize int64) error {
	for _, t := range metas {
		if err := checkRange(t, dataSize); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTensorOffsets checks every byte range and that no two ranges overlap.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if err := checkCount(len(tensors)); err != nil {
		return err
	}

	byBegin := append([]TensorMeta(nil), tensors...)
	sort.Slice(byBegin, func(i, j int) bool {
		return byBegin[i].DataOffsets[0] < byBegin[j].DataOffsets[0]
	})

	for i, t := range byBegin {
		if err := checkRange(t, dataSize); err != nil {
			return err
		}
		if i+1 == len(byBegin) {
			break
		}
		if next := byBegin[i+1]; t.DataOffsets[1] > next.DataOffsets[0] {
			err := invalid("offset_overlap", t.Name, ErrOffsetOverlap, "regions [%d-%d] and [%d-%d] overlap",
				t.DataOffsets[0], t.DataOffsets[1], next.DataOffsets[0], next.DataOffsets[1])
			err.Tensor2 = next.Name
			return err
		}
	}
	return nil
}

// ValidateTensorName rejects empty, oversized, reserved and path-like names.
func ValidateTensorName(name string) error {
	var reason string
	switch {
	case name == "":
		reason = "empty tensor name"
	case len(name) > MaxTensorNameLen:
		return invalid("name_too_long", name, ErrTensorNameTooLong, "length %d > max %d", len(name), MaxTensorNameLen)
	case name == MetadataKey:
		reason = "reserved for metadata"
	case strings.Contains(name, ".."):
		reason = "contains '..'"
	case strings.ContainsAny(name, "/\\"):
		reason = "contains path separator"
	case strings.ContainsRune(name, 0):
		reason = "contains null byte"
	default:
		return nil
	}
	return invalid("invalid_name", name, ErrInvalidTensorName, "%s", reason)
}

// ValidateTensorMeta checks the dtype and that the byte range matches the shape.
func ValidateTensorMeta(t TensorMeta) error {
	if t.DType != DTypeFloat64 {
		return invalid("unsupported_dtype", t.Name, ErrUnsupportedDType, "dtype %q, only %s is supported", t.DType, DTypeFloat64)
	}
	for _, d := range t.Shape {
		if d < 0 {
			return invalid("invalid_shape", t.Name, ErrShapeMismatch, "negative dimension in %v", t.Shape)
		}
	}
	if want := t.NumElements() * float64Size; t.Size() != want {
		return invalid("size_mismatch", t.Name, ErrShapeMismatch, "shape %v needs %d bytes, data_offsets span %d", t.Shape, want, t.Size())
	}
	return nil
}

// ValidateHeader checks a parsed header at the given level.
func ValidateHeader(tensors []TensorMeta, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}
	if err := checkCount(len(tensors)); err != nil {
		return err
	}
	for _, t := range tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if err := ValidateTensorMeta(t); err != nil {
			return err
		}
	}
	if level == ValidationStrict {
		return ValidateTensorOffsets(tensors, dataSize)
	}
	return nil
}
