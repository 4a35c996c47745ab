package serialization

// Format constants.
const (
	FormatName      = "descent-state"
	FormatVersion   = "1"
	HeaderAlignment = 8 // Header is padded so tensor data starts 8-byte aligned
	DTypeFloat64    = "F64"
	float64Size     = 8
)

// Reserved header and metadata keys.
const (
	MetadataKey       = "__metadata__"
	MetaFormat        = "format"
	MetaFormatVersion = "format_version"
	MetaChecksum      = "sha256"
)

// TensorMeta describes a tensor in the header.
type TensorMeta struct {
	Name        string   `json:"-"`            // Tensor name (the header key)
	DType       string   `json:"dtype"`        // Always "F64" for state files
	Shape       []int64  `json:"shape"`        // Tensor shape
	DataOffsets [2]int64 `json:"data_offsets"` // [begin, end) in the data section
}

// Size returns the byte length of the tensor.
func (m TensorMeta) Size() int64 {
	return m.DataOffsets[1] - m.DataOffsets[0]
}

// NumElements returns the product of the shape.
func (m TensorMeta) NumElements() int64 {
	n := int64(1)
	for _, d := range m.Shape {
		n *= d
	}
	return n
}
