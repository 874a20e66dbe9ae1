package serialization

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// DType is a SafeTensors element type.
type DType string

// Supported dtypes.
const (
	F16  DType = "F16"
	BF16 DType = "BF16"
	F32  DType = "F32"
	F64  DType = "F64"
)

// Size returns the element size in bytes (0 for unknown dtypes).
func (d DType) Size() int {
	switch d {
	case F16, BF16:
		return 2
	case F32:
		return 4
	case F64:
		return 8
	default:
		return 0
	}
}

// TensorInfo describes one tensor in the header.
type TensorInfo struct {
	DType       DType    `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// Reader reads tensors from a SafeTensors file.
type Reader struct {
	file       *os.File
	tensors    map[string]TensorInfo
	metadata   map[string]string
	dataOffset int64
}

// Open parses the header of a SafeTensors file and validates its offsets.
func Open(path string) (*Reader, error) {
	//nolint:gosec // G304: weight paths come from configuration
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open safetensors")
	}
	r, err := newReader(file)
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return r, nil
}

func newReader(file *os.File) (*Reader, error) {
	var headerSize uint64
	if err := binary.Read(file, binary.LittleEndian, &headerSize); err != nil {
		return nil, errors.Wrap(err, "read header size")
	}
	if headerSize > MaxHeaderSize {
		return nil, errors.Wrapf(ErrHeaderTooLarge, "%d bytes", headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(file, headerBytes); err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerBytes, &raw); err != nil {
		return nil, errors.Wrap(err, "parse header JSON")
	}

	r := &Reader{
		file:       file,
		tensors:    make(map[string]TensorInfo, len(raw)),
		dataOffset: int64(8 + headerSize), //nolint:gosec // bounded by MaxHeaderSize
	}
	for name, value := range raw {
		if name == "__metadata__" {
			if err := json.Unmarshal(value, &r.metadata); err != nil {
				return nil, errors.Wrap(err, "parse metadata")
			}
			continue
		}
		if err := ValidateTensorName(name); err != nil {
			return nil, err
		}
		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return nil, errors.Wrapf(err, "parse tensor %s", name)
		}
		r.tensors[name] = info
	}

	stat, err := file.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat")
	}
	if err := checkRanges(r.tensors, stat.Size()-r.dataOffset); err != nil {
		return nil, err
	}
	return r, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Metadata returns the __metadata__ map of the header (may be nil).
func (r *Reader) Metadata() map[string]string {
	return r.metadata
}

// Names returns the tensor names in sorted order.
func (r *Reader) Names() []string {
	names := make([]string, 0, len(r.tensors))
	for name := range r.tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info returns the header entry of a tensor.
func (r *Reader) Info(name string) (TensorInfo, error) {
	info, ok := r.tensors[name]
	if !ok {
		return TensorInfo{}, errors.Wrap(ErrTensorNotFound, name)
	}
	return info, nil
}

// Float32 reads a tensor converted to float32 together with its shape.
func (r *Reader) Float32(name string) ([]float32, []int, error) {
	info, err := r.Info(name)
	if err != nil {
		return nil, nil, err
	}
	elem := info.DType.Size()
	if elem == 0 {
		return nil, nil, errors.Wrapf(ErrUnsupportedDType, "%s has dtype %s", name, info.DType)
	}

	size := info.DataOffsets[1] - info.DataOffsets[0]
	numel := int64(1)
	for _, d := range info.Shape {
		numel *= int64(d)
	}
	if numel*int64(elem) != size {
		return nil, nil, &ValidationError{
			Type:    "size_mismatch",
			Tensor:  name,
			Details: "byte range does not match shape and dtype",
		}
	}

	buf := make([]byte, size)
	if _, err := r.file.ReadAt(buf, r.dataOffset+info.DataOffsets[0]); err != nil {
		return nil, nil, errors.Wrapf(err, "read tensor %s", name)
	}
	return decode(buf, info.DType, int(numel)), info.Shape, nil
}

func decode(buf []byte, dtype DType, n int) []float32 {
	out := make([]float32, n)
	le := binary.LittleEndian
	for i := range out {
		switch dtype {
		case F32:
			out[i] = math.Float32frombits(le.Uint32(buf[i*4:]))
		case F64:
			out[i] = float32(math.Float64frombits(le.Uint64(buf[i*8:])))
		case BF16:
			out[i] = math.Float32frombits(uint32(le.Uint16(buf[i*2:])) << 16)
		case F16:
			out[i] = halfToFloat32(le.Uint16(buf[i*2:]))
		}
	}
	return out
}

// halfToFloat32 converts an IEEE 754 half-precision value.
func halfToFloat32(h uint16) float32 {
	sign := uint32(h>>15) << 31
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff

	switch {
	case exp == 0 && frac == 0:
		return math.Float32frombits(sign)
	case exp == 0:
		// subnormal: renormalize
		e := uint32(127 - 15 + 1)
		for frac&0x400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x3ff
		return math.Float32frombits(sign | e<<23 | frac<<13)
	case exp == 0x1f:
		return math.Float32frombits(sign | 0xff<<23 | frac<<13)
	default:
		return math.Float32frombits(sign | (exp+127-15)<<23 | frac<<13)
	}
}

// Tensor is a named float32 array to be written.
type Tensor struct {
	Shape []int
	Data  []float32
}

// Write stores tensors as F32 in alphabetical order of name.
func Write(path string, tensors map[string]Tensor, metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name, t := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		numel := 1
		for _, d := range t.Shape {
			numel *= d
		}
		if numel != len(t.Data) {
			return &ValidationError{Type: "size_mismatch", Tensor: name, Details: "data length does not match shape"}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	if len(metadata) > 0 {
		header["__metadata__"] = metadata
	}
	var offset int64
	for _, name := range names {
		t := tensors[name]
		size := int64(len(t.Data) * 4)
		shape := t.Shape
		if shape == nil {
			shape = []int{}
		}
		header[name] = TensorInfo{DType: F32, Shape: shape, DataOffsets: [2]int64{offset, offset + size}}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "marshal header")
	}

	//nolint:gosec // G304: output path is chosen by the caller
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create safetensors")
	}
	defer func() {
		_ = file.Close()
	}()

	if err := binary.Write(file, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return errors.Wrap(err, "write header size")
	}
	if _, err := file.Write(headerJSON); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, name := range names {
		data := tensors[name].Data
		buf := make([]byte, len(data)*4)
		for i, v := range data {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
		if _, err := file.Write(buf); err != nil {
			return errors.Wrapf(err, "write tensor %s", name)
		}
	}
	return file.Sync()
}
