package serialization

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Limits applied to untrusted headers.
const (
	MaxHeaderSize    = 100 * 1024 * 1024
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

// Sentinel errors.
var (
	ErrTensorNotFound   = errors.New("tensor not found")
	ErrUnsupportedDType = errors.New("unsupported dtype")
	ErrHeaderTooLarge   = errors.New("header exceeds maximum size")
)

// ValidationError describes a malformed header entry. Type is a short
// machine-readable kind such as "offset_overlap" or "size_mismatch".
type ValidationError struct {
	Type    string
	Tensor  string
	Details string
}

func (e *ValidationError) Error() string {
	if e.Tensor == "" {
		return e.Type + ": " + e.Details
	}
	return fmt.Sprintf("%s: tensor %q: %s", e.Type, e.Tensor, e.Details)
}

// checkRanges verifies that every byte range lies inside a data section of
// dataSize bytes and that no two ranges share a byte.
func checkRanges(tensors map[string]TensorInfo, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{Type: "too_many_tensors", Details: fmt.Sprintf("%d > %d", len(tensors), MaxTensorCount)}
	}

	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Compare(tensors[a].DataOffsets[0], tensors[b].DataOffsets[0])
	})

	end := int64(0)
	prev := ""
	for _, name := range names {
		begin, stop := tensors[name].DataOffsets[0], tensors[name].DataOffsets[1]
		switch {
		case begin < 0 || stop < begin:
			return &ValidationError{Type: "negative_offset", Tensor: name, Details: fmt.Sprintf("range [%d, %d)", begin, stop)}
		case stop > dataSize:
			return &ValidationError{Type: "out_of_bounds", Tensor: name, Details: fmt.Sprintf("range ends at %d, data has %d bytes", stop, dataSize)}
		case begin < end:
			return &ValidationError{Type: "offset_overlap", Tensor: name, Details: fmt.Sprintf("starts at %d inside %q ending at %d", begin, prev, end)}
		}
		end, prev = stop, name
	}
	return nil
}

// ValidateTensorName rejects empty, oversized and path-like names. Slashes
// are allowed since weight keys are "layer/param".
func ValidateTensorName(name string) error {
	bad := func(details string) error {
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: details}
	}
	switch {
	case name == "":
		return bad("empty")
	case len(name) > MaxTensorNameLen:
		return bad(fmt.Sprintf("length %d > %d", len(name), MaxTensorNameLen))
	case strings.Contains(name, ".."), strings.HasPrefix(name, "/"), strings.Contains(name, "\\"):
		return bad("looks like a file path")
	case strings.ContainsRune(name, 0):
		return bad("contains a null byte")
	}
	return nil
}
