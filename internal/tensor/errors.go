package tensor

import (
	"errors"
	"fmt"
)

// ErrShape is the sentinel matched by every ShapeError.
var ErrShape = errors.New("shape error")

// ShapeError reports an operation applied to tensors of incompatible shapes.
//
// Tensor operations and layer Forward methods panic with a *ShapeError; use
// errors.Is(err, ErrShape) after recovering it (see nn.SafeForward).
type ShapeError struct {
	Op  string
	Msg string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// Unwrap lets errors.Is match ErrShape.
func (e *ShapeError) Unwrap() error {
	return ErrShape
}

// Panicf panics with a *ShapeError built from format and args.
func Panicf(op, format string, args ...any) {
	panic(&ShapeError{Op: op, Msg: fmt.Sprintf(format, args...)})
}
