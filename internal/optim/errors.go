package optim

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidArgument is returned when a hyperparameter or call argument is
// outside its allowed range. Message is optional and omitted when empty.
type ErrInvalidArgument struct {
	Name    string      // Name of the argument, e.g., "decay_factor"
	Value   interface{} // The invalid value that was provided
	Message string      // Why the value is invalid, e.g., "outside allowed range [0, 1)"
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %v is invalid for argument %q", err.Value, err.Name)
	}
	return fmt.Sprintf("value %v is invalid for argument %q; %s", err.Value, err.Name, err.Message)
}

// ErrDimensionMismatch is returned when two vectors that must have the same
// length do not.
type ErrDimensionMismatch struct {
	Name     string // What was being compared, e.g., "gradient"
	Expected int    // Length of the reference vector (the parameters)
	Actual   int    // Length that was provided
}

func (err *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("length of %s (%d) does not match length of parameters (%d)", err.Name, err.Actual, err.Expected)
}

// ErrOutOfRange is returned when an index falls outside the adaptive state.
type ErrOutOfRange struct {
	Name  string // Name of the indexed state, e.g., "mean_square"
	Index int
	Len   int
}

func (err *ErrOutOfRange) Error() string {
	return fmt.Sprintf("index %d is out of range for %s of length %d", err.Index, err.Name, err.Len)
}

func invalidArgument(name string, value interface{}, message string) error {
	return errors.WithStack(&ErrInvalidArgument{
		Name:    name,
		Value:   value,
		Message: message,
	})
}

// The comparisons are written so that NaN fails every check.

func checkPositive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 1) {
		return invalidArgument(name, v, "outside allowed range (0, Inf)")
	}
	return nil
}

func checkNonNegative(name string, v float64) error {
	if !(v >= 0) || math.IsInf(v, 1) {
		return invalidArgument(name, v, "outside allowed range [0, Inf)")
	}
	return nil
}

func checkUnitInterval(name string, v float64) error {
	if !(v >= 0 && v < 1) {
		return invalidArgument(name, v, "outside allowed range [0, 1)")
	}
	return nil
}
