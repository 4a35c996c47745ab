package optim

import "github.com/pkg/errors"

// MomentState is a per-parameter accumulator threaded through successive
// update calls, such as an exponential moving average of squared gradients.
//
// The zero value is empty. It is sized once, on the first call to Allocate
// with a positive length, and is never resized afterwards. Callers must keep
// the parameter vector the same length for the life of the owning rule;
// shorter vectors are tolerated, longer ones are rejected.
type MomentState struct {
	name   string
	values []float64
}

// NewMomentState returns an empty state. The name appears in errors and in
// persisted state dictionaries.
func NewMomentState(name string) MomentState {
	return MomentState{name: name}
}

// Name returns the state name.
func (s *MomentState) Name() string {
	return s.name
}

// Len returns the number of allocated entries (0 before first use).
func (s *MomentState) Len() int {
	return len(s.values)
}

// Fits reports whether Allocate(n) would succeed, without changing the
// state. It returns ErrOutOfRange for the first index an allocated state
// shorter than n could not serve.
func (s *MomentState) Fits(n int) error {
	if len(s.values) != 0 && n > len(s.values) {
		return errors.WithStack(&ErrOutOfRange{Name: s.name, Index: len(s.values), Len: len(s.values)})
	}
	return nil
}

// Allocate sizes an empty state to n zeros. An already allocated state is
// left untouched; if it is shorter than n the error from Fits is returned.
func (s *MomentState) Allocate(n int) error {
	if err := s.Fits(n); err != nil {
		return err
	}
	if len(s.values) == 0 && n > 0 {
		s.values = make([]float64, n)
	}
	return nil
}

// At returns the value at idx.
func (s *MomentState) At(idx int) (float64, error) {
	if err := s.check(idx); err != nil {
		return 0, err
	}
	return s.values[idx], nil
}

// Values returns a copy of the state.
func (s *MomentState) Values() []float64 {
	if len(s.values) == 0 {
		return nil
	}
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// Load replaces the state with a copy of values. Loading an empty slice
// resets the state so that it is allocated again on next use.
func (s *MomentState) Load(values []float64) {
	if len(values) == 0 {
		s.values = nil
		return
	}
	s.values = make([]float64, len(values))
	copy(s.values, values)
}

func (s *MomentState) check(idx int) error {
	if idx < 0 || idx >= len(s.values) {
		return errors.WithStack(&ErrOutOfRange{Name: s.name, Index: idx, Len: len(s.values)})
	}
	return nil
}

// average folds sample into the exponential moving average at idx:
//
//	state[idx] = decay*state[idx] + (1-decay)*sample
func (s *MomentState) average(idx int, decay, sample float64) float64 {
	v := decay*s.values[idx] + (1.0-decay)*sample
	s.values[idx] = v
	return v
}

// accumulate adds sample to the running sum at idx.
func (s *MomentState) accumulate(idx int, sample float64) float64 {
	s.values[idx] += sample
	return s.values[idx]
}
