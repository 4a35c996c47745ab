package optim

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Updater applies a Rule, and optionally a Correction, to a parameter vector
// once per training iteration.
//
// Adaptive state is allocated on the first UpdateVariable call and sized to
// that call's parameter vector. The vector length must stay fixed for the
// life of the updater.
//
// Updater is not safe for concurrent use.
type Updater struct {
	rule       Rule
	correction Correction
	log        logrus.FieldLogger
	size       int       // Parameter count seen on first allocation, 0 before
	direction  []float64 // Scratch buffer reused across calls
}

// UpdaterOption configures an Updater.
type UpdaterOption func(*Updater)

// WithCorrection sets the correction applied to each descent vector.
func WithCorrection(c Correction) UpdaterOption {
	return func(u *Updater) {
		u.correction = c
	}
}

// WithLogger sets the logger used for lifecycle events. Defaults to the
// logrus standard logger.
func WithLogger(log logrus.FieldLogger) UpdaterOption {
	return func(u *Updater) {
		u.log = log
	}
}

// NewUpdater creates an updater driving rule.
func NewUpdater(rule Rule, opts ...UpdaterOption) (*Updater, error) {
	if rule == nil {
		return nil, invalidArgument("rule", nil, "must not be nil")
	}
	u := &Updater{
		rule: rule,
		log:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(u)
	}
	u.log = u.log.WithField("rule", rule.Name())
	return u, nil
}

// MustNewUpdater is like NewUpdater but panics if rule is nil.
func MustNewUpdater(rule Rule, opts ...UpdaterOption) *Updater {
	u, err := NewUpdater(rule, opts...)
	if err != nil {
		panic(err)
	}
	return u
}

// Rule returns the update rule.
func (u *Updater) Rule() Rule {
	return u.rule
}

// Correction returns the correction, or nil if none is set.
func (u *Updater) Correction() Correction {
	return u.correction
}

// Size returns the parameter count the adaptive state was sized for,
// or 0 before the first update.
func (u *Updater) Size() int {
	return u.size
}

// UpdateVariable moves parameters one step against the descent direction.
//
// For each index the rule turns rawNegativeDescent[i] (usually the gradient)
// into a negative descent value, the correction adjusts the whole vector,
// and the result is subtracted from parameters in place.
//
// Returns ErrInvalidArgument if parameters is empty, ErrDimensionMismatch if
// the two vectors differ in length, and ErrOutOfRange if parameters is longer
// than the adaptive state allocated on an earlier call. On error parameters
// are left unmodified.
func (u *Updater) UpdateVariable(parameters, rawNegativeDescent []float64, learningRate float64) error {
	if len(parameters) == 0 {
		return invalidArgument("parameters", len(parameters), "must not be empty")
	}
	if len(parameters) != len(rawNegativeDescent) {
		return errors.WithStack(&ErrDimensionMismatch{
			Name:     "gradient",
			Expected: len(parameters),
			Actual:   len(rawNegativeDescent),
		})
	}
	if err := u.allocate(len(parameters)); err != nil {
		return err
	}

	if a, ok := u.rule.(Advancer); ok {
		a.Advance()
	}

	direction := u.scratch(len(parameters))
	for i, g := range rawNegativeDescent {
		d, err := u.rule.Compute(g, i, learningRate)
		if err != nil {
			return err
		}
		direction[i] = d
	}

	if u.correction != nil {
		if err := u.correction.Correct(parameters, direction); err != nil {
			return err
		}
	}

	for i, d := range direction {
		parameters[i] -= d
	}
	return nil
}

// allocate sizes rule and correction state only once both are known to
// fit n, so a rejected call leaves all state untouched.
func (u *Updater) allocate(n int) error {
	if err := u.rule.CanAllocate(n); err != nil {
		return err
	}
	if u.correction != nil {
		if err := u.correction.CanAllocate(n); err != nil {
			return err
		}
	}
	if err := u.rule.Allocate(n); err != nil {
		return err
	}
	if u.correction != nil {
		if err := u.correction.Allocate(n); err != nil {
			return err
		}
	}
	if u.size == 0 {
		u.size = n
		u.log.WithField("size", n).Debug("allocated adaptive state")
	}
	return nil
}

func (u *Updater) scratch(n int) []float64 {
	if cap(u.direction) < n {
		u.direction = make([]float64, n)
	}
	return u.direction[:n]
}
