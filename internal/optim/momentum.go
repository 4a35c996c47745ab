package optim

// StandardMomentum accumulates a velocity of past descent steps.
//
// With d the raw negative descent value and v the stored velocity:
//
//	v[i] = weight * v[i] - d
//	param += v[i]
//
// so the corrected negative descent is -v[i].
type StandardMomentum struct {
	weight   float64
	velocity MomentState
}

// NewStandardMomentum creates a momentum correction with weight in [0, 1).
func NewStandardMomentum(weight float64) (*StandardMomentum, error) {
	if err := checkUnitInterval(ParamWeight, weight); err != nil {
		return nil, err
	}
	return &StandardMomentum{weight: weight, velocity: NewMomentState("velocity")}, nil
}

// Name implements Correction.
func (m *StandardMomentum) Name() string {
	return "momentum"
}

// Weight returns the momentum weight.
func (m *StandardMomentum) Weight() float64 {
	return m.weight
}

// CanAllocate implements Correction.
func (m *StandardMomentum) CanAllocate(n int) error {
	return m.velocity.Fits(n)
}

// Allocate implements Correction.
func (m *StandardMomentum) Allocate(n int) error {
	return m.velocity.Allocate(n)
}

// Correct implements Correction.
func (m *StandardMomentum) Correct(_, direction []float64) error {
	if err := m.velocity.Allocate(len(direction)); err != nil {
		return err
	}
	v := m.velocity.values
	for i, d := range direction {
		v[i] = m.weight*v[i] - d
		direction[i] = -v[i]
	}
	return nil
}

// Hyperparameters implements Stateful.
func (m *StandardMomentum) Hyperparameters() map[string]float64 {
	return map[string]float64{ParamWeight: m.weight}
}

// SetHyperparameters implements Stateful.
func (m *StandardMomentum) SetHyperparameters(params map[string]float64) error {
	w, err := momentumWeight(m.weight, params)
	if err != nil {
		return err
	}
	m.weight = w
	return nil
}

// StateDict implements Stateful.
func (m *StandardMomentum) StateDict() map[string][]float64 {
	return stateDict(&m.velocity)
}

// LoadStateDict implements Stateful.
func (m *StandardMomentum) LoadStateDict(state map[string][]float64) error {
	return loadStates(state, &m.velocity)
}

// NesterovMomentum applies Nesterov's accelerated gradient as a correction.
//
// With d the raw negative descent value and v the stored velocity:
//
//	prev = v[i]
//	v[i] = weight * prev - d
//	param += (1+weight) * v[i] - weight * prev
type NesterovMomentum struct {
	weight   float64
	velocity MomentState
}

// NewNesterovMomentum creates a Nesterov correction with weight in [0, 1).
func NewNesterovMomentum(weight float64) (*NesterovMomentum, error) {
	if err := checkUnitInterval(ParamWeight, weight); err != nil {
		return nil, err
	}
	return &NesterovMomentum{weight: weight, velocity: NewMomentState("velocity")}, nil
}

// Name implements Correction.
func (m *NesterovMomentum) Name() string {
	return "nesterov"
}

// Weight returns the momentum weight.
func (m *NesterovMomentum) Weight() float64 {
	return m.weight
}

// CanAllocate implements Correction.
func (m *NesterovMomentum) CanAllocate(n int) error {
	return m.velocity.Fits(n)
}

// Allocate implements Correction.
func (m *NesterovMomentum) Allocate(n int) error {
	return m.velocity.Allocate(n)
}

// Correct implements Correction.
func (m *NesterovMomentum) Correct(_, direction []float64) error {
	if err := m.velocity.Allocate(len(direction)); err != nil {
		return err
	}
	v := m.velocity.values
	for i, d := range direction {
		prev := v[i]
		v[i] = m.weight*prev - d
		direction[i] = m.weight*prev - (1.0+m.weight)*v[i]
	}
	return nil
}

// Hyperparameters implements Stateful.
func (m *NesterovMomentum) Hyperparameters() map[string]float64 {
	return map[string]float64{ParamWeight: m.weight}
}

// SetHyperparameters implements Stateful.
func (m *NesterovMomentum) SetHyperparameters(params map[string]float64) error {
	w, err := momentumWeight(m.weight, params)
	if err != nil {
		return err
	}
	m.weight = w
	return nil
}

// StateDict implements Stateful.
func (m *NesterovMomentum) StateDict() map[string][]float64 {
	return stateDict(&m.velocity)
}

// LoadStateDict implements Stateful.
func (m *NesterovMomentum) LoadStateDict(state map[string][]float64) error {
	return loadStates(state, &m.velocity)
}

func momentumWeight(current float64, params map[string]float64) (float64, error) {
	for name, v := range params {
		if name != ParamWeight {
			return 0, invalidArgument(name, v, "unknown hyperparameter for momentum")
		}
		if err := checkUnitInterval(ParamWeight, v); err != nil {
			return 0, err
		}
		current = v
	}
	return current, nil
}
