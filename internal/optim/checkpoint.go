package optim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/descent/internal/serialization"
)

// Reserved state file metadata keys and tensor prefixes.
const (
	MetaRule       = "rule"
	MetaCorrection = "correction"
	MetaSize       = "size"

	rulePrefix       = MetaRule + "."
	correctionPrefix = MetaCorrection + "."
)

// Snapshot is the persisted form of an Updater: the tensors and metadata
// that go into a state file.
type Snapshot struct {
	Tensors  map[string][]float64
	Metadata map[string]string
}

// Snapshot captures the rule and correction hyperparameters and adaptive
// state. The rule must implement Stateful; a correction that does not is
// recorded by name only.
func (u *Updater) Snapshot() (Snapshot, error) {
	rule, ok := u.rule.(Stateful)
	if !ok {
		return Snapshot{}, invalidArgument(MetaRule, u.rule.Name(), "rule state cannot be persisted")
	}

	s := Snapshot{
		Tensors:  make(map[string][]float64),
		Metadata: map[string]string{MetaRule: u.rule.Name(), MetaSize: strconv.Itoa(u.size)},
	}
	putStateful(s, rulePrefix, rule)
	if u.correction != nil {
		s.Metadata[MetaCorrection] = u.correction.Name()
		if c, ok := u.correction.(Stateful); ok {
			putStateful(s, correctionPrefix, c)
		}
	}
	return s, nil
}

// Restore applies a snapshot taken from an updater with the same rule and
// correction. On error the updater is left as it was.
func (u *Updater) Restore(s Snapshot) error {
	rule, ok := u.rule.(Stateful)
	if !ok {
		return invalidArgument(MetaRule, u.rule.Name(), "rule state cannot be persisted")
	}
	if got := s.Metadata[MetaRule]; got != u.rule.Name() {
		return invalidArgument(MetaRule, got, "state was saved for a different rule than "+u.rule.Name())
	}
	wantCorrection := ""
	if u.correction != nil {
		wantCorrection = u.correction.Name()
	}
	if got := s.Metadata[MetaCorrection]; got != wantCorrection {
		return invalidArgument(MetaCorrection, got, "state was saved for a different correction than "+strconv.Quote(wantCorrection))
	}

	ruleHP, corrHP, err := splitHyperparameters(s.Metadata)
	if err != nil {
		return err
	}
	ruleState, corrState, err := splitTensors(s.Tensors)
	if err != nil {
		return err
	}
	size := 0
	if v, ok := s.Metadata[MetaSize]; ok {
		if size, err = strconv.Atoi(v); err != nil || size < 0 {
			return invalidArgument(MetaSize, v, "must be a non-negative integer")
		}
	}

	targets := []Stateful{rule}
	hps := []map[string]float64{ruleHP}
	states := []map[string][]float64{ruleState}
	if c, ok := u.correction.(Stateful); ok {
		targets = append(targets, c)
		hps = append(hps, corrHP)
		states = append(states, corrState)
	} else if len(corrHP) > 0 || len(corrState) > 0 {
		return invalidArgument(MetaCorrection, wantCorrection, "correction state cannot be restored")
	}

	hpBackups := make([]map[string]float64, len(targets))
	stateBackups := make([]map[string][]float64, len(targets))
	for i, t := range targets {
		hpBackups[i] = t.Hyperparameters()
		stateBackups[i] = t.StateDict()
	}

	for i, t := range targets {
		if err := t.SetHyperparameters(hps[i]); err != nil {
			rollback(targets[:i], hpBackups, stateBackups)
			return err
		}
		if err := t.LoadStateDict(states[i]); err != nil {
			rollback(targets[:i+1], hpBackups, stateBackups)
			return err
		}
	}
	u.size = size
	return nil
}

// SaveState writes the updater's state to path. Extra metadata is stored
// alongside; its keys must not collide with the reserved ones.
func SaveState(path string, u *Updater, metadata map[string]string) error {
	s, err := u.Snapshot()
	if err != nil {
		return err
	}
	for k, v := range metadata {
		if isReservedKey(k) {
			return invalidArgument("metadata", k, "reserved key")
		}
		s.Metadata[k] = v
	}
	if err := serialization.WriteFile(path, s.Tensors, s.Metadata); err != nil {
		return errors.Wrapf(err, "save state to %s", path)
	}
	u.log.WithField("path", path).WithField("tensors", len(s.Tensors)).Debug("saved state")
	return nil
}

// LoadState restores the updater's state from a file written by SaveState.
func LoadState(path string, u *Updater) error {
	f, err := serialization.ReadFile(path, serialization.ReaderOptions{})
	if err != nil {
		return errors.Wrapf(err, "load state from %s", path)
	}
	if err := u.Restore(Snapshot{Tensors: f.StateDict(), Metadata: f.Metadata}); err != nil {
		return err
	}
	u.log.WithField("path", path).WithField("size", u.size).Debug("loaded state")
	return nil
}

func putStateful(s Snapshot, prefix string, st Stateful) {
	for k, v := range st.Hyperparameters() {
		s.Metadata[prefix+k] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	for k, v := range st.StateDict() {
		s.Tensors[prefix+k] = v
	}
}

func rollback(targets []Stateful, hps []map[string]float64, states []map[string][]float64) {
	for i, t := range targets {
		_ = t.SetHyperparameters(hps[i])
		_ = t.LoadStateDict(states[i])
	}
}

func isReservedKey(k string) bool {
	switch k {
	case MetaRule, MetaCorrection, MetaSize,
		serialization.MetaFormat, serialization.MetaFormatVersion, serialization.MetaChecksum:
		return true
	}
	return strings.HasPrefix(k, rulePrefix) || strings.HasPrefix(k, correctionPrefix)
}

func splitHyperparameters(meta map[string]string) (rule, correction map[string]float64, err error) {
	rule = make(map[string]float64)
	correction = make(map[string]float64)
	for k, v := range meta {
		var dst map[string]float64
		var name string
		switch {
		case strings.HasPrefix(k, rulePrefix):
			dst, name = rule, strings.TrimPrefix(k, rulePrefix)
		case strings.HasPrefix(k, correctionPrefix):
			dst, name = correction, strings.TrimPrefix(k, correctionPrefix)
		default:
			continue
		}
		f, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return nil, nil, invalidArgument(k, v, "not a number")
		}
		dst[name] = f
	}
	return rule, correction, nil
}

func splitTensors(tensors map[string][]float64) (rule, correction map[string][]float64, err error) {
	rule = make(map[string][]float64)
	correction = make(map[string][]float64)
	for k, v := range tensors {
		switch {
		case strings.HasPrefix(k, rulePrefix):
			rule[strings.TrimPrefix(k, rulePrefix)] = v
		case strings.HasPrefix(k, correctionPrefix):
			correction[strings.TrimPrefix(k, correctionPrefix)] = v
		default:
			return nil, nil, invalidArgument("tensor", k, "not a rule or correction state vector")
		}
	}
	return rule, correction, nil
}
