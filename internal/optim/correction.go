package optim

import (
	"fmt"
	"strconv"
	"strings"
)

// Correction adjusts the negative descent vector produced by a Rule before
// the Updater subtracts it from the parameters.
//
// Corrections may work elementwise (momentum, value clipping) or on the
// whole vector (norm clipping); they make no assumptions about the rule.
type Correction interface {
	// Name identifies the correction in persisted state.
	Name() string

	// CanAllocate and Allocate size any per-parameter state on first use,
	// with the same contract as the Rule methods.
	CanAllocate(n int) error
	Allocate(n int) error

	// Correct rewrites direction in place. variables are the parameters the
	// direction will be applied to; they must not be modified.
	Correct(variables, direction []float64) error
}

// Chain applies corrections in order. The zero-length chain is a no-op.
type Chain []Correction

// NewChain builds a chain, dropping nil entries.
func NewChain(corrections ...Correction) Chain {
	out := make(Chain, 0, len(corrections))
	for _, c := range corrections {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Name implements Correction.
func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, corr := range c {
		names[i] = corr.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// CanAllocate implements Correction.
func (c Chain) CanAllocate(n int) error {
	for _, corr := range c {
		if err := corr.CanAllocate(n); err != nil {
			return err
		}
	}
	return nil
}

// Allocate implements Correction.
func (c Chain) Allocate(n int) error {
	if err := c.CanAllocate(n); err != nil {
		return err
	}
	for _, corr := range c {
		if err := corr.Allocate(n); err != nil {
			return err
		}
	}
	return nil
}

// Correct implements Correction.
func (c Chain) Correct(variables, direction []float64) error {
	for _, corr := range c {
		if err := corr.Correct(variables, direction); err != nil {
			return err
		}
	}
	return nil
}

// Hyperparameters implements Stateful. Keys are prefixed with the link index,
// e.g. "0.weight".
func (c Chain) Hyperparameters() map[string]float64 {
	out := make(map[string]float64)
	for i, corr := range c {
		s, ok := corr.(Stateful)
		if !ok {
			continue
		}
		for k, v := range s.Hyperparameters() {
			out[chainKey(i, k)] = v
		}
	}
	return out
}

// SetHyperparameters implements Stateful.
func (c Chain) SetHyperparameters(params map[string]float64) error {
	split, err := c.split(mapKeys(params))
	if err != nil {
		return err
	}
	for i, keys := range split {
		sub := make(map[string]float64, len(keys))
		for short, full := range keys {
			sub[short] = params[full]
		}
		if err := c[i].(Stateful).SetHyperparameters(sub); err != nil {
			return err
		}
	}
	return nil
}

// StateDict implements Stateful.
func (c Chain) StateDict() map[string][]float64 {
	out := make(map[string][]float64)
	for i, corr := range c {
		s, ok := corr.(Stateful)
		if !ok {
			continue
		}
		for k, v := range s.StateDict() {
			out[chainKey(i, k)] = v
		}
	}
	return out
}

// LoadStateDict implements Stateful.
func (c Chain) LoadStateDict(state map[string][]float64) error {
	split, err := c.split(mapKeys(state))
	if err != nil {
		return err
	}
	for i, corr := range c {
		s, ok := corr.(Stateful)
		if !ok {
			continue
		}
		sub := make(map[string][]float64, len(split[i]))
		for short, full := range split[i] {
			sub[short] = state[full]
		}
		if err := s.LoadStateDict(sub); err != nil {
			return err
		}
	}
	return nil
}

func chainKey(i int, name string) string {
	return fmt.Sprintf("%d.%s", i, name)
}

// split groups prefixed keys by chain index, mapping short name to full key.
func (c Chain) split(keys []string) (map[int]map[string]string, error) {
	out := make(map[int]map[string]string)
	for _, key := range keys {
		var i int
		prefix, short, ok := strings.Cut(key, ".")
		if ok {
			var err error
			i, err = strconv.Atoi(prefix)
			ok = err == nil && i >= 0 && i < len(c)
		}
		if !ok {
			return nil, invalidArgument("key", key, "not of the form <index>.<name> for this chain")
		}
		if _, stateful := c[i].(Stateful); !stateful {
			return nil, invalidArgument("key", key, c[i].Name()+" has no persisted state")
		}
		if out[i] == nil {
			out[i] = make(map[string]string)
		}
		out[i][short] = key
	}
	return out, nil
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
