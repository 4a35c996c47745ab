package optim

import (
	"reflect"
	"sort"
	"unsafe"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/born-ml/descent/internal/parallel"
)

// Group is a named parameter vector with its own updater, e.g. the weights
// of one layer.
type Group struct {
	Name       string
	Parameters []float64
	Updater    *Updater
}

// Step applies one update to the group.
func (g *Group) Step(gradient []float64, learningRate float64) error {
	if g.Updater == nil {
		return invalidArgument("updater", nil, "group "+g.Name+" has no updater")
	}
	return g.Updater.UpdateVariable(g.Parameters, gradient, learningRate)
}

// StepGroups updates every group with its gradient, running groups
// concurrently according to cfg.
//
// Groups must not share an Updater, its Rule or Correction, or any element of
// parameter storage. A group that fails leaves its own parameters unmodified
// and does not stop the others; all failures are returned together as a
// *multierror.Error.
func StepGroups(groups []*Group, gradients [][]float64, learningRate float64, cfg parallel.Config) error {
	if len(groups) != len(gradients) {
		return errors.WithStack(&ErrDimensionMismatch{
			Name:     "gradients",
			Expected: len(groups),
			Actual:   len(gradients),
		})
	}
	if err := checkDisjoint(groups); err != nil {
		return err
	}

	errs := make([]error, len(groups))
	parallel.For(len(groups), func(i int) {
		if groups[i] == nil {
			errs[i] = invalidArgument("groups", i, "nil group")
			return
		}
		errs[i] = groups[i].Step(gradients[i], learningRate)
	}, cfg)

	var result *multierror.Error
	for i, err := range errs {
		if err == nil {
			continue
		}
		name := ""
		if groups[i] != nil {
			name = groups[i].Name
		}
		result = multierror.Append(result, errors.Wrapf(err, "group %d (%s)", i, name))
	}
	return result.ErrorOrNil()
}

// checkDisjoint rejects groups that would write to the same memory when
// stepped concurrently.
func checkDisjoint(groups []*Group) error {
	owners := make(map[uintptr]string)
	claim := func(g *Group, what string, v any) error {
		for _, p := range statePointers(v) {
			if other, dup := owners[p]; dup {
				return invalidArgument("groups", g.Name, "shares "+what+" with group "+other)
			}
			owners[p] = g.Name
		}
		return nil
	}

	type span struct {
		begin, end uintptr
		name       string
	}
	spans := make([]span, 0, len(groups))
	for _, g := range groups {
		if g == nil {
			continue
		}
		if u := g.Updater; u != nil {
			if err := claim(g, "an updater", u); err != nil {
				return err
			}
			if err := claim(g, "a rule", u.rule); err != nil {
				return err
			}
			if err := claim(g, "a correction", u.correction); err != nil {
				return err
			}
		}
		if n := len(g.Parameters); n > 0 {
			begin := uintptr(unsafe.Pointer(&g.Parameters[0]))
			spans = append(spans, span{begin: begin, end: begin + uintptr(n)*unsafe.Sizeof(g.Parameters[0]), name: g.Name})
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].begin < spans[j].begin })
	for i := 1; i < len(spans); i++ {
		if spans[i].begin < spans[i-1].end {
			return invalidArgument("groups", spans[i].name, "shares parameters with group "+spans[i-1].name)
		}
	}
	return nil
}

// statePointers returns the addresses of the mutable state behind v. A Chain
// contributes each of its corrections; zero-size values hold no state and may
// share an address.
func statePointers(v any) []uintptr {
	if c, ok := v.(Chain); ok {
		var out []uintptr
		for _, corr := range c {
			out = append(out, statePointers(corr)...)
		}
		return out
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Type().Elem().Size() > 0 {
		return []uintptr{rv.Pointer()}
	}
	return nil
}
