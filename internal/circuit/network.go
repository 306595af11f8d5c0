package circuit

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/alexiusacademia/gopic/internal/errs"
	"github.com/alexiusacademia/gopic/internal/smodel"
)

// Network is the reduced S-parameter model of a circuit
type Network struct {
	name    string
	insts   []string
	models  []smodel.Model
	offsets []int
	size    int

	linkPairs [][][2]int // global term pairs per connection
	keep      []int      // global indices of external terms
	terms     []smodel.Term

	solver  Solver
	order   []int
	workers int
}

// Model builds the circuit model on first use. Instance models are
// requested once and the result, or the error, is cached.
func (c *Circuit) Model() (smodel.Model, error) {
	c.once.Do(func() {
		c.network, c.err = c.buildNetwork()
	})
	if c.err != nil {
		return nil, c.err
	}
	return c.network, nil
}

// Network returns the typed circuit model
func (c *Circuit) Network() (*Network, error) {
	if _, err := c.Model(); err != nil {
		return nil, err
	}
	return c.network, nil
}

func (c *Circuit) buildNetwork() (*Network, error) {
	nw := &Network{
		name:    c.name,
		solver:  c.opts.solver,
		order:   c.opts.order,
		workers: c.opts.workers,
	}

	// term indices of every instance port, in model term order
	portTerms := make(map[portKey][]int)
	portModes := make(map[portKey][]int)
	for i, inst := range c.instances {
		m, err := inst.Device.Model()
		if err != nil {
			return nil, errors.Wrapf(err, "instance %s", inst.Name)
		}
		nw.insts = append(nw.insts, inst.Name)
		nw.models = append(nw.models, m)
		nw.offsets = append(nw.offsets, nw.size)

		for j, t := range m.Terms() {
			k := portKey{inst: i, port: t.Port}
			if c.usage[k] == unused {
				return nil, &errs.UnterminatedPortError{Instance: inst.Name, Port: t.Port}
			}
			portTerms[k] = append(portTerms[k], nw.size+j)
			portModes[k] = append(portModes[k], t.Mode)
		}
		nw.size += len(m.Terms())
	}

	for _, l := range c.links {
		pairs, err := pairModes(l, portTerms, portModes)
		if err != nil {
			return nil, &errs.ModeMismatchError{From: c.ref(l.a).String(), To: c.ref(l.b).String()}
		}
		nw.linkPairs = append(nw.linkPairs, pairs)
	}

	for _, e := range c.exposures {
		for i, g := range portTerms[e.key] {
			nw.keep = append(nw.keep, g)
			nw.terms = append(nw.terms, smodel.Term{Port: e.name, Mode: portModes[e.key][i]})
		}
	}
	return nw, nil
}

// pairModes matches the mode terms of both ends of a link
func pairModes(l link, portTerms map[portKey][]int, portModes map[portKey][]int) ([][2]int, error) {
	modesA, modesB := portModes[l.a], portModes[l.b]
	if len(modesA) != len(modesB) {
		return nil, fmt.Errorf("mode count mismatch")
	}
	pairs := make([][2]int, 0, len(modesA))
	for i, m := range modesA {
		found := false
		for j, mb := range modesB {
			if mb == m {
				pairs = append(pairs, [2]int{portTerms[l.a][i], portTerms[l.b][j]})
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("mode %d missing", m)
		}
	}
	return pairs, nil
}

// Terms returns the external terms in exposure declaration order
func (nw *Network) Terms() []smodel.Term {
	out := make([]smodel.Term, len(nw.terms))
	copy(out, nw.terms)
	return out
}

// Evaluate reduces the circuit at each frequency with the configured solver
func (nw *Network) Evaluate(frequencies []float64) (*smodel.SMatrix, error) {
	if nw.solver == Pairwise {
		return nw.EvaluatePairwise(frequencies, nw.order)
	}
	return nw.EvaluateSimultaneous(frequencies)
}

// EvaluatePairwise reduces by joining connections one at a time in the given
// order (connection indices). A nil order uses declaration order.
func (nw *Network) EvaluatePairwise(frequencies []float64, order []int) (*smodel.SMatrix, error) {
	if order == nil {
		order = make([]int, len(nw.linkPairs))
		for i := range order {
			order[i] = i
		}
	}
	if err := checkOrder(order, len(nw.linkPairs)); err != nil {
		return nil, err
	}
	var pairs [][2]int
	for _, i := range order {
		pairs = append(pairs, nw.linkPairs[i]...)
	}
	return nw.evaluate(frequencies, pairs, reducePairwise)
}

// EvaluateSimultaneous reduces every connection in one sparse linear solve
func (nw *Network) EvaluateSimultaneous(frequencies []float64) (*smodel.SMatrix, error) {
	var pairs [][2]int
	for _, lp := range nw.linkPairs {
		pairs = append(pairs, lp...)
	}
	return nw.evaluate(frequencies, pairs, reduceSimultaneous)
}

type reducer func(s []complex128, n int, pairs [][2]int, keep []int, frequency float64) ([]complex128, error)

func (nw *Network) evaluate(frequencies []float64, pairs [][2]int, reduce reducer) (*smodel.SMatrix, error) {
	subs := make([]*smodel.SMatrix, len(nw.models))
	for i, m := range nw.models {
		sm, err := m.Evaluate(frequencies)
		if err != nil {
			return nil, errors.Wrapf(err, "instance %s", nw.insts[i])
		}
		subs[i] = sm
	}

	n := nw.size
	return smodel.Sweep(nw.terms, frequencies, nw.workers, func(k int, f float64, out []complex128) error {
		block := make([]complex128, n*n)
		for i, sm := range subs {
			off, size := nw.offsets[i], sm.Size()
			for r := 0; r < size; r++ {
				for col := 0; col < size; col++ {
					block[(off+r)*n+off+col] = sm.At(k, r, col)
				}
			}
		}
		reduced, err := reduce(block, n, pairs, nw.keep, f)
		if err != nil {
			return err
		}
		copy(out, reduced)
		return nil
	})
}
