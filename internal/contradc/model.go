package contradc

import (
	"github.com/pkg/errors"

	"github.com/alexiusacademia/gopic/internal/smodel"
	"github.com/alexiusacademia/gopic/internal/touchstone"
)

// TermMap returns the term to table index mapping of the coupler
func (c *ContraDC) TermMap() smodel.TermMap {
	tm := make(smodel.TermMap, len(c.params.PortMap))
	for port, idx := range c.params.PortMap {
		tm[smodel.T(port)] = idx
	}
	return tm
}

// Model loads the Touchstone data on first use and returns the interpolated
// model. The result, or the load error, is cached on the device.
func (c *ContraDC) Model() (smodel.Model, error) {
	c.once.Do(func() {
		c.model, c.err = c.load()
	})
	return c.model, c.err
}

func (c *ContraDC) load() (smodel.Model, error) {
	p := c.params
	if p.Touchstone == "" {
		return nil, errors.Errorf("%s: no touchstone file configured", p.Name)
	}
	f, err := touchstone.ReadFile(p.Touchstone)
	if err != nil {
		return nil, err
	}
	m, err := c.FromTable(f.Table())
	if err != nil {
		return nil, err
	}
	return m, nil
}

// FromTable builds the interpolated model from in-memory data using the
// coupler's port map and interpolation settings
func (c *ContraDC) FromTable(table smodel.Table) (*smodel.Tabulated, error) {
	p := c.params
	extrapolation, _ := smodel.ParseExtrapolation(p.Extrapolation)
	opts := append([]smodel.Option{
		smodel.WithDegree(p.Degree),
		smodel.WithExtrapolation(extrapolation),
	}, c.opts...)

	m, err := smodel.NewTabulated(table, c.TermMap(), opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "%s model", p.Name)
	}
	return m, nil
}
