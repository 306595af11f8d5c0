package config

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/alexiusacademia/gopic/internal/circuit"
	"github.com/alexiusacademia/gopic/internal/contradc"
	"github.com/alexiusacademia/gopic/internal/fibercoupler"
	"github.com/alexiusacademia/gopic/internal/geometry"
	"github.com/alexiusacademia/gopic/internal/grating"
	"github.com/alexiusacademia/gopic/internal/smodel"
)

// DeviceNames returns the defined device names in sorted order
func (f *File) DeviceNames() []string {
	names := make([]string, 0, len(f.Devices))
	for name := range f.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildDevice constructs one defined device. The returned value is a
// circuit.Device; it is also a grating.Bragg, contradc.ContraDC or
// fibercoupler.Coupler depending on the type.
func (f *File) BuildDevice(name string) (circuit.Device, error) {
	spec, ok := f.Devices[name]
	if !ok {
		return nil, &ValidationError{fmt.Sprintf("undefined device %q", name)}
	}
	opts := []smodel.Option{smodel.WithWorkers(f.Workers)}

	var (
		dev circuit.Device
		err error
	)
	switch {
	case spec.Bragg != nil:
		dev, err = grating.New(*spec.Bragg, opts...)
	case spec.ContraDC != nil:
		p := *spec.ContraDC
		if p.Touchstone != "" && !filepath.IsAbs(p.Touchstone) && f.dir != "" {
			p.Touchstone = filepath.Join(f.dir, p.Touchstone)
		}
		dev, err = contradc.New(p, opts...)
	case spec.GratingCoupler != nil:
		dev, err = fibercoupler.New(*spec.GratingCoupler, opts...)
	default:
		return nil, &ValidationError{fmt.Sprintf("device %q has no type", name)}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "device %s", name)
	}
	return dev, nil
}

// Build constructs the circuit. Instances of the same device share one
// device value, so its model is built once.
func (f *File) Build() (*circuit.Circuit, error) {
	devices := make(map[string]circuit.Device)
	instances := make([]circuit.Instance, 0, len(f.Instances))
	for _, is := range f.Instances {
		dev, ok := devices[is.Device]
		if !ok {
			var err error
			if dev, err = f.BuildDevice(is.Device); err != nil {
				return nil, err
			}
			devices[is.Device] = dev
		}
		instances = append(instances, circuit.Instance{
			Name:      is.Name,
			Device:    dev,
			Placement: geometry.Transform{X: is.X, Y: is.Y, Angle: is.Angle},
		})
	}

	connections := make([]circuit.Connection, 0, len(f.Connections))
	for _, pair := range f.Connections {
		a, err := circuit.ParsePortRef(pair[0])
		if err != nil {
			return nil, &ValidationError{err.Error()}
		}
		b, err := circuit.ParsePortRef(pair[1])
		if err != nil {
			return nil, &ValidationError{err.Error()}
		}
		connections = append(connections, circuit.Connect(a, b))
	}

	exposures := make([]circuit.Exposure, 0, len(f.Exposed))
	for _, e := range f.Exposed {
		ref, err := circuit.ParsePortRef(e.Port)
		if err != nil {
			return nil, &ValidationError{err.Error()}
		}
		name := e.Name
		if name == "" {
			name = ref.Instance + "_" + ref.Port
		}
		exposures = append(exposures, circuit.Expose(ref, name))
	}

	var open []circuit.PortRef
	for _, s := range f.Open {
		ref, err := circuit.ParsePortRef(s)
		if err != nil {
			return nil, &ValidationError{err.Error()}
		}
		open = append(open, ref)
	}

	solver, err := circuit.ParseSolver(f.Solver)
	if err != nil {
		return nil, &ValidationError{err.Error()}
	}

	return circuit.New(f.Name, instances, connections, exposures,
		circuit.WithOpenPorts(open...),
		circuit.WithSolver(solver),
		circuit.WithWorkers(f.Workers),
	)
}
