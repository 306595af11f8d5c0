// Package config loads circuit definitions from JSON or YAML files and
// builds the devices, instances and connections they describe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/alexiusacademia/gopic/internal/contradc"
	"github.com/alexiusacademia/gopic/internal/fibercoupler"
	"github.com/alexiusacademia/gopic/internal/grating"
	"github.com/alexiusacademia/gopic/internal/optics"
)

// Device types
const (
	TypeBragg          = "bragg"
	TypeContraDC       = "contradc"
	TypeGratingCoupler = "grating_coupler"
)

// File is a circuit definition
type File struct {
	Name        string                `json:"name" yaml:"name"`
	Description string                `json:"description,omitempty" yaml:"description,omitempty"`
	Devices     map[string]DeviceSpec `json:"devices" yaml:"devices"`
	Instances   []InstanceSpec        `json:"instances" yaml:"instances"`
	Connections [][2]string           `json:"connections" yaml:"connections"` // "instance:port" pairs
	Exposed     []ExposedSpec         `json:"exposed" yaml:"exposed"`
	Open        []string              `json:"open,omitempty" yaml:"open,omitempty"`
	Solver      string                `json:"solver,omitempty" yaml:"solver,omitempty"`
	Workers     int                   `json:"workers,omitempty" yaml:"workers,omitempty"`
	Sweep       SweepSpec             `json:"sweep" yaml:"sweep"`

	dir string
}

// InstanceSpec places a named device
type InstanceSpec struct {
	Name   string  `json:"name" yaml:"name"`
	Device string  `json:"device" yaml:"device"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Angle  float64 `json:"angle" yaml:"angle"` // degrees
}

// ExposedSpec publishes an instance port under an external name
type ExposedSpec struct {
	Port string `json:"port" yaml:"port"` // "instance:port"
	Name string `json:"name" yaml:"name"`
}

// SweepSpec is the wavelength sweep used when evaluating the circuit (µm)
type SweepSpec struct {
	Start  float64 `json:"start" yaml:"start"`
	Stop   float64 `json:"stop" yaml:"stop"`
	Points int     `json:"points" yaml:"points"`
}

// Bounds returns the sweep ends. An unset end takes its C band edge.
func (s SweepSpec) Bounds() (start, stop float64) {
	start, stop = s.Start, s.Stop
	if start == 0 {
		start = optics.CBandStart
	}
	if stop == 0 {
		stop = optics.CBandStop
	}
	return start, stop
}

// Wavelengths returns the sweep points, defaulting to 201 points over the C band
func (s SweepSpec) Wavelengths() []float64 {
	start, stop := s.Bounds()
	n := s.Points
	if n == 0 {
		n = 201
	}
	return optics.Linspace(start, stop, n)
}

// DeviceSpec is one device definition. Params are overlaid on the
// defaults of the device type.
type DeviceSpec struct {
	Type           string
	Bragg          *grating.Params
	ContraDC       *contradc.Params
	GratingCoupler *fibercoupler.Params
}

type jsonDevice struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params"`
}

// UnmarshalJSON decodes the params of the declared type over its defaults
func (d *DeviceSpec) UnmarshalJSON(b []byte) error {
	var head jsonDevice
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	return d.decode(head.Type, func(v any) error {
		if len(head.Params) == 0 {
			return nil
		}
		return json.Unmarshal(head.Params, v)
	})
}

// UnmarshalYAML decodes the params of the declared type over its defaults
func (d *DeviceSpec) UnmarshalYAML(n *yaml.Node) error {
	var head struct {
		Type   string    `yaml:"type"`
		Params yaml.Node `yaml:"params"`
	}
	if err := n.Decode(&head); err != nil {
		return err
	}
	return d.decode(head.Type, func(v any) error {
		if head.Params.Kind == 0 {
			return nil
		}
		return head.Params.Decode(v)
	})
}

func (d *DeviceSpec) decode(typ string, into func(any) error) error {
	d.Type = strings.ToLower(strings.TrimSpace(typ))
	switch d.Type {
	case TypeBragg:
		p := grating.DefaultParams()
		if err := into(&p); err != nil {
			return err
		}
		d.Bragg = &p
	case TypeContraDC:
		p := contradc.DefaultParams()
		if err := into(&p); err != nil {
			return err
		}
		d.ContraDC = &p
	case TypeGratingCoupler:
		p := fibercoupler.DefaultParams()
		if err := into(&p); err != nil {
			return err
		}
		d.GratingCoupler = &p
	default:
		return &ValidationError{fmt.Sprintf("unknown device type %q", typ)}
	}
	return nil
}

// LoadFromFile reads a circuit definition. The format follows the file
// extension: .yaml/.yml or JSON otherwise. Relative Touchstone paths are
// resolved against the file's directory.
func LoadFromFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading circuit file %s", path)
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parsing circuit file %s", path)
	}

	f.dir = filepath.Dir(path)
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the structure of the definition. Device parameters and
// topology are checked when the circuit is built.
func (f *File) Validate() error {
	if f.Name == "" {
		return &ValidationError{"circuit must have a name"}
	}
	if len(f.Instances) == 0 {
		return &ValidationError{"circuit must have at least one instance"}
	}
	for i, inst := range f.Instances {
		if inst.Name == "" {
			return &ValidationError{fmt.Sprintf("instance %d must have a name", i+1)}
		}
		if _, ok := f.Devices[inst.Device]; !ok {
			return &ValidationError{fmt.Sprintf("instance %s refers to undefined device %q", inst.Name, inst.Device)}
		}
	}
	for i, e := range f.Exposed {
		if e.Port == "" {
			return &ValidationError{fmt.Sprintf("exposed port %d has no port reference", i+1)}
		}
	}
	if f.Workers < 0 {
		return &ValidationError{"workers must be non-negative"}
	}
	s := f.Sweep
	if s.Points < 0 {
		return &ValidationError{"sweep points must be non-negative"}
	}
	start, stop := s.Bounds()
	if s.Start < 0 || s.Stop < 0 || stop < start {
		return &ValidationError{fmt.Sprintf("invalid sweep %g..%g µm", start, stop)}
	}
	return nil
}

// ValidationError represents a circuit definition error
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}
