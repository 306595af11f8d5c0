// Package circuit assembles placed device instances into a hierarchical
// circuit. A circuit composes the instance layouts with routed connectors
// and reduces the instance S-matrices into one model over its exposed
// ports. A Circuit is itself a Device, so circuits nest.
package circuit

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/alexiusacademia/gopic/internal/errs"
	"github.com/alexiusacademia/gopic/internal/geometry"
	"github.com/alexiusacademia/gopic/internal/smodel"
)

// Device is anything that can be placed in a circuit
type Device interface {
	Name() string
	Layout(mode geometry.Mode) (*geometry.Layout, error)
	Model() (smodel.Model, error)
}

// Instance is a named placement of a device
type Instance struct {
	Name      string
	Device    Device
	Placement geometry.Transform
}

// PortRef names one port of one instance
type PortRef struct {
	Instance string `json:"instance" yaml:"instance"`
	Port     string `json:"port" yaml:"port"`
}

// Ref builds a PortRef
func Ref(instance, port string) PortRef {
	return PortRef{Instance: instance, Port: port}
}

// ParsePortRef parses "instance:port"
func ParsePortRef(s string) (PortRef, error) {
	inst, port, ok := strings.Cut(s, ":")
	inst, port = strings.TrimSpace(inst), strings.TrimSpace(port)
	if !ok || inst == "" || port == "" {
		return PortRef{}, fmt.Errorf("invalid port reference %q, want instance:port", s)
	}
	return PortRef{Instance: inst, Port: port}, nil
}

func (r PortRef) String() string {
	return r.Instance + ":" + r.Port
}

// Connection is an undirected link between two instance ports
type Connection struct {
	A, B PortRef
}

// Connect builds a Connection
func Connect(a, b PortRef) Connection {
	return Connection{A: a, B: b}
}

// Exposure publishes an instance port under an external name
type Exposure struct {
	Port PortRef
	Name string
}

// Expose builds an Exposure
func Expose(port PortRef, name string) Exposure {
	return Exposure{Port: port, Name: name}
}

// Solver selects the S-matrix reduction algorithm
type Solver int

const (
	// Simultaneous solves all connections at once with a sparse complex LU
	Simultaneous Solver = iota
	// Pairwise joins one connection at a time in closed form
	Pairwise
)

func (s Solver) String() string {
	if s == Pairwise {
		return "pairwise"
	}
	return "simultaneous"
}

// ParseSolver parses "simultaneous" or "pairwise"
func ParseSolver(s string) (Solver, error) {
	switch strings.ToLower(s) {
	case "", "simultaneous", "sparse":
		return Simultaneous, nil
	case "pairwise":
		return Pairwise, nil
	}
	return Simultaneous, fmt.Errorf("unknown solver %q", s)
}

type options struct {
	open    []PortRef
	workers int
	solver  Solver
	order   []int
}

// Option configures a circuit
type Option func(*options)

// WithOpenPorts declares ports that are intentionally left unconnected.
// Open ports are terminated without reflection and dropped from the model.
func WithOpenPorts(refs ...PortRef) Option {
	return func(o *options) { o.open = append(o.open, refs...) }
}

// WithWorkers splits the model's frequency sweep across n goroutines.
// n <= 0 uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		o.workers = n
	}
}

// WithSolver selects the reduction algorithm of the model
func WithSolver(s Solver) Option {
	return func(o *options) { o.solver = s }
}

// WithEliminationOrder sets the connection order used by the pairwise
// solver. order is a permutation of connection indices.
func WithEliminationOrder(order []int) Option {
	return func(o *options) { o.order = append([]int(nil), order...) }
}

// usage of an instance port
type usage int

const (
	unused usage = iota
	connected
	exposed
	open
)

func (u usage) String() string {
	switch u {
	case connected:
		return "connected"
	case exposed:
		return "exposed"
	case open:
		return "declared open"
	}
	return "unused"
}

type portKey struct {
	inst int
	port string
}

// instance is the arena slot of one Instance
type instance struct {
	Instance
	ports []geometry.Port // device-local, Full mode
	index map[string]int
}

type link struct {
	a, b portKey
}

type exposure struct {
	key  portKey
	name string
}

// Circuit is a validated assembly of instances
type Circuit struct {
	name      string
	instances []instance
	byName    map[string]int
	links     []link
	exposures []exposure
	open      []portKey
	usage     map[portKey]usage
	opts      options

	once    sync.Once
	network *Network
	err     error
}

// New validates the topology and returns the circuit. The first violation
// found is returned: unknown instances or ports, then reused ports, then
// ports left unterminated.
func New(name string, instances []Instance, connections []Connection, exposures []Exposure, opts ...Option) (*Circuit, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Circuit{
		name:   name,
		byName: make(map[string]int, len(instances)),
		usage:  make(map[portKey]usage),
		opts:   o,
	}

	if err := c.addInstances(instances); err != nil {
		return nil, err
	}
	if err := c.resolveAll(connections, exposures, o.open); err != nil {
		return nil, err
	}
	if err := c.addConnections(connections); err != nil {
		return nil, err
	}
	if err := c.addExposures(exposures); err != nil {
		return nil, err
	}
	if err := c.addOpen(o.open); err != nil {
		return nil, err
	}
	if err := c.checkTerminated(); err != nil {
		return nil, err
	}
	if o.order != nil {
		if err := checkOrder(o.order, len(c.links)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Circuit) addInstances(instances []Instance) error {
	for _, inst := range instances {
		if inst.Name == "" {
			return fmt.Errorf("circuit %s: instance without a name", c.name)
		}
		if _, exists := c.byName[inst.Name]; exists {
			return fmt.Errorf("circuit %s: duplicate instance %q", c.name, inst.Name)
		}
		if inst.Device == nil {
			return fmt.Errorf("circuit %s: instance %q has no device", c.name, inst.Name)
		}
		l, err := inst.Device.Layout(geometry.Full)
		if err != nil {
			return fmt.Errorf("circuit %s: instance %q: %w", c.name, inst.Name, err)
		}
		slot := instance{Instance: inst, ports: l.Ports(), index: make(map[string]int)}
		for i, p := range slot.ports {
			slot.index[p.Name] = i
		}
		c.byName[inst.Name] = len(c.instances)
		c.instances = append(c.instances, slot)
	}
	return nil
}

func (c *Circuit) resolve(r PortRef) (portKey, error) {
	i, ok := c.byName[r.Instance]
	if !ok {
		return portKey{}, &errs.UnknownPortError{Instance: r.Instance}
	}
	if _, ok := c.instances[i].index[r.Port]; !ok {
		return portKey{}, &errs.UnknownPortError{Instance: r.Instance, Port: r.Port}
	}
	return portKey{inst: i, port: r.Port}, nil
}

// resolveAll reports the first unknown reference before any reuse check
func (c *Circuit) resolveAll(connections []Connection, exposures []Exposure, openRefs []PortRef) error {
	var refs []PortRef
	for _, conn := range connections {
		refs = append(refs, conn.A, conn.B)
	}
	for _, e := range exposures {
		refs = append(refs, e.Port)
	}
	refs = append(refs, openRefs...)
	for _, r := range refs {
		if _, err := c.resolve(r); err != nil {
			return err
		}
	}
	return nil
}

func (c *Circuit) claim(r PortRef, k portKey, u usage) error {
	if prev := c.usage[k]; prev != unused {
		return &errs.PortReuseError{Instance: r.Instance, Port: r.Port, Reason: fmt.Sprintf("already %s, cannot be %s", prev, u)}
	}
	c.usage[k] = u
	return nil
}

func (c *Circuit) addConnections(connections []Connection) error {
	for _, conn := range connections {
		a, err := c.resolve(conn.A)
		if err != nil {
			return err
		}
		b, err := c.resolve(conn.B)
		if err != nil {
			return err
		}
		if a == b {
			return &errs.PortReuseError{Instance: conn.A.Instance, Port: conn.A.Port, Reason: "connected to itself"}
		}
		if err := c.claim(conn.A, a, connected); err != nil {
			return err
		}
		if err := c.claim(conn.B, b, connected); err != nil {
			return err
		}
		c.links = append(c.links, link{a: a, b: b})
	}
	return nil
}

func (c *Circuit) addExposures(list []Exposure) error {
	names := make(map[string]PortRef, len(list))
	for _, e := range list {
		k, err := c.resolve(e.Port)
		if err != nil {
			return err
		}
		if err := c.claim(e.Port, k, exposed); err != nil {
			return err
		}
		name := e.Name
		if name == "" {
			name = e.Port.Port
		}
		if prev, dup := names[name]; dup {
			return &errs.PortReuseError{Instance: e.Port.Instance, Port: e.Port.Port, Reason: fmt.Sprintf("external name %q already used by %s", name, prev)}
		}
		names[name] = e.Port
		c.exposures = append(c.exposures, exposure{key: k, name: name})
	}
	return nil
}

func (c *Circuit) addOpen(refs []PortRef) error {
	for _, r := range refs {
		k, err := c.resolve(r)
		if err != nil {
			return err
		}
		if err := c.claim(r, k, open); err != nil {
			return err
		}
		c.open = append(c.open, k)
	}
	return nil
}

func (c *Circuit) checkTerminated() error {
	for _, inst := range c.instances {
		for _, p := range inst.ports {
			if c.usage[portKey{inst: c.byName[inst.Name], port: p.Name}] == unused {
				return &errs.UnterminatedPortError{Instance: inst.Name, Port: p.Name}
			}
		}
	}
	return nil
}

func checkOrder(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("elimination order has %d entries for %d connections", len(order), n)
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return fmt.Errorf("elimination order %v is not a permutation of 0..%d", order, n-1)
		}
		seen[i] = true
	}
	return nil
}

// Name returns the circuit name
func (c *Circuit) Name() string { return c.name }

// Instances returns the instances in declaration order
func (c *Circuit) Instances() []Instance {
	out := make([]Instance, len(c.instances))
	for i, inst := range c.instances {
		out[i] = inst.Instance
	}
	return out
}

// Connections returns the connections in declaration order
func (c *Circuit) Connections() []Connection {
	out := make([]Connection, len(c.links))
	for i, l := range c.links {
		out[i] = Connection{A: c.ref(l.a), B: c.ref(l.b)}
	}
	return out
}

// ExternalPorts returns the external port names in declaration order
func (c *Circuit) ExternalPorts() []string {
	out := make([]string, len(c.exposures))
	for i, e := range c.exposures {
		out[i] = e.name
	}
	return out
}

func (c *Circuit) ref(k portKey) PortRef {
	return PortRef{Instance: c.instances[k.inst].Name, Port: k.port}
}
