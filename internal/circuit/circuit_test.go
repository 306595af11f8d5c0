package circuit_test

import (
	"errors"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/alexiusacademia/gopic/internal/circuit"
	"github.com/alexiusacademia/gopic/internal/errs"
	"github.com/alexiusacademia/gopic/internal/geometry"
	"github.com/alexiusacademia/gopic/internal/smodel"
)

// stubDevice is a straight two- or three-port block with a fixed model.
type stubDevice struct {
	name  string
	ports []geometry.Port
	model smodel.Model
}

func (d *stubDevice) Name() string { return d.name }

func (d *stubDevice) Layout(mode geometry.Mode) (*geometry.Layout, error) {
	l := geometry.NewLayout(d.name, mode)
	l.AddElements(geometry.Rectangle(geometry.LayerSi, geometry.Point{X: 5}, 10, 0.5))
	for _, p := range d.ports {
		if err := l.AddPort(p); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (d *stubDevice) Model() (smodel.Model, error) { return d.model, nil }

func port(name string, x, y, angle float64) geometry.Port {
	return geometry.Port{Name: name, Position: geometry.Point{X: x, Y: y}, Angle: angle, TraceTemplate: geometry.SiWire()}
}

func twoPort(t *testing.T, name string, s [][]complex128) *stubDevice {
	t.Helper()
	m, err := smodel.NewConstant(smodel.PortTerms("a", "b"), s)
	require.NoError(t, err)
	return &stubDevice{
		name:  name,
		ports: []geometry.Port{port("a", 0, 0, 180), port("b", 10, 0, 0)},
		model: m,
	}
}

func passThrough(t *testing.T, name string) *stubDevice {
	return twoPort(t, name, [][]complex128{{0, 1}, {1, 0}})
}

func splitter(t *testing.T) *stubDevice {
	t.Helper()
	s := [][]complex128{
		{0.05, 0.6 + 0.1i, 0.55 - 0.2i},
		{0.6 + 0.1i, 0.02i, 0.1},
		{0.55 - 0.2i, 0.1, -0.03},
	}
	m, err := smodel.NewConstant(smodel.PortTerms("in", "o1", "o2"), s)
	require.NoError(t, err)
	return &stubDevice{
		name:  "splitter",
		ports: []geometry.Port{port("in", 0, 0, 180), port("o1", 10, 2, 0), port("o2", 10, -2, 0)},
		model: m,
	}
}

var freqs = []float64{1.9e14, 1.95e14}

func evaluate(t *testing.T, c *circuit.Circuit) *smodel.SMatrix {
	t.Helper()
	m, err := c.Model()
	require.NoError(t, err)
	sm, err := m.Evaluate(freqs)
	require.NoError(t, err)
	return sm
}

func requireClose(t *testing.T, want, got *smodel.SMatrix) {
	t.Helper()
	require.Equal(t, want.Terms(), got.Terms())
	for k := 0; k < want.Len(); k++ {
		for i, w := range want.Matrix(k) {
			g := got.Matrix(k)[i]
			require.LessOrEqual(t, cmplx.Abs(w-g), 1e-9*(1+cmplx.Abs(w)), "entry %d at point %d: %v vs %v", i, k, w, g)
		}
	}
}

func TestPassThroughCascade(t *testing.T) {
	for _, solver := range []circuit.Solver{circuit.Simultaneous, circuit.Pairwise} {
		c, err := circuit.New("chain",
			[]circuit.Instance{
				{Name: "A", Device: passThrough(t, "pt")},
				{Name: "B", Device: passThrough(t, "pt"), Placement: geometry.Translation(20, 0)},
			},
			[]circuit.Connection{circuit.Connect(circuit.Ref("A", "b"), circuit.Ref("B", "a"))},
			[]circuit.Exposure{
				circuit.Expose(circuit.Ref("A", "a"), "in"),
				circuit.Expose(circuit.Ref("B", "b"), "out"),
			},
			circuit.WithSolver(solver),
		)
		require.NoError(t, err)

		sm := evaluate(t, c)
		assert.Equal(t, smodel.PortTerms("in", "out"), sm.Terms())
		for k := 0; k < sm.Len(); k++ {
			assert.Equal(t, []complex128{0, 1, 1, 0}, sm.Matrix(k), "solver %s", solver)
		}
	}
}

// TestCascadeMatchesClosedForm checks multiple reflections between two
// mismatched blocks.
func TestCascadeMatchesClosedForm(t *testing.T) {
	a := [][]complex128{{0.2 + 0.1i, 0.7i}, {0.7i, -0.3}}
	b := [][]complex128{{0.4, 0.8 - 0.1i}, {0.8 - 0.1i, 0.1i}}
	c, err := circuit.New("pair",
		[]circuit.Instance{{Name: "A", Device: twoPort(t, "a", a)}, {Name: "B", Device: twoPort(t, "b", b)}},
		[]circuit.Connection{circuit.Connect(circuit.Ref("A", "b"), circuit.Ref("B", "a"))},
		[]circuit.Exposure{circuit.Expose(circuit.Ref("A", "a"), "p1"), circuit.Expose(circuit.Ref("B", "b"), "p2")},
	)
	require.NoError(t, err)

	sm := evaluate(t, c)
	loop := 1 - a[1][1]*b[0][0]
	s21 := a[1][0] * b[1][0] / loop
	s11 := a[0][0] + a[0][1]*a[1][0]*b[0][0]/loop
	assert.InDelta(t, 0, cmplx.Abs(sm.At(0, 1, 0)-s21), 1e-12)
	assert.InDelta(t, 0, cmplx.Abs(sm.At(0, 0, 0)-s11), 1e-12)
}

func branchCircuit(t *testing.T, opts ...circuit.Option) *circuit.Circuit {
	t.Helper()
	c, err := circuit.New("branch",
		[]circuit.Instance{
			{Name: "S", Device: splitter(t)},
			{Name: "U", Device: twoPort(t, "u", [][]complex128{{0.1i, 0.9}, {0.9, 0.05}})},
			{Name: "L", Device: twoPort(t, "l", [][]complex128{{-0.1, 0.3 + 0.8i}, {0.3 + 0.8i, 0.2i}})},
			{Name: "T", Device: twoPort(t, "t", [][]complex128{{0.02, 0.95}, {0.95, 0.03i}})},
		},
		[]circuit.Connection{
			circuit.Connect(circuit.Ref("S", "o1"), circuit.Ref("U", "a")),
			circuit.Connect(circuit.Ref("L", "a"), circuit.Ref("S", "o2")),
			circuit.Connect(circuit.Ref("U", "b"), circuit.Ref("T", "a")),
		},
		[]circuit.Exposure{
			circuit.Expose(circuit.Ref("T", "b"), "top"),
			circuit.Expose(circuit.Ref("S", "in"), "in"),
			circuit.Expose(circuit.Ref("L", "b"), "bottom"),
		},
		opts...,
	)
	require.NoError(t, err)
	return c
}

func TestEliminationOrderInvariance(t *testing.T) {
	nw, err := branchCircuit(t).Network()
	require.NoError(t, err)

	ref, err := nw.EvaluateSimultaneous(freqs)
	require.NoError(t, err)
	assert.Equal(t, smodel.PortTerms("top", "in", "bottom"), ref.Terms())

	for _, order := range [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}, {2, 0, 1}} {
		got, err := nw.EvaluatePairwise(freqs, order)
		require.NoError(t, err)
		requireClose(t, ref, got)
	}

	_, err = nw.EvaluatePairwise(freqs, []int{0, 0, 1})
	assert.Error(t, err)
}

func TestParallelSweep(t *testing.T) {
	serial := evaluate(t, branchCircuit(t))
	parallel := evaluate(t, branchCircuit(t, circuit.WithWorkers(2)))
	requireClose(t, serial, parallel)
}

func TestNestedCircuit(t *testing.T) {
	inner, err := circuit.New("inner",
		[]circuit.Instance{{Name: "U", Device: twoPort(t, "u", [][]complex128{{0.1i, 0.9}, {0.9, 0.05}})}, {Name: "T", Device: twoPort(t, "t", [][]complex128{{0.02, 0.95}, {0.95, 0.03i}})}},
		[]circuit.Connection{circuit.Connect(circuit.Ref("U", "b"), circuit.Ref("T", "a"))},
		[]circuit.Exposure{circuit.Expose(circuit.Ref("U", "a"), "a"), circuit.Expose(circuit.Ref("T", "b"), "b")},
	)
	require.NoError(t, err)

	outer, err := circuit.New("outer",
		[]circuit.Instance{
			{Name: "S", Device: splitter(t)},
			{Name: "I", Device: inner},
			{Name: "L", Device: twoPort(t, "l", [][]complex128{{-0.1, 0.3 + 0.8i}, {0.3 + 0.8i, 0.2i}})},
		},
		[]circuit.Connection{
			circuit.Connect(circuit.Ref("S", "o1"), circuit.Ref("I", "a")),
			circuit.Connect(circuit.Ref("L", "a"), circuit.Ref("S", "o2")),
		},
		[]circuit.Exposure{
			circuit.Expose(circuit.Ref("I", "b"), "top"),
			circuit.Expose(circuit.Ref("S", "in"), "in"),
			circuit.Expose(circuit.Ref("L", "b"), "bottom"),
		},
	)
	require.NoError(t, err)

	requireClose(t, evaluate(t, branchCircuit(t)), evaluate(t, outer))
}

func TestOpenPortIsDropped(t *testing.T) {
	c, err := circuit.New("open",
		[]circuit.Instance{{Name: "S", Device: splitter(t)}},
		nil,
		[]circuit.Exposure{circuit.Expose(circuit.Ref("S", "in"), "in"), circuit.Expose(circuit.Ref("S", "o1"), "out")},
		circuit.WithOpenPorts(circuit.Ref("S", "o2")),
	)
	require.NoError(t, err)

	sm := evaluate(t, c)
	require.Equal(t, 2, sm.Size())
	assert.Equal(t, complex128(0.6+0.1i), sm.At(0, 1, 0))
}

func TestClosedLoopIsSingular(t *testing.T) {
	c, err := circuit.New("ring",
		[]circuit.Instance{{Name: "A", Device: passThrough(t, "pt")}, {Name: "B", Device: passThrough(t, "pt")}},
		[]circuit.Connection{
			circuit.Connect(circuit.Ref("A", "b"), circuit.Ref("B", "a")),
			circuit.Connect(circuit.Ref("B", "b"), circuit.Ref("A", "a")),
		},
		nil,
		circuit.WithSolver(circuit.Pairwise),
	)
	require.NoError(t, err)

	m, err := c.Model()
	require.NoError(t, err)
	_, err = m.Evaluate(freqs)
	var se *errs.SingularNetworkError
	require.True(t, errors.As(err, &se), "got %v", err)
}

func TestSubModelErrorPropagates(t *testing.T) {
	table := smodel.Table{
		NumPorts:    2,
		Frequencies: []float64{1.0e14, 1.1e14},
		Data:        [][]complex128{{0, 1, 1, 0}, {0, 1, 1, 0}},
	}
	tab, err := smodel.NewTabulated(table, smodel.TermMap{smodel.T("a"): 0, smodel.T("b"): 1}, smodel.WithDegree(1))
	require.NoError(t, err)
	dev := &stubDevice{name: "tab", ports: []geometry.Port{port("a", 0, 0, 180), port("b", 10, 0, 0)}, model: tab}

	c, err := circuit.New("c",
		[]circuit.Instance{{Name: "X", Device: dev}},
		nil,
		[]circuit.Exposure{circuit.Expose(circuit.Ref("X", "a"), "a"), circuit.Expose(circuit.Ref("X", "b"), "b")},
	)
	require.NoError(t, err)
	m, err := c.Model()
	require.NoError(t, err)

	_, err = m.Evaluate(freqs)
	var oe *errs.OutOfRangeError
	require.True(t, errors.As(err, &oe), "got %v", err)
}

func TestModeMismatch(t *testing.T) {
	multi, err := smodel.NewConstant(
		[]smodel.Term{{Port: "a"}, {Port: "a", Mode: 1}, {Port: "b"}},
		[][]complex128{{0, 0, 1}, {0, 0, 0}, {1, 0, 0}},
	)
	require.NoError(t, err)
	dev := &stubDevice{name: "mm", ports: []geometry.Port{port("a", 0, 0, 180), port("b", 10, 0, 0)}, model: multi}

	c, err := circuit.New("c",
		[]circuit.Instance{{Name: "M", Device: dev}, {Name: "P", Device: passThrough(t, "pt")}},
		[]circuit.Connection{circuit.Connect(circuit.Ref("P", "b"), circuit.Ref("M", "a"))},
		[]circuit.Exposure{circuit.Expose(circuit.Ref("P", "a"), "in"), circuit.Expose(circuit.Ref("M", "b"), "out")},
	)
	require.NoError(t, err)

	_, err = c.Model()
	var me *errs.ModeMismatchError
	require.True(t, errors.As(err, &me), "got %v", err)
}

// ValidationSuite covers construction-time topology errors.
type ValidationSuite struct {
	suite.Suite
	instances []circuit.Instance
}

func (s *ValidationSuite) SetupTest() {
	s.instances = []circuit.Instance{
		{Name: "A", Device: passThrough(s.T(), "pt")},
		{Name: "B", Device: passThrough(s.T(), "pt")},
	}
}

func (s *ValidationSuite) build(conns []circuit.Connection, exp []circuit.Exposure, opts ...circuit.Option) error {
	c, err := circuit.New("v", s.instances, conns, exp, opts...)
	if err != nil {
		require.Nil(s.T(), c)
	}
	return err
}

var (
	link  = circuit.Connect(circuit.Ref("A", "b"), circuit.Ref("B", "a"))
	edges = []circuit.Exposure{circuit.Expose(circuit.Ref("A", "a"), "in"), circuit.Expose(circuit.Ref("B", "b"), "out")}
)

// TestValid: the reference topology builds.
func (s *ValidationSuite) TestValid() {
	require.NoError(s.T(), s.build([]circuit.Connection{link}, edges))
}

// TestUnterminated: a dangling port yields UnterminatedPortError.
func (s *ValidationSuite) TestUnterminated() {
	err := s.build([]circuit.Connection{link}, edges[:1])
	var ue *errs.UnterminatedPortError
	require.True(s.T(), errors.As(err, &ue), "got %v", err)
	require.Equal(s.T(), "B", ue.Instance)
	require.Equal(s.T(), "b", ue.Port)
}

// TestUnknown: references to missing instances or ports.
func (s *ValidationSuite) TestUnknown() {
	for _, ref := range []circuit.PortRef{circuit.Ref("Z", "a"), circuit.Ref("A", "zz")} {
		err := s.build([]circuit.Connection{circuit.Connect(ref, circuit.Ref("B", "a"))}, edges)
		var ue *errs.UnknownPortError
		require.True(s.T(), errors.As(err, &ue), "got %v", err)
		require.Equal(s.T(), ref.Instance, ue.Instance)
	}
}

// TestUnknownBeforeReuse: an unknown port is reported even after a reuse.
func (s *ValidationSuite) TestUnknownBeforeReuse() {
	conns := []circuit.Connection{link, link, circuit.Connect(circuit.Ref("A", "q"), circuit.Ref("B", "b"))}
	err := s.build(conns, edges)
	var ue *errs.UnknownPortError
	require.True(s.T(), errors.As(err, &ue), "got %v", err)
}

// TestReuse: a port may serve only one role.
func (s *ValidationSuite) TestReuse() {
	cases := map[string]func() error{
		"connected twice": func() error {
			return s.build([]circuit.Connection{link, circuit.Connect(circuit.Ref("A", "b"), circuit.Ref("B", "b"))}, edges[:1])
		},
		"connected and exposed": func() error {
			return s.build([]circuit.Connection{link}, append(edges, circuit.Expose(circuit.Ref("A", "b"), "x")))
		},
		"duplicate external name": func() error {
			return s.build([]circuit.Connection{link}, []circuit.Exposure{circuit.Expose(circuit.Ref("A", "a"), "p"), circuit.Expose(circuit.Ref("B", "b"), "p")})
		},
		"self connection": func() error {
			return s.build([]circuit.Connection{circuit.Connect(circuit.Ref("A", "b"), circuit.Ref("A", "b"))}, edges)
		},
		"open and exposed": func() error {
			return s.build([]circuit.Connection{link}, edges, circuit.WithOpenPorts(circuit.Ref("A", "a")))
		},
	}
	for name, build := range cases {
		err := build()
		var re *errs.PortReuseError
		require.True(s.T(), errors.As(err, &re), "%s: got %v", name, err)
	}
}

// TestDuplicateInstance is rejected before any port check.
func (s *ValidationSuite) TestDuplicateInstance() {
	s.instances[1].Name = "A"
	require.Error(s.T(), s.build(nil, nil))
}

func TestValidationSuite(t *testing.T) {
	suite.Run(t, new(ValidationSuite))
}

func TestLayoutComposition(t *testing.T) {
	c, err := circuit.New("chain",
		[]circuit.Instance{
			{Name: "A", Device: passThrough(t, "pt")},
			{Name: "B", Device: passThrough(t, "pt"), Placement: geometry.Transform{X: 30, Y: 10, Angle: 90}},
		},
		[]circuit.Connection{circuit.Connect(circuit.Ref("A", "b"), circuit.Ref("B", "a"))},
		[]circuit.Exposure{
			circuit.Expose(circuit.Ref("A", "a"), "in"),
			circuit.Expose(circuit.Ref("B", "b"), "out"),
		},
	)
	require.NoError(t, err)

	l, err := c.Layout(geometry.Full)
	require.NoError(t, err)
	// two device bodies plus a two-segment elbow
	assert.Len(t, l.Elements(), 4)
	assert.Equal(t, []string{"in", "out"}, l.PortNames())

	out, _ := l.Port("out")
	assert.InDelta(t, 30, out.Position.X, 1e-12)
	assert.InDelta(t, 20, out.Position.Y, 1e-12)
	assert.Equal(t, 90.0, out.Angle)

	routes, err := c.Routes(geometry.Full)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, []geometry.Point{{X: 10}, {X: 30}, {X: 30, Y: 10}}, routes[0].Points)
	assert.InDelta(t, 30, routes[0].Length(), 1e-12)
}

func TestElbowRoute(t *testing.T) {
	straight := circuit.ElbowRoute(port("a", 0, 0, 0), port("b", 5, 0, 180))
	assert.Len(t, straight, 2)

	vertical := circuit.ElbowRoute(port("a", 0, 0, 90), port("b", 5, 8, 180))
	assert.Equal(t, geometry.Point{X: 0, Y: 8}, vertical[1])

	r := circuit.Route{Points: []geometry.Point{{}, {X: 4}, {X: 4, Y: 3}}, Width: 0.5, Layer: geometry.LayerSi}
	elems := r.Elements()
	require.Len(t, elems, 2)
	w, h := elems[0].Size()
	assert.InDelta(t, 4.5, w, 1e-12)
	assert.InDelta(t, 0.5, h, 1e-12)
}

func TestParsePortRef(t *testing.T) {
	r, err := circuit.ParsePortRef("GC1:vertical_in")
	require.NoError(t, err)
	assert.Equal(t, circuit.Ref("GC1", "vertical_in"), r)
	_, err = circuit.ParsePortRef("GC1")
	assert.Error(t, err)
}
