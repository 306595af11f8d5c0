// Package errs defines the error kinds reported by device synthesis,
// network models and circuit assembly.
//
// Every kind is a distinct struct type so callers can match it with
// errors.As and inspect the offending value.
package errs

import "fmt"

// InvalidParameterError reports an out-of-range numeric input.
type InvalidParameterError struct {
	Device string
	Param  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	if e.Device == "" {
		return fmt.Sprintf("invalid parameter %s=%g: %s", e.Param, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s: invalid parameter %s=%g: %s", e.Device, e.Param, e.Value, e.Reason)
}

// InvalidParameter builds an InvalidParameterError.
func InvalidParameter(device, param string, value float64, reason string) error {
	return &InvalidParameterError{Device: device, Param: param, Value: value, Reason: reason}
}

// PortMappingError reports an incomplete or inconsistent mapping between
// (port, mode) terms and the indices of a tabulated S-parameter table.
type PortMappingError struct {
	Port   string
	Mode   int
	Index  int
	Reason string
}

func (e *PortMappingError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("port mapping: index %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("port mapping: term (%s,%d) -> %d: %s", e.Port, e.Mode, e.Index, e.Reason)
}

// OutOfRangeError reports a frequency query outside the sampled domain of
// a tabulated model when extrapolation is disabled.
type OutOfRangeError struct {
	Frequency float64
	Min       float64
	Max       float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("frequency %.6g Hz outside interpolation range [%.6g, %.6g] Hz", e.Frequency, e.Min, e.Max)
}

// UnknownPortError reports a reference to an instance or port that does not exist.
type UnknownPortError struct {
	Instance string
	Port     string
}

func (e *UnknownPortError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("unknown instance %q", e.Instance)
	}
	return fmt.Sprintf("unknown port %q on instance %q", e.Port, e.Instance)
}

// PortReuseError reports a port used by more than one connection or exposure.
type PortReuseError struct {
	Instance string
	Port     string
	Reason   string
}

func (e *PortReuseError) Error() string {
	return fmt.Sprintf("port %s:%s reused: %s", e.Instance, e.Port, e.Reason)
}

// UnterminatedPortError reports an instance port that is neither connected,
// exposed nor declared open.
type UnterminatedPortError struct {
	Instance string
	Port     string
}

func (e *UnterminatedPortError) Error() string {
	return fmt.Sprintf("port %s:%s is neither connected nor exposed", e.Instance, e.Port)
}

// ModeMismatchError reports a connection between ports that carry
// different sets of modes.
type ModeMismatchError struct {
	From string
	To   string
}

func (e *ModeMismatchError) Error() string {
	return fmt.Sprintf("connection %s <-> %s joins ports with different mode sets", e.From, e.To)
}

// SingularNetworkError reports a connection whose multiple-reflection
// system has no solution, e.g. a lossless closed loop.
type SingularNetworkError struct {
	Frequency float64
	Detail    string
}

func (e *SingularNetworkError) Error() string {
	return fmt.Sprintf("singular network at %.6g Hz: %s", e.Frequency, e.Detail)
}
