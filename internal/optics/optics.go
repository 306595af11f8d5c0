package optics

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Physical constants and unit conventions.
// Lengths are in micrometers, frequencies in hertz.

const (
	// SpeedOfLight in vacuum (m/s)
	SpeedOfLight = 299792458.0

	// Micrometer in meters
	Micrometer = 1e-6

	// Default C-band window (µm)
	CBandStart = 1.5
	CBandStop  = 1.6
)

// WavelengthToFrequency converts a vacuum wavelength in µm to a frequency in Hz.
func WavelengthToFrequency(wavelength float64) float64 {
	return SpeedOfLight / (wavelength * Micrometer)
}

// FrequencyToWavelength converts a frequency in Hz to a vacuum wavelength in µm.
func FrequencyToWavelength(frequency float64) float64 {
	return SpeedOfLight / frequency / Micrometer
}

// WavelengthsToFrequencies converts every wavelength (µm) to a frequency (Hz).
func WavelengthsToFrequencies(wavelengths []float64) []float64 {
	out := make([]float64, len(wavelengths))
	for i, w := range wavelengths {
		out[i] = WavelengthToFrequency(w)
	}
	return out
}

// FrequenciesToWavelengths converts every frequency (Hz) to a wavelength (µm).
func FrequenciesToWavelengths(frequencies []float64) []float64 {
	out := make([]float64, len(frequencies))
	for i, f := range frequencies {
		out[i] = FrequencyToWavelength(f)
	}
	return out
}

// Linspace returns n evenly spaced values from start to stop inclusive.
// A single point yields start.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	return floats.Span(make([]float64, n), start, stop)
}

// PowerDB returns 10·log10(|a|²) for a complex amplitude.
// Zero amplitude is reported as -Inf.
func PowerDB(re, im float64) float64 {
	p := re*re + im*im
	if p == 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(p)
}

// AmplitudeFromDB converts a power loss in dB to a field amplitude factor.
// Loss is positive: 3 dB loss gives ~0.708.
func AmplitudeFromDB(lossDB float64) float64 {
	return math.Pow(10, -lossDB/20)
}

// PropagationLoss returns the field amplitude remaining after length µm
// in a guide with loss dB/cm.
func PropagationLoss(lossDBPerCM, length float64) float64 {
	return AmplitudeFromDB(lossDBPerCM * length * 1e-4)
}
