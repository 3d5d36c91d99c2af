// SPDX-License-Identifier: EPL-2.0

package dsp

// Smoothing is a single-pole floating-point low-pass used to stabilize
// measured platter speed before it drives the sampler step. The pole
// coefficient is a free parameter rather than the original's hardcoded 0.3
// — see DESIGN.md's resolution of the open question around it — but 0.3 is
// still the right default to preserve the original's tracking feel.
type Smoothing struct {
	coefficient float32
	state       float32
}

// NewSmoothing returns a Smoothing filter with the given pole coefficient
// in (0,1]; values near 1 track the input instantly, values near 0 heavily
// damp it.
func NewSmoothing(coefficient float32) *Smoothing {
	return &Smoothing{coefficient: clampFloat32(coefficient, 0.001, 1)}
}

// Reset zeroes the filter's state.
func (s *Smoothing) Reset() {
	s.state = 0
}

// Update feeds one input sample and returns the filtered output.
func (s *Smoothing) Update(input float32) float32 {
	s.state += s.coefficient * (input - s.state)
	return s.state
}
