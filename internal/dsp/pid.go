// SPDX-License-Identifier: EPL-2.0

package dsp

// PID is a standard proportional-integral-derivative controller with a
// clamped integral term, used to drive each deck's platter motor toward a
// target rotational speed.
type PID struct {
	Kp, Ki, Kd float32
	IClamp     float32

	accumulator float32
	lastError   float32
}

// NewPID returns a PID with unity gains; callers are expected to set
// Kp/Ki/Kd/IClamp before the first Update.
func NewPID() *PID {
	p := &PID{Kp: 1, Ki: 1, Kd: 1, IClamp: 1}
	p.Reset()
	return p
}

// Reset clears the accumulated integral and last error.
func (p *PID) Reset() {
	p.accumulator = 0
	p.lastError = 0
}

// Update feeds one error sample, dt seconds since the last call, and
// returns the controller's output.
func (p *PID) Update(errVal, dt float32) float32 {
	p.accumulator += errVal * dt
	p.accumulator = clampFloat32(p.accumulator, -p.IClamp, p.IClamp)

	delta := (errVal - p.lastError) / dt
	p.lastError = errVal

	return p.Kp*errVal + p.Ki*p.accumulator + p.Kd*delta
}
