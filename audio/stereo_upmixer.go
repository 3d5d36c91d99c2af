// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// StereoUpmixer duplicates a mono source's samples across two channels.
// It is the inverse of MonoMixer, used where a downstream stage requires
// a fixed channel count.
type StereoUpmixer struct {
	src Source
	tmp []float32
}

func NewStereoUpmixer(src Source) *StereoUpmixer {
	return &StereoUpmixer{
		src: src,
		tmp: make([]float32, 4096),
	}
}

func (u *StereoUpmixer) SampleRate() int { return u.src.SampleRate() }
func (u *StereoUpmixer) Channels() int   { return 2 }
func (u *StereoUpmixer) BufSize() int    { return u.src.BufSize() }

func (u *StereoUpmixer) Close() error {
	err := u.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (u *StereoUpmixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	frames := len(dst) / 2
	if cap(u.tmp) < frames {
		u.tmp = make([]float32, frames)
	}

	n, err := u.src.ReadSamples(u.tmp[:frames])
	for i := 0; i < n; i++ {
		dst[i*2] = u.tmp[i]
		dst[i*2+1] = u.tmp[i]
	}

	return n * 2, err
}
