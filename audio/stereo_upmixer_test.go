// SPDX-License-Identifier: EPL-2.0

package audio

import "testing"

func TestStereoUpmixer_DuplicatesMonoAcrossChannels(t *testing.T) {
	t.Parallel()

	src := newConstantSource(8000, 1, 100, 0.25)
	up := NewStereoUpmixer(src)

	if up.Channels() != 2 {
		t.Fatalf("Channels() = %d, want 2", up.Channels())
	}
	if up.SampleRate() != 8000 {
		t.Errorf("SampleRate() = %d, want 8000", up.SampleRate())
	}

	buf := make([]float32, 20) // 10 stereo frames
	n, err := up.ReadSamples(buf)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 20 {
		t.Fatalf("ReadSamples() n = %d, want 20", n)
	}

	for i := 0; i < 10; i++ {
		if buf[i*2] != 0.25 || buf[i*2+1] != 0.25 {
			t.Errorf("frame %d = [%v, %v], want [0.25, 0.25]", i, buf[i*2], buf[i*2+1])
		}
	}
}
