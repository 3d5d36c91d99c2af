// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/spicyjpeg/spicydeckIIDX/audio"
	"github.com/spicyjpeg/spicydeckIIDX/internal/adpcm"
	"github.com/spicyjpeg/spicydeckIIDX/internal/dsp"
	"github.com/spicyjpeg/spicydeckIIDX/internal/track"
	"github.com/spicyjpeg/spicydeckIIDX/utils"
)

// variant is one pitch-shifted rendition of a track, already resampled to
// the pipeline's sample rate and fitted to the reference variant's frame
// count.
type variant struct {
	offsetUnits int16 // Header.PitchOffsets units (1/16th semitone)
	pcm         []int16
}

// encodeResult is everything needed to write one track file.
type encodeResult struct {
	sampleRate int
	numFrames  int
	numChunks  int
	variants   []variant
	waveform   []byte
	title      string

	// monoPCM is the reference variant mixed down to mono, the same
	// samples the waveform summary is derived from. Kept around only so
	// -dump-wav can write it out for spot-checking an encode.
	monoPCM []int16
}

// drainAll reads src to completion and returns every interleaved sample
// it produced.
func drainAll(src audio.Source) ([]float32, error) {
	var out []float32
	buf := make([]float32, 4096)

	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}

// decodeToStereo fully decodes src into memory at src's own sample rate,
// upmixing mono sources to stereo so every downstream stage can assume
// NumChannels==2.
func decodeToStereo(src audio.Source) (samples []float32, origRate int, err error) {
	origRate = src.SampleRate()

	var stereoSrc audio.Source = src
	if src.Channels() == 1 {
		stereoSrc = audio.NewStereoUpmixer(src)
	} else if src.Channels() != 2 {
		return nil, 0, fmt.Errorf("sstencode: %d-channel source not supported", src.Channels())
	}

	samples, err = drainAll(stereoSrc)
	return samples, origRate, err
}

// fitFrames truncates or zero-pads interleaved stereo pcm so it holds
// exactly frames frames.
func fitFrames(pcm []int16, frames int) []int16 {
	want := frames * track.NumChannels
	if len(pcm) == want {
		return pcm
	}
	if len(pcm) > want {
		return pcm[:want]
	}
	out := make([]int16, want)
	copy(out, pcm)
	return out
}

// toInt16 converts an interleaved float32 buffer to int16, clamping each
// sample.
func toInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = utils.Float32ToInt16(s)
	}
	return out
}

// resampleTo resamples an interleaved stereo buffer, reported as being
// recorded at reportedRate, to dstRate. Lying about reportedRate (rather
// than the buffer's true capture rate) is how pitch-shifted variants are
// produced — see memSource.
func resampleTo(samples []float32, reportedRate, dstRate int) ([]float32, error) {
	src := newMemSource(samples, reportedRate, track.NumChannels)
	resampler := audio.NewResampler(src, dstRate)
	return drainAll(resampler)
}

// encodeTrack builds every pitch-shifted variant, the waveform summary
// and the reference frame count for one input file.
func encodeTrack(src audio.Source, sourcePath string, sampleRate int, semitoneOffsets []float64) (*encodeResult, error) {
	baseSamples, origRate, err := decodeToStereo(src)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", sourcePath, err)
	}

	referenceFloat, err := resampleTo(baseSamples, origRate, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("resampling %s: %w", sourcePath, err)
	}
	referencePCM := toInt16(referenceFloat)
	numFrames := len(referencePCM) / track.NumChannels

	variants := make([]variant, 0, len(semitoneOffsets))
	for _, offset := range semitoneOffsets {
		offsetUnits := int16(math.Round(offset * track.PitchOffsetUnit))

		if offsetUnits == 0 {
			variants = append(variants, variant{offsetUnits: 0, pcm: referencePCM})
			continue
		}

		ratio := math.Pow(2, offset/12.0)
		shiftedRate := int(math.Round(float64(origRate) * ratio))

		shiftedFloat, err := resampleTo(baseSamples, shiftedRate, sampleRate)
		if err != nil {
			return nil, fmt.Errorf("resampling %s (offset %g): %w", sourcePath, offset, err)
		}

		pcm := fitFrames(toInt16(shiftedFloat), numFrames)
		variants = append(variants, variant{offsetUnits: offsetUnits, pcm: pcm})
	}

	mono, err := mixReferenceToMono(referenceFloat, sampleRate, numFrames)
	if err != nil {
		return nil, fmt.Errorf("mixing %s to mono: %w", sourcePath, err)
	}
	waveform := encodeWaveformFromMono(mono, numFrames, sampleRate)

	numChunks := (numFrames + track.SamplesPerSector - 1) / track.SamplesPerSector
	if numChunks == 0 {
		numChunks = 1
	}

	title := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))

	return &encodeResult{
		sampleRate: sampleRate,
		numFrames:  numFrames,
		numChunks:  numChunks,
		variants:   variants,
		waveform:   waveform,
		title:      title,
		monoPCM:    mono,
	}, nil
}

// mixReferenceToMono downmixes the reference variant's interleaved
// stereo float32 samples to mono int16 PCM, for the waveform summary
// and the -dump-wav debug output. It runs the samples back through
// audio.NewMonoMixer rather than averaging int16 values directly, so
// the mixdown matches what any other Source -> MonoMixer consumer in
// this codebase would produce.
func mixReferenceToMono(referenceFloat []float32, sampleRate, numFrames int) ([]int16, error) {
	src := newMemSource(referenceFloat, sampleRate, track.NumChannels)
	mono := audio.NewMonoMixer(src)

	out := make([]float32, numFrames)
	n, err := mono.ReadSamples(out)
	if err != nil && err != io.EOF {
		return nil, err
	}

	return toInt16(out[:n]), nil
}

// encodeWaveformFromMono reduces a mono PCM buffer to a nibble-packed
// peak-amplitude summary.
func encodeWaveformFromMono(mono []int16, numFrames, sampleRate int) []byte {
	enc := dsp.NewWaveformEncoder()
	out := enc.Encode(nil, mono, sampleRate, numFrames, 1)

	// Encode emits a window's peak only once the next window starts and
	// holds an unpaired nibble back; two windows of trailing silence
	// flush the final partial window into a last byte.
	tail := make([]int16, 2*sampleRate/dsp.WaveformSampleRate+1)
	return enc.Encode(out, tail, sampleRate, len(tail), 1)
}

// writeSectors splits each variant's PCM into sectors of
// track.SamplesPerSector frames and writes them to w in row-major
// (chunk, variant) order.
func writeSectors(w *track.Writer, result *encodeResult) error {
	for c := 0; c < result.numChunks; c++ {
		lo := c * track.SamplesPerSector

		for _, v := range result.variants {
			sector := encodeSector(v.pcm, lo)
			if err := w.WriteSector(&sector); err != nil {
				return fmt.Errorf("writing sector (chunk %d): %w", c, err)
			}
		}
	}

	return nil
}

// encodeSector extracts one sector's worth of samples (per channel,
// zero-padded past the track's end) starting at frame lo from an
// interleaved stereo PCM buffer and ADPCM-encodes it.
func encodeSector(pcm []int16, lo int) track.Sector {
	var sector track.Sector

	for ch := 0; ch < track.NumChannels; ch++ {
		samples := make([]int16, track.SamplesPerSector)
		for i := range samples {
			idx := (lo+i)*track.NumChannels + ch
			if idx >= len(pcm) {
				break
			}
			samples[i] = pcm[idx]
		}

		s1, s2, blocks := adpcm.EncodeChunk(samples, track.BlocksPerSector)

		var blockArr [track.BlocksPerSector]adpcm.Block
		copy(blockArr[:], blocks)

		sector.Channels[ch] = track.Chunk{S1: s1, S2: s2, Blocks: blockArr}
	}

	return sector
}
