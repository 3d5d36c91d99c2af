// SPDX-License-Identifier: EPL-2.0

// Command sstencode converts ordinary audio files into the .sst track
// format the core's sampler reads, producing one or more pitch-shifted
// variants per input so the deck can scratch and pitch-bend without
// resampling on the fly.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/spicyjpeg/spicydeckIIDX/audio"
	"github.com/spicyjpeg/spicydeckIIDX/formats/aiff"
	"github.com/spicyjpeg/spicydeckIIDX/formats/mp3"
	"github.com/spicyjpeg/spicydeckIIDX/formats/vorbis"
	"github.com/spicyjpeg/spicydeckIIDX/formats/wav"
	"github.com/spicyjpeg/spicydeckIIDX/internal/track"
)

const defaultExtensions = "wav,aiff,aif,mp3,ogg"
const defaultPitchOffsets = "-3,-2,-1,0,1,2,3"

func newRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("aif", aiff.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	return r
}

func main() {
	var (
		sampleRate   = flag.Int("r", 44100, "pipeline sample rate in Hz")
		pitchOffsets = flag.String("p", defaultPitchOffsets, "comma-separated pitch offsets to encode, in semitones")
		extensions   = flag.String("e", defaultExtensions, "comma-separated input file extensions to scan for")
		outputDir    = flag.String("o", ".", "directory to write .sst files to")
		force        = flag.Bool("f", false, "overwrite existing output files")
		jobs         = flag.Int("j", 1, "number of files to encode concurrently")
		keyScale     = flag.String("key-scale", "", "track's key scale: major, minor, or empty for unknown")
		keyNote      = flag.Int("key-note", 0, "track's key note, 0 (C) to 11 (B)")
		verbose      = flag.Bool("v", false, "log progress for each file")
		dumpWAV      = flag.Bool("dump-wav", false, "also write a mono WAV of the reference variant next to each .sst, for spot-checking an encode")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] file-or-dir [file-or-dir ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	offsets, err := parseOffsets(*pitchOffsets)
	if err != nil {
		log.Fatalf("sstencode: %v", err)
	}

	scale, note, err := parseKey(*keyScale, *keyNote)
	if err != nil {
		log.Fatalf("sstencode: %v", err)
	}

	extSet := make(map[string]bool)
	for _, e := range strings.Split(*extensions, ",") {
		extSet["."+strings.ToLower(strings.TrimSpace(e))] = true
	}

	var inputs []string
	for _, arg := range flag.Args() {
		found, err := collectInputs(arg, extSet)
		if err != nil {
			log.Fatalf("sstencode: %v", err)
		}
		inputs = append(inputs, found...)
	}

	if len(inputs) == 0 {
		log.Fatal("sstencode: no matching input files found")
	}

	registry := newRegistry()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatalf("sstencode: creating output directory: %v", err)
	}

	jobCount := *jobs
	if jobCount < 1 {
		jobCount = 1
	}

	sem := make(chan struct{}, jobCount)
	var wg sync.WaitGroup
	var failed sync.Map

	for _, input := range inputs {
		wg.Add(1)
		sem <- struct{}{}

		go func(input string) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := encodeFile(registry, input, *outputDir, *sampleRate, offsets, scale, note, *force, *verbose, *dumpWAV); err != nil {
				failed.Store(input, err)
				log.Printf("sstencode: %s: %v", input, err)
			}
		}(input)
	}

	wg.Wait()

	failCount := 0
	failed.Range(func(_, _ any) bool { failCount++; return true })
	if failCount > 0 {
		os.Exit(1)
	}
}

// parseOffsets parses a comma-separated list of semitone offsets,
// enforcing track.MaxVariants and ensuring the zero-offset (reference)
// variant is present.
func parseOffsets(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	offsets := make([]float64, 0, len(parts))
	hasZero := false

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid pitch offset %q: %w", p, err)
		}
		if v == 0 {
			hasZero = true
		}
		offsets = append(offsets, v)
	}

	if !hasZero {
		offsets = append([]float64{0}, offsets...)
	}
	if len(offsets) > track.MaxVariants {
		return nil, fmt.Errorf("%d pitch offsets requested, max is %d", len(offsets), track.MaxVariants)
	}
	if len(offsets) == 0 {
		return nil, fmt.Errorf("no pitch offsets given")
	}

	return offsets, nil
}

// parseKey validates the -key-scale/-key-note flags. An empty scale
// leaves the track's key unknown, matching the original's KeyFinder
// being out of scope here — see SPEC_FULL.md.
func parseKey(scale string, note int) (track.KeyScale, uint8, error) {
	if note < 0 || note > 11 {
		return track.ScaleUnknown, 0, fmt.Errorf("key-note must be 0..11, got %d", note)
	}

	switch strings.ToLower(strings.TrimSpace(scale)) {
	case "":
		return track.ScaleUnknown, 0, nil
	case "major":
		return track.ScaleMajor, uint8(note), nil
	case "minor":
		return track.ScaleMinor, uint8(note), nil
	default:
		return track.ScaleUnknown, 0, fmt.Errorf("key-scale must be major, minor, or empty, got %q", scale)
	}
}

// collectInputs expands path into a list of files to encode, recursing
// into directories and filtering by extension.
func collectInputs(path string, extSet map[string]bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var found []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if extSet[strings.ToLower(filepath.Ext(p))] {
			found = append(found, p)
		}
		return nil
	})
	return found, err
}

// codecKey maps a file extension to the registry key a decoder was
// registered under.
func codecKey(ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "aif" {
		return "aiff"
	}
	return ext
}

func encodeFile(registry *audio.Registry, inputPath, outputDir string, sampleRate int, offsets []float64, scale track.KeyScale, note uint8, force, verbose, dumpWAV bool) error {
	key := codecKey(filepath.Ext(inputPath))
	decoder, ok := registry.Get(key)
	if !ok {
		return fmt.Errorf("no decoder registered for %q files", key)
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	src, err := decoder.Decode(f)
	if err != nil {
		return fmt.Errorf("decoding: %w", err)
	}
	defer src.Close()

	if verbose {
		log.Printf("sstencode: encoding %s", inputPath)
	}

	result, err := encodeTrack(src, inputPath, sampleRate, offsets)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outPath := filepath.Join(outputDir, base+".sst")

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}

	out, err := os.OpenFile(outPath, flags, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", outPath, err)
	}
	defer out.Close()

	if err := writeTrack(out, result, scale, note); err != nil {
		os.Remove(outPath)
		return err
	}

	if verbose {
		log.Printf("sstencode: wrote %s (%d chunks, %d variants)", outPath, result.numChunks, len(result.variants))
	}

	if dumpWAV {
		if err := dumpReferenceWAV(outputDir, base, result); err != nil {
			return fmt.Errorf("dumping debug wav: %w", err)
		}
	}

	return nil
}

// dumpReferenceWAV writes result's mono reference-variant PCM as a plain
// WAV file next to the encoded track, for listening back to exactly what
// the waveform summary and ADPCM sectors were derived from.
func dumpReferenceWAV(outputDir, base string, result *encodeResult) error {
	wavPath := filepath.Join(outputDir, base+".debug.wav")

	f, err := os.Create(wavPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return wav.WriteWAV16(f, result.sampleRate, result.monoPCM)
}

func writeTrack(out *os.File, result *encodeResult, scale track.KeyScale, note uint8) error {
	header := track.Header{
		SampleRate:  uint32(result.sampleRate),
		NumChunks:   uint32(result.numChunks),
		WaveformLen: uint32(len(result.waveform)),
		NumVariants: uint8(len(result.variants)),
		NumChannels: track.NumChannels,
		KeyScale:    scale,
		KeyNote:     note,
		Tags: track.Tags{
			Title: result.title,
		},
	}
	for i, v := range result.variants {
		header.PitchOffsets[i] = v.offsetUnits
	}

	if err := header.Validate(); err != nil {
		return fmt.Errorf("built an invalid header: %w", err)
	}

	w := track.NewWriter(out, header)
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := writeSectors(w, result); err != nil {
		return err
	}
	if err := w.WriteWaveform(result.waveform); err != nil {
		return fmt.Errorf("writing waveform: %w", err)
	}

	return nil
}
