package wav

import "errors"

// These are the decode-side failures cmd/sstencode can hit feeding a
// .wav file through Decoder, kept as distinct sentinels so a caller
// can report which assumption about its input broke.
var (
	ErrNotWavFile = errors.New("not a WAV file")
	ErrUnsupportedWavLayout = errors.New("unsupported WAV layout")
	ErrOnlyPCM16bitSupported = errors.New("only PCM 16-bit supported")
	ErrUnsupportedWavChunks =  errors.New("unsupported WAV chunks")
)
