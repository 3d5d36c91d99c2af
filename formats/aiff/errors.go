package aiff

import "errors"

// Decode-side failures cmd/sstencode can hit feeding an .aif/.aiff
// file through Decoder.
var (
	// ErrNotAiffFile indicates the file is not a valid AIFF file
	ErrNotAiffFile = errors.New("not an AIFF file")

	// ErrOnlyPCM16bitSupported indicates only 16-bit PCM is supported
	ErrOnlyPCM16bitSupported = errors.New("only 16-bit PCM AIFF is supported")

	// ErrUnsupportedAiffLayout indicates an unsupported AIFF layout
	ErrUnsupportedAiffLayout = errors.New("unsupported AIFF layout")

	// ErrUnsupportedAiffChunks indicates unsupported or malformed AIFF chunks
	ErrUnsupportedAiffChunks = errors.New("unsupported or malformed AIFF chunks")
)
