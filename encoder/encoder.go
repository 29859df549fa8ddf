package encoder

import "time"

// Capture format shared by the microphone, the encoder and the
// transcription upload.
const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder accepts raw little-endian PCM through Write and produces a
// complete file image once closed.
type Encoder interface {
	Write(pcm []byte) (int, error)
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	EncodeTime() time.Duration
	Format() string
}

// Duration converts a frame count at SampleRate to wall time.
func Duration(frames uint64) time.Duration {
	return time.Duration(frames) * time.Second / SampleRate
}
