package audio

import (
	"context"
	"os"
	"sync"
	"time"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
)

// FakeContext replays fixed PCM as capture input and records playback.
type FakeContext struct {
	pcm      []byte
	realtime bool
	Player   *FakePlayer
}

func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return NewFakePCMContext(data, realtime), nil
}

func NewFakePCMContext(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{pcm: pcm, realtime: realtime, Player: &FakePlayer{}}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	rate := config.SampleRate
	if rate == 0 {
		rate = 16000
	}
	return &FakeCapture{pcm: f.pcm, realtime: f.realtime, sampleRate: rate}, nil
}

func (f *FakeContext) NewPlayer() (Player, error) { return f.Player, nil }

// FakeCapture feeds its PCM then silence until stopped. Each Start replays
// from the beginning.
type FakeCapture struct {
	pcm        []byte
	realtime   bool
	sampleRate uint32

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	chunkBytes := fakeFrameSize * fakeBytesPerFrame
	interval := time.Millisecond
	if f.realtime {
		interval = time.Duration(fakeFrameSize) * time.Second / time.Duration(f.sampleRate)
	}

	go func(stop, done chan struct{}) {
		defer close(done)
		pos := 0
		silence := make([]byte, chunkBytes)
		for {
			select {
			case <-stop:
				return
			case <-time.After(interval):
			}
			cb := f.callback()
			if cb == nil {
				continue
			}
			if pos < len(f.pcm) {
				end := min(pos+chunkBytes, len(f.pcm))
				chunk := make([]byte, end-pos)
				copy(chunk, f.pcm[pos:end])
				cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
				pos = end
				continue
			}
			cb(silence, fakeFrameSize)
		}
	}(f.stopCh, f.feedDone)

	return nil
}

func (f *FakeCapture) Stop() {
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.feedDone
}

func (f *FakeCapture) Close() { f.Stop() }

// FakePlayer records every clip it is asked to play.
type FakePlayer struct {
	mu      sync.Mutex
	clips   [][]byte
	configs []PlaybackConfig
	Err     error
}

func (p *FakePlayer) Play(ctx context.Context, pcm []byte, config PlaybackConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	clip := make([]byte, len(pcm))
	copy(clip, pcm)
	p.clips = append(p.clips, clip)
	p.configs = append(p.configs, config)
	return ctx.Err()
}

func (p *FakePlayer) Close() {}

func (p *FakePlayer) Clips() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.clips...)
}

func (p *FakePlayer) Configs() []PlaybackConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PlaybackConfig(nil), p.configs...)
}
