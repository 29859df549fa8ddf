package beep

import (
	"context"
	"math"
	"sync"
	"time"

	"oort/audio"
)

const (
	sampleRate = 44100

	// Start beep: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// End beep: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Error beep: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30

	playTimeout = 2 * time.Second
)

// Cues plays short listening cues. A nil *Cues, or one built with a nil
// player, is silent.
type Cues struct {
	player audio.Player

	once  sync.Once
	start []byte
	end   []byte
	err   []byte
}

func New(player audio.Player) *Cues {
	return &Cues{player: player}
}

func (c *Cues) init() {
	c.start = audio.PCM(generateTick(sampleRate, startFreq, 0.2, startVolume, startDecay))
	c.end = audio.PCM(generateTick(sampleRate, endFreq, 0.2, endVolume, endDecay))
	c.err = audio.PCM(generateDoubleBeep(sampleRate, errorFreq, 0.08, 0.05, errorVolume, errorDecay))
}

func (c *Cues) PlayStart() { c.play(func() []byte { return c.start }) }

func (c *Cues) PlayEnd() { c.play(func() []byte { return c.end }) }

func (c *Cues) PlayError() { c.play(func() []byte { return c.err }) }

// play never blocks the caller.
func (c *Cues) play(pick func() []byte) {
	if c == nil || c.player == nil {
		return
	}
	c.once.Do(c.init)
	pcm := pick()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
		defer cancel()
		c.player.Play(ctx, pcm, audio.PlaybackConfig{SampleRate: sampleRate, Channels: 1})
	}()
}

func generateTick(sampleRate int, freq float64, duration float64, volume float64, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func generateDoubleBeep(sampleRate int, freq float64, beepDur float64, gapDur float64, volume float64, decay float64) []int16 {
	beep := generateTick(sampleRate, freq, beepDur, volume, decay)
	gap := make([]int16, int(float64(sampleRate)*gapDur))
	result := make([]int16, 0, len(beep)*2+len(gap))
	result = append(result, beep...)
	result = append(result, gap...)
	result = append(result, beep...)
	return result
}
