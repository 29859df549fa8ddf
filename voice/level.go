package voice

import (
	"encoding/binary"
	"math"
	"sync"
)

// levelMeter accumulates signal energy between ticks.
type levelMeter struct {
	mu         sync.Mutex
	sumSquares float64
	samples    int
}

func (m *levelMeter) Add(pcm []byte) {
	var sum float64
	n := 0
	for i := 0; i+1 < len(pcm); i += 2 {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[i:]))) / 32768.0
		sum += s * s
		n++
	}
	m.mu.Lock()
	m.sumSquares += sum
	m.samples += n
	m.mu.Unlock()
}

// Take returns the RMS since the previous call and resets the window.
func (m *levelMeter) Take() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.samples == 0 {
		return 0
	}
	rms := math.Sqrt(m.sumSquares / float64(m.samples))
	m.sumSquares, m.samples = 0, 0
	return rms
}
