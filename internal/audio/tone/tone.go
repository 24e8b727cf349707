// Package tone plays cues through the system speaker. It links the native
// audio stack, so only the interactive client imports it.
package tone

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/vovakirdan/netpong/internal/audio"
	"github.com/vovakirdan/netpong/internal/games/pong"
)

const (
	sampleRate = beep.SampleRate(48000)

	toneLength = 60 * time.Millisecond
	toneVolume = 0.2
)

// cueFrequencies are the two alternating bounce tones, in Hz.
var cueFrequencies = [2]float64{440, 660}

var _ audio.Player = (*BeepPlayer)(nil)

// BeepPlayer plays cues as short sine tones through the system speaker.
type BeepPlayer struct {
	mu     sync.Mutex
	mixer  *beep.Mixer
	closed bool
}

// NewBeepPlayer initializes the speaker.
func NewBeepPlayer() (*BeepPlayer, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("tone: cannot init speaker: %w", err)
	}

	p := &BeepPlayer{mixer: &beep.Mixer{}}
	speaker.Play(p.mixer)
	return p, nil
}

// Play queues a cue. It returns immediately.
func (p *BeepPlayer) Play(cue pong.Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	tone := beep.Take(sampleRate.N(toneLength), NewToneGenerator(sampleRate, cueFrequency(cue)))
	speaker.Lock()
	p.mixer.Add(tone)
	speaker.Unlock()
}

// Close silences the player.
func (p *BeepPlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
}

func cueFrequency(cue pong.Cue) float64 {
	return cueFrequencies[int(cue)%len(cueFrequencies)]
}

// ToneGenerator generates a sine tone with a linear fade-out.
type ToneGenerator struct {
	sr    beep.SampleRate
	freq  float64
	pos   int
	total int
}

// NewToneGenerator creates a tone generator. The fade spans one toneLength.
func NewToneGenerator(sr beep.SampleRate, freq float64) *ToneGenerator {
	return &ToneGenerator{
		sr:    sr,
		freq:  freq,
		total: sr.N(toneLength),
	}
}

func (g *ToneGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		fade := 1.0
		if g.total > 0 {
			fade = math.Max(0, 1-float64(g.pos)/float64(g.total))
		}

		sample := toneVolume * fade * math.Sin(2*math.Pi*g.freq*t)
		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *ToneGenerator) Err() error {
	return nil
}
