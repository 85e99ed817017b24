package main

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// sounds plays short synthesized effects. Every method is a no-op until
// Initialize succeeds, so the game runs fine without an audio device.
type sounds struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
}

func newSounds() *sounds {
	return &sounds{mixer: &beep.Mixer{}}
}

// Initialize opens the speaker
func (s *sounds) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(s.mixer)
	s.initialized = true
	return nil
}

// Cleanup silences anything still playing
func (s *sounds) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}
	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()
	s.initialized = false
}

// PlayEat plays a short rising chirp
func (s *sounds) PlayEat() {
	s.play(newSweep(sampleRate, 660, 990, 60*time.Millisecond))
}

// PlayGameOver plays a falling tone
func (s *sounds) PlayGameOver() {
	s.play(newSweep(sampleRate, 440, 110, 400*time.Millisecond))
}

func (s *sounds) play(streamer beep.Streamer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}
	speaker.Lock()
	s.mixer.Add(streamer)
	speaker.Unlock()
}

// sweep is a sine tone gliding linearly from one frequency to another,
// with a linear fade out
type sweep struct {
	sr       beep.SampleRate
	from, to float64
	total    int
	pos      int
	phase    float64
}

func newSweep(sr beep.SampleRate, from, to float64, d time.Duration) *sweep {
	return &sweep{sr: sr, from: from, to: to, total: sr.N(d)}
}

func (g *sweep) Stream(samples [][2]float64) (n int, ok bool) {
	if g.pos >= g.total {
		return 0, false
	}
	for i := range samples {
		if g.pos >= g.total {
			return i, true
		}
		progress := float64(g.pos) / float64(g.total)
		freq := g.from + (g.to-g.from)*progress
		g.phase += 2 * math.Pi * freq / float64(g.sr)
		v := 0.2 * (1 - progress) * math.Sin(g.phase)
		samples[i][0] = v
		samples[i][1] = v
		g.pos++
	}
	return len(samples), true
}

func (g *sweep) Err() error {
	return nil
}
