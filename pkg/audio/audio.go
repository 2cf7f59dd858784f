// Package audio defines the short feedback cues the terminal plays after
// cart changes and the players that deliver them.
package audio

import (
	"context"
	"sync"

	"posterminal/pkg/logger"
)

// Cue names one of the fixed sound assets.
type Cue string

const (
	CueNone    Cue = ""
	CueConfirm Cue = "confirm"
	CueClear   Cue = "clear"
)

// Asset returns the static path of the sound file for the cue.
func (c Cue) Asset() string {
	switch c {
	case CueConfirm:
		return "static/sound/beep-29.mp3"
	case CueClear:
		return "static/sound/button-21.mp3"
	}
	return ""
}

// Player plays a cue. Playback is fire-and-forget.
type Player interface {
	Play(ctx context.Context, cue Cue)
}

// Nop discards every cue.
type Nop struct{}

func (Nop) Play(context.Context, Cue) {}

// LogPlayer writes a log line per cue. The UI reads the last cue from the
// session snapshot and does the actual playback.
type LogPlayer struct {
	Log *logger.Logger
}

func (p LogPlayer) Play(ctx context.Context, cue Cue) {
	if cue == CueNone {
		return
	}
	p.Log.Debug(ctx, "play cue", "cue", string(cue), "asset", cue.Asset())
}

// Recorder remembers every cue it was asked to play.
type Recorder struct {
	mu   sync.Mutex
	cues []Cue
}

func (r *Recorder) Play(_ context.Context, cue Cue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, cue)
}

// Cues returns a copy of the recorded cues.
func (r *Recorder) Cues() []Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Cue(nil), r.cues...)
}
