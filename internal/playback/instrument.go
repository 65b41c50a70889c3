// Package playback schedules timed note dispatches for a resolved
// playback sequence against an external synthesized instrument.
package playback

// Instrument is the external synthesizer boundary. Implementations
// accept note-on/note-off by MIDI pitch; anything past that (actual
// sound) is outside this package.
type Instrument interface {
	NoteOn(pitch, velocity int)
	NoteOff(pitch int)
}

// DefaultVelocity is used when no velocity is configured.
const DefaultVelocity = 96
