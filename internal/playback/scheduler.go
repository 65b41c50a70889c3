package playback

import (
	"log/slog"
	"sync"
	"time"

	"github.com/verte-zerg/pupitre/internal/model"
)

// completionSlack delays the completion callback slightly past the
// last note release.
const completionSlack = 50 * time.Millisecond

// Scheduler dispatches planned note events to an instrument on real
// timers. Every pending dispatch is tracked so Stop can revoke all of
// them atomically; starting playback while already playing stops the
// prior run first, so two runs never overlap.
type Scheduler struct {
	inst     Instrument
	velocity int

	// OnDone, if set before Play, runs once shortly after the last
	// note of a run releases. It is not called on Stop.
	OnDone func()

	mu        sync.Mutex
	gen       int
	timers    []*time.Timer
	sustained map[int]int
	playing   bool
}

// NewScheduler creates a scheduler dispatching to the given
// instrument. A velocity of 0 selects DefaultVelocity.
func NewScheduler(inst Instrument, velocity int) *Scheduler {
	if velocity <= 0 {
		velocity = DefaultVelocity
	}
	return &Scheduler{
		inst:      inst,
		velocity:  velocity,
		sustained: make(map[int]int),
	}
}

// Playing reports whether a run is in flight.
func (s *Scheduler) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Play schedules the sequence and returns immediately. An in-flight
// run is stopped first.
func (s *Scheduler) Play(seq *model.PlaybackSequence) {
	s.Stop()

	events := Plan(seq, s.velocity)
	if len(events) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	gen := s.gen
	s.playing = true

	for _, ev := range events {
		ev := ev
		if !ev.SkipNoteOn {
			s.timers = append(s.timers, time.AfterFunc(ev.Start, func() {
				s.noteOn(gen, ev.Pitch, ev.Velocity)
			}))
		}
		s.timers = append(s.timers, time.AfterFunc(ev.End, func() {
			s.noteOff(gen, ev.Pitch)
		}))
	}

	end := PlanEnd(events) + completionSlack
	s.timers = append(s.timers, time.AfterFunc(end, func() {
		s.complete(gen)
	}))
	slog.Debug("playback scheduled", "events", len(events), "end", end)
}

// Stop cancels every pending dispatch and releases any sustained
// sound. It is safe to call when nothing is playing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	s.gen++
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	for pitch, count := range s.sustained {
		if count > 0 {
			s.inst.NoteOff(pitch)
		}
		delete(s.sustained, pitch)
	}
	s.playing = false
}

func (s *Scheduler) noteOn(gen, pitch, velocity int) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.sustained[pitch]++
	s.mu.Unlock()
	s.inst.NoteOn(pitch, velocity)
}

func (s *Scheduler) noteOff(gen, pitch int) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	if s.sustained[pitch] > 0 {
		s.sustained[pitch]--
		if s.sustained[pitch] == 0 {
			delete(s.sustained, pitch)
		}
	}
	s.mu.Unlock()
	s.inst.NoteOff(pitch)
}

func (s *Scheduler) complete(gen int) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.playing = false
	s.timers = nil
	done := s.OnDone
	s.mu.Unlock()
	if done != nil {
		done()
	}
}
