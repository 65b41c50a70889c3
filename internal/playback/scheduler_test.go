package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/verte-zerg/pupitre/internal/model"
)

type fakeInstrument struct {
	mu   sync.Mutex
	ons  []int
	offs []int
}

func (f *fakeInstrument) NoteOn(pitch, velocity int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ons = append(f.ons, pitch)
}

func (f *fakeInstrument) NoteOff(pitch int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offs = append(f.offs, pitch)
}

func (f *fakeInstrument) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ons), len(f.offs)
}

func slowSequence() *model.PlaybackSequence {
	// 1 BPM: a whole note lasts 4 minutes, so nothing fires during
	// the test unless it starts at zero.
	return &model.PlaybackSequence{
		TempoBPM: 1,
		Entries: []model.PlaybackSequenceEntry{{
			PlaybackIndex: 0, Duration: 1,
			Notes: []*model.ExtractedNote{note(60, 0, 0.5, 0.25)},
		}},
	}
}

func TestSchedulerStopCancelsPending(t *testing.T) {
	inst := &fakeInstrument{}
	s := NewScheduler(inst, 0)
	s.Play(slowSequence())
	if !s.Playing() {
		t.Fatalf("scheduler not playing after Play")
	}
	s.Stop()
	if s.Playing() {
		t.Fatalf("scheduler still playing after Stop")
	}
	time.Sleep(50 * time.Millisecond)
	ons, offs := inst.counts()
	if ons != 0 || offs != 0 {
		t.Fatalf("cancelled run dispatched %d ons, %d offs", ons, offs)
	}
}

func TestSchedulerStopReleasesSustained(t *testing.T) {
	inst := &fakeInstrument{}
	s := NewScheduler(inst, 0)
	seq := &model.PlaybackSequence{
		TempoBPM: 1,
		Entries: []model.PlaybackSequenceEntry{{
			PlaybackIndex: 0, Duration: 1,
			// Starts immediately, releases far in the future.
			Notes: []*model.ExtractedNote{note(60, 0, 0, 0.5)},
		}},
	}
	s.Play(seq)
	deadline := time.Now().Add(2 * time.Second)
	for {
		if ons, _ := inst.counts(); ons == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("note-on never dispatched")
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()
	ons, offs := inst.counts()
	if ons != 1 || offs != 1 {
		t.Fatalf("after stop: %d ons, %d offs, want 1 and 1", ons, offs)
	}
}

func TestSchedulerCompletionCallback(t *testing.T) {
	inst := &fakeInstrument{}
	s := NewScheduler(inst, 0)
	done := make(chan struct{})
	s.OnDone = func() { close(done) }

	// 240 BPM: whole note 1s, note lasts 10ms, completion ~60ms in.
	seq := &model.PlaybackSequence{
		TempoBPM: 240,
		Entries: []model.PlaybackSequenceEntry{{
			PlaybackIndex: 0, Duration: 0.01,
			Notes: []*model.ExtractedNote{note(60, 0, 0, 0.01)},
		}},
	}
	s.Play(seq)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("completion callback never ran")
	}
	if s.Playing() {
		t.Fatalf("still playing after completion")
	}
	ons, offs := inst.counts()
	if ons != 1 || offs != 1 {
		t.Fatalf("completed run dispatched %d ons, %d offs", ons, offs)
	}
}

func TestSchedulerPlayStopsPriorRun(t *testing.T) {
	inst := &fakeInstrument{}
	s := NewScheduler(inst, 0)
	s.Play(slowSequence())
	s.Play(slowSequence())
	s.Stop()
	time.Sleep(50 * time.Millisecond)
	if ons, _ := inst.counts(); ons != 0 {
		t.Fatalf("overlapping runs dispatched %d ons", ons)
	}
}
