package midiio

import (
	"fmt"
	"log/slog"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

const outputChannel = 0

// Output plays notes on a MIDI output port. It satisfies the playback
// instrument contract: NoteOn and NoteOff, nothing more.
type Output struct {
	mu   sync.Mutex
	drv  *rtmididrv.Driver
	port drivers.Out
	send func(midi.Message) error
	name string
}

// OpenOutput opens the first usable MIDI output port. A preferred
// pattern, when non-empty, selects by case-insensitive substring;
// excluded patterns extend the built-in virtual-port blocklist.
func OpenOutput(preferred string, excluded []string) (*Output, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("failed to list outputs: %w", err)
	}
	blocklist := append(append([]string{}, defaultExcludedPatterns...), excluded...)
	var port drivers.Out
	for _, out := range outs {
		name := out.String()
		if matchesAny(name, blocklist) {
			continue
		}
		if preferred != "" && !containsCI(name, preferred) {
			continue
		}
		port = out
		break
	}
	if port == nil {
		drv.Close()
		return nil, fmt.Errorf("no MIDI output port found")
	}
	if err := port.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("open %q: %w", port.String(), err)
	}
	send, err := midi.SendTo(port)
	if err != nil {
		_ = port.Close()
		drv.Close()
		return nil, fmt.Errorf("sender for %q: %w", port.String(), err)
	}
	slog.Info("midi: output connected", "device", port.String())
	return &Output{drv: drv, port: port, send: send, name: port.String()}, nil
}

// Name returns the connected output port name.
func (o *Output) Name() string {
	return o.name
}

// NoteOn starts a note. Out-of-range pitches and velocities are
// clamped to the MIDI 0..127 range.
func (o *Output) NoteOn(pitch, velocity int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.send == nil {
		return
	}
	if err := o.send(midi.NoteOn(outputChannel, clamp7(pitch), clamp7(velocity))); err != nil {
		slog.Warn("midi: note on failed", "pitch", pitch, "err", err)
	}
}

// NoteOff releases a note.
func (o *Output) NoteOff(pitch int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.send == nil {
		return
	}
	if err := o.send(midi.NoteOff(outputChannel, clamp7(pitch))); err != nil {
		slog.Warn("midi: note off failed", "pitch", pitch, "err", err)
	}
}

// Close releases the port and the driver.
func (o *Output) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.port != nil {
		_ = o.port.Close()
		o.port = nil
	}
	o.send = nil
	o.drv.Close()
}

func clamp7(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}
