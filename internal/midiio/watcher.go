// Package midiio connects the practice loop to real MIDI hardware: a
// hot-plug input watcher for the instrument the player performs on,
// and an output port used for playback.
package midiio

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Virtual/system ports that are never auto-connected.
var defaultExcludedPatterns = []string{"Midi Through", "Through Port", "Dummy"}

const rescanInterval = 1000 * time.Millisecond

// Watcher monitors available MIDI inputs and maintains a connection to
// the preferred device. It handles hot-plug (new device appears) and
// hot-unplug (device disappears) transparently.
//
// onNote is called for every NoteOn / NoteOff while a device is
// connected. onDisconnect is called (from a goroutine) when the active
// device is lost; callers should use it to reset any held note state.
type Watcher struct {
	mu           sync.Mutex
	drv          *rtmididrv.Driver
	inPort       drivers.In
	stopFn       func()
	connected    bool
	selectedName string
	lastRescanAt time.Time

	preferred []string
	excluded  []string

	onNote       func(on bool, pitch int)
	onDisconnect func()
}

// NewWatcher creates a watcher and initialises the underlying rtmidi
// driver. Devices matching a preferred pattern are picked first;
// excluded patterns extend the built-in virtual-port blocklist. Call
// Close() when done.
func NewWatcher(preferred, excluded []string, onNote func(on bool, pitch int), onDisconnect func()) (*Watcher, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return &Watcher{
		drv:          drv,
		preferred:    preferred,
		excluded:     append(append([]string{}, defaultExcludedPatterns...), excluded...),
		onNote:       onNote,
		onDisconnect: onDisconnect,
	}, nil
}

// Connected reports whether an input device is currently attached.
func (m *Watcher) Connected() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectedName, m.connected
}

// Close shuts down the active MIDI connection and the rtmidi driver.
func (m *Watcher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeConn()
	m.drv.Close()
}

// Tick should be called on a regular interval (e.g. every second) from
// the main loop. It scans for devices, auto-connects to a preferred
// one, and detects disappearances.
func (m *Watcher) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if !m.lastRescanAt.IsZero() && now.Sub(m.lastRescanAt) < rescanInterval {
		return
	}
	m.lastRescanAt = now

	inputs := m.listInputs()

	if m.connected {
		// Verify the selected device is still present.
		for _, n := range inputs {
			if n == m.selectedName {
				return
			}
		}
		// Device disappeared.
		slog.Warn("midi: device disappeared", "device", m.selectedName)
		m.closeConn()
		m.lastRescanAt = time.Time{} // rescan immediately next tick
		if m.onDisconnect != nil {
			go m.onDisconnect()
		}
		return
	}

	if len(inputs) == 0 {
		return
	}
	cand, ok := m.pickPreferred(inputs)
	if !ok {
		return
	}
	if err := m.openByName(cand); err != nil {
		slog.Error("midi: connect failed", "device", cand, "err", err)
	}
}

func (m *Watcher) listInputs() []string {
	ins, err := m.drv.Ins()
	if err != nil {
		slog.Error("midi: list inputs failed", "err", err)
		return nil
	}
	var names []string
	for _, in := range ins {
		name := in.String()
		if matchesAny(name, m.excluded) {
			slog.Debug("midi: input excluded", "device", name)
			continue
		}
		names = append(names, name)
	}
	slog.Debug("midi: inputs found", "count", len(names), "devices", strings.Join(names, ", "))
	return names
}

func (m *Watcher) pickPreferred(inputs []string) (string, bool) {
	for _, pat := range m.preferred {
		for _, name := range inputs {
			if containsCI(name, pat) {
				return name, true
			}
		}
	}
	if len(inputs) == 1 {
		return inputs[0], true
	}
	return "", false
}

func (m *Watcher) closeConn() {
	if m.stopFn != nil {
		m.stopFn()
		m.stopFn = nil
	}
	if m.inPort != nil {
		_ = m.inPort.Close()
		m.inPort = nil
	}
	m.connected = false
	m.selectedName = ""
}

func (m *Watcher) openByName(name string) error {
	ins, err := m.drv.Ins()
	if err != nil {
		return err
	}
	var found drivers.In
	for _, in := range ins {
		if in.String() == name {
			found = in
			break
		}
	}
	if found == nil {
		return fmt.Errorf("input %q not found", name)
	}
	if err := found.Open(); err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}

	stop, err := midi.ListenTo(found, func(msg midi.Message, _ int32) {
		var ch, key, vel uint8
		if msg.GetNoteStart(&ch, &key, &vel) {
			m.onNote(true, int(key))
		} else if msg.GetNoteEnd(&ch, &key) {
			m.onNote(false, int(key))
		} else {
			slog.Debug("midi: unhandled message", "msg", msg.String())
		}
	}, midi.HandleError(func(listenErr error) {
		slog.Warn("midi: listener error", "device", name, "err", listenErr)
		// Must not call closeConn from within the listener goroutine, so
		// we dispatch to a new goroutine and re-acquire the mutex.
		go func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.connected && m.selectedName == name {
				m.closeConn()
				m.lastRescanAt = time.Time{} // trigger immediate rescan
				if m.onDisconnect != nil {
					go m.onDisconnect()
				}
			}
		}()
	}))
	if err != nil {
		_ = found.Close()
		return fmt.Errorf("listen %q: %w", name, err)
	}

	m.inPort = found
	m.stopFn = stop
	m.connected = true
	m.selectedName = name
	slog.Info("midi: connected", "device", name)
	return nil
}

func matchesAny(name string, patterns []string) bool {
	for _, pat := range patterns {
		if containsCI(name, pat) {
			return true
		}
	}
	return false
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
