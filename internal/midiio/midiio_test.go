package midiio

import "testing"

func TestPickPreferred(t *testing.T) {
	w := &Watcher{preferred: []string{"Piano", "Keystation"}}
	inputs := []string{"Midi Through Port-0", "Keystation 61 MK3", "Digital Piano"}

	name, ok := w.pickPreferred(inputs)
	if !ok {
		t.Fatalf("expected a pick")
	}
	if name != "Digital Piano" {
		t.Fatalf("expected first preferred pattern to win, got %q", name)
	}
}

func TestPickPreferredSingleInputFallback(t *testing.T) {
	w := &Watcher{}
	if name, ok := w.pickPreferred([]string{"Some Synth"}); !ok || name != "Some Synth" {
		t.Fatalf("expected lone input to be picked, got %q, %v", name, ok)
	}
	if _, ok := w.pickPreferred([]string{"A", "B"}); ok {
		t.Fatalf("ambiguous inputs must not auto-connect")
	}
}

func TestMatchesAny(t *testing.T) {
	patterns := []string{"Midi Through", "Dummy"}
	if !matchesAny("ALSA midi through port", patterns) {
		t.Fatalf("expected case-insensitive match")
	}
	if matchesAny("Keystation", patterns) {
		t.Fatalf("unexpected match")
	}
}

func TestClamp7(t *testing.T) {
	if clamp7(-3) != 0 || clamp7(200) != 127 || clamp7(64) != 64 {
		t.Fatalf("clamp7 out of range")
	}
}
