package synth

import (
	"reflect"
	"strings"
	"testing"
)

func TestMapLyricsDeterministic(t *testing.T) {
	key := ResolveKey("C major")
	a := MapLyrics("I love you more each day", key, 120)
	b := MapLyrics("I love you more each day", key, 120)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("MapLyrics is not deterministic for identical input")
	}
}

func TestMapLyricsDegreeHash(t *testing.T) {
	key := ResolveKey("C major")
	events := MapLyrics("ab", key, 120)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	// 'a'(97) + 'b'(98) = 195, 195 % 7 = 6 -> degree B in C major
	if events[0].Note != "B" {
		t.Errorf("note = %q, want B (byte-sum hash)", events[0].Note)
	}
}

func TestMapLyricsCaseInsensitive(t *testing.T) {
	key := ResolveKey("C major")
	lower := MapLyrics("hello world", key, 120)
	upper := MapLyrics("HELLO WORLD", key, 120)
	if !reflect.DeepEqual(lower, upper) {
		t.Error("melody should not depend on lyric casing")
	}
}

func TestMapLyricsCapsUnits(t *testing.T) {
	key := ResolveKey("C major")
	lyrics := strings.Repeat("la ", 40)
	events := MapLyrics(lyrics, key, 120)
	if len(events) != MaxMelodyUnits {
		t.Errorf("got %d events, want cap of %d", len(events), MaxMelodyUnits)
	}
}

func TestMapLyricsTiming(t *testing.T) {
	key := ResolveKey("C major")
	tempo := 120
	beat := 60.0 / float64(tempo)
	events := MapLyrics("one two three", key, tempo)

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i, ev := range events {
		wantStart := float64(i*2) * beat
		if ev.Start != wantStart {
			t.Errorf("event %d start = %v, want %v", i, ev.Start, wantStart)
		}
		if ev.Duration != 2*beat {
			t.Errorf("event %d duration = %v, want %v", i, ev.Duration, 2*beat)
		}
		if ev.Amplitude != melodyAmplitude {
			t.Errorf("event %d amplitude = %v, want %v", i, ev.Amplitude, melodyAmplitude)
		}
	}

	// Strictly increasing, non-overlapping.
	for i := 1; i < len(events); i++ {
		if events[i].Start <= events[i-1].Start {
			t.Errorf("event %d start %v not after previous %v", i, events[i].Start, events[i-1].Start)
		}
		if events[i].Start < events[i-1].Start+events[i-1].Duration-1e-9 {
			t.Errorf("event %d overlaps previous", i)
		}
	}
}

func TestMelodyNotes(t *testing.T) {
	key := ResolveKey("C major")
	events := MapLyrics("one two", key, 120)
	notes := MelodyNotes(events)
	if len(notes) != 2 {
		t.Fatalf("got %d notes, want 2", len(notes))
	}
	for i, n := range notes {
		if n != events[i].Note {
			t.Errorf("note %d = %q, want %q", i, n, events[i].Note)
		}
	}
}
