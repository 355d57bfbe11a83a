package synth

import (
	"math"
	"testing"
)

func TestResolveKey(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantName  string
		wantFirst string
		wantMinor bool
	}{
		{name: "exact match", input: "C major", wantName: "C major", wantFirst: "C"},
		{name: "case insensitive", input: "g MAJOR", wantName: "G major", wantFirst: "G"},
		{name: "whitespace trimmed", input: "  D major ", wantName: "D major", wantFirst: "D"},
		{name: "flat key", input: "Bb major", wantName: "Bb major", wantFirst: "Bb"},
		{name: "minor key", input: "A minor", wantName: "A minor", wantFirst: "A", wantMinor: true},
		{name: "unknown falls back to C major", input: "H sharp ultra", wantName: "C major", wantFirst: "C"},
		{name: "empty falls back to C major", input: "", wantName: "C major", wantFirst: "C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := ResolveKey(tt.input)
			if key.Name != tt.wantName {
				t.Errorf("ResolveKey(%q).Name = %q, want %q", tt.input, key.Name, tt.wantName)
			}
			if len(key.Notes) != 7 {
				t.Fatalf("ResolveKey(%q) has %d notes, want 7", tt.input, len(key.Notes))
			}
			if key.Notes[0] != tt.wantFirst {
				t.Errorf("ResolveKey(%q).Notes[0] = %q, want %q", tt.input, key.Notes[0], tt.wantFirst)
			}
			if key.Minor != tt.wantMinor {
				t.Errorf("ResolveKey(%q).Minor = %v, want %v", tt.input, key.Minor, tt.wantMinor)
			}
		})
	}
}

func TestKnownKey(t *testing.T) {
	if !KnownKey("E minor") {
		t.Error("KnownKey(E minor) = false, want true")
	}
	if KnownKey("Z locrian") {
		t.Error("KnownKey(Z locrian) = true, want false")
	}
}

func TestNoteFrequency(t *testing.T) {
	tests := []struct {
		note   string
		octave int
		want   float64
	}{
		{"A", 4, 440.0},
		{"C", 4, 261.626},
		{"A", 3, 220.0},
		{"A", 5, 880.0},
		{"C", 2, 65.406},
		{"Bb", 4, 466.164}, // enharmonic of A#
		{"E#", 4, 349.228}, // enharmonic of F
		{"??", 4, 261.626}, // unknown note treated as C
	}

	for _, tt := range tests {
		got := NoteFrequency(tt.note, tt.octave)
		if math.Abs(got-tt.want) > 0.01 {
			t.Errorf("NoteFrequency(%q, %d) = %.3f, want %.3f", tt.note, tt.octave, got, tt.want)
		}
	}
}

func TestAllKeysHaveSevenDegrees(t *testing.T) {
	for name, key := range keyTable {
		if len(key.Notes) != 7 {
			t.Errorf("key %q has %d degrees, want 7", name, len(key.Notes))
		}
		for _, note := range key.Notes {
			if NoteFrequency(note, 4) <= 0 {
				t.Errorf("key %q note %q produced non-positive frequency", name, note)
			}
		}
	}
}
