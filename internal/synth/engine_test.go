package synth

import (
	"bytes"
	"reflect"
	"testing"
)

func TestComposeEndToEnd(t *testing.T) {
	result, err := Compose(Request{
		Lyrics: "I love you more each day",
		Genre:  "pop",
		Tempo:  120,
		Key:    "C major",
	})
	if err != nil {
		t.Fatalf("Compose() returned error: %v", err)
	}

	if result.SampleRate != SampleRate {
		t.Errorf("sample rate = %d, want %d", result.SampleRate, SampleRate)
	}
	if result.Duration < MinDuration || result.Duration > MaxDuration {
		t.Errorf("duration = %v, want within [%v, %v]", result.Duration, MinDuration, MaxDuration)
	}
	wantStructure := []string{"Intro", "Verse", "Chorus", "Verse", "Chorus", "Bridge", "Chorus", "Outro"}
	if !reflect.DeepEqual(result.Structure, wantStructure) {
		t.Errorf("structure = %v, want %v", result.Structure, wantStructure)
	}
	if len(result.Melody) != 6 {
		t.Errorf("melody trace has %d events, want 6 (one per word)", len(result.Melody))
	}
	if len(result.Samples) != int(result.Duration*SampleRate) {
		t.Errorf("sample count = %d, want %d", len(result.Samples), int(result.Duration*SampleRate))
	}
	if peak := peakOf(result.Samples); peak > PeakCeiling+1e-9 {
		t.Errorf("peak = %v exceeds mastering ceiling %v", peak, PeakCeiling)
	}
}

func TestComposeDeterministic(t *testing.T) {
	req := Request{Lyrics: "same words every time", Genre: "rock", Tempo: 97, Key: "E minor"}

	first, err := Compose(req)
	if err != nil {
		t.Fatalf("Compose() returned error: %v", err)
	}
	second, err := Compose(req)
	if err != nil {
		t.Fatalf("Compose() returned error: %v", err)
	}

	a := EncodeWAV(first.Samples, first.SampleRate)
	b := EncodeWAV(second.Samples, second.SampleRate)
	if !bytes.Equal(a, b) {
		t.Fatal("repeated Compose() produced different audio bytes")
	}
}

func TestComposeRejectsEmptyLyrics(t *testing.T) {
	for _, lyrics := range []string{"", "   ", "\n\t "} {
		if _, err := Compose(Request{Lyrics: lyrics, Genre: "pop", Tempo: 120, Key: "C major"}); err != ErrEmptyLyrics {
			t.Errorf("Compose(lyrics=%q) error = %v, want ErrEmptyLyrics", lyrics, err)
		}
	}
}

func TestComposeFallbacks(t *testing.T) {
	result, err := Compose(Request{
		Lyrics: "unknown everything",
		Genre:  "shoegaze",
		Tempo:  120,
		Key:    "Q mixolydian",
	})
	if err != nil {
		t.Fatalf("Compose() should not fail on unknown genre/key: %v", err)
	}
	if result.Genre != DefaultGenre {
		t.Errorf("genre = %q, want fallback %q", result.Genre, DefaultGenre)
	}
	if result.Key != DefaultKeyName {
		t.Errorf("key = %q, want fallback %q", result.Key, DefaultKeyName)
	}
}

func TestComposeClampsTempo(t *testing.T) {
	tests := []struct {
		tempo int
		want  int
	}{
		{tempo: 10, want: MinTempo},
		{tempo: 60, want: 60},
		{tempo: 200, want: 200},
		{tempo: 500, want: MaxTempo},
	}
	for _, tt := range tests {
		result, err := Compose(Request{Lyrics: "clamp me", Genre: "pop", Tempo: tt.tempo, Key: "C major"})
		if err != nil {
			t.Fatalf("Compose() returned error: %v", err)
		}
		if result.Tempo != tt.want {
			t.Errorf("tempo %d clamped to %d, want %d", tt.tempo, result.Tempo, tt.want)
		}
	}
}

func TestSongDuration(t *testing.T) {
	tests := []struct {
		name   string
		lyrics string
		want   float64
	}{
		{name: "short lyric hits floor", lyrics: "hi", want: 20},
		{name: "six words still floored", lyrics: "one two three four five six", want: 20},
		{name: "twelve words", lyrics: "a a a a a a a a a a a a", want: 24},
		{name: "very long lyric capped", lyrics: repeatWords("word", 40), want: MaxDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SongDuration(tt.lyrics); got != tt.want {
				t.Errorf("SongDuration(%q) = %v, want %v", tt.lyrics, got, tt.want)
			}
		})
	}
}

func repeatWords(word string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += " "
		}
		out += word
	}
	return out
}

func TestDurationMatchesTempoDerivedSpan(t *testing.T) {
	// For any valid tempo, the rendered buffer must cover the melody span.
	for _, tempo := range []int{60, 90, 120, 160, 200} {
		result, err := Compose(Request{Lyrics: "four words right here", Genre: "pop", Tempo: tempo, Key: "C major"})
		if err != nil {
			t.Fatalf("Compose() returned error: %v", err)
		}
		last := result.Melody[len(result.Melody)-1]
		if span := last.Start + last.Duration; span > result.Duration {
			t.Errorf("tempo %d: melody span %v exceeds song duration %v", tempo, span, result.Duration)
		}
	}
}
