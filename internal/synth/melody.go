package synth

import (
	"strings"
)

const (
	// MaxMelodyUnits caps the number of lyric units that become notes,
	// which in turn caps song length.
	MaxMelodyUnits = 16

	melodyOctave    = 4
	melodyAmplitude = 0.3

	// Each lyric unit occupies two beats: one note every two beats,
	// held for two beats.
	beatsPerUnit = 2
)

// NoteEvent is one melody note: a named pitch placed on the song timeline.
type NoteEvent struct {
	Note      string  `json:"note"`
	Frequency float64 `json:"frequency"`
	Start     float64 `json:"start"`
	Duration  float64 `json:"duration"`
	Amplitude float64 `json:"amplitude"`
}

// MapLyrics converts lyric text into a melody in the given key.
//
// Segmentation is a whitespace split of the lowercased text, capped at
// MaxMelodyUnits. Each unit picks its scale degree from the sum of its byte
// values modulo the scale length, an explicit hash, so identical lyrics
// always produce the identical melody on every platform. Events are strictly
// increasing in start time and never overlap.
func MapLyrics(lyrics string, key Key, tempo int) []NoteEvent {
	words := strings.Fields(strings.ToLower(lyrics))
	if len(words) > MaxMelodyUnits {
		words = words[:MaxMelodyUnits]
	}

	beat := 60.0 / float64(tempo)
	events := make([]NoteEvent, 0, len(words))
	for i, word := range words {
		note := key.Notes[byteSum(word)%len(key.Notes)]
		events = append(events, NoteEvent{
			Note:      note,
			Frequency: NoteFrequency(note, melodyOctave),
			Start:     float64(i*beatsPerUnit) * beat,
			Duration:  beatsPerUnit * beat,
			Amplitude: melodyAmplitude,
		})
	}
	return events
}

// byteSum is the melody hash: the sum of the byte values of a lyric unit.
// Deliberately not a Go map or maphash seed, which vary across runs.
func byteSum(word string) int {
	sum := 0
	for i := 0; i < len(word); i++ {
		sum += int(word[i])
	}
	return sum
}

// MelodyNotes returns just the note names of a melody, in order. This is
// the diagnostic trace exposed in result metadata.
func MelodyNotes(events []NoteEvent) []string {
	notes := make([]string, len(events))
	for i, ev := range events {
		notes[i] = ev.Note
	}
	return notes
}
