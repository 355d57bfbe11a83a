package synth

import (
	"math"
	"strings"
)

// DefaultKeyName is the fallback key used when a request names a key we
// don't know. Key selection is cosmetic, so resolution never fails.
const DefaultKeyName = "C major"

// Key is an immutable diatonic key: seven ordered scale-degree note names.
type Key struct {
	Name  string
	Notes []string
	Minor bool
}

// enharmonics normalizes flat (and the two awkward sharp) spellings to the
// pitch-class names in the semitone table.
var enharmonics = map[string]string{
	"Bb": "A#", "Cb": "B", "Db": "C#", "Eb": "D#",
	"Fb": "E", "Gb": "F#", "Ab": "G#",
	"E#": "F", "B#": "C",
}

// semitones maps a pitch-class name to its offset from C.
var semitones = map[string]int{
	"C": 0, "C#": 1, "D": 2, "D#": 3, "E": 4, "F": 5,
	"F#": 6, "G": 7, "G#": 8, "A": 9, "A#": 10, "B": 11,
}

// keyTable covers the 15 major keys plus the three minor keys the product
// exposes in its key picker.
var keyTable = map[string]Key{
	"c major":  {Name: "C major", Notes: []string{"C", "D", "E", "F", "G", "A", "B"}},
	"g major":  {Name: "G major", Notes: []string{"G", "A", "B", "C", "D", "E", "F#"}},
	"d major":  {Name: "D major", Notes: []string{"D", "E", "F#", "G", "A", "B", "C#"}},
	"a major":  {Name: "A major", Notes: []string{"A", "B", "C#", "D", "E", "F#", "G#"}},
	"e major":  {Name: "E major", Notes: []string{"E", "F#", "G#", "A", "B", "C#", "D#"}},
	"b major":  {Name: "B major", Notes: []string{"B", "C#", "D#", "E", "F#", "G#", "A#"}},
	"f# major": {Name: "F# major", Notes: []string{"F#", "G#", "A#", "B", "C#", "D#", "E#"}},
	"c# major": {Name: "C# major", Notes: []string{"C#", "D#", "E#", "F#", "G#", "A#", "B#"}},
	"f major":  {Name: "F major", Notes: []string{"F", "G", "A", "Bb", "C", "D", "E"}},
	"bb major": {Name: "Bb major", Notes: []string{"Bb", "C", "D", "Eb", "F", "G", "A"}},
	"eb major": {Name: "Eb major", Notes: []string{"Eb", "F", "G", "Ab", "Bb", "C", "D"}},
	"ab major": {Name: "Ab major", Notes: []string{"Ab", "Bb", "C", "Db", "Eb", "F", "G"}},
	"db major": {Name: "Db major", Notes: []string{"Db", "Eb", "F", "Gb", "Ab", "Bb", "C"}},
	"gb major": {Name: "Gb major", Notes: []string{"Gb", "Ab", "Bb", "Cb", "Db", "Eb", "F"}},
	"cb major": {Name: "Cb major", Notes: []string{"Cb", "Db", "Eb", "Fb", "Gb", "Ab", "Bb"}},
	"a minor":  {Name: "A minor", Notes: []string{"A", "B", "C", "D", "E", "F", "G"}, Minor: true},
	"e minor":  {Name: "E minor", Notes: []string{"E", "F#", "G", "A", "B", "C", "D"}, Minor: true},
	"b minor":  {Name: "B minor", Notes: []string{"B", "C#", "D", "E", "F#", "G", "A"}, Minor: true},
}

// ResolveKey maps a key name to its scale. Matching is case-insensitive and
// ignores surrounding whitespace; unknown names resolve to C major.
func ResolveKey(name string) Key {
	if key, ok := keyTable[strings.ToLower(strings.TrimSpace(name))]; ok {
		return key
	}
	return keyTable["c major"]
}

// KnownKey reports whether name resolves without falling back, so callers
// can log the fallback as a soft warning.
func KnownKey(name string) bool {
	_, ok := keyTable[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// NoteFrequency converts a note name and octave to a frequency in Hz using
// equal temperament tuned to A4 = 440 Hz. Unknown note names are treated
// as C so a malformed table entry yields a tone rather than a panic.
func NoteFrequency(note string, octave int) float64 {
	if normalized, ok := enharmonics[note]; ok {
		note = normalized
	}
	offset, ok := semitones[note]
	if !ok {
		offset = semitones["C"]
	}
	semitoneOffset := offset - semitones["A"] + (octave-4)*12
	return 440 * math.Pow(2, float64(semitoneOffset)/12.0)
}
