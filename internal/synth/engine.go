// Package synth is the deterministic song-synthesis engine: it turns lyrics
// plus genre/tempo/key into a mixed, mastered sample buffer. Everything here
// is a pure function of its inputs (no randomness, no clocks), so the same
// request always produces byte-identical audio.
package synth

import (
	"errors"
	"strings"
)

const (
	// Tempo is clamped to this band rather than rejected.
	MinTempo = 60
	MaxTempo = 200

	// Song duration band in seconds.
	MinDuration = 15.0
	MaxDuration = 40.0

	secondsPerWord = 2.0
	minRawDuration = 20.0
)

// ErrEmptyLyrics is the only way Compose fails: lyrics empty after trimming.
var ErrEmptyLyrics = errors.New("lyrics must not be empty")

// SongStructure is the fixed section label sequence attached to every
// composition. It describes the product's song form, not an analysis of
// the rendered audio.
var SongStructure = []string{"Intro", "Verse", "Chorus", "Verse", "Chorus", "Bridge", "Chorus", "Outro"}

// Request is one composition request. Genre and Key fall back to defaults
// when unknown; Tempo is clamped; only Lyrics can make Compose fail.
type Request struct {
	Lyrics string `json:"lyrics"`
	Genre  string `json:"genre"`
	Tempo  int    `json:"tempo"`
	Key    string `json:"key"`
}

// Result is a finished composition: the mastered sample buffer plus the
// structural metadata the caller reports alongside it.
type Result struct {
	Samples    []float64
	SampleRate int
	Duration   float64
	Key        string
	Genre      string
	Tempo      int
	Structure  []string
	Melody     []NoteEvent
}

// ClampTempo clamps a requested tempo into the supported band.
func ClampTempo(tempo int) int {
	if tempo < MinTempo {
		return MinTempo
	}
	if tempo > MaxTempo {
		return MaxTempo
	}
	return tempo
}

// SongDuration derives the song length from the lyric word count: about two
// seconds per word, at least 20s raw, clamped to the product's 15–40s band.
func SongDuration(lyrics string) float64 {
	duration := secondsPerWord * float64(len(strings.Fields(lyrics)))
	if duration < minRawDuration {
		duration = minRawDuration
	}
	if duration < MinDuration {
		duration = MinDuration
	}
	if duration > MaxDuration {
		duration = MaxDuration
	}
	return duration
}

// Compose runs the full pipeline: melody mapping, the four track generators,
// mixing and mastering. It is synchronous and deterministic.
func Compose(req Request) (*Result, error) {
	lyrics := strings.TrimSpace(req.Lyrics)
	if lyrics == "" {
		return nil, ErrEmptyLyrics
	}

	tempo := ClampTempo(req.Tempo)
	key := ResolveKey(req.Key)
	pattern := ResolveGenre(req.Genre)
	duration := SongDuration(lyrics)

	melody := MapLyrics(lyrics, key, tempo)

	melodyTrack := GenerateMelodyTrack(melody, duration)
	drumTrack := GenerateDrumTrack(pattern, tempo, duration)
	bassTrack := GenerateBassTrack(melody, pattern, duration)
	padTrack := GeneratePadTrack(key, pattern, duration)

	samples := Mix(melodyTrack, drumTrack, bassTrack, padTrack)

	return &Result{
		Samples:    samples,
		SampleRate: SampleRate,
		Duration:   duration,
		Key:        key.Name,
		Genre:      pattern.Name,
		Tempo:      tempo,
		Structure:  SongStructure,
		Melody:     melody,
	}, nil
}
