package synth

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lyricforge/lyricforge-api/pkg/embedded"
)

// DefaultGenre is the preset used when a request names a genre we don't
// ship a pattern for.
const DefaultGenre = "pop"

// DrumVoice describes one drum hit: a short decaying tone placed on the
// beats listed in Beats (positions within a four-beat bar).
type DrumVoice struct {
	Frequency float64 `json:"frequency"`
	Duration  float64 `json:"duration"`
	Amplitude float64 `json:"amplitude"`
	Beats     []int   `json:"beats"`
}

// GenrePattern is the static rhythm/register configuration for one genre.
type GenrePattern struct {
	Name       string     `json:"-"`
	Kick       DrumVoice  `json:"kick"`
	Snare      *DrumVoice `json:"snare,omitempty"`
	BassOctave int        `json:"bass_octave"`
	PadDensity float64    `json:"pad_density"`
}

var (
	patternsOnce sync.Once
	patterns     map[string]GenrePattern
)

func loadPatterns() {
	patternsOnce.Do(func() {
		raw := map[string]GenrePattern{}
		if err := json.Unmarshal(embedded.GenrePatternsJSON, &raw); err != nil {
			// The preset file ships inside the binary; failing to parse
			// it is a build defect, not a runtime condition.
			panic(fmt.Sprintf("synth: invalid embedded genre patterns: %v", err))
		}
		patterns = make(map[string]GenrePattern, len(raw))
		for name, p := range raw {
			p.Name = name
			patterns[name] = p
		}
	})
}

// ResolveGenre maps a genre name to its pattern, case-insensitively.
// Unknown genres resolve to the pop preset rather than failing.
func ResolveGenre(name string) GenrePattern {
	loadPatterns()
	if p, ok := patterns[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p
	}
	return patterns[DefaultGenre]
}

// KnownGenre reports whether name resolves without falling back.
func KnownGenre(name string) bool {
	loadPatterns()
	_, ok := patterns[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Genres lists the shipped genre names, sorted.
func Genres() []string {
	loadPatterns()
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
