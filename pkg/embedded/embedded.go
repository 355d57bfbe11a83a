package embedded

import (
	_ "embed"
)

// Embed static data files shipped with the binary

//go:embed data/genre_patterns.json
var GenrePatternsJSON []byte

//go:embed data/lyric_system_prompt.txt
var LyricSystemPromptTxt []byte
