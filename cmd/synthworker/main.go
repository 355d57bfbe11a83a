// synthworker is the isolated synthesis worker. The API server never renders
// audio in-process: it spawns this binary per request, so a runaway or
// crashed render can be killed and cleaned up without taking the service
// down.
//
// Usage:
//
//	synthworker generate <lyrics> <genre> <tempo> <key>
//
// The WAV is written to $SYNTHWORKER_OUT. Exactly one JSON result document
// is emitted on stdout; diagnostics go to stderr. A non-zero exit means the
// render failed.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/lyricforge/lyricforge-api/internal/synth"
)

const (
	// OutputPathEnv names the environment variable carrying the scratch
	// WAV path the parent process expects the worker to write.
	OutputPathEnv = "SYNTHWORKER_OUT"

	defaultOutputPath = "/tmp/lyricforge-song.wav"

	// previewSamples bounds the inline sample preview in the result
	// document; the full audio travels via the WAV file.
	previewSamples = 1000
)

// workerResult is the single document printed on stdout.
type workerResult struct {
	Success    bool           `json:"success"`
	SampleRate int            `json:"sample_rate"`
	Duration   float64        `json:"duration"`
	AudioPath  string         `json:"audio_path"`
	Preview    []float64      `json:"preview"`
	Metadata   workerMetadata `json:"metadata"`
}

type workerMetadata struct {
	Lyrics      string   `json:"lyrics"`
	Genre       string   `json:"genre"`
	Tempo       int      `json:"tempo"`
	Key         string   `json:"key"`
	MelodyNotes []string `json:"melody_notes"`
	Structure   []string `json:"structure"`
}

func main() {
	if len(os.Args) < 6 || os.Args[1] != "generate" {
		fail("usage: synthworker generate <lyrics> <genre> <tempo> <key>")
	}

	lyrics := os.Args[2]
	genre := os.Args[3]
	tempoArg := os.Args[4]
	key := os.Args[5]

	tempo, err := strconv.Atoi(tempoArg)
	if err != nil {
		fail(fmt.Sprintf("invalid tempo %q: %v", tempoArg, err))
	}

	result, err := synth.Compose(synth.Request{
		Lyrics: lyrics,
		Genre:  genre,
		Tempo:  tempo,
		Key:    key,
	})
	if err != nil {
		fail(fmt.Sprintf("composition failed: %v", err))
	}

	outputPath := os.Getenv(OutputPathEnv)
	if outputPath == "" {
		outputPath = defaultOutputPath
	}
	wav := synth.EncodeWAV(result.Samples, result.SampleRate)
	if err := os.WriteFile(outputPath, wav, 0o600); err != nil {
		fail(fmt.Sprintf("writing %s: %v", outputPath, err))
	}

	preview := result.Samples
	if len(preview) > previewSamples {
		preview = preview[:previewSamples]
	}

	doc := workerResult{
		Success:    true,
		SampleRate: result.SampleRate,
		Duration:   result.Duration,
		AudioPath:  outputPath,
		Preview:    preview,
		Metadata: workerMetadata{
			Lyrics:      lyrics,
			Genre:       result.Genre,
			Tempo:       result.Tempo,
			Key:         result.Key,
			MelodyNotes: synth.MelodyNotes(result.Melody),
			Structure:   result.Structure,
		},
	}
	if err := json.NewEncoder(os.Stdout).Encode(doc); err != nil {
		fail(fmt.Sprintf("encoding result: %v", err))
	}
}

// fail writes a diagnostic to stderr and exits non-zero. Nothing is written
// to stdout on failure: stdout carries result documents only.
func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
