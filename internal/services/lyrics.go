package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lyricforge/lyricforge-api/internal/llm"
	"github.com/lyricforge/lyricforge-api/internal/metrics"
	"github.com/lyricforge/lyricforge-api/internal/observability"
	"github.com/lyricforge/lyricforge-api/pkg/embedded"
)

const defaultLyricModel = "gpt-4o-mini"

// LyricRequest describes what kind of lyrics the user wants
type LyricRequest struct {
	Theme    string `json:"theme" binding:"required"`
	Genre    string `json:"genre"`
	Mood     string `json:"mood"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

// LyricResult is the generated lyric text plus accounting
type LyricResult struct {
	Lyrics     string         `json:"lyrics"`
	Model      string         `json:"model"`
	Provider   string         `json:"provider"`
	Usage      llm.TokenUsage `json:"usage"`
	DurationMS int64          `json:"duration_ms"`
}

// LyricsService generates song lyrics via an LLM provider. The output feeds
// straight into the synthesis engine, so the system prompt keeps the model
// on short, singable lines.
type LyricsService struct {
	factory       *llm.ProviderFactory
	sentryMetrics *metrics.SentryMetrics
	cwMetrics     *metrics.Client
}

func NewLyricsService(factory *llm.ProviderFactory, sentryMetrics *metrics.SentryMetrics, cwMetrics *metrics.Client) *LyricsService {
	return &LyricsService{
		factory:       factory,
		sentryMetrics: sentryMetrics,
		cwMetrics:     cwMetrics,
	}
}

// GenerateLyrics produces lyrics for the request and records the call in
// Langfuse plus token metrics.
func (s *LyricsService) GenerateLyrics(ctx context.Context, userID uint, req LyricRequest) (*LyricResult, error) {
	model := req.Model
	if model == "" {
		model = defaultLyricModel
	}

	provider, err := s.factory.GetProvider(ctx, model, req.Provider)
	if err != nil {
		return nil, err
	}

	userPrompt := buildLyricPrompt(req)

	trace := observability.GetClient().StartTrace(ctx, "lyric_generation", map[string]interface{}{
		"user_id": userID,
		"genre":   req.Genre,
	})
	defer trace.Finish()

	gen := trace.Generation("llm_call", map[string]interface{}{
		"provider": provider.Name(),
	})

	startTime := time.Now()
	resp, err := provider.Generate(ctx, &llm.GenerationRequest{
		Model:        model,
		SystemPrompt: string(embedded.LyricSystemPromptTxt),
		UserPrompt:   userPrompt,
	})
	duration := time.Since(startTime)

	if err != nil {
		gen.SetLevel("ERROR")
		gen.Finish()
		return nil, fmt.Errorf("lyric generation failed: %w", err)
	}

	gen.LogLyricGeneration(model, userPrompt, resp.Text,
		resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.TotalTokens,
		map[string]interface{}{"theme": req.Theme, "mood": req.Mood})
	gen.Finish()

	if s.sentryMetrics != nil {
		s.sentryMetrics.RecordTokenUsage(ctx, model,
			int(resp.Usage.TotalTokens), int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))
	}
	if s.cwMetrics != nil {
		s.cwMetrics.RecordTokenUsage(model,
			int(resp.Usage.TotalTokens), int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))
	}

	return &LyricResult{
		Lyrics:     strings.TrimSpace(resp.Text),
		Model:      model,
		Provider:   provider.Name(),
		Usage:      resp.Usage,
		DurationMS: duration.Milliseconds(),
	}, nil
}

func buildLyricPrompt(req LyricRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write song lyrics about: %s", req.Theme)
	if req.Genre != "" {
		fmt.Fprintf(&b, "\nGenre: %s", req.Genre)
	}
	if req.Mood != "" {
		fmt.Fprintf(&b, "\nMood: %s", req.Mood)
	}
	return b.String()
}
