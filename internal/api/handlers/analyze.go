package handlers

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/lyricforge/lyricforge-api/internal/jobs"
	"github.com/lyricforge/lyricforge-api/internal/logger"
	"github.com/lyricforge/lyricforge-api/internal/middleware"
	"github.com/lyricforge/lyricforge-api/internal/models"
	"github.com/lyricforge/lyricforge-api/internal/services"
	"github.com/lyricforge/lyricforge-api/internal/synth"
	"github.com/gin-gonic/gin"
)

const (
	maxUploadBytes = 50 << 20 // 50 MB

	clippingThreshold = 0.999
	silenceFloorDBFS  = -60.0
)

type AnalyzeHandler struct {
	creditsService *services.CreditsService
	timeout        time.Duration
}

func NewAnalyzeHandler(creditsService *services.CreditsService) *AnalyzeHandler {
	return &AnalyzeHandler{
		creditsService: creditsService,
		timeout:        jobs.DefaultSingleFileTimeout,
	}
}

// AnalysisResult summarizes one uploaded track.
type AnalysisResult struct {
	Duration    float64  `json:"duration"`
	SampleRate  int      `json:"sample_rate"`
	PeakDBFS    float64  `json:"peak_dbfs"`
	RMSDBFS     float64  `json:"rms_dbfs"`
	Clipping    bool     `json:"clipping"`
	Suggestions []string `json:"suggestions"`
}

// Analyze accepts a WAV upload and returns level statistics plus mastering
// suggestions. Analysis runs under the single-file ceiling.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}

	startTime := time.Now()
	result, err := h.analyzeWithTimeout(c.Request.Context(), data)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Analysis timed out"})
		case errors.Is(err, synth.ErrNotWAV), errors.Is(err, synth.ErrUnsupportedWAV):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported audio format, expected PCM WAV"})
		default:
			logger.Error("audio analysis failed", err, logger.WithContext(c))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed"})
		}
		return
	}

	usageLog := &models.UsageLog{
		UserID:     userID,
		Operation:  models.OperationAnalyze,
		DurationMS: int(time.Since(startTime).Milliseconds()),
		RequestID:  c.GetString("request_id"),
	}
	if err := h.creditsService.LogUsage(usageLog); err != nil {
		logger.Error("failed to log usage", err, logger.WithContext(c))
	}

	c.JSON(http.StatusOK, gin.H{"analysis": result})
}

// analyzeWithTimeout bounds the decode-and-measure work the same way worker
// jobs are bounded.
func (h *AnalyzeHandler) analyzeWithTimeout(ctx context.Context, data []byte) (*AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	type analysisOutcome struct {
		result *AnalysisResult
		err    error
	}
	done := make(chan analysisOutcome, 1)

	go func() {
		result, err := analyzeWAV(data)
		done <- analysisOutcome{result, err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func analyzeWAV(data []byte) (*AnalysisResult, error) {
	samples, sampleRate, err := synth.DecodeWAV(data)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, synth.ErrUnsupportedWAV
	}

	peak := 0.0
	sumSquares := 0.0
	clipped := 0
	for _, s := range samples {
		abs := math.Abs(s)
		if abs > peak {
			peak = abs
		}
		if abs >= clippingThreshold {
			clipped++
		}
		sumSquares += s * s
	}
	rms := math.Sqrt(sumSquares / float64(len(samples)))

	result := &AnalysisResult{
		Duration:   float64(len(samples)) / float64(sampleRate),
		SampleRate: sampleRate,
		PeakDBFS:   toDBFS(peak),
		RMSDBFS:    toDBFS(rms),
		Clipping:   clipped > 0,
	}
	result.Suggestions = buildSuggestions(result)
	return result, nil
}

func buildSuggestions(r *AnalysisResult) []string {
	var suggestions []string
	if r.Clipping {
		suggestions = append(suggestions, "Track is clipping; reduce gain before mastering")
	}
	if r.PeakDBFS < silenceFloorDBFS {
		suggestions = append(suggestions, "Track is nearly silent; check the source recording")
	} else if r.PeakDBFS < -6.0 {
		suggestions = append(suggestions, "Peak level is low; consider normalizing toward -0.5 dBFS")
	}
	if r.PeakDBFS-r.RMSDBFS < 6.0 && !r.Clipping {
		suggestions = append(suggestions, "Low crest factor; the track may be over-compressed")
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, "Levels look healthy")
	}
	return suggestions
}

// toDBFS clamps to a -120 dB floor so silent tracks stay JSON-encodable.
func toDBFS(level float64) float64 {
	const floor = -120.0
	if level <= 0 {
		return floor
	}
	db := 20 * math.Log10(level)
	if db < floor {
		return floor
	}
	return db
}
