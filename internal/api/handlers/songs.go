package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lyricforge/lyricforge-api/internal/jobs"
	"github.com/lyricforge/lyricforge-api/internal/logger"
	"github.com/lyricforge/lyricforge-api/internal/metrics"
	"github.com/lyricforge/lyricforge-api/internal/middleware"
	"github.com/lyricforge/lyricforge-api/internal/models"
	"github.com/lyricforge/lyricforge-api/internal/services"
	"github.com/lyricforge/lyricforge-api/internal/synth"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SongsHandler struct {
	db             *gorm.DB
	runner         *jobs.Runner
	creditsService *services.CreditsService
	sentryMetrics  *metrics.SentryMetrics
	cwMetrics      *metrics.Client
	creditCost     int
}

func NewSongsHandler(
	db *gorm.DB,
	runner *jobs.Runner,
	creditsService *services.CreditsService,
	sentryMetrics *metrics.SentryMetrics,
	cwMetrics *metrics.Client,
) *SongsHandler {
	return &SongsHandler{
		db:             db,
		runner:         runner,
		creditsService: creditsService,
		sentryMetrics:  sentryMetrics,
		cwMetrics:      cwMetrics,
		creditCost:     jobs.DefaultCreditCost,
	}
}

type ComposeRequest struct {
	Lyrics string `json:"lyrics" binding:"required"`
	Genre  string `json:"genre"`
	Tempo  int    `json:"tempo"`
	Key    string `json:"key"`
}

// Compose runs one synthesis job for the current user and returns the song
// inline as base64 WAV. Failed jobs are recorded and the debit refunded by
// the runner; the response maps each outcome to a distinct status code.
func (h *SongsHandler) Compose(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   composeErrInvalidInput,
			"detail":  err.Error(),
		})
		return
	}

	synthReq := synth.Request{
		Lyrics: req.Lyrics,
		Genre:  req.Genre,
		Tempo:  req.Tempo,
		Key:    req.Key,
	}

	startTime := time.Now()
	outcome, err := h.runner.Compose(c.Request.Context(), userID, synthReq)
	jobDuration := time.Since(startTime)

	if err != nil {
		switch {
		case errors.Is(err, synth.ErrEmptyLyrics):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   composeErrInvalidInput,
				"detail":  "lyrics must not be empty",
			})
		case errors.Is(err, jobs.ErrInsufficientCredits):
			c.JSON(http.StatusPaymentRequired, gin.H{
				"success": false,
				"error":   composeErrInsufficientCredits,
				"detail":  "credit balance does not cover this composition",
			})
		default:
			logger.Error("compose request failed before worker spawn", err, logger.WithContext(c))
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   composeErrInternal,
				"detail":  "failed to start composition",
			})
		}
		return
	}

	h.recordOutcome(c, userID, synthReq, outcome, jobDuration)

	if outcome.Kind == jobs.OutcomeCompleted {
		h.respondCompleted(c, outcome)
		return
	}
	status, body := failureResponse(outcome)
	c.JSON(status, body)
}

// Failure tags exposed to API clients. Each failed composition response
// carries {success:false, error:<tag>, detail}.
const (
	composeErrInvalidInput        = "invalid_input"
	composeErrInsufficientCredits = "insufficient_credits"
	composeErrTimeout             = "timeout"
	composeErrWorkerCrashed       = "worker_crashed"
	composeErrMalformedOutput     = "malformed_output"
	composeErrInternal            = "internal_error"
)

// failureResponse maps a non-completed job outcome to its HTTP status and
// tagged response body.
func failureResponse(outcome *jobs.Outcome) (int, gin.H) {
	switch outcome.Kind {
	case jobs.OutcomeTimedOut:
		return http.StatusGatewayTimeout, gin.H{
			"success":  false,
			"error":    composeErrTimeout,
			"detail":   "composition exceeded the time ceiling",
			"refunded": outcome.Refunded,
		}
	case jobs.OutcomeCrashed:
		return http.StatusBadGateway, gin.H{
			"success":   false,
			"error":     composeErrWorkerCrashed,
			"detail":    strings.TrimSpace(outcome.Diagnostic),
			"exit_code": outcome.ExitCode,
			"refunded":  outcome.Refunded,
		}
	default: // jobs.OutcomeMalformed
		return http.StatusBadGateway, gin.H{
			"success":  false,
			"error":    composeErrMalformedOutput,
			"detail":   "worker did not produce a valid result document",
			"refunded": outcome.Refunded,
		}
	}
}

func (h *SongsHandler) respondCompleted(c *gin.Context, outcome *jobs.Outcome) {
	result := outcome.Result
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"audio_base64": base64.StdEncoding.EncodeToString(outcome.Audio),
		"sample_rate":  result.SampleRate,
		"duration":     result.Duration,
		"metadata": gin.H{
			"genre":        result.Metadata.Genre,
			"tempo":        result.Metadata.Tempo,
			"key":          result.Metadata.Key,
			"structure":    result.Metadata.Structure,
			"melody_notes": result.Metadata.MelodyNotes,
		},
	})
}

// recordOutcome persists the Song row, the usage log, and the job metrics.
// Failures here are logged but never fail the request.
func (h *SongsHandler) recordOutcome(
	c *gin.Context, userID uint, req synth.Request, outcome *jobs.Outcome, jobDuration time.Duration,
) {
	song := models.Song{
		UserID:     userID,
		Lyrics:     req.Lyrics,
		Genre:      req.Genre,
		Tempo:      req.Tempo,
		Key:        req.Key,
		Status:     string(outcome.Kind),
		DurationMS: int(jobDuration.Milliseconds()),
		RequestID:  c.GetString("request_id"),
	}

	if outcome.Kind == jobs.OutcomeCompleted {
		song.Duration = outcome.Result.Duration
		song.SampleRate = outcome.Result.SampleRate
		song.Structure = strings.Join(outcome.Result.Metadata.Structure, ",")
		song.MelodyNotes = strings.Join(outcome.Result.Metadata.MelodyNotes, ",")
		song.CreditsCharged = h.creditCost
		// Completed jobs use the worker's resolved parameters, which may
		// differ from the request (genre/key fallbacks, tempo clamping).
		song.Genre = outcome.Result.Metadata.Genre
		song.Tempo = outcome.Result.Metadata.Tempo
		song.Key = outcome.Result.Metadata.Key
	} else {
		song.Detail = outcome.Diagnostic
		if outcome.Refunded {
			song.CreditsCharged = 0
		} else {
			song.CreditsCharged = h.creditCost
		}
	}

	if err := h.db.Create(&song).Error; err != nil {
		logger.Error("failed to persist song record", err, logger.WithContext(c))
	}

	usageLog := &models.UsageLog{
		UserID:         userID,
		Operation:      models.OperationCompose,
		CreditsCharged: song.CreditsCharged,
		DurationMS:     song.DurationMS,
		RequestID:      song.RequestID,
	}
	if err := h.creditsService.LogUsage(usageLog); err != nil {
		logger.Error("failed to log usage", err, logger.WithContext(c))
	}

	logger.LogCompositionJob(string(outcome.Kind), song.Genre, jobDuration, logger.WithContext(c))
	if h.sentryMetrics != nil {
		h.sentryMetrics.RecordCompositionJob(c.Request.Context(), string(outcome.Kind), song.Genre, jobDuration)
	}
	if h.cwMetrics != nil {
		h.cwMetrics.RecordCompositionJob(string(outcome.Kind), song.Genre, jobDuration)
	}
}

// ListSongs returns the current user's composition history, newest first.
func (h *SongsHandler) ListSongs(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page := parsePositiveInt(c.Query("page"), 1)
	pageSize := parsePositiveInt(c.Query("page_size"), 20)
	if pageSize > maxHistoryPageSize {
		pageSize = maxHistoryPageSize
	}

	var songs []models.Song
	if err := h.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&songs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list songs"})
		return
	}

	var totalCount int64
	if err := h.db.Model(&models.Song{}).Where("user_id = ?", userID).Count(&totalCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count songs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"songs": songs,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total_count": totalCount,
			"total_pages": (totalCount + int64(pageSize) - 1) / int64(pageSize),
		},
	})
}

// GetSong returns one of the current user's songs by ID.
func (h *SongsHandler) GetSong(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	songID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid song ID"})
		return
	}

	var song models.Song
	if err := h.db.Where("id = ? AND user_id = ?", songID, userID).First(&song).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Song not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load song"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"song": song})
}

// GenresHandler lists the supported genres and their presets.
func GenresHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"genres": synth.Genres()})
}

func parsePositiveInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
