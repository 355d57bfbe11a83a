package handlers

import (
	"net/http"

	"github.com/lyricforge/lyricforge-api/internal/logger"
	"github.com/lyricforge/lyricforge-api/internal/middleware"
	"github.com/lyricforge/lyricforge-api/internal/models"
	"github.com/lyricforge/lyricforge-api/internal/services"
	"github.com/gin-gonic/gin"
)

const lyricCreditCost = 1

type LyricsHandler struct {
	lyricsService  *services.LyricsService
	creditsService *services.CreditsService
}

func NewLyricsHandler(lyricsService *services.LyricsService, creditsService *services.CreditsService) *LyricsHandler {
	return &LyricsHandler{
		lyricsService:  lyricsService,
		creditsService: creditsService,
	}
}

// Generate produces song lyrics from a theme. The debit follows the same
// contract as composition: debit before the call, refund on failure.
func (h *LyricsHandler) Generate(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req services.LyricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok, err := h.creditsService.TryDebit(userID, lyricCreditCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check credits"})
		return
	}
	if !ok {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient credits"})
		return
	}

	result, err := h.lyricsService.GenerateLyrics(c.Request.Context(), userID, req)
	if err != nil {
		if refundErr := h.creditsService.Refund(userID, lyricCreditCost); refundErr != nil {
			logger.Error("lyric credit refund failed", refundErr, logger.WithContext(c))
		}
		logger.Error("lyric generation failed", err, logger.WithContext(c))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Lyric generation failed"})
		return
	}

	usageLog := &models.UsageLog{
		UserID:         userID,
		Operation:      models.OperationLyrics,
		Model:          result.Model,
		TotalTokens:    int(result.Usage.TotalTokens),
		InputTokens:    int(result.Usage.InputTokens),
		OutputTokens:   int(result.Usage.OutputTokens),
		CreditsCharged: lyricCreditCost,
		DurationMS:     int(result.DurationMS),
		RequestID:      c.GetString("request_id"),
	}
	if err := h.creditsService.LogUsage(usageLog); err != nil {
		logger.Error("failed to log usage", err, logger.WithContext(c))
	}

	c.JSON(http.StatusOK, gin.H{
		"lyrics":   result.Lyrics,
		"model":    result.Model,
		"provider": result.Provider,
		"usage":    result.Usage,
	})
}
