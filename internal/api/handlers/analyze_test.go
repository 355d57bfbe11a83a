package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lyricforge/lyricforge-api/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalyzeTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewAnalyzeHandler(nil)

	router := gin.New()
	router.POST("/api/v1/analyze", asTestUser(1), handler.Analyze)
	return router
}

func postFile(t *testing.T, router *gin.Engine, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest("POST", "/api/v1/analyze", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyzeMissingFile(t *testing.T) {
	router := newAnalyzeTestRouter()

	req, err := http.NewRequest("POST", "/api/v1/analyze", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeRejectsNonWAV(t *testing.T) {
	router := newAnalyzeTestRouter()

	w := postFile(t, router, "file", "song.mp3", []byte("definitely not audio"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeWAVStatistics(t *testing.T) {
	// Half-scale constant signal: peak and RMS land at the same level,
	// which should trip the low-crest-factor suggestion.
	samples := make([]float64, synth.SampleRate)
	for i := range samples {
		samples[i] = 0.5
	}
	data := synth.EncodeWAV(samples, synth.SampleRate)

	result, err := analyzeWAV(data)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, result.Duration, 0.01)
	assert.Equal(t, synth.SampleRate, result.SampleRate)
	assert.InDelta(t, -6.02, result.PeakDBFS, 0.1)
	assert.False(t, result.Clipping)
	assert.Contains(t, result.Suggestions, "Low crest factor; the track may be over-compressed")
}

func TestBuildSuggestions(t *testing.T) {
	tests := []struct {
		name   string
		result AnalysisResult
		want   string
	}{
		{
			name:   "clipping",
			result: AnalysisResult{PeakDBFS: 0, RMSDBFS: -12, Clipping: true},
			want:   "Track is clipping; reduce gain before mastering",
		},
		{
			name:   "near silent",
			result: AnalysisResult{PeakDBFS: -80, RMSDBFS: -100},
			want:   "Track is nearly silent; check the source recording",
		},
		{
			name:   "low peak",
			result: AnalysisResult{PeakDBFS: -14, RMSDBFS: -30},
			want:   "Peak level is low; consider normalizing toward -0.5 dBFS",
		},
		{
			name:   "healthy",
			result: AnalysisResult{PeakDBFS: -0.5, RMSDBFS: -14},
			want:   "Levels look healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSuggestions(&tt.result)
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestToDBFS(t *testing.T) {
	assert.InDelta(t, 0.0, toDBFS(1.0), 0.001)
	assert.InDelta(t, -6.02, toDBFS(0.5), 0.01)
	assert.Equal(t, -120.0, toDBFS(0))
	assert.Equal(t, -120.0, toDBFS(1e-10))
}
