package synth

import (
	"math"
	"testing"
)

func TestMixPeakNeverExceedsCeiling(t *testing.T) {
	key := ResolveKey("C major")
	pattern := ResolveGenre("edm")
	events := MapLyrics("bang bang bang bang bang bang bang bang", key, 200)
	duration := 20.0

	out := Mix(
		GenerateMelodyTrack(events, duration),
		GenerateDrumTrack(pattern, 200, duration),
		GenerateBassTrack(events, pattern, duration),
		GeneratePadTrack(key, pattern, duration),
	)

	if peak := peakOf(out); peak > PeakCeiling+1e-9 {
		t.Errorf("mixed peak %v exceeds ceiling %v", peak, PeakCeiling)
	}
}

func TestMixNormalizesToCeiling(t *testing.T) {
	loud := make([]float64, 1000)
	for i := range loud {
		loud[i] = math.Sin(float64(i) * 0.1)
	}
	out := Mix(loud, nil, nil, nil)
	peak := peakOf(out)
	if math.Abs(peak-PeakCeiling) > 1e-6 {
		t.Errorf("normalized peak = %v, want %v", peak, PeakCeiling)
	}
}

func TestMixSilenceStaysSilent(t *testing.T) {
	silent := make([]float64, 1000)
	out := Mix(silent, silent, silent, silent)
	if len(out) != 1000 {
		t.Fatalf("output length = %d, want 1000", len(out))
	}
	for i, s := range out {
		if s != 0 {
			t.Fatalf("sample %d = %v, want 0 (epsilon guard must skip normalization)", i, s)
		}
	}
}

func TestMixEmptyInputs(t *testing.T) {
	out := Mix(nil, nil, nil, nil)
	if len(out) != 0 {
		t.Errorf("all-nil mix should be empty, got %d samples", len(out))
	}
}

func TestMixUnequalLengths(t *testing.T) {
	short := make([]float64, 10)
	long := make([]float64, 100)
	for i := range long {
		long[i] = 0.5
	}
	out := Mix(short, long, nil, nil)
	if len(out) != 100 {
		t.Errorf("output length = %d, want longest input 100", len(out))
	}
}

func TestCompressReducesOvershoot(t *testing.T) {
	samples := make([]float64, 2000)
	for i := range samples {
		samples[i] = 0.9 // sustained level well above the threshold
	}
	compress(samples)
	// After the smoothed gain settles, level must sit near the knee output:
	// 0.5 + (0.9-0.5)/4 = 0.6.
	settled := samples[len(samples)-1]
	if settled > 0.65 {
		t.Errorf("compressed level = %v, want near 0.6", settled)
	}
	if settled < 0.5 {
		t.Errorf("compressed level = %v fell below threshold", settled)
	}
}

func TestCompressLeavesQuietSignalAlone(t *testing.T) {
	samples := []float64{0.1, -0.2, 0.3, -0.1}
	original := append([]float64(nil), samples...)
	compress(samples)
	for i := range samples {
		if math.Abs(samples[i]-original[i]) > 1e-9 {
			t.Errorf("sample %d changed from %v to %v below threshold", i, original[i], samples[i])
		}
	}
}
