package synth

import "math"

// Mix gains per track. They sum to 1.0 so a full-scale input cannot exceed
// headroom before mastering.
const (
	melodyGain = 0.4
	drumsGain  = 0.25
	bassGain   = 0.25
	padGain    = 0.1
)

const (
	compressorThreshold = 0.5
	compressorRatio     = 4.0
	// One-pole smoothing on the compressor gain, sized to roughly 10ms at
	// the engine rate. Keeps gain changes from pumping on drum hits.
	compressorSmoothing = 0.995

	// PeakCeiling is -0.5 dBFS: the mastered output never exceeds this.
	PeakCeiling = 0.94406

	peakEpsilon = 1e-9
)

// Mix sums the four tracks with fixed gains, applies soft compression, and
// peak-normalizes to the ceiling. Tracks may differ in length; the output
// spans the longest. Silent input produces silent output: normalization is
// skipped below an epsilon peak so it can never divide by a vanishing value.
func Mix(melody, drums, bass, pad []float64) []float64 {
	n := maxLen(melody, drums, bass, pad)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = melodyGain*at(melody, i) +
			drumsGain*at(drums, i) +
			bassGain*at(bass, i) +
			padGain*at(pad, i)
	}

	compress(out)
	normalizeTo(out, PeakCeiling)
	return out
}

// compress applies a soft-knee downward compressor: above the threshold the
// excess is reduced by the ratio. The applied gain is smoothed with a
// one-pole filter so adjacent samples do not get abruptly different gains.
func compress(samples []float64) {
	gain := 1.0
	for i, s := range samples {
		a := math.Abs(s)
		target := 1.0
		if a > compressorThreshold {
			compressed := compressorThreshold + (a-compressorThreshold)/compressorRatio
			target = compressed / a
		}
		gain = compressorSmoothing*gain + (1-compressorSmoothing)*target
		if target < gain {
			// Attack instantly on overshoot; only the release is smoothed.
			gain = target
		}
		samples[i] = s * gain
	}
}

func at(samples []float64, i int) float64 {
	if i < len(samples) {
		return samples[i]
	}
	return 0
}

func maxLen(tracks ...[]float64) int {
	n := 0
	for _, t := range tracks {
		if len(t) > n {
			n = len(t)
		}
	}
	return n
}
