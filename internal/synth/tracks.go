package synth

import "math"

// SampleRate is the fixed engine sample rate in Hz.
const SampleRate = 22050

const (
	attackTime  = 0.01 // 10ms attack
	releaseTime = 0.1  // 100ms release

	beatsPerBar = 4

	bassNoteDuration = 0.5
	bassAmplitude    = 0.2

	padAmplitude = 0.1
	padFadeIn    = 0.5
	padOctave    = 2

	drumBusPeak = 0.5

	snareToneMix    = 0.5
	snareNoiseMix   = 0.5
	snareNoiseDecay = 30.0
	snareNoiseSeed  = 0x5eed
)

// sineNote renders one enveloped sine tone. The linear attack/release ramps
// keep note boundaries click-free.
func sineNote(frequency, duration, amplitude float64) []float64 {
	n := int(duration * SampleRate)
	if n <= 0 {
		return nil
	}
	samples := make([]float64, n)
	step := 2 * math.Pi * frequency / SampleRate
	for i := range samples {
		samples[i] = amplitude * math.Sin(step*float64(i))
	}

	applyEnvelope(samples)
	return samples
}

// applyEnvelope shapes a rendered voice with the shared linear attack and
// release ramps so note boundaries stay click-free.
func applyEnvelope(samples []float64) {
	n := len(samples)
	if n == 0 {
		return
	}
	attack := int(math.Round(attackTime * float64(SampleRate)))
	if attack > n {
		attack = n
	}
	for i := 0; i < attack; i++ {
		samples[i] *= float64(i) / float64(attack)
	}
	release := int(math.Round(releaseTime * float64(SampleRate)))
	if release > n {
		release = n
	}
	for i := 0; i < release; i++ {
		samples[n-release+i] *= float64(release-i-1) / float64(release)
	}
}

// snareNote layers a filtered noise burst over the tonal body at the
// genre's snare frequency. The noise is a fixed-seed LCG stream through a
// one-pole highpass with an exponential decay, so identical inputs still
// render identical audio.
func snareNote(frequency, duration, amplitude float64) []float64 {
	n := int(duration * SampleRate)
	if n <= 0 {
		return nil
	}
	samples := make([]float64, n)
	step := 2 * math.Pi * frequency / SampleRate
	seed := uint64(snareNoiseSeed)
	prev := 0.0
	for i := range samples {
		tone := snareToneMix * math.Sin(step*float64(i))
		white := lcg(&seed)
		burst := white - prev // one-pole highpass
		prev = white
		decay := math.Exp(-snareNoiseDecay * float64(i) / float64(SampleRate))
		samples[i] = amplitude * (tone + snareNoiseMix*burst*decay)
	}
	applyEnvelope(samples)
	return samples
}

// lcg yields the next deterministic noise sample in [-1, 1).
func lcg(seed *uint64) float64 {
	*seed = *seed*6364136223846793005 + 1442695040888963407
	return float64(*seed>>11)/float64(1<<52) - 1
}

// addAt sums src into dst starting at offset, truncating at the end of dst.
func addAt(dst, src []float64, offset int) {
	if offset < 0 || offset >= len(dst) {
		return
	}
	end := offset + len(src)
	if end > len(dst) {
		end = len(dst)
	}
	for i := offset; i < end; i++ {
		dst[i] += src[i-offset]
	}
}

// GenerateMelodyTrack renders the melody events into a buffer spanning the
// song duration. Overlapping events sum. A degenerate duration or an empty
// melody yields silence.
func GenerateMelodyTrack(events []NoteEvent, duration float64) []float64 {
	track := make([]float64, trackLength(duration))
	for _, ev := range events {
		addAt(track, sineNote(ev.Frequency, ev.Duration, ev.Amplitude), int(ev.Start*SampleRate))
	}
	return track
}

// GenerateDrumTrack replicates the genre's beat grid across the song at the
// given tempo, then normalizes the drum bus to a fixed peak so genre choice
// does not change drum loudness.
func GenerateDrumTrack(pattern GenrePattern, tempo int, duration float64) []float64 {
	track := make([]float64, trackLength(duration))
	if len(track) == 0 || tempo <= 0 {
		return track
	}

	samplesPerBeat := int(60.0 / float64(tempo) * SampleRate)
	totalBeats := int(duration * float64(tempo) / 60.0)
	kick := sineNote(pattern.Kick.Frequency, pattern.Kick.Duration, pattern.Kick.Amplitude)
	var snare []float64
	if pattern.Snare != nil {
		snare = snareNote(pattern.Snare.Frequency, pattern.Snare.Duration, pattern.Snare.Amplitude)
	}

	for beat := 0; beat < totalBeats; beat++ {
		pos := beat % beatsPerBar
		if containsBeat(pattern.Kick.Beats, pos) {
			addAt(track, kick, beat*samplesPerBeat)
		}
		if snare != nil && containsBeat(pattern.Snare.Beats, pos) {
			addAt(track, snare, beat*samplesPerBeat)
		}
	}

	normalizeTo(track, drumBusPeak)
	return track
}

// GenerateBassTrack re-derives a simplified line from the melody events,
// transposed down to the genre's bass register. One short note per melody
// event, at the event's timeline position.
func GenerateBassTrack(events []NoteEvent, pattern GenrePattern, duration float64) []float64 {
	track := make([]float64, trackLength(duration))
	for _, ev := range events {
		freq := NoteFrequency(ev.Note, pattern.BassOctave)
		addAt(track, sineNote(freq, bassNoteDuration, bassAmplitude), int(ev.Start*SampleRate))
	}
	return track
}

// GeneratePadTrack produces a sustained root + fifth + octave blend of the
// key, with a slow fade-in, covering the whole song. PadDensity scales the
// pad level per genre.
func GeneratePadTrack(key Key, pattern GenrePattern, duration float64) []float64 {
	n := trackLength(duration)
	track := make([]float64, n)
	if n == 0 {
		return track
	}

	root := NoteFrequency(key.Notes[0], padOctave)
	freqs := []float64{root, root * 1.5, root * 2}
	for _, freq := range freqs {
		step := 2 * math.Pi * freq / SampleRate
		for i := range track {
			track[i] += math.Sin(step * float64(i))
		}
	}

	fade := int(padFadeIn * SampleRate)
	if fade > n {
		fade = n
	}
	level := padAmplitude * pattern.PadDensity / float64(len(freqs))
	for i := range track {
		env := 1.0
		if i < fade {
			env = float64(i) / float64(fade)
		}
		track[i] *= level * env
	}
	return track
}

func trackLength(duration float64) int {
	if duration <= 0 {
		return 0
	}
	return int(duration * SampleRate)
}

func containsBeat(beats []int, pos int) bool {
	for _, b := range beats {
		if b == pos {
			return true
		}
	}
	return false
}

// normalizeTo scales samples so their peak equals target. Near-silent
// buffers are left untouched to avoid amplifying numeric noise.
func normalizeTo(samples []float64, target float64) {
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak < peakEpsilon {
		return
	}
	scale := target / peak
	for i := range samples {
		samples[i] *= scale
	}
}
