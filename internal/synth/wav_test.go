package synth

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestEncodeWAVHeader(t *testing.T) {
	samples := []float64{0, 0.5, -0.5, 1.0}
	data := EncodeWAV(samples, SampleRate)

	if len(data) != wavHeaderSize+len(samples)*2 {
		t.Fatalf("encoded size = %d, want %d", len(data), wavHeaderSize+len(samples)*2)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE magic")
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != SampleRate {
		t.Errorf("sample rate = %d, want %d", rate, SampleRate)
	}
	if ch := binary.LittleEndian.Uint16(data[22:24]); ch != 1 {
		t.Errorf("channels = %d, want 1 (mono)", ch)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
		t.Errorf("bit depth = %d, want 16", bits)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	samples := make([]float64, 2000)
	for i := range samples {
		samples[i] = 0.8 * math.Sin(float64(i)*0.05)
	}

	decoded, rate, err := DecodeWAV(EncodeWAV(samples, SampleRate))
	if err != nil {
		t.Fatalf("DecodeWAV() returned error: %v", err)
	}
	if rate != SampleRate {
		t.Errorf("decoded rate = %d, want %d", rate, SampleRate)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(decoded), len(samples))
	}
	for i := range samples {
		if math.Abs(decoded[i]-samples[i]) > 1.0/math.MaxInt16*2 {
			t.Fatalf("sample %d = %v, want %v within quantization error", i, decoded[i], samples[i])
		}
	}
}

func TestEncodeWAVClipsOutOfRange(t *testing.T) {
	data := EncodeWAV([]float64{2.0, -2.0}, SampleRate)
	hi := int16(binary.LittleEndian.Uint16(data[wavHeaderSize:]))
	lo := int16(binary.LittleEndian.Uint16(data[wavHeaderSize+2:]))
	if hi != math.MaxInt16 {
		t.Errorf("over-range sample = %d, want %d", hi, math.MaxInt16)
	}
	if lo != -math.MaxInt16 {
		t.Errorf("under-range sample = %d, want %d", lo, -math.MaxInt16)
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeWAV([]byte("definitely not audio")); err == nil {
		t.Error("DecodeWAV accepted garbage input")
	}
	if _, _, err := DecodeWAV(nil); err == nil {
		t.Error("DecodeWAV accepted nil input")
	}
}
