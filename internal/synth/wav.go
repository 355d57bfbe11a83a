package synth

import (
	"encoding/binary"
	"errors"
	"math"
)

const (
	wavHeaderSize = 44
	pcmFormat     = 1
	bitsPerSample = 16
)

var (
	ErrNotWAV         = errors.New("not a RIFF/WAVE file")
	ErrUnsupportedWAV = errors.New("unsupported WAV encoding (want 16-bit PCM)")
)

// EncodeWAV packs float64 samples in [-1, 1] into a mono 16-bit PCM RIFF
// container. Samples outside the range are hard-clipped; the mastering
// stage keeps real output below the ceiling so clipping only guards
// against pathological inputs.
func EncodeWAV(samples []float64, sampleRate int) []byte {
	dataSize := len(samples) * 2
	buf := make([]byte, wavHeaderSize+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], pcmFormat)
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], 2)                    // block align
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(s * math.MaxInt16))
		binary.LittleEndian.PutUint16(buf[wavHeaderSize+i*2:], uint16(v))
	}
	return buf
}

// DecodeWAV reads a 16-bit PCM RIFF file back into float64 samples and the
// sample rate. Multi-channel files are downmixed to mono by averaging.
func DecodeWAV(data []byte) ([]float64, int, error) {
	if len(data) < wavHeaderSize || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, ErrNotWAV
	}

	var (
		sampleRate int
		channels   int
		pcm        []byte
	)

	// Walk the chunk list; files in the wild carry LIST/fact chunks
	// between fmt and data.
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+size > len(data) {
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, ErrUnsupportedWAV
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if format != pcmFormat || bits != bitsPerSample {
				return nil, 0, ErrUnsupportedWAV
			}
		case "data":
			pcm = data[body : body+size]
		}
		offset = body + size
		if size%2 == 1 {
			offset++ // chunks are word-aligned
		}
	}

	if sampleRate == 0 || channels == 0 || pcm == nil {
		return nil, 0, ErrNotWAV
	}

	frames := len(pcm) / (2 * channels)
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			v := int16(binary.LittleEndian.Uint16(pcm[(i*channels+ch)*2:]))
			sum += float64(v) / math.MaxInt16
		}
		samples[i] = sum / float64(channels)
	}
	return samples, sampleRate, nil
}
