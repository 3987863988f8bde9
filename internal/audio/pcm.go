package audio

import (
	"encoding/binary"
	"math"
)

// MeanAbsAmplitude returns the mean absolute sample amplitude of PCM16LE
// audio. A trailing odd byte is ignored.
func MeanAbsAmplitude(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[2*i : 2*i+2]))
		sum += math.Abs(float64(s))
	}
	return sum / float64(n)
}

// IsSilent classifies a PCM16LE frame as silence when its mean absolute
// amplitude falls below threshold. Frames too short to hold a full sample
// are silent.
func IsSilent(pcm []byte, threshold int) bool {
	if len(pcm) < 2 {
		return true
	}
	return MeanAbsAmplitude(pcm) < float64(threshold)
}

// RMS returns the root-mean-square energy of PCM16LE audio.
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[2*i : 2*i+2])))
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}

// ApplyGain scales PCM16LE samples by gain, clipping to the int16 range.
// gain 1.0 returns the input unchanged.
func ApplyGain(pcm []byte, gain float64) []byte {
	if gain == 1.0 {
		return pcm
	}
	out := make([]byte, len(pcm))
	copy(out, pcm)
	n := len(out) / 2
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(out[2*i:2*i+2]))) * gain
		if s > math.MaxInt16 {
			s = math.MaxInt16
		} else if s < math.MinInt16 {
			s = math.MinInt16
		}
		binary.LittleEndian.PutUint16(out[2*i:2*i+2], uint16(int16(s)))
	}
	return out
}
