package audio

import "math"

// Feedback tones played through the wearable speaker so the user hears state
// changes without looking at anything: an ascending chime when recording
// starts, a low pulse when the pipeline begins processing, a descending chime
// when the reply is complete. All tones are PCM16LE mono at 16kHz to match
// the voice stream.

const toneSampleRate = 16000

// ListeningChime returns a 150ms ascending two-note chime (C5 then E5).
func ListeningChime() []byte {
	const (
		samples = toneSampleRate * 150 / 1000
		amp     = 0.2
	)
	out := make([]float64, samples)
	half := samples / 2
	for i := range out {
		t := float64(i) / toneSampleRate
		freq := 523.0 // C5
		if i >= half {
			freq = 659.0 // E5
		}
		out[i] = math.Sin(2*math.Pi*freq*t) * amp
	}
	return toPCM16(out)
}

// ThinkingTone returns a 200ms low pulse: a 220Hz carrier with 4Hz amplitude
// modulation. Amplitude is kept low so small speakers do not distort.
func ThinkingTone() []byte {
	const (
		samples = toneSampleRate * 200 / 1000
		amp     = 0.15
	)
	out := make([]float64, samples)
	for i := range out {
		t := float64(i) / toneSampleRate
		carrier := math.Sin(2 * math.Pi * 220 * t)
		modulator := 0.5 + 0.5*math.Sin(2*math.Pi*4*t)
		out[i] = carrier * modulator * amp
	}
	return toPCM16(out)
}

// SuccessChime returns a 200ms descending two-note chime (G5 then C5) with a
// linear fade to 30% so it does not end on a click.
func SuccessChime() []byte {
	const (
		samples = toneSampleRate * 200 / 1000
		amp     = 0.18
	)
	out := make([]float64, samples)
	half := samples / 2
	for i := range out {
		t := float64(i) / toneSampleRate
		freq := 784.0 // G5
		if i >= half {
			freq = 523.0 // C5
		}
		fade := 1.0 - 0.7*float64(i)/float64(samples-1)
		out[i] = math.Sin(2*math.Pi*freq*t) * amp * fade
	}
	return toPCM16(out)
}

func toPCM16(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := s * 32767
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		n := int16(v)
		out[i*2] = byte(n)
		out[i*2+1] = byte(n >> 8)
	}
	return out
}
