package audio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var ErrNotWAV = errors.New("audio: not a RIFF/WAVE stream")

// EncodeWAVPCM16LE wraps raw PCM16LE mono audio bytes in a WAV container.
func EncodeWAVPCM16LE(pcm []byte, sampleRate int) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWAVPCM16LETo(&buf, pcm, sampleRate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWAVPCM16LETo writes raw PCM16LE mono audio bytes to out as a WAV stream.
func WriteWAVPCM16LETo(out io.Writer, pcm []byte, sampleRate int) error {
	const (
		numChannels   = 1
		bitsPerSample = 16
		audioFormat   = 1 // PCM
	)
	if sampleRate <= 0 {
		sampleRate = 16000
	}

	dataSize := uint32(len(pcm))
	byteRate := uint32(sampleRate * numChannels * bitsPerSample / 8)
	blockAlign := uint16(numChannels * bitsPerSample / 8)

	w := bufio.NewWriter(out)

	// RIFF header.
	if _, err := w.WriteString("RIFF"); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(36)+dataSize); err != nil {
		return err
	}
	if _, err := w.WriteString("WAVE"); err != nil {
		return err
	}

	// fmt chunk.
	if _, err := w.WriteString("fmt "); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(16)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(audioFormat)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(numChannels)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(sampleRate)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, byteRate); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, blockAlign); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(bitsPerSample)); err != nil {
		return err
	}

	// data chunk.
	if _, err := w.WriteString("data"); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, dataSize); err != nil {
		return err
	}
	if _, err := w.Write(pcm); err != nil {
		return err
	}
	return w.Flush()
}

// DecodeWAVPCM16LE extracts raw PCM16LE samples and the sample rate from a
// WAV container. Only uncompressed 16-bit mono PCM is accepted.
func DecodeWAVPCM16LE(wav []byte) ([]byte, int, error) {
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, 0, ErrNotWAV
	}

	var (
		sampleRate int
		sawFmt     bool
	)

	off := 12
	for off+8 <= len(wav) {
		chunkID := string(wav[off : off+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[off+4 : off+8]))
		body := off + 8
		if chunkSize < 0 || body+chunkSize > len(wav) {
			return nil, 0, fmt.Errorf("audio: truncated %q chunk", chunkID)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, 0, fmt.Errorf("audio: short fmt chunk (%d bytes)", chunkSize)
			}
			audioFormat := binary.LittleEndian.Uint16(wav[body : body+2])
			numChannels := binary.LittleEndian.Uint16(wav[body+2 : body+4])
			sampleRate = int(binary.LittleEndian.Uint32(wav[body+4 : body+8]))
			bitsPerSample := binary.LittleEndian.Uint16(wav[body+14 : body+16])
			if audioFormat != 1 {
				return nil, 0, fmt.Errorf("audio: unsupported format %d, want PCM", audioFormat)
			}
			if numChannels != 1 {
				return nil, 0, fmt.Errorf("audio: unsupported channel count %d, want mono", numChannels)
			}
			if bitsPerSample != 16 {
				return nil, 0, fmt.Errorf("audio: unsupported bit depth %d, want 16", bitsPerSample)
			}
			sawFmt = true
		case "data":
			if !sawFmt {
				return nil, 0, errors.New("audio: data chunk before fmt chunk")
			}
			pcm := make([]byte, chunkSize)
			copy(pcm, wav[body:body+chunkSize])
			return pcm, sampleRate, nil
		}

		// Chunks are word-aligned.
		off = body + chunkSize
		if chunkSize%2 == 1 {
			off++
		}
	}

	return nil, 0, errors.New("audio: missing data chunk")
}
