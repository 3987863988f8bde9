package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseControlReset(t *testing.T) {
	msg, err := ParseControl([]byte(`{"type":"reset"}`))
	if err != nil {
		t.Fatalf("ParseControl() error = %v", err)
	}
	if msg.Type != TypeReset {
		t.Fatalf("Type = %q, want %q", msg.Type, TypeReset)
	}
}

func TestParseControlEndOfSpeech(t *testing.T) {
	msg, err := ParseControl([]byte(`{"type":"end_of_speech"}`))
	if err != nil {
		t.Fatalf("ParseControl() error = %v", err)
	}
	if msg.Type != TypeEndOfSpeech {
		t.Fatalf("Type = %q, want %q", msg.Type, TypeEndOfSpeech)
	}
}

func TestParseControlRejectsUnknownType(t *testing.T) {
	_, err := ParseControl([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseControlRejectsServerOnlyType(t *testing.T) {
	// Server message types must never be accepted from clients.
	_, err := ParseControl([]byte(`{"type":"done"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseControlRejectsMalformedJSON(t *testing.T) {
	if _, err := ParseControl([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDoneCarriesLatencyMap(t *testing.T) {
	done := NewDone(map[string]float64{"recognition": 120.5, "model": 800})
	raw, err := json.Marshal(done)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["type"] != "done" {
		t.Fatalf("type = %v, want done", decoded["type"])
	}
	latency, ok := decoded["latency"].(map[string]any)
	if !ok {
		t.Fatalf("latency field missing: %v", decoded)
	}
	if latency["recognition"] != 120.5 {
		t.Fatalf("recognition = %v, want 120.5", latency["recognition"])
	}
}

func TestConnectedIncludesAudioConfig(t *testing.T) {
	msg := NewConnected("ready", ClientConfig{SampleRate: 16000, ChunkSizeMS: 200})
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"type":"connected","message":"ready","config":{"sample_rate":16000,"chunk_size_ms":200}}`
	if string(raw) != want {
		t.Fatalf("Marshal() = %s, want %s", raw, want)
	}
}
