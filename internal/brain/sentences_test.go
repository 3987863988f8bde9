package brain

import (
	"strings"
	"testing"
)

func TestSplitSentencesBasic(t *testing.T) {
	sentences, rest := SplitSentences("Hello there. How are you? Fine")
	if len(sentences) != 2 {
		t.Fatalf("sentences = %d, want 2: %q", len(sentences), sentences)
	}
	if sentences[0] != "Hello there." {
		t.Fatalf("sentences[0] = %q", sentences[0])
	}
	if sentences[1] != " How are you?" {
		t.Fatalf("sentences[1] = %q", sentences[1])
	}
	if rest != " Fine" {
		t.Fatalf("rest = %q", rest)
	}
}

func TestSplitSentencesReconstructsInput(t *testing.T) {
	inputs := []string{
		"Your heart rate is 72 bpm. That is in a healthy range! Anything else?",
		"One. Two.  Three?   ",
		"No boundary here",
		"",
		"Trailing terminator stays.",
		"Unicode: ça va? Très bien. Danke!",
	}
	for _, in := range inputs {
		sentences, rest := SplitSentences(in)
		if got := strings.Join(sentences, "") + rest; got != in {
			t.Fatalf("reconstruction failed:\n got %q\nwant %q", got, in)
		}
		for _, s := range sentences {
			if s == "" {
				t.Fatalf("empty sentence emitted for input %q", in)
			}
		}
	}
}

func TestSplitSentencesDoesNotCutDecimals(t *testing.T) {
	sentences, rest := SplitSentences("You spent 3.50 on coffee. And 2.25 remains")
	if len(sentences) != 1 {
		t.Fatalf("sentences = %q, want exactly one", sentences)
	}
	if sentences[0] != "You spent 3.50 on coffee." {
		t.Fatalf("sentences[0] = %q", sentences[0])
	}
	if rest != " And 2.25 remains" {
		t.Fatalf("rest = %q", rest)
	}
}

func TestSplitSentencesHoldsTrailingTerminator(t *testing.T) {
	// A terminator at buffer end may still grow ("3." then "5"), so it is
	// not a boundary until whitespace or stream end.
	sentences, rest := SplitSentences("The total is 3.")
	if len(sentences) != 0 {
		t.Fatalf("sentences = %q, want none", sentences)
	}
	if rest != "The total is 3." {
		t.Fatalf("rest = %q", rest)
	}

	sentences, rest = SplitSentences("The total is 3. And rising")
	if len(sentences) != 1 || sentences[0] != "The total is 3." {
		t.Fatalf("sentences = %q after whitespace arrives", sentences)
	}
	if rest != " And rising" {
		t.Fatalf("rest = %q", rest)
	}
}

func TestSplitSentencesIncrementalStream(t *testing.T) {
	// Simulates the streaming loop: feed deltas, split the tail each time,
	// flush what remains at stream end.
	deltas := []string{"Your heart", " rate is 72 bpm. It", " looks healthy! Keep", " it up."}
	var tail string
	var emitted []string
	for _, d := range deltas {
		tail += d
		complete, rest := SplitSentences(tail)
		emitted = append(emitted, complete...)
		tail = rest
	}
	if tail != "" {
		emitted = append(emitted, tail)
	}

	want := strings.Join(deltas, "")
	if got := strings.Join(emitted, ""); got != want {
		t.Fatalf("stream reconstruction failed:\n got %q\nwant %q", got, want)
	}
	if len(emitted) != 3 {
		t.Fatalf("emitted %d sentences, want 3: %q", len(emitted), emitted)
	}
	if emitted[0] != "Your heart rate is 72 bpm." {
		t.Fatalf("emitted[0] = %q", emitted[0])
	}
}
