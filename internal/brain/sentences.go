package brain

import "unicode"

func isSentenceTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// SplitSentences cuts buf at sentence boundaries: a terminator (. ! ?)
// followed by whitespace. Complete sentences are returned with their
// terminators; everything after the last boundary, leading whitespace
// included, is returned as rest, so join(sentences) + rest == buf byte for
// byte. A terminator at the very end of buf is not a boundary here: during
// streaming more of the same token may still arrive ("3." then "5"), and the
// caller flushes the remainder when the stream ends.
func SplitSentences(buf string) (sentences []string, rest string) {
	runes := []rune(buf)
	start := 0
	for i := 0; i+1 < len(runes); i++ {
		if !isSentenceTerminator(runes[i]) {
			continue
		}
		if !unicode.IsSpace(runes[i+1]) {
			// Mid-token punctuation ("3.5", "e.g.") is not a boundary.
			continue
		}
		sentences = append(sentences, string(runes[start:i+1]))
		start = i + 1
	}
	return sentences, string(runes[start:])
}
