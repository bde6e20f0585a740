package chunker

import "strings"

const (
	DefaultTargetSize = 1000
	DefaultOverlap    = 200
)

// Split breaks text into passages of at most targetSize characters.
// Paragraph boundaries are preferred, paragraphs too large are split
// on sentences, and a single sentence longer than targetSize is
// hard-split by offset with `overlap` characters carried between
// slices. Adjacent sentence-built chunks carry the previous chunk's
// last sentence forward so boundary context survives.
//
// Empty or whitespace-only input yields no chunks. No returned chunk
// is ever empty.
func Split(text string, targetSize, overlap int) []string {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= targetSize {
		overlap = targetSize / 2
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	for _, para := range splitParagraphs(text) {
		if len(para) <= targetSize {
			chunks = append(chunks, para)
			continue
		}
		chunks = append(chunks, splitBySentence(para, targetSize, overlap)...)
	}
	return chunks
}

func splitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitBySentence(text string, targetSize, overlap int) []string {
	sentences := SplitSentences(text)
	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
		}
	}

	for _, sentence := range sentences {
		sentenceLen := len(sentence)

		// An atomic sentence larger than the target has to be cut by
		// offset; nothing softer makes progress.
		if sentenceLen > targetSize {
			flush()
			current = nil
			currentLen = 0
			chunks = append(chunks, hardSplit(sentence, targetSize, overlap)...)
			continue
		}

		if currentLen+sentenceLen+1 > targetSize {
			flush()
			// Carry the last sentence forward as overlap.
			carry := ""
			if len(current) > 0 {
				carry = current[len(current)-1]
			}
			if carry != "" && len(carry)+sentenceLen+1 <= targetSize {
				current = []string{carry, sentence}
				currentLen = len(carry) + 1 + sentenceLen
			} else {
				current = []string{sentence}
				currentLen = sentenceLen
			}
			continue
		}
		current = append(current, sentence)
		currentLen += sentenceLen + 1
	}
	flush()
	return chunks
}

// hardSplit cuts s into targetSize windows whose start advances by
// targetSize-overlap each step. The stride is always positive, so the
// loop terminates on any input.
func hardSplit(s string, targetSize, overlap int) []string {
	stride := targetSize - overlap
	if stride <= 0 {
		stride = targetSize
	}
	var out []string
	for start := 0; start < len(s); start += stride {
		end := start + targetSize
		if end > len(s) {
			end = len(s)
		}
		piece := strings.TrimSpace(s[start:end])
		if piece != "" {
			out = append(out, piece)
		}
		if end == len(s) {
			break
		}
	}
	return out
}

var abbreviations = strings.NewReplacer(
	"Mr.", "Mr",
	"Mrs.", "Mrs",
	"Dr.", "Dr",
	"vs.", "vs",
)

// SplitSentences is a rule-based sentence splitter: terminator
// followed by whitespace ends a sentence. A short abbreviation list
// suppresses the most common false positives.
func SplitSentences(text string) []string {
	text = abbreviations.Replace(text)
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '?' && runes[i] != '!' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' && runes[i+1] != '\n' && runes[i+1] != '\t' {
			continue
		}
		s := strings.TrimSpace(string(runes[start : i+1]))
		if s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if start < len(runes) {
		s := strings.TrimSpace(string(runes[start:]))
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
