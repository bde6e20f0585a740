package ingest

import (
	"regexp"
	"strings"
)

var (
	tripleNewline   = regexp.MustCompile(`\n{3,}`)
	hyphenLineBreak = regexp.MustCompile(`(\w+)-\n(\w+)`)
	innerNewline    = regexp.MustCompile(`([^\n])\n([^\n])`)
	dotArtifact     = regexp.MustCompile(`\s\.\s\.\s\.`)
	multiSpace      = regexp.MustCompile(` +`)
)

// CleanText normalizes extracted document text: PDF extractors leave
// null bytes, mid-sentence line breaks and hyphenated words split
// across lines, all of which poison tokenization if kept.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\n \n", " ")
	text = tripleNewline.ReplaceAllString(text, "\n\n")
	text = hyphenLineBreak.ReplaceAllString(text, "$1$2")
	text = innerNewline.ReplaceAllString(text, "$1 $2")
	text = dotArtifact.ReplaceAllString(text, "...")
	text = multiSpace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
