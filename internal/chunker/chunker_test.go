package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	require.Nil(t, Split("", 100, 20))
	require.Nil(t, Split("   \n\n\t ", 100, 20))
}

func TestSplitShortParagraphStaysWhole(t *testing.T) {
	chunks := Split("A short paragraph.", 100, 20)
	require.Equal(t, []string{"A short paragraph."}, chunks)
}

func TestSplitParagraphBoundaries(t *testing.T) {
	text := "First paragraph here.\n\nSecond paragraph here."
	chunks := Split(text, 100, 20)
	require.Equal(t, []string{"First paragraph here.", "Second paragraph here."}, chunks)
}

func TestSplitIdempotent(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Admissions open in June every year.\n\n")
	for i := 0; i < 20; i++ {
		sb.WriteString("This sentence fills roughly forty characters. ")
	}
	chunks := Split(sb.String(), 120, 40)
	require.NotEmpty(t, chunks)

	// A chunk already fits the budget, so re-splitting it returns the
	// chunk unchanged.
	for _, c := range chunks {
		require.Equal(t, []string{c}, Split(c, 120, 40))
	}
}

func TestSplitLongParagraphBySentence(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString("This sentence fills roughly forty characters. ")
	}
	chunks := Split(sb.String(), 120, 40)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		require.NotEmpty(t, strings.TrimSpace(c))
		require.LessOrEqual(t, len(c), 120)
	}
	// Adjacent chunks share the carried sentence.
	require.Greater(t, len(chunks), 1)
	first := SplitSentences(chunks[0])
	second := SplitSentences(chunks[1])
	require.Equal(t, first[len(first)-1], second[0])
}

func TestSplitGiantSentenceTerminates(t *testing.T) {
	giant := strings.Repeat("x", 5000)
	chunks := Split(giant, 1000, 200)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), 1000)
		require.NotEmpty(t, c)
	}
}

func TestSplitOverlapLargerThanTarget(t *testing.T) {
	// Misconfigured overlap must not hang the splitter.
	giant := strings.Repeat("y", 3000)
	chunks := Split(giant, 100, 100)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), 100)
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := "One sentence. Another sentence follows! A third? \n\nAnd a second paragraph with more text inside it."
	a := Split(text, 60, 10)
	b := Split(text, 60, 10)
	require.Equal(t, a, b)
}

func TestSplitSentencesAbbreviations(t *testing.T) {
	sentences := SplitSentences("Dr. Rao teaches here. Mr. Sen visits on Mondays.")
	require.Len(t, sentences, 2)
	require.Equal(t, "Dr Rao teaches here.", sentences[0])
	require.Equal(t, "Mr Sen visits on Mondays.", sentences[1])
}

func TestSplitSentencesDecimalsSurvive(t *testing.T) {
	sentences := SplitSentences("The CGPA cutoff is 8.5 this year. Apply early.")
	require.Len(t, sentences, 2)
	require.Equal(t, "The CGPA cutoff is 8.5 this year.", sentences[0])
}

func TestSplitSentencesTrailingNoTerminator(t *testing.T) {
	sentences := SplitSentences("First one. trailing fragment without a period")
	require.Len(t, sentences, 2)
	require.Equal(t, "trailing fragment without a period", sentences[1])
}
