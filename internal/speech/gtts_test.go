package speech

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandForSpeech(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "rupee symbol", in: "the fee is ₹120000", want: "the fee is rupees 120000"},
		{name: "branch acronym", in: "CSE has 120 seats", want: "C S E has 120 seats"},
		{name: "aiml", in: "AIML is popular", want: "A I M L is popular"},
		{name: "btech with dot", in: "B.Tech admission", want: "B Tech admission"},
		{name: "markdown bold stripped", in: "**Courses Offered:**", want: "Courses Offered:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, expandForSpeech(tt.in))
		})
	}
}

func TestSplitForSpeechShortText(t *testing.T) {
	require.Equal(t, []string{"short"}, splitForSpeech("short", 100))
	require.Nil(t, splitForSpeech("   ", 100))
}

func TestSplitForSpeechPrefersSentenceBoundaries(t *testing.T) {
	text := "First sentence here. Second sentence follows after it. Third one closes."
	pieces := splitForSpeech(text, 40)
	require.Greater(t, len(pieces), 1)
	for _, p := range pieces {
		require.LessOrEqual(t, len(p), 40)
		require.NotEmpty(t, p)
	}
	// No word is ever cut in half.
	rejoined := strings.Fields(strings.Join(pieces, " "))
	require.Equal(t, strings.Fields(text), rejoined)
}

func TestSplitForSpeechHandlesUnbrokenText(t *testing.T) {
	text := strings.Repeat("a", 250)
	pieces := splitForSpeech(text, 100)
	require.Len(t, pieces, 3)
	total := 0
	for _, p := range pieces {
		require.LessOrEqual(t, len(p), 100)
		total += len(p)
	}
	require.Equal(t, 250, total)
}
