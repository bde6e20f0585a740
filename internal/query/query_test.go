package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusdesk/campusdesk/internal/model"
)

func TestNormalizeTranscriptionArtifacts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "aiemail", in: "tell me about aiemail", want: "tell me about aiml"},
		{name: "spelled out", in: "what is a i m l", want: "what is aiml"},
		{name: "split acronym", in: "fees for ai ml branch", want: "fees for aiml branch"},
		{name: "it department", in: "Where is the IT department?", want: "where is the information technology department?"},
		{name: "btech in it", in: "fees for btech in IT", want: "fees for btech in information technology"},
		{name: "degree of it", in: "bachelor of IT admission", want: "bachelor of information technology admission"},
		{name: "plain it pronoun untouched", in: "is it open today", want: "is it open today"},
		{name: "lowercase and trim", in: "  HELLO  ", want: "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestSynonymsExcludePresentWords(t *testing.T) {
	syns := Synonyms("what is the fee")
	require.NotEmpty(t, syns)
	require.NotContains(t, syns, "fee")
	require.Contains(t, syns, "tuition")
}

func TestSynonymsNoTopic(t *testing.T) {
	require.Empty(t, Synonyms("hello there"))
}

func TestTopics(t *testing.T) {
	topics := Topics("hostel fee details")
	require.Contains(t, topics, "fee")
	require.Contains(t, topics, "hostel")
	require.Empty(t, Topics("random words"))
}

type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt string, userMessage string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func history() []model.Interaction {
	return []model.Interaction{
		{UserMessage: "what is the btech fee", BotResponse: "The BTech fee is ₹120000 per year."},
	}
}

func TestExpandRewritesShortFollowUp(t *testing.T) {
	gen := &fakeGenerator{response: `"What is the hostel fee for BTech?"`}
	e := NewExpander(gen, 0)
	out, expanded := e.Expand(context.Background(), "and hostel?", history())
	require.True(t, expanded)
	require.Equal(t, "What is the hostel fee for BTech?", out)
	require.Equal(t, 1, gen.calls)
}

func TestExpandSkipsLongQueries(t *testing.T) {
	gen := &fakeGenerator{response: "should not be used"}
	e := NewExpander(gen, 0)
	out, expanded := e.Expand(context.Background(), "what is the hostel fee", history())
	require.False(t, expanded)
	require.Equal(t, "what is the hostel fee", out)
	require.Zero(t, gen.calls)
}

func TestExpandSkipsWithoutHistory(t *testing.T) {
	gen := &fakeGenerator{response: "should not be used"}
	e := NewExpander(gen, 0)
	out, expanded := e.Expand(context.Background(), "how much?", nil)
	require.False(t, expanded)
	require.Equal(t, "how much?", out)
	require.Zero(t, gen.calls)
}

func TestExpandProviderFailureKeepsOriginal(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("provider down")}
	e := NewExpander(gen, 0)
	out, expanded := e.Expand(context.Background(), "how much?", history())
	require.False(t, expanded)
	require.Equal(t, "how much?", out)
}

func TestExpandNilGenerator(t *testing.T) {
	e := NewExpander(nil, 0)
	out, expanded := e.Expand(context.Background(), "how much?", history())
	require.False(t, expanded)
	require.Equal(t, "how much?", out)
}
