package rag

import "strings"

var greetingPhrases = []string{
	"hi", "hii", "hello", "hey", "yo",
	"good morning", "good afternoon", "good evening",
	"how are you", "whats up", "what's up", "namaste",
	"thank you", "thanks", "bye", "goodbye",
}

// isGreeting flags pure small talk so the pipeline can answer without
// touching retrieval at all. Anything carrying more than a few words
// is assumed to be a real question.
func isGreeting(message string) bool {
	m := strings.ToLower(strings.TrimSpace(message))
	m = strings.Trim(m, "!.? ")
	if m == "" {
		return false
	}
	if len(strings.Fields(m)) > 4 {
		return false
	}
	for _, phrase := range greetingPhrases {
		if m == phrase || strings.HasPrefix(m, phrase+" sarah") {
			return true
		}
	}
	return false
}

const greetingResponse = "Hello! I'm Sarah, the college receptionist. How can I help you today?"
