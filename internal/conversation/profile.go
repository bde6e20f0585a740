package conversation

import (
	"regexp"
	"strings"
)

var rankPattern = regexp.MustCompile(`\b(?:wbjee|jee|air|rank)\b\D{0,20}?(\d{1,7})\b`)

// interestKeywords maps phrasings in user messages to a canonical
// branch interest stored on the profile. First match wins, so the
// more specific phrasings come first.
var interestKeywords = []struct {
	keyword string
	branch  string
}{
	{"computer science", "CSE"},
	{"artificial intelligence", "AIML"},
	{"machine learning", "AIML"},
	{"information technology", "IT"},
	{"electronics", "ECE"},
	{"electrical", "EE"},
	{"mechanical", "ME"},
	{"civil", "CE"},
	{"aiml", "AIML"},
	{"cse", "CSE"},
	{"ece", "ECE"},
}

// DetectProfile pulls durable facts (entrance-exam rank, branch
// interest) out of a single user message. Empty map means nothing
// recognizable was said.
func DetectProfile(message string) map[string]string {
	out := make(map[string]string)
	lower := strings.ToLower(message)
	if m := rankPattern.FindStringSubmatch(lower); m != nil {
		out["rank"] = m[1]
	}
	for _, entry := range interestKeywords {
		if strings.Contains(lower, entry.keyword) {
			out["interest"] = entry.branch
			break
		}
	}
	return out
}
