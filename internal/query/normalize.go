package query

import (
	"regexp"
	"strings"
)

// Speech-to-text mangles domain vocabulary in predictable ways:
// "AIML" comes through as "aiemail" or "a i m l", and "IT" is only
// Information Technology when an academic word sits next to it.
var (
	aimlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\baiemail\b`),
		regexp.MustCompile(`\ba\s?i\s?m\s?l\b`),
		regexp.MustCompile(`\bai\s+ml\b`),
	}
	itDeptPattern   = regexp.MustCompile(`\b(?:it|i\.t\.)\s+(department|dept|branch|course|engineering|field|sector|program|major)\b`)
	degreeITPattern = regexp.MustCompile(`\b(btech|b\.tech|mtech|m\.tech|degree|diploma|bachelor|master)\s+(?:(in|of)\s+)?(?:it|i\.t\.)\b`)
)

// Normalize lower-cases and repairs common transcription artifacts
// before the query touches any index.
func Normalize(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	for _, p := range aimlPatterns {
		q = p.ReplaceAllString(q, "aiml")
	}
	q = itDeptPattern.ReplaceAllString(q, "information technology $1")
	q = degreeITPattern.ReplaceAllStringFunc(q, func(m string) string {
		groups := degreeITPattern.FindStringSubmatch(m)
		if groups[2] != "" {
			return groups[1] + " " + groups[2] + " information technology"
		}
		return groups[1] + " information technology"
	})
	return q
}
