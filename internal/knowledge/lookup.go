package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Table is the structured fact store extracted from the uploaded fee
// schedule and course list. Answers built from it are deterministic
// and bypass retrieval and generation entirely.
type Table struct {
	Courses []map[string]string `json:"courses"`
	FeesRaw string              `json:"fees_raw"`
}

type Lookup struct {
	table *Table
}

// Load reads the fact table from path. A missing file is not an
// error; the lookup simply never matches and every query flows to
// retrieval.
func Load(path string) *Lookup {
	if path == "" {
		return &Lookup{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logutil.GetLogger(context.Background()).Info("no knowledge table loaded", zap.String("path", path), zap.Error(err))
		return &Lookup{}
	}
	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		logutil.GetLogger(context.Background()).Warn("knowledge table unreadable, ignoring", zap.String("path", path), zap.Error(err))
		return &Lookup{}
	}
	logutil.GetLogger(context.Background()).Info("knowledge table loaded",
		zap.String("path", path),
		zap.Int("courses", len(table.Courses)),
		zap.Bool("fees", table.FeesRaw != ""),
	)
	return &Lookup{table: &table}
}

func NewLookup(table *Table) *Lookup {
	return &Lookup{table: table}
}

var (
	feeKeywords    = []string{"fee", "fees", "tuition", "fee structure", "how much does it cost", "cost of"}
	courseKeywords = []string{"courses offered", "list of courses", "what courses", "which courses", "all courses", "programs offered", "list all courses", "branches offered"}
	intakeKeywords = []string{"intake", "seats", "how many students", "capacity"}
)

// Answer returns a pre-formatted deterministic answer for the query,
// or "", false when no intent matches. It runs before retrieval:
// structured facts carry zero hallucination risk, so they win over
// anything fuzzier.
func (l *Lookup) Answer(query string) (string, bool) {
	if l == nil || l.table == nil {
		return "", false
	}
	q := strings.ToLower(query)

	if l.table.FeesRaw != "" && containsAny(q, feeKeywords) {
		return "**Official Fee Structure:**\n" + strings.TrimSpace(l.table.FeesRaw), true
	}
	if len(l.table.Courses) > 0 && containsAny(q, intakeKeywords) {
		if answer, ok := l.intakeAnswer(q); ok {
			return answer, true
		}
	}
	if len(l.table.Courses) > 0 && containsAny(q, courseKeywords) {
		return l.coursesAnswer(), true
	}
	return "", false
}

func (l *Lookup) coursesAnswer() string {
	var b strings.Builder
	b.WriteString("**Courses Offered:**\n")
	for _, course := range l.table.Courses {
		name := firstValue(course, "Course", "Course Name", "Name", "Branch")
		if name == "" {
			continue
		}
		b.WriteString("- " + name)
		if intake := firstValue(course, "Intake", "Seats"); intake != "" {
			fmt.Fprintf(&b, " (intake: %s)", intake)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func (l *Lookup) intakeAnswer(q string) (string, bool) {
	for _, course := range l.table.Courses {
		name := firstValue(course, "Course", "Course Name", "Name", "Branch")
		intake := firstValue(course, "Intake", "Seats")
		if name == "" || intake == "" {
			continue
		}
		if strings.Contains(q, strings.ToLower(name)) || matchesAbbreviation(q, name) {
			return fmt.Sprintf("The intake for %s is %s students.", name, intake), true
		}
	}
	return "", false
}

func containsAny(q string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

func firstValue(row map[string]string, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(row[key]); v != "" {
			return v
		}
	}
	// Case-insensitive fallback for untidy CSV headers.
	lowered := make(map[string]string, len(row))
	for k, v := range row {
		lowered[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for _, key := range keys {
		if v := strings.TrimSpace(lowered[strings.ToLower(key)]); v != "" {
			return v
		}
	}
	return ""
}

// matchesAbbreviation checks short branch names ("CSE", "AIML") that
// appear as standalone tokens in the query.
func matchesAbbreviation(q, name string) bool {
	name = strings.ToLower(name)
	if len(name) > 6 || strings.Contains(name, " ") {
		return false
	}
	for _, tok := range strings.Fields(q) {
		if strings.Trim(tok, ".,?!") == name {
			return true
		}
	}
	return false
}
