package knowledge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testTable() *Table {
	return &Table{
		FeesRaw: "BTech: ₹120000 per year\nMTech: ₹90000 per year",
		Courses: []map[string]string{
			{"Course": "CSE", "Intake": "120"},
			{"Course": "AIML", "Intake": "60"},
			{"Course": "Civil Engineering", "Intake": "90"},
		},
	}
}

func TestAnswerFeeIntent(t *testing.T) {
	l := NewLookup(testTable())
	answer, ok := l.Answer("What is the fee structure for BTech?")
	require.True(t, ok)
	require.True(t, strings.HasPrefix(answer, "**Official Fee Structure:**"))
	require.Contains(t, answer, "₹120000")
}

func TestAnswerIntakeForBranch(t *testing.T) {
	l := NewLookup(testTable())
	answer, ok := l.Answer("what is the intake for AIML?")
	require.True(t, ok)
	require.Equal(t, "The intake for AIML is 60 students.", answer)
}

func TestAnswerIntakeFallsThroughToCourses(t *testing.T) {
	l := NewLookup(testTable())
	// Intake wording without a recognizable branch name.
	_, ok := l.Answer("how many students get in")
	require.False(t, ok)
}

func TestAnswerCourseList(t *testing.T) {
	l := NewLookup(testTable())
	answer, ok := l.Answer("which courses are offered here?")
	require.True(t, ok)
	require.True(t, strings.HasPrefix(answer, "**Courses Offered:**"))
	require.Contains(t, answer, "- CSE (intake: 120)")
	require.Contains(t, answer, "- Civil Engineering (intake: 90)")
}

func TestAnswerNoMatch(t *testing.T) {
	l := NewLookup(testTable())
	_, ok := l.Answer("where is the library?")
	require.False(t, ok)
}

func TestAnswerEmptyTable(t *testing.T) {
	l := NewLookup(nil)
	_, ok := l.Answer("what is the fee structure?")
	require.False(t, ok)
}

func TestFirstValueCaseInsensitiveHeaders(t *testing.T) {
	row := map[string]string{"course name ": "ECE", "INTAKE": "90"}
	require.Equal(t, "ECE", firstValue(row, "Course", "Course Name"))
	require.Equal(t, "90", firstValue(row, "Intake", "Seats"))
}

func TestLoadMissingFile(t *testing.T) {
	l := Load(filepath.Join(t.TempDir(), "absent.json"))
	_, ok := l.Answer("what is the fee structure?")
	require.False(t, ok)
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.json")
	data, err := json.Marshal(testTable())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	l := Load(path)
	answer, ok := l.Answer("tuition details please")
	require.True(t, ok)
	require.Contains(t, answer, "₹90000")
}
