package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/campusdesk/campusdesk/internal/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProcessFileText(t *testing.T) {
	p := NewProcessor(100, 20)
	path := writeFile(t, "notice.txt", "The college opens at 9am.\n\nThe office closes at 5pm.")

	chunks, err := p.ProcessFile(path)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.Equal(t, "notice.txt", chunks[0].Source)
	require.Equal(t, 0, chunks[0].Position)
	require.Equal(t, 1, chunks[1].Position)
	require.Equal(t, "The college opens at 9am.", chunks[0].Text)
}

func TestProcessFileCSV(t *testing.T) {
	p := NewProcessor(200, 20)
	path := writeFile(t, "courses.csv", "Course,Intake\nCSE,120\nAIML,60\n")

	chunks, err := p.ProcessFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	joined := ""
	for _, c := range chunks {
		joined += c.Text + "\n"
	}
	require.Contains(t, joined, "CSE")
	require.Contains(t, joined, "120")
}

func TestProcessFileMarkdown(t *testing.T) {
	p := NewProcessor(200, 20)
	path := writeFile(t, "faq.md", "# Admissions\n\nApplications open in **June** every year.\n")

	chunks, err := p.ProcessFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	var all strings.Builder
	for _, c := range chunks {
		all.WriteString(c.Text)
		all.WriteString(" ")
	}
	require.Contains(t, all.String(), "Applications open in June every year.")
	require.NotContains(t, all.String(), "**")
	require.NotContains(t, all.String(), "#")
}

func TestProcessFileUnsupported(t *testing.T) {
	p := NewProcessor(100, 20)
	path := writeFile(t, "image.png", "not really an image")

	_, err := p.ProcessFile(path)
	require.Error(t, err)
	require.True(t, apperrors.IsIngestion(err))
}

func TestProcessFileMissing(t *testing.T) {
	p := NewProcessor(100, 20)
	_, err := p.ProcessFile(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	require.True(t, apperrors.IsIngestion(err))
}

func TestProcessFileEmptyText(t *testing.T) {
	p := NewProcessor(100, 20)
	path := writeFile(t, "empty.txt", "   \n\n  ")
	chunks, err := p.ProcessFile(path)
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "null bytes dropped", in: "fee\x00 schedule", want: "fee schedule"},
		{name: "hyphen line break joined", in: "admis-\nsion", want: "admission"},
		{name: "single inner newline to space", in: "line one\nline two", want: "line one line two"},
		{name: "paragraph break kept", in: "para one\n\npara two", want: "para one\n\npara two"},
		{name: "multi space collapsed", in: "too   many    spaces", want: "too many spaces"},
		{name: "spaced dot leaders collapsed", in: "Fees . . . 120000", want: "Fees... 120000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}
