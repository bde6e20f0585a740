package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	apperrors "github.com/campusdesk/campusdesk/internal/pkg/errors"

	"github.com/campusdesk/campusdesk/internal/chunker"
	"github.com/campusdesk/campusdesk/internal/model"
)

// Processor turns uploaded files into corpus chunks. Extraction is
// per-format; chunking parameters are shared so every document ends
// up with comparably sized passages.
type Processor struct {
	targetSize int
	overlap    int
}

func NewProcessor(targetSize, overlap int) *Processor {
	if targetSize <= 0 {
		targetSize = chunker.DefaultTargetSize
	}
	if overlap < 0 {
		overlap = chunker.DefaultOverlap
	}
	return &Processor{targetSize: targetSize, overlap: overlap}
}

// ProcessFile extracts text from path and returns its chunks in
// document order. Unsupported or unreadable files fail with
// ErrIngestion and leave the corpus untouched.
func (p *Processor) ProcessFile(path string) ([]model.Chunk, error) {
	ext := strings.ToLower(filepath.Ext(path))
	source := filepath.Base(path)

	var sections []section
	var err error
	switch ext {
	case ".pdf":
		sections, err = extractPDF(path)
	case ".docx":
		sections, err = extractDOCX(path)
	case ".xlsx", ".xls":
		sections, err = extractXLSX(path)
	case ".csv":
		sections, err = extractCSV(path)
	case ".md", ".markdown":
		sections, err = extractMarkdown(path)
	case ".txt":
		sections, err = extractText(path)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", apperrors.ErrIngestion, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrIngestion, source, err)
	}

	var chunks []model.Chunk
	position := 0
	for _, sec := range sections {
		text := CleanText(sec.text)
		if text == "" {
			continue
		}
		for _, piece := range chunker.Split(text, p.targetSize, p.overlap) {
			chunk := model.Chunk{
				Text:     piece,
				Source:   source,
				Position: position,
			}
			if len(sec.metadata) > 0 {
				chunk.Metadata = make(map[string]string, len(sec.metadata))
				for k, v := range sec.metadata {
					chunk.Metadata[k] = v
				}
			}
			chunks = append(chunks, chunk)
			position++
		}
	}
	return chunks, nil
}

// section is one extraction unit (a PDF page, a spreadsheet sheet,
// a whole text file) with metadata carried onto its chunks.
type section struct {
	text     string
	metadata map[string]string
}
