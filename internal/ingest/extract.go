package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

func extractPDF(path string) ([]section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}
	var sections []section
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sections = append(sections, section{
			text:     text,
			metadata: map[string]string{"page": strconv.Itoa(i)},
		})
	}
	return sections, nil
}

func extractDOCX(path string) ([]section, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	content := r.Editable().GetContent()
	text := stripXMLTags(content)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []section{{text: text}}, nil
}

func extractXLSX(path string) ([]section, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var sections []section
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		var b strings.Builder
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " | "))
			if line != "" {
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
		if b.Len() == 0 {
			continue
		}
		sections = append(sections, section{
			text:     b.String(),
			metadata: map[string]string{"sheet": sheet},
		})
	}
	return sections, nil
}

func extractCSV(path string) ([]section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, record := range records {
		line := strings.TrimSpace(strings.Join(record, " | "))
		if line != "" {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	if b.Len() == 0 {
		return nil, nil
	}
	return []section{{text: b.String()}}, nil
}

func extractMarkdown(path string) ([]section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	md := goldmark.New()
	reader := gmtext.NewReader(data)
	doc := md.Parser().Parse(reader)

	var b strings.Builder
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		txt := nodeText(node, data)
		if txt == "" {
			continue
		}
		b.WriteString(txt)
		b.WriteString("\n\n")
	}
	if b.Len() == 0 {
		return nil, nil
	}
	return []section{{text: b.String()}}, nil
}

func extractText(path string) ([]section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	return []section{{text: string(data)}}, nil
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			sb.WriteString(" ")
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// stripXMLTags flattens word-processing XML into plain text; the docx
// reader hands back raw document XML.
func stripXMLTags(content string) string {
	var b strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
