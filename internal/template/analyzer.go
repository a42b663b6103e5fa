package template

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"scribo/pkg/logger"
)

// Analyzer extracts assignment section names from a DOCX template. The
// section list lives in the template's marks table: the first row names
// the sections, subsequent rows carry grading columns. Templates without
// a recognizable marks table fall back to a default section list.
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

var (
	marksNotation = regexp.MustCompile(`\([0-9]+\s*[Mm]arks?\)`)
	parenContent  = regexp.MustCompile(`\([^)]*\)`)
	bracketBlock  = regexp.MustCompile(`\[[^\]]*\]`)
	marksWord     = regexp.MustCompile(`\b[Mm]arks?\b`)
	multiSpace    = regexp.MustCompile(`\s+`)
	andSplitter   = regexp.MustCompile(`(?i)\s+and\s+|\s+&\s+`)
)

var skipKeywords = map[string]bool{
	"total":         true,
	"marks":         true,
	"awarded":       true,
	"marks awarded": true,
	"co":            true,
	"po":            true,
	"btl":           true,
	"grand total":   true,
}

// DefaultSections is used when template analysis finds nothing usable.
func DefaultSections() []string {
	return []string{"Objective", "Problem Analysis", "Solution", "Conclusion", "References"}
}

// Analyze returns the section names for the template at path. Analysis
// never fails the generation flow: any parse problem is logged and the
// default section list is returned instead.
func (a *Analyzer) Analyze(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warnf("Template analysis: cannot read %s: %v", path, err)
		return DefaultSections()
	}
	return a.AnalyzeBytes(data)
}

func (a *Analyzer) AnalyzeBytes(data []byte) []string {
	tables, err := extractTables(data)
	if err != nil {
		logger.Warnf("Template analysis failed, using defaults: %v", err)
		return DefaultSections()
	}

	for _, table := range tables {
		if !isMarksTable(table) {
			continue
		}
		sections := sectionsFromFirstRow(table)
		if len(sections) > 0 {
			return splitCombinedSections(sections)
		}
	}

	logger.Info("No marks table found in template, using default sections")
	return DefaultSections()
}

// Validate reports whether a template yields enough sections to build a
// meaningful assignment.
func (a *Analyzer) Validate(path string) (bool, []string) {
	sections := a.Analyze(path)
	return len(sections) >= 3, sections
}

func isMarksTable(table [][]string) bool {
	var joined strings.Builder
	for _, row := range table {
		for _, cell := range row {
			joined.WriteString(cell)
			joined.WriteString(" ")
		}
	}
	text := joined.String()

	if marksNotation.MatchString(text) {
		return true
	}

	lower := strings.ToLower(text)
	for _, kw := range []string{"marks awarded", "marks", "objective", "analysis", "solution"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func sectionsFromFirstRow(table [][]string) []string {
	if len(table) == 0 {
		return nil
	}

	var sections []string
	for _, cell := range table[0] {
		cleaned := cleanCellText(cell)
		if cleaned == "" {
			continue
		}
		if len(cleaned) < 3 {
			continue
		}
		if skipKeywords[strings.ToLower(cleaned)] {
			continue
		}
		if !unicode.IsUpper(rune(cleaned[0])) {
			continue
		}
		if !containsString(sections, cleaned) {
			sections = append(sections, cleaned)
		}
	}
	return sections
}

func cleanCellText(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	text = parenContent.ReplaceAllString(text, "")
	text = bracketBlock.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "*", "")
	text = marksWord.ReplaceAllString(text, "")
	text = multiSpace.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, "total") {
		return ""
	}
	return text
}

// splitCombinedSections breaks "Conclusion and References" style cells
// apart and guarantees a trailing References section.
func splitCombinedSections(sections []string) []string {
	var result []string

	for _, section := range sections {
		if !strings.Contains(strings.ToLower(section), "reference") {
			if !containsString(result, section) {
				result = append(result, section)
			}
			continue
		}

		for _, part := range andSplitter.Split(section, -1) {
			part = strings.TrimSpace(part)
			if part == "" || strings.Contains(strings.ToLower(part), "reference") {
				continue
			}
			if !containsString(result, part) {
				result = append(result, part)
			}
		}
	}

	for _, s := range result {
		if strings.Contains(strings.ToLower(s), "reference") {
			return result
		}
	}
	return append(result, "References")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// extractTables pulls every table out of word/document.xml as rows of
// cell text. Nested tables are flattened into their parent cell's text,
// which is good enough for marks-table detection.
func extractTables(docx []byte) ([][][]string, error) {
	reader, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		return nil, fmt.Errorf("not a valid docx archive: %w", err)
	}

	var docFile *zip.File
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml missing from archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return parseTables(rc)
}

func parseTables(r io.Reader) ([][][]string, error) {
	decoder := xml.NewDecoder(r)

	var (
		tables    [][][]string
		table     [][]string
		row       []string
		cell      strings.Builder
		tblDepth  int
		inRow     bool
		inCell    bool
		inText    bool
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth++
				if tblDepth == 1 {
					table = nil
				}
			case "tr":
				if tblDepth == 1 {
					inRow = true
					row = nil
				}
			case "tc":
				if tblDepth == 1 && inRow {
					inCell = true
					cell.Reset()
				}
			case "t":
				if inCell {
					inText = true
				}
			case "p":
				if inCell && cell.Len() > 0 {
					cell.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				if tblDepth == 1 && len(table) > 0 {
					tables = append(tables, table)
				}
				tblDepth--
			case "tr":
				if tblDepth == 1 && inRow {
					table = append(table, row)
					inRow = false
				}
			case "tc":
				if tblDepth == 1 && inCell {
					row = append(row, strings.TrimSpace(cell.String()))
					inCell = false
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && inCell {
				cell.Write(t)
			}
		}
	}

	return tables, nil
}
