package builder

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scribo/pkg/logger"
)

// Builder turns a stored template plus generated sections into the final
// DOCX artifact. The template archive is copied part-for-part (headers,
// footers, styles, media all survive untouched); only word/document.xml
// is rebuilt, and the original section properties block is carried over
// so header/footer references keep resolving.
type Builder struct {
	outputDir string
}

func NewBuilder(outputDir string) *Builder {
	return &Builder{outputDir: outputDir}
}

// Build writes the finished document and returns its path.
func (b *Builder) Build(templatePath, topic string, sectionOrder []string, sections map[string]string) (string, error) {
	templateData, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(templateData), int64(len(templateData)))
	if err != nil {
		return "", fmt.Errorf("open template archive: %w", err)
	}

	var originalDoc []byte
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			originalDoc, err = readZipFile(f)
			if err != nil {
				return "", fmt.Errorf("read template body: %w", err)
			}
			break
		}
	}
	if originalDoc == nil {
		return "", fmt.Errorf("template has no word/document.xml")
	}

	body := renderBody(topic, sectionOrder, sections, extractSectPr(originalDoc))

	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	outPath := filepath.Join(b.outputDir, outputFilename(topic))
	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	writer := zip.NewWriter(out)
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			w, err := writer.Create(f.Name)
			if err != nil {
				return "", err
			}
			if _, err := w.Write(body); err != nil {
				return "", err
			}
			continue
		}

		data, err := readZipFile(f)
		if err != nil {
			return "", fmt.Errorf("copy %s: %w", f.Name, err)
		}
		w, err := writer.Create(f.Name)
		if err != nil {
			return "", err
		}
		if _, err := w.Write(data); err != nil {
			return "", err
		}
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finish archive: %w", err)
	}

	logger.Infof("Document built: %s", outPath)
	return outPath, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// extractSectPr pulls the trailing <w:sectPr> block out of the original
// body. Returns empty when the template has none.
func extractSectPr(doc []byte) string {
	s := string(doc)
	start := strings.LastIndex(s, "<w:sectPr")
	if start < 0 {
		return ""
	}
	end := strings.Index(s[start:], "</w:sectPr>")
	if end < 0 {
		// Self-closing variant.
		if close := strings.Index(s[start:], "/>"); close >= 0 {
			return s[start : start+close+2]
		}
		return ""
	}
	return s[start : start+end+len("</w:sectPr>")]
}

func renderBody(topic string, sectionOrder []string, sections map[string]string, sectPr string) []byte {
	var buf bytes.Buffer

	buf.WriteString(xml.Header)
	buf.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`)
	buf.WriteString(`<w:body>`)

	writeHeading(&buf, topic, "Title")

	for _, name := range sectionOrder {
		content, ok := sections[name]
		if !ok {
			continue
		}
		writeHeading(&buf, name, "Heading1")
		for _, line := range strings.Split(content, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			writeParagraph(&buf, line)
		}
	}

	buf.WriteString(sectPr)
	buf.WriteString(`</w:body></w:document>`)

	return buf.Bytes()
}

func writeHeading(buf *bytes.Buffer, text, style string) {
	buf.WriteString(`<w:p><w:pPr><w:pStyle w:val="` + style + `"/></w:pPr><w:r><w:t xml:space="preserve">`)
	writeEscaped(buf, text)
	buf.WriteString(`</w:t></w:r></w:p>`)
}

func writeParagraph(buf *bytes.Buffer, text string) {
	buf.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
	writeEscaped(buf, text)
	buf.WriteString(`</w:t></w:r></w:p>`)
}

func writeEscaped(buf *bytes.Buffer, text string) {
	// EscapeText only errors on a failed write, which bytes.Buffer never does.
	_ = xml.EscapeText(buf, []byte(text))
}

func outputFilename(topic string) string {
	safe := make([]rune, 0, len(topic))
	for _, r := range topic {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			safe = append(safe, r)
		case r == ' ', r == '-', r == '_':
			safe = append(safe, '_')
		}
	}
	name := strings.Trim(string(safe), "_")
	if name == "" {
		name = "Student"
	}
	if len(name) > 40 {
		name = name[:40]
	}
	return fmt.Sprintf("Assignment_%s_%s.docx", name, time.Now().Format("20060102_150405"))
}
