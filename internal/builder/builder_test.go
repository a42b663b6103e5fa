package builder

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sectPrXML = `<w:sectPr><w:headerReference w:type="default" r:id="rId6"/><w:pgSz w:w="11906" w:h="16838"/></w:sectPr>`

func writeTemplate(t *testing.T) string {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	entries := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/styles.xml":     `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`,
		"word/header1.xml":    `<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`,
		"word/document.xml": `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
			`<w:body><w:p><w:r><w:t>placeholder</w:t></w:r></w:p>` + sectPrXML + `</w:body></w:document>`,
	}
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "template.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func readEntry(t *testing.T, path, name string) string {
	t.Helper()

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("entry %s not found in %s", name, path)
	return ""
}

func TestBuild(t *testing.T) {
	b := NewBuilder(t.TempDir())

	outPath, err := b.Build(writeTemplate(t), "Cloud Computing",
		[]string{"Objective", "Conclusion"},
		map[string]string{
			"Objective":  "First paragraph.\nSecond paragraph.",
			"Conclusion": "Wrapping up.",
		})
	require.NoError(t, err)

	base := filepath.Base(outPath)
	assert.True(t, strings.HasPrefix(base, "Assignment_Cloud_Computing_"), "filename %s", base)
	assert.True(t, strings.HasSuffix(base, ".docx"))

	doc := readEntry(t, outPath, "word/document.xml")
	assert.Contains(t, doc, ">Cloud Computing</w:t>")
	assert.Contains(t, doc, `<w:pStyle w:val="Title"/>`)
	assert.Contains(t, doc, `<w:pStyle w:val="Heading1"/>`)
	assert.Contains(t, doc, ">First paragraph.</w:t>")
	assert.Contains(t, doc, ">Second paragraph.</w:t>")
	assert.Contains(t, doc, ">Wrapping up.</w:t>")
	assert.NotContains(t, doc, "placeholder")
}

func TestBuildPreservesTemplateParts(t *testing.T) {
	b := NewBuilder(t.TempDir())

	outPath, err := b.Build(writeTemplate(t), "Topic",
		[]string{"Objective"}, map[string]string{"Objective": "text"})
	require.NoError(t, err)

	assert.Contains(t, readEntry(t, outPath, "word/styles.xml"), "w:styles")
	assert.Contains(t, readEntry(t, outPath, "word/header1.xml"), "w:hdr")

	// The original section properties survive so header references resolve.
	doc := readEntry(t, outPath, "word/document.xml")
	assert.Contains(t, doc, `<w:headerReference w:type="default" r:id="rId6"/>`)
}

func TestBuildSkipsMissingSections(t *testing.T) {
	b := NewBuilder(t.TempDir())

	outPath, err := b.Build(writeTemplate(t), "Topic",
		[]string{"Objective", "Ghost"}, map[string]string{"Objective": "text"})
	require.NoError(t, err)

	doc := readEntry(t, outPath, "word/document.xml")
	assert.NotContains(t, doc, "Ghost")
}

func TestBuildEscapesContent(t *testing.T) {
	b := NewBuilder(t.TempDir())

	outPath, err := b.Build(writeTemplate(t), "AI & ML",
		[]string{"Objective"}, map[string]string{"Objective": "a < b & c > d"})
	require.NoError(t, err)

	doc := readEntry(t, outPath, "word/document.xml")
	assert.Contains(t, doc, "AI &amp; ML")
	assert.Contains(t, doc, "a &lt; b &amp; c &gt; d")
}

func TestBuildRejectsMissingTemplate(t *testing.T) {
	b := NewBuilder(t.TempDir())

	_, err := b.Build(filepath.Join(t.TempDir(), "gone.docx"), "Topic",
		[]string{"Objective"}, map[string]string{"Objective": "text"})
	assert.Error(t, err)
}

func TestOutputFilename(t *testing.T) {
	name := outputFilename("Cloud / Edge: Computing!")
	assert.True(t, strings.HasPrefix(name, "Assignment_Cloud__Edge_Computing_"), "got %s", name)

	assert.True(t, strings.HasPrefix(outputFilename("///"), "Assignment_Student_"))
}
