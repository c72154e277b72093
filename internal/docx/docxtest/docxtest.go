// Package docxtest builds minimal word-processing documents for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strings"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const rootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// Build returns a .docx package with one body paragraph per text.
func Build(paragraphs ...string) []byte {
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(Paragraph(p))
	}
	return BuildRaw(body.String())
}

// Paragraph renders a single-run paragraph.
func Paragraph(text string) string {
	if text == "" {
		return `<w:p/>`
	}
	var b strings.Builder
	b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
	_ = xml.EscapeText(&b, []byte(text))
	b.WriteString(`</w:t></w:r></w:p>`)
	return b.String()
}

// BuildRaw returns a .docx package whose body holds the given WordprocessingML markup.
func BuildRaw(bodyXML string) []byte {
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>` +
		bodyXML + `<w:sectPr/></w:body></w:document>`

	return Package(map[string]string{
		"[Content_Types].xml": contentTypes,
		"_rels/.rels":         rootRels,
		"word/document.xml":   doc,
	})
}

// Package zips the given parts.
func Package(parts map[string]string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
