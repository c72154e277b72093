// Package docx reads the body text of Office Open XML word-processing documents.
//
// Only what conversion needs is extracted: the body-level paragraphs of the
// main document part, in document order, each reduced to its run text.
// Paragraphs nested in tables, text boxes or content controls are not part of
// the body sequence and are skipped.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

const (
	// Extension is the file extension of word-processing documents.
	Extension = ".docx"

	nsMain       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsMainStrict = "http://purl.oclc.org/ooxml/wordprocessingml/main"

	relOfficeDocument = "/officeDocument"
	defaultMainPart   = "word/document.xml"

	// DefaultMaxPartSize bounds the decompressed size of the main document part.
	DefaultMaxPartSize = 64 << 20

	maxRelsSize = 1 << 20
)

var (
	ErrNotZip       = errors.New("not a zip package")
	ErrNoMainPart   = errors.New("main document part not found")
	ErrTooLarge     = errors.New("document exceeds size limit")
	ErrMalformedXML = errors.New("malformed document xml")
)

// Document is the parsed text of a word-processing document.
type Document struct {
	Paragraphs []string
}

// Read parses a document from r. At most limit bytes are read; limit <= 0 means no limit.
func Read(r io.Reader, limit int64) (*Document, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return Parse(bytes.NewReader(data), int64(len(data)))
}

// Parse parses a document from a random access reader of the given size.
// The main document part may decompress to at most DefaultMaxPartSize bytes.
func Parse(ra io.ReaderAt, size int64) (*Document, error) {
	return ParseWithLimit(ra, size, DefaultMaxPartSize)
}

// ParseWithLimit is Parse with an explicit cap on the decompressed size of the
// main document part. partLimit <= 0 means no limit.
func ParseWithLimit(ra io.ReaderAt, size, partLimit int64) (*Document, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotZip, err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[strings.TrimPrefix(f.Name, "/")] = f
	}

	name := mainPartName(files)
	f, ok := files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoMainPart, name)
	}

	// archive/zip fails reads past the declared size, so the header bounds
	// how much the part can inflate to.
	if partLimit > 0 && f.UncompressedSize64 > uint64(partLimit) {
		return nil, ErrTooLarge
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	paras, err := paragraphs(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
	}
	return &Document{Paragraphs: paras}, nil
}

type relationships struct {
	Items []struct {
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// mainPartName resolves the main document part from the package relationships,
// falling back to the conventional location.
func mainPartName(files map[string]*zip.File) string {
	f, ok := files["_rels/.rels"]
	if !ok || f.UncompressedSize64 > maxRelsSize {
		return defaultMainPart
	}
	rc, err := f.Open()
	if err != nil {
		return defaultMainPart
	}
	defer rc.Close()

	var rels relationships
	if err := xml.NewDecoder(rc).Decode(&rels); err != nil {
		return defaultMainPart
	}
	for _, rel := range rels.Items {
		if strings.HasSuffix(rel.Type, relOfficeDocument) {
			return strings.TrimPrefix(path.Clean("/"+rel.Target), "/")
		}
	}
	return defaultMainPart
}

func isWord(n xml.Name, local string) bool {
	return n.Local == local && (n.Space == nsMain || n.Space == nsMainStrict)
}

// paragraphs walks the document part and collects body-level paragraph text.
// Run text counts when the run is a direct child of the paragraph or of a
// hyperlink inside it.
func paragraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		stack []xml.Name
		out   []string
		buf   strings.Builder
		inPar bool
		pAt   int
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !inPar {
				if isWord(t.Name, "p") && len(stack) == 2 &&
					isWord(stack[0], "document") && isWord(stack[1], "body") {
					inPar = true
					pAt = len(stack)
					buf.Reset()
				}
				stack = append(stack, t.Name)
				continue
			}

			if inRun(stack, pAt) {
				switch {
				case isWord(t.Name, "t"):
					var s string
					if err := dec.DecodeElement(&s, &t); err != nil {
						return nil, err
					}
					buf.WriteString(s)
					continue
				case isWord(t.Name, "tab"):
					buf.WriteByte('\t')
				case isWord(t.Name, "br"), isWord(t.Name, "cr"):
					buf.WriteByte('\n')
				}
			}
			stack = append(stack, t.Name)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected end element %s", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
			if inPar && len(stack) == pAt {
				out = append(out, buf.String())
				inPar = false
			}
		}
	}

	if len(stack) != 0 {
		return nil, io.ErrUnexpectedEOF
	}
	return out, nil
}

// inRun reports whether the innermost element is a run that belongs to the
// paragraph opened at depth pAt.
func inRun(stack []xml.Name, pAt int) bool {
	rel := stack[pAt:]
	switch len(rel) {
	case 2:
		return isWord(rel[1], "r")
	case 3:
		return isWord(rel[1], "hyperlink") && isWord(rel[2], "r")
	}
	return false
}
