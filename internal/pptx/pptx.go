// Package pptx writes PresentationML (.pptx) packages.
//
// A Presentation is built in memory from slides that use one of two layouts,
// "Title Slide" and "Title and Content", and is then written as a complete
// zip package with its master, layouts, theme and document properties.
package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"
)

const (
	// Extension is the file extension of presentations.
	Extension = ".pptx"
	// ContentType is the MIME type of presentations.
	ContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

	defaultCreator = "converter-api"
)

var ErrNoSlides = errors.New("presentation has no slides")

// Layout selects the slide layout a slide is based on.
type Layout int

const (
	// LayoutTitle is the "Title Slide" layout: a centered title.
	LayoutTitle Layout = iota + 1
	// LayoutTitleAndContent is the "Title and Content" layout: a title and a body placeholder.
	LayoutTitleAndContent
)

func (l Layout) String() string {
	switch l {
	case LayoutTitle:
		return "Title Slide"
	case LayoutTitleAndContent:
		return "Title and Content"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// Slide is one slide of a presentation. Body is ignored for LayoutTitle.
type Slide struct {
	Layout Layout
	Title  string
	Body   string
}

// Presentation is an in-memory presentation.
type Presentation struct {
	Title   string
	Creator string
	Created time.Time

	slides []Slide
}

// New returns an empty presentation.
func New() *Presentation {
	return &Presentation{Creator: defaultCreator, Created: time.Now()}
}

// AddTitleSlide appends a "Title Slide" slide.
func (p *Presentation) AddTitleSlide(title string) {
	p.slides = append(p.slides, Slide{Layout: LayoutTitle, Title: title})
}

// AddContentSlide appends a "Title and Content" slide.
func (p *Presentation) AddContentSlide(title, body string) {
	p.slides = append(p.slides, Slide{Layout: LayoutTitleAndContent, Title: title, Body: body})
}

// Slides returns a copy of the slides in order.
func (p *Presentation) Slides() []Slide {
	out := make([]Slide, len(p.slides))
	copy(out, p.slides)
	return out
}

// Len returns the number of slides.
func (p *Presentation) Len() int { return len(p.slides) }

// Bytes renders the package into memory.
func (p *Presentation) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders the package to w.
func (p *Presentation) Write(w io.Writer) error {
	if len(p.slides) == 0 {
		return ErrNoSlides
	}

	zw := zip.NewWriter(w)

	view := p.view()
	rendered := []struct {
		name string
		tmpl string
	}{
		{"[Content_Types].xml", "contentTypes"},
		{"docProps/core.xml", "core"},
		{"docProps/app.xml", "app"},
		{"ppt/presentation.xml", "presentation"},
		{"ppt/_rels/presentation.xml.rels", "presentationRels"},
	}
	for _, part := range rendered {
		var b bytes.Buffer
		if err := templates.ExecuteTemplate(&b, part.tmpl, view); err != nil {
			return fmt.Errorf("render %s: %w", part.name, err)
		}
		if err := writePart(zw, part.name, b.Bytes()); err != nil {
			return err
		}
	}

	static := []struct {
		name    string
		content string
	}{
		{"_rels/.rels", rootRelsXML},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", masterRelsXML},
		{"ppt/slideLayouts/slideLayout1.xml", titleLayoutXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", layoutRelsXML},
		{"ppt/slideLayouts/slideLayout2.xml", contentLayoutXML},
		{"ppt/slideLayouts/_rels/slideLayout2.xml.rels", layoutRelsXML},
		{"ppt/theme/theme1.xml", themeXML},
	}
	for _, part := range static {
		if err := writePart(zw, part.name, []byte(part.content)); err != nil {
			return err
		}
	}

	for _, s := range view.Slides {
		var b bytes.Buffer
		if err := templates.ExecuteTemplate(&b, "slide", s); err != nil {
			return fmt.Errorf("render slide %d: %w", s.Number, err)
		}
		if err := writePart(zw, fmt.Sprintf("ppt/slides/slide%d.xml", s.Number), b.Bytes()); err != nil {
			return err
		}
		b.Reset()
		if err := templates.ExecuteTemplate(&b, "slideRels", s); err != nil {
			return fmt.Errorf("render slide %d rels: %w", s.Number, err)
		}
		if err := writePart(zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", s.Number), b.Bytes()); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close package: %w", err)
	}
	return nil
}

func writePart(zw *zip.Writer, name string, content []byte) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := fw.Write(content); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

type slideView struct {
	Number      int
	ID          int
	RelID       string
	LayoutPart  int
	Placeholder string
	TitleXML    string
	HasBody     bool
	BodyXML     string
}

type presentationView struct {
	Title   string
	Creator string
	Created string
	Slides  []slideView
}

func (p *Presentation) view() presentationView {
	created := p.Created
	if created.IsZero() {
		created = time.Now()
	}
	creator := p.Creator
	if creator == "" {
		creator = defaultCreator
	}

	v := presentationView{
		Title:   p.Title,
		Creator: creator,
		Created: created.UTC().Format(time.RFC3339),
		Slides:  make([]slideView, 0, len(p.slides)),
	}
	for i, s := range p.slides {
		sv := slideView{
			Number:      i + 1,
			ID:          256 + i,
			RelID:       fmt.Sprintf("rId%d", i+3),
			LayoutPart:  1,
			Placeholder: "ctrTitle",
			TitleXML:    paragraphsXML(s.Title),
		}
		if s.Layout == LayoutTitleAndContent {
			sv.LayoutPart = 2
			sv.Placeholder = "title"
			sv.HasBody = true
			sv.BodyXML = paragraphsXML(s.Body)
		}
		v.Slides = append(v.Slides, sv)
	}
	return v
}

// paragraphsXML renders text as DrawingML paragraphs, one per line.
func paragraphsXML(text string) string {
	var b strings.Builder
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			b.WriteString(`<a:p><a:endParaRPr lang="en-US" dirty="0"/></a:p>`)
			continue
		}
		b.WriteString(`<a:p><a:r><a:rPr lang="en-US" dirty="0"/><a:t>`)
		b.WriteString(escape(line))
		b.WriteString(`</a:t></a:r></a:p>`)
	}
	return b.String()
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

var templates = template.Must(template.New("pptx").Funcs(template.FuncMap{"xml": escape}).Parse(
	`{{define "contentTypes"}}` + xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>` +
		`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>` +
		`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>` +
		`<Override PartName="/ppt/slideLayouts/slideLayout2.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>` +
		`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>` +
		`{{range .Slides}}<Override PartName="/ppt/slides/slide{{.Number}}.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>{{end}}` +
		`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
		`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>` +
		`</Types>{{end}}` +

		`{{define "core"}}` + xmlHeader + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>{{xml .Title}}</dc:title><dc:creator>{{xml .Creator}}</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">{{.Created}}</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">{{.Created}}</dcterms:modified>` +
		`</cp:coreProperties>{{end}}` +

		`{{define "app"}}` + xmlHeader + `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
		`<Application>{{xml .Creator}}</Application><Slides>{{len .Slides}}</Slides>` +
		`</Properties>{{end}}` +

		`{{define "presentation"}}` + xmlHeader + `<p:presentation ` + nsDecl + ` saveSubsetFonts="1">` +
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>` +
		`<p:sldIdLst>{{range .Slides}}<p:sldId id="{{.ID}}" r:id="{{.RelID}}"/>{{end}}</p:sldIdLst>` +
		`<p:sldSz cx="9144000" cy="6858000" type="screen4x3"/><p:notesSz cx="6858000" cy="9144000"/>` +
		`</p:presentation>{{end}}` +

		`{{define "presentationRels"}}` + xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>` +
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="theme/theme1.xml"/>` +
		`{{range .Slides}}<Relationship Id="{{.RelID}}" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide{{.Number}}.xml"/>{{end}}` +
		`</Relationships>{{end}}` +

		`{{define "slide"}}` + xmlHeader + `<p:sld ` + nsDecl + `><p:cSld><p:spTree>` + groupShapeProps +
		`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title 1"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="{{.Placeholder}}"/></p:nvPr></p:nvSpPr>` +
		`<p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/>{{.TitleXML}}</p:txBody></p:sp>` +
		`{{if .HasBody}}<p:sp><p:nvSpPr><p:cNvPr id="3" name="Content Placeholder 2"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph idx="1"/></p:nvPr></p:nvSpPr>` +
		`<p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/>{{.BodyXML}}</p:txBody></p:sp>{{end}}` +
		`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>{{end}}` +

		`{{define "slideRels"}}` + xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout{{.LayoutPart}}.xml"/>` +
		`</Relationships>{{end}}`,
))
