// Package pptxtest reads presentations back for assertions in tests.
package pptxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// Slide is the text content of one slide as found in the package.
type Slide struct {
	Layout string
	Title  string
	Body   string
}

type presentation struct {
	Slides []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type shapeTree struct {
	Shapes []struct {
		Ph *struct {
			Type string `xml:"type,attr"`
			Idx  string `xml:"idx,attr"`
		} `xml:"nvSpPr>nvPr>ph"`
		Paras []struct {
			Runs []struct {
				T string `xml:"t"`
			} `xml:"r"`
		} `xml:"txBody>p"`
	} `xml:"cSld>spTree>sp"`
}

type layout struct {
	Name string `xml:"name,attr"`
}

type layoutDoc struct {
	CSld layout `xml:"cSld"`
}

// Read returns the slides of the presentation in presentation order.
func Read(data []byte) ([]Slide, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	var pres presentation
	if err := decode(files, "ppt/presentation.xml", &pres); err != nil {
		return nil, err
	}
	presRels, err := rels(files, "ppt/_rels/presentation.xml.rels")
	if err != nil {
		return nil, err
	}

	out := make([]Slide, 0, len(pres.Slides))
	for _, ref := range pres.Slides {
		target, ok := presRels[ref.RID]
		if !ok {
			return nil, fmt.Errorf("dangling slide relationship %s", ref.RID)
		}
		slidePart := path.Join("ppt", target)

		var tree shapeTree
		if err := decode(files, slidePart, &tree); err != nil {
			return nil, err
		}

		slideRels, err := rels(files, path.Join(path.Dir(slidePart), "_rels", path.Base(slidePart)+".rels"))
		if err != nil {
			return nil, err
		}
		var ld layoutDoc
		if err := decode(files, path.Join(path.Dir(slidePart), slideRels["rId1"]), &ld); err != nil {
			return nil, err
		}

		s := Slide{Layout: ld.CSld.Name}
		for _, sp := range tree.Shapes {
			if sp.Ph == nil {
				continue
			}
			lines := make([]string, 0, len(sp.Paras))
			for _, p := range sp.Paras {
				var b strings.Builder
				for _, r := range p.Runs {
					b.WriteString(r.T)
				}
				lines = append(lines, b.String())
			}
			text := strings.Join(lines, "\n")
			switch sp.Ph.Type {
			case "title", "ctrTitle":
				s.Title = text
			default:
				s.Body = text
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// Titles returns only the slide titles.
func Titles(data []byte) ([]string, error) {
	slides, err := Read(data)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(slides))
	for i, s := range slides {
		out[i] = s.Title
	}
	return out, nil
}

func rels(files map[string]*zip.File, name string) (map[string]string, error) {
	var r relationships
	if err := decode(files, name, &r); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(r.Items))
	for _, it := range r.Items {
		out[it.ID] = it.Target
	}
	return out, nil
}

func decode(files map[string]*zip.File, name string, v any) error {
	f, ok := files[path.Clean(name)]
	if !ok {
		return fmt.Errorf("part %s not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}
