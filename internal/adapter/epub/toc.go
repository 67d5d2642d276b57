package epub

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"folio/internal/domain"
)

type navPoint struct {
	title string
	path  string
}

// tocPoints extracts the table of contents. EPUB3 books flag a nav document
// in the manifest; older books reference an NCX from the spine. Nested
// entries flatten in document order. A book without either has no table of
// contents, which is not an error.
func tocPoints(arc *archive, pkg *packageXML, items map[string]manifestItem, opfDir string) ([]navPoint, error) {
	for _, item := range pkg.Manifest.Items {
		if hasProperty(item.Properties, "nav") {
			full := resolveHref(opfDir, item.Href)
			data, err := arc.read(full)
			if err != nil {
				return nil, fmt.Errorf("failed to read nav document %s: %w", full, err)
			}
			return parseNav(data, path.Dir(full), full)
		}
	}

	ncxItem, ok := items[pkg.Spine.Toc]
	if !ok {
		for _, item := range pkg.Manifest.Items {
			if item.MediaType == "application/x-dtbncx+xml" {
				ncxItem = item
				ok = true
				break
			}
		}
	}
	if !ok {
		return nil, nil
	}

	full := resolveHref(opfDir, ncxItem.Href)
	data, err := arc.read(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read ncx %s: %w", full, err)
	}
	return parseNCX(data, path.Dir(full), full)
}

func hasProperty(properties, want string) bool {
	for _, p := range strings.Fields(properties) {
		if p == want {
			return true
		}
	}
	return false
}

// entryPath resolves a toc link to a full archive path. Fragments address a
// spot inside a chapter and are dropped so the link maps to a spine entry; a
// fragment-only link points into the toc document itself.
func entryPath(dir, docPath, href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if href == "" {
		return docPath
	}
	return resolveHref(dir, href)
}

type ncxXML struct {
	NavMap struct {
		NavPoints []ncxNavPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type ncxNavPoint struct {
	Label   string `xml:"navLabel>text"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []ncxNavPoint `xml:"navPoint"`
}

func parseNCX(data []byte, dir, docPath string) ([]navPoint, error) {
	var ncx ncxXML
	if err := xml.Unmarshal(data, &ncx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedArchive, err)
	}

	var points []navPoint
	var walk func(nps []ncxNavPoint)
	walk = func(nps []ncxNavPoint) {
		for _, np := range nps {
			points = append(points, navPoint{
				title: strings.TrimSpace(np.Label),
				path:  entryPath(dir, docPath, np.Content.Src),
			})
			walk(np.Children)
		}
	}
	walk(ncx.NavMap.NavPoints)

	return points, nil
}

// parseNav walks the nav document for the toc nav and collects its links.
// Nav documents are XHTML, so the decoder runs in lenient mode to cope with
// HTML entities and unclosed void elements.
func parseNav(data []byte, dir, docPath string) ([]navPoint, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var (
		points []navPoint
		inToc  bool
		depth  int
		inLink bool
		href   string
		label  strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedArchive, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !inToc {
				if t.Name.Local == "nav" && navType(t.Attr) == "toc" {
					inToc = true
					depth = 1
				}
				continue
			}
			depth++
			if t.Name.Local == "a" {
				inLink = true
				href = attrValue(t.Attr, "href")
				label.Reset()
			}
		case xml.EndElement:
			if !inToc {
				continue
			}
			if inLink && t.Name.Local == "a" {
				points = append(points, navPoint{
					title: strings.Join(strings.Fields(label.String()), " "),
					path:  entryPath(dir, docPath, href),
				})
				inLink = false
			}
			depth--
			if depth == 0 {
				return points, nil
			}
		case xml.CharData:
			if inLink {
				label.Write(t)
			}
		}
	}

	return points, nil
}

func navType(attrs []xml.Attr) string {
	return attrValue(attrs, "type")
}

func attrValue(attrs []xml.Attr, local string) string {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
