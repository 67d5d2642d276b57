package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"folio/internal/codec"
	"folio/internal/domain"
)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

type containerXML struct {
	Rootfiles []rootfile `xml:"rootfiles>rootfile"`
}

type rootfile struct {
	FullPath string `xml:"full-path,attr"`
}

type packageXML struct {
	Metadata struct {
		Identifiers  []string `xml:"identifier"`
		Languages    []string `xml:"language"`
		Titles       []string `xml:"title"`
		Creators     []string `xml:"creator"`
		Descriptions []string `xml:"description"`
		Publishers   []string `xml:"publisher"`
	} `xml:"metadata"`
	Manifest struct {
		Items []manifestItem `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		Toc      string    `xml:"toc,attr"`
		Itemrefs []itemref `xml:"itemref"`
	} `xml:"spine"`
}

type manifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type itemref struct {
	IDRef string `xml:"idref,attr"`
}

// Parse reads an epub from memory and returns the book with its chapters and
// table of contents. The book ID is derived from the file bytes and chapter
// IDs from their content, so the same book always maps to the same IDs no
// matter where the file lives. Chapter content is compressed for storage.
func (p *Parser) Parse(data []byte, hash string) (domain.ParsedBook, error) {
	var parsed domain.ParsedBook

	arc, err := newArchive(data)
	if err != nil {
		return parsed, err
	}

	opfPath, err := arc.rootfilePath()
	if err != nil {
		return parsed, err
	}

	opfData, err := arc.read(opfPath)
	if err != nil {
		return parsed, fmt.Errorf("%w: %v", domain.ErrMalformedArchive, err)
	}

	var pkg packageXML
	if err := xml.Unmarshal(opfData, &pkg); err != nil {
		return parsed, fmt.Errorf("%w: %v", domain.ErrMalformedArchive, err)
	}

	opfDir := path.Dir(opfPath)
	bookID := uuid.NewSHA1(uuid.Nil, data)

	book, err := bookMetadata(&pkg, bookID, hash)
	if err != nil {
		return parsed, err
	}

	items := make(map[string]manifestItem, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		items[item.ID] = item
	}

	// Spine order defines chapter order. Index is 1-based so that a
	// bookmarkable "chapter 1" is the first spine entry.
	var chapters []domain.Chapter
	spineIndex := make(map[string]int, len(pkg.Spine.Itemrefs))
	for i, ref := range pkg.Spine.Itemrefs {
		item, ok := items[ref.IDRef]
		if !ok {
			return parsed, fmt.Errorf("%w: spine references unknown manifest item %q", domain.ErrMalformedArchive, ref.IDRef)
		}

		full := resolveHref(opfDir, item.Href)
		content, err := arc.read(full)
		if err != nil {
			return parsed, fmt.Errorf("failed to read spine item %s: %w", full, err)
		}

		chapters = append(chapters, domain.Chapter{
			ID:      uuid.NewSHA1(bookID, content),
			BookID:  bookID,
			Index:   int64(i) + 1,
			Content: codec.Compress(content),
		})
		if _, seen := spineIndex[full]; !seen {
			spineIndex[full] = i
		}
	}

	navPoints, err := tocPoints(arc, &pkg, items, opfDir)
	if err != nil {
		return parsed, err
	}

	var toc []domain.TocEntry
	for i, nav := range navPoints {
		pos, ok := spineIndex[nav.path]
		if !ok {
			return parsed, fmt.Errorf("%s: %w", nav.path, domain.ErrTocTargetMissing)
		}
		toc = append(toc, domain.TocEntry{
			BookID:    bookID,
			Index:     int64(i),
			ChapterID: chapters[pos].ID,
			Title:     nav.title,
		})
	}

	parsed.Book = book
	parsed.Chapters = chapters
	parsed.Toc = toc
	return parsed, nil
}

func bookMetadata(pkg *packageXML, id uuid.UUID, hash string) (domain.Book, error) {
	md := pkg.Metadata

	identifier := firstValue(md.Identifiers)
	if identifier == "" {
		return domain.Book{}, &domain.MetadataError{Field: "identifier"}
	}
	language := firstValue(md.Languages)
	if language == "" {
		return domain.Book{}, &domain.MetadataError{Field: "language"}
	}
	title := firstValue(md.Titles)
	if title == "" {
		return domain.Book{}, &domain.MetadataError{Field: "title"}
	}

	return domain.Book{
		ID:          id,
		Identifier:  identifier,
		Language:    language,
		Title:       title,
		Creator:     firstValue(md.Creators),
		Description: firstValue(md.Descriptions),
		Publisher:   firstValue(md.Publishers),
		Hash:        hash,
	}, nil
}

func firstValue(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// resolveHref turns a manifest or toc href into a full archive path. Hrefs
// are URLs, so a space in a filename arrives as %20 while the zip entry
// holds the literal name.
func resolveHref(dir, href string) string {
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	return path.Join(dir, href)
}

type archive struct {
	files map[string]*zip.File
}

func newArchive(data []byte) (*archive, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedArchive, err)
	}

	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		files[path.Clean(f.Name)] = f
	}
	return &archive{files: files}, nil
}

func (a *archive) read(name string) ([]byte, error) {
	f, ok := a.files[path.Clean(name)]
	if !ok {
		return nil, fmt.Errorf("no archive entry %s", name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open archive entry %s: %w", name, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

func (a *archive) rootfilePath() (string, error) {
	data, err := a.read("META-INF/container.xml")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedArchive, err)
	}

	var c containerXML
	if err := xml.Unmarshal(data, &c); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedArchive, err)
	}
	if len(c.Rootfiles) == 0 || c.Rootfiles[0].FullPath == "" {
		return "", fmt.Errorf("%w: container lists no rootfile", domain.ErrMalformedArchive)
	}

	return c.Rootfiles[0].FullPath, nil
}
