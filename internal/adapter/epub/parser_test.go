package epub

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"folio/internal/codec"
	"folio/internal/domain"
)

const containerDoc = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const packageDoc = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="pub-id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="pub-id">urn:uuid:1d1cbe3d-7cbb-4d7a-b527-91b5eeba3b60</dc:identifier>
    <dc:language>en</dc:language>
    <dc:title>The Test Book</dc:title>
    <dc:creator>A. Author</dc:creator>
    <dc:description>About testing.</dc:description>
    <dc:publisher>Test House</dc:publisher>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch3" href="ch3.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
    <itemref idref="ch3"/>
  </spine>
</package>`

const navDoc = `<?xml version="1.0"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<body>
<nav epub:type="toc">
  <ol>
    <li><a href="ch1.xhtml">Chapter One</a></li>
    <li><a href="ch2.xhtml#part">Chapter Two</a></li>
  </ol>
</nav>
</body>
</html>`

func basicFiles() map[string]string {
	return map[string]string{
		"META-INF/container.xml": containerDoc,
		"OEBPS/content.opf":      packageDoc,
		"OEBPS/nav.xhtml":        navDoc,
		"OEBPS/ch1.xhtml":        "<html><body><p>one</p></body></html>",
		"OEBPS/ch2.xhtml":        "<html><body><p>two</p></body></html>",
		"OEBPS/ch3.xhtml":        "<html><body><p>three</p></body></html>",
	}
}

func buildEpub(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParseReadsMetadataAndChapters(t *testing.T) {
	data := buildEpub(t, basicFiles())

	parsed, err := NewParser().Parse(data, "deadbeef")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	book := parsed.Book
	if book.ID != uuid.NewSHA1(uuid.Nil, data) {
		t.Errorf("book id not derived from file bytes: %s", book.ID)
	}
	if book.Identifier != "urn:uuid:1d1cbe3d-7cbb-4d7a-b527-91b5eeba3b60" {
		t.Errorf("identifier = %q", book.Identifier)
	}
	if book.Language != "en" || book.Title != "The Test Book" {
		t.Errorf("language/title = %q/%q", book.Language, book.Title)
	}
	if book.Creator != "A. Author" || book.Publisher != "Test House" {
		t.Errorf("creator/publisher = %q/%q", book.Creator, book.Publisher)
	}
	if book.Hash != "deadbeef" {
		t.Errorf("hash = %q", book.Hash)
	}

	if len(parsed.Chapters) != 3 {
		t.Fatalf("expected 3 chapters, got %d", len(parsed.Chapters))
	}
	for i, ch := range parsed.Chapters {
		if ch.Index != int64(i)+1 {
			t.Errorf("chapter %d has index %d", i, ch.Index)
		}
		if ch.BookID != book.ID {
			t.Errorf("chapter %d has book id %s", i, ch.BookID)
		}
	}

	raw, err := codec.Decompress(parsed.Chapters[0].Content)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(raw) != "<html><body><p>one</p></body></html>" {
		t.Errorf("chapter content = %q", raw)
	}
	if parsed.Chapters[0].ID != uuid.NewSHA1(book.ID, raw) {
		t.Errorf("chapter id not derived from content")
	}
}

func TestParseIsDeterministic(t *testing.T) {
	data := buildEpub(t, basicFiles())

	first, err := NewParser().Parse(data, "h")
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewParser().Parse(data, "h")
	if err != nil {
		t.Fatal(err)
	}

	if first.Book.ID != second.Book.ID {
		t.Errorf("book ids differ: %s vs %s", first.Book.ID, second.Book.ID)
	}
	for i := range first.Chapters {
		if first.Chapters[i].ID != second.Chapters[i].ID {
			t.Errorf("chapter %d ids differ", i)
		}
	}
}

func TestParseNavToc(t *testing.T) {
	data := buildEpub(t, basicFiles())

	parsed, err := NewParser().Parse(data, "h")
	if err != nil {
		t.Fatal(err)
	}

	if len(parsed.Toc) != 2 {
		t.Fatalf("expected 2 toc entries, got %d", len(parsed.Toc))
	}
	if parsed.Toc[0].Title != "Chapter One" || parsed.Toc[0].Index != 0 {
		t.Errorf("toc[0] = %+v", parsed.Toc[0])
	}
	if parsed.Toc[0].ChapterID != parsed.Chapters[0].ID {
		t.Errorf("toc[0] does not resolve to first chapter")
	}
	// The second link carries a fragment, which must not break resolution.
	if parsed.Toc[1].ChapterID != parsed.Chapters[1].ID {
		t.Errorf("toc[1] does not resolve to second chapter")
	}
}

func TestParseNCXTocFlattensNesting(t *testing.T) {
	files := basicFiles()
	delete(files, "OEBPS/nav.xhtml")
	files["OEBPS/content.opf"] = strings.Replace(
		strings.Replace(packageDoc,
			`<item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>`,
			`<item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>`, 1),
		`<spine>`, `<spine toc="ncx">`, 1)
	files["OEBPS/toc.ncx"] = `<?xml version="1.0"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="p1" playOrder="1">
      <navLabel><text>Part One</text></navLabel>
      <content src="ch1.xhtml"/>
      <navPoint id="p2" playOrder="2">
        <navLabel><text>Part One A</text></navLabel>
        <content src="ch2.xhtml"/>
      </navPoint>
    </navPoint>
    <navPoint id="p3" playOrder="3">
      <navLabel><text>Part Two</text></navLabel>
      <content src="ch3.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

	parsed, err := NewParser().Parse(buildEpub(t, files), "h")
	if err != nil {
		t.Fatal(err)
	}

	want := []struct {
		title   string
		chapter int
	}{
		{"Part One", 0},
		{"Part One A", 1},
		{"Part Two", 2},
	}
	if len(parsed.Toc) != len(want) {
		t.Fatalf("expected %d toc entries, got %d", len(want), len(parsed.Toc))
	}
	for i, w := range want {
		entry := parsed.Toc[i]
		if entry.Title != w.title || entry.Index != int64(i) {
			t.Errorf("toc[%d] = %+v", i, entry)
		}
		if entry.ChapterID != parsed.Chapters[w.chapter].ID {
			t.Errorf("toc[%d] resolves to the wrong chapter", i)
		}
	}
}

func TestParseWithoutTocIsFine(t *testing.T) {
	files := basicFiles()
	delete(files, "OEBPS/nav.xhtml")
	files["OEBPS/content.opf"] = strings.Replace(packageDoc,
		`<item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>`, "", 1)

	parsed, err := NewParser().Parse(buildEpub(t, files), "h")
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.Toc) != 0 {
		t.Errorf("expected empty toc, got %d entries", len(parsed.Toc))
	}
	if len(parsed.Chapters) != 3 {
		t.Errorf("expected chapters regardless of toc, got %d", len(parsed.Chapters))
	}
}

func TestParseMissingRequiredMetadata(t *testing.T) {
	files := basicFiles()
	files["OEBPS/content.opf"] = strings.Replace(packageDoc, "<dc:title>The Test Book</dc:title>", "", 1)

	_, err := NewParser().Parse(buildEpub(t, files), "h")
	var metaErr *domain.MetadataError
	if !errors.As(err, &metaErr) {
		t.Fatalf("expected MetadataError, got %v", err)
	}
	if metaErr.Field != "title" {
		t.Errorf("field = %q", metaErr.Field)
	}
}

func TestParseTocTargetOutsideSpine(t *testing.T) {
	files := basicFiles()
	files["OEBPS/nav.xhtml"] = strings.Replace(navDoc, "ch1.xhtml", "cover.xhtml", 1)
	files["OEBPS/cover.xhtml"] = "<html><body>cover</body></html>"

	_, err := NewParser().Parse(buildEpub(t, files), "h")
	if !errors.Is(err, domain.ErrTocTargetMissing) {
		t.Fatalf("expected ErrTocTargetMissing, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewParser().Parse([]byte("not a zip archive"), "h")
	if !errors.Is(err, domain.ErrMalformedArchive) {
		t.Fatalf("expected ErrMalformedArchive, got %v", err)
	}
}

func TestParsePercentEncodedHrefs(t *testing.T) {
	files := map[string]string{
		"META-INF/container.xml": containerDoc,
		"OEBPS/content.opf": `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier>x</dc:identifier>
    <dc:language>en</dc:language>
    <dc:title>Spaces</dc:title>
  </metadata>
  <manifest>
    <item id="ch1" href="first%20chapter.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="ch1"/>
  </spine>
</package>`,
		"OEBPS/first chapter.xhtml": "<html><body>spaced</body></html>",
	}

	parsed, err := NewParser().Parse(buildEpub(t, files), "h")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed.Chapters) != 1 {
		t.Fatalf("expected 1 chapter, got %d", len(parsed.Chapters))
	}
}
