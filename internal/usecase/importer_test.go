package usecase

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"folio/internal/adapter/catalog"
	"folio/internal/domain"
)

const archiveIndex = `{
"101": { "id": 101, "archive": { "path": "epub/sunset-flight.epub" }, "author": { "id": 9, "name": "Quill" }, "title": "Sunset Flight", "description_html": "<p>An adventure.</p>", "completion_status": "complete", "content_rating": "everyone", "num_likes": 10, "num_dislikes": 0, "num_words": 4200, "num_views": 900, "tags": [ { "id": 5, "name": "Adventure", "type": "genre" } ] },
"102": { "id": 102, "archive": { "path": "epub/untitled.epub" }, "author": { "id": 3, "name": "Marlowe" }, "title": null, "description_html": null, "completion_status": "incomplete", "content_rating": "teen", "num_likes": 3, "num_dislikes": 1, "num_words": 800, "tags": [] }
}`

func TestImportIndexesRecords(t *testing.T) {
	c, err := catalog.NewMemoryCatalog()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	uc := NewImportUseCase(c, 1000)
	result, err := uc.importRecords(strings.NewReader(archiveIndex), nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 0 {
		t.Errorf("unexpected result: %+v", result)
	}

	count, err := c.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 stories indexed, got %d", count)
	}

	results, err := c.Search(domain.StoryFilter{Authors: []string{"Quill"}}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 story by Quill, got %d", len(results))
	}
	r := results[0]
	if r.Title != "Sunset Flight" || r.Path != "epub/sunset-flight.epub" {
		t.Errorf("unexpected projection: %+v", r)
	}
	if r.Likes != 10 || r.Dislikes != 0 || r.Words != 4200 {
		t.Errorf("unexpected counters: %+v", r)
	}
	if math.Abs(r.Wilson-domain.WilsonLowerBound(10, 0)) > 1e-9 {
		t.Errorf("expected wilson computed at import, got %v", r.Wilson)
	}
	if len(r.Tags) != 1 || r.Tags[0] != "Adventure" {
		t.Errorf("unexpected tags: %v", r.Tags)
	}

	// Missing title and description fall back to defaults.
	results, err = c.Search(domain.StoryFilter{Authors: []string{"Marlowe"}}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Title != "UNTITLED" {
		t.Errorf("expected UNTITLED fallback, got %+v", results)
	}
	if results[0].Description != "" {
		t.Errorf("expected empty description, got %q", results[0].Description)
	}
}

func TestImportSkipsMalformedLines(t *testing.T) {
	index := `{
"101": { "id": 101, "archive": { "path": "a.epub" }, "author": { "name": "A" }, "title": "Fine", "completion_status": "complete", "content_rating": "everyone", "num_likes": 1, "num_dislikes": 0, "num_words": 100, "tags": [] },
"102": { this line is broken },
"103": { "id": 103, "archive": { "path": "b.epub" }, "author": { "name": "B" }, "title": "Also Fine", "completion_status": "complete", "content_rating": "everyone", "num_likes": 2, "num_dislikes": 0, "num_words": 200, "tags": [] }
}`

	c, err := catalog.NewMemoryCatalog()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	result, err := NewImportUseCase(c, 1000).importRecords(strings.NewReader(index), nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if result.Imported != 2 || result.Skipped != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "line 3") {
		t.Errorf("expected an error for line 3, got %v", result.Errors)
	}
}

// recordingCatalog copies each AddStories argument because the importer
// reuses its batch slice between flushes.
type recordingCatalog struct {
	batches [][]domain.Story
}

func (c *recordingCatalog) AddStories(stories []domain.Story) error {
	batch := make([]domain.Story, len(stories))
	copy(batch, stories)
	c.batches = append(c.batches, batch)
	return nil
}

func (c *recordingCatalog) Search(filter domain.StoryFilter, limit int) ([]domain.StoryResult, error) {
	return nil, nil
}

func (c *recordingCatalog) Count() (uint64, error) {
	total := 0
	for _, b := range c.batches {
		total += len(b)
	}
	return uint64(total), nil
}

func (c *recordingCatalog) Close() error { return nil }

func TestImportFlushesInBatches(t *testing.T) {
	var lines []string
	lines = append(lines, "{")
	for i := 0; i < 5; i++ {
		comma := ","
		if i == 4 {
			comma = ""
		}
		lines = append(lines, fmt.Sprintf(
			`"%d": { "id": %d, "archive": { "path": "epub/%d.epub" }, "author": { "name": "A" }, "title": "Story %d", "completion_status": "complete", "content_rating": "everyone", "num_likes": 1, "num_dislikes": 0, "num_words": 100, "tags": [] }%s`,
			200+i, 200+i, 200+i, i, comma))
	}
	lines = append(lines, "}")

	rec := &recordingCatalog{}
	result, err := NewImportUseCase(rec, 2).importRecords(strings.NewReader(strings.Join(lines, "\n")), nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if result.Imported != 5 {
		t.Errorf("expected 5 imported, got %d", result.Imported)
	}
	if len(rec.batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(rec.batches))
	}
	if len(rec.batches[0]) != 2 || len(rec.batches[1]) != 2 || len(rec.batches[2]) != 1 {
		t.Errorf("unexpected batch sizes: %d %d %d", len(rec.batches[0]), len(rec.batches[1]), len(rec.batches[2]))
	}
}

func TestImportFromFileWithProgress(t *testing.T) {
	dir, err := os.MkdirTemp("", "folio-import-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "index.json")
	if err := os.WriteFile(path, []byte(archiveIndex), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := catalog.NewMemoryCatalog()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ticks := 0
	result, err := NewImportUseCase(c, 1000).Import(path, func(processed, total int, currentFile string) {
		ticks = processed
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if result.Imported != 2 {
		t.Errorf("expected 2 imported, got %d", result.Imported)
	}
	if ticks != 4 {
		t.Errorf("expected a tick for each of the 4 lines, got %d", ticks)
	}
}
