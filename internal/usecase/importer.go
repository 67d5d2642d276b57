package usecase

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"folio/internal/domain"
	"folio/internal/port"
)

// ImportUseCase loads fimfarchive story metadata into the search catalog.
type ImportUseCase struct {
	catalog   port.Catalog
	batchSize int
}

// NewImportUseCase creates a new import use case.
func NewImportUseCase(catalog port.Catalog, batchSize int) *ImportUseCase {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &ImportUseCase{
		catalog:   catalog,
		batchSize: batchSize,
	}
}

// ImportResult contains the results of an import operation.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []string
}

// storyRecord mirrors one entry of the archive's index.json. Optional
// fields come through as pointers so absent values can fall back to
// defaults instead of empty strings.
type storyRecord struct {
	ID      int64 `json:"id"`
	Archive struct {
		Path string `json:"path"`
	} `json:"archive"`
	Author struct {
		Name string `json:"name"`
	} `json:"author"`
	Title            *string `json:"title"`
	DescriptionHTML  *string `json:"description_html"`
	CompletionStatus string  `json:"completion_status"`
	ContentRating    string  `json:"content_rating"`
	NumLikes         int64   `json:"num_likes"`
	NumDislikes      int64   `json:"num_dislikes"`
	NumWords         int64   `json:"num_words"`
	Tags             []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

// Import reads the archive index at path and indexes every story record.
func (u *ImportUseCase) Import(path string, progress ProgressFunc) (*ImportResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive index: %w", err)
	}
	defer file.Close()

	return u.importRecords(file, progress)
}

func (u *ImportUseCase) importRecords(r io.Reader, progress ProgressFunc) (*ImportResult, error) {
	result := &ImportResult{}

	scanner := bufio.NewScanner(r)
	// Single records with long descriptions overflow the default split
	// buffer.
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	batch := make([]domain.Story, 0, u.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := u.catalog.AddStories(batch); err != nil {
			return fmt.Errorf("failed to index story batch: %w", err)
		}
		result.Imported += len(batch)
		batch = batch[:0]
		return nil
	}

	line := 0
	for scanner.Scan() {
		line++

		story, ok, err := parseRecordLine(scanner.Bytes())
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			result.Skipped++
		} else if ok {
			batch = append(batch, story)
			if len(batch) >= u.batchSize {
				if err := flush(); err != nil {
					return nil, err
				}
			}
		}

		if progress != nil {
			progress(line, 0, "")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read archive index: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return result, nil
}

// parseRecordLine extracts the story object embedded in one line of the
// index. The index is a single giant JSON object with one story per line,
// so wrapper lines and trailing commas have to be peeled off first.
func parseRecordLine(line []byte) (domain.Story, bool, error) {
	if len(line) <= 1 {
		return domain.Story{}, false, nil
	}
	start := bytes.IndexByte(line, '{')
	if start < 0 {
		return domain.Story{}, false, nil
	}
	end := len(line)
	if line[end-1] != '}' {
		end--
	}

	var rec storyRecord
	if err := json.Unmarshal(line[start:end], &rec); err != nil {
		return domain.Story{}, false, fmt.Errorf("failed to decode story record: %w", err)
	}

	story := domain.Story{
		ID:       rec.ID,
		Title:    "UNTITLED",
		Author:   rec.Author.Name,
		Path:     rec.Archive.Path,
		Likes:    rec.NumLikes,
		Dislikes: rec.NumDislikes,
		Words:    rec.NumWords,
		Wilson:   domain.WilsonLowerBound(rec.NumLikes, rec.NumDislikes),
		Status:   rec.CompletionStatus,
		Rating:   rec.ContentRating,
	}
	if rec.Title != nil {
		story.Title = *rec.Title
	}
	if rec.DescriptionHTML != nil {
		story.Description = *rec.DescriptionHTML
	}
	for _, t := range rec.Tags {
		story.Tags = append(story.Tags, t.Name)
	}
	return story, true, nil
}
