package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"folio/internal/domain"
)

const defaultBatchSize = 1000

// BleveCatalog implements the story catalog on a Bleve index. Field values
// that act as exact filters are indexed as facet-style paths ("/author/...",
// "/tag/...") under the keyword analyzer, so term queries match them byte
// for byte while title and description remain the only free-text fields.
type BleveCatalog struct {
	index     bleve.Index
	batchSize int
}

// NewBleveCatalog opens the index at path, creating it with the story
// mapping when it does not exist yet.
func NewBleveCatalog(path string, batchSize int) (*BleveCatalog, error) {
	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create catalog index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to open catalog index: %w", err)
	}

	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &BleveCatalog{index: index, batchSize: batchSize}, nil
}

// NewMemoryCatalog builds a catalog on an in-memory index.
func NewMemoryCatalog() (*BleveCatalog, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog index: %w", err)
	}
	return &BleveCatalog{index: index, batchSize: defaultBatchSize}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	storyMapping := bleve.NewDocumentMapping()

	titleField := bleve.NewTextFieldMapping()
	titleField.Store = true
	titleField.Analyzer = standard.Name
	storyMapping.AddFieldMappingsAt("title", titleField)

	descriptionField := bleve.NewTextFieldMapping()
	descriptionField.Store = true
	descriptionField.Analyzer = standard.Name
	storyMapping.AddFieldMappingsAt("description", descriptionField)

	// Exact-match fields stay out of the composite field so that free text
	// never accidentally hits an author or tag path.
	for _, name := range []string{"author", "status", "rating", "tags", "path"} {
		field := bleve.NewTextFieldMapping()
		field.Store = true
		field.Analyzer = "keyword"
		field.IncludeInAll = false
		storyMapping.AddFieldMappingsAt(name, field)
	}

	for _, name := range []string{"likes", "dislikes", "words", "wilson"} {
		field := bleve.NewNumericFieldMapping()
		field.Store = true
		field.IncludeInAll = false
		storyMapping.AddFieldMappingsAt(name, field)
	}

	indexMapping.DefaultMapping = storyMapping
	return indexMapping
}

func storyDocument(s domain.Story) map[string]interface{} {
	tags := make([]string, len(s.Tags))
	for i, t := range s.Tags {
		tags[i] = "/tag/" + t
	}
	return map[string]interface{}{
		"title":       s.Title,
		"description": s.Description,
		"path":        s.Path,
		"author":      "/author/" + s.Author,
		"status":      "/status/" + s.Status,
		"rating":      "/rating/" + s.Rating,
		"tags":        tags,
		"likes":       s.Likes,
		"dislikes":    s.Dislikes,
		"words":       s.Words,
		"wilson":      s.Wilson,
	}
}

// AddStories indexes stories in batches, committing every batchSize
// documents. A story indexed twice under the same id replaces the earlier
// document.
func (c *BleveCatalog) AddStories(stories []domain.Story) error {
	batch := c.index.NewBatch()
	for _, s := range stories {
		if err := batch.Index(strconv.FormatInt(s.ID, 10), storyDocument(s)); err != nil {
			return fmt.Errorf("failed to queue story %d: %w", s.ID, err)
		}
		if batch.Size() >= c.batchSize {
			if err := c.index.Batch(batch); err != nil {
				return fmt.Errorf("failed to commit story batch: %w", err)
			}
			batch = c.index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := c.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to commit story batch: %w", err)
		}
	}
	return nil
}

// Search runs the compiled filter against the index and projects stored
// fields back into results. Results come back by descending score unless
// the filter orders by a numeric field.
func (c *BleveCatalog) Search(filter domain.StoryFilter, limit int) ([]domain.StoryResult, error) {
	if limit <= 0 {
		limit = 10
	}

	req := bleve.NewSearchRequest(buildQuery(filter))
	req.Size = limit
	req.Fields = []string{"*"}

	switch filter.Order {
	case domain.OrderWords:
		req.SortBy([]string{"-words"})
	case domain.OrderLikes:
		req.SortBy([]string{"-likes"})
	case domain.OrderDislikes:
		req.SortBy([]string{"-dislikes"})
	case domain.OrderWilson:
		req.SortBy([]string{"-wilson"})
	}

	res, err := c.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]domain.StoryResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		results = append(results, projectHit(hit.Fields))
	}
	return results, nil
}

// buildQuery assembles the boolean query tree. Every directive group becomes
// a required clause; values inside an any-of group are alternatives.
func buildQuery(filter domain.StoryFilter) query.Query {
	boolQuery := bleve.NewBooleanQuery()
	clauses := 0

	if len(filter.Authors) == 1 {
		boolQuery.AddMust(termQuery("author", "/author/"+filter.Authors[0]))
		clauses++
	} else if len(filter.Authors) > 1 {
		alternatives := make([]query.Query, len(filter.Authors))
		for i, a := range filter.Authors {
			alternatives[i] = termQuery("author", "/author/"+a)
		}
		boolQuery.AddMust(bleve.NewDisjunctionQuery(alternatives...))
		clauses++
	}

	if len(filter.Tags) > 0 || len(filter.TagsAny) > 0 || len(filter.TagsNot) > 0 {
		tagQuery := bleve.NewBooleanQuery()
		for _, t := range filter.TagsNot {
			tagQuery.AddMustNot(termQuery("tags", "/tag/"+t))
		}
		if len(filter.TagsAny) > 0 {
			alternatives := make([]query.Query, len(filter.TagsAny))
			for i, t := range filter.TagsAny {
				alternatives[i] = termQuery("tags", "/tag/"+t)
			}
			tagQuery.AddMust(bleve.NewDisjunctionQuery(alternatives...))
		}
		for _, t := range filter.Tags {
			tagQuery.AddMust(termQuery("tags", "/tag/"+t))
		}
		boolQuery.AddMust(tagQuery)
		clauses++
	}

	for field, rng := range map[string]*domain.IntRange{
		"words":    filter.Words,
		"likes":    filter.Likes,
		"dislikes": filter.Dislikes,
	} {
		if rng == nil {
			continue
		}
		min := float64(rng.Min)
		max := float64(rng.Max)
		minIncl := true
		maxIncl := false
		q := bleve.NewNumericRangeInclusiveQuery(&min, &max, &minIncl, &maxIncl)
		q.SetField(field)
		boolQuery.AddMust(q)
		clauses++
	}

	if filter.Wilson != nil {
		q := bleve.NewNumericRangeInclusiveQuery(
			&filter.Wilson.Min, &filter.Wilson.Max,
			&filter.Wilson.MinInclusive, &filter.Wilson.MaxInclusive,
		)
		q.SetField("wilson")
		boolQuery.AddMust(q)
		clauses++
	}

	for _, r := range filter.Ratings {
		boolQuery.AddMust(termQuery("rating", "/rating/"+r))
		clauses++
	}
	for _, s := range filter.Statuses {
		boolQuery.AddMust(termQuery("status", "/status/"+s))
		clauses++
	}

	if filter.Text != "" {
		boolQuery.AddMust(bleve.NewQueryStringQuery(filter.Text))
		clauses++
	}

	if clauses == 0 {
		return bleve.NewMatchAllQuery()
	}
	return boolQuery
}

func termQuery(field, term string) query.Query {
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	return q
}

func projectHit(fields map[string]interface{}) domain.StoryResult {
	var r domain.StoryResult
	if title, ok := fields["title"].(string); ok {
		r.Title = title
	}
	if description, ok := fields["description"].(string); ok {
		r.Description = description
	}
	if path, ok := fields["path"].(string); ok {
		r.Path = path
	}
	if author, ok := fields["author"].(string); ok {
		r.Author = strings.TrimPrefix(author, "/author/")
	}
	if status, ok := fields["status"].(string); ok {
		r.Status = strings.TrimPrefix(status, "/status/")
	}
	if rating, ok := fields["rating"].(string); ok {
		r.Rating = strings.TrimPrefix(rating, "/rating/")
	}
	if likes, ok := fields["likes"].(float64); ok {
		r.Likes = int64(likes)
	}
	if dislikes, ok := fields["dislikes"].(float64); ok {
		r.Dislikes = int64(dislikes)
	}
	if words, ok := fields["words"].(float64); ok {
		r.Words = int64(words)
	}
	if wilson, ok := fields["wilson"].(float64); ok {
		r.Wilson = wilson
	}

	// Bleve hands single-element arrays back as a bare value.
	switch tags := fields["tags"].(type) {
	case string:
		r.Tags = []string{strings.TrimPrefix(tags, "/tag/")}
	case []interface{}:
		for _, tag := range tags {
			if t, ok := tag.(string); ok {
				r.Tags = append(r.Tags, strings.TrimPrefix(t, "/tag/"))
			}
		}
	}
	return r
}

// Count reports the number of indexed stories.
func (c *BleveCatalog) Count() (uint64, error) {
	return c.index.DocCount()
}

func (c *BleveCatalog) Close() error {
	return c.index.Close()
}
