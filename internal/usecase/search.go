package usecase

import (
	"fmt"

	"folio/internal/adapter/filter"
	"folio/internal/domain"
	"folio/internal/port"
)

// SearchUseCase compiles query strings and runs them against the catalog.
type SearchUseCase struct {
	catalog port.Catalog
	limit   int
}

// NewSearchUseCase creates a new search use case. limit is the result cap
// used when the caller does not supply one.
func NewSearchUseCase(catalog port.Catalog, limit int) *SearchUseCase {
	if limit <= 0 {
		limit = 50
	}
	return &SearchUseCase{
		catalog: catalog,
		limit:   limit,
	}
}

// Search compiles input into a filter and executes it. Directive syntax
// errors come back unwrapped so callers can show them as user mistakes
// rather than catalog failures.
func (u *SearchUseCase) Search(input string, limit int) ([]domain.StoryResult, error) {
	f, err := filter.Compile(input)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = u.limit
	}

	results, err := u.catalog.Search(*f, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search catalog: %w", err)
	}
	return results, nil
}
