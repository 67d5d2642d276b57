package port

import "folio/internal/domain"

type Catalog interface {
	AddStories(stories []domain.Story) error

	Search(filter domain.StoryFilter, limit int) ([]domain.StoryResult, error)

	Count() (uint64, error)

	Close() error
}
