package port

import (
	"folio/internal/domain"

	"github.com/google/uuid"
)

type LibraryStore interface {
	ContentHashes() (map[string]struct{}, error)

	InsertBooks(books []domain.ParsedBook) error

	Books() ([]domain.Book, error)

	Book(id uuid.UUID) (domain.Book, error)

	Chapter(bookID uuid.UUID, index int64) (domain.Chapter, error)

	ChapterByID(id uuid.UUID) (domain.Chapter, error)

	ChapterCount(bookID uuid.UUID) (int64, error)

	Toc(bookID uuid.UUID) ([]domain.TocEntry, error)

	PutBookmark(mark domain.Bookmark) error

	Bookmarks() ([]domain.Bookmark, error)

	DeleteBookmark(bookID uuid.UUID) error

	Setting(key string) (string, error)

	Settings() (map[string]string, error)

	PutSetting(key, value string) error

	DeleteSetting(key string) error

	Close() error
}
