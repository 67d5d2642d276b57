package usecase

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"folio/internal/codec"
	"folio/internal/domain"
	"folio/internal/port"
)

// LibraryUseCase serves books, chapters and reading state out of the
// library store. Chapter content is stored compressed; everything handed
// out here is plain text again.
type LibraryUseCase struct {
	library port.LibraryStore
}

// NewLibraryUseCase creates a new library use case.
func NewLibraryUseCase(library port.LibraryStore) *LibraryUseCase {
	return &LibraryUseCase{library: library}
}

func (u *LibraryUseCase) Books() ([]domain.Book, error) {
	return u.library.Books()
}

func (u *LibraryUseCase) Book(id uuid.UUID) (domain.Book, error) {
	return u.library.Book(id)
}

func (u *LibraryUseCase) Toc(bookID uuid.UUID) ([]domain.TocEntry, error) {
	return u.library.Toc(bookID)
}

func (u *LibraryUseCase) ChapterCount(bookID uuid.UUID) (int64, error) {
	return u.library.ChapterCount(bookID)
}

// Chapter returns the 1-based chapter of a book with its content
// decompressed.
func (u *LibraryUseCase) Chapter(bookID uuid.UUID, index int64) (domain.Chapter, error) {
	chapter, err := u.library.Chapter(bookID, index)
	if err != nil {
		return domain.Chapter{}, err
	}
	return u.decompress(chapter)
}

// ChapterByID returns a chapter addressed directly, content decompressed.
func (u *LibraryUseCase) ChapterByID(id uuid.UUID) (domain.Chapter, error) {
	chapter, err := u.library.ChapterByID(id)
	if err != nil {
		return domain.Chapter{}, err
	}
	return u.decompress(chapter)
}

func (u *LibraryUseCase) decompress(chapter domain.Chapter) (domain.Chapter, error) {
	content, err := codec.Decompress(chapter.Content)
	if err != nil {
		return domain.Chapter{}, fmt.Errorf("failed to decompress chapter %s: %w", chapter.ID, err)
	}
	chapter.Content = content
	return chapter, nil
}

// SetBookmark records the reading position for a book. The chapter index is
// validated against the book before anything is written.
func (u *LibraryUseCase) SetBookmark(bookID uuid.UUID, chapterIndex int64, progress float64) (domain.Bookmark, error) {
	if progress < 0 || progress > 1 {
		return domain.Bookmark{}, fmt.Errorf("progress must be between 0 and 1, got %v", progress)
	}

	chapter, err := u.library.Chapter(bookID, chapterIndex)
	if err != nil {
		return domain.Bookmark{}, err
	}

	bookmark := domain.Bookmark{
		BookID:    bookID,
		ChapterID: chapter.ID,
		Progress:  progress,
		Created:   time.Now(),
	}
	if err := u.library.PutBookmark(bookmark); err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to save bookmark: %w", err)
	}
	return bookmark, nil
}

func (u *LibraryUseCase) Bookmarks() ([]domain.Bookmark, error) {
	return u.library.Bookmarks()
}

func (u *LibraryUseCase) RemoveBookmark(bookID uuid.UUID) error {
	return u.library.DeleteBookmark(bookID)
}
