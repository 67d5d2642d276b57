package usecase

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"folio/internal/adapter/memstore"
	"folio/internal/codec"
	"folio/internal/domain"
)

func libraryFixture(t *testing.T) (*LibraryUseCase, domain.ParsedBook) {
	t.Helper()

	book := domain.Book{
		ID:         uuid.New(),
		Identifier: "urn:fixture",
		Language:   "en",
		Title:      "Fixture Book",
		Hash:       "hash-1",
	}
	parsed := domain.ParsedBook{
		Book: book,
		Chapters: []domain.Chapter{
			{ID: uuid.New(), BookID: book.ID, Index: 1, Content: codec.Compress([]byte("chapter one text"))},
			{ID: uuid.New(), BookID: book.ID, Index: 2, Content: codec.Compress([]byte("chapter two text"))},
		},
	}
	parsed.Toc = []domain.TocEntry{
		{BookID: book.ID, Index: 1, ChapterID: parsed.Chapters[0].ID, Title: "One"},
		{BookID: book.ID, Index: 2, ChapterID: parsed.Chapters[1].ID, Title: "Two"},
	}

	store := memstore.NewMemoryStore()
	if err := store.InsertBooks([]domain.ParsedBook{parsed}); err != nil {
		t.Fatal(err)
	}
	return NewLibraryUseCase(store), parsed
}

func TestChapterContentIsDecompressed(t *testing.T) {
	uc, parsed := libraryFixture(t)

	chapter, err := uc.Chapter(parsed.Book.ID, 1)
	if err != nil {
		t.Fatalf("failed to load chapter: %v", err)
	}
	if string(chapter.Content) != "chapter one text" {
		t.Errorf("unexpected content: %q", chapter.Content)
	}

	chapter, err = uc.ChapterByID(parsed.Chapters[1].ID)
	if err != nil {
		t.Fatalf("failed to load chapter by id: %v", err)
	}
	if string(chapter.Content) != "chapter two text" {
		t.Errorf("unexpected content: %q", chapter.Content)
	}
}

func TestChapterOutOfRange(t *testing.T) {
	uc, parsed := libraryFixture(t)

	if _, err := uc.Chapter(parsed.Book.ID, 3); !errors.Is(err, domain.ErrChapterNotFound) {
		t.Errorf("expected ErrChapterNotFound, got %v", err)
	}
	if _, err := uc.Chapter(uuid.New(), 1); !errors.Is(err, domain.ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
}

func TestTocListsEntries(t *testing.T) {
	uc, parsed := libraryFixture(t)

	toc, err := uc.Toc(parsed.Book.ID)
	if err != nil {
		t.Fatalf("failed to load toc: %v", err)
	}
	if len(toc) != 2 || toc[0].Title != "One" || toc[1].Title != "Two" {
		t.Errorf("unexpected toc: %+v", toc)
	}
}

func TestSetBookmark(t *testing.T) {
	uc, parsed := libraryFixture(t)

	mark, err := uc.SetBookmark(parsed.Book.ID, 2, 0.25)
	if err != nil {
		t.Fatalf("failed to set bookmark: %v", err)
	}
	if mark.ChapterID != parsed.Chapters[1].ID {
		t.Errorf("bookmark points at wrong chapter: %s", mark.ChapterID)
	}

	marks, err := uc.Bookmarks()
	if err != nil {
		t.Fatal(err)
	}
	if len(marks) != 1 || marks[0].Progress != 0.25 {
		t.Errorf("unexpected bookmarks: %+v", marks)
	}
}

func TestSetBookmarkValidates(t *testing.T) {
	uc, parsed := libraryFixture(t)

	if _, err := uc.SetBookmark(parsed.Book.ID, 9, 0); !errors.Is(err, domain.ErrChapterNotFound) {
		t.Errorf("expected ErrChapterNotFound, got %v", err)
	}
	if _, err := uc.SetBookmark(uuid.New(), 1, 0); !errors.Is(err, domain.ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
	if _, err := uc.SetBookmark(parsed.Book.ID, 1, 1.5); err == nil {
		t.Error("expected an error for progress outside [0, 1]")
	}
}

func TestRemoveBookmark(t *testing.T) {
	uc, parsed := libraryFixture(t)

	if _, err := uc.SetBookmark(parsed.Book.ID, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := uc.RemoveBookmark(parsed.Book.ID); err != nil {
		t.Fatalf("failed to remove bookmark: %v", err)
	}
	if err := uc.RemoveBookmark(parsed.Book.ID); !errors.Is(err, domain.ErrBookmarkNotFound) {
		t.Errorf("expected ErrBookmarkNotFound, got %v", err)
	}
}
