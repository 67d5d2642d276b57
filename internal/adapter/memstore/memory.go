package memstore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"folio/internal/domain"
)

// MemoryStore is an in-memory library for tests. Batches records every
// InsertBooks call so pipeline tests can assert how work was grouped into
// transactions.
type MemoryStore struct {
	mu           sync.RWMutex
	books        map[uuid.UUID]domain.Book
	chapters     map[uuid.UUID]domain.Chapter
	bookChapters map[uuid.UUID][]uuid.UUID
	toc          map[uuid.UUID][]domain.TocEntry
	hashes       map[string]uuid.UUID
	bookmarks    map[uuid.UUID]domain.Bookmark
	settings     map[string]string

	Batches [][]domain.ParsedBook
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:        make(map[uuid.UUID]domain.Book),
		chapters:     make(map[uuid.UUID]domain.Chapter),
		bookChapters: make(map[uuid.UUID][]uuid.UUID),
		toc:          make(map[uuid.UUID][]domain.TocEntry),
		hashes:       make(map[string]uuid.UUID),
		bookmarks:    make(map[uuid.UUID]domain.Bookmark),
		settings:     make(map[string]string),
	}
}

func (s *MemoryStore) ContentHashes() (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hashes := make(map[string]struct{}, len(s.hashes))
	for hash := range s.hashes {
		hashes[hash] = struct{}{}
	}
	return hashes, nil
}

func (s *MemoryStore) InsertBooks(books []domain.ParsedBook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Batches = append(s.Batches, books)

	for _, parsed := range books {
		s.books[parsed.Book.ID] = parsed.Book
		ids := make([]uuid.UUID, 0, len(parsed.Chapters))
		for _, ch := range parsed.Chapters {
			s.chapters[ch.ID] = ch
			ids = append(ids, ch.ID)
		}
		s.bookChapters[parsed.Book.ID] = ids
		if len(parsed.Toc) > 0 {
			s.toc[parsed.Book.ID] = parsed.Toc
		}
		s.hashes[parsed.Book.Hash] = parsed.Book.ID
	}

	return nil
}

func (s *MemoryStore) Books() ([]domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	books := make([]domain.Book, 0, len(s.books))
	for _, book := range s.books {
		books = append(books, book)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

func (s *MemoryStore) Book(id uuid.UUID) (domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, ok := s.books[id]
	if !ok {
		return domain.Book{}, fmt.Errorf("%w: %s", domain.ErrBookNotFound, id)
	}
	return book, nil
}

func (s *MemoryStore) Chapter(bookID uuid.UUID, index int64) (domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, ok := s.bookChapters[bookID]
	if !ok {
		return domain.Chapter{}, fmt.Errorf("%w: %s", domain.ErrBookNotFound, bookID)
	}
	if index < 1 || index > int64(len(ids)) {
		return domain.Chapter{}, fmt.Errorf("%w: book %s has no chapter %d", domain.ErrChapterNotFound, bookID, index)
	}
	return s.chapters[ids[index-1]], nil
}

func (s *MemoryStore) ChapterByID(id uuid.UUID) (domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chapter, ok := s.chapters[id]
	if !ok {
		return domain.Chapter{}, fmt.Errorf("%w: %s", domain.ErrChapterNotFound, id)
	}
	return chapter, nil
}

func (s *MemoryStore) ChapterCount(bookID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, ok := s.bookChapters[bookID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrBookNotFound, bookID)
	}
	return int64(len(ids)), nil
}

func (s *MemoryStore) Toc(bookID uuid.UUID) ([]domain.TocEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.books[bookID]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBookNotFound, bookID)
	}
	return s.toc[bookID], nil
}

func (s *MemoryStore) PutBookmark(mark domain.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[mark.BookID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrBookNotFound, mark.BookID)
	}
	s.bookmarks[mark.BookID] = mark
	return nil
}

func (s *MemoryStore) Bookmarks() ([]domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	marks := make([]domain.Bookmark, 0, len(s.bookmarks))
	for _, mark := range s.bookmarks {
		marks = append(marks, mark)
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].Created.After(marks[j].Created) })
	return marks, nil
}

func (s *MemoryStore) DeleteBookmark(bookID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookmarks[bookID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrBookmarkNotFound, bookID)
	}
	delete(s.bookmarks, bookID)
	return nil
}

func (s *MemoryStore) Setting(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings[key], nil
}

func (s *MemoryStore) Settings() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings := make(map[string]string, len(s.settings))
	for key, value := range s.settings {
		settings[key] = value
	}
	return settings, nil
}

func (s *MemoryStore) PutSetting(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *MemoryStore) DeleteSetting(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.settings, key)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
