package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"folio/internal/domain"
)

var (
	bucketBooks        = []byte("books")
	bucketChapters     = []byte("chapters")
	bucketChapterData  = []byte("chapter_data")
	bucketBookChapters = []byte("book_chapters")
	bucketToc          = []byte("toc")
	bucketHashes       = []byte("hashes")
	bucketBookmarks    = []byte("bookmarks")
	bucketSettings     = []byte("settings")
	bucketMeta         = []byte("meta")
)

type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketBooks, bucketChapters, bucketChapterData, bucketBookChapters, bucketToc, bucketHashes, bucketBookmarks, bucketSettings, bucketMeta}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

type bookMeta struct {
	Identifier  string `json:"identifier"`
	Language    string `json:"language"`
	Title       string `json:"title"`
	Creator     string `json:"creator,omitempty"`
	Description string `json:"description,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	Hash        string `json:"hash"`
}

type chapterMeta struct {
	BookID string `json:"book_id"`
	Index  int64  `json:"index"`
}

type tocMeta struct {
	Index     int64  `json:"index"`
	ChapterID string `json:"chapter_id"`
	Title     string `json:"title"`
}

type bookmarkMeta struct {
	ChapterID string  `json:"chapter_id"`
	Progress  float64 `json:"progress"`
	Created   int64   `json:"created"`
}

func idKey(id uuid.UUID) []byte {
	return []byte(id.String())
}

func (s *BoltStore) ContentHashes() (map[string]struct{}, error) {
	hashes := make(map[string]struct{})
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketHashes).ForEach(func(k, v []byte) error {
			hashes[string(k)] = struct{}{}
			return nil
		})
	})
	return hashes, err
}

func (s *BoltStore) InsertBooks(books []domain.ParsedBook) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		booksBucket := tx.Bucket(bucketBooks)
		chaptersBucket := tx.Bucket(bucketChapters)
		dataBucket := tx.Bucket(bucketChapterData)
		bookChaptersBucket := tx.Bucket(bucketBookChapters)
		tocBucket := tx.Bucket(bucketToc)
		hashBucket := tx.Bucket(bucketHashes)

		for _, parsed := range books {
			book := parsed.Book
			meta := bookMeta{
				Identifier:  book.Identifier,
				Language:    book.Language,
				Title:       book.Title,
				Creator:     book.Creator,
				Description: book.Description,
				Publisher:   book.Publisher,
				Hash:        book.Hash,
			}
			data, err := json.Marshal(meta)
			if err != nil {
				return err
			}
			if err := booksBucket.Put(idKey(book.ID), data); err != nil {
				return err
			}

			chapterIDs := make([]string, 0, len(parsed.Chapters))
			for _, ch := range parsed.Chapters {
				data, err := json.Marshal(chapterMeta{BookID: ch.BookID.String(), Index: ch.Index})
				if err != nil {
					return err
				}
				if err := chaptersBucket.Put(idKey(ch.ID), data); err != nil {
					return err
				}
				if err := dataBucket.Put(idKey(ch.ID), ch.Content); err != nil {
					return err
				}
				chapterIDs = append(chapterIDs, ch.ID.String())
			}

			chapterIDsData, err := json.Marshal(chapterIDs)
			if err != nil {
				return err
			}
			if err := bookChaptersBucket.Put(idKey(book.ID), chapterIDsData); err != nil {
				return err
			}

			if len(parsed.Toc) > 0 {
				entries := make([]tocMeta, 0, len(parsed.Toc))
				for _, entry := range parsed.Toc {
					entries = append(entries, tocMeta{
						Index:     entry.Index,
						ChapterID: entry.ChapterID.String(),
						Title:     entry.Title,
					})
				}
				data, err := json.Marshal(entries)
				if err != nil {
					return err
				}
				if err := tocBucket.Put(idKey(book.ID), data); err != nil {
					return err
				}
			}

			if err := hashBucket.Put([]byte(book.Hash), idKey(book.ID)); err != nil {
				return err
			}
		}

		return nil
	})
}

func (s *BoltStore) Books() ([]domain.Book, error) {
	var books []domain.Book
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBooks).ForEach(func(k, v []byte) error {
			id, err := uuid.Parse(string(k))
			if err != nil {
				return fmt.Errorf("corrupt book key %q: %w", k, err)
			}
			var meta bookMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			books = append(books, bookFromMeta(id, meta))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

func (s *BoltStore) Book(id uuid.UUID) (domain.Book, error) {
	var book domain.Book
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketBooks).Get(idKey(id))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrBookNotFound, id)
		}
		var meta bookMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		book = bookFromMeta(id, meta)
		return nil
	})
	return book, err
}

func bookFromMeta(id uuid.UUID, meta bookMeta) domain.Book {
	return domain.Book{
		ID:          id,
		Identifier:  meta.Identifier,
		Language:    meta.Language,
		Title:       meta.Title,
		Creator:     meta.Creator,
		Description: meta.Description,
		Publisher:   meta.Publisher,
		Hash:        meta.Hash,
	}
}

func (s *BoltStore) Chapter(bookID uuid.UUID, index int64) (domain.Chapter, error) {
	var chapter domain.Chapter
	err := s.db.View(func(tx *bbolt.Tx) error {
		ids, err := chapterIDs(tx, bookID)
		if err != nil {
			return err
		}
		if index < 1 || index > int64(len(ids)) {
			return fmt.Errorf("%w: book %s has no chapter %d", domain.ErrChapterNotFound, bookID, index)
		}
		id, err := uuid.Parse(ids[index-1])
		if err != nil {
			return fmt.Errorf("corrupt chapter id %q: %w", ids[index-1], err)
		}
		chapter, err = readChapter(tx, id)
		return err
	})
	return chapter, err
}

func (s *BoltStore) ChapterByID(id uuid.UUID) (domain.Chapter, error) {
	var chapter domain.Chapter
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		chapter, err = readChapter(tx, id)
		return err
	})
	return chapter, err
}

func (s *BoltStore) ChapterCount(bookID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		ids, err := chapterIDs(tx, bookID)
		if err != nil {
			return err
		}
		count = int64(len(ids))
		return nil
	})
	return count, err
}

func chapterIDs(tx *bbolt.Tx, bookID uuid.UUID) ([]string, error) {
	data := tx.Bucket(bucketBookChapters).Get(idKey(bookID))
	if data == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrBookNotFound, bookID)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Values returned by bolt are only valid while the transaction is open, so
// chapter content is copied out before the View closes.
func readChapter(tx *bbolt.Tx, id uuid.UUID) (domain.Chapter, error) {
	data := tx.Bucket(bucketChapters).Get(idKey(id))
	if data == nil {
		return domain.Chapter{}, fmt.Errorf("%w: %s", domain.ErrChapterNotFound, id)
	}
	var meta chapterMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return domain.Chapter{}, err
	}
	bookID, err := uuid.Parse(meta.BookID)
	if err != nil {
		return domain.Chapter{}, fmt.Errorf("corrupt chapter meta for %s: %w", id, err)
	}

	content := tx.Bucket(bucketChapterData).Get(idKey(id))
	return domain.Chapter{
		ID:      id,
		BookID:  bookID,
		Index:   meta.Index,
		Content: append([]byte(nil), content...),
	}, nil
}

func (s *BoltStore) Toc(bookID uuid.UUID) ([]domain.TocEntry, error) {
	var entries []domain.TocEntry
	err := s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketBooks).Get(idKey(bookID)) == nil {
			return fmt.Errorf("%w: %s", domain.ErrBookNotFound, bookID)
		}

		data := tx.Bucket(bucketToc).Get(idKey(bookID))
		if data == nil {
			return nil
		}
		var metas []tocMeta
		if err := json.Unmarshal(data, &metas); err != nil {
			return err
		}
		for _, meta := range metas {
			chapterID, err := uuid.Parse(meta.ChapterID)
			if err != nil {
				return fmt.Errorf("corrupt toc entry for %s: %w", bookID, err)
			}
			entries = append(entries, domain.TocEntry{
				BookID:    bookID,
				Index:     meta.Index,
				ChapterID: chapterID,
				Title:     meta.Title,
			})
		}
		return nil
	})
	return entries, err
}

func (s *BoltStore) PutBookmark(mark domain.Bookmark) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketBooks).Get(idKey(mark.BookID)) == nil {
			return fmt.Errorf("%w: %s", domain.ErrBookNotFound, mark.BookID)
		}

		data, err := json.Marshal(bookmarkMeta{
			ChapterID: mark.ChapterID.String(),
			Progress:  mark.Progress,
			Created:   mark.Created.Unix(),
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketBookmarks).Put(idKey(mark.BookID), data)
	})
}

func (s *BoltStore) Bookmarks() ([]domain.Bookmark, error) {
	var marks []domain.Bookmark
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBookmarks).ForEach(func(k, v []byte) error {
			bookID, err := uuid.Parse(string(k))
			if err != nil {
				return fmt.Errorf("corrupt bookmark key %q: %w", k, err)
			}
			var meta bookmarkMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			chapterID, err := uuid.Parse(meta.ChapterID)
			if err != nil {
				return fmt.Errorf("corrupt bookmark for %s: %w", bookID, err)
			}
			marks = append(marks, domain.Bookmark{
				BookID:    bookID,
				ChapterID: chapterID,
				Progress:  meta.Progress,
				Created:   time.Unix(meta.Created, 0),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(marks, func(i, j int) bool { return marks[i].Created.After(marks[j].Created) })
	return marks, nil
}

func (s *BoltStore) DeleteBookmark(bookID uuid.UUID) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketBookmarks)
		if b.Get(idKey(bookID)) == nil {
			return fmt.Errorf("%w: %s", domain.ErrBookmarkNotFound, bookID)
		}
		return b.Delete(idKey(bookID))
	})
}

func (s *BoltStore) Setting(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bbolt.Tx) error {
		value = string(tx.Bucket(bucketSettings).Get([]byte(key)))
		return nil
	})
	return value, err
}

func (s *BoltStore) Settings() (map[string]string, error) {
	settings := make(map[string]string)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSettings).ForEach(func(k, v []byte) error {
			settings[string(k)] = string(v)
			return nil
		})
	})
	return settings, err
}

func (s *BoltStore) PutSetting(key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSettings).Put([]byte(key), []byte(value))
	})
}

func (s *BoltStore) DeleteSetting(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSettings).Delete([]byte(key))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
