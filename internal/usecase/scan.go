package usecase

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"

	"folio/internal/adapter/fs"
	"folio/internal/domain"
	"folio/internal/port"
)

// ProgressFunc receives pipeline progress for display. currentFile is the
// path that just finished processing.
type ProgressFunc func(processed, total int, currentFile string)

// ScanUseCase ingests epub files from a directory tree into the library.
type ScanUseCase struct {
	library     port.LibraryStore
	walker      *fs.Walker
	reader      port.FileReader
	parser      port.ArchiveParser
	readWorkers int
	batchSize   int
}

// NewScanUseCase creates a new scan use case.
func NewScanUseCase(
	library port.LibraryStore,
	walker *fs.Walker,
	reader port.FileReader,
	parser port.ArchiveParser,
	readWorkers int,
	batchSize int,
) *ScanUseCase {
	if readWorkers <= 0 {
		readWorkers = 4
	}
	if batchSize <= 0 {
		batchSize = 8
	}
	return &ScanUseCase{
		library:     library,
		walker:      walker,
		reader:      reader,
		parser:      parser,
		readWorkers: readWorkers,
		batchSize:   batchSize,
	}
}

// ScanResult contains the results of a scan operation.
type ScanResult struct {
	Found      int
	Added      int
	Duplicates int
	Batches    int
	Errors     []string
}

type readResult struct {
	path string
	data []byte
	err  error
}

// Scan walks root, parses every epub not already in the library and commits
// books in batches. A failed batch is reported and skipped; the scan carries
// on with the next one.
func (u *ScanUseCase) Scan(root string, progress ProgressFunc) (*ScanResult, error) {
	result := &ScanResult{}

	walk, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	result.Found = len(walk.Paths)
	result.Errors = append(result.Errors, walk.Warnings...)

	seen, err := u.library.ContentHashes()
	if err != nil {
		return nil, fmt.Errorf("failed to load known hashes: %w", err)
	}

	batch := make([]domain.ParsedBook, 0, u.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := u.library.InsertBooks(batch); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to commit batch of %d books: %v", len(batch), err))
		} else {
			result.Added += len(batch)
			result.Batches++
		}
		batch = make([]domain.ParsedBook, 0, u.batchSize)
	}

	processed := 0
	for res := range u.readFiles(walk.Paths) {
		processed++
		if progress != nil {
			progress(processed, result.Found, res.path)
		}

		if res.err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to read %s: %v", res.path, res.err))
			continue
		}

		sum := blake3.Sum256(res.data)
		hash := hex.EncodeToString(sum[:])
		if _, dup := seen[hash]; dup {
			result.Duplicates++
			continue
		}
		seen[hash] = struct{}{}

		book, err := u.parser.Parse(res.data, hash)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to parse %s: %v", res.path, err))
			continue
		}

		batch = append(batch, book)
		if len(batch) >= u.batchSize {
			flush()
		}
	}
	flush()

	return result, nil
}

// readFiles reads paths with bounded concurrency but delivers results in
// walk order, so duplicate resolution stays deterministic. A semaphore slot
// is held from read start until the consumer drains the result, not just
// until the read finishes, so at most readWorkers file buffers sit in
// memory while the slower parse and commit stages catch up.
func (u *ScanUseCase) readFiles(paths []string) <-chan readResult {
	sem := make(chan struct{}, u.readWorkers)
	slots := make([]chan readResult, len(paths))
	for i := range slots {
		slots[i] = make(chan readResult, 1)
	}

	go func() {
		for i, path := range paths {
			sem <- struct{}{}
			go func(path string, slot chan<- readResult) {
				data, err := u.reader.ReadFile(path)
				slot <- readResult{path: path, data: data, err: err}
			}(path, slots[i])
		}
	}()

	out := make(chan readResult)
	go func() {
		defer close(out)
		for _, slot := range slots {
			out <- <-slot
			<-sem
		}
	}()
	return out
}
