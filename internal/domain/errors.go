package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedArchive = errors.New("unable to read epub container")
	ErrTocTargetMissing = errors.New("toc entry points outside the spine")
	ErrBookNotFound     = errors.New("book not found")
	ErrChapterNotFound  = errors.New("chapter not found")
	ErrBookmarkNotFound = errors.New("bookmark not found")
)

// MetadataError reports a required metadata element missing from an epub.
type MetadataError struct {
	Field string
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("missing metadata element %s", e.Field)
}

// SyntaxError reports a malformed directive in a search query.
type SyntaxError struct {
	Directive string
	Detail    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid %s directive: %s", e.Directive, e.Detail)
}
