package port

import "folio/internal/domain"

type ArchiveParser interface {
	Parse(data []byte, hash string) (domain.ParsedBook, error)
}
