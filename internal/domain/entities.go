package domain

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID          uuid.UUID
	Identifier  string
	Language    string
	Title       string
	Creator     string
	Description string
	Publisher   string
	Hash        string
}

type Chapter struct {
	ID      uuid.UUID
	BookID  uuid.UUID
	Index   int64
	Content []byte
}

type TocEntry struct {
	BookID    uuid.UUID
	Index     int64
	ChapterID uuid.UUID
	Title     string
}

type ParsedBook struct {
	Book     Book
	Chapters []Chapter
	Toc      []TocEntry
}

type Bookmark struct {
	BookID    uuid.UUID
	ChapterID uuid.UUID
	Progress  float64
	Created   time.Time
}

type Story struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Path        string   `json:"path"`
	Likes       int64    `json:"likes"`
	Dislikes    int64    `json:"dislikes"`
	Words       int64    `json:"words"`
	Wilson      float64  `json:"wilson"`
	Status      string   `json:"status"`
	Rating      string   `json:"rating"`
	Tags        []string `json:"tags"`
}

type StoryResult struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Description string   `json:"description,omitempty"`
	Path        string   `json:"path,omitempty"`
	Likes       int64    `json:"likes"`
	Dislikes    int64    `json:"dislikes"`
	Words       int64    `json:"words"`
	Wilson      float64  `json:"wilson"`
	Status      string   `json:"status"`
	Rating      string   `json:"rating"`
	Tags        []string `json:"tags,omitempty"`
}

type Order int

const (
	OrderRelevancy Order = iota
	OrderWords
	OrderLikes
	OrderDislikes
	OrderWilson
)

func (o Order) String() string {
	switch o {
	case OrderWords:
		return "words"
	case OrderLikes:
		return "likes"
	case OrderDislikes:
		return "dislikes"
	case OrderWilson:
		return "wilson"
	default:
		return "relevancy"
	}
}

// IntRange is a half-open interval [Min, Max).
type IntRange struct {
	Min int64
	Max int64
}

type FloatRange struct {
	Min          float64
	Max          float64
	MinInclusive bool
	MaxInclusive bool
}

type StoryFilter struct {
	Authors  []string
	Tags     []string
	TagsAny  []string
	TagsNot  []string
	Words    *IntRange
	Likes    *IntRange
	Dislikes *IntRange
	Wilson   *FloatRange
	Ratings  []string
	Statuses []string
	Order    Order
	Text     string
}
