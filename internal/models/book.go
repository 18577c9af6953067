package models

import "time"

type Book struct {
	ID          string
	Title       string
	Description string
	ISBN        string
	PriceCents  int64
	Stock       int
	CategoryID  string
	AuthorID    string
	CoverURL    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Category struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
}

type Author struct {
	ID        string
	Name      string
	Bio       string
	CreatedAt time.Time
}
