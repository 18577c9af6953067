package models

import "time"

type Review struct {
	ID        string
	BookID    string
	UserID    string
	Rating    int
	Comment   string
	CreatedAt time.Time
}
