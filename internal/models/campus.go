package models

import "time"

// Campus represents a physical site offering classes.
type Campus struct {
	ID        string    `db:"id" json:"id"`
	Nome      string    `db:"nome" json:"nome"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
