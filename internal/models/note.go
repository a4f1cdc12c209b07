// Package models defines the domain types for hashnotes.
package models

// Note is a user-authored record with derived hashtag labels.
type Note struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Date        string   `json:"date"` // YYYY-M-D, no zero padding
}
