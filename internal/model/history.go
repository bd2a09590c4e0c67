package model

import "time"

// History is one completed conversion. Rows are never updated.
type History struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	OriginalText  string    `db:"original_text" json:"original_text"`
	HumanizedText string    `db:"humanized_text" json:"humanized_text"`
	WordsCount    int       `db:"words_count" json:"words_count"`
	Style         string    `db:"style" json:"style"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
