package dto

import "time"

type HistoryEntryDTO struct {
	ID            string    `json:"id"`
	OriginalText  string    `json:"original_text"`
	HumanizedText string    `json:"humanized_text"`
	WordsCount    int       `json:"words_count"`
	Style         string    `json:"style"`
	CreatedAt     time.Time `json:"created_at"`
}

type HistoryListResponseDTO struct {
	History []HistoryEntryDTO `json:"history"`
	Total   int               `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
}

type HistoryExportResponseDTO struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Entries   int       `json:"entries"`
	ExpiresAt time.Time `json:"expires_at"`
}
