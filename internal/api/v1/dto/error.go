package dto

// ErrorResponseDTO is the body of every JSON error response.
type ErrorResponseDTO struct {
	Error string `json:"error"`
}

// QuotaErrorResponseDTO is returned when a request exceeds the caller's word quota.
type QuotaErrorResponseDTO struct {
	Error          string `json:"error"`
	WordsNeeded    int    `json:"wordsNeeded"`
	WordsAvailable int    `json:"wordsAvailable"`
}
