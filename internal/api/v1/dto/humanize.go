package dto

// HumanizeRequestDTO is the body of both humanize routes. An empty style
// falls back to the caller's preferred style.
type HumanizeRequestDTO struct {
	Text  string `json:"text" validate:"required"`
	Style string `json:"style,omitempty"`
}

type AICheckRequestDTO struct {
	Text string `json:"text" validate:"required"`
}

type AICheckResponseDTO struct {
	AIScore    int            `json:"aiScore"`
	IsLikelyAI bool           `json:"isLikelyAI"`
	Detectors  map[string]int `json:"detectors"`
}
