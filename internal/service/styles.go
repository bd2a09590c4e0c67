package service

import (
	"fmt"
	"strings"
)

// Style is a rewriting register offered to users.
type Style string

const (
	StyleStandard     Style = "standard"
	StyleAcademic     Style = "academic"
	StyleCasual       Style = "casual"
	StyleProfessional Style = "professional"
	StyleCreative     Style = "creative"
	StyleSimple       Style = "simple"
)

var styleGuidance = map[Style]string{
	StyleStandard:     "Use clear, natural everyday prose with varied sentence length.",
	StyleAcademic:     "Use a formal scholarly register with precise vocabulary, while avoiding formulaic transitions.",
	StyleCasual:       "Use a relaxed conversational tone with contractions and the occasional aside.",
	StyleProfessional: "Use a polished business tone that is direct and confident.",
	StyleCreative:     "Use vivid, expressive language and unexpected but fitting word choices.",
	StyleSimple:       "Use short sentences and plain words a twelve-year-old would understand.",
}

// ParseStyle normalizes a style label. Callers substitute the profile
// preference before parsing empty input.
func ParseStyle(s string) (Style, error) {
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := styleGuidance[st]; !ok {
		return "", fmt.Errorf("%w: unknown style %q", ErrValidation, s)
	}
	return st, nil
}

// systemPrompt is sent as the model's system instruction.
func systemPrompt(style Style) string {
	guidance, ok := styleGuidance[style]
	if !ok {
		guidance = styleGuidance[StyleStandard]
	}
	return "You rewrite text so it reads as if a person wrote it. " +
		"Preserve the meaning, facts, names and numbers of the original. " +
		"Keep roughly the same length and the same language as the input. " +
		guidance + " " +
		"Return only the rewritten text with no preamble, headings or commentary."
}
