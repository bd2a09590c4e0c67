// Package stream forwards a vendor token stream to an HTTP response while
// keeping a copy of everything that was sent.
package stream

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrNoContent = errors.New("stream produced no content")

// Source yields text chunks in order. Next returns io.EOF once the stream is
// exhausted; any other error is terminal.
type Source interface {
	Next() (string, error)
}

// SliceSource replays a fixed list of chunks.
type SliceSource struct {
	chunks []string
	pos    int
}

func NewSliceSource(chunks ...string) *SliceSource {
	return &SliceSource{chunks: chunks}
}

func (s *SliceSource) Next() (string, error) {
	if s.pos >= len(s.chunks) {
		return "", io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

// Relay copies every chunk from src to w, calling flush after each write, and
// returns the concatenated text once src reports io.EOF. On a read or write
// error the accumulated text is discarded and the error returned, so callers
// never persist a partial conversion.
func Relay(src Source, w io.Writer, flush func()) (string, error) {
	var full strings.Builder
	for {
		chunk, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading vendor stream: %w", err)
		}
		if chunk == "" {
			continue
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return "", fmt.Errorf("writing to client: %w", err)
		}
		if flush != nil {
			flush()
		}
		full.WriteString(chunk)
	}

	if full.Len() == 0 {
		return "", ErrNoContent
	}
	return full.String(), nil
}
