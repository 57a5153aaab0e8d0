// Package parser extracts the previewable code block from a model reply.
//
// A reply may carry one block of the form
//
//	```<type>
//	<code>
//	```
//	OUTPUT_START: <description> OUTPUT_END
//
// where the opening fence starts a line and <type> is one of the recognised
// snippet types, written directly before the newline. Fences with any other
// tag are ordinary text, as are fences inside a line.
package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/zhouzirui/lgt-bot/backend/internal/model/chat"
)

const (
	fence       = "```"
	outputStart = "OUTPUT_START:"
	outputEnd   = "OUTPUT_END"

	// PreviewMarker is the token the model prefixes replies containing code with.
	PreviewMarker = "#preview"
)

var (
	ErrUnterminatedFence  = errors.New("code fence is never closed")
	ErrMissingOutput      = errors.New("code block is not followed by " + outputStart)
	ErrUnterminatedOutput = errors.New(outputStart + " is never closed by " + outputEnd)
	ErrMultipleBlocks     = errors.New("reply contains more than one code block")
)

// Error reports where in the reply a malformed block was found.
type Error struct {
	Offset int
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse reply at offset %d: %v", e.Offset, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Reply is a model reply split into display text and an optional snippet.
type Reply struct {
	Text       string            `json:"text"`
	Snippet    *chat.CodeSnippet `json:"snippet,omitempty"`
	HasPreview bool              `json:"hasPreview"`
}

type block struct {
	start, end int
	snippet    chat.CodeSnippet
}

// Parse splits raw into display text and at most one code snippet. When the
// reply is malformed the returned Reply still holds the whole reply as
// display text, with no snippet, alongside an *Error.
func Parse(raw string) (Reply, error) {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	whole := Reply{
		Text:       strings.TrimSpace(text),
		HasPreview: strings.Contains(text, PreviewMarker),
	}

	blocks, err := scan(text)
	if err != nil {
		return whole, err
	}

	switch len(blocks) {
	case 0:
		return whole, nil
	case 1:
		b := blocks[0]
		display := strings.TrimSpace(text[:b.start] + text[b.end:])
		snippet := b.snippet
		return Reply{
			Text:       display,
			Snippet:    &snippet,
			HasPreview: strings.Contains(display, PreviewMarker),
		}, nil
	default:
		return whole, &Error{Offset: blocks[1].start, Err: ErrMultipleBlocks}
	}
}

func scan(text string) ([]block, error) {
	var blocks []block
	pos := 0

	for {
		start := nextLineFence(text, pos)
		if start < 0 {
			return blocks, nil
		}

		tagStart := start + len(fence)
		nl := strings.IndexByte(text[tagStart:], '\n')
		if nl < 0 {
			// A trailing fence without a body is plain text.
			return blocks, nil
		}
		tag := text[tagStart : tagStart+nl]
		bodyStart := tagStart + nl + 1

		var (
			snippetType chat.SnippetType
			known       bool
		)
		if isWord(tag) {
			snippetType, known = chat.ParseSnippetType(tag)
		}
		if !known {
			// Ordinary fenced text: skip to its closing fence line.
			closing := nextLineFence(text, bodyStart)
			if closing < 0 {
				return blocks, nil
			}
			pos = closing + len(fence)
			continue
		}

		closeRel := strings.Index(text[bodyStart:], fence)
		if closeRel < 0 {
			return nil, &Error{Offset: start, Err: ErrUnterminatedFence}
		}

		code := text[bodyStart : bodyStart+closeRel]
		afterFence := bodyStart + closeRel + len(fence)
		descStart := afterFence + leadingSpace(text[afterFence:])
		if !strings.HasPrefix(text[descStart:], outputStart) {
			return nil, &Error{Offset: afterFence, Err: ErrMissingOutput}
		}

		outStart := descStart + len(outputStart)
		endRel := strings.Index(text[outStart:], outputEnd)
		if endRel < 0 {
			return nil, &Error{Offset: descStart, Err: ErrUnterminatedOutput}
		}
		end := outStart + endRel + len(outputEnd)

		blocks = append(blocks, block{
			start: start,
			end:   end,
			snippet: chat.CodeSnippet{
				Type:   snippetType,
				Code:   strings.TrimSpace(code),
				Output: strings.TrimSpace(text[outStart : outStart+endRel]),
			},
		})
		pos = end
	}
}

// nextLineFence returns the offset of the first fence at or after from that
// opens a line, or -1. Fences inside a line are prose.
func nextLineFence(text string, from int) int {
	for from <= len(text) {
		rel := strings.Index(text[from:], fence)
		if rel < 0 {
			return -1
		}
		at := from + rel
		if at == 0 || text[at-1] == '\n' {
			return at
		}
		from = at + len(fence)
	}
	return -1
}

// isWord reports whether s is a non-empty run of letters, digits or '_'.
func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeftFunc(s, unicode.IsSpace))
}
