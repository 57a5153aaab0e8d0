package chat

import "time"

// Sender identifies who authored a transcript entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// SnippetType is the fence tag of a code block in a model reply.
type SnippetType string

const (
	SnippetReact      SnippetType = "react"
	SnippetHTML       SnippetType = "html"
	SnippetCSS        SnippetType = "css"
	SnippetTailwind   SnippetType = "tailwind"
	SnippetJavaScript SnippetType = "javascript"
)

// SnippetTypes lists every fence tag the parser recognises.
var SnippetTypes = []SnippetType{SnippetReact, SnippetHTML, SnippetCSS, SnippetTailwind, SnippetJavaScript}

// ParseSnippetType reports whether tag names a recognised snippet type.
func ParseSnippetType(tag string) (SnippetType, bool) {
	for _, t := range SnippetTypes {
		if string(t) == tag {
			return t, true
		}
	}
	return "", false
}

// CodeSnippet is the code block and description extracted from one bot reply.
type CodeSnippet struct {
	Type   SnippetType `json:"type"`
	Code   string      `json:"code"`
	Output string      `json:"output"`
}

// Message is one immutable transcript entry.
type Message struct {
	ID          int          `json:"id"`
	SessionID   string       `json:"sessionId"`
	Text        string       `json:"text"`
	Sender      Sender       `json:"sender"`
	CodeSnippet *CodeSnippet `json:"codeSnippet,omitempty"`
	HasPreview  bool         `json:"hasPreview"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Previewable reports whether the message carries an openable preview.
func (m Message) Previewable() bool {
	return m.HasPreview && m.CodeSnippet != nil
}
