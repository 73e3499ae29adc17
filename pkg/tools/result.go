// Package tools is the uniform dispatch surface for the orchestration loop:
// a fixed set of named tools (deterministic and specialist-backed) behind a
// single Execute call. The specialist backend is constructed lazily behind a
// single-flight guard on first use.
package tools

import "strings"

// BlockType identifies the kind of a content block.
type BlockType string

const BlockText BlockType = "text"

// Block is one typed content block in a tool result.
type Block struct {
	Type BlockType `json:"type"`
	Text string    `json:"text"`
}

// Result is the outcome of a tool execution. IsError results are surfaced
// to the model as normal tool results so it can recover; they never abort
// the loop.
type Result struct {
	Content []Block `json:"content"`
	IsError bool    `json:"is_error"`
}

// TextResult builds a successful single-text-block result.
func TextResult(text string) Result {
	return Result{Content: []Block{{Type: BlockText, Text: text}}}
}

// ErrorResult builds an is_error result with a user-legible message.
func ErrorResult(text string) Result {
	return Result{Content: []Block{{Type: BlockText, Text: text}}, IsError: true}
}

// Text joins all text blocks into one string.
func (r Result) Text() string {
	var parts []string
	for _, b := range r.Content {
		if b.Type == BlockText {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}
