// Package llm talks to the generative search providers that assess vendors.
package llm

import (
	"context"
	"strings"
)

// BlockTypeText is the content block type carrying model prose.
const BlockTypeText = "text"

// Block is one content block of an oracle response. Only text blocks carry
// Text; tool-use and search-result blocks are kept for their Type alone.
type Block struct {
	Type string
	Text string
}

// Oracle is a generative model that can search the web before answering.
// Use this interface for dependency injection to enable mocking in tests.
type Oracle interface {
	// Search sends a single user prompt with web search enabled and returns the
	// response content blocks in order.
	Search(ctx context.Context, prompt string) ([]Block, error)

	// Model returns the configured model id.
	Model() string
}

// ConcatText joins the text of all text blocks in order, ignoring every other block type.
func ConcatText(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		if b.Type == BlockTypeText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}
