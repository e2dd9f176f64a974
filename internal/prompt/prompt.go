// Package prompt builds the grounding prompt sent to the language model.
// Everything here is pure string formatting so it can be tested without
// live services.
package prompt

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/newschat/models"
)

const (
	preamble = "You are a helpful assistant answering user questions based on news passages. Use the following passages strictly to answer, cite link(s) if relevant, and be concise."

	passageDelimiter = "\n\n---\n\n"
)

// Assemble combines the retrieved passages and the user question into a
// single grounding prompt. Passage order is the retrieval order and is
// never re-sorted; missing fields render as empty strings so the layout
// stays stable.
func Assemble(question string, passages []models.RetrievedPassage) string {
	blocks := make([]string, len(passages))
	for i, p := range passages {
		blocks[i] = fmt.Sprintf("Title: %s\nLink: %s\nPassage: %s", p.Title, p.Link, p.Text)
	}
	context := strings.Join(blocks, passageDelimiter)

	return fmt.Sprintf("%s\n\nCONTEXT:\n%s\n\nUSER QUESTION: %s\n\nAnswer:", preamble, context, question)
}
