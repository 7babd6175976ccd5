// Package answer assembles grounded replies: embed the question,
// retrieve the best chunks, and delegate to the completion service with
// the chunks as labeled sources.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Golden-YG/Chatbox/internal/retrieve"
	"github.com/Golden-YG/Chatbox/provider"
)

// ErrEmptyQuestion is returned for blank input; callers report it as a
// client error.
var ErrEmptyQuestion = errors.New("question is empty")

// FallbackReply is used when the completion service returns nothing usable.
const FallbackReply = "I couldn't find an answer to that in our documentation. Please contact our support team and a human will help you out."

const systemPromptFmt = `You are a friendly support assistant for %s.
Answer the user's question using ONLY the numbered sources provided.
If the sources don't contain the answer, say so and suggest contacting support — never guess or invent product behavior, prices, or policies.
Keep answers concise and practical.`

// Source identifies one cited page for caller-side display.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Answer is the composed reply plus its citations.
type Answer struct {
	Reply   string   `json:"reply"`
	Sources []Source `json:"sources"`
}

// Composer wires the embedding client, the retriever and the completion
// service together for the serving path.
type Composer struct {
	provider   provider.Provider
	retriever  *retrieve.Retriever
	site       string
	topK       int
	maxSources int
	logger     *log.Logger
}

func New(p provider.Provider, r *retrieve.Retriever, site string, topK, maxSources int, logger *log.Logger) *Composer {
	if topK <= 0 {
		topK = retrieve.DefaultTopK
	}
	if maxSources <= 0 {
		maxSources = 3
	}
	if site == "" {
		site = "this website"
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[ANSWER] ", log.LstdFlags)
	}
	return &Composer{provider: p, retriever: r, site: site, topK: topK, maxSources: maxSources, logger: logger}
}

// Answer produces a grounded reply for question. An empty index is not
// an error: the completion runs without sources and the don't-guess
// instruction carries the degradation.
func (c *Composer) Answer(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}

	vecs, err := c.provider.CreateEmbedding(ctx, []string{question})
	if err != nil {
		return Answer{}, fmt.Errorf("embed question: %w", err)
	}

	var matches []retrieve.Match
	if len(vecs) > 0 {
		matches = c.retriever.SelectTopK(vecs[0], c.topK)
	}
	if len(matches) == 0 {
		c.logger.Printf("no context retrieved, answering without sources")
	}

	reply, err := c.provider.CreateCompletion(ctx,
		fmt.Sprintf(systemPromptFmt, c.site),
		buildUserPrompt(question, matches),
	)
	if err != nil {
		return Answer{}, fmt.Errorf("completion: %w", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = FallbackReply
	}
	return Answer{Reply: reply, Sources: topSources(matches, c.maxSources)}, nil
}

func buildUserPrompt(question string, matches []retrieve.Match) string {
	var b strings.Builder
	if len(matches) == 0 {
		b.WriteString("No documentation sources were found for this question.\n\n")
	} else {
		b.WriteString("Documentation sources:\n\n")
		for i, m := range matches {
			fmt.Fprintf(&b, "Source %d: %s (%s)\n%s\n\n", i+1, m.Record.Title, m.Record.URL, m.Record.Content)
		}
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

// topSources keeps the first max distinct pages, in retrieval order.
func topSources(matches []retrieve.Match, max int) []Source {
	seen := make(map[string]struct{}, max)
	var out []Source
	for _, m := range matches {
		if _, dup := seen[m.Record.URL]; dup {
			continue
		}
		seen[m.Record.URL] = struct{}{}
		out = append(out, Source{Title: m.Record.Title, URL: m.Record.URL})
		if len(out) >= max {
			break
		}
	}
	return out
}
