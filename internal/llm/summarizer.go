package llm

import (
	"context"
	"fmt"
	"strings"
)

const summarizePrompt = `Summarize the following code snippet from a security advisory in 1-2 plain
English sentences. Describe what the code does and what it demonstrates
(an exploit, a patch, a configuration change). Do not include code in your
answer.

CODE:
%s

SUMMARY:`

// CodeSummarizer condenses advisory code blocks into prose for embedding.
// It satisfies the chunker's summarization interface.
type CodeSummarizer struct {
	gen Generator
}

// NewCodeSummarizer creates a code summarizer backed by the given generator.
func NewCodeSummarizer(gen Generator) *CodeSummarizer {
	return &CodeSummarizer{gen: gen}
}

// Summarize returns a short prose description of the code snippet.
func (s *CodeSummarizer) Summarize(ctx context.Context, code string) (string, error) {
	out, err := s.gen.Generate(ctx, fmt.Sprintf(summarizePrompt, code))
	if err != nil {
		return "", fmt.Errorf("failed to summarize code: %w", err)
	}
	summary := strings.TrimSpace(out)
	if summary == "" {
		return "", fmt.Errorf("empty summary returned")
	}
	return summary, nil
}
