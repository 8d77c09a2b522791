package agent

import (
	"context"
	"fmt"
	"strings"

	"advisory-ai/internal/llm"
)

const synthesisPrompt = `You are synthesizing information from two sources into a single coherent answer.

USER QUESTION: %s

WHY BOTH SOURCES WERE NEEDED: %s

ANSWER FROM SECURITY ADVISORIES (explanations, attack patterns, remediation guidance):
%s

ANSWER FROM VULNERABILITY DATABASE (CVE records, statistics, package data):
%s

INSTRUCTIONS:
1. Combine both answers into a single, coherent response
2. Weave the information together naturally - don't just concatenate
3. Use database facts (CVE IDs, counts, versions) to ground the advisory context
4. Use advisory explanations to give meaning to the database facts
5. If information conflicts, prefer database for hard facts, advisories for context
6. Keep the response focused on what the user actually asked

COMBINED ANSWER:`

// Synthesizer merges the advisory and database answers of a hybrid query
// into one response.
type Synthesizer struct {
	generator llm.Generator
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer(generator llm.Generator) *Synthesizer {
	return &Synthesizer{generator: generator}
}

// Synthesize combines both answers, guided by the router's reasoning for
// why the query needed both sources.
func (s *Synthesizer) Synthesize(ctx context.Context, query, reasoning, unstructuredAnswer, structuredAnswer string) (string, error) {
	prompt := fmt.Sprintf(synthesisPrompt, query, reasoning, unstructuredAnswer, structuredAnswer)
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to synthesize answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}
