// Package agent orchestrates query answering: it routes each question to
// the advisory search engine, the vulnerability database, or both, and
// synthesizes hybrid answers.
package agent

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"advisory-ai/internal/contextutil"
	"advisory-ai/internal/rag"
	"advisory-ai/internal/router"
)

const offTopicAnswer = `I'm a security vulnerability assistant.
Your question appears to be off-topic: %s

I can help with:
- Security advisories and vulnerability explanations
- CVE lookups and vulnerability statistics
- Remediation guidance`

// QueryRouter classifies a user question into a routing decision.
type QueryRouter interface {
	Route(ctx context.Context, query string) (*router.Result, error)
}

// Result is a fully processed answer with the route that produced it.
type Result struct {
	Answer  string           `json:"answer"`
	Route   router.RouteType `json:"route"`
	Sources []rag.SourceRef  `json:"sources,omitempty"`
}

// Agent dispatches user questions to the appropriate handlers.
type Agent struct {
	router      QueryRouter
	advisories  rag.Engine
	structured  *StructuredRAG
	synthesizer *Synthesizer
}

// New creates an agent.
func New(queryRouter QueryRouter, advisories rag.Engine, structured *StructuredRAG, synthesizer *Synthesizer) *Agent {
	return &Agent{
		router:      queryRouter,
		advisories:  advisories,
		structured:  structured,
		synthesizer: synthesizer,
	}
}

// Process routes a query and runs the handler(s) the route calls for.
// Hybrid queries run both handlers concurrently and synthesize a combined
// answer.
func (a *Agent) Process(ctx context.Context, query string) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	decision, err := a.router.Route(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to route query: %w", err)
	}

	switch decision.RouteType {
	case router.RouteNone:
		logger.InfoContext(ctx, "query rejected as off-topic", "reasoning", decision.Reasoning)
		return &Result{
			Answer: fmt.Sprintf(offTopicAnswer, decision.Reasoning),
			Route:  router.RouteNone,
		}, nil

	case router.RouteUnstructured:
		resp, err := a.advisories.Ask(ctx, rag.AskRequest{Question: *decision.UnstructuredQuery})
		if err != nil {
			return nil, fmt.Errorf("failed to answer advisory query: %w", err)
		}
		return &Result{
			Answer:  resp.Answer,
			Route:   router.RouteUnstructured,
			Sources: resp.Sources,
		}, nil

	case router.RouteStructured:
		answer, err := a.structured.HandleQuery(ctx, *decision.StructuredQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to answer database query: %w", err)
		}
		return &Result{
			Answer: answer,
			Route:  router.RouteStructured,
		}, nil

	case router.RouteHybrid:
		var (
			advisoryResp     rag.AskResponse
			structuredAnswer string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			resp, err := a.advisories.Ask(gctx, rag.AskRequest{Question: *decision.UnstructuredQuery})
			if err != nil {
				return fmt.Errorf("failed to answer advisory query: %w", err)
			}
			advisoryResp = resp
			return nil
		})
		g.Go(func() error {
			answer, err := a.structured.HandleQuery(gctx, *decision.StructuredQuery)
			if err != nil {
				return fmt.Errorf("failed to answer database query: %w", err)
			}
			structuredAnswer = answer
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		combined, err := a.synthesizer.Synthesize(ctx, query, decision.Reasoning, advisoryResp.Answer, structuredAnswer)
		if err != nil {
			return nil, fmt.Errorf("failed to synthesize hybrid answer: %w", err)
		}
		return &Result{
			Answer:  combined,
			Route:   router.RouteHybrid,
			Sources: advisoryResp.Sources,
		}, nil
	}

	return nil, fmt.Errorf("unhandled route type: %s", decision.RouteType)
}
