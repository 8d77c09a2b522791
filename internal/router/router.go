// Package router classifies user questions and dispatches them to the
// advisory corpus, the vulnerability database, or both.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"advisory-ai/internal/advisory"
	"advisory-ai/internal/contextutil"
	"advisory-ai/internal/llm"
	"advisory-ai/internal/vulndb"
)

// RouteType is the destination a query is dispatched to.
type RouteType string

const (
	RouteUnstructured RouteType = "unstructured" // advisory semantic search
	RouteStructured   RouteType = "structured"   // vulnerability database
	RouteHybrid       RouteType = "hybrid"       // both
	RouteNone         RouteType = "none"         // off-topic
)

// Result is a routing decision with the transformed queries for each
// downstream handler.
type Result struct {
	RouteType         RouteType
	UnstructuredQuery *string // plain English query for advisory search, nil unless required
	StructuredQuery   *string // plain English description of data needed, nil unless required
	Reasoning         string
}

// ValidationError reports an LLM routing response that does not match the
// required format.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

const databaseOperations = `Available operations:
- Look up specific CVE details
- Search/filter vulnerabilities by ecosystem, severity, type, CVSS range
- List packages by ecosystem
- Get statistics grouped by ecosystem, severity, or type`

const routerPrompt = `You route user questions to the appropriate data source. Respond with a single JSON object.

DATA SOURCES:
1. Advisories (unstructured): vulnerability explanations, attack patterns, remediation

{advisory_summaries}

2. Database (structured): CVE records, packages, statistics

{database_schema}

FIELD REQUIREMENTS BY ROUTE TYPE:
| route_type   | unstructured_query | structured_query |
|--------------|--------------------| -----------------|
| unstructured | required string    | must be null     |
| structured   | must be null       | required string  |
| hybrid       | required string    | required string  |
| none         | must be null       | must be null     |

WARNING: Your response will be validated. If validation fails, the request fails.

OUTPUT: a single JSON object with these fields:
- route_type: one of "unstructured", "structured", "hybrid", "none"
- unstructured_query: plain English question for advisories, or null
- structured_query: plain English description of data needed, or null
- reasoning: brief explanation (REQUIRED, never empty)

RULES:
- Query fields must be PLAIN ENGLISH sentences (never SQL, never JSON, never code)
- When in doubt, prefer "hybrid" - combining data with context gives more complete answers
- Only use "structured" or "unstructured" alone when clearly one-dimensional

EXAMPLES:

For "unstructured" (how attacks work, remediation, best practices):
{"route_type": "unstructured", "unstructured_query": "How does SQL injection work?", "structured_query": null, "reasoning": "Asking about attack concepts"}

For "structured" (data lookups, counts, filtering, specific CVEs):
{"route_type": "structured", "unstructured_query": null, "structured_query": "List all critical severity vulnerabilities in npm packages", "reasoning": "Needs database filtering"}

For "hybrid" - BOTH query fields REQUIRED (check yourself before responding):
- unstructured_query: non-empty string? YES
- structured_query: non-empty string? YES
{"route_type": "hybrid", "unstructured_query": "How to remediate XSS vulnerabilities?", "structured_query": "Get details for CVE-2024-1234", "reasoning": "Needs both CVE data and remediation advice"}

For "none" (off-topic, not about security):
{"route_type": "none", "unstructured_query": null, "structured_query": null, "reasoning": "Not about security"}

USER QUESTION: {query}

BEFORE RESPONDING: If route_type="hybrid", verify BOTH query fields are non-empty strings.

JSON:`

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// Router routes user queries to data sources using LLM classification.
type Router struct {
	generator llm.Generator
	// prompt is pre-built with advisory summaries and the database schema,
	// leaving only the {query} placeholder.
	prompt string
}

// New creates a router. The corpus is only used to build the prompt; it is
// not retained.
func New(generator llm.Generator, corpus *advisory.Corpus) *Router {
	prompt := strings.ReplaceAll(routerPrompt, "{advisory_summaries}", formatAdvisorySummaries(corpus))
	prompt = strings.ReplaceAll(prompt, "{database_schema}", buildDatabaseSchema())
	return &Router{
		generator: generator,
		prompt:    prompt,
	}
}

// Route classifies a user query and transforms it for downstream handlers.
func (r *Router) Route(ctx context.Context, query string) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	prompt := strings.ReplaceAll(r.prompt, "{query}", query)
	response, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to route query: %w", err)
	}

	result, err := parseResponse(response)
	if err != nil {
		return nil, err
	}
	if err := validateResult(result); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "routed query", "route_type", result.RouteType, "reasoning", result.Reasoning)
	return result, nil
}

func formatAdvisorySummaries(corpus *advisory.Corpus) string {
	var lines []string
	for _, adv := range corpus.All() {
		lines = append(lines, fmt.Sprintf("- **%s**", adv.Title))
		lines = append(lines, fmt.Sprintf("  %s", adv.ExecutiveSummary))
	}
	return strings.Join(lines, "\n")
}

func buildDatabaseSchema() string {
	lines := []string{"Schema:"}
	for i, table := range vulndb.Tables {
		lines = append(lines, fmt.Sprintf("- **%s**: %s", table, strings.Join(vulndb.Schemas[i], ", ")))
	}
	lines = append(lines, "")
	lines = append(lines, databaseOperations)
	return strings.Join(lines, "\n")
}

func parseResponse(response string) (*Result, error) {
	match := jsonObjectRe.FindString(response)
	if match == "" {
		return nil, &ValidationError{Message: fmt.Sprintf("no JSON object found in response: %.200s", response)}
	}

	var data struct {
		RouteType         *string `json:"route_type"`
		UnstructuredQuery *string `json:"unstructured_query"`
		StructuredQuery   *string `json:"structured_query"`
		Reasoning         string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(match), &data); err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if data.RouteType == nil {
		return nil, &ValidationError{Message: "missing required field: route_type"}
	}

	routeType := RouteType(strings.ToLower(*data.RouteType))
	switch routeType {
	case RouteUnstructured, RouteStructured, RouteHybrid, RouteNone:
	default:
		return nil, &ValidationError{
			Message: fmt.Sprintf("unknown route_type: %q. Must be one of: unstructured, structured, hybrid, none", *data.RouteType),
		}
	}

	return &Result{
		RouteType:         routeType,
		UnstructuredQuery: data.UnstructuredQuery,
		StructuredQuery:   data.StructuredQuery,
		Reasoning:         data.Reasoning,
	}, nil
}

func validateResult(result *Result) error {
	report := func(message string) error {
		return &ValidationError{Message: message}
	}

	if result.Reasoning == "" {
		return report("reasoning is required")
	}

	switch result.RouteType {
	case RouteNone:
		if result.UnstructuredQuery != nil {
			return report("unstructured_query must be null when route_type is 'none'")
		}
		if result.StructuredQuery != nil {
			return report("structured_query must be null when route_type is 'none'")
		}
	case RouteUnstructured:
		if result.UnstructuredQuery == nil || *result.UnstructuredQuery == "" {
			return report("unstructured_query is required when route_type is 'unstructured'")
		}
		if result.StructuredQuery != nil {
			return report("structured_query must be null when route_type is 'unstructured'")
		}
	case RouteStructured:
		if result.UnstructuredQuery != nil {
			return report("unstructured_query must be null when route_type is 'structured'")
		}
		if result.StructuredQuery == nil || *result.StructuredQuery == "" {
			return report("structured_query is required when route_type is 'structured'")
		}
	case RouteHybrid:
		if result.UnstructuredQuery == nil || *result.UnstructuredQuery == "" {
			return report("unstructured_query is required when route_type is 'hybrid'")
		}
		if result.StructuredQuery == nil || *result.StructuredQuery == "" {
			return report("structured_query is required when route_type is 'hybrid'")
		}
	}

	return nil
}
