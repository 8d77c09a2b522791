package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"advisory-ai/internal/contextutil"
	"advisory-ai/internal/llm"
	"advisory-ai/internal/vulndb"
)

const structuredSystemPrompt = `You are a data analyst answering questions about a vulnerability database.

%s

RESPONSE FORMAT - You MUST respond with EXACTLY ONE of these:
  A) Tool call: ONLY a JSON object, nothing else
     {"tool": "name", "arguments": {...}}
  B) Final answer: ONLY plain text, no JSON anywhere

CRITICAL: Never mix text with JSON. Never include explanations with tool calls.

RULES:
- Call ONE tool at a time
- When you have enough data, answer IMMEDIATELY
- NEVER repeat a tool call
- NEVER call get_statistics with arguments other than group_by
- Final answers must be ONE sentence only
- NEVER include JSON, lists, or raw data in your answer - summarize in plain English
- NEVER do your own math - report values exactly as returned by tools`

const structuredQueryPrompt = `%s

%s

USER QUESTION: %s

Respond with a JSON tool call OR a one-sentence plain text answer:`

const finalAnswerPrompt = `Answer in exactly ONE sentence using the data below.
NEVER include JSON, code, or lists. Summarize in plain English only.

DATA:
%s

QUESTION: %s

ONE SENTENCE ANSWER:`

const maxToolIterations = 5

var toolJSONRe = regexp.MustCompile(`\{[\s\S]*\}`)

// ToolCaller executes a named tool against the vulnerability database.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, arguments map[string]any) (string, error)
}

type toolCall struct {
	Name string
	Args map[string]any
}

// StructuredRAG answers questions by letting the LLM call vulnerability
// database tools, one call per turn, until it produces a plain text answer.
type StructuredRAG struct {
	generator llm.Generator
	store     ToolCaller
}

// NewStructuredRAG creates a structured query handler.
func NewStructuredRAG(generator llm.Generator, store ToolCaller) *StructuredRAG {
	return &StructuredRAG{
		generator: generator,
		store:     store,
	}
}

// HandleQuery runs the tool loop for a structured query. Invalid LLM
// responses are fed back as history so the model can correct itself; a
// repeated tool call or hitting the iteration cap forces a final answer
// from the data gathered so far.
func (s *StructuredRAG) HandleQuery(ctx context.Context, query string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	system := fmt.Sprintf(structuredSystemPrompt, vulndb.ToolsDescription)
	var history []string
	previousCalls := make(map[string]bool)

	for i := 0; i < maxToolIterations; i++ {
		prompt := fmt.Sprintf(structuredQueryPrompt, system, strings.Join(history, "\n"), query)

		response, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("failed to generate tool response: %w", err)
		}

		call, parseErr := parseToolResponse(response)
		if parseErr != nil {
			logger.WarnContext(ctx, "invalid structured response", "error", parseErr)
			history = append(history, fmt.Sprintf("ERROR: Your response was invalid: %v", parseErr))
			history = append(history, "Respond with EITHER a JSON tool call OR plain text answer, not both.")
			continue
		}

		if call == nil {
			logger.InfoContext(ctx, "structured query answered", "iterations", i+1)
			return strings.TrimSpace(response), nil
		}

		argsJSON, err := json.Marshal(call.Args)
		if err != nil {
			return "", fmt.Errorf("failed to marshal tool arguments: %w", err)
		}
		callKey := fmt.Sprintf("%s:%s", call.Name, argsJSON)

		logger.InfoContext(ctx, "tool call requested", "tool", call.Name, "arguments", string(argsJSON))

		if previousCalls[callKey] {
			logger.InfoContext(ctx, "duplicate tool call, forcing answer", "tool", call.Name)
			break
		}
		previousCalls[callKey] = true

		result, err := s.store.CallTool(ctx, call.Name, call.Args)
		if err != nil {
			logger.WarnContext(ctx, "tool call failed", "tool", call.Name, "error", err)
			history = append(history, fmt.Sprintf("TOOL CALL: %s(%s)", call.Name, argsJSON))
			history = append(history, fmt.Sprintf("ERROR: %v\n", err))
			continue
		}

		history = append(history, fmt.Sprintf("TOOL CALL: %s(%s)", call.Name, argsJSON))
		history = append(history, fmt.Sprintf("RESULT:\n%s\n", result))
	}

	// Force a final answer with a simplified prompt that offers no tools.
	logger.InfoContext(ctx, "forcing final structured answer")
	prompt := fmt.Sprintf(finalAnswerPrompt, strings.Join(history, "\n"), query)
	response, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate final answer: %w", err)
	}
	return strings.TrimSpace(response), nil
}

// parseToolResponse classifies an LLM response. It returns (nil, nil) for a
// plain text answer, a tool call for a pure JSON object with a "tool" key,
// and an error for anything mixed or malformed. Parse errors are
// recoverable: the caller feeds them back into the conversation.
func parseToolResponse(response string) (*toolCall, error) {
	text := strings.TrimSpace(response)
	if text == "" {
		return nil, fmt.Errorf("empty response from LLM")
	}

	loc := toolJSONRe.FindStringIndex(text)
	if loc == nil {
		// No JSON found - must be a plain text answer
		return nil, nil
	}

	jsonStr := text[loc[0]:loc[1]]
	before := strings.TrimSpace(text[:loc[0]])
	after := strings.TrimSpace(text[loc[1]:])
	if before != "" || after != "" {
		return nil, fmt.Errorf("response contains both JSON and text. Before: %.50q, After: %.50q", before, after)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON in response: %v", err)
	}

	name, ok := parsed["tool"].(string)
	if !ok {
		return nil, fmt.Errorf("JSON response missing 'tool' key: %.100s", jsonStr)
	}

	args, _ := parsed["arguments"].(map[string]any)
	if args == nil {
		args = make(map[string]any)
	}

	return &toolCall{Name: name, Args: args}, nil
}
