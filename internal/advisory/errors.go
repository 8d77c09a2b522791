package advisory

import "fmt"

// StructureError reports malformed markup found during tokenization, such
// as a table whose rows disagree on column count. Line is 1-based in the
// source document. Expected and Actual carry column counts when the error
// is about table arity, and are zero otherwise.
type StructureError struct {
	Line     int
	Expected int
	Actual   int
	Message  string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ValidationError reports an advisory that does not match the required
// document template. Rule is one of the Rule* constants and names exactly
// which template rule was violated.
type ValidationError struct {
	Filename string
	Rule     string
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Filename, e.Message)
}

// ConfigurationError reports a chunking request that cannot be satisfied
// with the collaborators supplied, e.g. a section holding code blocks
// chunked without a summarizer.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}
