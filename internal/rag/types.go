package rag

// AskRequest is a question posed against the advisory corpus.
type AskRequest struct {
	// Question is the natural language question.
	Question string `json:"question"`
	// K is the maximum number of chunks to retrieve. Defaults to 5, capped at 20.
	K int `json:"k,omitempty"`
}

// SourceRef identifies an advisory section that contributed to an answer.
type SourceRef struct {
	AdvisoryTitle    string `json:"advisory_title"`
	SectionHeader    string `json:"section_header"`
	AdvisoryFilename string `json:"advisory_filename"`
}

// AskResponse is the answer to an advisory question.
type AskResponse struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
}
