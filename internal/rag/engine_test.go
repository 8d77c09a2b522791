package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"advisory-ai/internal/advisory"
	"advisory-ai/internal/vectorstore"
	vectorstore_mocks "advisory-ai/internal/vectorstore/mocks"
)

const sampleAdvisory = `# Security Advisory: Buffer Overflow in libfoo

Affects libfoo before 1.2.0.

## Executive Summary

An attacker can execute code remotely.

## Impact

Remote attackers gain control. Upgrade immediately.

## References

- https://example.com/advisory

## Credits

Reported by a researcher.
`

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeGenerator struct {
	answer string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func loadTestCorpus(t *testing.T) *advisory.Corpus {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "libfoo.md"), []byte(sampleAdvisory), 0o644); err != nil {
		t.Fatalf("failed to write advisory: %v", err)
	}

	corpus, err := advisory.LoadDir(context.Background(), dir, advisory.LoadOptions{})
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	return corpus
}

func TestEngine_Ask(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	corpus := loadTestCorpus(t)
	mockVectorStore := vectorstore_mocks.NewMockVectorStore(ctrl)
	gen := &fakeGenerator{answer: "Upgrade libfoo to 1.2.0.\n"}

	mockVectorStore.EXPECT().
		Search(gomock.Any(), "advisories", gomock.Any(), 5, nil).
		Return([]vectorstore.SearchResult{
			{
				PointID: "p1",
				Score:   0.9,
				Meta:    map[string]any{"advisory_filename": "libfoo.md", "section_index": int64(2)},
			},
			{
				PointID: "p2",
				Score:   0.8,
				Meta:    map[string]any{"advisory_filename": "libfoo.md", "section_index": int64(1)},
			},
		}, nil)

	engine := NewEngine(&fakeEmbedder{}, mockVectorStore, "advisories", corpus, gen)
	resp, err := engine.Ask(context.Background(), AskRequest{Question: "How do I fix libfoo?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if resp.Answer != "Upgrade libfoo to 1.2.0." {
		t.Errorf("Answer = %q, want trimmed generator output", resp.Answer)
	}

	if len(resp.Sources) != 2 {
		t.Fatalf("Sources = %d, want 2", len(resp.Sources))
	}
	if resp.Sources[0].SectionHeader != "Impact" {
		t.Errorf("Sources[0].SectionHeader = %q, want Impact", resp.Sources[0].SectionHeader)
	}
	if resp.Sources[1].SectionHeader != "Executive Summary" {
		t.Errorf("Sources[1].SectionHeader = %q, want Executive Summary", resp.Sources[1].SectionHeader)
	}
	if resp.Sources[0].AdvisoryTitle != "Buffer Overflow in libfoo" {
		t.Errorf("Sources[0].AdvisoryTitle = %q", resp.Sources[0].AdvisoryTitle)
	}

	if !strings.Contains(gen.prompt, "=== ADVISORY: Buffer Overflow in libfoo ===") {
		t.Error("prompt should contain the advisory banner")
	}
	if !strings.Contains(gen.prompt, "## Impact") {
		t.Error("prompt should contain the rendered Impact section")
	}
	if !strings.Contains(gen.prompt, "USER QUESTION: How do I fix libfoo?") {
		t.Error("prompt should contain the user question")
	}
}

func TestEngine_Ask_NoResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	corpus := loadTestCorpus(t)
	mockVectorStore := vectorstore_mocks.NewMockVectorStore(ctrl)

	mockVectorStore.EXPECT().
		Search(gomock.Any(), "advisories", gomock.Any(), 5, nil).
		Return([]vectorstore.SearchResult{}, nil)

	engine := NewEngine(&fakeEmbedder{}, mockVectorStore, "advisories", corpus, &fakeGenerator{})
	resp, err := engine.Ask(context.Background(), AskRequest{Question: "anything"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if resp.Answer != NoResultsAnswer {
		t.Errorf("Answer = %q, want canned no-results answer", resp.Answer)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("Sources = %d, want 0", len(resp.Sources))
	}
}

func TestEngine_Ask_DuplicateSectionsCollapsed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	corpus := loadTestCorpus(t)
	mockVectorStore := vectorstore_mocks.NewMockVectorStore(ctrl)
	gen := &fakeGenerator{answer: "answer"}

	// Two chunks from the same section must yield one source.
	mockVectorStore.EXPECT().
		Search(gomock.Any(), "advisories", gomock.Any(), 5, nil).
		Return([]vectorstore.SearchResult{
			{PointID: "p1", Score: 0.9, Meta: map[string]any{"advisory_filename": "libfoo.md", "section_index": int64(2)}},
			{PointID: "p2", Score: 0.8, Meta: map[string]any{"advisory_filename": "libfoo.md", "section_index": int64(2)}},
		}, nil)

	engine := NewEngine(&fakeEmbedder{}, mockVectorStore, "advisories", corpus, gen)
	resp, err := engine.Ask(context.Background(), AskRequest{Question: "q"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if len(resp.Sources) != 1 {
		t.Errorf("Sources = %d, want 1 after dedup", len(resp.Sources))
	}
}

func TestEngine_Ask_UnknownAdvisoryDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	corpus := loadTestCorpus(t)
	mockVectorStore := vectorstore_mocks.NewMockVectorStore(ctrl)

	mockVectorStore.EXPECT().
		Search(gomock.Any(), "advisories", gomock.Any(), 5, nil).
		Return([]vectorstore.SearchResult{
			{PointID: "p1", Score: 0.9, Meta: map[string]any{"advisory_filename": "gone.md", "section_index": int64(0)}},
		}, nil)

	engine := NewEngine(&fakeEmbedder{}, mockVectorStore, "advisories", corpus, &fakeGenerator{})
	resp, err := engine.Ask(context.Background(), AskRequest{Question: "q"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if resp.Answer != NoResultsAnswer {
		t.Errorf("Answer = %q, want canned no-results answer when all hits are dropped", resp.Answer)
	}
}

func TestEngine_Ask_KBounds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	corpus := loadTestCorpus(t)
	mockVectorStore := vectorstore_mocks.NewMockVectorStore(ctrl)

	// K above the cap is clamped to 20.
	mockVectorStore.EXPECT().
		Search(gomock.Any(), "advisories", gomock.Any(), 20, nil).
		Return([]vectorstore.SearchResult{}, nil)

	engine := NewEngine(&fakeEmbedder{}, mockVectorStore, "advisories", corpus, &fakeGenerator{})
	if _, err := engine.Ask(context.Background(), AskRequest{Question: "q", K: 50}); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
}

func TestEngine_Ask_EmbedError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	corpus := loadTestCorpus(t)
	mockVectorStore := vectorstore_mocks.NewMockVectorStore(ctrl)

	engine := NewEngine(&fakeEmbedder{err: errors.New("model offline")}, mockVectorStore, "advisories", corpus, &fakeGenerator{})
	if _, err := engine.Ask(context.Background(), AskRequest{Question: "q"}); err == nil {
		t.Fatal("Ask() should fail when embedding fails")
	}
}
