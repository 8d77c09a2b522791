package advisory

import (
	"fmt"
	"strings"
)

// Section is a header block plus every non-header block that follows it up
// to the next header. Sections reference blocks owned by the Advisory; they
// never copy them.
type Section struct {
	Header *Block
	Blocks []*Block
}

// RenderMode selects which parts of a section Text includes.
type RenderMode int

const (
	RenderFull RenderMode = iota
	RenderHeaderOnly
	RenderBodyOnly
)

// ExtractSections partitions a validated block sequence into sections. The
// last two blocks always form the credits section. The references header
// and the list items after it are dropped. Every other header opens a new
// section, even one with an empty body.
func ExtractSections(blocks []Block) []Section {
	credits := Section{
		Header: &blocks[len(blocks)-2],
		Blocks: []*Block{&blocks[len(blocks)-1]},
	}

	r := referencesIndex(blocks)

	var sections []Section
	for i := range blocks[:r] {
		b := &blocks[i]
		if b.Type == BlockHeader {
			sections = append(sections, Section{Header: b})
			continue
		}
		cur := &sections[len(sections)-1]
		cur.Blocks = append(cur.Blocks, b)
	}

	return append(sections, credits)
}

// HasCode reports whether any block in the section body is a code block.
func (s *Section) HasCode() bool {
	for _, b := range s.Blocks {
		if b.Type == BlockCode {
			return true
		}
	}
	return false
}

// Text renders the section back into markdown-like text for prompt
// context. Blocks are separated by blank lines. RenderHeaderOnly yields
// just the header line, RenderBodyOnly skips it.
func (s *Section) Text(mode RenderMode) string {
	var parts []string

	if mode != RenderBodyOnly {
		parts = append(parts, strings.Repeat("#", s.Header.Level)+" "+s.Header.Content)
	}
	if mode == RenderHeaderOnly {
		return parts[0]
	}

	for _, b := range s.Blocks {
		switch b.Type {
		case BlockParagraph:
			parts = append(parts, b.Content)
		case BlockCode:
			parts = append(parts, "```"+b.Language+"\n"+b.Content+"\n```")
		case BlockListItem, BlockTable:
			parts = append(parts, strings.Join(b.Lines, "\n"))
		case BlockHeader:
			// Sections never hold header blocks in their body.
			panic(fmt.Sprintf("advisory: header block %q inside section body", b.Content))
		default:
			panic(fmt.Sprintf("advisory: unknown block type %d", int(b.Type)))
		}
	}

	return strings.Join(parts, "\n\n")
}
