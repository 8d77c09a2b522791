package advisory

import (
	"fmt"
	"strings"
)

// TitlePrefix is the literal every advisory title header must start with.
const TitlePrefix = "Security Advisory: "

// Validation rule identifiers, one per failure mode. They appear in
// *ValidationError.Rule so callers can branch without parsing messages.
const (
	RuleTooShort                = "too-short"
	RuleBadTitlePrefix          = "bad-title-prefix"
	RuleMissingExecutiveSummary = "missing-executive-summary"
	RuleMissingCredits          = "missing-credits"
	RuleMissingReferences       = "missing-references"
	RuleEmptyReferences         = "empty-references"
)

// Validate checks a block sequence against the advisory template:
// title header, executive summary, body sections, references list,
// credits. The block at index 1 is not constrained. Each violated rule
// produces a *ValidationError naming the rule.
func Validate(filename string, blocks []Block) error {
	if len(blocks) < 4 {
		return &ValidationError{
			Filename: filename,
			Rule:     RuleTooShort,
			Message:  fmt.Sprintf("advisory has %d blocks, need at least 4", len(blocks)),
		}
	}

	if blocks[0].Type != BlockHeader || !strings.HasPrefix(blocks[0].Content, TitlePrefix) {
		return &ValidationError{
			Filename: filename,
			Rule:     RuleBadTitlePrefix,
			Message:  fmt.Sprintf("first block must be a header starting with %q", TitlePrefix),
		}
	}

	if blocks[2].Type != BlockHeader || blocks[2].Content != "Executive Summary" ||
		blocks[3].Type != BlockParagraph {
		return &ValidationError{
			Filename: filename,
			Rule:     RuleMissingExecutiveSummary,
			Message:  `blocks 2 and 3 must be an "Executive Summary" header followed by a paragraph`,
		}
	}

	last := blocks[len(blocks)-1]
	credits := blocks[len(blocks)-2]
	if last.Type != BlockParagraph || credits.Type != BlockHeader || credits.Content != "Credits" {
		return &ValidationError{
			Filename: filename,
			Rule:     RuleMissingCredits,
			Message:  `advisory must end with a "Credits" header and a paragraph`,
		}
	}

	r := referencesIndex(blocks)
	if r < 0 {
		return &ValidationError{
			Filename: filename,
			Rule:     RuleMissingReferences,
			Message:  `no "References" header found before the credits section`,
		}
	}

	items := 0
	for _, b := range blocks[r+1 : len(blocks)-2] {
		if b.Type == BlockListItem {
			items++
		}
	}
	if items == 0 {
		return &ValidationError{
			Filename: filename,
			Rule:     RuleEmptyReferences,
			Message:  "references section has no list items",
		}
	}

	return nil
}

// referencesIndex scans backward from the block before the credits header,
// skipping list items, and returns the index of the first header it meets
// if that header is "References". It returns -1 when the references
// section is absent.
func referencesIndex(blocks []Block) int {
	for i := len(blocks) - 3; i >= 0; i-- {
		switch blocks[i].Type {
		case BlockListItem:
			continue
		case BlockHeader:
			if blocks[i].Content == "References" {
				return i
			}
			return -1
		default:
			return -1
		}
	}
	return -1
}
