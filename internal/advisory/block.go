package advisory

import "fmt"

// BlockType identifies the kind of a parsed block. The set is closed:
// every consumer switches over all five kinds and panics on anything else,
// so adding a kind forces each consumer to be revisited.
type BlockType int

const (
	BlockHeader BlockType = iota
	BlockParagraph
	BlockCode
	BlockTable
	BlockListItem
)

func (t BlockType) String() string {
	switch t {
	case BlockHeader:
		return "header"
	case BlockParagraph:
		return "paragraph"
	case BlockCode:
		return "code_block"
	case BlockTable:
		return "table"
	case BlockListItem:
		return "list_item"
	}
	panic(fmt.Sprintf("advisory: unknown block type %d", int(t)))
}

// Block is one classified unit of parsed advisory text. Blocks are
// immutable once produced by Tokenize and retain source order.
type Block struct {
	Type     BlockType
	Content  string   // single-line join for prose, raw multi-line text for code and tables
	Level    int      // header depth 1-6, or list indentation in columns
	Language string   // code fence annotation, empty if none
	Lines    []string // raw source lines backing this block

	// Table blocks only.
	TableHeader []string
	TableRows   [][]string
}
