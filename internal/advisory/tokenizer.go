package advisory

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	headerRe    = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	separatorRe = regexp.MustCompile(`^\|[\s\-:|]+\|$`)
	unorderedRe = regexp.MustCompile(`^[-*+]\s+`)
	orderedRe   = regexp.MustCompile(`^\d+\.\s+`)
)

// Tokenize parses advisory text into an ordered block sequence. It makes a
// single left-to-right pass over the lines; at each position the first
// matching construct wins: blank, fence, header, table, list item,
// paragraph. Malformed tables return a *StructureError.
func Tokenize(text string) ([]Block, error) {
	lines := strings.Split(text, "\n")

	var blocks []Block
	i := 0

	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])

		if trimmed == "" {
			i++
			continue
		}

		if strings.HasPrefix(trimmed, "```") {
			block, next := parseFence(lines, i)
			blocks = append(blocks, block)
			i = next
			continue
		}

		if m := headerRe.FindStringSubmatch(trimmed); m != nil {
			blocks = append(blocks, Block{
				Type:    BlockHeader,
				Content: strings.TrimSpace(m[2]),
				Level:   len(m[1]),
			})
			i++
			continue
		}

		if isTableLine(trimmed) && i+1 < len(lines) && isTableSeparator(lines[i+1]) {
			block, next, err := parseTable(lines, i)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
			i = next
			continue
		}

		if isListItem(lines[i]) {
			items, next := parseListItems(lines, i)
			blocks = append(blocks, items...)
			i = next
			continue
		}

		block, next := parseParagraph(lines, i)
		blocks = append(blocks, block)
		i = next
	}

	checkBlockCounts(lines, blocks)
	return blocks, nil
}

// parseFence consumes a fenced code block starting at the opening delimiter.
// The fence's own indentation is stripped from every interior line, so a
// fence nested inside a list item yields the same content it would at the
// margin. A missing closing fence is tolerated; the block runs to
// end-of-input.
func parseFence(lines []string, start int) (Block, int) {
	opening := lines[start]
	indent := opening[:len(opening)-len(strings.TrimLeft(opening, " \t"))]
	language := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(opening), "```"))

	var codeLines []string
	i := start + 1

	for i < len(lines) {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
			i++
			break
		}
		codeLines = append(codeLines, strings.TrimPrefix(lines[i], indent))
		i++
	}

	return Block{
		Type:     BlockCode,
		Content:  strings.Join(codeLines, "\n"),
		Language: language,
		Lines:    codeLines,
	}, i
}

func isTableLine(line string) bool {
	return len(line) > 1 && strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|")
}

func isTableSeparator(line string) bool {
	return separatorRe.MatchString(strings.TrimSpace(line))
}

func splitTableRow(line string) []string {
	trimmed := strings.Trim(strings.TrimSpace(line), "|")
	cells := strings.Split(trimmed, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// parseTable consumes contiguous pipe-wrapped lines starting at the header
// row. A table needs a header, a separator, and at least one data row, and
// every row must carry the same column count as the header; violations are
// reported as *StructureError with 1-based line numbers.
func parseTable(lines []string, start int) (Block, int, error) {
	var tableLines []string
	i := start

	for i < len(lines) {
		if isTableLine(strings.TrimSpace(lines[i])) {
			tableLines = append(tableLines, lines[i])
			i++
			continue
		}
		break
	}

	if len(tableLines) < 3 {
		return Block{}, 0, &StructureError{
			Line:    start + 1,
			Message: "table must have a header, a separator, and at least one data row",
		}
	}

	header := splitTableRow(tableLines[0])
	columns := len(header)
	if columns == 0 {
		return Block{}, 0, &StructureError{
			Line:    start + 1,
			Message: "table has an empty header row",
		}
	}

	if !isTableSeparator(tableLines[1]) {
		return Block{}, 0, &StructureError{
			Line:    start + 2,
			Message: "table is missing a separator row",
		}
	}
	separator := splitTableRow(tableLines[1])
	if len(separator) != columns {
		return Block{}, 0, &StructureError{
			Line:     start + 2,
			Expected: columns,
			Actual:   len(separator),
			Message:  fmt.Sprintf("table separator has %d columns, expected %d", len(separator), columns),
		}
	}

	rows := make([][]string, 0, len(tableLines)-2)
	for idx, rowLine := range tableLines[2:] {
		cells := splitTableRow(rowLine)
		if len(cells) != columns {
			return Block{}, 0, &StructureError{
				Line:     start + 3 + idx,
				Expected: columns,
				Actual:   len(cells),
				Message:  fmt.Sprintf("table row has %d columns, expected %d", len(cells), columns),
			}
		}
		rows = append(rows, cells)
	}

	return Block{
		Type:        BlockTable,
		Content:     strings.Join(tableLines, "\n"),
		Lines:       tableLines,
		TableHeader: header,
		TableRows:   rows,
	}, i, nil
}

func isListItem(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return unorderedRe.MatchString(trimmed) || orderedRe.MatchString(trimmed)
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// stripListMarker removes the leading list marker from an item's first line.
func stripListMarker(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if loc := unorderedRe.FindStringIndex(trimmed); loc != nil {
		return trimmed[loc[1]:]
	}
	if loc := orderedRe.FindStringIndex(trimmed); loc != nil {
		return trimmed[loc[1]:]
	}
	return trimmed
}

// parseListItems consumes a list starting at its first item and emits one
// ListItem block per item. Lines indented deeper than the list's base
// indentation continue the current item. A blank line continues the list
// only when the very next line starts another item. A fence inside the list
// flushes the current item and emits the code as its own block, so the
// result may interleave ListItem and CodeBlock blocks.
func parseListItems(lines []string, start int) ([]Block, int) {
	baseIndent := indentOf(lines[start])

	var blocks []Block
	var item []string

	flush := func() {
		if len(item) == 0 {
			return
		}
		parts := []string{strings.TrimSpace(stripListMarker(item[0]))}
		for _, cont := range item[1:] {
			parts = append(parts, strings.TrimSpace(cont))
		}
		blocks = append(blocks, Block{
			Type:    BlockListItem,
			Content: strings.Join(parts, " "),
			Level:   indentOf(item[0]),
			Lines:   item,
		})
		item = nil
	}

	i := start
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			if i+1 < len(lines) && isListItem(lines[i+1]) {
				i++
				continue
			}
			break
		}

		if strings.HasPrefix(trimmed, "```") {
			flush()
			code, next := parseFence(lines, i)
			blocks = append(blocks, code)
			i = next
			continue
		}

		if isListItem(line) {
			flush()
			item = append(item, line)
			i++
			continue
		}

		if indentOf(line) > baseIndent {
			item = append(item, line)
			i++
			continue
		}

		break
	}

	flush()
	return blocks, i
}

// parseParagraph consumes contiguous prose lines until a blank line or the
// start of any other recognized block. The first line is always consumed,
// so a line that merely resembles another construct cannot stall the
// cursor.
func parseParagraph(lines []string, start int) (Block, int) {
	raw := []string{lines[start]}
	i := start + 1

	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			break
		}
		if headerRe.MatchString(trimmed) ||
			strings.HasPrefix(trimmed, "```") ||
			isListItem(line) ||
			(isTableLine(trimmed) && i+1 < len(lines) && isTableSeparator(lines[i+1])) {
			break
		}

		raw = append(raw, line)
		i++
	}

	parts := make([]string, len(raw))
	for idx, line := range raw {
		parts[idx] = strings.TrimSpace(line)
	}

	return Block{
		Type:    BlockParagraph,
		Content: strings.Join(parts, " "),
		Lines:   raw,
	}, i
}

// checkBlockCounts re-derives the expected header and code block counts
// from an independent scan of the input and panics on any mismatch. A
// violation means the tokenizer itself is broken; it is never a property
// of the input.
func checkBlockCounts(lines []string, blocks []Block) {
	wantHeaders := 0
	fenceDelims := 0
	inFence := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			fenceDelims++
			inFence = !inFence
			continue
		}
		if !inFence && headerRe.MatchString(trimmed) {
			wantHeaders++
		}
	}
	// An unterminated final fence contributes a single delimiter line but
	// still yields one block, hence the rounding up.
	wantCode := (fenceDelims + 1) / 2

	gotHeaders, gotCode := 0, 0
	for _, b := range blocks {
		switch b.Type {
		case BlockHeader:
			gotHeaders++
		case BlockCode:
			gotCode++
		}
	}

	if gotHeaders != wantHeaders {
		panic(fmt.Sprintf("advisory: tokenizer emitted %d header blocks, input has %d header lines", gotHeaders, wantHeaders))
	}
	if gotCode != wantCode {
		panic(fmt.Sprintf("advisory: tokenizer emitted %d code blocks, input has %d fenced regions", gotCode, wantCode))
	}
}
