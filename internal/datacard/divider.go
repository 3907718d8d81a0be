package datacard

import "fmt"

// Block is a maximal run of lines between two dividers, or between a divider
// and the start or end of the document.
//
// A block that follows a divider owns that divider line as its Start, so the
// blocks of a document partition [0, LineCount) with no gaps. Content lines
// are [ContentStart(), End].
type Block struct {
	Start   int  // first line, inclusive
	End     int  // last line, inclusive
	Divider bool // Start is a divider line
	Blank   bool // every content line is empty after trimming
}

// ContentStart returns the first non-divider line of the block.
// It is End+1 when the block holds nothing but its divider.
func (b Block) ContentStart() int {
	if b.Divider {
		return b.Start + 1
	}
	return b.Start
}

// Contains reports whether line falls inside the block.
func (b Block) Contains(line int) bool {
	return line >= b.Start && line <= b.End
}

// Len returns the number of lines in the block, divider included.
func (b Block) Len() int {
	return b.End - b.Start + 1
}

// String returns a human-readable representation of the block.
func (b Block) String() string {
	kind := "content"
	if b.Blank {
		kind = "blank"
	}
	return fmt.Sprintf("Block[%d..%d %s]", b.Start, b.End, kind)
}

// FindDividers returns the indexes of all divider lines in order.
func FindDividers(doc Document) []int {
	var out []int
	n := doc.LineCount()
	for i := 0; i < n; i++ {
		if IsDivider(doc.LineText(i)) {
			out = append(out, i)
		}
	}
	return out
}

// ComputeBlocks splits doc into blocks using the given divider positions,
// which must be sorted ascending. With no dividers the whole document is a
// single block. When the first line is a divider there is no leading
// divider-less block.
func ComputeBlocks(doc Document, dividers []int) []Block {
	n := doc.LineCount()
	if n == 0 {
		return nil
	}

	blocks := make([]Block, 0, len(dividers)+1)
	start := 0
	divider := false
	for _, d := range dividers {
		if d > start {
			blocks = append(blocks, newBlock(doc, start, d-1, divider))
		}
		start = d
		divider = true
	}
	blocks = append(blocks, newBlock(doc, start, n-1, divider))

	return blocks
}

func newBlock(doc Document, start, end int, divider bool) Block {
	b := Block{Start: start, End: end, Divider: divider, Blank: true}
	for i := b.ContentStart(); i <= end; i++ {
		if !IsBlank(doc.LineText(i)) {
			b.Blank = false
			break
		}
	}
	return b
}
