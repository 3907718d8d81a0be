package datacard

// FoldRange is a foldable line span, both ends inclusive.
type FoldRange struct {
	StartLine int
	EndLine   int
}

// FoldingRanges returns one range per pair of consecutive dividers, from the
// opening divider to the line above the closing one. Pairs with no line in
// between are skipped, and nothing is folded after the last divider.
func FoldingRanges(doc Document) []FoldRange {
	return foldingRanges(FindDividers(doc))
}

func foldingRanges(dividers []int) []FoldRange {
	var out []FoldRange
	for i := 1; i < len(dividers); i++ {
		start, end := dividers[i-1], dividers[i]-1
		if end > start {
			out = append(out, FoldRange{StartLine: start, EndLine: end})
		}
	}
	return out
}

// FoldingRanges returns the folding ranges of the analyzed document.
func (a *Analysis) FoldingRanges() []FoldRange {
	return foldingRanges(a.dividers)
}

// Symbol is an outline entry for one non-blank block.
type Symbol struct {
	Name      string
	Section   Section
	StartLine int // first content line
	EndLine   int // last line of the block
}

// Outline returns one symbol per non-blank block, labeled by its canonical
// section.
func (a *Analysis) Outline() []Symbol {
	var out []Symbol
	for i, b := range a.blocks {
		if b.Blank {
			continue
		}
		s := a.BlockSection(i)
		out = append(out, Symbol{
			Name:      s.String(),
			Section:   s,
			StartLine: b.ContentStart(),
			EndLine:   b.End,
		})
	}
	return out
}

// Outline returns the outline symbols of doc.
func Outline(doc Document) []Symbol {
	return Analyze(doc).Outline()
}
