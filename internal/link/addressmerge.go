package link

import (
	"sort"
	"strings"

	"github.com/sdrasco/freedact/internal/detect"
	"github.com/sdrasco/freedact/internal/textspan"
)

type lineInfo struct {
	span   textspan.Span
	lineNo int
	kind   string
}

// MergeAddressLines promotes runs of ADDRESS_LINE spans on consecutive
// lines (tolerating one blank line) into ADDRESS_BLOCK spans. A block
// needs a city-state-ZIP line preceded by a street, unit, or PO Box line.
// The constituent line spans stay in the result; the global merger drops
// them in favor of the higher-precedence block.
func MergeAddressLines(text string, spans []textspan.Span) []textspan.Span {
	var lines []lineInfo
	lineStarts := buildLineStarts(text)
	for _, sp := range spans {
		if sp.Label != textspan.LabelAddressLine {
			continue
		}
		lines = append(lines, lineInfo{
			span:   sp,
			lineNo: lineForPos(sp.Start, lineStarts),
			kind:   sp.Attr(textspan.AttrLineKind),
		})
	}
	if len(lines) == 0 {
		return spans
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].lineNo < lines[j].lineNo })

	type candidate struct {
		span      textspan.Span
		usedLines map[int]bool
	}
	var candidates []candidate

	for idx, li := range lines {
		if li.kind != detect.LineKindCityStateZip {
			continue
		}
		block := []lineInfo{li}
		used := map[int]bool{li.lineNo: true}
		lineNo := li.lineNo
		hasAnchor := false
		for j := idx - 1; j >= 0; j-- {
			prev := lines[j]
			gap := lineNo - prev.lineNo
			joinable := prev.kind == detect.LineKindStreet ||
				prev.kind == detect.LineKindUnit ||
				prev.kind == detect.LineKindPOBox
			if !joinable {
				break
			}
			if gap == 1 || (gap == 2 && blankLineBetween(text, lineStarts, prev.lineNo, lineNo)) {
				block = append([]lineInfo{prev}, block...)
				used[prev.lineNo] = true
				lineNo = prev.lineNo
				if prev.kind == detect.LineKindStreet || prev.kind == detect.LineKindPOBox {
					hasAnchor = true
				}
				continue
			}
			break
		}
		if len(block) < 2 || !hasAnchor {
			continue
		}
		start := block[0].span.Start
		end := block[len(block)-1].span.End
		conf := 0.0
		var kinds []string
		for _, b := range block {
			if b.span.Confidence > conf {
				conf = b.span.Confidence
			}
			kinds = append(kinds, b.kind)
		}
		if conf+0.01 < 0.99 {
			conf += 0.01
		}
		candidates = append(candidates, candidate{
			span: textspan.Span{
				Start:      start,
				End:        end,
				Text:       text[start:end],
				Label:      textspan.LabelAddressBlock,
				Source:     "address_block_merge",
				Confidence: conf,
				Attrs: map[string]string{
					"line_kinds": strings.Join(kinds, ","),
				},
			},
			usedLines: used,
		})
	}

	// Longest blocks first; each source line joins at most one block.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].span.Len() > candidates[j].span.Len()
	})
	taken := map[int]bool{}
	out := make([]textspan.Span, len(spans))
	copy(out, spans)
	for _, c := range candidates {
		overlap := false
		for ln := range c.usedLines {
			if taken[ln] {
				overlap = true
				break
			}
		}
		if overlap {
			continue
		}
		for ln := range c.usedLines {
			taken[ln] = true
		}
		out = append(out, c.span)
	}
	textspan.SortSpans(out)
	return out
}

func buildLineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && i+1 < len(text) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func lineForPos(pos int, starts []int) int {
	idx := sort.SearchInts(starts, pos+1) - 1
	if idx < 0 {
		return 0
	}
	return idx
}

func blankLineBetween(text string, starts []int, a, b int) bool {
	if b-a != 2 || a+1 >= len(starts) {
		return false
	}
	lineStart := starts[a+1]
	lineEnd := len(text)
	if a+2 < len(starts) {
		lineEnd = starts[a+2] - 1
	}
	return strings.TrimSpace(text[lineStart:lineEnd]) == ""
}
