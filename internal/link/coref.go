package link

import (
	"github.com/sdrasco/freedact/internal/detect"
	"github.com/sdrasco/freedact/internal/textspan"
)

// MergeCoref folds provider coreference chains into the existing
// clusters. Each chain votes for the cluster its mentions overlap most
// (majority-overlap); spans overlapping the chain but still unclustered
// join the winner. Chains that touch no existing cluster are ignored —
// coref alone never creates new redaction targets.
func MergeCoref(spans []textspan.Span, clusters ClusterSet, chains []detect.CorefChain) []textspan.Span {
	if len(chains) == 0 {
		return spans
	}
	out := make([]textspan.Span, len(spans))
	copy(out, spans)

	for _, chain := range chains {
		votes := map[string]int{}
		for _, m := range chain {
			probe := textspan.Span{Start: m.Start, End: m.End}
			for _, sp := range out {
				if sp.ClusterID != "" && probe.Overlaps(sp) {
					votes[sp.ClusterID]++
				}
			}
		}
		winner := ""
		best := 0
		for id, n := range votes {
			if n > best || (n == best && (winner == "" || id < winner)) {
				winner, best = id, n
			}
		}
		if winner == "" {
			continue
		}
		for _, m := range chain {
			probe := textspan.Span{Start: m.Start, End: m.End}
			for i := range out {
				if out[i].ClusterID == "" && probe.Overlaps(out[i]) {
					out[i].ClusterID = winner
				}
			}
		}
	}
	return out
}
