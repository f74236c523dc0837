package compaction

import (
	"container/heap"

	"ridgekv/internal/record"
)

// mergeSource is one table's records being folded into a compaction, in
// ascending key order. level and rank together break ties between
// records that share both a key and a timestamp: level 0's victims
// carry rank in newest-first order (rank 0 is the most recent flush),
// everything else's rank is irrelevant because same-level tables never
// overlap outside level 0.
type mergeSource struct {
	records []record.Record
	pos     int
	level   int
	rank    int
}

func (s *mergeSource) done() bool          { return s.pos >= len(s.records) }
func (s *mergeSource) peek() record.Record { return s.records[s.pos] }

type sourceHeap []*mergeSource

func (h sourceHeap) Len() int            { return len(h) }
func (h sourceHeap) Less(i, j int) bool  { return h[i].peek().Key < h[j].peek().Key }
func (h sourceHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *sourceHeap) Push(x interface{}) { *h = append(*h, x.(*mergeSource)) }
func (h *sourceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// mergeSources performs a k-way merge of sources, which must each
// already be sorted ascending by key. When two or more sources hold a
// record for the same key, the one with the larger timestamp wins; a
// timestamp tie favors the lower source level, then the lower rank.
func mergeSources(sources []*mergeSource) []record.Record {
	h := make(sourceHeap, 0, len(sources))
	for _, s := range sources {
		if !s.done() {
			h = append(h, s)
		}
	}
	heap.Init(&h)

	var out []record.Record
	for h.Len() > 0 {
		key := h[0].peek().Key

		var winner record.Record
		winnerLevel, winnerRank := 0, 0
		haveWinner := false
		var requeue []*mergeSource

		for h.Len() > 0 && h[0].peek().Key == key {
			s := heap.Pop(&h).(*mergeSource)
			r := s.peek()
			if !haveWinner || wins(r, s.level, s.rank, winner, winnerLevel, winnerRank) {
				winner, winnerLevel, winnerRank = r, s.level, s.rank
				haveWinner = true
			}
			s.pos++
			if !s.done() {
				requeue = append(requeue, s)
			}
		}
		for _, s := range requeue {
			heap.Push(&h, s)
		}
		out = append(out, winner)
	}
	return out
}

func wins(candidate record.Record, level, rank int, current record.Record, currentLevel, currentRank int) bool {
	if candidate.Timestamp != current.Timestamp {
		return candidate.Timestamp > current.Timestamp
	}
	if level != currentLevel {
		return level < currentLevel
	}
	return rank < currentRank
}

// dropTombstones removes deletion markers from an ascending record
// stream. Called only when the destination level is the deepest that
// currently exists, so there is nothing deeper left for the tombstone
// to shadow.
func dropTombstones(records []record.Record) []record.Record {
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if !r.Tombstone() {
			out = append(out, r)
		}
	}
	return out
}
