// Package memtable implements the ordered in-memory write buffer:
// insert-or-update, lookup, remove, and ascending drain, each
// expected-logarithmic in the number of live keys.
//
// The ordered index itself is an arena-indexed skip list: nodes live in
// a single growable slice and reference each other by slot index rather
// than by pointer. Removed slots are pushed onto a free list and reused
// by later inserts instead of left to the garbage collector.
package memtable

import (
	"math/rand"

	"ridgekv/internal/record"
)

const (
	maxHeight = 16
	branching = 0.5
)

type node struct {
	key   uint64
	ts    int64
	value []byte
	next  []int32 // next[lvl] is the arena index of the successor at level lvl, or -1
}

// skipList is an arena-backed skip list ordered by ascending key.
type skipList struct {
	nodes  []node
	free   []int32
	head   []int32 // head[lvl] is the arena index of the first node at level lvl, or -1
	height int
	size   int
	rnd    *rand.Rand
}

func newSkipList(seed int64) *skipList {
	head := make([]int32, maxHeight)
	for i := range head {
		head[i] = -1
	}
	return &skipList{
		head:   head,
		height: 1,
		rnd:    rand.New(rand.NewSource(seed)),
	}
}

func (s *skipList) randomHeight() int {
	h := 1
	for h < maxHeight && s.rnd.Float64() < branching {
		h++
	}
	return h
}

// nextAt returns the arena index following from (the head, if idx is
// -1, or node idx) at level lvl.
func (s *skipList) nextAt(idx int32, lvl int) int32 {
	if idx == -1 {
		return s.head[lvl]
	}
	return s.nodes[idx].next[lvl]
}

func (s *skipList) setNext(idx int32, lvl int, val int32) {
	if idx == -1 {
		s.head[lvl] = val
		return
	}
	s.nodes[idx].next[lvl] = val
}

// findPredecessors fills update[0:s.height] with, for each level, the
// arena index of the last node with key strictly less than key (-1 for
// the head). It returns the arena index of the first node with key >= to
// the search key at level 0, or -1 if none exists.
func (s *skipList) findPredecessors(key uint64, update []int32) int32 {
	var cur int32 = -1
	for lvl := s.height - 1; lvl >= 0; lvl-- {
		for {
			nxt := s.nextAt(cur, lvl)
			if nxt == -1 || s.nodes[nxt].key >= key {
				break
			}
			cur = nxt
		}
		update[lvl] = cur
	}
	return s.nextAt(cur, 0)
}

func (s *skipList) allocNode(key uint64, ts int64, value []byte, height int) int32 {
	next := make([]int32, height)
	for i := range next {
		next[i] = -1
	}
	n := node{key: key, ts: ts, value: value, next: next}
	if len(s.free) > 0 {
		idx := s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
		s.nodes[idx] = n
		return idx
	}
	s.nodes = append(s.nodes, n)
	return int32(len(s.nodes) - 1)
}

// insert overwrites the record at key, returning the previous value's
// byte length and true if key already existed.
func (s *skipList) insert(key uint64, ts int64, value []byte) (prevLen int, existed bool) {
	update := make([]int32, maxHeight)
	candidate := s.findPredecessors(key, update)
	if candidate != -1 && s.nodes[candidate].key == key {
		prevLen = len(s.nodes[candidate].value)
		s.nodes[candidate].ts = ts
		s.nodes[candidate].value = value
		return prevLen, true
	}

	height := s.randomHeight()
	if height > s.height {
		for lvl := s.height; lvl < height; lvl++ {
			update[lvl] = -1
		}
		s.height = height
	}

	idx := s.allocNode(key, ts, value, height)
	for lvl := 0; lvl < height; lvl++ {
		pred := update[lvl]
		s.setNext(idx, lvl, s.nextAt(pred, lvl))
		s.setNext(pred, lvl, idx)
	}
	s.size++
	return 0, false
}

func (s *skipList) lookup(key uint64) (record.Record, bool) {
	update := make([]int32, maxHeight)
	candidate := s.findPredecessors(key, update)
	if candidate == -1 || s.nodes[candidate].key != key {
		return record.Record{}, false
	}
	n := s.nodes[candidate]
	return record.Record{Key: n.key, Timestamp: n.ts, Value: n.value}, true
}

func (s *skipList) remove(key uint64) (record.Record, bool) {
	update := make([]int32, maxHeight)
	target := s.findPredecessors(key, update)
	if target == -1 || s.nodes[target].key != key {
		return record.Record{}, false
	}

	n := s.nodes[target]
	for lvl := 0; lvl < len(n.next); lvl++ {
		s.setNext(update[lvl], lvl, s.nextAt(target, lvl))
	}
	s.free = append(s.free, target)
	s.nodes[target] = node{}
	s.size--

	for s.height > 1 && s.head[s.height-1] == -1 {
		s.height--
	}
	return record.Record{Key: n.key, Timestamp: n.ts, Value: n.value}, true
}

func (s *skipList) drainSorted() []record.Record {
	out := make([]record.Record, 0, s.size)
	for cur := s.head[0]; cur != -1; cur = s.nodes[cur].next[0] {
		n := s.nodes[cur]
		out = append(out, record.Record{Key: n.key, Timestamp: n.ts, Value: n.value})
	}
	return out
}

func (s *skipList) reset() {
	head := make([]int32, maxHeight)
	for i := range head {
		head[i] = -1
	}
	s.nodes = nil
	s.free = nil
	s.head = head
	s.height = 1
	s.size = 0
}
