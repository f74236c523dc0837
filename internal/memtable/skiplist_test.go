package memtable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSkipListArenaSlotReuse(t *testing.T) {
	s := newSkipList(1)
	s.insert(1, 0, []byte("a"))
	s.insert(2, 0, []byte("b"))
	s.insert(3, 0, []byte("c"))
	require.Len(t, s.nodes, 3)

	_, ok := s.remove(2)
	require.True(t, ok)
	require.Len(t, s.free, 1)

	s.insert(4, 0, []byte("d"))
	require.Len(t, s.nodes, 3, "inserting after a removal should reuse the freed slot")
	require.Empty(t, s.free)
}

func TestSkipListHeightShrinksAfterRemovingTallestNode(t *testing.T) {
	s := newSkipList(1)
	for i := uint64(0); i < 64; i++ {
		s.insert(i, 0, []byte("x"))
	}
	require.Greater(t, s.height, 1)

	for i := uint64(0); i < 64; i++ {
		s.remove(i)
	}
	require.Equal(t, 1, s.height)
	require.Equal(t, 0, s.size)
}

func TestSkipListLookupMissOnEmpty(t *testing.T) {
	s := newSkipList(1)
	_, ok := s.lookup(1)
	require.False(t, ok)
}
