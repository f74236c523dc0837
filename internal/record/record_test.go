package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTrip(t *testing.T) {
	cases := []Record{
		{Key: 1, Timestamp: 100, Value: []byte("hello")},
		{Key: 0, Timestamp: -5, Value: nil},
		{Key: 1 << 63, Timestamp: 0, Value: []byte{}},
	}

	for _, want := range cases {
		buf := want.Serialize()
		require.Len(t, buf, want.Size())

		got, err := Deserialize(buf)
		require.NoError(t, err)
		require.Equal(t, want.Key, got.Key)
		require.Equal(t, want.Timestamp, got.Timestamp)
		require.Equal(t, len(want.Value), len(got.Value))
		require.Equal(t, want.Tombstone(), got.Tombstone())
	}
}

func TestDeserializeShortRecord(t *testing.T) {
	_, err := Deserialize([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrShortRecord)

	r := Record{Key: 1, Timestamp: 1, Value: []byte("abcdef")}
	buf := r.Serialize()
	_, err = Deserialize(buf[:len(buf)-1])
	require.ErrorIs(t, err, ErrShortRecord)
}

func TestEstimate(t *testing.T) {
	require.Equal(t, 40, Estimate(0))
	require.Equal(t, 45, Estimate(5))
}

func TestTombstone(t *testing.T) {
	require.True(t, Record{Key: 1}.Tombstone())
	require.True(t, Record{Key: 1, Value: []byte{}}.Tombstone())
	require.False(t, Record{Key: 1, Value: []byte("x")}.Tombstone())
}
