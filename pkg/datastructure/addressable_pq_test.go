package datastructure

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressablePQBasicOperations(t *testing.T) {
	pq := NewAddressablePQ[int](10)

	require.True(t, pq.IsEmpty())
	pq.Insert(3, 7)
	pq.Insert(1, 2)
	pq.Insert(8, 9)
	pq.Insert(5, 4)

	require.Equal(t, 4, pq.Size())
	require.True(t, pq.Contains(3))
	require.False(t, pq.Contains(0))
	require.Equal(t, 7, pq.Key(3))
	require.EqualValues(t, 8, pq.Max())
	require.Equal(t, 9, pq.MaxKey())

	id, key := pq.DeleteMax()
	require.EqualValues(t, 8, id)
	require.Equal(t, 9, key)
	require.False(t, pq.Contains(8))
	require.EqualValues(t, 3, pq.Max())
}

func TestAddressablePQUpdateKey(t *testing.T) {
	pq := NewAddressablePQ[int](10)
	pq.Insert(0, 1)
	pq.Insert(1, 5)
	pq.Insert(2, 3)

	pq.UpdateKey(0, 10)
	require.EqualValues(t, 0, pq.Max())

	pq.DecreaseKey(0, -4)
	require.EqualValues(t, 1, pq.Max())
	require.Equal(t, -4, pq.Key(0))

	pq.IncreaseKey(2, 6)
	require.EqualValues(t, 2, pq.Max())
}

func TestAddressablePQRemove(t *testing.T) {
	pq := NewAddressablePQ[int](10)
	for i := int32(0); i < 6; i++ {
		pq.Insert(i, int(i))
	}

	pq.Remove(5)
	pq.Remove(0)
	require.Equal(t, 4, pq.Size())
	require.False(t, pq.Contains(5))
	require.EqualValues(t, 4, pq.Max())

	got := make([]int32, 0, 4)
	for !pq.IsEmpty() {
		id, _ := pq.DeleteMax()
		got = append(got, id)
	}
	require.Equal(t, []int32{4, 3, 2, 1}, got)
}

func TestAddressablePQClearResetsPositions(t *testing.T) {
	pq := NewAddressablePQ[int](5)
	pq.Insert(0, 1)
	pq.Insert(4, 2)
	pq.Clear()

	require.True(t, pq.IsEmpty())
	require.False(t, pq.Contains(0))
	require.False(t, pq.Contains(4))

	pq.Insert(0, 3)
	require.EqualValues(t, 0, pq.Max())
}

func TestAddressablePQFloatKeys(t *testing.T) {
	pq := NewAddressablePQ[float64](4)
	pq.Insert(0, 0.25)
	pq.Insert(1, 0.75)
	pq.Insert(2, 0.5)

	require.EqualValues(t, 1, pq.Max())
	pq.UpdateKey(2, 0.9)
	require.EqualValues(t, 2, pq.Max())
}

func TestKWayPriorityQueueGlobalMaxAndEnableBits(t *testing.T) {
	kpq := NewKWayPriorityQueue(3, 10)
	kpq.Insert(0, 0, 5)
	kpq.Insert(1, 1, 8)
	kpq.Insert(2, 2, 3)
	kpq.Insert(3, 1, 2)

	id, part, key, ok := kpq.Max()
	require.True(t, ok)
	require.EqualValues(t, 1, id)
	require.EqualValues(t, 1, part)
	require.Equal(t, 8, key)

	kpq.DisablePart(1)
	id, part, key, ok = kpq.Max()
	require.True(t, ok)
	require.EqualValues(t, 0, id)
	require.EqualValues(t, 0, part)
	require.Equal(t, 5, key)

	kpq.EnablePart(1)
	id, part, _, ok = kpq.DeleteMax()
	require.True(t, ok)
	require.EqualValues(t, 1, id)
	require.EqualValues(t, 1, part)
	require.False(t, kpq.Contains(1, 1))
	require.True(t, kpq.Contains(3, 1))
}

func TestKWayPriorityQueueRemoveFromAll(t *testing.T) {
	kpq := NewKWayPriorityQueue(3, 4)
	kpq.Insert(2, 0, 1)
	kpq.Insert(2, 1, 2)
	kpq.Insert(2, 2, 3)

	require.True(t, kpq.ContainsAny(2))
	kpq.RemoveFromAll(2)
	require.False(t, kpq.ContainsAny(2))
	require.Equal(t, 0, kpq.TotalSize())

	_, _, _, ok := kpq.Max()
	require.False(t, ok)
}
