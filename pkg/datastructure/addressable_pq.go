package datastructure

import (
	"golang.org/x/exp/constraints"

	"github.com/lintang-b-s/hypar/pkg/util"
)

// AddressablePQ is a max-keyed d-ary heap over dense integer ids. The
// position table gives O(1) Contains/Key and O(log n) UpdateKey/Remove,
// which is what the refiners hammer on.
type AddressablePQ[K constraints.Integer | constraints.Float] struct {
	d         int
	ids       []int32
	keys      []K
	positions []int // id -> heap slot, -1 when absent
}

func NewAddressablePQ[K constraints.Integer | constraints.Float](capacity int) *AddressablePQ[K] {
	return NewdAryAddressablePQ[K](4, capacity)
}

func NewdAryAddressablePQ[K constraints.Integer | constraints.Float](d, capacity int) *AddressablePQ[K] {
	positions := make([]int, capacity)
	for i := range positions {
		positions[i] = -1
	}
	return &AddressablePQ[K]{
		d:         d,
		ids:       make([]int32, 0, capacity),
		keys:      make([]K, 0, capacity),
		positions: positions,
	}
}

func (pq *AddressablePQ[K]) Size() int {
	return len(pq.ids)
}

func (pq *AddressablePQ[K]) IsEmpty() bool {
	return len(pq.ids) == 0
}

func (pq *AddressablePQ[K]) Contains(id int32) bool {
	return pq.positions[id] != -1
}

func (pq *AddressablePQ[K]) Key(id int32) K {
	return pq.keys[pq.positions[id]]
}

func (pq *AddressablePQ[K]) Max() int32 {
	return pq.ids[0]
}

func (pq *AddressablePQ[K]) MaxKey() K {
	return pq.keys[0]
}

func (pq *AddressablePQ[K]) Insert(id int32, key K) {
	util.AssertPanic(pq.positions[id] == -1, "id is already contained in the priority queue")
	pq.ids = append(pq.ids, id)
	pq.keys = append(pq.keys, key)
	index := len(pq.ids) - 1
	pq.positions[id] = index
	pq.heapifyUp(index)
}

func (pq *AddressablePQ[K]) UpdateKey(id int32, key K) {
	index := pq.positions[id]
	old := pq.keys[index]
	pq.keys[index] = key
	if key > old {
		pq.heapifyUp(index)
	} else if key < old {
		pq.heapifyDown(index)
	}
}

func (pq *AddressablePQ[K]) IncreaseKey(id int32, key K) {
	pq.UpdateKey(id, key)
}

func (pq *AddressablePQ[K]) DecreaseKey(id int32, key K) {
	pq.UpdateKey(id, key)
}

func (pq *AddressablePQ[K]) Remove(id int32) {
	index := pq.positions[id]
	pq.removeAt(index)
}

func (pq *AddressablePQ[K]) DeleteMax() (int32, K) {
	id := pq.ids[0]
	key := pq.keys[0]
	pq.removeAt(0)
	return id, key
}

func (pq *AddressablePQ[K]) Clear() {
	for _, id := range pq.ids {
		pq.positions[id] = -1
	}
	pq.ids = pq.ids[:0]
	pq.keys = pq.keys[:0]
}

func (pq *AddressablePQ[K]) removeAt(index int) {
	last := len(pq.ids) - 1
	pq.positions[pq.ids[index]] = -1
	if index != last {
		pq.ids[index] = pq.ids[last]
		pq.keys[index] = pq.keys[last]
		pq.positions[pq.ids[index]] = index
	}
	pq.ids = pq.ids[:last]
	pq.keys = pq.keys[:last]
	if index < last {
		pq.heapifyDown(index)
		pq.heapifyUp(index)
	}
}

func (pq *AddressablePQ[K]) parent(index int) int {
	return (index - 1) / pq.d
}

func (pq *AddressablePQ[K]) swap(i, j int) {
	pq.ids[i], pq.ids[j] = pq.ids[j], pq.ids[i]
	pq.keys[i], pq.keys[j] = pq.keys[j], pq.keys[i]
	pq.positions[pq.ids[i]] = i
	pq.positions[pq.ids[j]] = j
}

func (pq *AddressablePQ[K]) heapifyUp(index int) {
	for index != 0 && pq.keys[index] > pq.keys[pq.parent(index)] {
		pq.swap(index, pq.parent(index))
		index = pq.parent(index)
	}
}

func (pq *AddressablePQ[K]) heapifyDown(index int) {
	for {
		leftMostChild := index*pq.d + 1
		if leftMostChild >= len(pq.ids) {
			return
		}
		sentinel := leftMostChild + pq.d
		if sentinel > len(pq.ids) {
			sentinel = len(pq.ids)
		}
		largest := leftMostChild
		for i := leftMostChild + 1; i < sentinel; i++ {
			if pq.keys[i] > pq.keys[largest] {
				largest = i
			}
		}
		if pq.keys[largest] <= pq.keys[index] {
			return
		}
		pq.swap(index, largest)
		index = largest
	}
}
