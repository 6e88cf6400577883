package datastructure

// KWayPriorityQueue bundles one addressable queue per block with a shared
// enabled bit per block. DeleteMax pops the globally best (node, block) pair
// among enabled, non-empty blocks; disabled blocks are skipped when
// selecting the next move.
type KWayPriorityQueue struct {
	queues  []*AddressablePQ[int]
	enabled []bool
}

func NewKWayPriorityQueue(k, capacity int) *KWayPriorityQueue {
	queues := make([]*AddressablePQ[int], k)
	enabled := make([]bool, k)
	for p := 0; p < k; p++ {
		queues[p] = NewAddressablePQ[int](capacity)
		enabled[p] = true
	}
	return &KWayPriorityQueue{queues: queues, enabled: enabled}
}

func (kpq *KWayPriorityQueue) Insert(id int32, part PartitionID, key int) {
	kpq.queues[part].Insert(id, key)
}

func (kpq *KWayPriorityQueue) Contains(id int32, part PartitionID) bool {
	return kpq.queues[part].Contains(id)
}

func (kpq *KWayPriorityQueue) ContainsAny(id int32) bool {
	for _, q := range kpq.queues {
		if q.Contains(id) {
			return true
		}
	}
	return false
}

func (kpq *KWayPriorityQueue) Key(id int32, part PartitionID) int {
	return kpq.queues[part].Key(id)
}

func (kpq *KWayPriorityQueue) UpdateKey(id int32, part PartitionID, key int) {
	kpq.queues[part].UpdateKey(id, key)
}

func (kpq *KWayPriorityQueue) Remove(id int32, part PartitionID) {
	kpq.queues[part].Remove(id)
}

func (kpq *KWayPriorityQueue) RemoveFromAll(id int32) {
	for _, q := range kpq.queues {
		if q.Contains(id) {
			q.Remove(id)
		}
	}
}

func (kpq *KWayPriorityQueue) Size(part PartitionID) int {
	return kpq.queues[part].Size()
}

func (kpq *KWayPriorityQueue) TotalSize() int {
	total := 0
	for _, q := range kpq.queues {
		total += q.Size()
	}
	return total
}

func (kpq *KWayPriorityQueue) IsEnabled(part PartitionID) bool {
	return kpq.enabled[part]
}

func (kpq *KWayPriorityQueue) EnablePart(part PartitionID) {
	kpq.enabled[part] = true
}

func (kpq *KWayPriorityQueue) DisablePart(part PartitionID) {
	kpq.enabled[part] = false
}

// Max returns the best (node, block, key) among enabled non-empty queues;
// ok is false when every queue is empty or disabled.
func (kpq *KWayPriorityQueue) Max() (id int32, part PartitionID, key int, ok bool) {
	for p, q := range kpq.queues {
		if !kpq.enabled[p] || q.IsEmpty() {
			continue
		}
		if !ok || q.MaxKey() > key {
			id = q.Max()
			part = PartitionID(p)
			key = q.MaxKey()
			ok = true
		}
	}
	return id, part, key, ok
}

func (kpq *KWayPriorityQueue) DeleteMax() (int32, PartitionID, int, bool) {
	id, part, key, ok := kpq.Max()
	if !ok {
		return 0, 0, 0, false
	}
	kpq.queues[part].Remove(id)
	return id, part, key, true
}

func (kpq *KWayPriorityQueue) Clear() {
	for p, q := range kpq.queues {
		q.Clear()
		kpq.enabled[p] = true
	}
}
