package scheduler

// entry is one queued firing. A repeating handle is re-queued with a fresh
// entry after each run; cancelled handles are dropped lazily when popped.
type entry struct {
	deadline Ticks
	seq      uint64
	handle   *Handle
}

// entryQueue is a min-heap ordered by deadline, then by scheduling order.
type entryQueue []*entry

func (q entryQueue) Len() int { return len(q) }

func (q entryQueue) Less(i, j int) bool {
	if q[i].deadline != q[j].deadline {
		return q[i].deadline < q[j].deadline
	}
	return q[i].seq < q[j].seq
}

func (q entryQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *entryQueue) Push(x any) { *q = append(*q, x.(*entry)) }

func (q *entryQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}
