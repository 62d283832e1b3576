package buffer

import (
	"sort"
	"sync"
)

type Revisioned interface {
	Rev() int64
}

// RevisionBuffer keeps the last size items, oldest first, for replay to
// subscribers that reconnect. Items must be added in increasing revision order.
type RevisionBuffer[T Revisioned] struct {
	mu     sync.RWMutex
	items  []T
	size   int
	head   int
	isFull bool
}

func NewRevisionBuffer[T Revisioned](size int) *RevisionBuffer[T] {
	if size <= 0 {
		size = 256
	}
	return &RevisionBuffer[T]{
		items: make([]T, size),
		size:  size,
	}
}

func (b *RevisionBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.size
	if b.head == 0 {
		b.isFull = true
	}
}

// GetSince returns every item newer than lastRev. ok is false when items
// right after lastRev were already overwritten and the caller must resync.
func (b *RevisionBuffer[T]) GetSince(lastRev int64) (items []T, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count, start := b.head, 0
	if b.isFull {
		count, start = b.size, b.head
	}
	if count == 0 {
		return nil, true
	}

	if oldest := b.items[start].Rev(); lastRev+1 < oldest {
		return nil, false
	}

	idx := sort.Search(count, func(i int) bool {
		return b.items[(start+i)%b.size].Rev() > lastRev
	})
	if idx == count {
		return nil, true
	}

	result := make([]T, 0, count-idx)
	for i := idx; i < count; i++ {
		result = append(result, b.items[(start+i)%b.size])
	}
	return result, true
}

func (b *RevisionBuffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.isFull {
		return b.size
	}
	return b.head
}
